package handler

import "github.com/shopspring/decimal"

type createCustomerRequest struct {
	Name                 string `json:"name"`
	Address              string `json:"address"`
	IdentificationNumber string `json:"identification_number"`
}

type createAccountRequest struct {
	Customer      int64           `json:"customer"`
	Type          string          `json:"type"`
	DepositAmount decimal.Decimal `json:"deposit_amount"`
	IsActive      *bool           `json:"is_active"`
}

type updateAccountRequest struct {
	Type     *string          `json:"type"`
	Balance  *decimal.Decimal `json:"balance"`
	IsActive *bool            `json:"is_active"`
}
