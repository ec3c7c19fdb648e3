package handler

import "github.com/shopspring/decimal"

type depositRequest struct {
	Account int64           `json:"account"`
	Amount  decimal.Decimal `json:"amount"`
}

type withdrawRequest struct {
	Account int64           `json:"account"`
	Amount  decimal.Decimal `json:"amount"`
}

type transferRequest struct {
	TransferFrom int64           `json:"transfer_from"`
	TransferTo   int64           `json:"transfer_to"`
	Amount       decimal.Decimal `json:"amount"`
}
