// Package handler exposes the customer and account endpoints. Handlers stay
// thin: decode, delegate to the directory service, write the result.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"bankledger/internal/directory/models"
	"bankledger/internal/directory/service"
	ledgermodels "bankledger/internal/ledger/models"
	ledgerstore "bankledger/internal/ledger/store"
	"bankledger/internal/transport/http/shared"
	dErrors "bankledger/pkg/domain-errors"
	"bankledger/pkg/platform/httputil"
	"bankledger/pkg/requestcontext"
)

// Service defines the directory operations the handler depends on.
type Service interface {
	CreateCustomer(ctx context.Context, name, address, identificationNumber string) (*models.Customer, error)
	ListCustomers(ctx context.Context) ([]*models.Customer, error)
	CreateAccount(ctx context.Context, customerID int64, accountType string, depositAmount decimal.Decimal, isActive bool) (*ledgermodels.Account, error)
	GetAccount(ctx context.Context, id int64) (*ledgermodels.Account, error)
	ListAccounts(ctx context.Context, filter ledgerstore.AccountFilter) ([]*ledgermodels.Account, error)
	UpdateAccount(ctx context.Context, id int64, patch service.AccountPatch) (*ledgermodels.Account, error)
	DeactivateAccount(ctx context.Context, id int64) error
}

// Handler handles customer and account endpoints.
type Handler struct {
	logger    *slog.Logger
	directory Service
}

// New creates a directory Handler.
func New(directory Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, directory: directory}
}

// Register registers the customer and account routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/customer", h.handleCreateCustomer)
	r.Get("/customer", h.handleListCustomers)

	r.Post("/account/create", h.handleCreateAccount)
	r.Get("/account", h.handleListAccounts)
	r.Get("/account/{id}", h.handleGetAccount)
	r.Put("/account/{id}", h.handleUpdateAccount)
	r.Delete("/account/{id}", h.handleDeactivateAccount)
}

func (h *Handler) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	customer, err := h.directory.CreateCustomer(ctx, req.Name, req.Address, req.IdentificationNumber)
	if err != nil {
		h.writeFailure(ctx, w, err, "failed to create customer")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, customer)
}

func (h *Handler) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	customers, err := h.directory.ListCustomers(ctx)
	if err != nil {
		h.writeFailure(ctx, w, err, "failed to list customers")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, customers)
}

func (h *Handler) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	account, err := h.directory.CreateAccount(ctx, req.Customer, req.Type, req.DepositAmount, isActive)
	if err != nil {
		h.writeFailure(ctx, w, err, "failed to create account")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, account)
}

func (h *Handler) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := accountFilterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	accounts, err := h.directory.ListAccounts(ctx, filter)
	if err != nil {
		h.writeFailure(ctx, w, err, "failed to list accounts")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, accounts)
}

func (h *Handler) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := shared.PathInt64(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	account, err := h.directory.GetAccount(ctx, id)
	if err != nil {
		h.writeFailure(ctx, w, err, "failed to load account")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, account)
}

func (h *Handler) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := shared.PathInt64(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	account, err := h.directory.UpdateAccount(ctx, id, service.AccountPatch{
		Type:     req.Type,
		Balance:  req.Balance,
		IsActive: req.IsActive,
	})
	if err != nil {
		h.writeFailure(ctx, w, err, "failed to update account")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, account)
}

func (h *Handler) handleDeactivateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := shared.PathInt64(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.directory.DeactivateAccount(ctx, id); err != nil {
		h.writeFailure(ctx, w, err, "failed to deactivate account")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func accountFilterFromQuery(r *http.Request) (ledgerstore.AccountFilter, error) {
	var filter ledgerstore.AccountFilter
	var err error

	if filter.OpenDateGTE, err = shared.QueryDate(r, "open_date__gte"); err != nil {
		return filter, err
	}
	if filter.OpenDateLTE, err = shared.QueryDate(r, "open_date__lte"); err != nil {
		return filter, err
	}
	filter.Type = shared.QueryString(r, "type")
	if filter.CustomerID, err = shared.QueryInt64(r, "customer__id"); err != nil {
		return filter, err
	}
	return filter, nil
}

func (h *Handler) writeFailure(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
