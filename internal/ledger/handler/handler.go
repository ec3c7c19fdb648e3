// Package handler exposes the money movement endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"bankledger/internal/ledger/models"
	"bankledger/internal/ledger/store"
	"bankledger/internal/transport/http/shared"
	dErrors "bankledger/pkg/domain-errors"
	"bankledger/pkg/platform/httputil"
	"bankledger/pkg/requestcontext"
)

// Service defines the ledger operations the handler depends on.
type Service interface {
	Deposit(ctx context.Context, accountID int64, amount decimal.Decimal) (*models.Deposit, error)
	Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (*models.Withdraw, error)
	Transfer(ctx context.Context, fromID, toID int64, amount decimal.Decimal) (*models.Transfer, error)
	ListTransfers(ctx context.Context, filter store.TransferFilter) ([]*models.Transfer, error)
	TransfersByAccount(ctx context.Context, accountID int64) ([]*models.Transfer, error)
}

// Handler handles deposit, withdraw and transfer endpoints.
type Handler struct {
	logger *slog.Logger
	ledger Service
}

// New creates a ledger Handler.
func New(ledger Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, ledger: ledger}
}

// Register registers the movement routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/deposit", h.handleDeposit)
	r.Post("/withdraw", h.handleWithdraw)
	r.Post("/transfer", h.handleTransfer)
	r.Get("/transfer", h.handleListTransfers)
	r.Get("/account/{id}/transfers", h.handleAccountTransfers)
}

func (h *Handler) handleDeposit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	deposit, err := h.ledger.Deposit(ctx, req.Account, req.Amount)
	if err != nil {
		h.writeFailure(ctx, w, err, "deposit failed")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, deposit)
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	withdraw, err := h.ledger.Withdraw(ctx, req.Account, req.Amount)
	if err != nil {
		h.writeFailure(ctx, w, err, "withdraw failed")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, withdraw)
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid request body"))
		return
	}

	transfer, err := h.ledger.Transfer(ctx, req.TransferFrom, req.TransferTo, req.Amount)
	if err != nil {
		h.writeFailure(ctx, w, err, "transfer failed")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, transfer)
}

func (h *Handler) handleListTransfers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := transferFilterFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	transfers, err := h.ledger.ListTransfers(ctx, filter)
	if err != nil {
		h.writeFailure(ctx, w, err, "failed to list transfers")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, transfers)
}

func (h *Handler) handleAccountTransfers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := shared.PathInt64(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	transfers, err := h.ledger.TransfersByAccount(ctx, id)
	if err != nil {
		h.writeFailure(ctx, w, err, "failed to list account transfers")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, transfers)
}

func transferFilterFromQuery(r *http.Request) (store.TransferFilter, error) {
	var filter store.TransferFilter
	var err error

	if filter.FromID, err = shared.QueryInt64(r, "transfer_from__id"); err != nil {
		return filter, err
	}
	if filter.ToID, err = shared.QueryInt64(r, "transfer_to__id"); err != nil {
		return filter, err
	}
	if filter.ProcessingDateGTE, err = shared.QueryDate(r, "processing_date__gte"); err != nil {
		return filter, err
	}
	if filter.ProcessingDateLTE, err = shared.QueryDate(r, "processing_date__lte"); err != nil {
		return filter, err
	}
	if filter.AmountGTE, err = shared.QueryDecimal(r, "amount__gte"); err != nil {
		return filter, err
	}
	if filter.AmountLTE, err = shared.QueryDecimal(r, "amount__lte"); err != nil {
		return filter, err
	}
	if filter.AmountExact, err = shared.QueryDecimal(r, "amount"); err != nil {
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
