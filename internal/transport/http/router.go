// Package http assembles the public HTTP surface.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	directoryhandler "bankledger/internal/directory/handler"
	ledgerhandler "bankledger/internal/ledger/handler"
	"bankledger/internal/platform/middleware"
)

// Registrar is implemented by domain handlers that attach routes.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter builds the router with the shared middleware chain, the health
// and metrics endpoints, and every domain handler's routes.
func NewRouter(logger *slog.Logger, requestTimeout time.Duration, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}

	return r
}

var _ Registrar = (*directoryhandler.Handler)(nil)
var _ Registrar = (*ledgerhandler.Handler)(nil)
