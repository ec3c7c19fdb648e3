// Package shared holds request parsing helpers used by every handler.
package shared

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	dErrors "bankledger/pkg/domain-errors"
)

const dateOnly = "2006-01-02"

// PathInt64 parses a chi URL parameter as an int64 id.
func PathInt64(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, dErrors.NewValidation("invalid path parameter", map[string]string{
			name: "must be an integer",
		})
	}
	return id, nil
}

// QueryString returns the query parameter value, or nil when absent or empty.
func QueryString(r *http.Request, name string) *string {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	return &raw
}

// QueryInt64 parses an optional integer query parameter.
func QueryInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, dErrors.NewValidation("invalid query parameter", map[string]string{
			name: "must be an integer",
		})
	}
	return &v, nil
}

// QueryDecimal parses an optional decimal query parameter.
func QueryDecimal(r *http.Request, name string) (*decimal.Decimal, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, dErrors.NewValidation("invalid query parameter", map[string]string{
			name: "must be a decimal number",
		})
	}
	return &v, nil
}

// QueryDate parses an optional timestamp query parameter. Both RFC 3339
// timestamps and bare dates are accepted.
func QueryDate(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(dateOnly, raw); err == nil {
		return &t, nil
	}
	return nil, dErrors.NewValidation("invalid query parameter", map[string]string{
		name: "must be an RFC 3339 timestamp or YYYY-MM-DD date",
	})
}
