package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the account directory. All methods are
// nil-safe so tests can pass a nil *Metrics.
type Metrics struct {
	CustomersCreated    prometheus.Counter
	AccountsCreated     prometheus.Counter
	AccountsDeactivated prometheus.Counter
}

// New creates a Metrics instance registered on the default registry.
// Construct at most once per process.
func New() *Metrics {
	return &Metrics{
		CustomersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_customers_created_total",
			Help: "Total number of customers created",
		}),
		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_accounts_created_total",
			Help: "Total number of accounts opened",
		}),
		AccountsDeactivated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_accounts_deactivated_total",
			Help: "Total number of accounts deactivated",
		}),
	}
}

func (m *Metrics) IncrementCustomersCreated() {
	if m == nil {
		return
	}
	m.CustomersCreated.Inc()
}

func (m *Metrics) IncrementAccountsCreated() {
	if m == nil {
		return
	}
	m.AccountsCreated.Inc()
}

func (m *Metrics) IncrementAccountsDeactivated() {
	if m == nil {
		return
	}
	m.AccountsDeactivated.Inc()
}
