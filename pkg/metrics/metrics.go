package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry bundles the counters the order/inventory engine exposes.
type Registry struct {
	CheckoutAttempts  *prometheus.CounterVec
	CartMutations     *prometheus.CounterVec
	StockUpdates      prometheus.Counter
	LowStockCrossings prometheus.Counter
	OrdersConfirmed   prometheus.Counter
}

// New registers the engine counters against the provided registerer
// (prometheus.DefaultRegisterer when nil).
func New(reg prometheus.Registerer) *Registry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Registry{
		CheckoutAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tastebite",
			Subsystem: "checkout",
			Name:      "attempts_total",
			Help:      "Checkout attempts partitioned by outcome.",
		}, []string{"outcome"}),
		CartMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tastebite",
			Subsystem: "cart",
			Name:      "mutations_total",
			Help:      "Cart line mutations partitioned by operation.",
		}, []string{"op"}),
		StockUpdates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tastebite",
			Subsystem: "catalog",
			Name:      "stock_updates_total",
			Help:      "Stock writes accepted by the stock guard.",
		}),
		LowStockCrossings: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tastebite",
			Subsystem: "catalog",
			Name:      "low_stock_crossings_total",
			Help:      "Times a product crossed the low-stock threshold downward.",
		}),
		OrdersConfirmed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tastebite",
			Subsystem: "orders",
			Name:      "confirmed_total",
			Help:      "Orders moved from draft to confirmed.",
		}),
	}
}
