package cart

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cartOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "storefront_cart_operations_total",
	Help: "Total cart operations by operation and result",
}, []string{"operation", "result"})
