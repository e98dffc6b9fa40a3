package intent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	intentRoutedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_intent_routed_total",
		Help: "Chat messages handled by the rule router, by intent and outcome",
	}, []string{"intent", "outcome"})

	engineRoundsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_intent_engine_rounds_total",
		Help: "Completion rounds sent to the reasoning engine",
	})

	engineToolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_intent_engine_tool_calls_total",
		Help: "Tool calls executed for the reasoning engine, by tool and result",
	}, []string{"tool", "result"})

	engineFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_intent_engine_fallbacks_total",
		Help: "Messages answered by the rule router after the engine failed",
	})
)
