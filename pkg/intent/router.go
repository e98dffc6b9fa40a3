package intent

import (
	"context"
	"fmt"

	"github.com/Sternrassler/storefront/pkg/cart"
	"github.com/rs/zerolog"
)

const failureText = "Sorry, I couldn't complete that right now. Please try again in a moment."

// Router answers chat messages with the rule cascade. It is deterministic and
// needs no external service.
type Router struct {
	tools  *Tools
	logger zerolog.Logger
}

// NewRouter creates a rule-based router. It panics if tools is nil.
func NewRouter(tools *Tools, logger zerolog.Logger) *Router {
	if tools == nil {
		panic("intent: tools are required")
	}
	return &Router{tools: tools, logger: logger}
}

// Route matches message against the cascade and executes the first matching
// rule. An action that needs a product id or a search text it cannot extract
// is answered with a clarifying question and nothing is executed.
//
// When an action fails the reply explains it and the error is returned, so a
// caller learns that, for example, an add did not happen.
func (r *Router) Route(ctx context.Context, id cart.Identity, message string) (Reply, error) {
	msg := normalize(message)

	for _, rl := range rules {
		if !rl.match(msg) {
			continue
		}
		return r.apply(ctx, rl, id, msg)
	}

	intentRoutedTotal.WithLabelValues(IntentFallback, "answered").Inc()
	r.logger.Debug().Str("message", msg).Msg("No intent matched, using fallback")
	return Reply{Text: fallbackText, Actions: []string{}}, nil
}

func (r *Router) apply(ctx context.Context, rl rule, id cart.Identity, msg string) (Reply, error) {
	if rl.run == nil {
		intentRoutedTotal.WithLabelValues(rl.name, "answered").Inc()
		return Reply{Text: helpText, Actions: []string{}}, nil
	}

	var (
		productID int64
		query     string
	)
	switch rl.param {
	case paramProductID:
		var ok bool
		if productID, ok = extractProductID(msg); !ok {
			intentRoutedTotal.WithLabelValues(rl.name, "clarify").Inc()
			return Reply{Text: clarify(rl), Actions: []string{}}, nil
		}
	case paramQuery:
		if query = extractQuery(msg); query == "" {
			intentRoutedTotal.WithLabelValues(rl.name, "clarify").Inc()
			return Reply{Text: clarify(rl), Actions: []string{}}, nil
		}
	}

	result, err := rl.run(ctx, r.tools, id, productID, query)
	if err != nil {
		intentRoutedTotal.WithLabelValues(rl.name, "error").Inc()
		r.logger.Error().Err(err).
			Str("intent", rl.name).
			Str("identity", id.String()).
			Msg("Intent action failed")
		return Reply{Text: failureText, Actions: []string{}}, fmt.Errorf("%s: %w", rl.name, err)
	}

	if !result.Applied {
		intentRoutedTotal.WithLabelValues(rl.name, "declined").Inc()
		r.logger.Debug().
			Str("intent", rl.name).
			Int64("product_id", productID).
			Msg("Intent answered without a cart change")
		return Reply{Text: result.Text, Actions: []string{}}, nil
	}

	intentRoutedTotal.WithLabelValues(rl.name, "executed").Inc()
	r.logger.Debug().
		Str("intent", rl.name).
		Int64("product_id", productID).
		Str("query", query).
		Msg("Intent executed")
	return Reply{Text: result.Text, Actions: []string{rl.name}}, nil
}
