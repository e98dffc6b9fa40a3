package intent

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Sternrassler/storefront/pkg/cart"
)

type paramKind int

const (
	paramNone paramKind = iota
	paramProductID
	paramQuery
)

// rule is one entry of the routing cascade. match is evaluated against the
// normalized message; run is nil for intents that execute no action.
type rule struct {
	name    string
	match   func(msg string) bool
	param   paramKind
	example string
	run     func(ctx context.Context, t *Tools, id cart.Identity, productID int64, query string) (Result, error)
}

func keywords(words ...string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

var (
	cartWords     = keywords("cart", "basket")
	mutationWords = keywords("add", "put", "buy", "remove", "clear", "delete", "increase", "decrease", "reduce",
		"take", "out of", "another", "more", "less", "fewer", "empty my cart", "empty the cart", "empty cart")
	searchWords   = keywords("search", "find", "look for", "looking for", "do you have", "do you sell", "show me")
	detailWords   = keywords("detail", "details", "tell me about", "info", "information", "describe", "more about")
	addWords      = keywords("add", "put", "buy")
	increaseWords = keywords("increase", "one more", "another", "more of", "bump")
	decreaseWords = keywords("decrease", "reduce", "one less", "fewer", "remove", "delete", "take out")
	takeOut       = regexp.MustCompile(`\btake\b.*\bout\b`)
	clearWords    = keywords("clear", "empty", "remove all", "remove everything", "delete all", "delete everything",
		"delete my cart", "delete the cart", "start over")
	helpWords     = keywords("hello", "hi", "hey", "help", "what can you do", "how does this work")
)

// rules is the routing cascade, evaluated top to bottom.
var rules = []rule{
	{
		name: ActionViewCart,
		match: func(msg string) bool {
			return cartWords.MatchString(msg) && !mutationWords.MatchString(msg)
		},
		run: func(ctx context.Context, t *Tools, id cart.Identity, _ int64, _ string) (Result, error) {
			return always(t.ViewCart(ctx, id))
		},
	},
	{
		name:    ActionSearchProducts,
		match:   searchWords.MatchString,
		param:   paramQuery,
		example: "search for headphones",
		run: func(ctx context.Context, t *Tools, _ cart.Identity, _ int64, query string) (Result, error) {
			return always(t.Search(ctx, query))
		},
	},
	{
		name:    ActionProductDetails,
		match:   detailWords.MatchString,
		param:   paramProductID,
		example: "tell me about product 3",
		run: func(ctx context.Context, t *Tools, _ cart.Identity, productID int64, _ string) (Result, error) {
			return always(t.Details(ctx, productID))
		},
	},
	{
		name:    ActionAddToCart,
		match:   addWords.MatchString,
		param:   paramProductID,
		example: "add product 3 to my cart",
		run: func(ctx context.Context, t *Tools, id cart.Identity, productID int64, _ string) (Result, error) {
			return t.addToCart(ctx, id, productID)
		},
	},
	{
		name:    ActionIncreaseQuantity,
		match:   increaseWords.MatchString,
		param:   paramProductID,
		example: "one more of product 3",
		run: func(ctx context.Context, t *Tools, id cart.Identity, productID int64, _ string) (Result, error) {
			return t.increaseQuantity(ctx, id, productID)
		},
	},
	{
		name: ActionDecreaseQuantity,
		// "remove all" and friends belong to clear_cart further down.
		match: func(msg string) bool {
			return (decreaseWords.MatchString(msg) || takeOut.MatchString(msg)) && !clearWords.MatchString(msg)
		},
		param:   paramProductID,
		example: "decrease product 3",
		run: func(ctx context.Context, t *Tools, id cart.Identity, productID int64, _ string) (Result, error) {
			return t.decreaseQuantity(ctx, id, productID)
		},
	},
	{
		name:  ActionClearCart,
		match: clearWords.MatchString,
		run: func(ctx context.Context, t *Tools, id cart.Identity, _ int64, _ string) (Result, error) {
			return always(t.ClearCart(ctx, id))
		},
	},
	{
		name:  IntentHelp,
		match: helpWords.MatchString,
	},
}

const helpText = "Hi! I can search the catalog, show product details and manage your cart. " +
	"Try \"search for headphones\", \"add product 3 to my cart\" or \"what's in my cart?\"."

const fallbackText = "Sorry, I didn't understand that. " +
	"Try \"search for headphones\" or \"add product 3 to my cart\", or say \"help\"."

// Product id patterns, tried in order before the standalone integer scan.
var productIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:product|item|id|number|no\.?)\s*#?\s*(\d+)\b`),
	regexp.MustCompile(`#\s*(\d+)\b`),
}

var standaloneInt = regexp.MustCompile(`\b(\d+)\b`)

// extractProductID returns the first positive product id in msg.
func extractProductID(msg string) (int64, bool) {
	for _, p := range productIDPatterns {
		if m := p.FindStringSubmatch(msg); m != nil {
			return parseID(m[1])
		}
	}
	if m := standaloneInt.FindStringSubmatch(msg); m != nil {
		return parseID(m[1])
	}
	return 0, false
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Search text patterns, tried in order before the stopword scan.
var searchPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:search|look|looking)\s+(?:for\s+)?(.+)`),
	regexp.MustCompile(`\bfind\s+(?:me\s+)?(.+)`),
	regexp.MustCompile(`\bdo you (?:have|sell|carry)\s+(.+)`),
	regexp.MustCompile(`\bshow me\s+(.+)`),
}

var (
	tokenPattern  = regexp.MustCompile(`[a-z0-9]+`)
	leadingNoise  = regexp.MustCompile(`^(?:(?:some|any|a|an|the|your|all)\s+)+`)
	trailingNoise = regexp.MustCompile(`(?:\s+(?:products?|items?|please|for me|in stock))+$`)
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "for": {}, "me": {}, "some": {}, "any": {}, "do": {}, "you": {},
	"have": {}, "sell": {}, "carry": {}, "search": {}, "find": {}, "look": {}, "looking": {}, "show": {},
	"please": {}, "i": {}, "want": {}, "to": {}, "is": {}, "are": {}, "there": {}, "can": {}, "your": {},
	"product": {}, "products": {}, "item": {}, "items": {}, "of": {}, "with": {}, "in": {}, "on": {}, "and": {},
}

// extractQuery returns the search text of msg, or "" when nothing remains.
func extractQuery(msg string) string {
	for _, p := range searchPatterns {
		if m := p.FindStringSubmatch(msg); m != nil {
			if q := cleanQuery(m[1]); q != "" {
				return q
			}
		}
	}

	var kept []string
	for _, tok := range tokenPattern.FindAllString(msg, -1) {
		if _, stop := stopwords[tok]; !stop {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}

func cleanQuery(q string) string {
	q = strings.Trim(q, " \t?!.,;:'\"")
	q = leadingNoise.ReplaceAllString(q, "")
	q = trailingNoise.ReplaceAllString(q, "")

	for _, tok := range tokenPattern.FindAllString(q, -1) {
		if _, stop := stopwords[tok]; !stop {
			return strings.TrimSpace(q)
		}
	}
	return ""
}

// normalize lowercases msg and folds typographic apostrophes.
func normalize(msg string) string {
	msg = strings.ReplaceAll(msg, "’", "'")
	return strings.ToLower(strings.TrimSpace(msg))
}

func clarify(r rule) string {
	if r.param == paramQuery {
		return fmt.Sprintf("What would you like me to search for? For example: %q.", r.example)
	}
	return fmt.Sprintf("Which product do you mean? Please include its number, for example: %q.", r.example)
}
