// Package intent turns free-text chat messages into catalog and cart actions.
//
// Two paths share one tool set:
//
//   - Router matches a message against an ordered rule table and executes at
//     most one action. It needs no external service.
//   - Agent hands the message and the tool schema to a reasoning Engine and
//     executes the tools it selects. Without an engine, or when the engine
//     fails before any tool ran, Agent answers through the Router.
//
// Both paths act only through Tools, which calls the catalog orchestrator and
// the cart store. Nothing here reads the source store or a cache tier directly.
//
// Rule precedence (first match wins):
//
//  1. view_cart          "what's in my cart", "show my cart"
//  2. search_products    "search for", "find", "looking for", "do you have"
//  3. product_details    "details", "tell me about", "info", "describe"
//  4. add_to_cart        "add", "put", "buy"
//  5. increase_quantity  "increase", "one more", "another"
//  6. decrease_quantity  "decrease", "reduce", "remove", "delete", "take ... out"
//  7. clear_cart         "clear", "empty my cart", "remove all", "delete my cart", "start over"
//  8. help               "hello", "hi", "hey", "help", "what can you do"
//  9. fallback
//
// A message such as "product 1" carries no keyword and lands in the fallback.
package intent

// Action names. They double as tool names in the engine schema.
const (
	ActionViewCart         = "view_cart"
	ActionSearchProducts   = "search_products"
	ActionProductDetails   = "product_details"
	ActionAddToCart        = "add_to_cart"
	ActionIncreaseQuantity = "increase_quantity"
	ActionDecreaseQuantity = "decrease_quantity"
	ActionClearCart        = "clear_cart"
)

// Intent names that execute no action.
const (
	IntentHelp     = "help"
	IntentFallback = "fallback"
)

// Reply is the answer to one chat message.
type Reply struct {
	Text string `json:"text"`

	// Actions lists the actions carried out while answering, in order. A cart
	// action that changed nothing, such as adding an unknown product, is
	// not listed.
	Actions []string `json:"actions"`
}
