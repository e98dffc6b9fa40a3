package intent

import (
	"context"
	"encoding/json"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of an engine conversation. Assistant turns may carry
// tool calls; tool turns answer exactly one call.
type Message struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID links a tool result to the call it answers
	ToolCallID string `json:"tool_call_id,omitempty"`
	IsError    bool   `json:"is_error,omitempty"`
}

// ToolSpec describes one tool offered to an engine. Parameters is a JSON
// schema object.
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Request is one completion request.
type Request struct {
	System   string
	Messages []Message
	Tools    []ToolSpec
}

// Completion is the engine's answer: final text, tool calls, or both.
type Completion struct {
	Text      string
	ToolCalls []ToolCall
}

// Engine is an external reasoning engine. Implementations translate Request
// and Completion to and from one provider's wire format.
type Engine interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}

var (
	noParams      = json.RawMessage(`{"type":"object","properties":{}}`)
	productParams = json.RawMessage(`{"type":"object","properties":{"product_id":{"type":"integer","minimum":1,"description":"Catalog product id"}},"required":["product_id"]}`)
	queryParams   = json.RawMessage(`{"type":"object","properties":{"query":{"type":"string","description":"Words to look for in product names and descriptions"}},"required":["query"]}`)
)

// ToolSchema returns the fixed tool set offered to every engine.
func ToolSchema() []ToolSpec {
	return []ToolSpec{
		{Name: ActionViewCart, Description: "Show the contents and total of the shopper's cart.", Parameters: noParams},
		{Name: ActionSearchProducts, Description: "Search the catalog by keyword.", Parameters: queryParams},
		{Name: ActionProductDetails, Description: "Show price, description and stock of one product.", Parameters: productParams},
		{Name: ActionAddToCart, Description: "Add one unit of a product to the cart.", Parameters: productParams},
		{Name: ActionIncreaseQuantity, Description: "Add one more unit of a product already in the cart.", Parameters: productParams},
		{Name: ActionDecreaseQuantity, Description: "Remove one unit of a product from the cart.", Parameters: productParams},
		{Name: ActionClearCart, Description: "Remove everything from the cart.", Parameters: noParams},
	}
}
