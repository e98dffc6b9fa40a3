package provider

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Sternrassler/storefront/internal/testutil"
	"github.com/Sternrassler/storefront/pkg/intent"
)

func TestAnthropic_CompleteWithToolUse(t *testing.T) {
	mock := testutil.NewMockEngine()
	defer mock.Close()
	mock.SetResponse("/v1/messages", testutil.NewJSONResponse(`{
		"stop_reason": "tool_use",
		"content": [
			{"type": "text", "text": "Let me look that up."},
			{"type": "tool_use", "id": "toolu_1", "name": "search_products", "input": {"query": "mug"}}
		]
	}`))

	engine, err := NewAnthropic(testConfig(mock.URL()))
	if err != nil {
		t.Fatalf("NewAnthropic failed: %v", err)
	}

	got, err := engine.Complete(context.Background(), intent.Request{
		System:   "be brief",
		Messages: []intent.Message{{Role: intent.RoleUser, Content: "any mugs?"}},
		Tools:    intent.ToolSchema(),
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if got.Text != "Let me look that up." {
		t.Errorf("Text = %q", got.Text)
	}
	if len(got.ToolCalls) != 1 || got.ToolCalls[0].ID != "toolu_1" || got.ToolCalls[0].Name != intent.ActionSearchProducts {
		t.Fatalf("ToolCalls = %+v", got.ToolCalls)
	}

	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(got.ToolCalls[0].Arguments, &args); err != nil || args.Query != "mug" {
		t.Errorf("Arguments = %s", got.ToolCalls[0].Arguments)
	}

	header := mock.GetLastRequestHeader()
	if header.Get("X-Api-Key") != "test-key" || header.Get("Anthropic-Version") != anthropicVersion {
		t.Errorf("Headers = %v", header)
	}

	var sent anthropicRequest
	if err := json.Unmarshal(mock.GetLastRequestBody(), &sent); err != nil {
		t.Fatalf("Request body is not JSON: %v", err)
	}
	if sent.System != "be brief" || sent.MaxTokens != 1024 || sent.Model != AnthropicDefaultModel {
		t.Errorf("Request = %+v", sent)
	}
	if len(sent.Tools) != len(intent.ToolSchema()) || len(sent.Tools[0].InputSchema) == 0 {
		t.Errorf("Tools = %+v", sent.Tools)
	}
}

func TestAnthropic_GroupsToolResults(t *testing.T) {
	msgs := []intent.Message{
		{Role: intent.RoleUser, Content: "add 3 and show my cart"},
		{Role: intent.RoleAssistant, Content: "On it.", ToolCalls: []intent.ToolCall{
			{ID: "t1", Name: "add_to_cart", Arguments: json.RawMessage(`{"product_id":3}`)},
			{ID: "t2", Name: "view_cart"},
		}},
		{Role: intent.RoleTool, ToolCallID: "t1", Content: "Added Mug to your cart."},
		{Role: intent.RoleTool, ToolCallID: "t2", Content: "error: boom", IsError: true},
	}

	out := toAnthropicMessages(msgs)
	if len(out) != 3 {
		t.Fatalf("Messages = %d, want 3", len(out))
	}

	assistant := out[1]
	if assistant.Role != "assistant" || len(assistant.Content) != 3 {
		t.Fatalf("Assistant = %+v", assistant)
	}
	if assistant.Content[0].Type != "text" || assistant.Content[2].Type != "tool_use" || string(assistant.Content[2].Input) != `{}` {
		t.Errorf("Assistant blocks = %+v", assistant.Content)
	}

	results := out[2]
	if results.Role != "user" || len(results.Content) != 2 {
		t.Fatalf("Tool results = %+v", results)
	}
	if results.Content[0].ToolUseID != "t1" || !results.Content[1].IsError {
		t.Errorf("Tool result blocks = %+v", results.Content)
	}
}
