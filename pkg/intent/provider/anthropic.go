package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Sternrassler/storefront/pkg/intent"
	"github.com/Sternrassler/storefront/pkg/ratelimit"
)

const (
	// AnthropicName is the registry name of the Anthropic adapter.
	AnthropicName = "anthropic"

	anthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"

	// AnthropicDefaultModel is used when Config.Model is empty.
	AnthropicDefaultModel = "claude-3-5-haiku-latest"
)

// Anthropic talks to the messages API with tool use.
type Anthropic struct {
	cfg       Config
	transport *transport
}

// NewAnthropic creates an Anthropic engine.
func NewAnthropic(cfg Config) (*Anthropic, error) {
	cfg, err := cfg.withDefaults(anthropicBaseURL, AnthropicDefaultModel)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	return &Anthropic{
		cfg:       cfg,
		transport: newTransport(AnthropicName, cfg, ratelimit.AnthropicHeaders, cfg.logger(AnthropicName)),
	}, nil
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	Tools     []anthropicTool    `json:"tools,omitempty"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

// anthropicBlock is a content block of any type; unused fields are omitted.
type anthropicBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type anthropicResponse struct {
	Content    []anthropicBlock `json:"content"`
	StopReason string           `json:"stop_reason"`
}

// Complete implements intent.Engine.
func (a *Anthropic) Complete(ctx context.Context, req intent.Request) (intent.Completion, error) {
	body := anthropicRequest{
		Model:     a.cfg.Model,
		MaxTokens: a.cfg.MaxTokens,
		System:    req.System,
		Messages:  toAnthropicMessages(req.Messages),
	}
	for _, spec := range req.Tools {
		body.Tools = append(body.Tools, anthropicTool{
			Name:        spec.Name,
			Description: spec.Description,
			InputSchema: spec.Parameters,
		})
	}

	header := http.Header{}
	header.Set("X-Api-Key", a.cfg.APIKey)
	header.Set("Anthropic-Version", anthropicVersion)

	var resp anthropicResponse
	if err := a.transport.postJSON(ctx, a.cfg.BaseURL+"/v1/messages", header, body, &resp); err != nil {
		return intent.Completion{}, err
	}

	var (
		out   intent.Completion
		texts []string
	)
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			texts = append(texts, block.Text)
		case "tool_use":
			args := block.Input
			if len(args) == 0 {
				args = json.RawMessage(`{}`)
			}
			out.ToolCalls = append(out.ToolCalls, intent.ToolCall{ID: block.ID, Name: block.Name, Arguments: args})
		}
	}
	out.Text = strings.TrimSpace(strings.Join(texts, "\n"))
	return out, nil
}

// toAnthropicMessages converts the conversation. Consecutive tool results are
// sent together in one user turn, as the API requires.
func toAnthropicMessages(msgs []intent.Message) []anthropicMessage {
	var out []anthropicMessage
	for _, m := range msgs {
		switch m.Role {
		case intent.RoleTool:
			block := anthropicBlock{Type: "tool_result", ToolUseID: m.ToolCallID, Content: m.Content, IsError: m.IsError}
			if n := len(out); n > 0 && out[n-1].Role == "user" && out[n-1].Content[0].Type == "tool_result" {
				out[n-1].Content = append(out[n-1].Content, block)
				continue
			}
			out = append(out, anthropicMessage{Role: "user", Content: []anthropicBlock{block}})

		case intent.RoleAssistant:
			msg := anthropicMessage{Role: "assistant"}
			if m.Content != "" {
				msg.Content = append(msg.Content, anthropicBlock{Type: "text", Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				input := tc.Arguments
				if len(input) == 0 {
					input = json.RawMessage(`{}`)
				}
				msg.Content = append(msg.Content, anthropicBlock{Type: "tool_use", ID: tc.ID, Name: tc.Name, Input: input})
			}
			out = append(out, msg)

		default:
			out = append(out, anthropicMessage{Role: "user", Content: []anthropicBlock{{Type: "text", Text: m.Content}}})
		}
	}
	return out
}
