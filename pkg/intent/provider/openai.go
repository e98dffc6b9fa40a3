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
	// OpenAIName is the registry name of the OpenAI adapter.
	OpenAIName = "openai"

	openAIBaseURL = "https://api.openai.com"

	// OpenAIDefaultModel is used when Config.Model is empty.
	OpenAIDefaultModel = "gpt-4o-mini"
)

// OpenAI talks to the chat completions API with function tools.
type OpenAI struct {
	cfg       Config
	transport *transport
}

// NewOpenAI creates an OpenAI engine.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	cfg, err := cfg.withDefaults(openAIBaseURL, OpenAIDefaultModel)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	return &OpenAI{
		cfg:       cfg,
		transport: newTransport(OpenAIName, cfg, ratelimit.OpenAIHeaders, cfg.logger(OpenAIName)),
	}, nil
}

type openAIRequest struct {
	Model     string          `json:"model"`
	Messages  []openAIMessage `json:"messages"`
	Tools     []openAITool    `json:"tools,omitempty"`
	MaxTokens int             `json:"max_tokens,omitempty"`
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    *string          `json:"content"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAIToolCall struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Function openAIFunction `json:"function"`
}

type openAIFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openAITool struct {
	Type     string            `json:"type"`
	Function openAIFunctionDef `json:"function"`
}

type openAIFunctionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type openAIResponse struct {
	Choices []struct {
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
}

// Complete implements intent.Engine.
func (o *OpenAI) Complete(ctx context.Context, req intent.Request) (intent.Completion, error) {
	body := openAIRequest{
		Model:     o.cfg.Model,
		MaxTokens: o.cfg.MaxTokens,
	}
	if req.System != "" {
		body.Messages = append(body.Messages, openAIMessage{Role: "system", Content: strPtr(req.System)})
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, toOpenAIMessage(m))
	}
	for _, spec := range req.Tools {
		body.Tools = append(body.Tools, openAITool{
			Type:     "function",
			Function: openAIFunctionDef{Name: spec.Name, Description: spec.Description, Parameters: spec.Parameters},
		})
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+o.cfg.APIKey)

	var resp openAIResponse
	if err := o.transport.postJSON(ctx, o.cfg.BaseURL+"/v1/chat/completions", header, body, &resp); err != nil {
		return intent.Completion{}, err
	}
	if len(resp.Choices) == 0 {
		return intent.Completion{}, fmt.Errorf("openai: response has no choices")
	}

	msg := resp.Choices[0].Message
	var out intent.Completion
	if msg.Content != nil {
		out.Text = strings.TrimSpace(*msg.Content)
	}
	for _, tc := range msg.ToolCalls {
		args := json.RawMessage(tc.Function.Arguments)
		if strings.TrimSpace(tc.Function.Arguments) == "" {
			args = json.RawMessage(`{}`)
		}
		out.ToolCalls = append(out.ToolCalls, intent.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: args})
	}
	return out, nil
}

func toOpenAIMessage(m intent.Message) openAIMessage {
	switch m.Role {
	case intent.RoleTool:
		return openAIMessage{Role: "tool", Content: strPtr(m.Content), ToolCallID: m.ToolCallID}
	case intent.RoleAssistant:
		msg := openAIMessage{Role: "assistant"}
		if m.Content != "" || len(m.ToolCalls) == 0 {
			msg.Content = strPtr(m.Content)
		}
		for _, tc := range m.ToolCalls {
			args := string(tc.Arguments)
			if args == "" {
				args = "{}"
			}
			msg.ToolCalls = append(msg.ToolCalls, openAIToolCall{
				ID:       tc.ID,
				Type:     "function",
				Function: openAIFunction{Name: tc.Name, Arguments: args},
			})
		}
		return msg
	default:
		return openAIMessage{Role: "user", Content: strPtr(m.Content)}
	}
}

func strPtr(s string) *string {
	return &s
}
