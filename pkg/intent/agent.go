package intent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Sternrassler/storefront/pkg/cart"
	"github.com/rs/zerolog"
)

// DefaultMaxRounds bounds the completion rounds spent on one message.
const DefaultMaxRounds = 4

// DefaultSystemPrompt frames the engine as the storefront assistant.
const DefaultSystemPrompt = "You are the shopping assistant of an online store. " +
	"Use the provided tools to look up products and to change the shopper's cart; never invent product ids or prices. " +
	"Answer briefly and in plain text."

const exhaustedText = "Sorry, I couldn't finish that request. Please try rephrasing it."

// AgentConfig configures an Agent.
type AgentConfig struct {
	// Engine is optional. Without it every message goes to the Router.
	Engine Engine

	SystemPrompt string
	MaxRounds    int
}

// Agent answers chat messages with a reasoning engine when one is configured
// and with the rule Router otherwise.
type Agent struct {
	engine    Engine
	tools     *Tools
	router    *Router
	system    string
	maxRounds int
	logger    zerolog.Logger
}

// NewAgent creates an agent over tools and router.
func NewAgent(cfg AgentConfig, tools *Tools, router *Router, logger zerolog.Logger) (*Agent, error) {
	if tools == nil || router == nil {
		return nil, fmt.Errorf("tools and router are required")
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = DefaultMaxRounds
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}

	return &Agent{
		engine:    cfg.Engine,
		tools:     tools,
		router:    router,
		system:    cfg.SystemPrompt,
		maxRounds: cfg.MaxRounds,
		logger:    logger,
	}, nil
}

// HasEngine reports whether an engine is configured.
func (a *Agent) HasEngine() bool {
	return a.engine != nil
}

// Handle answers one message for identity id.
//
// Each engine round may select tools; every selected tool runs through
// Tools.Execute and its result is fed back. The loop ends when the engine
// answers without tool calls or after MaxRounds. If the engine fails before
// any tool ran, the Router answers instead; after a tool ran, falling back
// could repeat a cart change, so the executed actions are reported as is.
func (a *Agent) Handle(ctx context.Context, id cart.Identity, message string) (Reply, error) {
	if a.engine == nil {
		return a.router.Route(ctx, id, message)
	}

	req := Request{
		System:   a.system,
		Messages: []Message{{Role: RoleUser, Content: message}},
		Tools:    ToolSchema(),
	}
	actions := []string{}
	lastText := ""

	for round := 1; round <= a.maxRounds; round++ {
		engineRoundsTotal.Inc()
		completion, err := a.engine.Complete(ctx, req)
		if err != nil {
			if len(actions) == 0 {
				engineFallbacksTotal.Inc()
				a.logger.Warn().Err(err).Int("round", round).Msg("Reasoning engine failed, answering with rule router")
				return a.router.Route(ctx, id, message)
			}
			a.logger.Error().Err(err).Int("round", round).Strs("actions", actions).Msg("Reasoning engine failed after tool execution")
			return Reply{Text: summarize(lastText), Actions: actions}, nil
		}

		if len(completion.ToolCalls) == 0 {
			return Reply{Text: summarize(completion.Text), Actions: actions}, nil
		}
		if completion.Text != "" {
			lastText = completion.Text
		}

		req.Messages = append(req.Messages, Message{
			Role:      RoleAssistant,
			Content:   completion.Text,
			ToolCalls: completion.ToolCalls,
		})

		for _, call := range completion.ToolCalls {
			result, err := a.tools.Execute(ctx, id, call)
			switch {
			case errors.Is(err, cart.ErrNoIdentity):
				engineToolCallsTotal.WithLabelValues(call.Name, "error").Inc()
				return Reply{Text: failureText, Actions: actions}, err
			case err != nil:
				engineToolCallsTotal.WithLabelValues(call.Name, "error").Inc()
				a.logger.Warn().Err(err).Str("tool", call.Name).Msg("Tool call failed")
				req.Messages = append(req.Messages, Message{
					Role:       RoleTool,
					ToolCallID: call.ID,
					Content:    "error: " + err.Error(),
					IsError:    true,
				})
			default:
				outcome := "ok"
				if result.Applied {
					actions = append(actions, call.Name)
				} else {
					outcome = "declined"
				}
				engineToolCallsTotal.WithLabelValues(call.Name, outcome).Inc()
				req.Messages = append(req.Messages, Message{
					Role:       RoleTool,
					ToolCallID: call.ID,
					Content:    result.Text,
				})
			}
		}
	}

	a.logger.Warn().Int("max_rounds", a.maxRounds).Strs("actions", actions).Msg("Reasoning engine did not finish within round limit")
	return Reply{Text: summarize(lastText), Actions: actions}, nil
}

func summarize(text string) string {
	if text = strings.TrimSpace(text); text == "" {
		return exhaustedText
	}
	return text
}
