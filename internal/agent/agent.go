package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"mindscribe/internal/ai"
)

var ErrToolIterations = errors.New("tool iteration limit reached")

const personalPrompt = "You are a warm, attentive journaling companion. Help the user " +
	"reflect on their days, track goals and plan ahead. Use the available tools to save, " +
	"look up and search journal entries, manage goals and calendar events. Always confirm " +
	"what you did. Dates are YYYY-MM-DD."

const teamPrompt = "You are a team journaling assistant. Help the team review shared " +
	"entries and goals using the available tools. Only the team lead can create team " +
	"goals. Dates are YYYY-MM-DD."

// LLM is the completion surface the agent needs.
type LLM interface {
	CompleteWithTools(ctx context.Context, messages []ai.ChatMessage, tools []ai.ToolSpec) (ai.ChatMessage, error)
}

type Agent struct {
	llm           LLM
	registry      *Registry
	maxIterations int
}

func New(llm LLM, registry *Registry, maxIterations int) *Agent {
	if maxIterations <= 0 {
		maxIterations = 5
	}
	return &Agent{
		llm:           llm,
		registry:      registry,
		maxIterations: maxIterations,
	}
}

// Run executes one chat turn: the model is asked with the identity's tool
// set, requested tool calls are dispatched and their results fed back, until
// the model answers in plain text or the iteration bound is hit.
func (a *Agent) Run(ctx context.Context, id Identity, userMessage string) (string, error) {
	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		return "", errors.New("empty chat message")
	}

	prompt := personalPrompt
	if id.TeamID != 0 {
		prompt = teamPrompt
	}

	messages := []ai.ChatMessage{
		{Role: "system", Content: prompt},
		{Role: "user", Content: userMessage},
	}
	specs := a.registry.Specs(id)

	for i := 0; i < a.maxIterations; i++ {
		reply, err := a.llm.CompleteWithTools(ctx, messages, specs)
		if err != nil {
			return "", err
		}

		if len(reply.ToolCalls) == 0 {
			content := strings.TrimSpace(reply.Content)
			if content == "" {
				content = "I'm not sure how to respond to that."
			}
			return content, nil
		}

		messages = append(messages, reply)
		for _, call := range reply.ToolCalls {
			result, err := a.registry.Dispatch(ctx, id, call.Function.Name, json.RawMessage(call.Function.Arguments))
			if err != nil {
				result = "error: " + err.Error()
			}
			messages = append(messages, ai.ChatMessage{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	return "", ErrToolIterations
}
