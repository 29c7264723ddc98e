package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindscribe/internal/ai"
)

// scriptedLLM returns replies in order and records what it was asked.
type scriptedLLM struct {
	replies  []ai.ChatMessage
	requests [][]ai.ChatMessage
	specs    [][]ai.ToolSpec
}

func (s *scriptedLLM) CompleteWithTools(ctx context.Context, messages []ai.ChatMessage, tools []ai.ToolSpec) (ai.ChatMessage, error) {
	s.requests = append(s.requests, messages)
	s.specs = append(s.specs, tools)
	if len(s.replies) == 0 {
		return ai.ChatMessage{Role: "assistant", Content: "done"}, nil
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func echoRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	r.Register(Tool{
		Scope: ScopePersonal,
		Spec:  spec("echo", "Echo the input back.", `{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`),
		Fn: func(ctx context.Context, id Identity, args json.RawMessage) (string, error) {
			var in struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}
			return "echo: " + in.Text, nil
		},
	})
	r.Register(Tool{
		Scope: ScopeTeam,
		Spec:  spec("team_only", "Visible in team chat only.", `{"type":"object"}`),
		Fn: func(ctx context.Context, id Identity, args json.RawMessage) (string, error) {
			return "ok", nil
		},
	})
	r.Register(Tool{
		Scope: ScopeBoth,
		Spec:  spec("shared", "Visible everywhere.", `{"type":"object"}`),
		Fn: func(ctx context.Context, id Identity, args json.RawMessage) (string, error) {
			return "ok", nil
		},
	})
	return r
}

func TestRunPlainReply(t *testing.T) {
	llm := &scriptedLLM{replies: []ai.ChatMessage{
		{Role: "assistant", Content: "Hello there."},
	}}
	a := New(llm, echoRegistry(t), 5)

	reply, err := a.Run(context.Background(), Identity{UserID: 1}, "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello there.", reply)
	require.Len(t, llm.requests, 1)
	assert.Equal(t, "system", llm.requests[0][0].Role)
	assert.Equal(t, "user", llm.requests[0][1].Role)
}

func TestRunDispatchesToolAndFeedsResultBack(t *testing.T) {
	llm := &scriptedLLM{replies: []ai.ChatMessage{
		{
			Role: "assistant",
			ToolCalls: []ai.ToolCall{{
				ID:   "call_1",
				Type: "function",
				Function: ai.FunctionCall{
					Name:      "echo",
					Arguments: `{"text":"ping"}`,
				},
			}},
		},
		{Role: "assistant", Content: "The tool said: echo: ping"},
	}}
	a := New(llm, echoRegistry(t), 5)

	reply, err := a.Run(context.Background(), Identity{UserID: 1}, "use the echo tool")
	require.NoError(t, err)
	assert.Equal(t, "The tool said: echo: ping", reply)

	// Second request carries the assistant's tool call and the tool result.
	require.Len(t, llm.requests, 2)
	second := llm.requests[1]
	last := second[len(second)-1]
	assert.Equal(t, "tool", last.Role)
	assert.Equal(t, "echo: ping", last.Content)
	assert.Equal(t, "call_1", last.ToolCallID)
}

func TestRunUnknownToolBecomesErrorResult(t *testing.T) {
	llm := &scriptedLLM{replies: []ai.ChatMessage{
		{
			Role: "assistant",
			ToolCalls: []ai.ToolCall{{
				ID:       "call_1",
				Type:     "function",
				Function: ai.FunctionCall{Name: "no_such_tool", Arguments: `{}`},
			}},
		},
		{Role: "assistant", Content: "Sorry, I can't do that."},
	}}
	a := New(llm, echoRegistry(t), 5)

	reply, err := a.Run(context.Background(), Identity{UserID: 1}, "do something odd")
	require.NoError(t, err)
	assert.Equal(t, "Sorry, I can't do that.", reply)

	second := llm.requests[1]
	last := second[len(second)-1]
	assert.Equal(t, "tool", last.Role)
	assert.Contains(t, last.Content, `unknown tool "no_such_tool"`)
}

func TestRunIterationLimit(t *testing.T) {
	loopCall := ai.ChatMessage{
		Role: "assistant",
		ToolCalls: []ai.ToolCall{{
			ID:       "call_n",
			Type:     "function",
			Function: ai.FunctionCall{Name: "echo", Arguments: `{"text":"again"}`},
		}},
	}
	llm := &scriptedLLM{replies: []ai.ChatMessage{loopCall, loopCall, loopCall}}
	a := New(llm, echoRegistry(t), 3)

	_, err := a.Run(context.Background(), Identity{UserID: 1}, "loop forever")
	assert.ErrorIs(t, err, ErrToolIterations)
	assert.Len(t, llm.requests, 3)
}

func TestRunEmptyReplyFallback(t *testing.T) {
	llm := &scriptedLLM{replies: []ai.ChatMessage{
		{Role: "assistant", Content: "   "},
	}}
	a := New(llm, echoRegistry(t), 5)

	reply, err := a.Run(context.Background(), Identity{UserID: 1}, "hi")
	require.NoError(t, err)
	assert.Equal(t, "I'm not sure how to respond to that.", reply)
}

func TestRunEmptyMessage(t *testing.T) {
	a := New(&scriptedLLM{}, echoRegistry(t), 5)

	_, err := a.Run(context.Background(), Identity{UserID: 1}, "   ")
	assert.Error(t, err)
}

func TestSpecsScopeSelection(t *testing.T) {
	r := echoRegistry(t)

	personal := r.Specs(Identity{UserID: 1})
	names := specNames(personal)
	assert.ElementsMatch(t, []string{"echo", "shared"}, names)

	team := r.Specs(Identity{UserID: 1, TeamID: 3})
	names = specNames(team)
	assert.ElementsMatch(t, []string{"team_only", "shared"}, names)
}

func TestTeamChatUsesTeamPrompt(t *testing.T) {
	llm := &scriptedLLM{replies: []ai.ChatMessage{
		{Role: "assistant", Content: "ok"},
	}}
	a := New(llm, echoRegistry(t), 5)

	_, err := a.Run(context.Background(), Identity{UserID: 1, TeamID: 3}, "hi team")
	require.NoError(t, err)
	assert.Equal(t, teamPrompt, llm.requests[0][0].Content)
}

func specNames(specs []ai.ToolSpec) []string {
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Function.Name
	}
	return names
}
