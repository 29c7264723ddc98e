// Package agent exposes backend operations as named tools a hosted model can
// invoke, and runs the tool-calling loop for a chat turn. Tools are stateless:
// the caller's identity is an explicit parameter, not captured state.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"mindscribe/internal/ai"
)

// Identity is the authenticated caller a tool acts on behalf of. TeamID is
// zero for personal chat.
type Identity struct {
	UserID uint
	TeamID uint
}

// ToolFunc executes one tool. It returns a textual result for the model; an
// error is relayed to the model as an error result, never a dropped turn.
type ToolFunc func(ctx context.Context, id Identity, args json.RawMessage) (string, error)

type Scope int

const (
	ScopePersonal Scope = iota + 1
	ScopeTeam
	ScopeBoth
)

type Tool struct {
	Spec  ai.ToolSpec
	Scope Scope
	Fn    ToolFunc
}

// Registry is a dispatch table keyed by tool name.
type Registry struct {
	tools map[string]Tool
	order []string
}

func NewRegistry() *Registry {
	return &Registry{tools: map[string]Tool{}}
}

func (r *Registry) Register(t Tool) {
	name := t.Spec.Function.Name
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

// Specs returns the tool specs visible to the identity: team chat sees the
// team tool set, personal chat the personal one.
func (r *Registry) Specs(id Identity) []ai.ToolSpec {
	want := ScopePersonal
	if id.TeamID != 0 {
		want = ScopeTeam
	}

	var specs []ai.ToolSpec
	for _, name := range r.order {
		t := r.tools[name]
		if t.Scope == ScopeBoth || t.Scope == want {
			specs = append(specs, t.Spec)
		}
	}
	return specs
}

// Dispatch runs the named tool. An unknown name is an error result, not a
// panic.
func (r *Registry) Dispatch(ctx context.Context, id Identity, name string, args json.RawMessage) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("unknown tool %q", name)
	}
	return t.Fn(ctx, id, args)
}

func spec(name, description, parameters string) ai.ToolSpec {
	return ai.ToolSpec{
		Type: "function",
		Function: ai.FunctionSpec{
			Name:        name,
			Description: description,
			Parameters:  json.RawMessage(parameters),
		},
	}
}
