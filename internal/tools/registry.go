// Package tools holds the callables a generation backend may invoke while
// it is answering a flow.
package tools

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"careerai/internal/errors"
	"careerai/internal/schema"
)

// Handler performs the tool's work. args has already been validated against
// the tool's input schema.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// FallbackPolicy names when a tool's built-in fallback value replaces the
// handler's result.
type FallbackPolicy string

const (
	FallbackNone           FallbackPolicy = "none"
	FallbackOnEmpty        FallbackPolicy = "on-empty"
	FallbackOnError        FallbackPolicy = "on-error"
	FallbackOnEmptyOrError FallbackPolicy = "on-empty-or-error"
)

// ParseFallbackPolicy accepts the policy names used in configuration. The
// empty string means FallbackNone.
func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch p := FallbackPolicy(s); p {
	case "":
		return FallbackNone, nil
	case FallbackNone, FallbackOnEmpty, FallbackOnError, FallbackOnEmptyOrError:
		return p, nil
	}
	return "", fmt.Errorf("unknown fallback policy %q", s)
}

func (p FallbackPolicy) onEmpty() bool {
	return p == FallbackOnEmpty || p == FallbackOnEmptyOrError
}

func (p FallbackPolicy) onError() bool {
	return p == FallbackOnError || p == FallbackOnEmptyOrError
}

// Tool is a registered callable. Fallback is only consulted when Policy
// allows it.
type Tool struct {
	Name         string
	Description  string
	InputSchema  schema.Field
	OutputSchema schema.Field
	Handler      Handler
	Fallback     func() any
	Policy       FallbackPolicy
}

// FallbackEvent describes one substitution of a tool's fallback value.
type FallbackEvent struct {
	Tool   string
	Reason string
	Err    error
}

const (
	FallbackReasonEmpty = "empty"
	FallbackReasonError = "error"
)

// Registry maps tool names to tools. Tools are registered at startup and
// then only read, so CallTool may run concurrently.
type Registry struct {
	mu        sync.RWMutex
	tools     map[string]Tool
	observers []func(FallbackEvent)
	logger    *errors.Logger
}

func NewRegistry(logger *errors.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logger,
	}
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(tool Tool) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if tool.Handler == nil {
		return fmt.Errorf("tool %s has no handler", tool.Name)
	}
	if tool.Policy == "" {
		tool.Policy = FallbackNone
	}
	if tool.Policy != FallbackNone && tool.Fallback == nil {
		return fmt.Errorf("tool %s: fallback policy %s needs a fallback value", tool.Name, tool.Policy)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("tool %s already registered", tool.Name)
	}
	r.tools[tool.Name] = tool
	return nil
}

// Resolve looks a tool up by exact name.
func (r *Registry) Resolve(name string) (Tool, error) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return Tool{}, errors.NewToolError(errors.ErrCodeToolNotFound, fmt.Sprintf("tool %s not found", name), nil).
			WithContext("tool", name)
	}
	return tool, nil
}

// Names lists registered tools in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OnFallback registers fn to be told about every fallback substitution.
func (r *Registry) OnFallback(fn func(FallbackEvent)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
}

// CallTool runs a tool on behalf of the generation backend. Arguments and
// results are checked against the tool's schemas. A handler failure that
// the tool's policy does not cover is returned as a tool execution error.
func (r *Registry) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	tool, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	if err := schema.Validate(tool.InputSchema, args); err != nil {
		return nil, errors.NewToolExecutionError(name, err).WithContext("stage", "input")
	}

	result, callErr := tool.Handler(ctx, args)
	switch {
	case callErr != nil && tool.Policy.onError():
		result = r.fallback(tool, FallbackReasonError, callErr)
	case callErr != nil:
		return nil, errors.NewToolExecutionError(name, callErr)
	case isEmpty(result) && tool.Policy.onEmpty():
		result = r.fallback(tool, FallbackReasonEmpty, nil)
	}

	if err := schema.Validate(tool.OutputSchema, result); err != nil {
		return nil, errors.NewToolExecutionError(name, err).WithContext("stage", "output")
	}
	return result, nil
}

func (r *Registry) fallback(tool Tool, reason string, cause error) any {
	args := []any{"tool", tool.Name, "reason", reason, "policy", string(tool.Policy)}
	if cause != nil {
		args = append(args, "error", cause.Error())
	}
	r.logger.Warn("Tool result replaced by fallback value", args...)

	r.mu.RLock()
	observers := r.observers
	r.mu.RUnlock()
	event := FallbackEvent{Tool: tool.Name, Reason: reason, Err: cause}
	for _, fn := range observers {
		fn(event)
	}
	return tool.Fallback()
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.String, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
