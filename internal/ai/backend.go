// Package ai talks to the generation backend. A Backend receives one fully
// rendered request and returns the final answer text after any number of
// tool round-trips it chose to make.
package ai

import (
	"context"

	"careerai/internal/schema"
)

// Backend is the generation capability the flow invoker depends on.
type Backend interface {
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
	ModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// ToolCaller runs a named tool for the backend. The tool registry is the
// production implementation.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (any, error)
}

// ToolDeclaration advertises one tool to the model.
type ToolDeclaration struct {
	Name        string
	Description string
	Parameters  schema.Field
}

// GenerateRequest is a single flow invocation as the backend sees it.
type GenerateRequest struct {
	Flow         string
	SystemPrompt string
	Prompt       string

	// Output is the expected answer shape. A string root asks for plain
	// text; anything else asks for JSON.
	Output schema.Field

	Tools  []ToolDeclaration
	Caller ToolCaller
}

// GenerateResponse carries the raw final answer.
type GenerateResponse struct {
	Text      string
	Usage     *TokenUsage
	ToolCalls int
	Model     string
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64 `json:"inputTokens"`
	OutputTokens int64 `json:"outputTokens"`
	TotalTokens  int64 `json:"totalTokens"`
}

func (u *TokenUsage) add(other *TokenUsage) *TokenUsage {
	if other == nil {
		return u
	}
	if u == nil {
		u = &TokenUsage{}
	}
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
	return u
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// structured reports whether the answer should be JSON.
func (r *GenerateRequest) structured() bool {
	return r.Output.Kind != schema.KindString
}
