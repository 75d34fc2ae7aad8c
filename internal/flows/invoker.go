package flows

import (
	"context"
	"fmt"
	"maps"
	"time"

	"careerai/internal/ai"
	"careerai/internal/errors"
	"careerai/internal/prompt"
	"careerai/internal/schema"
	"careerai/internal/tools"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Result is a validated, post-processed flow answer.
type Result struct {
	Flow      string         `json:"flow"`
	Value     any            `json:"value"`
	Raw       string         `json:"-"`
	Usage     *ai.TokenUsage `json:"usage,omitempty"`
	ToolCalls int            `json:"toolCalls,omitempty"`
	Model     string         `json:"model,omitempty"`
	Duration  time.Duration  `json:"-"`
}

// Recorder is told about every finished invocation, successful or not.
type Recorder interface {
	RecordInvocation(ctx context.Context, flow string, duration time.Duration, usage *ai.TokenUsage, err error)
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithClock replaces time.Now for derived fields such as a posting date.
func WithClock(now func() time.Time) Option {
	return func(inv *Invoker) { inv.now = now }
}

// WithRecorder reports invocations to r.
func WithRecorder(r Recorder) Option {
	return func(inv *Invoker) { inv.recorder = r }
}

// Invoker runs flows from a catalog against one shared backend. It holds no
// per-call state and may be used concurrently.
type Invoker struct {
	catalog  *Catalog
	backend  ai.Backend
	registry *tools.Registry
	logger   *errors.Logger
	now      func() time.Time
	recorder Recorder
}

// NewInvoker wires a catalog to a backend. registry may be nil when no flow
// in the catalog declares tools.
func NewInvoker(catalog *Catalog, backend ai.Backend, registry *tools.Registry, logger *errors.Logger, opts ...Option) *Invoker {
	inv := &Invoker{
		catalog:  catalog,
		backend:  backend,
		registry: registry,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Catalog returns the flows this invoker serves.
func (inv *Invoker) Catalog() *Catalog {
	return inv.catalog
}

// Invoke validates input, renders the flow's prompts, asks the backend for
// an answer and validates it. Failures are *errors.AppError values; there
// are no retries and no partial results.
func (inv *Invoker) Invoke(ctx context.Context, name string, input map[string]any) (*Result, error) {
	ctx, span := otel.Tracer("careerai.flows").Start(ctx, "flow.invoke")
	defer span.End()
	span.SetAttributes(attribute.String("flow.name", name))

	start := time.Now()
	result, err := inv.invoke(ctx, name, input)
	duration := time.Since(start)

	var usage *ai.TokenUsage
	if result != nil {
		result.Duration = duration
		usage = result.Usage
	}
	if inv.recorder != nil {
		inv.recorder.RecordInvocation(ctx, name, duration, usage, err)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		inv.logger.LogError(err, "Flow invocation failed", "flow", name, "duration", duration.String())
		return nil, err
	}

	args := []any{"flow", name, "duration", duration.String(), "tool_calls", result.ToolCalls}
	if usage != nil {
		args = append(args,
			"input_tokens", usage.InputTokens,
			"output_tokens", usage.OutputTokens,
			"total_tokens", usage.TotalTokens)
	}
	inv.logger.Info("Flow invocation completed", args...)
	return result, nil
}

func (inv *Invoker) invoke(ctx context.Context, name string, input map[string]any) (*Result, error) {
	def, err := inv.catalog.Lookup(name)
	if err != nil {
		return nil, err
	}

	if input == nil {
		input = map[string]any{}
	}
	if err := schema.Validate(def.Input, input); err != nil {
		return nil, errors.NewInvalidInputError(name, err)
	}

	req, err := inv.buildRequest(def, input)
	if err != nil {
		return nil, err
	}

	resp, err := inv.backend.Generate(ctx, req)
	if err != nil {
		if _, ok := errors.AsAppError(err); ok {
			return nil, err
		}
		return nil, errors.NewBackendUnavailableError("generation request failed", err).WithContext("flow", name)
	}

	value, err := decodeAnswer(def.Output, resp.Text)
	switch {
	case err == errEmptyAnswer:
		return nil, errors.NewEmptyResultError(name)
	case err != nil:
		return nil, errors.NewOutputSchemaViolationError(name, resp.Text, err)
	}
	if value == nil {
		return nil, errors.NewEmptyResultError(name)
	}
	if err := schema.Validate(def.Output, value); err != nil {
		return nil, errors.NewOutputSchemaViolationError(name, resp.Text, err)
	}

	if def.PostProcess != nil {
		value = def.PostProcess(value)
	}

	return &Result{
		Flow:      name,
		Value:     value,
		Raw:       resp.Text,
		Usage:     resp.Usage,
		ToolCalls: resp.ToolCalls,
		Model:     resp.Model,
	}, nil
}

// buildRequest renders the prompts against the input plus derived fields
// and resolves the flow's tools.
func (inv *Invoker) buildRequest(def Definition, input map[string]any) (*ai.GenerateRequest, error) {
	pctx := make(prompt.Context, len(input)+1)
	maps.Copy(pctx, input)
	if def.Derive != nil {
		maps.Copy(pctx, def.Derive(input, inv.now()))
	}

	text, err := def.Template.Execute(pctx)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInternal,
			fmt.Sprintf("flow %s prompt failed to render", def.Name), err).WithContext("flow", def.Name)
	}
	req := &ai.GenerateRequest{
		Flow:   def.Name,
		Prompt: text,
		Output: def.Output,
	}
	if def.System != nil {
		system, err := def.System.Execute(pctx)
		if err != nil {
			return nil, errors.NewInternalError(errors.ErrCodeInternal,
				fmt.Sprintf("flow %s system prompt failed to render", def.Name), err).WithContext("flow", def.Name)
		}
		req.SystemPrompt = system
	}

	if len(def.Tools) == 0 {
		return req, nil
	}
	if inv.registry == nil {
		return nil, errors.NewInternalError(errors.ErrCodeToolNotFound,
			fmt.Sprintf("flow %s needs tools but no tool registry is configured", def.Name), nil)
	}
	for _, toolName := range def.Tools {
		tool, err := inv.registry.Resolve(toolName)
		if err != nil {
			return nil, err
		}
		req.Tools = append(req.Tools, ai.ToolDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  tool.InputSchema,
		})
	}
	req.Caller = inv.registry
	return req, nil
}
