package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"careerai/internal/config"
	"careerai/internal/errors"
	"careerai/internal/schema"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

// modelsAPI is the part of genai.Models the backend uses.
type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
}

// GeminiBackend implements Backend for Google Gemini
type GeminiBackend struct {
	models         modelsAPI
	config         *config.Config
	circuitBreaker *CircuitBreaker[*genai.GenerateContentResponse]
	modelBreaker   *CircuitBreaker[*genai.Model]
	logger         *errors.Logger
}

var _ Backend = (*GeminiBackend)(nil)

// NewGeminiBackend creates a Gemini client shared by every flow.
func NewGeminiBackend(ctx context.Context, cfg *config.Config, logger *errors.Logger) (*GeminiBackend, error) {
	if cfg.AI.APIKey == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			"AI API key is required (set CAREERAI_AI_APIKEY or GEMINI_API_KEY)", nil)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.AI.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to create Gemini client", err)
	}
	logger.Debug("Initialized Gemini backend",
		"model", cfg.AI.Model,
		"timeout", cfg.AI.Timeout,
		"max_tool_rounds", cfg.AI.MaxToolRounds,
		"flow_overrides", len(cfg.AI.Flows))
	return newGeminiBackend(client.Models, cfg, logger), nil
}

func newGeminiBackend(models modelsAPI, cfg *config.Config, logger *errors.Logger) *GeminiBackend {
	return &GeminiBackend{
		models:         models,
		config:         cfg,
		circuitBreaker: NewGenerateBreaker[*genai.GenerateContentResponse](cfg.AI.CircuitBreaker, logger),
		modelBreaker:   NewModelBreaker[*genai.Model](cfg.AI.CircuitBreaker, logger),
		logger:         logger,
	}
}

// Generate sends one flow request and follows function calls until the
// model produces a final answer. After the configured number of tool
// rounds the tools are withdrawn so the next answer has to be final.
func (g *GeminiBackend) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	settings := g.config.FlowAIConfig(req.Flow)

	ctx, span := otel.Tracer("careerai.ai.gemini").Start(ctx, "gemini.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", settings.Model),
		attribute.String("flow.name", req.Flow),
		attribute.Float64("ai.temperature", float64(settings.Temperature)),
		attribute.Int("input.prompt_length", len(req.Prompt)),
		attribute.Int("tools.declared", len(req.Tools)),
	)

	if len(req.Tools) > 0 && req.Caller == nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "tools declared without a tool caller", nil)
	}

	if settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, settings.Timeout)
		defer cancel()
	}

	genConfig, prompt := g.buildConfig(req, settings)
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	var usage *TokenUsage
	toolCalls := 0
	for round := 0; ; round++ {
		if round == settings.MaxToolRounds && genConfig.Tools != nil {
			g.logger.Warn("Tool round limit reached, requesting a final answer",
				"flow", req.Flow, "rounds", round)
			final := *genConfig
			final.Tools = nil
			genConfig = &final
		}

		resp, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
			return g.models.GenerateContent(ctx, settings.Model, contents, genConfig)
		})
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.Bool("success", false))
			return nil, classifyError(req.Flow, err)
		}
		usage = usage.add(extractTokenUsage(resp))

		calls := resp.FunctionCalls()
		if len(calls) == 0 || genConfig.Tools == nil {
			span.SetAttributes(attribute.Bool("success", true), attribute.Int("tools.calls", toolCalls))
			if usage != nil {
				span.SetAttributes(
					attribute.Int64("ai.tokens.input", usage.InputTokens),
					attribute.Int64("ai.tokens.output", usage.OutputTokens),
					attribute.Int64("ai.tokens.total", usage.TotalTokens),
				)
			}
			return &GenerateResponse{
				Text:      resp.Text(),
				Usage:     usage,
				ToolCalls: toolCalls,
				Model:     settings.Model,
			}, nil
		}

		if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
			contents = append(contents, resp.Candidates[0].Content)
		}
		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			toolCalls++
			g.logger.Debug("Model requested tool", "flow", req.Flow, "tool", call.Name, "round", round)
			result, err := req.Caller.CallTool(ctx, call.Name, call.Args)
			if err != nil {
				span.RecordError(err)
				span.SetAttributes(attribute.Bool("success", false))
				return nil, err
			}
			parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       call.ID,
				Name:     call.Name,
				Response: map[string]any{"output": result},
			}})
		}
		contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
	}
}

// buildConfig assembles the request configuration. Gemini does not combine
// function calling with a JSON response schema, so tool-using flows get the
// schema as an instruction instead.
func (g *GeminiBackend) buildConfig(req *GenerateRequest, settings config.ResolvedAIConfig) (*genai.GenerateContentConfig, string) {
	genConfig := &genai.GenerateContentConfig{}
	if settings.Temperature > 0 {
		temperature := settings.Temperature
		genConfig.Temperature = &temperature
	}

	system := req.SystemPrompt
	if req.structured() {
		if len(req.Tools) == 0 {
			genConfig.ResponseMIMEType = "application/json"
			genConfig.ResponseSchema = toGenaiSchema(req.Output)
		} else {
			genConfig.Tools = toGenaiTools(req.Tools)
			system = joinNonEmpty(system, schemaInstruction(req.Output))
		}
	} else if len(req.Tools) > 0 {
		genConfig.Tools = toGenaiTools(req.Tools)
	}

	prompt := req.Prompt
	if system != "" {
		if settings.UseSystemPrompts {
			genConfig.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
		} else {
			prompt = joinNonEmpty(system, prompt)
		}
	}
	return genConfig, prompt
}

func schemaInstruction(output schema.Field) string {
	return "Respond only with a JSON value matching this schema, without code fences or commentary:\n" +
		mustJSON(toGenaiSchema(output))
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}

// ModelInfo checks the readiness and availability of the configured model
func (g *GeminiBackend) ModelInfo(ctx context.Context) *ModelInfo {
	model := g.config.AI.Model
	info := &ModelInfo{Name: model}

	timeout := g.config.Observability.HealthCheck.AIModelCheckTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	m, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.models.Get(checkCtx, model, &genai.GetModelConfig{})
	})
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed", "model", model, "error", err.Error())
		return info
	}

	info.Available = true
	info.DisplayName = m.DisplayName
	info.Version = m.Version
	return info
}

// CircuitBreakerStats returns circuit breaker statistics
func (g *GeminiBackend) CircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.circuitBreaker.Stats(),
		"model_operations": g.modelBreaker.Stats(),
		"overall_healthy":  g.circuitBreaker.IsHealthy() && g.modelBreaker.IsHealthy(),
	}
}

// Close implements Backend. The genai client holds no resources in
// request/response mode.
func (g *GeminiBackend) Close() error {
	return nil
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}
	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
