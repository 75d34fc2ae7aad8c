package config

import (
	"strings"
	"time"
)

// ResolvedAIConfig is the effective backend configuration for one flow.
type ResolvedAIConfig struct {
	Model            string
	Timeout          time.Duration
	Temperature      float32
	MaxToolRounds    int
	UseSystemPrompts bool
}

// FlowAIConfig returns the AI configuration for a flow with fallback to the
// global values. Flow names match case-insensitively.
func (c *Config) FlowAIConfig(flow string) ResolvedAIConfig {
	resolved := ResolvedAIConfig{
		Model:            c.AI.Model,
		Timeout:          c.AI.Timeout,
		Temperature:      c.AI.Temperature,
		MaxToolRounds:    c.AI.MaxToolRounds,
		UseSystemPrompts: c.AI.UseSystemPrompts,
	}

	override, ok := c.flowOverride(flow)
	if !ok {
		return resolved
	}
	if override.Model != "" {
		resolved.Model = override.Model
	}
	if override.Timeout != nil {
		resolved.Timeout = *override.Timeout
	}
	if override.Temperature != nil {
		resolved.Temperature = *override.Temperature
	}
	if override.MaxToolRounds != nil {
		resolved.MaxToolRounds = *override.MaxToolRounds
	}
	if override.UseSystemPrompts != nil {
		resolved.UseSystemPrompts = *override.UseSystemPrompts
	}
	return resolved
}

func (c *Config) flowOverride(flow string) (OperationAIConfig, bool) {
	if override, ok := c.AI.Flows[flow]; ok {
		return override, true
	}
	for name, override := range c.AI.Flows {
		if strings.EqualFold(name, flow) {
			return override, true
		}
	}
	return OperationAIConfig{}, false
}
