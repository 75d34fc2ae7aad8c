// Package flows defines the named prompt flows and the invoker that runs
// them against a generation backend.
package flows

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"careerai/internal/config"
	"careerai/internal/errors"
	"careerai/internal/prompt"
	"careerai/internal/schema"
)

// Flow names
const (
	AnalyzeResumeFlow       = "analyzeResume"
	GenerateJobPostingFlow  = "generateJobPosting"
	SearchJobsFlow          = "searchJobs"
	SuggestJobsFlow         = "suggestJobs"
	RankResumesFlow         = "rankResumes"
	AnalyzeShortcomingsFlow = "analyzeShortcomings"
)

// DeriveFunc returns extra template fields computed from the validated
// input. They are added to the prompt context, never to the input.
type DeriveFunc func(input map[string]any, now time.Time) prompt.Context

// PostProcessFunc transforms a validated answer. It must not fail.
type PostProcessFunc func(value any) any

// Definition pairs a flow's schemas, prompts, tools and post-processing.
// Definitions are built once and only read afterwards.
type Definition struct {
	Name        string
	Description string
	Input       schema.Field
	Output      schema.Field
	System      *prompt.Template
	Template    *prompt.Template
	Tools       []string
	Derive      DeriveFunc
	PostProcess PostProcessFunc
}

// Catalog is the immutable set of flows a process serves.
type Catalog struct {
	flows map[string]Definition
	names []string
}

// NewCatalog indexes defs by name. Names must be unique and every flow needs
// a template.
func NewCatalog(defs ...Definition) (*Catalog, error) {
	c := &Catalog{flows: make(map[string]Definition, len(defs))}
	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("flow name is required")
		}
		if def.Template == nil {
			return nil, fmt.Errorf("flow %s has no template", def.Name)
		}
		if _, exists := c.flows[def.Name]; exists {
			return nil, fmt.Errorf("flow %s defined twice", def.Name)
		}
		def.Tools = append([]string(nil), def.Tools...)
		c.flows[def.Name] = def
		c.names = append(c.names, def.Name)
	}
	sort.Strings(c.names)
	return c, nil
}

// DefaultCatalog builds the six built-in flows with any prompt overrides
// loaded from the prompts directory applied.
func DefaultCatalog(overrides map[string]config.PromptOverride) (*Catalog, error) {
	defs := Builtin()
	byName := make(map[string]int, len(defs))
	for i, def := range defs {
		byName[strings.ToLower(def.Name)] = i
	}

	for name, override := range overrides {
		i, ok := byName[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("prompt override for unknown flow %q", name)
		}
		def, err := applyOverride(defs[i], override)
		if err != nil {
			return nil, err
		}
		defs[i] = def
	}
	return NewCatalog(defs...)
}

func applyOverride(def Definition, override config.PromptOverride) (Definition, error) {
	if override.Template != "" {
		tpl, err := prompt.Compile(override.Template)
		if err != nil {
			return def, fmt.Errorf("flow %s template override: %w", def.Name, err)
		}
		def.Template = tpl
	}
	if override.System != "" {
		tpl, err := prompt.Compile(override.System)
		if err != nil {
			return def, fmt.Errorf("flow %s system prompt override: %w", def.Name, err)
		}
		def.System = tpl
	}
	return def, nil
}

// Lookup returns the flow with the given exact name.
func (c *Catalog) Lookup(name string) (Definition, error) {
	def, ok := c.flows[name]
	if !ok {
		return Definition{}, errors.NewValidationError(errors.ErrCodeFlowNotFound,
			fmt.Sprintf("flow %s not found", name), nil).WithContext("flow", name)
	}
	return def, nil
}

// Names lists flow names in sorted order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Definitions lists every flow sorted by name.
func (c *Catalog) Definitions() []Definition {
	defs := make([]Definition, 0, len(c.names))
	for _, name := range c.names {
		defs = append(defs, c.flows[name])
	}
	return defs
}
