package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

const (
	templateSuffix = ".tmpl"
	systemSuffix   = ".system.tmpl"
)

// PromptOverride replaces a flow's built-in prompts. Empty fields keep the
// built-in text.
type PromptOverride struct {
	System   string
	Template string
}

// LoadPromptOverrides reads <flow>.tmpl and <flow>.system.tmpl files from
// dir. An empty dir means no overrides.
func LoadPromptOverrides(dir string) (map[string]PromptOverride, error) {
	if dir == "" {
		return nil, nil
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve prompts directory '%s': %w", dir, err)
	}
	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts directory '%s': %w", absDir, err)
	}

	overrides := make(map[string]PromptOverride)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, templateSuffix) {
			continue
		}

		content, err := loadPromptFromFile(filepath.Join(absDir, name))
		if err != nil {
			return nil, err
		}

		if flow, ok := strings.CutSuffix(name, systemSuffix); ok {
			o := overrides[flow]
			o.System = content
			overrides[flow] = o
			continue
		}
		flow := strings.TrimSuffix(name, templateSuffix)
		o := overrides[flow]
		o.Template = content
		overrides[flow] = o
	}

	if len(overrides) == 0 {
		log.Printf("[CONFIG] No prompt overrides found in %s - using built-in prompts", absDir)
	} else {
		log.Printf("[CONFIG] Loaded prompt overrides for %d flow(s) from %s", len(overrides), absDir)
	}
	return overrides, nil
}

func loadPromptFromFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt file '%s': %w", path, err)
	}
	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("prompt file '%s' is empty", path)
	}
	log.Printf("[CONFIG] Loaded prompt from file: %s (%d characters)", path, len(trimmed))
	return trimmed, nil
}
