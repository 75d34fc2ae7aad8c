package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// applyFallbacks applies environment variable fallbacks and derived defaults
func (c *Config) applyFallbacks() {
	// GEMINI_API_KEY is what the Gemini tooling itself reads.
	if c.AI.APIKey == "" {
		c.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	// Viper does not split env lists.
	if len(c.Server.APIKeys) == 0 {
		if env := os.Getenv("CAREERAI_SERVER_APIKEYS"); env != "" {
			c.Server.APIKeys = splitAndTrim(env)
		}
	}

	if c.Server.TLS.Mode == "mutual" && c.Server.TLS.ClientAuthPolicy == "" {
		c.Server.TLS.ClientAuthPolicy = "require"
	}
	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != "disabled" {
		c.Server.TLS.MinVersion = "1.2"
	}

	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
	if c.Queue.ConsumerID == "" {
		c.Queue.ConsumerID = c.Observability.ServiceInstance
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	for _, envVar := range []string{
		"CAREERAI_AI_APIKEY",
		"CAREERAI_AI_MODEL",
		"CAREERAI_STORAGE_DRIVER",
		"CAREERAI_TOOLS_RESUMES_FALLBACK",
		"CAREERAI_SERVER_PORT",
		"CAREERAI_APP_LOGLEVEL",
		"CAREERAI_VAULT_ENABLED",
		"GEMINI_API_KEY",
	} {
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}
		if strings.Contains(strings.ToLower(envVar), "key") {
			value = "***MASKED***"
		}
		log.Printf("[CONFIG]   %s=%s", envVar, value)
	}

	apiKey := "***NOT SET***"
	if c.AI.APIKey != "" {
		apiKey = "***CONFIGURED***"
	}
	log.Printf("[CONFIG] AI: provider=%s model=%s apiKey=%s maxToolRounds=%d",
		c.AI.Provider, c.AI.Model, apiKey, c.AI.MaxToolRounds)
	for name, override := range c.AI.Flows {
		log.Printf("[CONFIG] AI override for flow %s: model=%q", name, override.Model)
	}
	log.Printf("[CONFIG] Storage driver: %s, resume fallback: %s", c.Storage.Driver, c.Tools.Resumes.Fallback)
	log.Printf("[CONFIG] Server: %s:%s (TLS %s)", c.Server.Host, c.Server.Port, c.Server.TLS.Mode)
	log.Printf("[CONFIG] Vault enabled: %t, observability enabled: %t", c.Vault.Enabled, c.Observability.Enabled)
}
