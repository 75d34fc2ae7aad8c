package config

import "fmt"

// ValidateTLSConfig validates the TLS configuration
func (c *Config) ValidateTLSConfig() error {
	t := c.Server.TLS

	switch t.Mode {
	case "disabled", "":
		return nil
	case "server", "mutual":
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", t.Mode)
	}

	if err := exactlyOne("cert", t.CertFile, t.CertContent); err != nil {
		return err
	}
	if err := exactlyOne("key", t.KeyFile, t.KeyContent); err != nil {
		return err
	}

	if t.Mode == "mutual" {
		if err := exactlyOne("ca", t.CAFile, t.CAContent); err != nil {
			return fmt.Errorf("mutual TLS: %w", err)
		}
		switch t.ClientAuthPolicy {
		case "", "require", "request", "verify":
		default:
			return fmt.Errorf("invalid clientAuthPolicy: %s (must be 'require', 'request', or 'verify')", t.ClientAuthPolicy)
		}
	}

	switch t.MinVersion {
	case "", "1.2", "1.3":
	default:
		return fmt.Errorf("invalid TLS minVersion: %s (must be '1.2' or '1.3')", t.MinVersion)
	}
	return nil
}

func exactlyOne(name, file, content string) error {
	switch {
	case file == "" && content == "":
		return fmt.Errorf("%sFile or %sContent is required", name, name)
	case file != "" && content != "":
		return fmt.Errorf("cannot specify both %sFile and %sContent - choose one", name, name)
	}
	return nil
}
