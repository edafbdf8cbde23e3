// Package token resolves provider credentials from the environment, config and CLI helpers.
package token

import (
	"os"
	"strings"

	providererrors "github.com/valksor/go-opsdesk/internal/provider/errors"
)

// EnvPrefix namespaces tool-specific overrides, e.g. OPSDESK_GITLAB_TOKEN.
const EnvPrefix = "OPSDESK_"

// ResolverConfig defines the credential sources for a provider.
type ResolverConfig struct {
	// ProviderName is lower-case ("gitlab"); it builds the OPSDESK_{NAME}_TOKEN override.
	ProviderName string

	// EnvVars are the provider's conventional variables, checked in order.
	EnvVars []string

	// ConfigToken is the value from .ops/config.yaml, if any.
	ConfigToken string

	// CLIFallback asks an already-authenticated CLI (gh, glab) for a token.
	CLIFallback func() string
}

// Config builds a ResolverConfig with the provider's conventional env vars.
func Config(providerName string, envVars ...string) ResolverConfig {
	return ResolverConfig{ProviderName: providerName, EnvVars: envVars}
}

// WithConfigToken sets the config-file token.
func (c ResolverConfig) WithConfigToken(tok string) ResolverConfig {
	c.ConfigToken = tok
	return c
}

// WithCLIFallback adds a CLI fallback function to the config.
func (c ResolverConfig) WithCLIFallback(fn func() string) ResolverConfig {
	c.CLIFallback = fn
	return c
}

// OverrideVar returns the OPSDESK_{NAME}_TOKEN variable name.
func (c ResolverConfig) OverrideVar() string {
	return EnvPrefix + strings.ToUpper(c.ProviderName) + "_TOKEN"
}

// Resolve returns the first non-empty credential, checking in order:
//  1. OPSDESK_{NAME}_TOKEN
//  2. EnvVars
//  3. ConfigToken
//  4. CLIFallback
//
// The error wraps providererrors.ErrMissingCredential.
func Resolve(cfg ResolverConfig) (string, error) {
	vars := append([]string{cfg.OverrideVar()}, cfg.EnvVars...)
	for _, name := range vars {
		if tok := strings.TrimSpace(os.Getenv(name)); tok != "" {
			return tok, nil
		}
	}

	if cfg.ConfigToken != "" {
		return cfg.ConfigToken, nil
	}

	if cfg.CLIFallback != nil {
		if tok := cfg.CLIFallback(); tok != "" {
			return tok, nil
		}
	}

	return "", providererrors.MissingCredentialError(cfg.ProviderName, vars...)
}

// Env returns the first non-empty value among names, trimmed.
func Env(names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}
