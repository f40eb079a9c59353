// Package config provides configuration loading and defaults for the
// pmkin client and the pmkin-mcp server.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultGraphQLURL is the public pmkin content endpoint.
const DefaultGraphQLURL = "https://content.pmkin.io/graphql"

// ResourceFilter holds allowlist and denylist glob patterns.
type ResourceFilter struct {
	Allowlist []string `yaml:"allowlist"`
	Denylist  []string `yaml:"denylist"`
}

// SafetyConfig groups content filters exposed through the MCP tools.
type SafetyConfig struct {
	// Categories filters content by category slug.
	Categories ResourceFilter `yaml:"categories"`
}

// AuditConfig controls audit logging behaviour.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	LogPath string `yaml:"log_path"`
}

// ServerConfig holds network and authentication settings.
type ServerConfig struct {
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
}

// GraphQLConfig holds connection details for the pmkin GraphQL API.
type GraphQLConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
	// Timeout is the HTTP request timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// TelemetryConfig configures OpenTelemetry trace export. An empty endpoint
// disables tracing.
type TelemetryConfig struct {
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Safety    SafetyConfig    `yaml:"safety"`
	Audit     AuditConfig     `yaml:"audit"`
	GraphQL   GraphQLConfig   `yaml:"graphql"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// LoadConfig reads and parses a YAML configuration file from the given path.
// Fields absent from the file keep the values from DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a new Config populated with default values.
// Each call returns a distinct instance.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Audit: AuditConfig{
			Enabled: true,
			LogPath: "audit.log",
		},
		GraphQL: GraphQLConfig{
			URL:     DefaultGraphQLURL,
			Timeout: 30,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "pmkin-mcp",
		},
	}
}

// ApplyEnvOverrides updates cfg in place with values from environment variables.
// Recognized variables:
//   - PMKIN_TOKEN overrides cfg.GraphQL.Token
//   - PMKIN_GRAPHQL_URL overrides cfg.GraphQL.URL
//   - PMKIN_MCP_AUTH_TOKEN overrides cfg.Server.AuthToken
//   - PMKIN_OTEL_ENDPOINT overrides cfg.Telemetry.Endpoint
func ApplyEnvOverrides(cfg *Config) {
	if token := os.Getenv("PMKIN_TOKEN"); token != "" {
		cfg.GraphQL.Token = token
	}
	if url := os.Getenv("PMKIN_GRAPHQL_URL"); url != "" {
		cfg.GraphQL.URL = url
	}
	if token := os.Getenv("PMKIN_MCP_AUTH_TOKEN"); token != "" {
		cfg.Server.AuthToken = token
	}
	if endpoint := os.Getenv("PMKIN_OTEL_ENDPOINT"); endpoint != "" {
		cfg.Telemetry.Endpoint = endpoint
	}
}

// LoadDotEnv loads environment variables from the given .env files (or
// ".env" when none are given). Variables already present in the process
// environment are not overwritten. Missing files are skipped; the returned
// slice lists the files that were actually loaded.
func LoadDotEnv(paths ...string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	var loaded []string
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, fmt.Errorf("load %s: %w", p, err)
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}

// EnsureAuthToken generates a random auth token and sets it on cfg if
// cfg.Server.AuthToken is empty. It returns the token (existing or generated).
func EnsureAuthToken(cfg *Config) (string, error) {
	if cfg.Server.AuthToken != "" {
		return cfg.Server.AuthToken, nil
	}
	token, err := GenerateRandomToken()
	if err != nil {
		return "", fmt.Errorf("generate auth token: %w", err)
	}
	cfg.Server.AuthToken = token
	return token, nil
}

// GenerateRandomToken returns a 32-character hex-encoded cryptographically
// random token string.
func GenerateRandomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return hex.EncodeToString(b), nil
}
