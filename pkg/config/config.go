package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	log "github.com/perfscale/llm-apiperf/pkg/logging"
)

// Defaults for the benchmark flags.
const (
	DefaultSourceRegion  = "eu-north-1"
	DefaultTargetRegion  = "us-east-1"
	DefaultModelID       = "us.anthropic.claude-sonnet-4-20250514-v1:0"
	DefaultDirectModelID = "claude-sonnet-4-20250514"
	DefaultIterations    = 10
	DefaultMaxTokens     = 1000
	DefaultInterval      = 1
	DefaultPrompt        = "Write a paragraph starting with: 'Once upon a time...'"
)

const apiKeyEnv = "ANTHROPIC_API_KEY"

// Config describes one benchmark run.
type Config struct {
	SourceRegion  string `yaml:"sourceRegion,omitempty"`
	TargetRegion  string `yaml:"targetRegion,omitempty"`
	ModelID       string `yaml:"modelId,omitempty"`
	DirectModelID string `yaml:"directModelId,omitempty"`
	Iterations    int    `yaml:"iterations,omitempty"`
	MaxTokens     int    `yaml:"maxTokens,omitempty"`
	Interval      int    `yaml:"interval,omitempty"` // seconds between requests
	Prompt        string `yaml:"prompt,omitempty"`
	Compare       bool   `yaml:"compare,omitempty"`
	APIKey        string `yaml:"-"`
}

// Default returns a Config carrying the shipping defaults.
func Default() Config {
	return Config{
		SourceRegion:  DefaultSourceRegion,
		TargetRegion:  DefaultTargetRegion,
		ModelID:       DefaultModelID,
		DirectModelID: DefaultDirectModelID,
		Iterations:    DefaultIterations,
		MaxTokens:     DefaultMaxTokens,
		Interval:      DefaultInterval,
		Prompt:        DefaultPrompt,
	}
}

// Validate checks a Config before any request is issued.
func Validate(c Config) error {
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be > 0")
	}
	if len(c.ModelID) < 1 {
		return fmt.Errorf("model id must not be empty")
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("max tokens must be > 0")
	}
	if c.Interval < 0 {
		return fmt.Errorf("interval must be >= 0")
	}
	if c.Compare && len(c.DirectModelID) < 1 {
		return fmt.Errorf("direct model id must not be empty when comparing")
	}
	return nil
}

// ParseConf reads a YAML file carrying run defaults. Fields absent from the
// file keep the shipping defaults; flags set on the command line still win.
func ParseConf(fn string) (Config, error) {
	log.Infof("📒 Reading %s file. ", fn)
	c := Default()
	buf, err := os.ReadFile(fn)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(buf, &c); err != nil {
		return c, fmt.Errorf("in file %q: %v", fn, err)
	}
	if err := Validate(c); err != nil {
		return c, fmt.Errorf("in file %q: %v", fn, err)
	}
	return c, nil
}

// ResolveAPIKey returns the Anthropic API key for the direct path. An
// explicit flag value wins; otherwise a .env file in the working directory
// is merged into the environment and ANTHROPIC_API_KEY is consulted.
func ResolveAPIKey(flagValue string) (string, error) {
	if len(flagValue) > 0 {
		return flagValue, nil
	}
	if err := godotenv.Load(); err == nil {
		log.Debug("Merged .env file into the environment")
	}
	key := os.Getenv(apiKeyEnv)
	if len(key) < 1 {
		return "", fmt.Errorf("anthropic API key not found: pass --anthropic-api-key or set %s (a .env file is honored)", apiKeyEnv)
	}
	return key, nil
}
