package drivers

import (
	"context"
	"fmt"

	"github.com/perfscale/llm-apiperf/pkg/config"
)

// Driver issues a single prompt completion against one backend. Probing
// loops are backend-agnostic; a Driver only knows how to construct its
// client and shape its request payload.
type Driver interface {
	Name() string
	ModelID() string
	Invoke(ctx context.Context, prompt string) error
}

// NewDriver returns a Driver based on the given driverName and configuration.
// It currently supports the "bedrock" and "anthropic" drivers.
// If the driverName is not recognized, it returns an error.
func NewDriver(ctx context.Context, driverName string, cfg config.Config) (Driver, error) {
	switch driverName {
	case "bedrock":
		return NewBedrockDriver(ctx, cfg.TargetRegion, cfg.ModelID, cfg.MaxTokens)
	case "anthropic":
		return NewAnthropicDriver(cfg.APIKey, cfg.DirectModelID, cfg.MaxTokens), nil
	default:
		return nil, fmt.Errorf("unknown driver: %s", driverName)
	}
}
