package drivers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

type modelFamily int

const (
	familyAnthropic modelFamily = iota
	familyTitan
)

type bedrock struct {
	client    *bedrockruntime.Client
	modelID   string
	family    modelFamily
	maxTokens int
}

// NewBedrockDriver builds the gateway-path driver. The Bedrock runtime
// client is created in the target region; credentials and endpoints come
// from the default AWS config chain. Model families the request body cannot
// be shaped for are rejected here, before any probing starts.
func NewBedrockDriver(ctx context.Context, region, modelID string, maxTokens int) (Driver, error) {
	family, err := bedrockFamily(modelID)
	if err != nil {
		return nil, err
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for region %s: %w", region, err)
	}
	return &bedrock{
		client:    bedrockruntime.NewFromConfig(cfg),
		modelID:   modelID,
		family:    family,
		maxTokens: maxTokens,
	}, nil
}

func (b *bedrock) Name() string {
	return "bedrock"
}

func (b *bedrock) ModelID() string {
	return b.modelID
}

func (b *bedrock) Invoke(ctx context.Context, prompt string) error {
	body, err := bedrockPayload(b.family, prompt, b.maxTokens)
	if err != nil {
		return err
	}
	_, err = b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	return err
}

func bedrockFamily(modelID string) (modelFamily, error) {
	switch {
	case strings.Contains(modelID, "anthropic"):
		return familyAnthropic, nil
	case strings.Contains(modelID, "amazon.titan"):
		return familyTitan, nil
	default:
		return 0, fmt.Errorf("unsupported model: %s", modelID)
	}
}

type anthropicBody struct {
	AnthropicVersion string           `json:"anthropic_version"`
	MaxTokens        int              `json:"max_tokens"`
	Messages         []bedrockMessage `json:"messages"`
}

type bedrockMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type titanBody struct {
	InputText            string      `json:"inputText"`
	TextGenerationConfig titanConfig `json:"textGenerationConfig"`
}

type titanConfig struct {
	MaxTokenCount int `json:"maxTokenCount"`
}

// bedrockPayload shapes the InvokeModel body for the model family.
func bedrockPayload(family modelFamily, prompt string, maxTokens int) ([]byte, error) {
	switch family {
	case familyAnthropic:
		return json.Marshal(anthropicBody{
			AnthropicVersion: "bedrock-2023-05-31",
			MaxTokens:        maxTokens,
			Messages: []bedrockMessage{
				{
					Role:    "user",
					Content: []contentBlock{{Type: "text", Text: prompt}},
				},
			},
		})
	case familyTitan:
		return json.Marshal(titanBody{
			InputText:            prompt,
			TextGenerationConfig: titanConfig{MaxTokenCount: maxTokens},
		})
	default:
		return nil, fmt.Errorf("unsupported model family")
	}
}
