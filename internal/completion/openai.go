package completion

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// Zero timeout keeps the transport default: no deadline beyond ctx.
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	clientCfg.HTTPClient = httpClient

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

func (c *OpenAIClient) Model() string {
	return c.model
}

func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, buildRequest(c.model, system, user))
	if err != nil {
		return "", fmt.Errorf("request chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyChoices
	}
	return resp.Choices[0].Message.Content, nil
}

func buildRequest(model, system, user string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		// go-openai drops a zero temperature from the payload; the smallest
		// non-zero float32 is its documented way to request greedy decoding.
		Temperature:      math.SmallestNonzeroFloat32,
		MaxTokens:        MaxTokens,
		TopP:             TopP,
		FrequencyPenalty: FrequencyPenalty,
		PresencePenalty:  PresencePenalty,
		Stop:             []string{StopSequence},
	}
}
