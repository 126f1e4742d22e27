package service

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/fikebr/notes-to-blog/internal/config"
)

// Completer is the LLM completion capability.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Ping(ctx context.Context) error
}

// OpenAIClient implements Completer with the official openai-go SDK.
type OpenAIClient struct {
	model string
	opts  []option.RequestOption
}

// NewOpenAIClient builds a completion client from config. The apiKey is
// resolved by the caller (config value or environment).
func NewOpenAIClient(cfg config.LLMConfig, apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("llm: api key missing (set llm.api_key or N2B_OPENAI_KEY)")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm: model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIClient{model: cfg.Model, opts: opts}, nil
}

// Complete sends one user prompt and returns the raw completion text.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	client := openai.NewClient(c.opts...)

	var text string
	err := withRetry(ctx, 2, time.Second, func() error {
		resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: openai.ChatModel(c.model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
		})
		if err != nil {
			return wrapCallErr(CapabilityLLM, err)
		}
		if len(resp.Choices) == 0 {
			return capErr(CapabilityLLM, KindMalformed, errors.New("empty choices"))
		}
		text = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// Ping lists models as a cheap reachability and auth probe.
func (c *OpenAIClient) Ping(ctx context.Context) error {
	client := openai.NewClient(c.opts...)
	if _, err := client.Models.List(ctx); err != nil {
		return wrapCallErr(CapabilityLLM, err)
	}
	return nil
}
