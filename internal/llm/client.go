package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/exportai/backend/internal/metrics"
	"github.com/exportai/backend/pkg/circuitbreaker"
	"github.com/exportai/backend/pkg/errs"
	"github.com/exportai/backend/pkg/logger"
)

// Client wraps the hosted chat-completion API behind the narrow contract
// the analysis generators need: one system prompt, one user prompt, one
// JSON schema, one structured document back.
type Client struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	cb          *circuitbreaker.CircuitBreaker
}

// Request asks for a single completion constrained to Schema. Schema must
// be a valid JSON-schema document; the provider rejects anything else.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	SchemaName   string
	Schema       json.RawMessage
	Temperature  float32
	MaxTokens    int
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

func NewClient(apiKey, model string, temperature float32, maxTokens, timeoutSec int) *Client {
	cb := circuitbreaker.NewCircuitBreaker("llm", circuitbreaker.Config{
		MaxRequests:      5,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			metrics.CircuitState.WithLabelValues(name).Set(float64(to))
		},
	})

	if timeoutSec <= 0 {
		timeoutSec = 60
	}

	logger.Info("LLM client initialized", zap.String("model", model))

	return &Client{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		timeout:     time.Duration(timeoutSec) * time.Second,
		cb:          cb,
	}
}

// CompleteJSON returns the raw JSON document produced under req.Schema.
// The external service is called exactly once per invocation; failed
// analyses are resubmitted by the caller, never retried here.
func (c *Client) CompleteJSON(ctx context.Context, req Request) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	var content string
	var usage Usage

	err := c.cb.Execute(ctx, func() error {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			Temperature: temperature,
			MaxTokens:   maxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
				JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
					Name:   req.SchemaName,
					Schema: req.Schema,
					Strict: true,
				},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to create completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("completion returned no choices")
		}

		content = resp.Choices[0].Message.Content
		usage = Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
		return nil
	})
	if err != nil {
		return nil, errs.Analysis("completion", err)
	}

	metrics.LLMTokensUsed.WithLabelValues(c.model, "prompt").Add(float64(usage.PromptTokens))
	metrics.LLMTokensUsed.WithLabelValues(c.model, "completion").Add(float64(usage.CompletionTokens))

	logger.Debug("LLM completion generated",
		zap.String("schema", req.SchemaName),
		zap.Int("prompt_tokens", usage.PromptTokens),
		zap.Int("completion_tokens", usage.CompletionTokens),
	)

	if !json.Valid([]byte(content)) {
		return nil, errs.Analysis("decode", fmt.Errorf("completion is not valid JSON"))
	}

	return json.RawMessage(content), nil
}
