package genai

import (
	"context"
	"errors"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/interview-iq/backend/internal/apperr"
	"github.com/interview-iq/backend/pkg/circuitbreaker"
	"github.com/interview-iq/backend/pkg/config"
	"github.com/interview-iq/backend/pkg/logger"
	"github.com/interview-iq/backend/pkg/retry"
)

// Completer is the single model call every generation step goes
// through. Raw text comes back; JSON extraction happens upstream.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type CompletionRequest struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int
}

// Client wraps the OpenAI chat API with a circuit breaker and retry.
// The breaker sits outside the retry loop so a run of failing attempts
// counts once against the failure threshold.
type Client struct {
	api       *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
	breaker   *circuitbreaker.CircuitBreaker
	retryCfg  retry.Config
}

func NewClient(cfg config.GenAIConfig) *Client {
	log := logger.GetLogger()

	retryCfg := retry.DefaultConfig()
	retryCfg.Logger = log

	return &Client{
		api:       openai.NewClient(cfg.APIKey),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   time.Duration(cfg.TimeoutSec) * time.Second,
		breaker: circuitbreaker.NewCircuitBreaker("genai", circuitbreaker.Config{
			FailureThreshold: 5,
			SuccessThreshold: 2,
			Timeout:          30 * time.Second,
			Logger:           log,
		}),
		retryCfg: retryCfg,
	}
}

func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	var content string
	err := c.breaker.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryCfg, func() error {
			resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
				Model:       c.model,
				Temperature: req.Temperature,
				MaxTokens:   maxTokens,
				Messages: []openai.ChatCompletionMessage{
					{Role: openai.ChatMessageRoleSystem, Content: req.System},
					{Role: openai.ChatMessageRoleUser, Content: req.User},
				},
			})
			if err != nil {
				return err
			}
			if len(resp.Choices) == 0 {
				return errors.New("model returned no choices")
			}
			content = resp.Choices[0].Message.Content
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			logger.Warn("Model call rejected, circuit open")
		} else {
			logger.Error("Model call failed", zap.Error(err))
		}
		return "", apperr.Backend("model completion failed", err)
	}

	return content, nil
}
