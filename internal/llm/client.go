// Package llm wraps the structured-output model calls the pipeline makes
// during classification (§4.3) and mapping proposal (§4.4): retry with
// jittered backoff, a circuit breaker, a token-bucket rate limiter, and
// gojsonschema validation of the decoded JSON before it is handed back to
// the caller.
//
// Grounded on the teacher's internal/ai/client.go (callStructured /
// callWithBreaker retry shape) and internal/ai/circuit_breaker.go, with
// the rate limiter and schema validation adopted from the rest of the
// example pack (golang.org/x/time/rate, github.com/xeipuuv/gojsonschema)
// since the teacher calls OpenAI unthrottled and trusts its native
// structured-output enforcement alone.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/time/rate"
)

const maxParseRetries = 2

// Config configures a Client.
type Config struct {
	APIKey          string
	Model           string
	MaxRetries      int
	RetryBaseDelay  time.Duration
	RateLimitPerSec float64
	RateLimitBurst  int
}

// UsageInfo is the token usage a call actually consumed.
type UsageInfo struct {
	InputTokens  int64
	OutputTokens int64
}

// Client is the pipeline's sole entry point to the model provider.
type Client struct {
	client     openai.Client
	model      string
	maxRetries int
	retryDelay time.Duration
	breaker    *CircuitBreaker
	limiter    *rate.Limiter
}

// NewClient builds a Client. APIKey must be non-empty; callers resolve it
// from config.Config before construction (internal/config owns precedence).
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: APIKey is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	if cfg.RateLimitPerSec <= 0 {
		cfg.RateLimitPerSec = 1.0
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 3
	}

	client := openai.NewClient(option.WithAPIKey(cfg.APIKey))

	return &Client{
		client:     client,
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryBaseDelay,
		breaker:    NewCircuitBreaker(DefaultCircuitBreakerConfig()),
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst),
	}, nil
}

// ProposeMapping asks the model to propose a DomainMappingSpec for one
// domain, given the domain's reference spec, the candidate dataset
// profiles, and a handful of few-shot examples. The result is validated
// against mappingProposalJSONSchema before it is returned.
func (c *Client) ProposeMapping(ctx context.Context, systemPrompt, userContent string) (*MappingProposal, *UsageInfo, error) {
	result := &MappingProposal{}
	var usage UsageInfo

	err := c.callWithBreaker(ctx, "ProposeMapping", func() error {
		return c.callStructured(ctx, systemPrompt, userContent, mappingProposalJSONSchema(), result, &usage)
	})
	if err != nil {
		return nil, nil, err
	}
	if result.SchemaVersion == "" {
		result.SchemaVersion = SchemaVersionMappingProposal
	}
	return result, &usage, nil
}

// ClassifyDataset runs the classifier's stage-2 LLM fusion call (§4.3).
func (c *Client) ClassifyDataset(ctx context.Context, systemPrompt, userContent string) (*ClassificationProposal, *UsageInfo, error) {
	result := &ClassificationProposal{}
	var usage UsageInfo

	err := c.callWithBreaker(ctx, "ClassifyDataset", func() error {
		return c.callStructured(ctx, systemPrompt, userContent, classificationJSONSchema(), result, &usage)
	})
	if err != nil {
		return nil, nil, err
	}
	return result, &usage, nil
}

// callWithBreaker wraps an LLM call with circuit breaker protection.
func (c *Client) callWithBreaker(ctx context.Context, operation string, fn func() error) error {
	if !c.breaker.Allow() {
		return &CallError{Err: ErrUnavailable, Message: fmt.Sprintf("circuit breaker open for %s", operation)}
	}
	err := fn()
	if err != nil {
		classified := ClassifyError(extractHTTPStatusCode(err), err)
		if classified.Category == CategoryTransient {
			c.breaker.RecordFailure()
		}
		return err
	}
	c.breaker.RecordSuccess()
	return nil
}

// callStructured makes one structured-output call, retrying transient
// failures with jittered exponential backoff and JSON/schema failures by
// feeding the error back into the prompt, up to maxParseRetries times.
func (c *Client) callStructured(ctx context.Context, systemPrompt, userContent string, schema map[string]interface{}, out interface{}, usage *UsageInfo) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("llm: rate limiter: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelayFor(attempt, lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		raw, u, err := c.callOnceWithParseRetry(ctx, systemPrompt, userContent, schema)
		if err == nil {
			*usage = *u
			return json.Unmarshal(raw, out)
		}
		lastErr = err
		classified := ClassifyError(extractHTTPStatusCode(err), err)
		if !classified.ShouldRetry {
			return err
		}
		slog.Warn("llm.callStructured retrying", "attempt", attempt+1, "error", err)
	}
	return fmt.Errorf("llm: exhausted retries: %w", lastErr)
}

func (c *Client) callOnceWithParseRetry(ctx context.Context, systemPrompt, userContent string, schema map[string]interface{}) ([]byte, *UsageInfo, error) {
	schemaLoader := gojsonschema.NewGoLoader(schema)

	content := userContent
	var lastErr error
	for parseAttempt := 0; parseAttempt <= maxParseRetries; parseAttempt++ {
		resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: openai.ChatModel(c.model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(systemPrompt),
				openai.UserMessage(content),
			},
			ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
					JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
						Name:   "response",
						Schema: schema,
						Strict: openai.Bool(true),
					},
				},
			},
		})
		if err != nil {
			return nil, nil, &CallError{Err: ErrUnavailable, Message: err.Error()}
		}
		if len(resp.Choices) == 0 {
			lastErr = &CallError{Err: ErrInvalidOutput, Message: "no choices returned"}
			continue
		}
		choice := resp.Choices[0]
		if choice.Message.Refusal != "" {
			return nil, nil, &CallError{Err: ErrRefused, Message: choice.Message.Refusal}
		}
		if choice.FinishReason == "length" {
			lastErr = &CallError{Err: ErrTruncated, Message: "response truncated at max_tokens"}
			continue
		}
		if choice.FinishReason == "content_filter" {
			return nil, nil, &CallError{Err: ErrContentFiltered, Message: "content filtered"}
		}

		raw := []byte(choice.Message.Content)
		if len(raw) == 0 {
			lastErr = &CallError{Err: ErrInvalidOutput, Message: "empty content"}
			continue
		}

		var decoded interface{}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			lastErr = &CallError{Err: ErrInvalidOutput, Message: err.Error()}
			content = userContent + fmt.Sprintf("\n\nYour previous response was not valid JSON (%s). Return valid JSON only.", err)
			continue
		}

		result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(decoded))
		if err != nil {
			return nil, nil, fmt.Errorf("llm: schema validation error: %w", err)
		}
		if !result.Valid() {
			lastErr = &CallError{Err: ErrSchemaValidation, Message: summarizeSchemaErrors(result)}
			content = userContent + fmt.Sprintf("\n\nYour previous response failed schema validation: %s. Fix and return valid JSON only.", summarizeSchemaErrors(result))
			continue
		}

		usage := &UsageInfo{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		}
		return raw, usage, nil
	}
	return nil, nil, lastErr
}

func summarizeSchemaErrors(result *gojsonschema.Result) string {
	errs := result.Errors()
	if len(errs) == 0 {
		return "unknown schema violation"
	}
	msg := errs[0].String()
	if len(errs) > 1 {
		msg = fmt.Sprintf("%s (and %d more)", msg, len(errs)-1)
	}
	return msg
}

func (c *Client) retryDelayFor(attempt int, lastErr error) time.Duration {
	var callErr *CallError
	if errors.As(lastErr, &callErr) && callErr.RetryAfter > 0 {
		return time.Duration(callErr.RetryAfter) * time.Second
	}
	base := c.retryDelay * time.Duration(1<<uint(attempt-1))
	return jitterDuration(base)
}

func jitterDuration(base time.Duration) time.Duration {
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}

func extractHTTPStatusCode(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
