package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/kirillkom/upload-probe/internal/infrastructure/resilience"
)

// CallRecorder receives one observation per finished oracle call.
type CallRecorder interface {
	ObserveOracleCall(kind string, duration time.Duration, err error)
}

// Client wraps the Gemini API with a rate limiter (every call is billable)
// and the shared resilience executor.
type Client struct {
	genai    *genai.Client
	model    string
	limiter  *rate.Limiter
	executor *resilience.Executor
	recorder CallRecorder
}

type Options struct {
	// CallsPerSecond caps outbound oracle traffic. Zero means no limit.
	CallsPerSecond float64
	Executor       *resilience.Executor
	Recorder       CallRecorder
}

func NewClient(ctx context.Context, apiKey, model string, opts Options) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.CallsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.CallsPerSecond), 1)
	}
	executor := opts.Executor
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}

	return &Client{
		genai:    client,
		model:    model,
		limiter:  limiter,
		executor: executor,
		recorder: opts.Recorder,
	}, nil
}

// generateJSON runs one model call constrained to a JSON response and
// returns the raw text for the caller to validate. Oracle output is
// untrusted: nothing here assumes the model obeyed the instruction.
func (c *Client) generateJSON(ctx context.Context, operation string, parts []*genai.Part) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	var text string
	started := time.Now()
	err := c.executor.Execute(ctx, operation, func(callCtx context.Context) error {
		resp, callErr := c.genai.Models.GenerateContent(callCtx, c.model, contents, config)
		if callErr != nil {
			return fmt.Errorf("gemini %s request: %w", operation, callErr)
		}
		text = strings.TrimSpace(resp.Text())
		if text == "" {
			return fmt.Errorf("gemini %s: empty response", operation)
		}
		return nil
	}, classifyGeminiError)

	if c.recorder != nil {
		c.recorder.ObserveOracleCall(operation, time.Since(started), err)
	}
	if err != nil {
		return "", err
	}
	return text, nil
}
