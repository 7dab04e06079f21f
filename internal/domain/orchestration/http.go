package orchestration

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/GriffinCanCode/termrelay/internal/infrastructure/config"
	"github.com/GriffinCanCode/termrelay/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/termrelay/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/termrelay/internal/shared/id"
	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
)

// RequestIDHeader carries the correlation id of each state query.
const RequestIDHeader = "X-Request-ID"

// HTTPSource queries GET <base>/state on the orchestration service.
type HTTPSource struct {
	client  *resty.Client
	breaker *resilience.Breaker
}

// NewHTTPSource creates a source for the service at cfg.URL.
// Each query is a single attempt; the resolver never retries.
func NewHTTPSource(cfg config.OrchestrationConfig) *HTTPSource {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", "termrelay/1.0").
		SetHeader("Accept", "application/json").
		SetTransport(retryClient.HTTPClient.Transport)

	breaker := resilience.New("orchestration", resilience.Settings{
		FailureThreshold: cfg.FailureThreshold,
		Cooldown:         cfg.Cooldown,
	})

	return &HTTPSource{client: client, breaker: breaker}
}

// Breaker exposes the circuit guarding the service.
func (h *HTTPSource) Breaker() *resilience.Breaker {
	return h.breaker
}

// CurrentState fetches and decodes the deployment state.
func (h *HTTPSource) CurrentState(ctx context.Context) (State, error) {
	state, err := resilience.Execute(h.breaker, func() (State, error) {
		return h.fetch(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return state, nil
}

func (h *HTTPSource) fetch(ctx context.Context) (State, error) {
	start := time.Now()
	headers := map[string]string{RequestIDHeader: string(id.NewRequestID())}
	tracing.Inject(ctx, headers)

	resp, err := h.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get("/state")
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("query returned %s after %s", resp.Status(), time.Since(start).Round(time.Millisecond))
	}

	var state State
	if err := sonic.Unmarshal(resp.Body(), &state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return state, nil
}
