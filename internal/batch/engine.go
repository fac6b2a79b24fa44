package batch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/rojin-sharrr/mcp-google-calendar/internal/apierr"
)

// MaxBatchSize is the hard limit the Calendar batch endpoint imposes on the
// number of sub-requests per call.
const MaxBatchSize = 50

// DefaultEndpoint is the Calendar API batch endpoint.
const DefaultEndpoint = "https://www.googleapis.com/batch/calendar/v3"

// SubRequest describes one embedded API call. Path is relative to the API
// root (e.g. "/calendar/v3/calendars/primary/events?maxResults=10"). Body is
// JSON-encoded for write methods and must be nil for GET/DELETE.
type SubRequest struct {
	Method string
	Path   string
	Body   any
}

// SubResponse is the outcome of one sub-request. Exactly one of Body or Err
// carries the result; StatusCode is set whenever the part was parseable.
type SubResponse struct {
	StatusCode int
	Body       []byte
	Err        error
}

// MetricsRecorder receives batch call observations. It is satisfied by
// instrumentation.Metrics; a nil recorder disables recording.
type MetricsRecorder interface {
	RecordBatchCall(ctx context.Context, size int, status string)
	RecordBatchRetry(ctx context.Context)
}

// Engine issues batched Calendar API calls over an authorized HTTP client.
type Engine struct {
	httpClient  *http.Client
	endpoint    string
	maxAttempts uint
	metrics     MetricsRecorder
}

// Option configures an Engine.
type Option func(*Engine)

// WithEndpoint overrides the batch endpoint, mainly for tests.
func WithEndpoint(endpoint string) Option {
	return func(e *Engine) { e.endpoint = endpoint }
}

// WithMaxAttempts sets how many times the whole batch call is attempted.
func WithMaxAttempts(n uint) Option {
	return func(e *Engine) { e.maxAttempts = n }
}

// SetMetrics attaches a metrics recorder to the engine. Safe to call with
// nil to disable recording.
func (e *Engine) SetMetrics(m MetricsRecorder) {
	e.metrics = m
}

// NewEngine creates a batch engine on top of an authorized HTTP client.
func NewEngine(httpClient *http.Client, opts ...Option) *Engine {
	e := &Engine{
		httpClient:  httpClient,
		endpoint:    DefaultEndpoint,
		maxAttempts: 3,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Do executes the sub-requests as a single batch HTTP call and returns one
// sub-response per sub-request, in the same order. The whole call is retried
// with exponential backoff on transport errors and retryable HTTP statuses;
// failures of individual sub-requests are reported in their SubResponse and
// never retried.
func (e *Engine) Do(ctx context.Context, reqs []SubRequest) ([]SubResponse, error) {
	if len(reqs) == 0 {
		return nil, apierr.NewValidationError("requests", "batch must contain at least one request")
	}
	if len(reqs) > MaxBatchSize {
		return nil, apierr.NewValidationError("requests",
			fmt.Sprintf("batch size %d exceeds the maximum of %d", len(reqs), MaxBatchSize))
	}

	// Encode once; each attempt re-reads the same bytes.
	payload, contentType, err := EncodeRequests(reqs)
	if err != nil {
		return nil, err
	}

	attempt := 0
	operation := func() ([]SubResponse, error) {
		attempt++
		if attempt > 1 && e.metrics != nil {
			e.metrics.RecordBatchRetry(ctx)
		}
		out, err := e.roundTrip(ctx, payload, contentType, len(reqs))
		if err != nil {
			if apierr.IsRetryable(err) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return out, nil
	}

	out, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(e.maxAttempts),
		backoff.WithMaxElapsedTime(2*time.Minute),
	)

	if e.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		e.metrics.RecordBatchCall(ctx, len(reqs), status)
	}

	return out, err
}

// roundTrip performs one POST against the batch endpoint and decodes the
// multipart response.
func (e *Engine) roundTrip(ctx context.Context, payload []byte, contentType string, n int) ([]SubResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build batch request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &apierr.TransientError{Err: fmt.Errorf("batch call failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("batch endpoint returned %s: %s", resp.Status, bytes.TrimSpace(body))
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, &apierr.RateLimitError{Err: err}
		case resp.StatusCode >= 500:
			return nil, &apierr.TransientError{Err: err}
		default:
			return nil, err
		}
	}

	return DecodeResponses(resp.Body, resp.Header.Get("Content-Type"), n)
}
