package meter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/wattmon/wattmon/pkg/model"
)

const maxResponseSize = 1 << 20

// ExhaustedError reports that every fetch attempt failed. It carries
// the cause of the last attempt.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d fetch attempts failed: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Acquirer performs the meter round trip with bounded retries,
// delegating payload parsing to Extract.
type Acquirer struct {
	endpoint    Endpoint
	client      *http.Client
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewAcquirer creates an acquirer for the given endpoint.
func NewAcquirer(endpoint Endpoint, maxAttempts int, retryDelay time.Duration, logger *slog.Logger) *Acquirer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Acquirer{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: 15 * time.Second},
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		logger:      logger,
		now:         time.Now,
	}
}

// Fetch polls the meter until one attempt succeeds or the attempt
// budget is spent. The inter-attempt delay is interruptible by ctx, and
// no delay follows the final attempt. On success the returned Reading
// has passed the required-field check.
func (a *Acquirer) Fetch(ctx context.Context) (*model.Reading, error) {
	var lastErr error
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		reading, err := a.fetchOnce(ctx)
		if err == nil {
			a.logger.Info("reading acquired",
				"attempt", attempt,
				"remaining_energy", reading.RemainingEnergy,
				"total_consumption", reading.TotalConsumption,
			)
			return reading, nil
		}

		lastErr = err
		cause := "network"
		if errors.Is(err, ErrMissingRequiredField) {
			cause = "parse"
		}
		a.logger.Warn("fetch attempt failed", "attempt", attempt, "cause", cause, "error", err)

		if attempt < a.maxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(a.retryDelay):
			}
		}
	}
	return nil, &ExhaustedError{Attempts: a.maxAttempts, Last: lastErr}
}

func (a *Acquirer) fetchOnce(ctx context.Context) (*model.Reading, error) {
	method := http.MethodGet
	var body io.Reader
	if a.endpoint.Body != "" {
		method = http.MethodPost
		body = strings.NewReader(a.endpoint.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.endpoint.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for name, value := range a.endpoint.Headers {
		req.Header.Set(name, value)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("meter request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("meter returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return Extract(raw, a.now())
}
