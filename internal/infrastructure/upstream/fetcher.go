package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/bimakw/wallet-proxy/internal/config"
	"github.com/bimakw/wallet-proxy/internal/domain/apperr"
	"github.com/bimakw/wallet-proxy/internal/infrastructure/clock"
)

// maxBodySize bounds how much of an upstream response is read
const maxBodySize = 8 << 20

// HTTPDoer is the transport used by the fetcher, satisfied by *http.Client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Request describes a GET against the upstream API
type Request struct {
	URL    string
	Query  url.Values
	Header http.Header
}

// Response is a fully read upstream response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Attempts   int
}

// Fetcher performs upstream GETs, retrying throttled responses with exponential backoff
type Fetcher struct {
	client HTTPDoer
	policy RetryPolicy
	clock  clock.Clock
	logger *zap.Logger
}

// NewFetcher creates a new fetcher
func NewFetcher(client HTTPDoer, policy RetryPolicy, clk clock.Clock, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		policy: policy,
		clock:  clk,
		logger: logger,
	}
}

// NewFetcherFromConfig creates a fetcher with an HTTP client and policy built from config
func NewFetcherFromConfig(cfg config.UpstreamConfig, logger *zap.Logger) *Fetcher {
	client := &http.Client{Timeout: cfg.RequestTimeout}
	policy := RetryPolicy{
		MaxAttempts:    cfg.MaxAttempts,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
	}
	return NewFetcher(client, policy, clock.New(), logger)
}

// Policy returns the retry policy in use
func (f *Fetcher) Policy() RetryPolicy {
	return f.policy
}

// Get performs the request. Only 429 responses are retried; any other failure,
// or running out of attempts, is returned as *apperr.UpstreamError.
func (f *Fetcher) Get(ctx context.Context, req Request, tag string) (*Response, error) {
	machine := newRetryMachine(f.policy)

	for {
		resp, err := f.do(ctx, req, tag)
		if err != nil {
			machine.observe(outcomeFailure)
			return nil, f.transportError(ctx, tag, machine.attempt, err)
		}

		switch machine.observe(classify(resp.StatusCode)) {
		case StateSucceeded:
			resp.Attempts = machine.attempt
			return resp, nil

		case StateBackingOff:
			upstreamRetriesTotal.WithLabelValues(tag).Inc()
			f.logger.Warn("Upstream rate limited, backing off",
				zap.String("tag", tag),
				zap.Int("attempt", machine.attempt),
				zap.Duration("delay", machine.delay),
			)
			if err := f.clock.Sleep(ctx, machine.delay); err != nil {
				return nil, f.transportError(ctx, tag, machine.attempt, err)
			}
			machine.resume()

		default:
			return nil, &apperr.UpstreamError{
				Tag:        tag,
				StatusCode: resp.StatusCode,
				Message:    upstreamMessage(resp.StatusCode, resp.Body),
				Attempts:   machine.attempt,
			}
		}
	}
}

// GetJSON performs the request and decodes the response body into dest
func (f *Fetcher) GetJSON(ctx context.Context, req Request, tag string, dest interface{}) error {
	resp, err := f.Get(ctx, req, tag)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(resp.Body, dest); err != nil {
		return &apperr.UpstreamError{
			Tag:        tag,
			StatusCode: http.StatusBadGateway,
			Message:    "invalid upstream response body",
			Attempts:   resp.Attempts,
			Err:        err,
		}
	}

	return nil
}

// do sends a single attempt and reads the whole body
func (f *Fetcher) do(ctx context.Context, req Request, tag string) (*Response, error) {
	target, err := buildURL(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if req.Header != nil {
		httpReq.Header = req.Header.Clone()
	}
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := f.client.Do(httpReq)
	upstreamRequestDuration.WithLabelValues(tag).Observe(time.Since(start).Seconds())
	if err != nil {
		upstreamRequestsTotal.WithLabelValues(tag, "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	upstreamRequestsTotal.WithLabelValues(tag, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	f.logger.Debug("Upstream response",
		zap.String("tag", tag),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
	)

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func (f *Fetcher) transportError(ctx context.Context, tag string, attempts int, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}

	upstreamErr := &apperr.UpstreamError{
		Tag:      tag,
		Message:  err.Error(),
		Attempts: attempts,
		Err:      err,
	}
	if errors.Is(err, context.DeadlineExceeded) {
		upstreamErr.StatusCode = http.StatusGatewayTimeout
		upstreamErr.Message = "upstream request timed out"
	}
	return upstreamErr
}

func buildURL(req Request) (string, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return "", fmt.Errorf("invalid upstream url %q: %w", req.URL, err)
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for key, values := range req.Query {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// upstreamMessage extracts the most specific message from an error body
func upstreamMessage(statusCode int, body []byte) string {
	var payload struct {
		Message     string `json:"message"`
		Description string `json:"description"`
		Error       string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Message != "":
			return payload.Message
		case payload.Description != "":
			return payload.Description
		case payload.Error != "":
			return payload.Error
		}
	}

	if text := http.StatusText(statusCode); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", statusCode)
}
