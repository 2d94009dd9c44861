// internal/adapters/backend/client.go
package backend

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"library_gateway/internal/adapters/observability"
	"library_gateway/internal/domain"
)

// Options tune a Client. Zero values mean: no per-call timeout, no throttling.
type Options struct {
	Timeout time.Duration
	RPS     int
}

// Client calls one backend service. RPC methods are exposed as POST {base}/{Method}
// with JSON in and JSON out. A Client is safe for concurrent use.
type Client struct {
	service string
	base    string
	hc      *http.Client
	rl      *rate.Limiter
}

func New(service, base string, opt Options) (*Client, error) {
	if strings.TrimSpace(base) == "" {
		return nil, fmt.Errorf("%s: base URL is required", service)
	}
	limit := rate.Inf
	burst := 0
	if opt.RPS > 0 {
		limit, burst = rate.Limit(opt.RPS), opt.RPS
	}
	return &Client{
		service: service,
		base:    strings.TrimRight(base, "/"),
		hc:      &http.Client{Timeout: opt.Timeout},
		rl:      rate.NewLimiter(limit, burst),
	}, nil
}

// Call invokes method with in as the JSON request body and returns the raw response
// body. Read methods (Get*) are retried on transient failures; writes are sent once.
func (c *Client) Call(ctx context.Context, method string, in any) (json.RawMessage, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: encode request: %w", c.service, method, err)
	}

	// client-side rate limiting
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	attempts := 1
	if isRead(method) {
		attempts = 4
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		retry := i < attempts-1

		start := time.Now()
		out, status, wait, err := c.do(ctx, method, body)
		observability.ObserveBackend(c.service, method, status, time.Since(start))
		if err == nil {
			return out, nil
		}
		lastErr = err

		// only transport errors and 429/5xx come back with retry advice
		if wait < 0 || !retry {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if wait == 0 {
			wait = backoff(i)
		}
		log.Debug().Str("service", c.service).Str("method", method).Int("attempt", i+1).
			Str("err_type", observability.LabelErr(err)).Err(err).Dur("wait", wait).Msg("backend call retrying")
		// context-aware sleep before retry
		if !sleepCtx(ctx, wait) {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// do performs one attempt. wait < 0 means the error is final; otherwise the caller may
// retry after wait (0 = use backoff).
func (c *Client) do(ctx context.Context, method string, body []byte) (json.RawMessage, int, time.Duration, error) {
	url := c.base + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, -1, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "library-gateway/1.0")

	resp, err := c.hc.Do(req)
	if err != nil {
		// network error or context canceled
		if ctx.Err() != nil {
			return nil, 0, -1, ctx.Err()
		}
		return nil, 0, 0, fmt.Errorf("%s.%s: %w: %v", c.service, method, domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		_, _ = io.Copy(io.Discard, resp.Body)
		return json.RawMessage(`{}`), resp.StatusCode, -1, nil

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, resp.StatusCode, -1, fmt.Errorf("%s.%s: read body: %w", c.service, method, err)
		}
		if len(bytes.TrimSpace(b)) == 0 {
			b = []byte(`{}`)
		}
		if !json.Valid(b) {
			return nil, resp.StatusCode, -1, fmt.Errorf("%s.%s: response is not JSON", c.service, method)
		}
		return json.RawMessage(b), resp.StatusCode, -1, nil

	case resp.StatusCode == http.StatusNotFound:
		return nil, resp.StatusCode, -1, fmt.Errorf("%s.%s: %w%s", c.service, method, domain.ErrNotFound, detail(resp.Body))

	case resp.StatusCode == http.StatusNotImplemented:
		return nil, resp.StatusCode, -1, fmt.Errorf("%s.%s: %w", c.service, method, domain.ErrMethodNotFound)

	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		// Prefer server-provided Retry-After; otherwise exponential backoff.
		wait := retryAfter(resp)
		return nil, resp.StatusCode, wait, fmt.Errorf("%s.%s: %w: status %d%s",
			c.service, method, domain.ErrUnavailable, resp.StatusCode, detail(resp.Body))

	default:
		return nil, resp.StatusCode, -1, fmt.Errorf("%s.%s: bad status %d%s", c.service, method, resp.StatusCode, detail(resp.Body))
	}
}

// detail reads a small error body for diagnostics, preferring an {"error": "..."} field.
func detail(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4096))
	s := strings.TrimSpace(string(b))
	if s == "" {
		return ""
	}
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &e) == nil && e.Error != "" {
		s = e.Error
	}
	return ": " + s
}

func isRead(method string) bool { return strings.HasPrefix(method, "Get") }

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	// seconds form
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	// HTTP-date form
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential backoff delay with up to +50% jitter.
// i = retry attempt (0,1,2,...): 100ms, 200ms, 400ms...
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 100 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
