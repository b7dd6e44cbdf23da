// Package remote talks to the reputation API over HTTP. Every call runs under
// the configured timeout, and identify also sits behind a circuit breaker
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	perr "callerid/internal/platform/errors"
	"callerid/internal/platform/logger"
	"callerid/internal/platform/metrics"
	bdom "callerid/internal/services/api/blocks/domain"
	rdom "callerid/internal/services/api/reputation/domain"

	"github.com/sony/gobreaker"
)

// DefaultTimeout bounds each call when Config.Timeout is zero
const DefaultTimeout = 3 * time.Second

// Config configures the client
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration

	// BreakerFailures consecutive identify failures open the breaker for BreakerCooldown
	BreakerFailures uint32
	BreakerCooldown time.Duration

	HTTP    *http.Client
	Metrics *metrics.Client
}

// Client is the HTTP client for the reputation and blocks APIs
type Client struct {
	base    string
	token   string
	timeout time.Duration
	hc      *http.Client
	cb      *gobreaker.CircuitBreaker
	metrics *metrics.Client
}

// New builds a client. BaseURL is required
func New(cfg Config) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, perr.InvalidArgf("remote: invalid base url %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerCooldown <= 0 {
		cfg.BreakerCooldown = 30 * time.Second
	}
	hc := cfg.HTTP
	if hc == nil {
		hc = &http.Client{}
	}

	log := logger.Named("remote")
	failures := cfg.BreakerFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:         "identify",
		MaxRequests:  1,
		Timeout:      cfg.BreakerCooldown,
		ReadyToTrip:  func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= failures },
		IsSuccessful: healthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("breaker state change")
		},
	})

	return &Client{
		base:    strings.TrimRight(u.String(), "/") + "/api/v1",
		token:   cfg.Token,
		timeout: cfg.Timeout,
		hc:      hc,
		cb:      cb,
		metrics: cfg.Metrics,
	}, nil
}

// Timeout returns the per-call bound
func (c *Client) Timeout() time.Duration { return c.timeout }

// Identify resolves number on the server
func (c *Client) Identify(ctx context.Context, number string) (rdom.Identification, error) {
	start := time.Now()
	v, err := c.cb.Execute(func() (interface{}, error) {
		var out rdom.Identification
		err := c.do(ctx, http.MethodPost, "/reputation/identify", rdom.IdentifyInput{Number: number}, &out)
		return out, err
	})
	c.metrics.ObserveRemote(outcome(err), time.Since(start))
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return rdom.Identification{}, perr.Wrap(err, perr.ErrorCodeUnavailable, "identify breaker open")
		}
		return rdom.Identification{}, err
	}
	return v.(rdom.Identification), nil
}

// Report casts the caller's spam vote
func (c *Client) Report(ctx context.Context, in rdom.ReportInput) (rdom.ReportOutput, error) {
	var out rdom.ReportOutput
	return out, c.do(ctx, http.MethodPost, "/reputation/report", in, &out)
}

// Retract removes the caller's vote
func (c *Client) Retract(ctx context.Context, number string) (rdom.RetractOutput, error) {
	var out rdom.RetractOutput
	return out, c.do(ctx, http.MethodPost, "/reputation/retract", rdom.RetractInput{Number: number}, &out)
}

// SyncContacts uploads address book names for plurality resolution
func (c *Client) SyncContacts(ctx context.Context, entries []rdom.ContactEntry) (rdom.SyncOutput, error) {
	var out rdom.SyncOutput
	return out, c.do(ctx, http.MethodPost, "/reputation/contacts/sync", rdom.SyncInput{Entries: entries}, &out)
}

// Block records a server side block for the caller
func (c *Client) Block(ctx context.Context, in bdom.BlockInput) (bdom.BlockOutput, error) {
	var out bdom.BlockOutput
	return out, c.do(ctx, http.MethodPost, "/blocks", in, &out)
}

// Unblock removes the caller's server side block
func (c *Client) Unblock(ctx context.Context, number string) (bdom.UnblockOutput, error) {
	var out bdom.UnblockOutput
	return out, c.do(ctx, http.MethodDelete, "/blocks/"+url.PathEscape(number), nil, &out)
}

// ListBlocks returns the caller's full server side block list
func (c *Client) ListBlocks(ctx context.Context) ([]bdom.Block, error) {
	var out bdom.ListOutput
	if err := c.do(ctx, http.MethodGet, "/blocks", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

type envelope struct {
	StatusCode int             `json:"status_code"`
	Code       perr.ErrorCode  `json:"code"`
	Error      string          `json:"error"`
	Data       json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	op := "remote." + strings.TrimPrefix(path, "/")
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return perr.WithOp(perr.Wrap(err, perr.ErrorCodeJSON, "encode request"), op)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return perr.WithOp(perr.Wrap(err, perr.ErrorCodeInvalidArgument, "build request"), op)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return perr.FromContext(ctxErr, op)
		}
		return perr.WithOp(perr.Wrap(err, perr.ErrorCodeUnavailable, "request failed"), op)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return perr.FromContext(ctxErr, op)
		}
		if resp.StatusCode >= 500 {
			return perr.WithOp(perr.Unavailablef("server returned %d", resp.StatusCode), op)
		}
		return perr.WithOp(perr.Wrap(err, perr.ErrorCodeJSON, "decode response"), op)
	}

	if resp.StatusCode >= 400 {
		return perr.WithOp(statusError(resp.StatusCode, env), op)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return perr.WithOp(perr.Wrap(err, perr.ErrorCodeJSON, "decode data"), op)
	}
	return nil
}

// statusError rebuilds the server's error so callers can match codes
func statusError(status int, env envelope) error {
	msg := env.Error
	if msg == "" {
		msg = http.StatusText(status)
	}
	code := env.Code
	if code == perr.ErrorCodeUnknown && status >= 500 {
		code = perr.ErrorCodeUnavailable
	}
	if code == perr.ErrorCodeUnknown {
		return perr.Newf(code, "server returned %d: %s", status, msg)
	}
	return perr.New(code, msg)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "open"
	case perr.IsCode(err, perr.ErrorCodeTimeout):
		return "timeout"
	}
	return "error"
}

// healthy reports whether err still shows a working server. Refusals such as
// an invalid number do not count against the breaker
func healthy(err error) bool {
	switch perr.CodeOf(err) {
	case perr.ErrorCodeTimeout, perr.ErrorCodeUnavailable, perr.ErrorCodeJSON, perr.ErrorCodeUnknown:
		return err == nil
	}
	return true
}
