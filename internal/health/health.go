package health

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

var ErrInvalidResponse = errors.New("health endpoint returned no status")

// Status is the body served by a bridge on GET /health.
type Status struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Connections int64  `json:"connections"`
	Version     string `json:"version"`
}

// OK reports whether the bridge described itself as healthy.
func (s Status) OK() bool {
	return s.Status == "ok"
}

// Time parses Timestamp.
func (s Status) Time() (time.Time, error) {
	return time.Parse(time.RFC3339, s.Timestamp)
}

// Options configures a Client.
type Options struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Logger       *zap.Logger
}

func DefaultOptions() Options {
	return Options{
		Timeout:      5 * time.Second,
		MaxRetries:   2,
		RetryWaitMin: 200 * time.Millisecond,
		RetryWaitMax: 2 * time.Second,
	}
}

// Client probes bridge health endpoints. It is a diagnostic aid and plays no
// part in session connection decisions.
type Client struct {
	resty *resty.Client
}

// NewClient creates a client whose transport retries connection errors and
// 5xx responses.
func NewClient(opts Options) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.MaxRetries
	retryClient.RetryWaitMin = opts.RetryWaitMin
	retryClient.RetryWaitMax = opts.RetryWaitMax
	if opts.Logger != nil {
		retryClient.Logger = leveledLogger{opts.Logger.Named("health").Sugar()}
	} else {
		retryClient.Logger = nil
	}

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "copilot-client-health/1.0")

	return &Client{resty: restyClient}
}

// Check fetches /health from the bridge at serverURL, which may use a ws, wss,
// http or https scheme.
func (c *Client) Check(ctx context.Context, serverURL string) (*Status, error) {
	base, err := HTTPURL(serverURL)
	if err != nil {
		return nil, err
	}
	endpoint := base + "/health"

	resp, err := c.resty.R().
		SetContext(ctx).
		SetResult(&Status{}).
		Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("health check %s: %w", endpoint, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("health check %s: HTTP %d", endpoint, resp.StatusCode())
	}

	status, ok := resp.Result().(*Status)
	if !ok || status.Status == "" {
		return nil, fmt.Errorf("health check %s: %w", endpoint, ErrInvalidResponse)
	}
	return status, nil
}

// HTTPURL maps a bridge address onto its HTTP origin: ws becomes http, wss
// becomes https. Path, query and fragment are dropped.
func HTTPURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "ws", "http":
		u.Scheme = "http"
	case "wss", "https":
		u.Scheme = "https"
	default:
		return "", fmt.Errorf("invalid server URL: unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", errors.New("invalid server URL: missing host")
	}
	return u.Scheme + "://" + u.Host, nil
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
