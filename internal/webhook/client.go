// Package webhook posts quiz results to an external endpoint.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/valyala/fasthttp"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

const (
	DefaultTimeout = 10 * time.Second

	maxBodyExcerpt = 200
)

// Doer sends one request. *fasthttp.Client satisfies it.
type Doer interface {
	DoDeadline(req *fasthttp.Request, resp *fasthttp.Response, deadline time.Time) error
}

// Outcome is the delivery result recorded into the quiz result.
type Outcome struct {
	Status models.WebhookStatus
	Error  string
}

type Client struct {
	doer    Doer
	timeout time.Duration
	logger  *slog.Logger
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithDoer(d Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.doer = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		doer: &fasthttp.Client{
			Name:                "quiz-engine-webhook",
			MaxIdleConnDuration: 30 * time.Second,
		},
		timeout: DefaultTimeout,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "webhook")
	return c
}

// Send POSTs payload as JSON to url. It never returns an error: every failure
// is folded into the Outcome. An empty url leaves the status idle.
func (c *Client) Send(ctx context.Context, url string, payload any) Outcome {
	if url == "" {
		return Outcome{Status: models.WebhookIdle}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return c.failed(url, fmt.Sprintf("Webhook payload encoding failed: %v", err))
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	release := func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	done := make(chan error, 1)
	go func() { done <- c.doer.DoDeadline(req, resp, deadline) }()

	select {
	case <-ctx.Done():
		// The request still owns req and resp until DoDeadline returns.
		go func() {
			<-done
			release()
		}()
		return c.failed(url, fmt.Sprintf("Webhook request failed: %v", ctx.Err()))
	case err := <-done:
		defer release()
		if err != nil {
			return c.failed(url, fmt.Sprintf("Webhook request failed: %v", err))
		}
		code := resp.StatusCode()
		if code < 200 || code > 299 {
			msg := fmt.Sprintf("Webhook returned status: %d %s - Body: %s",
				code, fasthttp.StatusMessage(code), excerpt(resp.Body(), maxBodyExcerpt))
			return c.failed(url, msg)
		}
		c.logger.Info("webhook delivered", "url", url, "status_code", code)
		return Outcome{Status: models.WebhookSuccess}
	}
}

func (c *Client) failed(url, msg string) Outcome {
	c.logger.Warn("webhook delivery failed", "url", url, "error", msg)
	return Outcome{Status: models.WebhookError, Error: msg}
}

// excerpt returns at most n characters of b.
func excerpt(b []byte, n int) string {
	if utf8.RuneCount(b) <= n {
		return string(b)
	}
	runes := []rune(string(b))
	return string(runes[:n])
}
