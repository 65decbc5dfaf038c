package engine

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"github.com/SAP-F-2025/quiz-engine/internal/scorm"
	"github.com/SAP-F-2025/quiz-engine/internal/session"
	"github.com/SAP-F-2025/quiz-engine/internal/webhook"
)

type options struct {
	host        scorm.Host
	webhook     *webhook.Client
	clock       session.Clock
	ticker      session.TickerFunc
	rand        *rand.Rand
	logger      *slog.Logger
	ctx         context.Context
	studentName string
}

type Option func(*options)

// WithHost supplies the environment the LMS runtime is looked up in. Without
// it a quiz with SCORM settings reports no_api.
func WithHost(h scorm.Host) Option {
	return func(o *options) { o.host = h }
}

func WithWebhookClient(c *webhook.Client) Option {
	return func(o *options) { o.webhook = c }
}

func WithClock(c session.Clock) Option {
	return func(o *options) { o.clock = c }
}

func WithTicker(f session.TickerFunc) Option {
	return func(o *options) { o.ticker = f }
}

// WithRand seeds question shuffling.
func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.rand = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithContext is used for reporting triggered by the countdown running out.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// WithStudentName is reported when the LMS does not supply a learner name.
func WithStudentName(name string) Option {
	return func(o *options) { o.studentName = name }
}
