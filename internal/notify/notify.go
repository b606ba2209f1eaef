package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Sink is the fire-and-forget alert channel. Send must never fail the
// caller: delivery problems are swallowed by the implementation.
type Sink interface {
	RequestAuthorization(ctx context.Context) bool
	Send(title, body string)
}

// LogSink writes alerts to the operator log. It stands in for a real
// push channel and is always authorized.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) RequestAuthorization(_ context.Context) bool {
	return true
}

func (s *LogSink) Send(title, body string) {
	s.log.Info().
		Str("title", title).
		Str("body", body).
		Msg("notification")
}
