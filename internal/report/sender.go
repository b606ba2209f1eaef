package report

import (
	"context"

	"github.com/rs/zerolog"
)

// Sender transmits a generated report to the configured recipient. The
// default implementation records the dispatch in the operator log and
// reports success; swapping in a real mail provider only needs this
// type replaced.
type Sender struct {
	recipient  string
	senderName string
	log        zerolog.Logger
}

func NewSender(recipient, senderName string, log zerolog.Logger) *Sender {
	return &Sender{recipient: recipient, senderName: senderName, log: log}
}

func (s *Sender) Transmit(ctx context.Context, content string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.log.Info().
		Str("recipient", s.recipient).
		Str("sender", s.senderName).
		Int("content_bytes", len(content)).
		Msg("monthly report dispatched")
	return true, nil
}

func (s *Sender) Recipient() string {
	return s.recipient
}
