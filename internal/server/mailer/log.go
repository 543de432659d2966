package mailer

import (
	"context"

	"github.com/dmitrijs2005/timecapsule/internal/logging"
)

// LogTransport writes messages to the log instead of sending them. Used when
// no SMTP host is configured.
type LogTransport struct {
	log logging.Logger
}

func NewLogTransport(log logging.Logger) *LogTransport {
	return &LogTransport{log: log.With("module", "mailer", "transport", "log")}
}

func (t *LogTransport) Send(ctx context.Context, msg Message) error {
	t.log.Info(ctx, "mail not sent, smtp disabled",
		"from", msg.From,
		"to", msg.To,
		"subject", msg.Subject,
		"text", msg.TextBody,
	)
	return nil
}
