// Package mailer delivers rendered notification emails.
package mailer

import (
	"context"
)

type Message struct {
	From     string
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

type Transport interface {
	Send(ctx context.Context, msg Message) error
}
