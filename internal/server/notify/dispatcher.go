// Package notify turns a due capsule into an email for its owner.
package notify

import (
	"context"
	"fmt"
	netmail "net/mail"
	"strings"

	"github.com/dmitrijs2005/timecapsule/internal/logging"
	"github.com/dmitrijs2005/timecapsule/internal/netx"
	"github.com/dmitrijs2005/timecapsule/internal/server/mailer"
	"github.com/dmitrijs2005/timecapsule/internal/server/models"
)

type Dispatcher struct {
	transport   mailer.Transport
	from        string
	frontendURL string
	log         logging.Logger
}

func NewDispatcher(transport mailer.Transport, from, frontendURL string, log logging.Logger) *Dispatcher {
	return &Dispatcher{
		transport:   transport,
		from:        from,
		frontendURL: frontendURL,
		log:         log.With("module", "notify"),
	}
}

// Dispatch notifies the owner of c. It never returns an error and never
// panics; every problem is folded into DeliveryFailed.
func (d *Dispatcher) Dispatch(ctx context.Context, user *models.User, c *models.Capsule) (out Outcome) {
	log := d.log.With("capsule_id", c.ID, "user_id", user.ID)

	defer func() {
		if r := recover(); r != nil {
			log.Error(ctx, "notification panicked", "panic", r)
			out = DeliveryFailed
		}
	}()

	if !user.EmailNotifications {
		log.Info(ctx, "user has disabled email notifications")
		return SkippedByPreference
	}

	msg, err := d.compose(user, c)
	if err != nil {
		log.Error(ctx, "cannot compose notification", "error", err)
		return DeliveryFailed
	}

	if err := d.transport.Send(ctx, msg); err != nil {
		log.Error(ctx, "email notification failed", "error", err)
		return DeliveryFailed
	}

	log.Info(ctx, "notification sent", "to", user.Email)
	return Delivered
}

func (d *Dispatcher) compose(user *models.User, c *models.Capsule) (mailer.Message, error) {
	to := strings.TrimSpace(user.Email)
	if to == "" {
		return mailer.Message{}, fmt.Errorf("user has no email address")
	}
	if _, err := netmail.ParseAddress(to); err != nil {
		return mailer.Message{}, fmt.Errorf("invalid email address: %w", err)
	}

	link, err := netx.JoinURL(d.frontendURL, "capsule", c.ID)
	if err != nil {
		return mailer.Message{}, err
	}

	html, text, err := render(emailData{
		Name:    user.Name,
		Title:   c.Title,
		Created: c.CreatedAt.UTC().Format(createdDateLayout),
		Link:    link,
	})
	if err != nil {
		return mailer.Message{}, fmt.Errorf("render: %w", err)
	}

	return mailer.Message{
		From:     d.from,
		To:       to,
		Subject:  fmt.Sprintf(subjectFormat, c.Title),
		HTMLBody: html,
		TextBody: text,
	}, nil
}
