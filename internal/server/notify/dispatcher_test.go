package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/timecapsule/internal/logging"
	"github.com/dmitrijs2005/timecapsule/internal/server/mailer"
	"github.com/dmitrijs2005/timecapsule/internal/server/models"
)

type fakeTransport struct {
	sent  []mailer.Message
	err   error
	panic bool
}

func (f *fakeTransport) Send(_ context.Context, msg mailer.Message) error {
	if f.panic {
		panic("smtp exploded")
	}
	f.sent = append(f.sent, msg)
	return f.err
}

func fixtures() (*models.User, *models.Capsule) {
	u := &models.User{ID: "u1", Email: "ann@example.com", Name: "Ann", EmailNotifications: true}
	c := &models.Capsule{
		ID:        "c1",
		UserID:    "u1",
		Title:     "Graduation <2025>",
		OpenDate:  time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC),
	}
	return u, c
}

func newDispatcher(tr mailer.Transport) *Dispatcher {
	return NewDispatcher(tr, "TimeCapsule <noreply@timecapsule.app>", "http://localhost:3000", logging.Nop())
}

func TestDispatch_Delivered(t *testing.T) {
	tr := &fakeTransport{}
	u, c := fixtures()

	out := newDispatcher(tr).Dispatch(context.Background(), u, c)

	require.Equal(t, Delivered, out)
	require.Len(t, tr.sent, 1)
	msg := tr.sent[0]
	assert.Equal(t, "ann@example.com", msg.To)
	assert.Equal(t, "TimeCapsule <noreply@timecapsule.app>", msg.From)
	assert.Equal(t, `Your Time Capsule "Graduation <2025>" is Now Available!`, msg.Subject)
	assert.Contains(t, msg.HTMLBody, "Hello Ann,")
	assert.Contains(t, msg.HTMLBody, "Graduation &lt;2025&gt;")
	assert.Contains(t, msg.HTMLBody, `href="http://localhost:3000/capsule/c1"`)
	assert.Contains(t, msg.HTMLBody, "June 1, 2025")
	assert.Contains(t, msg.TextBody, "http://localhost:3000/capsule/c1")
	assert.Contains(t, msg.TextBody, `"Graduation <2025>"`)
}

func TestDispatch_SkippedByPreference(t *testing.T) {
	tr := &fakeTransport{}
	u, c := fixtures()
	u.EmailNotifications = false

	out := newDispatcher(tr).Dispatch(context.Background(), u, c)

	assert.Equal(t, SkippedByPreference, out)
	assert.Empty(t, tr.sent)
}

func TestDispatch_TransportError(t *testing.T) {
	tr := &fakeTransport{err: errors.New("connection refused")}
	u, c := fixtures()

	out := newDispatcher(tr).Dispatch(context.Background(), u, c)

	assert.Equal(t, DeliveryFailed, out)
}

func TestDispatch_TransportPanicIsContained(t *testing.T) {
	tr := &fakeTransport{panic: true}
	u, c := fixtures()

	var out Outcome
	require.NotPanics(t, func() {
		out = newDispatcher(tr).Dispatch(context.Background(), u, c)
	})
	assert.Equal(t, DeliveryFailed, out)
}

func TestDispatch_BadAddressNeverReachesTransport(t *testing.T) {
	for _, addr := range []string{"", "   ", "not-an-email"} {
		tr := &fakeTransport{}
		u, c := fixtures()
		u.Email = addr

		out := newDispatcher(tr).Dispatch(context.Background(), u, c)

		assert.Equal(t, DeliveryFailed, out, addr)
		assert.Empty(t, tr.sent, addr)
	}
}

func TestDispatch_BadFrontendURL(t *testing.T) {
	tr := &fakeTransport{}
	u, c := fixtures()

	out := NewDispatcher(tr, "a@b.c", "not a url", logging.Nop()).Dispatch(context.Background(), u, c)

	assert.Equal(t, DeliveryFailed, out)
	assert.Empty(t, tr.sent)
}

func TestOutcome(t *testing.T) {
	assert.True(t, Delivered.MarksNotified())
	assert.True(t, SkippedByPreference.MarksNotified())
	assert.False(t, DeliveryFailed.MarksNotified())

	assert.Equal(t, "delivered", Delivered.String())
	assert.Equal(t, "skipped", SkippedByPreference.String())
	assert.Equal(t, "failed", DeliveryFailed.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
