// Package lifecycle holds the lock/unlock rules for capsules. Every caller,
// request path and background sweep alike, decides through these functions so
// that what the API discloses and what the sweep notifies never diverge.
package lifecycle

import (
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/server/models"
)

// IsOpenable reports whether now has reached the capsule's open date.
func IsOpenable(c *models.Capsule, now time.Time) bool {
	return !now.Before(c.OpenDate)
}

// ShouldNotify reports whether the capsule is openable and its owner has not
// been notified yet.
func ShouldNotify(c *models.Capsule, now time.Time) bool {
	return IsOpenable(c, now) && !c.NotificationSent
}

// ShouldDiscloseMedia reports whether media of the capsule may be returned.
func ShouldDiscloseMedia(c *models.Capsule, now time.Time) bool {
	return IsOpenable(c, now)
}

// TimeUntilOpen is the remaining lock time, zero once openable.
func TimeUntilOpen(c *models.Capsule, now time.Time) time.Duration {
	if IsOpenable(c, now) {
		return 0
	}
	return c.OpenDate.Sub(now)
}

// Progress is the elapsed fraction of the CreatedAt..OpenDate span in [0, 1].
func Progress(c *models.Capsule, now time.Time) float64 {
	if IsOpenable(c, now) {
		return 1
	}
	total := c.OpenDate.Sub(c.CreatedAt)
	if total <= 0 {
		return 1
	}
	elapsed := now.Sub(c.CreatedAt)
	if elapsed <= 0 {
		return 0
	}
	return float64(elapsed) / float64(total)
}
