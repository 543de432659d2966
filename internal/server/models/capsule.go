// Package models defines server-side data models persisted in the database.
package models

import "time"

// Capsule is a user's bundle of title, message and media locked until OpenDate.
//
// HasImages, HasVideos and HasMessage are computed once when the capsule is
// created and never re-derived. NotificationSent only ever moves false -> true.
type Capsule struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user"`
	Title            string    `json:"title"`
	Message          string    `json:"message"`
	OpenDate         time.Time `json:"openDate"`
	HasImages        bool      `json:"hasImages"`
	HasVideos        bool      `json:"hasVideos"`
	HasMessage       bool      `json:"hasMessage"`
	NotificationSent bool      `json:"notificationSent"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
