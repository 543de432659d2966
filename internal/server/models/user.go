package models

// User is the account record owned by the authentication service. This
// server only reads it to address notifications.
type User struct {
	ID                 string
	Email              string
	Name               string
	EmailNotifications bool
}
