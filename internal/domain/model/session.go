package model

import "time"

// Capability gates privileged actions.
type Capability struct {
	IsAdmin bool
}

// Session mirrors the persisted user session: currentUser, userToken and isAdmin.
type Session struct {
	ID        string
	User      string
	Token     string
	IsAdmin   bool
	CreatedAt time.Time
}

// Capability returns the authorization flags of the session.
func (s Session) Capability() Capability {
	return Capability{IsAdmin: s.IsAdmin}
}

// NotificationLevel classifies user-facing notices.
type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationInfo    NotificationLevel = "info"
	NotificationError   NotificationLevel = "error"
)

// Notification is a transient toast shown to the user.
type Notification struct {
	Level   NotificationLevel
	Message string
}
