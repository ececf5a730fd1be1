package model

import "time"

// PendingState tracks a freshly created order until it is assigned or compensated.
type PendingState string

const (
	PendingStateAwaiting     PendingState = "pending"
	PendingStateAssigned     PendingState = "assigned"
	PendingStateCompensating PendingState = "compensating"
	PendingStateCompensated  PendingState = "compensated"
	PendingStateOrphaned     PendingState = "orphaned"
)

// PendingOrder is a ledger row for an order awaiting assignment.
type PendingOrder struct {
	Key           string
	Variant       Variant
	FlowID        string
	State         PendingState
	Attempts      int
	LastError     string
	NextAttemptAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
