package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is the label an operator carries on a specific assignment.
type Role string

const (
	RoleOperator  Role = "operator"
	RoleFreelance Role = "freelance"
)

// Assignment links an order with an operator or freelancer.
type Assignment struct {
	ID              int64
	OperatorID      int64
	OrderKey        string
	Role            Role
	AssignedAt      time.Time
	AdditionalCosts decimal.Decimal
}

// AssignmentRequest is one entry of a bulk assignment call.
type AssignmentRequest struct {
	OperatorID      int64
	OrderKey        string
	Role            Role
	AdditionalCosts decimal.Decimal
}

// AssignmentConflict is a per-operator rejection reported by a bulk call.
type AssignmentConflict struct {
	OperatorID int64
	Message    string
}
