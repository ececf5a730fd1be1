package model

// FlowKind distinguishes creation flows from edit flows.
type FlowKind string

const (
	FlowCreation FlowKind = "creation"
	FlowEdit     FlowKind = "edit"
)

// AssignmentView is the visible pane of an assignment session.
type AssignmentView string

const (
	AssignmentViewMain   AssignmentView = "main"
	AssignmentViewCreate AssignmentView = "create"
)

// AssignmentSnapshot is the observable state of an assignment session.
type AssignmentSnapshot struct {
	OrderKey  string
	View      AssignmentView
	Assigned  []Assignment
	Selected  []int64
	Operators OperatorPage
}

// FlowView is the observable state of a server-held screen flow.
type FlowView struct {
	ID         string
	Kind       FlowKind
	Variant    Variant
	Draft      OrderDraft
	Location   LocationSnapshot
	PendingKey string
	OrderKey   string
	Assignment *AssignmentSnapshot
	Busy       bool
}
