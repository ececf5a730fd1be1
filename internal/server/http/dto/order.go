package dto

import "time"

// EditRequest opens an edit flow.
type EditRequest struct {
	Variant string `json:"variant"`
}

// AssignmentResponse describes an operator assigned to an order.
type AssignmentResponse struct {
	ID              int64     `json:"id_assign"`
	OperatorID      int64     `json:"operator"`
	OrderKey        string    `json:"order"`
	Role            string    `json:"rol"`
	AssignedAt      time.Time `json:"assigned_at"`
	AdditionalCosts string    `json:"additional_costs"`
}
