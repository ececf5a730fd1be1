package model

import "strings"

// OrderStatus describes the dispatch lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusInProgress OrderStatus = "In Progress"
	OrderStatusFinished   OrderStatus = "Finished"
	OrderStatusInactive   OrderStatus = "Inactive"
)

// ParseOrderStatus normalizes status values reported by the remote API.
func ParseOrderStatus(raw string) OrderStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return OrderStatusPending
	case "in progress", "in_progress", "inprogress":
		return OrderStatusInProgress
	case "finished":
		return OrderStatusFinished
	case "inactive":
		return OrderStatusInactive
	default:
		return OrderStatus(raw)
	}
}

// APIValue returns the lowercase form expected by the status endpoint.
func (s OrderStatus) APIValue() string {
	return strings.ToLower(string(s))
}

// Variant selects which order subtype a lifecycle operates on.
type Variant string

const (
	VariantStandard  Variant = "standard"
	VariantWorkhouse Variant = "workhouse"
)

// IsValid reports whether variant is known.
func (v Variant) IsValid() bool {
	return v == VariantStandard || v == VariantWorkhouse
}

// Contact is the customer contact person of an order.
type Contact struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
}

// Order describes a dispatch job as exposed by the remote API.
type Order struct {
	Key            string
	Reference      string
	Status         OrderStatus
	Variant        Variant
	Date           string
	Weight         string
	JobID          int64
	CompanyID      int64
	Location       string
	Contact        Contact
	DispatchTicket *Image
	Evidence       *Image
}

// OrderDraft holds the editable fields of an order form.
type OrderDraft struct {
	Variant        Variant
	Country        string
	State          string
	City           string
	Date           string
	Reference      string
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Address        string
	Weight         string
	JobID          int64
	CompanyID      int64
	DispatchTicket *Image
}

// Reset clears every field except the variant.
func (d *OrderDraft) Reset() {
	*d = OrderDraft{Variant: d.Variant}
}

// OrderPayload is the wire-ready body for order creation and edits.
// DispatchTicket is always a data URI or a remote URL.
type OrderPayload struct {
	Reference      string
	Date           string
	Weight         string
	JobID          int64
	CompanyID      int64
	Location       string
	Contact        Contact
	DispatchTicket string
}
