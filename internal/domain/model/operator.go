package model

import "github.com/shopspring/decimal"

// OperatorStatus distinguishes employed operators from ad-hoc freelancers.
type OperatorStatus string

const (
	OperatorStatusActive    OperatorStatus = "active"
	OperatorStatusFreelance OperatorStatus = "freelance"
)

// Operator is a worker record; freelancers share the same shape.
type Operator struct {
	ID        int64
	Code      string
	FirstName string
	LastName  string
	IDType    string
	IDNumber  string
	Phone     string
	Email     string
	Salary    decimal.Decimal
	Status    OperatorStatus
	Photo     *Image
	License   *Image
}

// Role derives the assignment role from the operator status.
func (o Operator) Role() Role {
	if o.Status == OperatorStatusActive {
		return RoleOperator
	}
	return RoleFreelance
}

// OperatorPage is one page of the operator listing.
type OperatorPage struct {
	Page    int
	Search  string
	Results []Operator
	Next    string
}

// HasNext reports whether another page is available.
func (p OperatorPage) HasNext() bool {
	return p.Next != ""
}

// FreelancerForm collects the attributes of an inline freelancer.
type FreelancerForm struct {
	Code      string
	FirstName string
	LastName  string
	IDType    string
	IDNumber  string
	Phone     string
	Email     string
	Salary    string
	Photo     *Image
	License   *Image
}

// FreelancerPayload is the wire-ready freelancer form; images are data URIs.
type FreelancerPayload struct {
	Code      string
	FirstName string
	LastName  string
	IDType    string
	IDNumber  string
	Phone     string
	Email     string
	Salary    decimal.Decimal
	Photo     string
	License   string
}
