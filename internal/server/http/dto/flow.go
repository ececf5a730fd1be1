package dto

// OpenFlowRequest selects the order variant of a new flow.
type OpenFlowRequest struct {
	Variant string `json:"variant"`
}

// DraftRequest carries the free-text fields of an order form.
type DraftRequest struct {
	Date      string `json:"date"`
	Key       string `json:"key"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	Weight    string `json:"weight"`
	Job       int64  `json:"job"`
	Company   int64  `json:"company"`
}

// ImageRequest is a picked image descriptor.
type ImageRequest struct {
	URI      string `json:"uri" binding:"required"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	FileSize int64  `json:"fileSize"`
}

// LocationRequest is a user-driven selection on one cascade level.
type LocationRequest struct {
	Level string `json:"level" binding:"required"`
	Value string `json:"value"`
}

// SelectionRequest toggles one operator.
type SelectionRequest struct {
	OperatorID int64 `json:"operator_id" binding:"required"`
}

// AssignRequest submits the current selection.
type AssignRequest struct {
	AdditionalCosts string `json:"additional_costs"`
}

// CreateModeRequest switches the assignment pane.
type CreateModeRequest struct {
	Enabled bool `json:"enabled"`
}

// FreelancerRequest describes an inline freelancer.
type FreelancerRequest struct {
	Code      string        `json:"code"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	IDType    string        `json:"type_id"`
	IDNumber  string        `json:"id_number"`
	Phone     string        `json:"phone"`
	Email     string        `json:"email"`
	Salary    string        `json:"salary"`
	Photo     *ImageRequest `json:"photo"`
	License   *ImageRequest `json:"license_front"`
}

// ImageResponse is an attached image.
type ImageResponse struct {
	URI      string `json:"uri"`
	Name     string `json:"name,omitempty"`
	Type     string `json:"type,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`
}

// DraftResponse is the current form state.
type DraftResponse struct {
	Variant        string         `json:"variant"`
	Country        string         `json:"country"`
	State          string         `json:"state"`
	City           string         `json:"city"`
	Date           string         `json:"date"`
	Key            string         `json:"key"`
	FirstName      string         `json:"firstName"`
	LastName       string         `json:"lastName"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone"`
	Address        string         `json:"address"`
	Weight         string         `json:"weight"`
	Job            int64          `json:"job"`
	Company        int64          `json:"company"`
	DispatchTicket *ImageResponse `json:"dispatchTicket,omitempty"`
}

// LevelResponse is one location selector.
type LevelResponse struct {
	Value    string   `json:"value"`
	Options  []string `json:"options"`
	Loading  bool     `json:"loading"`
	Disabled bool     `json:"disabled"`
	Error    string   `json:"error,omitempty"`
}

// LocationResponse is the location cascade.
type LocationResponse struct {
	Country LevelResponse `json:"country"`
	State   LevelResponse `json:"state"`
	City    LevelResponse `json:"city"`
}

// OperatorResponse describes an operator or freelancer.
type OperatorResponse struct {
	ID        int64  `json:"id_operator"`
	Code      string `json:"code"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Status    string `json:"status"`
	Role      string `json:"role"`
	Salary    string `json:"salary,omitempty"`
}

// OperatorPageResponse is one page of the operator list.
type OperatorPageResponse struct {
	Page    int                `json:"page"`
	Search  string             `json:"search,omitempty"`
	Results []OperatorResponse `json:"results"`
	HasNext bool               `json:"has_next"`
}

// AssignmentSessionResponse is the assignment pane state.
type AssignmentSessionResponse struct {
	OrderKey  string               `json:"order"`
	View      string               `json:"view"`
	Assigned  []AssignmentResponse `json:"assigned"`
	Selected  []int64              `json:"selected"`
	Operators OperatorPageResponse `json:"operators"`
}

// FlowResponse is the observable state of a flow.
type FlowResponse struct {
	ID         string                     `json:"id"`
	Kind       string                     `json:"kind"`
	Variant    string                     `json:"variant"`
	Draft      DraftResponse              `json:"draft"`
	Location   LocationResponse           `json:"location"`
	PendingKey string                     `json:"pending_order,omitempty"`
	OrderKey   string                     `json:"order,omitempty"`
	Assignment *AssignmentSessionResponse `json:"assignment,omitempty"`
	Busy       bool                       `json:"busy"`
	Closed     bool                       `json:"closed,omitempty"`
}
