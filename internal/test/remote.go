package test

import (
	"context"
	"strconv"
	"sync"

	"github.com/GS-Pro2025/movewise/internal/domain/model"
)

// StatusCall records a SetOrderStatus invocation.
type StatusCall struct {
	Token    string
	Key      string
	Status   model.OrderStatus
	Evidence *model.Upload
}

// OrderGatewayStub records order calls and delegates to optional overrides.
type OrderGatewayStub struct {
	CreateFn func(context.Context, model.Variant, model.OrderPayload) (string, error)
	GetFn    func(context.Context, string) (*model.Order, error)
	UpdateFn func(context.Context, string, model.OrderPayload) error
	DeleteFn func(context.Context, string) error
	StatusFn func(context.Context, string, string, model.OrderStatus, *model.Upload) error

	mu       sync.Mutex
	Created  []model.OrderPayload
	Variants []model.Variant
	Updated  []model.OrderPayload
	Deleted  []string
	Statuses []StatusCall
}

// CreateOrder returns "ORD-<n>" by default.
func (s *OrderGatewayStub) CreateOrder(ctx context.Context, variant model.Variant, payload model.OrderPayload) (string, error) {
	s.mu.Lock()
	s.Created = append(s.Created, payload)
	s.Variants = append(s.Variants, variant)
	n := len(s.Created)
	s.mu.Unlock()
	if s.CreateFn != nil {
		return s.CreateFn(ctx, variant, payload)
	}
	return "ORD-" + strconv.Itoa(n), nil
}

// GetOrder returns a pending order by default.
func (s *OrderGatewayStub) GetOrder(ctx context.Context, key string) (*model.Order, error) {
	if s.GetFn != nil {
		return s.GetFn(ctx, key)
	}
	return &model.Order{Key: key, Status: model.OrderStatusPending}, nil
}

// UpdateOrder records the payload.
func (s *OrderGatewayStub) UpdateOrder(ctx context.Context, key string, payload model.OrderPayload) error {
	s.mu.Lock()
	s.Updated = append(s.Updated, payload)
	s.mu.Unlock()
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, key, payload)
	}
	return nil
}

// DeleteOrder records the key.
func (s *OrderGatewayStub) DeleteOrder(ctx context.Context, key string) error {
	s.mu.Lock()
	s.Deleted = append(s.Deleted, key)
	s.mu.Unlock()
	if s.DeleteFn != nil {
		return s.DeleteFn(ctx, key)
	}
	return nil
}

// SetOrderStatus records the call.
func (s *OrderGatewayStub) SetOrderStatus(ctx context.Context, token, key string, status model.OrderStatus, evidence *model.Upload) error {
	s.mu.Lock()
	s.Statuses = append(s.Statuses, StatusCall{Token: token, Key: key, Status: status, Evidence: evidence})
	s.mu.Unlock()
	if s.StatusFn != nil {
		return s.StatusFn(ctx, token, key, status, evidence)
	}
	return nil
}

// DeleteCount returns the number of DeleteOrder calls.
func (s *OrderGatewayStub) DeleteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Deleted)
}

// StatusCount returns the number of SetOrderStatus calls.
func (s *OrderGatewayStub) StatusCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Statuses)
}

// AssignmentGatewayStub serves operators and assignments from memory.
type AssignmentGatewayStub struct {
	Roster        []model.Operator
	Assigned      map[string][]model.Assignment
	AssignFn      func(context.Context, []model.AssignmentRequest) error
	AssignmentsFn func(context.Context, string) ([]model.Assignment, error)
	OperatorsFn   func(context.Context, int, string) (model.OperatorPage, error)
	FreelancerFn  func(context.Context, string) (*model.Operator, error)
	CreateFn      func(context.Context, model.FreelancerPayload) (*model.Operator, error)
	DeleteFn      func(context.Context, int64) error

	mu          sync.Mutex
	Bulk        [][]model.AssignmentRequest
	Freelancers []model.FreelancerPayload
	DeletedIDs  []int64
}

// AssignBulk records the batch.
func (s *AssignmentGatewayStub) AssignBulk(ctx context.Context, requests []model.AssignmentRequest) error {
	s.mu.Lock()
	s.Bulk = append(s.Bulk, append([]model.AssignmentRequest(nil), requests...))
	s.mu.Unlock()
	if s.AssignFn != nil {
		return s.AssignFn(ctx, requests)
	}
	return nil
}

// OrderAssignments returns the configured assignments for key.
func (s *AssignmentGatewayStub) OrderAssignments(ctx context.Context, key string) ([]model.Assignment, error) {
	if s.AssignmentsFn != nil {
		return s.AssignmentsFn(ctx, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Assignment(nil), s.Assigned[key]...), nil
}

// DeleteAssignment records the id.
func (s *AssignmentGatewayStub) DeleteAssignment(ctx context.Context, id int64) error {
	s.mu.Lock()
	s.DeletedIDs = append(s.DeletedIDs, id)
	s.mu.Unlock()
	if s.DeleteFn != nil {
		return s.DeleteFn(ctx, id)
	}
	return nil
}

// Operators returns every configured operator on a single page.
func (s *AssignmentGatewayStub) Operators(ctx context.Context, page int, search string) (model.OperatorPage, error) {
	if s.OperatorsFn != nil {
		return s.OperatorsFn(ctx, page, search)
	}
	return model.OperatorPage{Page: page, Search: search, Results: append([]model.Operator(nil), s.Roster...)}, nil
}

// FreelancerByCode searches the configured operators by code.
func (s *AssignmentGatewayStub) FreelancerByCode(ctx context.Context, code string) (*model.Operator, error) {
	if s.FreelancerFn != nil {
		return s.FreelancerFn(ctx, code)
	}
	for _, op := range s.Roster {
		if op.Code == code {
			found := op
			return &found, nil
		}
	}
	return nil, errNotFound
}

// CreateFreelancer records the payload and returns a freelancer with id 1000+n.
func (s *AssignmentGatewayStub) CreateFreelancer(ctx context.Context, payload model.FreelancerPayload) (*model.Operator, error) {
	s.mu.Lock()
	s.Freelancers = append(s.Freelancers, payload)
	n := len(s.Freelancers)
	s.mu.Unlock()
	if s.CreateFn != nil {
		return s.CreateFn(ctx, payload)
	}
	return &model.Operator{ID: int64(1000 + n), Code: payload.Code, FirstName: payload.FirstName, Status: model.OperatorStatusFreelance}, nil
}

// BulkCalls returns the recorded batches.
func (s *AssignmentGatewayStub) BulkCalls() [][]model.AssignmentRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]model.AssignmentRequest(nil), s.Bulk...)
}

// LocationDirectoryStub answers location lookups from a static tree.
type LocationDirectoryStub struct {
	Countries []string
	States    map[string][]string
	Cities    map[string][]string
	Fn        func(context.Context, model.LocationQuery) ([]string, error)

	mu      sync.Mutex
	Queries []model.LocationQuery
}

// Locations resolves query; cities are keyed by "country/state".
func (s *LocationDirectoryStub) Locations(ctx context.Context, query model.LocationQuery) ([]string, error) {
	s.mu.Lock()
	s.Queries = append(s.Queries, query)
	s.mu.Unlock()
	if s.Fn != nil {
		return s.Fn(ctx, query)
	}
	switch query.Level {
	case model.LocationCountry:
		return s.Countries, nil
	case model.LocationState:
		return s.States[query.Country], nil
	default:
		return s.Cities[query.Country+"/"+query.State], nil
	}
}

// ImageConverterStub converts images without touching the filesystem.
type ImageConverterStub struct {
	ProbeFn   func(model.Image) (model.Image, error)
	DataURIFn func(model.Image) (string, error)
	UploadFn  func(model.Image) (*model.Upload, error)
}

// Probe returns the image unchanged by default.
func (s ImageConverterStub) Probe(img model.Image) (model.Image, error) {
	if s.ProbeFn != nil {
		return s.ProbeFn(img)
	}
	return img, nil
}

// DataURI returns "data:<type>;base64,<uri>" by default.
func (s ImageConverterStub) DataURI(img model.Image) (string, error) {
	if s.DataURIFn != nil {
		return s.DataURIFn(img)
	}
	return "data:" + img.Type + ";base64," + img.URI, nil
}

// Upload returns the URI bytes as content by default.
func (s ImageConverterStub) Upload(img model.Image) (*model.Upload, error) {
	if s.UploadFn != nil {
		return s.UploadFn(img)
	}
	return &model.Upload{Name: img.Name, Type: img.Type, Data: []byte(img.URI)}, nil
}
