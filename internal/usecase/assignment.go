package usecase

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	domainErrors "github.com/GS-Pro2025/movewise/internal/domain/errors"
	"github.com/GS-Pro2025/movewise/internal/domain/model"
	"github.com/GS-Pro2025/movewise/internal/domain/repository"
)

// AssignmentService opens assignment sessions and serves standalone
// assignment operations.
type AssignmentService struct {
	gateway  AssignmentGateway
	images   ImageConverter
	pending  repository.PendingOrderRepository
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAssignmentService constructs AssignmentService.
func NewAssignmentService(gateway AssignmentGateway, images ImageConverter, factory repository.Factory, logger *slog.Logger) *AssignmentService {
	return &AssignmentService{
		gateway:  gateway,
		images:   images,
		pending:  factory.PendingOrders(),
		validate: newValidator(),
		logger:   logger,
	}
}

// Open starts an assignment session scoped to orderKey.
func (s *AssignmentService) Open(orderKey string, capability model.Capability) *AssignmentSession {
	return &AssignmentSession{
		svc:        s,
		orderKey:   orderKey,
		capability: capability,
		view:       model.AssignmentViewMain,
		assigned:   map[int64]struct{}{},
		selected:   map[int64]struct{}{},
		known:      map[int64]model.Operator{},
	}
}

// Assignments lists the operators assigned to key.
func (s *AssignmentService) Assignments(ctx context.Context, key string) ([]model.Assignment, error) {
	return s.gateway.OrderAssignments(ctx, key)
}

// DeleteAssignment removes one assignment; assignments are never edited in place.
func (s *AssignmentService) DeleteAssignment(ctx context.Context, id int64, n Notifier) error {
	n = notifierOrDiscard(n)
	if err := s.gateway.DeleteAssignment(ctx, id); err != nil {
		n.Notify(model.NotificationError, domainErrors.UserMessage(err, "Could not remove the assignment"))
		return err
	}
	n.Notify(model.NotificationSuccess, "Assignment removed")
	return nil
}

// AssignmentSession tracks the operator picker of one order.
type AssignmentSession struct {
	svc        *AssignmentService
	orderKey   string
	capability model.Capability

	mu         sync.Mutex
	view       model.AssignmentView
	assignedBy []model.Assignment
	assigned   map[int64]struct{}
	selected   map[int64]struct{}
	known      map[int64]model.Operator
	page       model.OperatorPage
	pageGen    uint64
}

// OrderKey returns the order the session assigns operators to.
func (s *AssignmentSession) OrderKey() string {
	return s.orderKey
}

// Refresh reloads the operators already assigned to the order. Assigned ids
// drop out of the selection.
func (s *AssignmentSession) Refresh(ctx context.Context) error {
	assignments, err := s.svc.gateway.OrderAssignments(ctx, s.orderKey)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignedBy = assignments
	s.assigned = make(map[int64]struct{}, len(assignments))
	for _, a := range assignments {
		s.assigned[a.OperatorID] = struct{}{}
		delete(s.selected, a.OperatorID)
	}
	return nil
}

// LoadOperators fetches one page of the operator list. Responses of
// superseded requests are discarded.
func (s *AssignmentSession) LoadOperators(ctx context.Context, page int, search string) (model.OperatorPage, error) {
	search = strings.TrimSpace(search)
	s.mu.Lock()
	s.pageGen++
	gen := s.pageGen
	s.mu.Unlock()

	result, err := s.svc.gateway.Operators(ctx, page, search)
	if err != nil {
		return model.OperatorPage{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range result.Results {
		s.known[op.ID] = op
	}
	if gen != s.pageGen {
		return s.page, nil
	}
	s.page = result
	return result, nil
}

// FindFreelancer looks a freelancer up by code and makes them selectable.
func (s *AssignmentSession) FindFreelancer(ctx context.Context, code string) (*model.Operator, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, &domainErrors.ValidationError{Fields: map[string]string{"code": CodeRequired}, Cause: errors.New("code is required")}
	}
	op, err := s.svc.gateway.FreelancerByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.known[op.ID] = *op
	return op, nil
}

// Toggle adds or removes operatorID from the selection and reports whether it
// is selected afterwards. Assigned operators cannot be selected.
func (s *AssignmentSession) Toggle(operatorID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assigned[operatorID]; ok {
		return false, domainErrors.ErrAlreadyAssigned
	}
	if _, ok := s.selected[operatorID]; ok {
		delete(s.selected, operatorID)
		return false, nil
	}
	if _, ok := s.known[operatorID]; !ok {
		return false, domainErrors.ErrUnknownOperator
	}
	s.selected[operatorID] = struct{}{}
	return true, nil
}

// SetView switches between the picker and inline freelancer creation.
func (s *AssignmentSession) SetView(view model.AssignmentView) error {
	if view != model.AssignmentViewMain && view != model.AssignmentViewCreate {
		return domainErrors.ErrValidation
	}
	s.mu.Lock()
	s.view = view
	s.mu.Unlock()
	return nil
}

// Snapshot returns the observable state of the session.
func (s *AssignmentSession) Snapshot() model.AssignmentSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	page := s.page
	page.Results = slices.Clone(s.page.Results)
	return model.AssignmentSnapshot{
		OrderKey:  s.orderKey,
		View:      s.view,
		Assigned:  slices.Clone(s.assignedBy),
		Selected:  s.selectedIDs(),
		Operators: page,
	}
}

func (s *AssignmentSession) selectedIDs() []int64 {
	ids := make([]int64, 0, len(s.selected))
	for id := range s.selected {
		if _, assigned := s.assigned[id]; !assigned {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Submit assigns every selected operator in one bulk call. The returned flag
// tells the parent flow whether it should close.
func (s *AssignmentSession) Submit(ctx context.Context, note string, n Notifier) (bool, error) {
	n = notifierOrDiscard(n)

	s.mu.Lock()
	ids := s.selectedIDs()
	requests := make([]model.AssignmentRequest, 0, len(ids))
	for _, id := range ids {
		requests = append(requests, model.AssignmentRequest{
			OperatorID: id,
			OrderKey:   s.orderKey,
			Role:       s.known[id].Role(),
		})
	}
	s.mu.Unlock()

	if len(requests) == 0 {
		n.Notify(model.NotificationError, domainErrors.ErrEmptySelection.Error())
		return false, domainErrors.ErrEmptySelection
	}

	costs, err := parseCosts(note)
	if err != nil {
		n.Notify(model.NotificationError, err.Error())
		return false, err
	}
	for i := range requests {
		requests[i].AdditionalCosts = costs
	}

	if err := s.svc.gateway.AssignBulk(ctx, requests); err != nil {
		n.Notify(model.NotificationError, domainErrors.UserMessage(err, "Could not assign operators"))
		var conflictErr *domainErrors.AssignmentConflictError
		if errors.As(err, &conflictErr) {
			if rerr := s.Refresh(ctx); rerr != nil {
				s.svc.logger.Warn("refresh after assignment conflict failed", slog.String("order", s.orderKey), slog.Any("error", rerr))
			}
		}
		return false, err
	}

	if err := s.Refresh(ctx); err != nil {
		s.svc.logger.Warn("refresh after assignment failed", slog.String("order", s.orderKey), slog.Any("error", err))
	}
	s.mu.Lock()
	s.selected = map[int64]struct{}{}
	s.view = model.AssignmentViewMain
	s.mu.Unlock()

	ledgerCtx := context.WithoutCancel(ctx)
	if err := s.svc.pending.UpdateState(ledgerCtx, s.orderKey, model.PendingStateAssigned, ""); err != nil && !errors.Is(err, domainErrors.ErrNotFound) {
		s.svc.logger.Error("failed to mark order assigned", slog.String("order", s.orderKey), slog.Any("error", err))
	}

	n.Notify(model.NotificationSuccess, "Operators assigned")
	return s.capability.IsAdmin, nil
}

func parseCosts(note string) (decimal.Decimal, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return decimal.Zero, nil
	}
	costs, err := decimal.NewFromString(note)
	if err != nil || costs.IsNegative() {
		return decimal.Zero, &domainErrors.ValidationError{
			Fields: map[string]string{"additional_costs": CodeInvalidNumber},
			Cause:  errors.New("additional costs must be a non-negative number"),
		}
	}
	return costs, nil
}

type freelancerRules struct {
	Code      string `json:"code" validate:"required"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Salary    string `json:"salary" validate:"omitempty,nonneg_decimal"`
}

// CreateFreelancer registers a freelancer inline, reloads the first operator
// page and returns to the picker. The new freelancer is not selected.
func (s *AssignmentSession) CreateFreelancer(ctx context.Context, form model.FreelancerForm, n Notifier) (*model.Operator, error) {
	n = notifierOrDiscard(n)

	rules := freelancerRules{
		Code:      strings.TrimSpace(form.Code),
		FirstName: strings.TrimSpace(form.FirstName),
		LastName:  strings.TrimSpace(form.LastName),
		Email:     strings.TrimSpace(form.Email),
		Salary:    strings.TrimSpace(form.Salary),
	}
	if fields := fieldErrors(s.svc.validate.Struct(rules)); len(fields) > 0 {
		err := &domainErrors.ValidationError{Fields: fields, Cause: domainErrors.ErrValidation}
		n.Notify(model.NotificationError, "Please complete the freelancer form")
		return nil, err
	}

	salary := decimal.Zero
	if rules.Salary != "" {
		salary = decimal.RequireFromString(rules.Salary)
	}
	payload := model.FreelancerPayload{
		Code:      rules.Code,
		FirstName: rules.FirstName,
		LastName:  rules.LastName,
		IDType:    strings.TrimSpace(form.IDType),
		IDNumber:  strings.TrimSpace(form.IDNumber),
		Phone:     strings.TrimSpace(form.Phone),
		Email:     rules.Email,
		Salary:    salary,
	}
	var err error
	if payload.Photo, err = s.encodeImage(form.Photo); err != nil {
		n.Notify(model.NotificationError, "Photo could not be read")
		return nil, err
	}
	if payload.License, err = s.encodeImage(form.License); err != nil {
		n.Notify(model.NotificationError, "License could not be read")
		return nil, err
	}

	created, err := s.svc.gateway.CreateFreelancer(ctx, payload)
	if err != nil {
		n.Notify(model.NotificationError, domainErrors.UserMessage(err, "Could not create the freelancer"))
		return nil, err
	}
	n.Notify(model.NotificationSuccess, "Freelancer created")

	if _, err := s.LoadOperators(ctx, 1, ""); err != nil {
		s.svc.logger.Warn("reload operators after freelancer creation failed", slog.Any("error", err))
	}
	s.mu.Lock()
	s.view = model.AssignmentViewMain
	s.mu.Unlock()
	return created, nil
}

func (s *AssignmentSession) encodeImage(img *model.Image) (string, error) {
	if img == nil || img.URI == "" {
		return "", nil
	}
	return s.svc.images.DataURI(*img)
}
