// Package facadestub provides a DispatchFacade stub for HTTP layer tests.
package facadestub

import (
	"context"

	"github.com/GS-Pro2025/movewise/internal/domain/model"
	"github.com/GS-Pro2025/movewise/internal/test"
	"github.com/GS-Pro2025/movewise/internal/usecase"
)

// DispatchFacadeStub provides controllable behaviour for HTTP handlers.
// Every nil override falls back to a successful default.
type DispatchFacadeStub struct {
	test.SessionResolverStub

	LoginFn  func(context.Context, string, string) (*model.Session, string, error)
	LogoutFn func(context.Context, *model.Session) error
	HealthFn func(context.Context) error

	OpenOrderFlowFn     func(context.Context, *model.Session, model.Variant) (model.FlowView, error)
	FlowFn              func(context.Context, *model.Session, string) (model.FlowView, error)
	UpdateDraftFn       func(context.Context, *model.Session, string, model.OrderDraft) (model.FlowView, map[string]string, error)
	AttachTicketFn      func(context.Context, *model.Session, string, model.Image) (model.FlowView, error)
	SelectLocationFn    func(context.Context, *model.Session, string, model.LocationLevel, string) (model.FlowView, error)
	SubmitOrderFn       func(context.Context, *model.Session, string, usecase.Notifier) (model.FlowView, error)
	OperatorsFn         func(context.Context, *model.Session, string, int, string) (model.OperatorPage, error)
	FindFreelancerFn    func(context.Context, *model.Session, string, string) (*model.Operator, error)
	ToggleOperatorFn    func(context.Context, *model.Session, string, int64) (model.FlowView, error)
	SetAssignmentViewFn func(context.Context, *model.Session, string, model.AssignmentView) (model.FlowView, error)
	AssignFn            func(context.Context, *model.Session, string, string, usecase.Notifier) (model.FlowView, bool, error)
	CreateFreelancerFn  func(context.Context, *model.Session, string, model.FreelancerForm, usecase.Notifier) (model.FlowView, *model.Operator, error)
	CloseFlowFn         func(context.Context, *model.Session, string, usecase.Notifier) error
	OpenEditFlowFn      func(context.Context, *model.Session, string, model.Variant) (model.FlowView, error)
	SaveEditFn          func(context.Context, *model.Session, string, usecase.Notifier) (model.FlowView, error)

	CompleteOrderFn    func(context.Context, *model.Session, string, *model.Image, usecase.Notifier) error
	DeleteOrderFn      func(context.Context, *model.Session, string, model.Variant, usecase.Notifier) error
	AssignmentsFn      func(context.Context, string) ([]model.Assignment, error)
	DeleteAssignmentFn func(context.Context, int64, usecase.Notifier) error
}

func stubView(id string) model.FlowView {
	return model.FlowView{ID: id, Kind: model.FlowCreation, Variant: model.VariantWorkhouse, Draft: model.OrderDraft{Variant: model.VariantWorkhouse}}
}

func (s DispatchFacadeStub) Login(ctx context.Context, username, password string) (*model.Session, string, error) {
	if s.LoginFn != nil {
		return s.LoginFn(ctx, username, password)
	}
	return &model.Session{ID: "session-1", User: username, Token: "api-token"}, "token-session-1", nil
}

func (s DispatchFacadeStub) Logout(ctx context.Context, session *model.Session) error {
	if s.LogoutFn != nil {
		return s.LogoutFn(ctx, session)
	}
	return nil
}

func (s DispatchFacadeStub) Health(ctx context.Context) error {
	if s.HealthFn != nil {
		return s.HealthFn(ctx)
	}
	return nil
}

func (s DispatchFacadeStub) OpenOrderFlow(ctx context.Context, session *model.Session, variant model.Variant) (model.FlowView, error) {
	if s.OpenOrderFlowFn != nil {
		return s.OpenOrderFlowFn(ctx, session, variant)
	}
	return stubView("flow-1"), nil
}

func (s DispatchFacadeStub) Flow(ctx context.Context, session *model.Session, id string) (model.FlowView, error) {
	if s.FlowFn != nil {
		return s.FlowFn(ctx, session, id)
	}
	return stubView(id), nil
}

func (s DispatchFacadeStub) UpdateDraft(ctx context.Context, session *model.Session, id string, patch model.OrderDraft) (model.FlowView, map[string]string, error) {
	if s.UpdateDraftFn != nil {
		return s.UpdateDraftFn(ctx, session, id, patch)
	}
	view := stubView(id)
	patch.Variant = view.Variant
	view.Draft = patch
	return view, nil, nil
}

func (s DispatchFacadeStub) AttachTicket(ctx context.Context, session *model.Session, id string, img model.Image) (model.FlowView, error) {
	if s.AttachTicketFn != nil {
		return s.AttachTicketFn(ctx, session, id, img)
	}
	view := stubView(id)
	view.Draft.DispatchTicket = &img
	return view, nil
}

func (s DispatchFacadeStub) SelectLocation(ctx context.Context, session *model.Session, id string, level model.LocationLevel, value string) (model.FlowView, error) {
	if s.SelectLocationFn != nil {
		return s.SelectLocationFn(ctx, session, id, level, value)
	}
	return stubView(id), nil
}

func (s DispatchFacadeStub) SubmitOrder(ctx context.Context, session *model.Session, id string, n usecase.Notifier) (model.FlowView, error) {
	if s.SubmitOrderFn != nil {
		return s.SubmitOrderFn(ctx, session, id, n)
	}
	view := stubView(id)
	view.PendingKey = "order-1"
	view.Assignment = &model.AssignmentSnapshot{OrderKey: "order-1", View: model.AssignmentViewMain}
	return view, nil
}

func (s DispatchFacadeStub) Operators(ctx context.Context, session *model.Session, id string, page int, search string) (model.OperatorPage, error) {
	if s.OperatorsFn != nil {
		return s.OperatorsFn(ctx, session, id, page, search)
	}
	return model.OperatorPage{Page: page, Search: search}, nil
}

func (s DispatchFacadeStub) FindFreelancer(ctx context.Context, session *model.Session, id, code string) (*model.Operator, error) {
	if s.FindFreelancerFn != nil {
		return s.FindFreelancerFn(ctx, session, id, code)
	}
	return &model.Operator{ID: 1, Code: code, Status: model.OperatorStatusFreelance}, nil
}

func (s DispatchFacadeStub) ToggleOperator(ctx context.Context, session *model.Session, id string, operatorID int64) (model.FlowView, error) {
	if s.ToggleOperatorFn != nil {
		return s.ToggleOperatorFn(ctx, session, id, operatorID)
	}
	return stubView(id), nil
}

func (s DispatchFacadeStub) SetAssignmentView(ctx context.Context, session *model.Session, id string, view model.AssignmentView) (model.FlowView, error) {
	if s.SetAssignmentViewFn != nil {
		return s.SetAssignmentViewFn(ctx, session, id, view)
	}
	return stubView(id), nil
}

func (s DispatchFacadeStub) Assign(ctx context.Context, session *model.Session, id, note string, n usecase.Notifier) (model.FlowView, bool, error) {
	if s.AssignFn != nil {
		return s.AssignFn(ctx, session, id, note, n)
	}
	return stubView(id), false, nil
}

func (s DispatchFacadeStub) CreateFreelancer(ctx context.Context, session *model.Session, id string, form model.FreelancerForm, n usecase.Notifier) (model.FlowView, *model.Operator, error) {
	if s.CreateFreelancerFn != nil {
		return s.CreateFreelancerFn(ctx, session, id, form, n)
	}
	return stubView(id), &model.Operator{ID: 2, Code: form.Code, Status: model.OperatorStatusFreelance}, nil
}

func (s DispatchFacadeStub) CloseFlow(ctx context.Context, session *model.Session, id string, n usecase.Notifier) error {
	if s.CloseFlowFn != nil {
		return s.CloseFlowFn(ctx, session, id, n)
	}
	return nil
}

func (s DispatchFacadeStub) OpenEditFlow(ctx context.Context, session *model.Session, key string, variant model.Variant) (model.FlowView, error) {
	if s.OpenEditFlowFn != nil {
		return s.OpenEditFlowFn(ctx, session, key, variant)
	}
	view := stubView("edit-1")
	view.Kind = model.FlowEdit
	view.OrderKey = key
	return view, nil
}

func (s DispatchFacadeStub) SaveEdit(ctx context.Context, session *model.Session, id string, n usecase.Notifier) (model.FlowView, error) {
	if s.SaveEditFn != nil {
		return s.SaveEditFn(ctx, session, id, n)
	}
	return stubView(id), nil
}

func (s DispatchFacadeStub) CompleteOrder(ctx context.Context, session *model.Session, key string, evidence *model.Image, n usecase.Notifier) error {
	if s.CompleteOrderFn != nil {
		return s.CompleteOrderFn(ctx, session, key, evidence, n)
	}
	return nil
}

func (s DispatchFacadeStub) DeleteOrder(ctx context.Context, session *model.Session, key string, variant model.Variant, n usecase.Notifier) error {
	if s.DeleteOrderFn != nil {
		return s.DeleteOrderFn(ctx, session, key, variant, n)
	}
	return nil
}

func (s DispatchFacadeStub) Assignments(ctx context.Context, key string) ([]model.Assignment, error) {
	if s.AssignmentsFn != nil {
		return s.AssignmentsFn(ctx, key)
	}
	return []model.Assignment{{ID: 1, OperatorID: 7, OrderKey: key, Role: model.RoleOperator}}, nil
}

func (s DispatchFacadeStub) DeleteAssignment(ctx context.Context, id int64, n usecase.Notifier) error {
	if s.DeleteAssignmentFn != nil {
		return s.DeleteAssignmentFn(ctx, id, n)
	}
	return nil
}
