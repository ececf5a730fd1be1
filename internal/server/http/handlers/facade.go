package handlers

import (
	"context"

	"github.com/GS-Pro2025/movewise/internal/domain/model"
	"github.com/GS-Pro2025/movewise/internal/server/http/middleware"
	"github.com/GS-Pro2025/movewise/internal/usecase"
)

// SessionFacade describes authentication capabilities required by handlers.
type SessionFacade interface {
	Login(ctx context.Context, username, password string) (*model.Session, string, error)
	Logout(ctx context.Context, session *model.Session) error
	Health(ctx context.Context) error
}

// FlowFacade drives server-held creation and edit flows.
type FlowFacade interface {
	OpenOrderFlow(ctx context.Context, session *model.Session, variant model.Variant) (model.FlowView, error)
	Flow(ctx context.Context, session *model.Session, id string) (model.FlowView, error)
	UpdateDraft(ctx context.Context, session *model.Session, id string, patch model.OrderDraft) (model.FlowView, map[string]string, error)
	AttachTicket(ctx context.Context, session *model.Session, id string, img model.Image) (model.FlowView, error)
	SelectLocation(ctx context.Context, session *model.Session, id string, level model.LocationLevel, value string) (model.FlowView, error)
	SubmitOrder(ctx context.Context, session *model.Session, id string, n usecase.Notifier) (model.FlowView, error)
	Operators(ctx context.Context, session *model.Session, id string, page int, search string) (model.OperatorPage, error)
	FindFreelancer(ctx context.Context, session *model.Session, id, code string) (*model.Operator, error)
	ToggleOperator(ctx context.Context, session *model.Session, id string, operatorID int64) (model.FlowView, error)
	SetAssignmentView(ctx context.Context, session *model.Session, id string, view model.AssignmentView) (model.FlowView, error)
	Assign(ctx context.Context, session *model.Session, id, note string, n usecase.Notifier) (model.FlowView, bool, error)
	CreateFreelancer(ctx context.Context, session *model.Session, id string, form model.FreelancerForm, n usecase.Notifier) (model.FlowView, *model.Operator, error)
	CloseFlow(ctx context.Context, session *model.Session, id string, n usecase.Notifier) error
	OpenEditFlow(ctx context.Context, session *model.Session, key string, variant model.Variant) (model.FlowView, error)
	SaveEdit(ctx context.Context, session *model.Session, id string, n usecase.Notifier) (model.FlowView, error)
}

// OrderFacade encapsulates order operations that need no flow.
type OrderFacade interface {
	CompleteOrder(ctx context.Context, session *model.Session, key string, evidence *model.Image, n usecase.Notifier) error
	DeleteOrder(ctx context.Context, session *model.Session, key string, variant model.Variant, n usecase.Notifier) error
	Assignments(ctx context.Context, key string) ([]model.Assignment, error)
	DeleteAssignment(ctx context.Context, id int64, n usecase.Notifier) error
}

// DispatchFacade aggregates the full set of operations used across handlers.
type DispatchFacade interface {
	SessionFacade
	FlowFacade
	OrderFacade
	middleware.SessionResolver
}
