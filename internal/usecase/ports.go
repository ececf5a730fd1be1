package usecase

import (
	"context"

	"github.com/GS-Pro2025/movewise/internal/domain/model"
)

// OrderGateway is the order surface of the remote API.
type OrderGateway interface {
	CreateOrder(ctx context.Context, variant model.Variant, payload model.OrderPayload) (string, error)
	GetOrder(ctx context.Context, key string) (*model.Order, error)
	UpdateOrder(ctx context.Context, key string, payload model.OrderPayload) error
	DeleteOrder(ctx context.Context, key string) error
	SetOrderStatus(ctx context.Context, token, key string, status model.OrderStatus, evidence *model.Upload) error
}

// AssignmentGateway is the operator and assignment surface of the remote API.
type AssignmentGateway interface {
	AssignBulk(ctx context.Context, requests []model.AssignmentRequest) error
	OrderAssignments(ctx context.Context, key string) ([]model.Assignment, error)
	DeleteAssignment(ctx context.Context, id int64) error
	Operators(ctx context.Context, page int, search string) (model.OperatorPage, error)
	FreelancerByCode(ctx context.Context, code string) (*model.Operator, error)
	CreateFreelancer(ctx context.Context, payload model.FreelancerPayload) (*model.Operator, error)
}

// LocationDirectory resolves option lists of the location cascade.
type LocationDirectory interface {
	Locations(ctx context.Context, query model.LocationQuery) ([]string, error)
}

// ImageConverter normalizes picked images before they leave the service.
type ImageConverter interface {
	Probe(img model.Image) (model.Image, error)
	DataURI(img model.Image) (string, error)
	Upload(img model.Image) (*model.Upload, error)
}

// Authenticator exchanges user credentials with the remote API.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*model.Session, error)
}

// SessionStore persists user sessions.
type SessionStore interface {
	Create(ctx context.Context, session model.Session) (*model.Session, error)
	Get(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error
}

// Notifier receives user-facing notices.
type Notifier interface {
	Notify(level model.NotificationLevel, message string)
}
