package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	domainErrors "github.com/GS-Pro2025/movewise/internal/domain/errors"
	"github.com/GS-Pro2025/movewise/internal/domain/model"
	testhelpers "github.com/GS-Pro2025/movewise/internal/test"
)

var admin = model.Capability{IsAdmin: true}

func TestCompleteRequiresAdmin(t *testing.T) {
	orders := &testhelpers.OrderGatewayStub{}
	gate := NewCompletionGate(orders, testhelpers.ImageConverterStub{}, testLogger())
	order := &model.Order{Key: "K1", Status: model.OrderStatusPending}
	notices := &Notices{}

	err := gate.Complete(context.Background(), model.Capability{}, "tok", order, nil, notices)
	if !errors.Is(err, domainErrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if orders.StatusCount() != 0 || order.Status != model.OrderStatusPending {
		t.Fatal("expected no remote call for a non-admin")
	}
	requireNotice(t, notices, model.NotificationError, "admin")
}

func TestCompleteSendsEvidenceWithToken(t *testing.T) {
	orders := &testhelpers.OrderGatewayStub{}
	gate := NewCompletionGate(orders, testhelpers.ImageConverterStub{}, testLogger())
	order := &model.Order{Key: "K1", Status: model.OrderStatusInProgress}
	evidence := &model.Image{URI: "proof-bytes", Name: "proof.jpg", Type: "image/jpeg"}
	notices := &Notices{}

	if err := gate.Complete(context.Background(), admin, "tok", order, evidence, notices); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if order.Status != model.OrderStatusFinished {
		t.Fatalf("expected finished status, got %q", order.Status)
	}
	call := orders.Statuses[0]
	if call.Token != "tok" || call.Key != "K1" || call.Status != model.OrderStatusFinished {
		t.Fatalf("unexpected status call %+v", call)
	}
	if call.Evidence == nil || string(call.Evidence.Data) != "proof-bytes" {
		t.Fatalf("expected evidence upload, got %+v", call.Evidence)
	}
	requireNotice(t, notices, model.NotificationSuccess, "Order finished")
}

func TestCompleteWithoutEvidence(t *testing.T) {
	orders := &testhelpers.OrderGatewayStub{}
	gate := NewCompletionGate(orders, testhelpers.ImageConverterStub{}, testLogger())
	order := &model.Order{Key: "K1", Status: model.OrderStatusPending}

	if err := gate.Complete(context.Background(), admin, "tok", order, &model.Image{}, nil); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if orders.Statuses[0].Evidence != nil {
		t.Fatal("expected status-only transition")
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	orders := &testhelpers.OrderGatewayStub{}
	gate := NewCompletionGate(orders, testhelpers.ImageConverterStub{}, testLogger())
	ctx := context.Background()

	first := &model.Order{Key: "K1", Status: model.OrderStatusPending}
	stale := &model.Order{Key: "K1", Status: model.OrderStatusPending}
	notices := &Notices{}

	if err := gate.Complete(ctx, admin, "tok", first, nil, notices); err != nil {
		t.Fatalf("first complete: %v", err)
	}
	if err := gate.Complete(ctx, admin, "tok", stale, nil, notices); err != nil {
		t.Fatalf("second complete: %v", err)
	}
	if err := gate.Complete(ctx, admin, "tok", first, nil, notices); err != nil {
		t.Fatalf("third complete: %v", err)
	}
	if got := orders.StatusCount(); got != 1 {
		t.Fatalf("expected exactly one status change, got %d", got)
	}
	requireNotice(t, notices, model.NotificationInfo, "already finished")
}

func TestCompleteRefusesInactive(t *testing.T) {
	orders := &testhelpers.OrderGatewayStub{}
	gate := NewCompletionGate(orders, testhelpers.ImageConverterStub{}, testLogger())
	order := &model.Order{Key: "K1", Status: model.OrderStatusInactive}

	if err := gate.Complete(context.Background(), admin, "tok", order, nil, nil); !errors.Is(err, domainErrors.ErrOrderInactive) {
		t.Fatalf("expected inactive error, got %v", err)
	}
	if orders.StatusCount() != 0 {
		t.Fatal("expected no remote call")
	}
}

func TestCompleteFailureLeavesOrderUnchanged(t *testing.T) {
	fail := true
	orders := &testhelpers.OrderGatewayStub{StatusFn: func(context.Context, string, string, model.OrderStatus, *model.Upload) error {
		if fail {
			return &domainErrors.APIError{Status: 500, Message: "evidence rejected"}
		}
		return nil
	}}
	gate := NewCompletionGate(orders, testhelpers.ImageConverterStub{}, testLogger())
	order := &model.Order{Key: "K1", Status: model.OrderStatusPending}
	notices := &Notices{}

	if err := gate.Complete(context.Background(), admin, "tok", order, nil, notices); err == nil {
		t.Fatal("expected failure")
	}
	if order.Status != model.OrderStatusPending {
		t.Fatalf("expected status unchanged, got %q", order.Status)
	}
	requireNotice(t, notices, model.NotificationError, "evidence rejected")

	fail = false
	if err := gate.Complete(context.Background(), admin, "tok", order, nil, nil); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if orders.StatusCount() != 2 {
		t.Fatalf("expected retry to reach the API, got %d calls", orders.StatusCount())
	}
}

func TestCompleteEvidenceReadFailure(t *testing.T) {
	orders := &testhelpers.OrderGatewayStub{}
	images := testhelpers.ImageConverterStub{UploadFn: func(model.Image) (*model.Upload, error) {
		return nil, errors.New("unreadable")
	}}
	gate := NewCompletionGate(orders, images, testLogger())
	order := &model.Order{Key: "K1", Status: model.OrderStatusPending}

	if err := gate.Complete(context.Background(), admin, "tok", order, &model.Image{URI: "x"}, nil); err == nil {
		t.Fatal("expected evidence error")
	}
	if orders.StatusCount() != 0 {
		t.Fatal("expected no remote call")
	}
}

func TestCompleteConcurrentCallsSendOneRequest(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	orders := &testhelpers.OrderGatewayStub{StatusFn: func(context.Context, string, string, model.OrderStatus, *model.Upload) error {
		once.Do(func() { close(entered) })
		<-release
		return nil
	}}
	gate := NewCompletionGate(orders, testhelpers.ImageConverterStub{}, testLogger())

	done := make(chan error, 1)
	go func() {
		done <- gate.Complete(context.Background(), admin, "tok", &model.Order{Key: "K1", Status: model.OrderStatusPending}, nil, nil)
	}()
	<-entered

	err := gate.Complete(context.Background(), admin, "tok", &model.Order{Key: "K1", Status: model.OrderStatusPending}, nil, nil)
	if !errors.Is(err, domainErrors.ErrBusy) {
		t.Fatalf("expected busy while first call is in flight, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first complete: %v", err)
	}
	if orders.StatusCount() != 1 {
		t.Fatalf("expected one status change, got %d", orders.StatusCount())
	}
}
