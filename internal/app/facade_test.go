package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	domainErrors "github.com/GS-Pro2025/movewise/internal/domain/errors"
	"github.com/GS-Pro2025/movewise/internal/domain/model"
	testhelpers "github.com/GS-Pro2025/movewise/internal/test"
	"github.com/GS-Pro2025/movewise/internal/usecase"
)

type fixture struct {
	orders      *testhelpers.OrderGatewayStub
	assignments *testhelpers.AssignmentGatewayStub
	directory   *testhelpers.LocationDirectoryStub
	pending     *testhelpers.PendingOrderRepositoryStub
	flows       *FlowRegistry
	facade      *DispatchFacade
	session     *model.Session
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fix := &fixture{
		orders: &testhelpers.OrderGatewayStub{},
		assignments: &testhelpers.AssignmentGatewayStub{Roster: []model.Operator{
			{ID: 1, Code: "OP-1", Status: model.OperatorStatusActive},
			{ID: 2, Code: "FR-2", Status: model.OperatorStatusFreelance},
		}},
		directory: &testhelpers.LocationDirectoryStub{
			Countries: []string{"A", "B"},
			States:    map[string][]string{"A": {"S0"}},
			Cities:    map[string][]string{"A/S0": {"C0"}},
		},
		pending: testhelpers.NewPendingOrderRepositoryStub(),
		flows:   NewFlowRegistry(time.Minute),
		session: &model.Session{ID: "session-1", User: "dispatcher", Token: "api-token"},
	}

	images := testhelpers.ImageConverterStub{}
	factory := &testhelpers.RepositoryFactoryStub{Pending: fix.pending}
	logger := discardLogger()
	validator := usecase.NewDraftValidator(images, 0)
	assignments := usecase.NewAssignmentService(fix.assignments, images, factory, logger)

	fix.facade = NewDispatchFacade(Deps{
		Sessions:    usecase.NewSessionUseCase(testhelpers.AuthenticatorStub{}, &testhelpers.SessionStoreStub{}, testhelpers.StrategyStub{}),
		Coordinator: usecase.NewSubmissionCoordinator(validator, fix.orders, images, factory, assignments, logger),
		Assignments: assignments,
		Compensator: usecase.NewCompensator(fix.orders, factory, usecase.CompensatorOptions{
			Policy:      usecase.PolicyConfirm,
			MaxAttempts: 3,
			Backoff:     time.Millisecond,
		}, logger),
		Gate:      usecase.NewCompletionGate(fix.orders, images, logger),
		Editor:    usecase.NewOrderEditor(fix.orders, validator, images, logger),
		Validator: validator,
		Directory: fix.directory,
		Images:    images,
		Repos:     factory,
		Flows:     fix.flows,
		Lease:     time.Minute,
		Logger:    logger,
	})
	return fix
}

func ticket() model.Image {
	return model.Image{URI: "file:///tmp/ticket.png", Name: "ticket.png", Type: "image/png", FileSize: 1024}
}

func (fix *fixture) fillDraft(t *testing.T, id string) {
	t.Helper()
	ctx := context.Background()
	patch := model.OrderDraft{
		Date:      "2024-01-15",
		Reference: "REF-1",
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@x.com",
		Weight:    "500",
		JobID:     3,
		CompanyID: 7,
	}
	if _, _, err := fix.facade.UpdateDraft(ctx, fix.session, id, patch); err != nil {
		t.Fatalf("update draft: %v", err)
	}
	if _, err := fix.facade.AttachTicket(ctx, fix.session, id, ticket()); err != nil {
		t.Fatalf("attach ticket: %v", err)
	}
	for _, sel := range []struct {
		level model.LocationLevel
		value string
	}{{model.LocationCountry, "A"}, {model.LocationState, "S0"}, {model.LocationCity, "C0"}} {
		if _, err := fix.facade.SelectLocation(ctx, fix.session, id, sel.level, sel.value); err != nil {
			t.Fatalf("select %s: %v", sel.level, err)
		}
	}
}

func (fix *fixture) submitted(t *testing.T) model.FlowView {
	t.Helper()
	view, err := fix.facade.OpenOrderFlow(context.Background(), fix.session, model.VariantStandard)
	if err != nil {
		t.Fatalf("open flow: %v", err)
	}
	fix.fillDraft(t, view.ID)
	view, err = fix.facade.SubmitOrder(context.Background(), fix.session, view.ID, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return view
}

func waitBusy(t *testing.T, fix *fixture, id string) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		view, err := fix.facade.Flow(context.Background(), fix.session, id)
		if err == nil && view.Busy {
			return
		}
		select {
		case <-deadline:
			t.Fatal("timeout waiting for busy flow")
		case <-time.After(2 * time.Millisecond):
		}
	}
}

func TestOpenOrderFlowLoadsCountries(t *testing.T) {
	fix := newFixture(t)
	view, err := fix.facade.OpenOrderFlow(context.Background(), fix.session, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if view.Kind != model.FlowCreation || view.Variant != model.VariantWorkhouse {
		t.Fatalf("unexpected flow %+v", view)
	}
	if got := strings.Join(view.Location.Country.Options, ","); got != "A,B" {
		t.Fatalf("expected country options, got %q", got)
	}
	if !view.Location.State.Disabled {
		t.Fatal("expected state selector disabled before a country is chosen")
	}
}

func TestOpenOrderFlowKeepsDirectoryFailureInSnapshot(t *testing.T) {
	fix := newFixture(t)
	fix.directory.Fn = func(context.Context, model.LocationQuery) ([]string, error) {
		return nil, &domainErrors.APIError{Status: 503, Message: "directory offline"}
	}
	view, err := fix.facade.OpenOrderFlow(context.Background(), fix.session, model.VariantStandard)
	if err != nil {
		t.Fatalf("open should not fail: %v", err)
	}
	if view.Location.Country.Error == "" {
		t.Fatal("expected the country selector to carry the error")
	}
}

func TestSubmitOrderOpensAssignment(t *testing.T) {
	fix := newFixture(t)
	view := fix.submitted(t)

	if view.PendingKey != "ORD-1" {
		t.Fatalf("expected pending order ORD-1, got %q", view.PendingKey)
	}
	if view.Assignment == nil || view.Assignment.OrderKey != "ORD-1" {
		t.Fatalf("expected assignment session, got %+v", view.Assignment)
	}
	if len(view.Assignment.Operators.Results) != 2 {
		t.Fatalf("expected operators loaded, got %+v", view.Assignment.Operators)
	}
	if view.Draft.Reference != "" || view.Draft.DispatchTicket != nil || view.Draft.Variant != model.VariantStandard {
		t.Fatalf("expected draft reset keeping the variant, got %+v", view.Draft)
	}
	if view.Draft.Country != "" || view.Location.State.Value != "" {
		t.Fatalf("expected location reset, got %+v", view.Location)
	}
	if fix.orders.Variants[0] != model.VariantStandard {
		t.Fatalf("expected standard variant, got %v", fix.orders.Variants)
	}
	if fix.orders.Created[0].Location != "A - S0 - C0" {
		t.Fatalf("unexpected location %q", fix.orders.Created[0].Location)
	}
	if view.Busy {
		t.Fatal("expected flow released after submit")
	}

	if _, err := fix.facade.SubmitOrder(context.Background(), fix.session, view.ID, nil); !errors.Is(err, domainErrors.ErrFlowKind) {
		t.Fatalf("expected second submit to be refused, got %v", err)
	}
}

func TestSubmitOrderValidationKeepsDraft(t *testing.T) {
	fix := newFixture(t)
	view, _ := fix.facade.OpenOrderFlow(context.Background(), fix.session, "")
	patch := model.OrderDraft{Reference: "REF-9"}
	if _, _, err := fix.facade.UpdateDraft(context.Background(), fix.session, view.ID, patch); err != nil {
		t.Fatalf("update: %v", err)
	}

	notices := &usecase.Notices{}
	view, err := fix.facade.SubmitOrder(context.Background(), fix.session, view.ID, notices)
	var vErr *domainErrors.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if vErr.Fields["country"] == "" {
		t.Fatalf("expected country in field map, got %v", vErr.Fields)
	}
	if len(notices.Items()) == 0 {
		t.Fatal("expected a toast for the dominant error")
	}
	if view.Draft.Reference != "REF-9" {
		t.Fatalf("expected draft kept, got %+v", view.Draft)
	}
	if len(fix.orders.Created) != 0 {
		t.Fatal("expected no remote call")
	}
}

func TestUpdateDraftReportsFieldProblems(t *testing.T) {
	fix := newFixture(t)
	view, _ := fix.facade.OpenOrderFlow(context.Background(), fix.session, "")

	updated, fields, err := fix.facade.UpdateDraft(context.Background(), fix.session, view.ID, model.OrderDraft{
		Email:   "not-an-email",
		Variant: model.VariantStandard,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if fields["email"] != usecase.CodeInvalidEmail || fields["date"] != usecase.CodeRequired {
		t.Fatalf("unexpected field map %v", fields)
	}
	if updated.Draft.Variant != model.VariantWorkhouse {
		t.Fatal("expected the flow variant to be fixed at open")
	}
}

func TestAttachTicketRejectsBadImages(t *testing.T) {
	fix := newFixture(t)
	view, _ := fix.facade.OpenOrderFlow(context.Background(), fix.session, "")

	big := ticket()
	big.FileSize = 6 << 20
	_, err := fix.facade.AttachTicket(context.Background(), fix.session, view.ID, big)
	if !errors.Is(err, domainErrors.ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}

	fix.facade.images = testhelpers.ImageConverterStub{ProbeFn: func(model.Image) (model.Image, error) {
		return model.Image{}, errors.New("unreadable")
	}}
	view, err = fix.facade.AttachTicket(context.Background(), fix.session, view.ID, ticket())
	var vErr *domainErrors.ValidationError
	if !errors.As(err, &vErr) || vErr.Fields[draftTicketField] != usecase.CodeInvalidImage {
		t.Fatalf("expected invalid image error, got %v", err)
	}
	if view.Draft.DispatchTicket != nil {
		t.Fatal("expected rejected images to stay detached")
	}
}

func TestFlowsAreScopedToTheirOwner(t *testing.T) {
	fix := newFixture(t)
	view, _ := fix.facade.OpenOrderFlow(context.Background(), fix.session, "")
	other := &model.Session{ID: "session-2"}

	if _, err := fix.facade.Flow(context.Background(), other, view.ID); !errors.Is(err, domainErrors.ErrFlowNotFound) {
		t.Fatalf("expected ErrFlowNotFound, got %v", err)
	}
	if err := fix.facade.CloseFlow(context.Background(), other, view.ID, nil); !errors.Is(err, domainErrors.ErrFlowNotFound) {
		t.Fatalf("expected ErrFlowNotFound on close, got %v", err)
	}
	if fix.flows.Len() != 1 {
		t.Fatal("expected the flow to stay open")
	}
}

func TestAssignmentOperationsRequireSubmittedOrder(t *testing.T) {
	fix := newFixture(t)
	view, _ := fix.facade.OpenOrderFlow(context.Background(), fix.session, "")
	if _, err := fix.facade.ToggleOperator(context.Background(), fix.session, view.ID, 1); !errors.Is(err, domainErrors.ErrNoPendingOrder) {
		t.Fatalf("expected ErrNoPendingOrder, got %v", err)
	}
	if _, err := fix.facade.Operators(context.Background(), fix.session, view.ID, 1, ""); !errors.Is(err, domainErrors.ErrNoPendingOrder) {
		t.Fatalf("expected ErrNoPendingOrder, got %v", err)
	}
}

func TestAssignAsAdminClosesFlow(t *testing.T) {
	fix := newFixture(t)
	fix.session.IsAdmin = true
	view := fix.submitted(t)

	if _, err := fix.facade.ToggleOperator(context.Background(), fix.session, view.ID, 1); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	notices := &usecase.Notices{}
	_, closed, err := fix.facade.Assign(context.Background(), fix.session, view.ID, "12.50", notices)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !closed || fix.flows.Len() != 0 {
		t.Fatalf("expected admin flow to close, closed=%v open=%d", closed, fix.flows.Len())
	}
	if state := fix.pending.State("ORD-1"); state != model.PendingStateAssigned {
		t.Fatalf("expected assigned ledger state, got %q", state)
	}
	bulk := fix.assignments.BulkCalls()
	if len(bulk) != 1 || bulk[0][0].AdditionalCosts.String() != "12.5" {
		t.Fatalf("unexpected bulk call %+v", bulk)
	}
}

func TestAssignAsOperatorKeepsFlowWithoutPendingOrder(t *testing.T) {
	fix := newFixture(t)
	view := fix.submitted(t)

	if _, err := fix.facade.ToggleOperator(context.Background(), fix.session, view.ID, 2); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	view, closed, err := fix.facade.Assign(context.Background(), fix.session, view.ID, "", nil)
	if err != nil || closed {
		t.Fatalf("expected open flow after assign, closed=%v err=%v", closed, err)
	}
	if view.PendingKey != "" {
		t.Fatalf("expected pending key cleared, got %q", view.PendingKey)
	}

	if err := fix.facade.CloseFlow(context.Background(), fix.session, view.ID, nil); err != nil {
		t.Fatalf("close: %v", err)
	}
	if fix.orders.DeleteCount() != 0 {
		t.Fatal("expected assigned order to survive closing the flow")
	}
}

func TestAssignEmptySelection(t *testing.T) {
	fix := newFixture(t)
	view := fix.submitted(t)
	_, _, err := fix.facade.Assign(context.Background(), fix.session, view.ID, "", nil)
	if !errors.Is(err, domainErrors.ErrEmptySelection) {
		t.Fatalf("expected ErrEmptySelection, got %v", err)
	}
	if fix.flows.Len() != 1 {
		t.Fatal("expected flow to stay open")
	}
}

func TestAssignmentViewAndFreelancers(t *testing.T) {
	fix := newFixture(t)
	view := fix.submitted(t)
	ctx := context.Background()

	view, err := fix.facade.SetAssignmentView(ctx, fix.session, view.ID, model.AssignmentViewCreate)
	if err != nil || view.Assignment.View != model.AssignmentViewCreate {
		t.Fatalf("expected create view, got %+v %v", view.Assignment, err)
	}

	found, err := fix.facade.FindFreelancer(ctx, fix.session, view.ID, "FR-2")
	if err != nil || found.ID != 2 {
		t.Fatalf("expected freelancer 2, got %+v %v", found, err)
	}

	_, created, err := fix.facade.CreateFreelancer(ctx, fix.session, view.ID, model.FreelancerForm{
		Code: "FR-9", FirstName: "Sam", LastName: "Lee", IDType: "passport", IDNumber: "X1", Salary: "10",
	}, nil)
	if err != nil {
		t.Fatalf("create freelancer: %v", err)
	}
	if created == nil || created.Code != "FR-9" {
		t.Fatalf("unexpected freelancer %+v", created)
	}

	page, err := fix.facade.Operators(ctx, fix.session, view.ID, 2, "sam")
	if err != nil || page.Page != 2 || page.Search != "sam" {
		t.Fatalf("unexpected page %+v %v", page, err)
	}
}

func TestCloseFlowCompensatesPendingOrder(t *testing.T) {
	fix := newFixture(t)
	view := fix.submitted(t)

	notices := &usecase.Notices{}
	if err := fix.facade.CloseFlow(context.Background(), fix.session, view.ID, notices); err != nil {
		t.Fatalf("close: %v", err)
	}
	if fix.orders.DeleteCount() != 1 || fix.orders.Deleted[0] != "ORD-1" {
		t.Fatalf("expected ORD-1 deleted, got %v", fix.orders.Deleted)
	}
	if state := fix.pending.State("ORD-1"); state != model.PendingStateCompensated {
		t.Fatalf("expected compensated, got %q", state)
	}
	if _, err := fix.facade.Flow(context.Background(), fix.session, view.ID); !errors.Is(err, domainErrors.ErrFlowNotFound) {
		t.Fatalf("expected flow removed, got %v", err)
	}
	if err := fix.facade.CloseFlow(context.Background(), fix.session, view.ID, nil); !errors.Is(err, domainErrors.ErrFlowNotFound) {
		t.Fatalf("expected second close to report ErrFlowNotFound, got %v", err)
	}
}

func TestCloseFlowFailureIsRetriedByWorker(t *testing.T) {
	fix := newFixture(t)
	view := fix.submitted(t)

	fix.orders.DeleteFn = func(context.Context, string) error {
		return &domainErrors.APIError{Status: 502}
	}
	if err := fix.facade.CloseFlow(context.Background(), fix.session, view.ID, nil); err == nil {
		t.Fatal("expected delete failure to be reported")
	}
	if fix.flows.Len() != 0 {
		t.Fatal("expected flow closed whatever the outcome")
	}
	if state := fix.pending.State("ORD-1"); state != model.PendingStateCompensating {
		t.Fatalf("expected compensating, got %q", state)
	}

	fix.orders.DeleteFn = nil
	fix.facade.now = func() time.Time { return time.Now().Add(time.Hour) }
	due, err := fix.facade.DueCompensations(context.Background(), 10)
	if err != nil || len(due) != 1 {
		t.Fatalf("expected one due compensation, got %v %v", due, err)
	}
	if err := fix.facade.RetryCompensation(context.Background(), due[0]); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if state := fix.pending.State("ORD-1"); state != model.PendingStateCompensated {
		t.Fatalf("expected compensated after retry, got %q", state)
	}
}

func TestBusyFlowRejectsConcurrentMutations(t *testing.T) {
	fix := newFixture(t)
	view, _ := fix.facade.OpenOrderFlow(context.Background(), fix.session, "")
	fix.fillDraft(t, view.ID)

	release := make(chan struct{})
	fix.orders.CreateFn = func(context.Context, model.Variant, model.OrderPayload) (string, error) {
		<-release
		return "ORD-7", nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := fix.facade.SubmitOrder(context.Background(), fix.session, view.ID, nil)
		done <- err
	}()
	waitBusy(t, fix, view.ID)

	if _, err := fix.facade.SubmitOrder(context.Background(), fix.session, view.ID, nil); !errors.Is(err, domainErrors.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if _, _, err := fix.facade.UpdateDraft(context.Background(), fix.session, view.ID, model.OrderDraft{}); !errors.Is(err, domainErrors.ErrBusy) {
		t.Fatalf("expected ErrBusy on draft update, got %v", err)
	}
	if _, err := fix.facade.SelectLocation(context.Background(), fix.session, view.ID, model.LocationCountry, "B"); !errors.Is(err, domainErrors.ErrBusy) {
		t.Fatalf("expected ErrBusy on location change, got %v", err)
	}
	if _, err := fix.facade.AttachTicket(context.Background(), fix.session, view.ID, ticket()); !errors.Is(err, domainErrors.ErrBusy) {
		t.Fatalf("expected ErrBusy on ticket attach, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(fix.orders.Created) != 1 {
		t.Fatalf("expected exactly one order, got %d", len(fix.orders.Created))
	}
}

func TestCloseFlowCancelsInFlightSubmit(t *testing.T) {
	fix := newFixture(t)
	view, _ := fix.facade.OpenOrderFlow(context.Background(), fix.session, "")
	fix.fillDraft(t, view.ID)

	fix.orders.CreateFn = func(ctx context.Context, _ model.Variant, _ model.OrderPayload) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}

	done := make(chan error, 1)
	go func() {
		_, err := fix.facade.SubmitOrder(context.Background(), fix.session, view.ID, nil)
		done <- err
	}()
	waitBusy(t, fix, view.ID)

	if err := fix.facade.CloseFlow(context.Background(), fix.session, view.ID, nil); err != nil {
		t.Fatalf("close: %v", err)
	}
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected submit to be cancelled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("expected in-flight submit to stop")
	}
}

func TestExpireIdleFlowsCompensates(t *testing.T) {
	fix := newFixture(t)
	view := fix.submitted(t)
	idle, _ := fix.facade.OpenOrderFlow(context.Background(), fix.session, "")

	fix.flows.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if n := fix.facade.ExpireIdleFlows(context.Background()); n != 2 {
		t.Fatalf("expected both flows expired, got %d", n)
	}
	if fix.orders.DeleteCount() != 1 || fix.orders.Deleted[0] != view.PendingKey {
		t.Fatalf("expected only the pending order deleted, got %v", fix.orders.Deleted)
	}
	if _, err := fix.facade.Flow(context.Background(), fix.session, idle.ID); !errors.Is(err, domainErrors.ErrFlowNotFound) {
		t.Fatalf("expected idle flow removed, got %v", err)
	}
}

func editableOrder(key string) *model.Order {
	img := ticket()
	return &model.Order{
		Key:            key,
		Reference:      "REF-1",
		Status:         model.OrderStatusPending,
		Date:           "2024-01-15",
		Weight:         "120",
		JobID:          3,
		CompanyID:      7,
		Location:       "A - S0 - C0",
		Contact:        model.Contact{FirstName: "Jane", LastName: "Doe", Email: "jane@x.com"},
		DispatchTicket: &img,
	}
}

func TestEditFlowPrepopulatesAndSaves(t *testing.T) {
	fix := newFixture(t)
	fix.orders.GetFn = func(_ context.Context, key string) (*model.Order, error) {
		return editableOrder(key), nil
	}

	view, err := fix.facade.OpenEditFlow(context.Background(), fix.session, "K-1", model.VariantStandard)
	if err != nil {
		t.Fatalf("open edit: %v", err)
	}
	if view.Kind != model.FlowEdit || view.OrderKey != "K-1" || view.Variant != model.VariantStandard {
		t.Fatalf("unexpected edit flow %+v", view)
	}
	if view.Draft.Country != "A" || view.Draft.State != "S0" || view.Draft.City != "C0" {
		t.Fatalf("expected prepopulated location, got %+v", view.Draft)
	}
	if got := strings.Join(view.Location.City.Options, ","); got != "C0" {
		t.Fatalf("expected city options, got %q", got)
	}

	if _, err := fix.facade.SubmitOrder(context.Background(), fix.session, view.ID, nil); !errors.Is(err, domainErrors.ErrFlowKind) {
		t.Fatalf("expected submit refused in edit flow, got %v", err)
	}

	if _, _, err := fix.facade.UpdateDraft(context.Background(), fix.session, view.ID, model.OrderDraft{
		Date: "2024-02-01", Reference: "REF-1", FirstName: "Jane", LastName: "Doe",
		Email: "jane@x.com", Weight: "150", JobID: 3, CompanyID: 7,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := fix.facade.SaveEdit(context.Background(), fix.session, view.ID, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(fix.orders.Updated) != 1 || fix.orders.Updated[0].Weight != "150" {
		t.Fatalf("unexpected update %+v", fix.orders.Updated)
	}
	if fix.flows.Len() != 0 {
		t.Fatal("expected edit flow closed after save")
	}
}

func TestEditFlowVariantComesFromCaller(t *testing.T) {
	fix := newFixture(t)
	fix.orders.GetFn = func(_ context.Context, key string) (*model.Order, error) {
		return editableOrder(key), nil
	}

	for requested, want := range map[model.Variant]model.Variant{
		model.VariantStandard:  model.VariantStandard,
		model.VariantWorkhouse: model.VariantWorkhouse,
		"":                     model.VariantWorkhouse,
	} {
		view, err := fix.facade.OpenEditFlow(context.Background(), fix.session, "K-1", requested)
		if err != nil {
			t.Fatalf("open edit %q: %v", requested, err)
		}
		if view.Variant != want || view.Draft.Variant != want {
			t.Fatalf("requested %q: expected variant %q, got %q/%q", requested, want, view.Variant, view.Draft.Variant)
		}
	}
}

func TestEditFlowRefusesFinishedOrders(t *testing.T) {
	fix := newFixture(t)
	fix.orders.GetFn = func(_ context.Context, key string) (*model.Order, error) {
		order := editableOrder(key)
		order.Status = model.OrderStatusFinished
		return order, nil
	}
	if _, err := fix.facade.OpenEditFlow(context.Background(), fix.session, "K-1", ""); !errors.Is(err, domainErrors.ErrAlreadyFinished) {
		t.Fatalf("expected ErrAlreadyFinished, got %v", err)
	}
	if fix.flows.Len() != 0 {
		t.Fatal("expected no flow opened")
	}
}

func TestCompleteOrderUsesSessionToken(t *testing.T) {
	fix := newFixture(t)

	err := fix.facade.CompleteOrder(context.Background(), fix.session, "K-1", nil, nil)
	if !errors.Is(err, domainErrors.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-admin, got %v", err)
	}

	fix.session.IsAdmin = true
	if err := fix.facade.CompleteOrder(context.Background(), fix.session, "K-1", nil, nil); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if fix.orders.StatusCount() != 1 || fix.orders.Statuses[0].Token != "api-token" {
		t.Fatalf("unexpected status calls %+v", fix.orders.Statuses)
	}

	fix.orders.GetFn = func(context.Context, string) (*model.Order, error) {
		return nil, &domainErrors.APIError{Status: 404}
	}
	notices := &usecase.Notices{}
	if err := fix.facade.CompleteOrder(context.Background(), fix.session, "K-2", nil, notices); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(notices.Items()) != 1 {
		t.Fatalf("expected a toast, got %+v", notices.Items())
	}
}

func TestDeleteOrderAndAssignments(t *testing.T) {
	fix := newFixture(t)
	fix.assignments.Assigned = map[string][]model.Assignment{"K-1": {{ID: 4, OperatorID: 1, OrderKey: "K-1"}}}
	ctx := context.Background()

	items, err := fix.facade.Assignments(ctx, "K-1")
	if err != nil || len(items) != 1 {
		t.Fatalf("unexpected assignments %+v %v", items, err)
	}
	if err := fix.facade.DeleteAssignment(ctx, 4, nil); err != nil {
		t.Fatalf("delete assignment: %v", err)
	}
	if len(fix.assignments.DeletedIDs) != 1 || fix.assignments.DeletedIDs[0] != 4 {
		t.Fatalf("unexpected deleted ids %v", fix.assignments.DeletedIDs)
	}
	if err := fix.facade.DeleteOrder(ctx, fix.session, "K-1", model.VariantStandard, nil); err != nil {
		t.Fatalf("delete order: %v", err)
	}
	if fix.orders.DeleteCount() != 1 {
		t.Fatal("expected order deleted")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	fix := newFixture(t)
	ctx := context.Background()

	session, token, err := fix.facade.Login(ctx, "dispatcher", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	resolved, err := fix.facade.Resolve(ctx, token)
	if err != nil || resolved.ID != session.ID {
		t.Fatalf("expected resolved session %q, got %+v %v", session.ID, resolved, err)
	}
	if err := fix.facade.Logout(ctx, resolved); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := fix.facade.Resolve(ctx, token); !errors.Is(err, domainErrors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after logout, got %v", err)
	}
}

type checkerStub struct{ err error }

func (c checkerStub) HealthCheck(context.Context) error { return c.err }
func (c checkerStub) Ping(context.Context) error        { return c.err }

func TestHealth(t *testing.T) {
	fix := newFixture(t)
	if err := fix.facade.Health(context.Background()); err != nil {
		t.Fatalf("expected healthy without checkers, got %v", err)
	}

	fix.facade.database = checkerStub{err: errors.New("db down")}
	fix.facade.cache = checkerStub{}
	err := fix.facade.Health(context.Background())
	if err == nil || !strings.Contains(err.Error(), "database") {
		t.Fatalf("expected database failure, got %v", err)
	}
}

func TestDueCompensationsLeasesRows(t *testing.T) {
	fix := newFixture(t)
	now := time.Now()
	fix.facade.now = func() time.Time { return now }
	_ = fix.pending.Record(context.Background(), model.PendingOrder{Key: "K-1", State: model.PendingStateCompensating, NextAttemptAt: now.Add(-time.Second)})

	due, err := fix.facade.DueCompensations(context.Background(), 5)
	if err != nil || len(due) != 1 {
		t.Fatalf("expected one due row, got %v %v", due, err)
	}
	again, err := fix.facade.DueCompensations(context.Background(), 5)
	if err != nil || len(again) != 0 {
		t.Fatalf("expected leased row hidden, got %v %v", again, err)
	}
}
