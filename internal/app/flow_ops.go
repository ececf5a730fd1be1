package app

import (
	"context"
	"log/slog"

	domainErrors "github.com/GS-Pro2025/movewise/internal/domain/errors"
	"github.com/GS-Pro2025/movewise/internal/domain/model"
	"github.com/GS-Pro2025/movewise/internal/usecase"
)

const draftTicketField = "dispatchTicket"

func (f *Flow) pending() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pendingKey
}

func (f *Flow) session() *usecase.AssignmentSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.assignment
}

func (f *Flow) currentDraft() model.OrderDraft {
	f.mu.Lock()
	draft := f.draft
	f.mu.Unlock()
	draft.Country, draft.State, draft.City = f.location.Values()
	return draft
}

func (d *DispatchFacade) flow(session *model.Session, id string, kind model.FlowKind) (*Flow, error) {
	flow, err := d.flows.Get(id, session.ID)
	if err != nil {
		return nil, err
	}
	if kind != "" && flow.kind != kind {
		return nil, domainErrors.ErrFlowKind
	}
	return flow, nil
}

// exclusive runs fn while holding the flow's busy flag and returns the view
// after the flag is released.
func (d *DispatchFacade) exclusive(flow *Flow, fn func() error) (model.FlowView, error) {
	if err := flow.acquire(); err != nil {
		return flow.view(), err
	}
	err := fn()
	flow.release()
	return flow.view(), err
}

func (d *DispatchFacade) assignmentSession(session *model.Session, id string) (*Flow, *usecase.AssignmentSession, error) {
	flow, err := d.flow(session, id, model.FlowCreation)
	if err != nil {
		return nil, nil, err
	}
	as := flow.session()
	if as == nil {
		return nil, nil, domainErrors.ErrNoPendingOrder
	}
	return flow, as, nil
}

// OpenOrderFlow starts a creation flow and loads the country options.
func (d *DispatchFacade) OpenOrderFlow(ctx context.Context, session *model.Session, variant model.Variant) (model.FlowView, error) {
	if !variant.IsValid() {
		variant = model.VariantWorkhouse
	}
	flow := d.flows.Open(session.ID, model.FlowCreation, variant, usecase.NewLocationResolver(d.directory))

	bctx, cancel := flow.bind(ctx)
	defer cancel()
	if err := flow.location.Load(bctx); err != nil {
		d.logger.Warn("country options unavailable", slog.String("flow", flow.id), slog.String("error", err.Error()))
	}
	return flow.view(), nil
}

// Flow returns the current view of flow id.
func (d *DispatchFacade) Flow(_ context.Context, session *model.Session, id string) (model.FlowView, error) {
	flow, err := d.flow(session, id, "")
	if err != nil {
		return model.FlowView{}, err
	}
	return flow.view(), nil
}

// UpdateDraft replaces the free-text fields of the draft and returns the
// per-field problems of the result. Location and dispatch ticket have their
// own operations.
func (d *DispatchFacade) UpdateDraft(_ context.Context, session *model.Session, id string, patch model.OrderDraft) (model.FlowView, map[string]string, error) {
	flow, err := d.flow(session, id, "")
	if err != nil {
		return model.FlowView{}, nil, err
	}

	flow.mu.Lock()
	if flow.busy {
		flow.mu.Unlock()
		return flow.view(), nil, domainErrors.ErrBusy
	}
	draft := &flow.draft
	draft.Date = patch.Date
	draft.Reference = patch.Reference
	draft.FirstName = patch.FirstName
	draft.LastName = patch.LastName
	draft.Email = patch.Email
	draft.Phone = patch.Phone
	draft.Address = patch.Address
	draft.Weight = patch.Weight
	draft.JobID = patch.JobID
	draft.CompanyID = patch.CompanyID
	flow.mu.Unlock()

	return flow.view(), d.validator.Check(flow.currentDraft()), nil
}

// AttachTicket probes img and stores it as the dispatch ticket. Unreadable
// and oversized images are rejected without replacing the current ticket.
func (d *DispatchFacade) AttachTicket(_ context.Context, session *model.Session, id string, img model.Image) (model.FlowView, error) {
	flow, err := d.flow(session, id, "")
	if err != nil {
		return model.FlowView{}, err
	}

	return d.exclusive(flow, func() error {
		probed, err := d.images.Probe(img)
		if err != nil {
			return &domainErrors.ValidationError{
				Fields: map[string]string{draftTicketField: usecase.CodeInvalidImage},
				Cause:  err,
			}
		}
		switch code := d.validator.Check(model.OrderDraft{DispatchTicket: &probed})[draftTicketField]; code {
		case "":
		case usecase.CodeImageTooLarge:
			return &domainErrors.ValidationError{Fields: map[string]string{draftTicketField: code}, Cause: domainErrors.ErrImageTooLarge}
		default:
			return &domainErrors.ValidationError{Fields: map[string]string{draftTicketField: code}}
		}

		flow.mu.Lock()
		flow.draft.DispatchTicket = &probed
		flow.mu.Unlock()
		return nil
	})
}

// SelectLocation applies a user-driven change to one location level. Changes
// are refused while a submit or another exclusive operation is running.
// Selections may overlap each other; the resolver discards stale results.
func (d *DispatchFacade) SelectLocation(ctx context.Context, session *model.Session, id string, level model.LocationLevel, value string) (model.FlowView, error) {
	flow, err := d.flow(session, id, "")
	if err != nil {
		return model.FlowView{}, err
	}
	if flow.isBusy() {
		return flow.view(), domainErrors.ErrBusy
	}
	bctx, cancel := flow.bind(ctx)
	defer cancel()
	err = flow.location.Select(bctx, level, value)
	return flow.view(), err
}

// SubmitOrder creates the order of a creation flow and opens its assignment
// session. The draft is reset only on success.
func (d *DispatchFacade) SubmitOrder(ctx context.Context, session *model.Session, id string, n usecase.Notifier) (model.FlowView, error) {
	flow, err := d.flow(session, id, model.FlowCreation)
	if err != nil {
		return model.FlowView{}, err
	}
	return d.exclusive(flow, func() error {
		if flow.pending() != "" {
			return domainErrors.ErrFlowKind
		}
		draft := flow.currentDraft()

		bctx, cancel := flow.bind(ctx)
		defer cancel()
		as, err := d.coordinator.Submit(bctx, flow.id, &draft, session.Capability(), n)
		if err != nil {
			return err
		}

		if err := flow.location.SelectCountry(bctx, ""); err != nil {
			d.logger.Warn("reset location failed", slog.String("flow", flow.id), slog.String("error", err.Error()))
		}
		flow.mu.Lock()
		flow.draft = draft
		flow.pendingKey = as.OrderKey()
		flow.assignment = as
		flow.mu.Unlock()
		return nil
	})
}

// Operators loads one page of the operator list.
func (d *DispatchFacade) Operators(ctx context.Context, session *model.Session, id string, page int, search string) (model.OperatorPage, error) {
	flow, as, err := d.assignmentSession(session, id)
	if err != nil {
		return model.OperatorPage{}, err
	}
	bctx, cancel := flow.bind(ctx)
	defer cancel()
	return as.LoadOperators(bctx, page, search)
}

func (d *DispatchFacade) FindFreelancer(ctx context.Context, session *model.Session, id, code string) (*model.Operator, error) {
	flow, as, err := d.assignmentSession(session, id)
	if err != nil {
		return nil, err
	}
	bctx, cancel := flow.bind(ctx)
	defer cancel()
	return as.FindFreelancer(bctx, code)
}

func (d *DispatchFacade) ToggleOperator(_ context.Context, session *model.Session, id string, operatorID int64) (model.FlowView, error) {
	flow, as, err := d.assignmentSession(session, id)
	if err != nil {
		return model.FlowView{}, err
	}
	_, err = as.Toggle(operatorID)
	return flow.view(), err
}

func (d *DispatchFacade) SetAssignmentView(_ context.Context, session *model.Session, id string, view model.AssignmentView) (model.FlowView, error) {
	flow, as, err := d.assignmentSession(session, id)
	if err != nil {
		return model.FlowView{}, err
	}
	err = as.SetView(view)
	return flow.view(), err
}

// Assign submits the selection. The flow closes when the caller is an admin;
// the returned flag reports whether it did.
func (d *DispatchFacade) Assign(ctx context.Context, session *model.Session, id, note string, n usecase.Notifier) (model.FlowView, bool, error) {
	flow, as, err := d.assignmentSession(session, id)
	if err != nil {
		return model.FlowView{}, false, err
	}

	closeFlow := false
	view, err := d.exclusive(flow, func() error {
		bctx, cancel := flow.bind(ctx)
		defer cancel()
		shouldClose, err := as.Submit(bctx, note, n)
		if err != nil {
			return err
		}
		flow.mu.Lock()
		flow.pendingKey = ""
		flow.mu.Unlock()
		closeFlow = shouldClose
		return nil
	})
	if err == nil && closeFlow {
		d.flows.Close(flow.id)
	}
	return view, closeFlow, err
}

func (d *DispatchFacade) CreateFreelancer(ctx context.Context, session *model.Session, id string, form model.FreelancerForm, n usecase.Notifier) (model.FlowView, *model.Operator, error) {
	flow, as, err := d.assignmentSession(session, id)
	if err != nil {
		return model.FlowView{}, nil, err
	}

	var created *model.Operator
	view, err := d.exclusive(flow, func() error {
		bctx, cancel := flow.bind(ctx)
		defer cancel()
		created, err = as.CreateFreelancer(bctx, form, n)
		return err
	})
	return view, created, err
}

// CloseFlow cancels the flow's in-flight work and, when an order created by
// the flow is still unassigned, hands it to the compensator. The flow is
// closed whatever the compensation outcome.
func (d *DispatchFacade) CloseFlow(ctx context.Context, session *model.Session, id string, n usecase.Notifier) error {
	if _, err := d.flow(session, id, ""); err != nil {
		return err
	}
	flow := d.flows.Close(id)
	if flow == nil {
		return domainErrors.ErrFlowNotFound
	}
	key := flow.pending()
	if key == "" {
		return nil
	}
	return d.compensator.Abandon(ctx, key, n)
}

// OpenEditFlow loads key into an edit flow of the given variant. Finished and
// inactive orders cannot be edited.
func (d *DispatchFacade) OpenEditFlow(ctx context.Context, session *model.Session, key string, variant model.Variant) (model.FlowView, error) {
	order, err := d.editor.Open(ctx, key)
	if err != nil {
		return model.FlowView{}, err
	}
	if !variant.IsValid() {
		variant = model.VariantWorkhouse
	}

	flow := d.flows.Open(session.ID, model.FlowEdit, variant, usecase.NewLocationResolver(d.directory))
	flow.mu.Lock()
	flow.draft = usecase.DraftFromOrder(*order, variant)
	flow.orderKey = order.Key
	flow.mu.Unlock()

	bctx, cancel := flow.bind(ctx)
	defer cancel()
	if err := flow.location.Prepopulate(bctx, order.Location); err != nil {
		d.logger.Warn("location options unavailable", slog.String("flow", flow.id), slog.String("error", err.Error()))
	}
	return flow.view(), nil
}

// SaveEdit applies the edit draft; the flow closes on success.
func (d *DispatchFacade) SaveEdit(ctx context.Context, session *model.Session, id string, n usecase.Notifier) (model.FlowView, error) {
	flow, err := d.flow(session, id, model.FlowEdit)
	if err != nil {
		return model.FlowView{}, err
	}
	view, err := d.exclusive(flow, func() error {
		bctx, cancel := flow.bind(ctx)
		defer cancel()
		return d.editor.Save(bctx, flow.orderKey, flow.currentDraft(), n)
	})
	if err == nil {
		d.flows.Close(flow.id)
	}
	return view, err
}
