package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/GS-Pro2025/movewise/internal/domain/errors"
	"github.com/GS-Pro2025/movewise/internal/domain/model"
	"github.com/GS-Pro2025/movewise/internal/usecase"
)

// Flow is the server-held state of one creation or edit screen. Its context
// is cancelled when the flow closes, which aborts every call still bound to it.
type Flow struct {
	id      string
	kind    model.FlowKind
	owner   string
	variant model.Variant

	ctx    context.Context
	cancel context.CancelFunc

	location *usecase.LocationResolver

	mu         sync.Mutex
	busy       bool
	draft      model.OrderDraft
	pendingKey string
	orderKey   string
	assignment *usecase.AssignmentSession
	lastUsed   time.Time
}

// ID returns the flow identifier.
func (f *Flow) ID() string { return f.id }

// bind derives a context that ends when either ctx or the flow ends.
func (f *Flow) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(f.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// acquire marks the flow busy; a second mutating call gets ErrBusy.
func (f *Flow) acquire() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ctx.Err() != nil {
		return domainErrors.ErrFlowNotFound
	}
	if f.busy {
		return domainErrors.ErrBusy
	}
	f.busy = true
	return nil
}

func (f *Flow) isBusy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

func (f *Flow) release() {
	f.mu.Lock()
	f.busy = false
	f.mu.Unlock()
}

func (f *Flow) view() model.FlowView {
	f.mu.Lock()
	v := model.FlowView{
		ID:         f.id,
		Kind:       f.kind,
		Variant:    f.variant,
		Draft:      f.draft,
		PendingKey: f.pendingKey,
		OrderKey:   f.orderKey,
		Busy:       f.busy,
	}
	session := f.assignment
	f.mu.Unlock()

	v.Location = f.location.Snapshot()
	v.Draft.Country, v.Draft.State, v.Draft.City = f.location.Values()
	if session != nil {
		snap := session.Snapshot()
		v.Assignment = &snap
	}
	return v
}

// FlowRegistry holds open flows keyed by id.
type FlowRegistry struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	flows map[string]*Flow
}

// NewFlowRegistry constructs FlowRegistry. Flows untouched for ttl are expired.
func NewFlowRegistry(ttl time.Duration) *FlowRegistry {
	return &FlowRegistry{ttl: ttl, now: time.Now, flows: map[string]*Flow{}}
}

// Open registers a new flow owned by the session owner.
func (r *FlowRegistry) Open(owner string, kind model.FlowKind, variant model.Variant, location *usecase.LocationResolver) *Flow {
	ctx, cancel := context.WithCancel(context.Background())
	f := &Flow{
		id:       uuid.NewString(),
		kind:     kind,
		owner:    owner,
		variant:  variant,
		ctx:      ctx,
		cancel:   cancel,
		location: location,
		draft:    model.OrderDraft{Variant: variant},
		lastUsed: r.now(),
	}

	r.mu.Lock()
	r.flows[f.id] = f
	r.mu.Unlock()
	return f
}

// Get returns the flow id owned by owner and refreshes its idle timer.
func (r *FlowRegistry) Get(id, owner string) (*Flow, error) {
	r.mu.Lock()
	f, ok := r.flows[id]
	r.mu.Unlock()
	if !ok || f.owner != owner {
		return nil, domainErrors.ErrFlowNotFound
	}
	f.mu.Lock()
	f.lastUsed = r.now()
	f.mu.Unlock()
	return f, nil
}

// Close removes the flow and cancels its context. It returns nil when the
// flow was already closed.
func (r *FlowRegistry) Close(id string) *Flow {
	r.mu.Lock()
	f, ok := r.flows[id]
	delete(r.flows, id)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	f.cancel()
	return f
}

// Expire closes and returns every idle flow.
func (r *FlowRegistry) Expire() []*Flow {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var expired []*Flow
	for id, f := range r.flows {
		f.mu.Lock()
		idle := !f.busy && f.lastUsed.Before(cutoff)
		f.mu.Unlock()
		if idle {
			delete(r.flows, id)
			expired = append(expired, f)
		}
	}
	r.mu.Unlock()

	for _, f := range expired {
		f.cancel()
	}
	return expired
}

// CloseAll cancels every open flow.
func (r *FlowRegistry) CloseAll() {
	r.mu.Lock()
	flows := r.flows
	r.flows = map[string]*Flow{}
	r.mu.Unlock()
	for _, f := range flows {
		f.cancel()
	}
}

// Len returns the number of open flows.
func (r *FlowRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flows)
}
