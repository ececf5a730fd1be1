package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	domainErrors "github.com/GS-Pro2025/movewise/internal/domain/errors"
	"github.com/GS-Pro2025/movewise/internal/domain/model"
	testhelpers "github.com/GS-Pro2025/movewise/internal/test"
)

func newTestCompensator(orders *testhelpers.OrderGatewayStub, pending *testhelpers.PendingOrderRepositoryStub, policy CompensationPolicy) *Compensator {
	c := NewCompensator(orders, &testhelpers.RepositoryFactoryStub{Pending: pending}, CompensatorOptions{
		Policy:      policy,
		MaxAttempts: 3,
		Backoff:     time.Second,
	}, testLogger())
	c.now = func() time.Time { return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestAbandonDeletesPendingOrder(t *testing.T) {
	orders := &testhelpers.OrderGatewayStub{}
	pending := testhelpers.NewPendingOrderRepositoryStub()
	_ = pending.Record(context.Background(), model.PendingOrder{Key: "K1", State: model.PendingStateAwaiting})
	c := newTestCompensator(orders, pending, PolicyConfirm)

	notices := &Notices{}
	if err := c.Abandon(context.Background(), "K1", notices); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if len(orders.Deleted) != 1 || orders.Deleted[0] != "K1" {
		t.Fatalf("expected delete of K1, got %v", orders.Deleted)
	}
	if pending.State("K1") != model.PendingStateCompensated {
		t.Fatalf("expected compensated, got %q", pending.State("K1"))
	}
	requireNotice(t, notices, model.NotificationInfo, "discarded")
}

func TestAbandonWithoutPendingKey(t *testing.T) {
	orders := &testhelpers.OrderGatewayStub{}
	c := newTestCompensator(orders, testhelpers.NewPendingOrderRepositoryStub(), PolicyConfirm)
	if err := c.Abandon(context.Background(), "", nil); !errors.Is(err, domainErrors.ErrNoPendingOrder) {
		t.Fatalf("expected no pending order, got %v", err)
	}
	if orders.DeleteCount() != 0 {
		t.Fatal("no delete expected")
	}
}

func TestAbandonTreatsMissingOrderAsDeleted(t *testing.T) {
	orders := &testhelpers.OrderGatewayStub{DeleteFn: func(context.Context, string) error {
		return &domainErrors.APIError{Status: 404}
	}}
	pending := testhelpers.NewPendingOrderRepositoryStub()
	_ = pending.Record(context.Background(), model.PendingOrder{Key: "K1", State: model.PendingStateAwaiting})
	c := newTestCompensator(orders, pending, PolicyConfirm)

	if err := c.Abandon(context.Background(), "K1", nil); err != nil {
		t.Fatalf("expected 404 to count as deleted, got %v", err)
	}
	if pending.State("K1") != model.PendingStateCompensated {
		t.Fatalf("unexpected state %q", pending.State("K1"))
	}
}

func TestAbandonFailurePolicies(t *testing.T) {
	failing := func(context.Context, string) error { return errors.New("network down") }

	t.Run("confirm queues a retry", func(t *testing.T) {
		pending := testhelpers.NewPendingOrderRepositoryStub()
		_ = pending.Record(context.Background(), model.PendingOrder{Key: "K1", State: model.PendingStateAwaiting})
		c := newTestCompensator(&testhelpers.OrderGatewayStub{DeleteFn: failing}, pending, PolicyConfirm)

		notices := &Notices{}
		if err := c.Abandon(context.Background(), "K1", notices); err == nil {
			t.Fatal("expected the delete failure to be returned")
		}
		requireNotice(t, notices, model.NotificationError, "Could not delete")
		row, _ := pending.Get(context.Background(), "K1")
		if row.State != model.PendingStateCompensating || row.Attempts != 1 || row.LastError != "network down" {
			t.Fatalf("unexpected row %+v", row)
		}
		if !row.NextAttemptAt.Equal(c.now().Add(time.Second)) {
			t.Fatalf("unexpected next attempt %v", row.NextAttemptAt)
		}
	})

	t.Run("confirm records unknown keys", func(t *testing.T) {
		pending := testhelpers.NewPendingOrderRepositoryStub()
		c := newTestCompensator(&testhelpers.OrderGatewayStub{DeleteFn: failing}, pending, PolicyConfirm)
		_ = c.Abandon(context.Background(), "K2", nil)
		if pending.State("K2") != model.PendingStateCompensating {
			t.Fatalf("expected queued compensation, got %q", pending.State("K2"))
		}
	})

	t.Run("fire and forget orphans", func(t *testing.T) {
		pending := testhelpers.NewPendingOrderRepositoryStub()
		_ = pending.Record(context.Background(), model.PendingOrder{Key: "K1", State: model.PendingStateAwaiting})
		c := newTestCompensator(&testhelpers.OrderGatewayStub{DeleteFn: failing}, pending, PolicyFireAndForget)

		if err := c.Abandon(context.Background(), "K1", nil); err == nil {
			t.Fatal("expected failure")
		}
		if pending.State("K1") != model.PendingStateOrphaned {
			t.Fatalf("expected orphaned, got %q", pending.State("K1"))
		}
	})
}

func TestAbandonSurvivesCancelledFlowContext(t *testing.T) {
	pending := testhelpers.NewPendingOrderRepositoryStub()
	_ = pending.Record(context.Background(), model.PendingOrder{Key: "K1", State: model.PendingStateAwaiting})
	orders := &testhelpers.OrderGatewayStub{DeleteFn: func(ctx context.Context, _ string) error { return ctx.Err() }}
	c := newTestCompensator(orders, pending, PolicyConfirm)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Abandon(ctx, "K1", nil); err == nil {
		t.Fatal("expected cancellation error")
	}
	if pending.State("K1") != model.PendingStateCompensating {
		t.Fatalf("expected retry queued despite cancelled context, got %q", pending.State("K1"))
	}
}

func TestRetry(t *testing.T) {
	pending := testhelpers.NewPendingOrderRepositoryStub()
	fail := true
	orders := &testhelpers.OrderGatewayStub{DeleteFn: func(context.Context, string) error {
		if fail {
			return errors.New("still down")
		}
		return nil
	}}
	c := newTestCompensator(orders, pending, PolicyConfirm)
	_ = pending.Record(context.Background(), model.PendingOrder{Key: "K1", State: model.PendingStateCompensating, Attempts: 1})

	entry, _ := pending.Get(context.Background(), "K1")
	if err := c.Retry(context.Background(), *entry); err == nil {
		t.Fatal("expected retry failure")
	}
	entry, _ = pending.Get(context.Background(), "K1")
	if entry.Attempts != 2 || entry.State != model.PendingStateCompensating {
		t.Fatalf("unexpected row after retry %+v", entry)
	}
	if !entry.NextAttemptAt.Equal(c.now().Add(2 * time.Second)) {
		t.Fatalf("expected doubled backoff, got %v", entry.NextAttemptAt)
	}

	if err := c.Retry(context.Background(), *entry); err == nil {
		t.Fatal("expected final failure")
	}
	if pending.State("K1") != model.PendingStateOrphaned {
		t.Fatalf("expected orphaned after max attempts, got %q", pending.State("K1"))
	}

	fail = false
	_ = pending.Record(context.Background(), model.PendingOrder{Key: "K3", State: model.PendingStateCompensating, Attempts: 2})
	if err := c.Retry(context.Background(), model.PendingOrder{Key: "K3", Attempts: 2}); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if pending.State("K3") != model.PendingStateCompensated {
		t.Fatalf("expected compensated, got %q", pending.State("K3"))
	}
}

func TestBackoffIsCapped(t *testing.T) {
	c := NewCompensator(&testhelpers.OrderGatewayStub{}, &testhelpers.RepositoryFactoryStub{}, CompensatorOptions{Backoff: 10 * time.Minute}, testLogger())
	cases := map[int]time.Duration{1: 10 * time.Minute, 2: 20 * time.Minute, 3: 40 * time.Minute, 4: time.Hour, 30: time.Hour}
	for attempts, want := range cases {
		if got := c.backoffFor(attempts); got != want {
			t.Fatalf("backoffFor(%d) = %v, want %v", attempts, got, want)
		}
	}
	if c.Policy() != PolicyConfirm {
		t.Fatalf("expected confirm default, got %q", c.Policy())
	}
}
