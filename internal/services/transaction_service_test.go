package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"myfinance/internal/amqp"
	"myfinance/internal/core"
	"myfinance/internal/storage"
)

type recordingPublisher struct {
	events []string
	err    error
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, _, transactionID, action string) error {
	p.events = append(p.events, action+":"+transactionID)
	return p.err
}

func newTransactionFixture(t *testing.T) (*TransactionService, *recordingPublisher, *countingStore, string) {
	t.Helper()
	inner := storage.NewMemoryStore()
	userID := seedDashboardData(t, inner)
	store := &countingStore{Store: inner}
	pub := &recordingPublisher{}
	dashboards := NewDashboardService(store, newSnapshotCache(), time.UTC)
	return NewTransactionService(store, pub, dashboards), pub, store, userID
}

func TestCreatePublishesAndInvalidates(t *testing.T) {
	svc, pub, store, userID := newTransactionFixture(t)
	ctx := context.Background()

	dashboards := svc.dashboards
	if _, err := dashboards.Fetch(ctx, userID, 2025, time.July); err != nil {
		t.Fatalf("warm Fetch: %v", err)
	}

	cats, _ := store.ListCategories(ctx, userID)
	tx := &core.Transaction{
		Type:       core.Expense,
		Amount:     core.Money{Units: 50_000},
		CategoryID: cats[0].ID,
		Date:       date(t, "2025-07-20"),
	}
	if err := svc.Create(ctx, userID, tx); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tx.ID == "" {
		t.Error("Create did not assign an ID")
	}
	if len(pub.events) != 1 || pub.events[0] != amqp.ActionCreated+":"+tx.ID {
		t.Errorf("events = %v", pub.events)
	}

	// The warm snapshot must have been invalidated by the write.
	before := store.listCalls.Load()
	if _, err := dashboards.Fetch(ctx, userID, 2025, time.July); err != nil {
		t.Fatalf("Fetch after write: %v", err)
	}
	if store.listCalls.Load() != before+1 {
		t.Error("dashboard served a stale cached snapshot after a write")
	}
}

func TestCreateRejectsInvalidTransaction(t *testing.T) {
	svc, pub, _, userID := newTransactionFixture(t)

	tx := &core.Transaction{
		Type:       core.Expense,
		Amount:     core.Money{Units: 0}, // invalid
		CategoryID: "cat",
		Date:       date(t, "2025-07-20"),
	}
	if err := svc.Create(context.Background(), userID, tx); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("Create error = %v, want ErrInvalidAmount", err)
	}
	if len(pub.events) != 0 {
		t.Errorf("invalid create still published: %v", pub.events)
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	svc, pub, store, userID := newTransactionFixture(t)
	pub.err = errors.New("broker down")
	ctx := context.Background()

	cats, _ := store.ListCategories(ctx, userID)
	tx := &core.Transaction{
		Type:       core.Expense,
		Amount:     core.Money{Units: 10_000},
		CategoryID: cats[0].ID,
		Date:       date(t, "2025-07-21"),
	}
	if err := svc.Create(ctx, userID, tx); err != nil {
		t.Fatalf("Create with failing publisher: %v", err)
	}
	if _, err := svc.Get(ctx, userID, tx.ID); err != nil {
		t.Errorf("transaction not persisted: %v", err)
	}
}

func TestUpdateAndDeletePublish(t *testing.T) {
	svc, pub, store, userID := newTransactionFixture(t)
	ctx := context.Background()

	cats, _ := store.ListCategories(ctx, userID)
	tx := &core.Transaction{
		Type:       core.Expense,
		Amount:     core.Money{Units: 10_000},
		CategoryID: cats[0].ID,
		Date:       date(t, "2025-07-21"),
	}
	if err := svc.Create(ctx, userID, tx); err != nil {
		t.Fatalf("Create: %v", err)
	}

	tx.Amount = core.Money{Units: 20_000}
	upd := *tx
	upd.Category = nil
	if err := svc.Update(ctx, userID, upd); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := svc.Delete(ctx, userID, tx.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	want := []string{
		amqp.ActionCreated + ":" + tx.ID,
		amqp.ActionUpdated + ":" + tx.ID,
		amqp.ActionDeleted + ":" + tx.ID,
	}
	if len(pub.events) != len(want) {
		t.Fatalf("events = %v, want %v", pub.events, want)
	}
	for i := range want {
		if pub.events[i] != want[i] {
			t.Errorf("events[%d] = %s, want %s", i, pub.events[i], want[i])
		}
	}

	if err := svc.Delete(ctx, userID, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("delete missing error = %v, want ErrNotFound", err)
	}
}
