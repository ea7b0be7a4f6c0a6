package services

import (
	"context"
	"fmt"

	"myfinance/internal/amqp"
	"myfinance/internal/core"
	"myfinance/internal/log"
	"myfinance/internal/storage"
)

// EventPublisher publishes transaction export events. Nil-able: without a
// broker the service simply skips publishing.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, userID, transactionID, action string) error
}

// TransactionService orchestrates transaction writes: validate, persist,
// invalidate cached dashboards, then publish the export event. Publishing is
// best-effort; a broker outage never fails the request.
type TransactionService struct {
	store      storage.Store
	events     EventPublisher
	dashboards *DashboardService
	logger     *log.Logger
}

func NewTransactionService(store storage.Store, events EventPublisher, dashboards *DashboardService) *TransactionService {
	return &TransactionService{
		store:      store,
		events:     events,
		dashboards: dashboards,
		logger:     log.WithComponent(log.ComponentStorage),
	}
}

func (s *TransactionService) List(ctx context.Context, userID string, f storage.TransactionFilter) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, userID, f)
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (*core.Transaction, error) {
	return s.store.GetTransaction(ctx, userID, id)
}

func (s *TransactionService) Create(ctx context.Context, userID string, t *core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := s.store.CreateTransaction(ctx, userID, t); err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	s.afterWrite(ctx, userID, t.ID, amqp.ActionCreated)
	return nil
}

func (s *TransactionService) Update(ctx context.Context, userID string, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateTransaction(ctx, userID, t); err != nil {
		return err
	}
	s.afterWrite(ctx, userID, t.ID, amqp.ActionUpdated)
	return nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	s.afterWrite(ctx, userID, id, amqp.ActionDeleted)
	return nil
}

func (s *TransactionService) afterWrite(ctx context.Context, userID, txID, action string) {
	s.dashboards.Invalidate(userID)

	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionEvent(ctx, userID, txID, action); err != nil {
		s.logger.WarnContext(ctx, "export event not published",
			log.FieldTxID, txID,
			"action", action,
			log.FieldError, err)
	}
}
