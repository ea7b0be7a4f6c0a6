// Package services orchestrates storage, messaging and the aggregation core
// behind the HTTP handlers.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"myfinance/internal/cache"
	"myfinance/internal/core"
	"myfinance/internal/log"
	"myfinance/internal/metrics"
	"myfinance/internal/storage"
)

// DashboardSnapshot is everything one dashboard view needs, computed in a
// single pass over the user's data.
type DashboardSnapshot struct {
	Year         int                `json:"year"`
	Month        int                `json:"month"`
	Balance      int64              `json:"balance"`
	MonthIncome  int64              `json:"month_income"`
	MonthExpense int64              `json:"month_expense"`
	ByCategory   []core.CategorySum `json:"by_category"`
	Trend        []core.TrendPoint  `json:"trend"`
	Recent       []core.Transaction `json:"recent"`
}

// DashboardService computes dashboard snapshots. Results are cached per user
// and month; a generation counter makes sure an in-flight fetch that was
// superseded by a newer one (or by a write) never commits a stale snapshot.
type DashboardService struct {
	store  storage.Store
	snaps  *cache.LRUCache[DashboardSnapshot]
	loc    *time.Location
	logger *log.Logger

	mu   sync.Mutex
	gens map[string]uint64
}

func NewDashboardService(store storage.Store, snaps *cache.LRUCache[DashboardSnapshot], loc *time.Location) *DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardService{
		store:  store,
		snaps:  snaps,
		loc:    loc,
		logger: log.WithComponent(log.ComponentDashboard),
		gens:   make(map[string]uint64),
	}
}

// Fetch returns the snapshot for the given user and calendar month, from the
// cache when warm. Concurrent fetches for the same user all complete, but only
// the latest one is allowed to populate the cache.
func (s *DashboardService) Fetch(ctx context.Context, userID string, year int, month time.Month) (*DashboardSnapshot, error) {
	gen := s.beginFetch(userID)

	key := snapshotKey(userID, year, month)
	if snap, ok := s.snaps.Get(key); ok {
		return &snap, nil
	}

	var (
		categories []core.Category
		txs        []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = s.store.ListCategories(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = s.store.ListTransactions(gctx, userID, storage.TransactionFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		// Errors never clobber a previously cached snapshot.
		return nil, fmt.Errorf("fetch dashboard data: %w", err)
	}

	metrics.ObserveSnapshotBuild()

	monthTxs := core.FilterMonth(txs, year, month, s.loc)
	income, expense := core.MonthTotals(monthTxs)
	anchor := time.Date(year, month, 1, 0, 0, 0, 0, s.loc)

	snap := DashboardSnapshot{
		Year:         year,
		Month:        int(month),
		Balance:      core.Balance(txs),
		MonthIncome:  income,
		MonthExpense: expense,
		ByCategory:   core.SumByCategory(monthTxs, categories),
		Trend:        core.BuildTrend(txs, anchor, s.loc),
		Recent:       core.Recent(txs, core.RecentLimit),
	}

	if s.isCurrent(userID, gen) {
		s.snaps.Set(key, snap)
	} else {
		s.logger.DebugContext(ctx, "discarding superseded snapshot",
			log.FieldUserID, userID, "generation", gen)
	}
	return &snap, nil
}

// Invalidate drops every cached snapshot for the user and supersedes any
// fetch still in flight. Called after each write so the next dashboard read
// recomputes.
func (s *DashboardService) Invalidate(userID string) {
	s.beginFetch(userID)
	s.snaps.DeletePrefix(userID + ":")
}

// beginFetch bumps and returns the user's fetch generation.
func (s *DashboardService) beginFetch(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[userID]++
	return s.gens[userID]
}

func (s *DashboardService) isCurrent(userID string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[userID] == gen
}

func snapshotKey(userID string, year int, month time.Month) string {
	return fmt.Sprintf("%s:%04d-%02d", userID, year, int(month))
}
