// Package backend assembles the storage layer and services from
// configuration.
package backend

import (
	"fmt"
	"time"

	"myfinance/internal/amqp"
	"myfinance/internal/cache"
	"myfinance/internal/config"
	"myfinance/internal/log"
	"myfinance/internal/services"
	"myfinance/internal/storage"
)

// Type identifies a storage backend.
type Type string

const (
	TypeSQLite Type = "sqlite"
	TypeMemory Type = "memory"
)

func (t Type) String() string { return string(t) }

// IsValid reports whether the backend type is one we can build.
func (t Type) IsValid() bool {
	switch t {
	case TypeSQLite, TypeMemory:
		return true
	default:
		return false
	}
}

const (
	snapshotCacheSize = 512
	snapshotTTL       = 5 * time.Minute
	cleanupInterval   = time.Minute
)

// Result holds the assembled backend. Cleanup releases everything Build
// acquired and is safe to call exactly once.
type Result struct {
	Store        storage.Store
	Events       *amqp.Client // nil when AMQP is disabled
	Transactions *services.TransactionService
	Dashboards   *services.DashboardService
	Cleanup      func() error
}

// Build wires the store, the optional AMQP publisher and the services from
// the application config. A broker that is down at startup is logged and
// skipped, the API keeps working without export events.
func Build(cfg *config.Config) (*Result, error) {
	logger := log.WithComponent(log.ComponentApp)

	store, closeStore, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}

	var events *amqp.Client
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("amqp broker unavailable, continuing without export events", log.FieldError, err)
		} else {
			logger.Info("amqp publisher ready",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
			events = client
			publisher = client
		}
	}

	snaps := cache.NewLRUCache[services.DashboardSnapshot](snapshotCacheSize, snapshotTTL)
	caches := cache.NewManager()
	caches.Register(snaps)
	caches.StartCleanup(cleanupInterval)

	dashboards := services.NewDashboardService(store, snaps, cfg.Location())
	transactions := services.NewTransactionService(store, publisher, dashboards)

	logger.Info("backend ready",
		"backend", cfg.DataBackend,
		"amqp_enabled", events != nil)

	return &Result{
		Store:        store,
		Events:       events,
		Transactions: transactions,
		Dashboards:   dashboards,
		Cleanup: func() error {
			caches.Stop()
			if events != nil {
				_ = events.Close()
			}
			return closeStore()
		},
	}, nil
}

func buildStore(cfg *config.Config) (storage.Store, func() error, error) {
	switch Type(cfg.DataBackend) {
	case TypeSQLite:
		s, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return s, s.Close, nil
	case TypeMemory:
		return storage.NewMemoryStore(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported data backend %q", cfg.DataBackend)
	}
}
