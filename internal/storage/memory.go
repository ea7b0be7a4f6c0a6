package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"myfinance/internal/core"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps everything in process memory. It backs the "memory" data
// backend for local development and is the fake of choice in tests.
type MemoryStore struct {
	mu           sync.RWMutex
	users        map[string]core.User          // by id
	usersByEmail map[string]string             // email -> id
	categories   map[string][]core.Category    // by user id
	transactions map[string][]core.Transaction // by user id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[string]core.User),
		usersByEmail: make(map[string]string),
		categories:   make(map[string][]core.Category),
		transactions: make(map[string][]core.Transaction),
	}
}

func (m *MemoryStore) Close() error { return nil }

// Users

func (m *MemoryStore) CreateUser(_ context.Context, u *core.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.usersByEmail[u.Email]; exists {
		return ErrDuplicateEmail
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	m.users[u.ID] = *u
	m.usersByEmail[u.Email] = u.ID
	return nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*core.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.usersByEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	u := m.users[id]
	return &u, nil
}

func (m *MemoryStore) GetUserByID(_ context.Context, id string) (*core.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

// Categories

func (m *MemoryStore) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]core.Category, len(m.categories[userID]))
	copy(out, m.categories[userID])
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (m *MemoryStore) CreateCategory(_ context.Context, userID string, c *core.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.categories[userID] {
		if existing.Name == c.Name {
			return ErrDuplicateCategory
		}
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	m.categories[userID] = append(m.categories[userID], *c)
	return nil
}

func (m *MemoryStore) UpdateCategory(_ context.Context, userID string, c core.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cats := m.categories[userID]
	for _, existing := range cats {
		if existing.ID != c.ID && existing.Name == c.Name {
			return ErrDuplicateCategory
		}
	}
	for i, existing := range cats {
		if existing.ID == c.ID {
			// Type never changes after creation.
			cats[i].Name = c.Name
			cats[i].Color = c.Color
			cats[i].Icon = c.Icon
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) DeleteCategory(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.transactions[userID] {
		if t.CategoryID == id {
			return ErrCategoryInUse
		}
	}
	cats := m.categories[userID]
	for i, c := range cats {
		if c.ID == id {
			m.categories[userID] = append(cats[:i], cats[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Transactions

func (m *MemoryStore) ListTransactions(_ context.Context, userID string, f TransactionFilter) ([]core.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []core.Transaction
	for _, t := range m.transactions[userID] {
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.CategoryID != "" && t.CategoryID != f.CategoryID {
			continue
		}
		if !f.From.IsZero() && t.Date.Before(f.From.Time) {
			continue
		}
		if !f.To.IsZero() && f.To.Before(t.Date.Time) {
			continue
		}
		out = append(out, m.withSnapshot(userID, t))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			if f.OrderAsc {
				return out[i].Date.Before(out[j].Date.Time)
			}
			return out[j].Date.Before(out[i].Date.Time)
		}
		if f.OrderAsc {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[j].CreatedAt.Before(out[i].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) GetTransaction(_ context.Context, userID, id string) (*core.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, t := range m.transactions[userID] {
		if t.ID == id {
			withSnap := m.withSnapshot(userID, t)
			return &withSnap, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateTransaction(_ context.Context, userID string, t *core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	stored := *t
	stored.Category = nil // snapshots are derived at read time
	m.transactions[userID] = append(m.transactions[userID], stored)
	return nil
}

func (m *MemoryStore) UpdateTransaction(_ context.Context, userID string, t core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	txs := m.transactions[userID]
	for i, existing := range txs {
		if existing.ID == t.ID {
			t.CreatedAt = existing.CreatedAt
			t.Category = nil
			txs[i] = t
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) DeleteTransaction(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	txs := m.transactions[userID]
	for i, t := range txs {
		if t.ID == id {
			m.transactions[userID] = append(txs[:i], txs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// withSnapshot is called with the lock held.
func (m *MemoryStore) withSnapshot(userID string, t core.Transaction) core.Transaction {
	for _, c := range m.categories[userID] {
		if c.ID == t.CategoryID {
			t.Category = &core.CategorySnapshot{Name: c.Name, Type: c.Type, Color: c.Color}
			return t
		}
	}
	t.Category = nil
	return t
}
