// Package storage persists users, categories and transactions.
package storage

import (
	"context"
	"errors"

	"myfinance/internal/core"
)

var (
	// ErrNotFound is returned when a row does not exist or belongs to a
	// different user.
	ErrNotFound = errors.New("record not found")

	// ErrCategoryInUse refuses category deletion while transactions still
	// reference it.
	ErrCategoryInUse = errors.New("category still referenced by transactions")

	// ErrDuplicateEmail is returned when registering an email twice.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrDuplicateCategory is returned when a user reuses a category name.
	ErrDuplicateCategory = errors.New("category name already exists")
)

// TransactionFilter narrows ListTransactions. Zero values mean "no filter".
type TransactionFilter struct {
	Type       core.TxType
	CategoryID string
	From       core.Date
	To         core.Date
	OrderAsc   bool
}

// Store is the persistence surface for one backing database. All operations
// are scoped by the owning user identifier; a row owned by someone else
// behaves as if it did not exist.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *core.User) error
	GetUserByEmail(ctx context.Context, email string) (*core.User, error)
	GetUserByID(ctx context.Context, id string) (*core.User, error)

	// Categories
	ListCategories(ctx context.Context, userID string) ([]core.Category, error)
	CreateCategory(ctx context.Context, userID string, c *core.Category) error
	UpdateCategory(ctx context.Context, userID string, c core.Category) error
	// DeleteCategory fails with ErrCategoryInUse while any transaction
	// references the category.
	DeleteCategory(ctx context.Context, userID, id string) error

	// Transactions. Listed rows carry an embedded category snapshot, or a
	// nil snapshot when the reference is dangling.
	ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, userID, id string) (*core.Transaction, error)
	CreateTransaction(ctx context.Context, userID string, t *core.Transaction) error
	UpdateTransaction(ctx context.Context, userID string, t core.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id string) error

	Close() error
}
