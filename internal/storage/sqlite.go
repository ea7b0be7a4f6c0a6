package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	"myfinance/internal/core"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and runs
// migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Users

func (s *SQLiteStore) CreateUser(ctx context.Context, u *core.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, email, name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	return s.getUser(ctx, "SELECT id, email, name, password_hash, created_at FROM users WHERE email = ?", email)
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	return s.getUser(ctx, "SELECT id, email, name, password_hash, created_at FROM users WHERE id = ?", id)
}

func (s *SQLiteStore) getUser(ctx context.Context, query, arg string) (*core.User, error) {
	var u core.User
	var createdAt string
	err := s.db.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = parseStoredTime(createdAt)
	return &u, nil
}

// Categories

func (s *SQLiteStore) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, type, color, icon FROM categories WHERE user_id = ? ORDER BY name",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var icon string
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.Color, &icon); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Icon = core.ParseIcon(icon)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) CreateCategory(ctx context.Context, userID string, c *core.Category) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO categories (id, user_id, name, type, color, icon) VALUES (?, ?, ?, ?, ?, ?)",
		c.ID, userID, c.Name, string(c.Type), c.Color, string(c.Icon),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return ErrDuplicateCategory
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// UpdateCategory changes name, color and icon. Type is fixed at creation and
// deliberately not part of the UPDATE.
func (s *SQLiteStore) UpdateCategory(ctx context.Context, userID string, c core.Category) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE categories SET name = ?, color = ?, icon = ? WHERE id = ? AND user_id = ?",
		c.Name, c.Color, string(c.Icon), c.ID, userID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return ErrDuplicateCategory
		}
		return fmt.Errorf("update category: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteCategory(ctx context.Context, userID, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete category: %w", err)
	}
	defer tx.Rollback()

	var refs int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE user_id = ? AND category_id = ?",
		userID, id,
	).Scan(&refs)
	if err != nil {
		return fmt.Errorf("count category references: %w", err)
	}
	if refs > 0 {
		return ErrCategoryInUse
	}

	res, err := tx.ExecContext(ctx,
		"DELETE FROM categories WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete category: %w", err)
	}
	return nil
}

// Transactions

const txSelect = `SELECT t.id, t.type, t.amount_units, t.category_id, t.transaction_date, t.notes, t.created_at,
	c.name, c.type, c.color
FROM transactions t
LEFT JOIN categories c ON c.id = t.category_id AND c.user_id = t.user_id`

func (s *SQLiteStore) ListTransactions(ctx context.Context, userID string, f TransactionFilter) ([]core.Transaction, error) {
	query := txSelect + " WHERE t.user_id = ?"
	args := []any{userID}

	if f.Type != "" {
		query += " AND t.type = ?"
		args = append(args, string(f.Type))
	}
	if f.CategoryID != "" {
		query += " AND t.category_id = ?"
		args = append(args, f.CategoryID)
	}
	if !f.From.IsZero() {
		query += " AND t.transaction_date >= ?"
		args = append(args, f.From.String())
	}
	if !f.To.IsZero() {
		query += " AND t.transaction_date <= ?"
		args = append(args, f.To.String())
	}

	if f.OrderAsc {
		query += " ORDER BY t.transaction_date ASC, t.created_at ASC"
	} else {
		query += " ORDER BY t.transaction_date DESC, t.created_at DESC"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) GetTransaction(ctx context.Context, userID, id string) (*core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, txSelect+" WHERE t.user_id = ? AND t.id = ?", userID, id)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get transaction: %w", err)
		}
		return nil, ErrNotFound
	}
	t, err := scanTransaction(rows)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *SQLiteStore) CreateTransaction(ctx context.Context, userID string, t *core.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, type, amount_units, category_id, transaction_date, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, userID, string(t.Type), t.Amount.Units, t.CategoryID, t.Date.String(), t.Notes,
		t.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateTransaction(ctx context.Context, userID string, t core.Transaction) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET type = ?, amount_units = ?, category_id = ?, transaction_date = ?, notes = ?
		WHERE id = ? AND user_id = ?`,
		string(t.Type), t.Amount.Units, t.CategoryID, t.Date.String(), t.Notes, t.ID, userID,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM transactions WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(r rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var typ, date, createdAt string
	var catName, catType, catColor sql.NullString
	err := r.Scan(&t.ID, &typ, &t.Amount.Units, &t.CategoryID, &date, &t.Notes, &createdAt,
		&catName, &catType, &catColor)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	t.Type = core.TxType(typ)
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored date %q: %w", date, err)
	}
	t.Date = d
	t.CreatedAt = parseStoredTime(createdAt)

	if catName.Valid {
		t.Category = &core.CategorySnapshot{
			Name:  catName.String,
			Type:  core.TxType(catType.String),
			Color: catColor.String,
		}
	}
	return t, nil
}

func parseStoredTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
