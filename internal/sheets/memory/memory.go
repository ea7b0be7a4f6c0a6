// Package memory is the in-process RowAppender used in tests and when no
// spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"myfinance/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []sheets.ExportRow
}

var _ sheets.RowAppender = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Append stores the row and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, row sheets.ExportRow) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []sheets.ExportRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sheets.ExportRow, len(s.rows))
	copy(out, s.rows)
	return out
}
