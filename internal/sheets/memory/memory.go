package memory

import (
	"context"
	"log/slog"
	"sync"

	"catatan/internal/core"
	"catatan/internal/log"
	ports "catatan/internal/sheets"
)

var _ ports.TableWriter = (*Store)(nil)

// Store keeps exported tables in memory. Used when no spreadsheet is configured.
type Store struct {
	mu     sync.Mutex
	sheets map[string]core.Table
}

func New() *Store {
	return &Store{sheets: make(map[string]core.Table)}
}

// WriteTable stores a copy of t under sheet.
func (s *Store) WriteTable(ctx context.Context, sheet string, t core.Table) error {
	s.mu.Lock()
	s.sheets[sheet] = t.Clone()
	s.mu.Unlock()

	slog.DebugContext(ctx, "Table kept in memory", log.FieldComponent, log.ComponentSheets, "sheet", sheet, "rows", t.Len())
	return nil
}
