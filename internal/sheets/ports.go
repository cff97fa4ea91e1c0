package sheets

import (
	"context"

	"catatan/internal/core"
)

// Sheet names the record tables are exported to.
const (
	ExpenseSheet = "Pengeluaran"
	StudySheet   = "Belajar"
)

// TableWriter replaces the whole content of a sheet with a table, header row first.
type TableWriter interface {
	WriteTable(ctx context.Context, sheet string, t core.Table) error
}
