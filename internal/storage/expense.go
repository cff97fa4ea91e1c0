package storage

import (
	"context"
	"fmt"

	"catatan/internal/core"

	"golang.org/x/sync/errgroup"
)

const (
	ExpenseTable = "transaksi"

	colExpenseCategory = "kategori"
)

// ExpenseRepository stores expenses in the transaksi table.
type ExpenseRepository struct {
	*Repository[core.Expense]
}

func expenseSchema() Schema[core.Expense] {
	return Schema[core.Expense]{
		Table:        ExpenseTable,
		Columns:      []string{"deskripsi", "jumlah", "kategori", "tanggal"},
		AmountColumn: "jumlah",
		DateColumn:   "tanggal",
		Groups:       map[string]string{colExpenseCategory: core.DefaultExpenseCategory},
		Display: []DisplayColumn{
			{Column: "id", Label: "ID"},
			{Column: "tanggal", Label: "Tanggal"},
			{Column: "kategori", Label: "Kategori"},
			{Column: "deskripsi", Label: "Deskripsi"},
			{Column: "jumlah", Label: "Jumlah"},
		},
		FormattedLabel: "Jumlah (Rp)",
		Format:         core.FormatRupiah,
		Values: func(e core.Expense) []any {
			return []any{e.Description, e.Amount.InexactFloat64(), e.Category, e.Date.String()}
		},
		FromRow:  expenseFromRow,
		Validate: core.Expense.Validate,
		SetID:    func(e *core.Expense, id int64) { e.ID = id },
	}
}

func expenseFromRow(row Row) (core.Expense, error) {
	id, err := asInt64(row["id"])
	if err != nil {
		return core.Expense{}, fmt.Errorf("id: %w", err)
	}
	amount, err := asDecimal(row["jumlah"])
	if err != nil {
		return core.Expense{}, fmt.Errorf("jumlah: %w", err)
	}
	e := core.NewExpense(asString(row["deskripsi"]), amount, asString(row["kategori"]), asDate(row["tanggal"]))
	e.ID = id
	return e, nil
}

// NewExpenseRepository bootstraps the transaksi table in store.
func NewExpenseRepository(ctx context.Context, store *Store) (*ExpenseRepository, error) {
	repo, err := NewRepository(ctx, store, expenseSchema())
	if err != nil {
		return nil, err
	}
	return &ExpenseRepository{Repository: repo}, nil
}

// ByCategory sums expenses per category, largest first.
func (r *ExpenseRepository) ByCategory(ctx context.Context, on core.Date) core.Breakdown {
	return r.BreakdownBy(ctx, colExpenseCategory, on)
}

// Summary collects the dashboard figures for on (all dates when empty). The
// reads run concurrently, each on its own connection, and the first failure is
// returned.
func (r *ExpenseRepository) Summary(ctx context.Context, on core.Date) (core.ExpenseSummary, error) {
	sum := core.ExpenseSummary{Date: on}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sum.Total, err = r.LoadTotal(gctx, on)
		return err
	})
	g.Go(func() (err error) {
		sum.ByCategory, err = r.LoadBreakdown(gctx, colExpenseCategory, on)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.ExpenseSummary{Date: on}, fmt.Errorf("expense summary: %w", err)
	}

	sum.TotalFormatted = core.FormatRupiah(sum.Total)
	return sum, nil
}
