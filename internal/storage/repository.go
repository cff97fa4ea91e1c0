package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catatan/internal/core"
	"catatan/internal/log"

	"github.com/shopspring/decimal"
)

// DisplayColumn maps a stored column to its display label.
type DisplayColumn struct {
	Column string
	Label  string
}

// Schema describes how a record type maps onto its table.
type Schema[T any] struct {
	Table string
	// Columns are the insert columns, in the order Values returns them.
	Columns      []string
	AmountColumn string
	DateColumn   string
	// Groups lists the columns usable for grouping, each with the label
	// that replaces a missing value.
	Groups map[string]string

	Display        []DisplayColumn
	FormattedLabel string
	Format         func(decimal.Decimal) string

	Values   func(T) []any
	FromRow  func(Row) (T, error)
	Validate func(T) error
	SetID    func(*T, int64)
}

// Repository implements record CRUD and aggregation for one table. The
// sentinel methods (Add, Delete, ListAll, ListTable, Total, BreakdownBy,
// CrossTab) never return errors: failures are logged and reported as false,
// zero or an empty result. The Load variants return the store error instead,
// for callers that must tell an empty result from a failed read.
type Repository[T any] struct {
	store  *Store
	schema Schema[T]
}

var (
	// ErrUnknownColumn is returned when grouping by a column the schema does not allow.
	ErrUnknownColumn = errors.New("unknown grouping column")

	errNilRecord = errors.New("nil record")
)

// NewRepository ensures the table exists and returns a repository over it.
func NewRepository[T any](ctx context.Context, store *Store, schema Schema[T]) (*Repository[T], error) {
	r := &Repository[T]{store: store, schema: schema}
	if err := r.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// EnsureSchema creates the table if needed. Safe to call repeatedly.
func (r *Repository[T]) EnsureSchema(ctx context.Context) error {
	if err := r.store.EnsureSchema(ctx, r.schema.Table); err != nil {
		return fmt.Errorf("ensure schema %s: %w", r.schema.Table, err)
	}
	return nil
}

// Table returns the table name.
func (r *Repository[T]) Table() string {
	return r.schema.Table
}

// Add inserts rec and assigns the store id to it. Records failing validation
// (non-positive amount or duration) are rejected without touching the store.
func (r *Repository[T]) Add(ctx context.Context, rec *T) bool {
	if rec == nil {
		r.reject(ctx, "Record rejected", log.OpCreate, errNilRecord)
		return false
	}
	if err := r.schema.Validate(*rec); err != nil {
		r.reject(ctx, "Record rejected", log.OpCreate, err)
		return false
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(r.schema.Columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		r.schema.Table, strings.Join(r.schema.Columns, ", "), placeholders)

	id, err := r.store.Insert(ctx, query, r.schema.Values(*rec)...)
	if err != nil {
		r.fail(ctx, "Failed to insert record", log.OpCreate, err)
		return false
	}

	r.schema.SetID(rec, id)
	r.logger(ctx).InfoContext(ctx, "Record saved", log.FieldTable, r.schema.Table, log.FieldRecordID, id)
	return true
}

// Delete removes the record with id. It reports whether a row was removed;
// non-positive ids are rejected without querying.
func (r *Repository[T]) Delete(ctx context.Context, id int64) bool {
	if id <= 0 {
		r.reject(ctx, "Invalid id for delete", log.OpDelete, core.ErrInvalidID)
		return false
	}

	removed, err := r.store.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", r.schema.Table), id)
	if err != nil {
		r.fail(ctx, "Failed to delete record", log.OpDelete, err)
		return false
	}
	if !removed {
		r.logger(ctx).InfoContext(ctx, "Nothing to delete",
			log.LogFields{log.FieldRecordID: id}.WithTable(r.schema.Table).
				WithOperation(log.OpDelete).WithErrorType(log.ErrorTypeNotFound).ToSlice()...)
		return false
	}
	r.logger(ctx).InfoContext(ctx, "Record deleted", log.FieldTable, r.schema.Table, log.FieldRecordID, id)
	return true
}

// ListAll returns every record, most recent date first, then most recently inserted.
func (r *Repository[T]) ListAll(ctx context.Context) []T {
	out, err := r.LoadAll(ctx)
	if err != nil {
		r.fail(ctx, "Failed to list records", log.OpList, err)
		return []T{}
	}
	return out
}

// LoadAll is ListAll returning the store error. Unreadable rows are skipped.
func (r *Repository[T]) LoadAll(ctx context.Context) ([]T, error) {
	query := fmt.Sprintf("SELECT id, %s FROM %s ORDER BY %s",
		strings.Join(r.schema.Columns, ", "), r.schema.Table, r.order())

	rows, err := r.store.Fetch(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		rec, err := r.schema.FromRow(row)
		if err != nil {
			r.logger(ctx).WarnContext(ctx, "Skipping unreadable row",
				log.FieldTable, r.schema.Table, log.FieldRecordID, row["id"], log.FieldError, err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// ListTable returns the records as a display table, restricted to date on when
// it is not empty. Columns carry display labels and a formatted amount column
// is appended.
func (r *Repository[T]) ListTable(ctx context.Context, on core.Date) core.Table {
	t, err := r.LoadTable(ctx, on)
	if err != nil {
		r.fail(ctx, "Failed to read table", log.OpList, err)
	}
	return t
}

// LoadTable is ListTable returning the store error. On error the table is empty.
func (r *Repository[T]) LoadTable(ctx context.Context, on core.Date) (core.Table, error) {
	cols := make([]string, len(r.schema.Display))
	labels := make(map[string]string, len(r.schema.Display))
	for i, dc := range r.schema.Display {
		cols[i] = dc.Column
		labels[dc.Column] = dc.Label
	}

	where, args := r.where(on)
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		strings.Join(cols, ", "), r.schema.Table, where, r.order())

	t, err := r.store.FetchTable(ctx, query, args...)
	if err != nil {
		return t, err
	}

	amountIdx := t.Index(r.schema.AmountColumn)
	return t.Relabel(labels).WithColumn(r.schema.FormattedLabel, func(row []any) any {
		if amountIdx < 0 {
			return r.schema.Format(decimal.Zero)
		}
		amount, err := asDecimal(row[amountIdx])
		if err != nil {
			amount = decimal.Zero
		}
		return r.schema.Format(amount)
	}), nil
}

// Total sums the amount column, restricted to date on when it is not empty.
// No matching rows yields zero.
func (r *Repository[T]) Total(ctx context.Context, on core.Date) decimal.Decimal {
	total, err := r.LoadTotal(ctx, on)
	if err != nil {
		r.fail(ctx, "Failed to compute total", log.OpSummary, err)
		return decimal.Zero
	}
	return total
}

// LoadTotal is Total returning the store error.
func (r *Repository[T]) LoadTotal(ctx context.Context, on core.Date) (decimal.Decimal, error) {
	where, args := r.where(on)
	query := fmt.Sprintf("SELECT SUM(%s) AS total FROM %s%s", r.schema.AmountColumn, r.schema.Table, where)

	row, err := r.store.FetchOne(ctx, query, args...)
	if err != nil {
		return decimal.Zero, err
	}
	total, err := asDecimal(row["total"])
	if err != nil {
		return decimal.Zero, fmt.Errorf("read total: %w", err)
	}
	return total, nil
}

// BreakdownBy sums the amount per value of column. Only groups with a positive
// sum are returned, largest first. Missing values are reported under the
// column's fallback label.
func (r *Repository[T]) BreakdownBy(ctx context.Context, column string, on core.Date) core.Breakdown {
	out, err := r.LoadBreakdown(ctx, column, on)
	if err != nil {
		r.fail(ctx, "Failed to compute breakdown", log.OpSummary, err)
		return core.Breakdown{}
	}
	return out
}

// LoadBreakdown is BreakdownBy returning the error. An unknown column yields ErrUnknownColumn.
func (r *Repository[T]) LoadBreakdown(ctx context.Context, column string, on core.Date) (core.Breakdown, error) {
	fallback, ok := r.schema.Groups[column]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownColumn, column)
	}

	where, args := r.where(on)
	query := fmt.Sprintf(
		"SELECT COALESCE(NULLIF(%[1]s, ''), ?) AS name, SUM(%[2]s) AS total FROM %[3]s%[4]s"+
			" GROUP BY name HAVING SUM(%[2]s) > 0 ORDER BY total DESC, name ASC",
		column, r.schema.AmountColumn, r.schema.Table, where)

	rows, err := r.store.Fetch(ctx, query, append([]any{fallback}, args...)...)
	if err != nil {
		return nil, err
	}

	out := make(core.Breakdown, 0, len(rows))
	for _, row := range rows {
		total, err := asDecimal(row["total"])
		if err != nil || !total.IsPositive() {
			continue
		}
		out = append(out, core.CategoryTotal{Name: asString(row["name"]), Total: total})
	}
	return out, nil
}

// CrossTab counts records per (primary, secondary) pair. Every primary value
// gets all levels plus core.UnknownLevel, zero when absent. Secondary values
// that are missing or not among levels count as core.UnknownLevel.
func (r *Repository[T]) CrossTab(ctx context.Context, primary, secondary string, levels []string, on core.Date) core.Distribution {
	out, err := r.LoadCrossTab(ctx, primary, secondary, levels, on)
	if err != nil {
		r.fail(ctx, "Failed to compute distribution", log.OpSummary, err)
		return core.Distribution{}
	}
	return out
}

// LoadCrossTab is CrossTab returning the error.
func (r *Repository[T]) LoadCrossTab(ctx context.Context, primary, secondary string, levels []string, on core.Date) (core.Distribution, error) {
	primaryFallback, ok := r.schema.Groups[primary]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownColumn, primary)
	}
	if _, ok := r.schema.Groups[secondary]; !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownColumn, secondary)
	}

	where, args := r.where(on)
	query := fmt.Sprintf(
		"SELECT COALESCE(NULLIF(%[1]s, ''), ?) AS primary_value, %[2]s AS secondary_value, COUNT(*) AS n"+
			" FROM %[3]s%[4]s GROUP BY primary_value, secondary_value",
		primary, secondary, r.schema.Table, where)

	rows, err := r.store.Fetch(ctx, query, append([]any{primaryFallback}, args...)...)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(levels))
	for _, l := range levels {
		known[l] = struct{}{}
	}

	out := make(core.Distribution)
	for _, row := range rows {
		key := asString(row["primary_value"])
		counts, ok := out[key]
		if !ok {
			counts = core.NewLevelCounts(levels)
			out[key] = counts
		}

		level := asString(row["secondary_value"])
		if _, ok := known[level]; !ok {
			level = core.UnknownLevel
		}
		n, err := asInt64(row["n"])
		if err != nil {
			continue
		}
		counts[level] += int(n)
	}
	return out, nil
}

func (r *Repository[T]) where(on core.Date) (string, []any) {
	if on.IsEmpty() {
		return "", nil
	}
	return fmt.Sprintf(" WHERE %s = ?", r.schema.DateColumn), []any{on.String()}
}

func (r *Repository[T]) order() string {
	return r.schema.DateColumn + " DESC, id DESC"
}

func (r *Repository[T]) logger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx).WithComponent(log.ComponentStorage)
}

// fail logs a store failure behind a sentinel result. Unknown grouping
// columns are caller mistakes and logged as validation problems.
func (r *Repository[T]) fail(ctx context.Context, msg, op string, err error) {
	if errors.Is(err, ErrUnknownColumn) {
		r.reject(ctx, msg, op, err)
		return
	}
	fields := log.NewFields().WithTable(r.schema.Table).WithErrorType(log.ErrorTypeDatabase)
	log.NewStructuredLogger(r.logger(ctx)).LogError(ctx, msg, err, op, fields)
}

func (r *Repository[T]) reject(ctx context.Context, msg, op string, err error) {
	fields := log.NewFields().
		WithTable(r.schema.Table).
		WithErrorType(log.ErrorTypeValidation).
		WithOperation(op).
		WithError(err)
	r.logger(ctx).WarnContext(ctx, msg, fields.ToSlice()...)
}
