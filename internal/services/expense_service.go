package services

import (
	"context"

	"catatan/internal/amqp"
	"catatan/internal/cache"
	"catatan/internal/core"
	"catatan/internal/log"
	"catatan/internal/storage"

	"github.com/shopspring/decimal"
)

// ExpenseService serves expense reads from a cache and announces writes.
type ExpenseService struct {
	*recordService[core.Expense]
	repo *storage.ExpenseRepository
}

// NewExpenseService wires repo with c. publisher may be nil.
func NewExpenseService(repo *storage.ExpenseRepository, c *cache.LRUCache[any], publisher EventPublisher) *ExpenseService {
	return &ExpenseService{
		recordService: &recordService[core.Expense]{
			app:       amqp.AppExpense,
			store:     repo,
			cache:     c,
			publisher: publisher,
			id:        func(e core.Expense) int64 { return e.ID },
			date:      func(e core.Expense) core.Date { return e.Date },
		},
		repo: repo,
	}
}

// Add stores e and sets its ID. It reports false if e was rejected or could not be stored.
func (s *ExpenseService) Add(ctx context.Context, e *core.Expense) bool {
	return s.add(ctx, e)
}

func (s *ExpenseService) Delete(ctx context.Context, id int64) bool {
	return s.delete(ctx, id)
}

func (s *ExpenseService) List(ctx context.Context) []core.Expense {
	return s.list(ctx)
}

func (s *ExpenseService) Table(ctx context.Context, on core.Date) core.Table {
	return s.table(ctx, on)
}

// Summary returns the total and per-category totals for on, or for all dates
// when on is empty.
func (s *ExpenseService) Summary(ctx context.Context, on core.Date) core.ExpenseSummary {
	sum, err := cached(ctx, s.cache, "summary:"+on.String(), func(ctx context.Context) (core.ExpenseSummary, error) {
		return s.repo.Summary(ctx, on)
	})
	if err != nil {
		s.readFailed(ctx, log.OpSummary, err)
		return core.ExpenseSummary{
			Date:           on,
			TotalFormatted: core.FormatRupiah(decimal.Zero),
			ByCategory:     core.Breakdown{},
		}
	}
	return sum.Clone()
}
