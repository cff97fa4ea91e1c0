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

// StudyService is the study-session counterpart of ExpenseService.
type StudyService struct {
	*recordService[core.StudySession]
	repo *storage.StudyRepository
}

func NewStudyService(repo *storage.StudyRepository, c *cache.LRUCache[any], publisher EventPublisher) *StudyService {
	return &StudyService{
		recordService: &recordService[core.StudySession]{
			app:       amqp.AppStudy,
			store:     repo,
			cache:     c,
			publisher: publisher,
			id:        func(s core.StudySession) int64 { return s.ID },
			date:      func(s core.StudySession) core.Date { return s.Date },
		},
		repo: repo,
	}
}

func (s *StudyService) Add(ctx context.Context, ss *core.StudySession) bool {
	return s.add(ctx, ss)
}

func (s *StudyService) Delete(ctx context.Context, id int64) bool {
	return s.delete(ctx, id)
}

func (s *StudyService) List(ctx context.Context) []core.StudySession {
	return s.list(ctx)
}

func (s *StudyService) Table(ctx context.Context, on core.Date) core.Table {
	return s.table(ctx, on)
}

// Summary returns total minutes, minutes per subject and the comprehension
// distribution per topic for on.
func (s *StudyService) Summary(ctx context.Context, on core.Date) core.StudySummary {
	sum, err := cached(ctx, s.cache, "summary:"+on.String(), func(ctx context.Context) (core.StudySummary, error) {
		return s.repo.Summary(ctx, on)
	})
	if err != nil {
		s.readFailed(ctx, log.OpSummary, err)
		return core.StudySummary{
			Date:                 on,
			TotalFormatted:       core.FormatDuration(decimal.Zero),
			BySubject:            core.Breakdown{},
			ComprehensionByTopic: core.Distribution{},
		}
	}
	return sum.Clone()
}
