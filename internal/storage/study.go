package storage

import (
	"context"
	"fmt"

	"catatan/internal/core"

	"golang.org/x/sync/errgroup"
)

const (
	StudyTable = "sesi_belajar"

	colSubject       = "mata_kuliah"
	colTopic         = "topik"
	colComprehension = "tingkat_pemahaman"
)

// StudyRepository stores study sessions in the sesi_belajar table.
type StudyRepository struct {
	*Repository[core.StudySession]
}

func studySchema() Schema[core.StudySession] {
	return Schema[core.StudySession]{
		Table:        StudyTable,
		Columns:      []string{colSubject, colTopic, "durasi_menit", "tanggal", colComprehension},
		AmountColumn: "durasi_menit",
		DateColumn:   "tanggal",
		Groups: map[string]string{
			colSubject:       core.DefaultSubject,
			colTopic:         core.UnknownLevel,
			colComprehension: core.UnknownLevel,
		},
		Display: []DisplayColumn{
			{Column: "id", Label: "ID"},
			{Column: "tanggal", Label: "Tanggal"},
			{Column: colSubject, Label: "Mata Kuliah"},
			{Column: colTopic, Label: "Topik"},
			{Column: "durasi_menit", Label: "Durasi (Menit)"},
			{Column: colComprehension, Label: "Pemahaman"},
		},
		FormattedLabel: "Durasi",
		Format:         core.FormatDuration,
		Values: func(s core.StudySession) []any {
			return []any{s.Subject, s.Topic, s.DurationMinutes.InexactFloat64(), s.Date.String(), s.Comprehension}
		},
		FromRow:  studyFromRow,
		Validate: core.StudySession.Validate,
		SetID:    func(s *core.StudySession, id int64) { s.ID = id },
	}
}

func studyFromRow(row Row) (core.StudySession, error) {
	id, err := asInt64(row["id"])
	if err != nil {
		return core.StudySession{}, fmt.Errorf("id: %w", err)
	}
	minutes, err := asDecimal(row["durasi_menit"])
	if err != nil {
		return core.StudySession{}, fmt.Errorf("durasi_menit: %w", err)
	}
	s := core.NewStudySession(
		asString(row[colSubject]),
		asString(row[colTopic]),
		minutes,
		asDate(row["tanggal"]),
		asString(row[colComprehension]),
	)
	s.ID = id
	return s, nil
}

// NewStudyRepository bootstraps the sesi_belajar table in store.
func NewStudyRepository(ctx context.Context, store *Store) (*StudyRepository, error) {
	repo, err := NewRepository(ctx, store, studySchema())
	if err != nil {
		return nil, err
	}
	return &StudyRepository{Repository: repo}, nil
}

// BySubject sums study minutes per subject, largest first.
func (r *StudyRepository) BySubject(ctx context.Context, on core.Date) core.Breakdown {
	return r.BreakdownBy(ctx, colSubject, on)
}

// ComprehensionByTopic counts sessions per topic and comprehension level.
func (r *StudyRepository) ComprehensionByTopic(ctx context.Context, on core.Date) core.Distribution {
	return r.CrossTab(ctx, colTopic, colComprehension, core.ComprehensionLevels, on)
}

// Summary collects the dashboard figures for on (all dates when empty).
func (r *StudyRepository) Summary(ctx context.Context, on core.Date) (core.StudySummary, error) {
	sum := core.StudySummary{Date: on}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sum.TotalMinutes, err = r.LoadTotal(gctx, on)
		return err
	})
	g.Go(func() (err error) {
		sum.BySubject, err = r.LoadBreakdown(gctx, colSubject, on)
		return err
	})
	g.Go(func() (err error) {
		sum.ComprehensionByTopic, err = r.LoadCrossTab(gctx, colTopic, colComprehension, core.ComprehensionLevels, on)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.StudySummary{Date: on}, fmt.Errorf("study summary: %w", err)
	}

	sum.TotalFormatted = core.FormatDuration(sum.TotalMinutes)
	return sum, nil
}
