package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"catatan/internal/amqp"
	"catatan/internal/cache"
	"catatan/internal/core"
	"catatan/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.RecordEvent
	err    error
}

func (p *recordingPublisher) PublishRecordEvent(_ context.Context, ev *amqp.RecordEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Events() []*amqp.RecordEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*amqp.RecordEvent(nil), p.events...)
}

var jan10 = core.NewDate(2024, 1, 10)

type ServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	store     *storage.Store
	publisher *recordingPublisher
	expenses  *ExpenseService
	study     *StudyService
}

func (s *ServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	store, err := storage.Open(filepath.Join(s.T().TempDir(), "catatan.db"))
	require.NoError(s.T(), err)
	s.store = store

	expRepo, err := storage.NewExpenseRepository(s.ctx, store)
	require.NoError(s.T(), err)
	studyRepo, err := storage.NewStudyRepository(s.ctx, store)
	require.NoError(s.T(), err)

	s.publisher = &recordingPublisher{}
	s.expenses = NewExpenseService(expRepo, cache.NewLRUCache[any](32, time.Hour), s.publisher)
	s.study = NewStudyService(studyRepo, cache.NewLRUCache[any](32, time.Hour), s.publisher)
}

func (s *ServiceTestSuite) TearDownTest() {
	if s.store != nil {
		s.store.Close()
	}
}

func (s *ServiceTestSuite) TestAddPublishesCreatedEvent() {
	e := core.NewExpense("Makan siang", decimal.NewFromInt(25000), "Makanan", jan10)
	require.True(s.T(), s.expenses.Add(s.ctx, &e))

	events := s.publisher.Events()
	require.Len(s.T(), events, 1)
	assert.Equal(s.T(), amqp.AppExpense, events[0].App)
	assert.Equal(s.T(), amqp.ActionCreated, events[0].Action)
	assert.Equal(s.T(), e.ID, events[0].RecordID)
	assert.Equal(s.T(), "2024-01-10", events[0].Date)
}

func (s *ServiceTestSuite) TestRejectedAddPublishesNothing() {
	e := core.NewExpense("Gratis", decimal.Zero, "Makanan", jan10)
	assert.False(s.T(), s.expenses.Add(s.ctx, &e))
	assert.False(s.T(), s.expenses.Delete(s.ctx, 999))
	assert.Empty(s.T(), s.publisher.Events())
}

func (s *ServiceTestSuite) TestPublishFailureDoesNotFailWrite() {
	s.publisher.err = errors.New("broker down")

	ss := core.NewStudySession("Statistika", "Regresi", decimal.NewFromInt(60), jan10, "Tinggi")
	assert.True(s.T(), s.study.Add(s.ctx, &ss))
	assert.Len(s.T(), s.study.List(s.ctx), 1)
}

func (s *ServiceTestSuite) TestNilPublisher() {
	repo, err := storage.NewExpenseRepository(s.ctx, s.store)
	require.NoError(s.T(), err)
	svc := NewExpenseService(repo, cache.NewLRUCache[any](8, time.Hour), nil)

	e := core.NewExpense("Kopi", decimal.NewFromInt(10000), "Makanan", jan10)
	assert.True(s.T(), svc.Add(s.ctx, &e))
	assert.True(s.T(), svc.Delete(s.ctx, e.ID))
}

func (s *ServiceTestSuite) TestWritesInvalidateCachedReads() {
	assert.Empty(s.T(), s.expenses.List(s.ctx))
	assert.True(s.T(), s.expenses.Summary(s.ctx, jan10).Total.IsZero())

	e := core.NewExpense("Makan siang", decimal.NewFromInt(25000), "Makanan", jan10)
	require.True(s.T(), s.expenses.Add(s.ctx, &e))

	assert.Len(s.T(), s.expenses.List(s.ctx), 1)
	sum := s.expenses.Summary(s.ctx, jan10)
	assert.True(s.T(), sum.Total.Equal(decimal.NewFromInt(25000)))
	assert.Equal(s.T(), "Rp 25.000", sum.TotalFormatted)
	assert.Equal(s.T(), 1, s.expenses.Table(s.ctx, jan10).Len())

	require.True(s.T(), s.expenses.Delete(s.ctx, e.ID))
	assert.Empty(s.T(), s.expenses.List(s.ctx))
	assert.True(s.T(), s.expenses.Summary(s.ctx, jan10).Total.IsZero())

	events := s.publisher.Events()
	require.Len(s.T(), events, 2)
	assert.Equal(s.T(), amqp.ActionDeleted, events[1].Action)
}

func (s *ServiceTestSuite) TestCachedListIsACopy() {
	e := core.NewExpense("Kopi", decimal.NewFromInt(10000), "Makanan", jan10)
	require.True(s.T(), s.expenses.Add(s.ctx, &e))

	first := s.expenses.List(s.ctx)
	first[0].Description = "diubah"
	assert.Equal(s.T(), "Kopi", s.expenses.List(s.ctx)[0].Description)
}

func (s *ServiceTestSuite) TestStudySummary() {
	for _, in := range []struct {
		topic   string
		minutes int64
		level   string
	}{
		{"OOP", 60, "Tinggi"},
		{"OOP", 30, "Tinggi"},
		{"OOP", 20, "Rendah"},
	} {
		ss := core.NewStudySession("Pemrograman Berorientasi Objek", in.topic, decimal.NewFromInt(in.minutes), jan10, in.level)
		require.True(s.T(), s.study.Add(s.ctx, &ss))
	}

	sum := s.study.Summary(s.ctx, jan10)
	assert.True(s.T(), sum.TotalMinutes.Equal(decimal.NewFromInt(110)))
	assert.Equal(s.T(), "1 jam 50 menit", sum.TotalFormatted)
	require.Len(s.T(), sum.BySubject, 1)
	assert.Equal(s.T(), 2, sum.ComprehensionByTopic["OOP"]["Tinggi"])
	assert.Equal(s.T(), 1, sum.ComprehensionByTopic["OOP"]["Rendah"])
	assert.Equal(s.T(), 0, sum.ComprehensionByTopic["OOP"]["Sedang"])
}

func (s *ServiceTestSuite) TestCancelledRequestDoesNotPoisonCache() {
	e := core.NewExpense("Makan siang", decimal.NewFromInt(25000), "Makanan", jan10)
	require.True(s.T(), s.expenses.Add(s.ctx, &e))

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	assert.True(s.T(), s.expenses.Summary(ctx, jan10).Total.Equal(decimal.NewFromInt(25000)))
	assert.Len(s.T(), s.expenses.List(ctx), 1)

	assert.True(s.T(), s.expenses.Summary(s.ctx, jan10).Total.Equal(decimal.NewFromInt(25000)))
	assert.Len(s.T(), s.expenses.List(s.ctx), 1)
}

func (s *ServiceTestSuite) TestFailedReadsAreNotCached() {
	e := core.NewExpense("Makan siang", decimal.NewFromInt(25000), "Makanan", jan10)
	require.True(s.T(), s.expenses.Add(s.ctx, &e))

	_, err := s.store.Exec(s.ctx, "ALTER TABLE transaksi RENAME TO transaksi_lama")
	require.NoError(s.T(), err)

	sum := s.expenses.Summary(s.ctx, jan10)
	assert.True(s.T(), sum.Total.IsZero())
	assert.Equal(s.T(), "Rp 0", sum.TotalFormatted)
	assert.NotNil(s.T(), sum.ByCategory)
	assert.Empty(s.T(), s.expenses.List(s.ctx))
	table := s.expenses.Table(s.ctx, jan10)
	assert.Zero(s.T(), table.Len())
	assert.NotNil(s.T(), table.Rows)

	_, err = s.store.Exec(s.ctx, "ALTER TABLE transaksi_lama RENAME TO transaksi")
	require.NoError(s.T(), err)

	assert.True(s.T(), s.expenses.Summary(s.ctx, jan10).Total.Equal(decimal.NewFromInt(25000)))
	assert.Len(s.T(), s.expenses.List(s.ctx), 1)
	assert.Equal(s.T(), 1, s.expenses.Table(s.ctx, jan10).Len())
}

func (s *ServiceTestSuite) TestCachedSummaryAndTableAreCopies() {
	ss := core.NewStudySession("Statistika", "Regresi", decimal.NewFromInt(60), jan10, "Tinggi")
	require.True(s.T(), s.study.Add(s.ctx, &ss))

	first := s.study.Summary(s.ctx, jan10)
	first.ComprehensionByTopic["Regresi"]["Tinggi"] = 99
	first.ComprehensionByTopic["Lain"] = core.LevelCounts{}
	first.BySubject[0].Name = "diubah"

	again := s.study.Summary(s.ctx, jan10)
	assert.Equal(s.T(), 1, again.ComprehensionByTopic["Regresi"]["Tinggi"])
	assert.NotContains(s.T(), again.ComprehensionByTopic, "Lain")
	assert.Equal(s.T(), "Statistika", again.BySubject[0].Name)

	table := s.study.Table(s.ctx, jan10)
	require.Equal(s.T(), 1, table.Len())
	col := table.Index("Topik")
	require.GreaterOrEqual(s.T(), col, 0)
	table.Rows[0][col] = "diubah"
	table.Rows = append(table.Rows, []any{})
	fresh := s.study.Table(s.ctx, jan10)
	assert.Equal(s.T(), 1, fresh.Len())
	assert.Equal(s.T(), "Regresi", fresh.Rows[0][col])
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}
