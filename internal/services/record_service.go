package services

import (
	"context"
	"log/slog"
	"slices"

	"catatan/internal/amqp"
	"catatan/internal/cache"
	"catatan/internal/core"
	"catatan/internal/log"
)

// EventPublisher announces record changes. *amqp.Client implements it.
type EventPublisher interface {
	PublishRecordEvent(ctx context.Context, ev *amqp.RecordEvent) error
}

type recordStore[T any] interface {
	Add(ctx context.Context, rec *T) bool
	Delete(ctx context.Context, id int64) bool
	LoadAll(ctx context.Context) ([]T, error)
	LoadTable(ctx context.Context, on core.Date) (core.Table, error)
}

// recordService adds read caching and change events on top of a repository.
// Any successful write clears the cache. Failed reads are returned as empty
// results and never cached.
type recordService[T any] struct {
	app       string
	store     recordStore[T]
	cache     *cache.LRUCache[any]
	publisher EventPublisher
	id        func(T) int64
	date      func(T) core.Date
}

func (s *recordService[T]) add(ctx context.Context, rec *T) bool {
	if !s.store.Add(ctx, rec) {
		return false
	}
	s.cache.Clear()
	s.publish(ctx, amqp.ActionCreated, s.id(*rec), s.date(*rec).String())
	return true
}

func (s *recordService[T]) delete(ctx context.Context, id int64) bool {
	if !s.store.Delete(ctx, id) {
		return false
	}
	s.cache.Clear()
	s.publish(ctx, amqp.ActionDeleted, id, "")
	return true
}

// list returns a copy so callers cannot alter the cached slice.
func (s *recordService[T]) list(ctx context.Context) []T {
	items, err := cached(ctx, s.cache, "list", s.store.LoadAll)
	if err != nil {
		s.readFailed(ctx, log.OpList, err)
		return []T{}
	}
	return slices.Clone(items)
}

func (s *recordService[T]) table(ctx context.Context, on core.Date) core.Table {
	t, err := cached(ctx, s.cache, "table:"+on.String(), func(ctx context.Context) (core.Table, error) {
		return s.store.LoadTable(ctx, on)
	})
	if err != nil {
		s.readFailed(ctx, log.OpList, err)
		return core.Table{Columns: []string{}, Rows: [][]any{}}
	}
	return t.Clone()
}

// publish never fails the write: the record is already stored.
func (s *recordService[T]) publish(ctx context.Context, action string, id int64, date string) {
	if s.publisher == nil {
		return
	}
	ev := amqp.NewRecordEvent(s.app, action, id, date)
	if err := s.publisher.PublishRecordEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish record event",
			log.FieldApp, s.app,
			log.FieldOperation, action,
			log.FieldRecordID, id,
			log.FieldEventID, ev.EventID,
			log.FieldError, err)
	}
}

func (s *recordService[T]) readFailed(ctx context.Context, op string, err error) {
	fields := log.NewFields().WithErrorType(log.ErrorTypeDatabase)
	fields[log.FieldApp] = s.app
	log.NewStructuredLogger(log.FromContext(ctx).WithComponent(s.app)).
		LogError(ctx, "Read failed, result not cached", err, op, fields)
}

// cached serves key from c or loads it. The load runs detached from the
// caller's cancellation because concurrent callers share it.
func cached[V any](ctx context.Context, c *cache.LRUCache[any], key string, load func(context.Context) (V, error)) (V, error) {
	v, err := c.GetOrLoad(key, func() (any, error) {
		return load(context.WithoutCancel(ctx))
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}
