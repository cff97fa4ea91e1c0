package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"catatan/internal/amqp"
	"catatan/internal/core"
	"catatan/internal/log"
	"catatan/internal/sheets"
)

// TableSource yields the current display table of one application.
// *storage.ExpenseRepository and *storage.StudyRepository implement it.
type TableSource interface {
	LoadTable(ctx context.Context, on core.Date) (core.Table, error)
}

// Export binds an application to the sheet its table is written to.
type Export struct {
	App    string
	Sheet  string
	Source TableSource
}

// ExportWorker keeps spreadsheet copies of the record tables current. Every
// event rewrites the whole sheet of its application, so redelivered or
// out-of-order events converge on the same result.
type ExportWorker struct {
	writer  sheets.TableWriter
	exports map[string]Export
	order   []string
}

func NewExportWorker(writer sheets.TableWriter, exports ...Export) *ExportWorker {
	w := &ExportWorker{writer: writer, exports: make(map[string]Export, len(exports))}
	for _, e := range exports {
		if _, dup := w.exports[e.App]; !dup {
			w.order = append(w.order, e.App)
		}
		w.exports[e.App] = e
	}
	return w
}

// HandleRecordEvent re-exports the table of the event's application.
func (w *ExportWorker) HandleRecordEvent(ctx context.Context, ev *amqp.RecordEvent) error {
	slog.InfoContext(ctx, "Processing record event",
		log.FieldEventID, ev.EventID,
		log.FieldApp, ev.App,
		log.FieldOperation, ev.Action,
		log.FieldRecordID, ev.RecordID)

	if _, ok := w.exports[ev.App]; !ok {
		// Nothing to export for this app; acknowledging drops the event.
		slog.WarnContext(ctx, "No export configured for app", log.FieldApp, ev.App)
		return nil
	}
	return w.Export(ctx, ev.App)
}

// Export writes the full table of app to its sheet. When the table cannot be
// read the sheet is left untouched and the error returned.
func (w *ExportWorker) Export(ctx context.Context, app string) error {
	e, ok := w.exports[app]
	if !ok {
		return fmt.Errorf("unknown app %q", app)
	}

	table, err := e.Source.LoadTable(ctx, core.Date{})
	if err != nil {
		return fmt.Errorf("export %s: read table: %w", app, err)
	}
	if err := w.writer.WriteTable(ctx, e.Sheet, table); err != nil {
		return fmt.Errorf("export %s: %w", app, err)
	}
	slog.InfoContext(ctx, "Table exported",
		log.FieldApp, app, log.FieldOperation, log.OpExport, "sheet", e.Sheet, "rows", table.Len())
	return nil
}

// ExportAll exports every configured application, continuing past failures.
// Used at startup to recover from events missed while the worker was down.
func (w *ExportWorker) ExportAll(ctx context.Context) error {
	var errs []error
	for _, app := range w.order {
		if err := w.Export(ctx, app); err != nil {
			slog.ErrorContext(ctx, "Startup export failed",
				log.FieldApp, app, log.FieldOperation, log.OpExport, log.FieldError, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
