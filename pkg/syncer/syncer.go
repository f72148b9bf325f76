// Package syncer implements the per-entity sync units. Every unit follows
// the same template: fetch from the source, clear the local table, map and
// insert each record, then post-process inside the same transaction. The
// generic driver owns the template; kind syncers supply the steps.
package syncer

import (
	"context"
	"fmt"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/database"
	"github.com/Ramsey-B/fern/internal/repositories/synclog"
	"github.com/Ramsey-B/fern/internal/tracing"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/source"
)

// KindSyncer supplies the kind-specific steps of the sync template.
type KindSyncer[T any] interface {
	Kind() models.EntityKind
	Fetch(ctx context.Context) ([]source.Record, error)
	CountExisting(ctx context.Context) (int, error)
	ClearExistingTx(ctx context.Context, tx database.Tx) error
	MapRecord(ctx context.Context, rec source.Record) (T, error)
	InsertTx(ctx context.Context, tx database.Tx, row T) error
	PostProcessTx(ctx context.Context, tx database.Tx) error
}

// Options controls how one sync unit runs.
type Options struct {
	// ContinueOnError skips records that fail to map or insert instead of
	// aborting the unit. The failures still count in the result.
	ContinueOnError bool
	// DryRun fetches and maps without touching the store or the sync log.
	DryRun bool
}

// Result reports what one sync unit did (or would do, under DryRun).
type Result struct {
	EntityType   string   `json:"entity_type"`
	Fetched      int      `json:"fetched"`
	Synced       int      `json:"synced"`
	Errors       int      `json:"errors"`
	ErrorDetails []string `json:"error_details,omitempty"`
	DryRun       bool     `json:"dry_run,omitempty"`
	// WouldReplace is the number of existing rows a real run would delete.
	// Only set under DryRun.
	WouldReplace int    `json:"would_replace,omitempty"`
	LogID        string `json:"log_id,omitempty"`
}

func (r *Result) stats() models.SyncStats {
	return models.SyncStats{Fetched: r.Fetched, Synced: r.Synced, Errors: r.Errors}
}

func (r *Result) detail() string {
	return strings.Join(r.ErrorDetails, "; ")
}

// Driver runs kind syncers through the shared template. One driver serves
// all kinds; the store handle and sync log come in at construction.
type Driver struct {
	db     database.DB
	logs   *synclog.Repository
	logger ectologger.Logger
}

func NewDriver(db database.DB, logs *synclog.Repository, logger ectologger.Logger) *Driver {
	return &Driver{
		db:     db,
		logs:   logs,
		logger: logger,
	}
}

// Run executes one sync unit. An empty fetch result is treated as a source
// outage, not an empty dataset: the local table is left untouched so a
// transient upstream failure cannot wipe synced data.
func Run[T any](ctx context.Context, d *Driver, s KindSyncer[T], opts Options) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "syncer.Run")
	defer span.End()

	kind := s.Kind()
	result := &Result{EntityType: kind.String(), DryRun: opts.DryRun}
	log := d.logger.WithContext(ctx).WithField("entity_type", kind.String())

	if !opts.DryRun {
		logID, err := d.logs.StartUnit(ctx, kind.String())
		if err != nil {
			return nil, err
		}
		result.LogID = logID
	}

	records, err := s.Fetch(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to fetch records")
		err = fmt.Errorf("failed to fetch %s: %w", kind, err)
		d.failUnit(ctx, result, err)
		return result, err
	}
	result.Fetched = len(records)

	if len(records) == 0 {
		log.Warn("Source returned no records, leaving existing data in place")
		if !opts.DryRun {
			if err := d.logs.CompleteUnit(ctx, result.LogID, result.stats()); err != nil {
				return result, err
			}
		}
		return result, nil
	}

	if opts.DryRun {
		existing, err := s.CountExisting(ctx)
		if err != nil {
			return result, fmt.Errorf("failed to count existing %s: %w", kind, err)
		}
		result.WouldReplace = existing
		for _, rec := range records {
			if _, err := s.MapRecord(ctx, rec); err != nil {
				result.Errors++
				result.ErrorDetails = append(result.ErrorDetails, err.Error())
				continue
			}
			result.Synced++
		}
		return result, nil
	}

	txCtx, tx, err := d.db.GetTx(ctx, nil)
	if err != nil {
		d.failUnit(ctx, result, err)
		return result, err
	}
	defer tx.Rollback(ctx)

	if err := s.ClearExistingTx(txCtx, tx); err != nil {
		d.failUnit(ctx, result, err)
		return result, err
	}

	for _, rec := range records {
		row, err := s.MapRecord(txCtx, rec)
		if err == nil {
			err = s.InsertTx(txCtx, tx, row)
		}
		if err != nil {
			result.Errors++
			result.ErrorDetails = append(result.ErrorDetails, err.Error())
			if opts.ContinueOnError {
				log.WithError(err).WithField("record_id", rec.ID).Warn("Skipping record")
				continue
			}
			_ = tx.Rollback(ctx)
			d.failUnit(ctx, result, err)
			return result, err
		}
		result.Synced++
	}

	if err := s.PostProcessTx(txCtx, tx); err != nil {
		_ = tx.Rollback(ctx)
		d.failUnit(ctx, result, err)
		return result, err
	}

	if err := tx.Commit(ctx); err != nil {
		d.failUnit(ctx, result, err)
		return result, err
	}

	log.WithFields(map[string]any{
		"fetched": result.Fetched,
		"synced":  result.Synced,
		"errors":  result.Errors,
	}).Info("Sync unit completed")

	if err := d.logs.CompleteUnit(ctx, result.LogID, result.stats()); err != nil {
		return result, err
	}
	return result, nil
}

func (d *Driver) failUnit(ctx context.Context, result *Result, cause error) {
	if result.LogID == "" {
		return
	}
	detail := cause.Error()
	if extra := result.detail(); extra != "" && extra != detail {
		detail = detail + "; " + extra
	}
	if err := d.logs.FailUnit(ctx, result.LogID, result.stats(), detail); err != nil {
		d.logger.WithContext(ctx).WithError(err).Error("Failed to record sync unit failure")
	}
}
