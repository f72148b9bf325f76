// Package orchestrator coordinates the full sync pipeline: entity sync,
// relationship rebuild, derived-field computation, then cache
// invalidation. Exactly one run executes at a time; phases run
// sequentially and a cancel request takes effect at the next boundary.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/tracing"
	"github.com/Ramsey-B/fern/pkg/cache"
	"github.com/Ramsey-B/fern/pkg/derive"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/relationships"
	"github.com/Ramsey-B/fern/pkg/syncer"
)

var (
	// ErrSyncInProgress rejects a run while another is active.
	ErrSyncInProgress = errors.New("a sync is already in progress")
	// ErrCancelled reports a run stopped at a phase boundary.
	ErrCancelled = errors.New("sync cancelled")
)

type Phase string

const (
	PhaseEntities      Phase = "entities"
	PhaseRelationships Phase = "relationships"
	PhaseCompute       Phase = "compute"
	PhaseCache         Phase = "cache"
)

const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
	RunStatusCancelled = "cancelled"
)

// Options controls one pipeline run.
type Options struct {
	// SkipCompute leaves derived fields untouched.
	SkipCompute bool
	// SkipCache leaves cached graphs in place.
	SkipCache bool
	// ContinueOnError lets entity units skip bad records instead of
	// aborting.
	ContinueOnError bool
}

// PhaseResult reports one phase of a run.
type PhaseResult struct {
	Phase         Phase                 `json:"phase"`
	Status        string                `json:"status"`
	Skipped       bool                  `json:"skipped,omitempty"`
	Duration      time.Duration         `json:"duration"`
	Error         string                `json:"error,omitempty"`
	Entities      []*syncer.Result      `json:"entities,omitempty"`
	Relationships *relationships.Result `json:"relationships,omitempty"`
	Compute       *derive.Result        `json:"compute,omitempty"`
	Cache         *cache.Result         `json:"cache,omitempty"`
}

// RunResult aggregates a whole pipeline run.
type RunResult struct {
	Status    string         `json:"status"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	Phases    []*PhaseResult `json:"phases"`
	Error     string         `json:"error,omitempty"`
}

// Status is the orchestrator's observable state.
type Status struct {
	Running      bool       `json:"running"`
	CurrentPhase Phase      `json:"current_phase,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	LastResult   *RunResult `json:"last_result,omitempty"`
}

// entityUnit pairs a kind with its type-erased runner so the four generic
// syncers can run through one loop.
type entityUnit struct {
	kind models.EntityKind
	run  func(ctx context.Context, opts syncer.Options) (*syncer.Result, error)
}

// Orchestrator runs the pipeline.
type Orchestrator struct {
	units       []entityUnit
	rels        *relationships.Syncer
	compute     *derive.Computer
	invalidator *cache.Invalidator
	logger      ectologger.Logger

	mu           sync.Mutex
	running      bool
	currentPhase Phase
	startedAt    time.Time
	cancelAsked  bool
	lastResult   *RunResult
}

// New wires the orchestrator. Entity units run in dependency order:
// characters, then timeline events, then elements, then puzzles.
func New(
	driver *syncer.Driver,
	characters *syncer.CharacterSyncer,
	events *syncer.TimelineEventSyncer,
	elements *syncer.ElementSyncer,
	puzzles *syncer.PuzzleSyncer,
	rels *relationships.Syncer,
	compute *derive.Computer,
	invalidator *cache.Invalidator,
	logger ectologger.Logger,
) *Orchestrator {
	units := []entityUnit{
		{models.KindCharacter, func(ctx context.Context, opts syncer.Options) (*syncer.Result, error) {
			return syncer.Run(ctx, driver, characters, opts)
		}},
		{models.KindTimelineEvent, func(ctx context.Context, opts syncer.Options) (*syncer.Result, error) {
			return syncer.Run(ctx, driver, events, opts)
		}},
		{models.KindElement, func(ctx context.Context, opts syncer.Options) (*syncer.Result, error) {
			return syncer.Run(ctx, driver, elements, opts)
		}},
		{models.KindPuzzle, func(ctx context.Context, opts syncer.Options) (*syncer.Result, error) {
			return syncer.Run(ctx, driver, puzzles, opts)
		}},
	}
	return &Orchestrator{
		units:       units,
		rels:        rels,
		compute:     compute,
		invalidator: invalidator,
		logger:      logger,
	}
}

// Run executes the full pipeline. Any phase failure, including cache
// invalidation, fails the run.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*RunResult, error) {
	return o.run(ctx, opts, true)
}

// RunLegacy executes the same pipeline but tolerates a cache invalidation
// failure, matching the original single-call sync behavior where stale
// graphs were preferable to a failed sync.
func (o *Orchestrator) RunLegacy(ctx context.Context, opts Options) (*RunResult, error) {
	return o.run(ctx, opts, false)
}

// RunEntity executes a single entity unit under the same single-flight
// guard as full runs.
func (o *Orchestrator) RunEntity(ctx context.Context, kind models.EntityKind, opts syncer.Options) (*syncer.Result, error) {
	ctx, span := tracing.StartSpan(ctx, "orchestrator.Orchestrator.RunEntity")
	defer span.End()

	var unit *entityUnit
	for i := range o.units {
		if o.units[i].kind == kind {
			unit = &o.units[i]
			break
		}
	}
	if unit == nil {
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}

	if !opts.DryRun {
		if err := o.acquire(PhaseEntities); err != nil {
			return nil, err
		}
		defer o.release(nil)
	}

	result, err := unit.run(ctx, opts)
	if result != nil && !opts.DryRun {
		metrics.RecordsSynced.WithLabelValues(string(kind)).Add(float64(result.Synced))
		metrics.RecordErrors.WithLabelValues(string(kind)).Add(float64(result.Errors))
	}
	return result, err
}

// Cancel asks the active run to stop at the next phase boundary. It
// reports whether a run was active to receive the request.
func (o *Orchestrator) Cancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.running {
		return false
	}
	o.cancelAsked = true
	return true
}

// Status reports the orchestrator's current state.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	status := Status{
		Running:    o.running,
		LastResult: o.lastResult,
	}
	if o.running {
		status.CurrentPhase = o.currentPhase
		startedAt := o.startedAt
		status.StartedAt = &startedAt
	}
	return status
}

func (o *Orchestrator) acquire(phase Phase) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return ErrSyncInProgress
	}
	o.running = true
	o.cancelAsked = false
	o.currentPhase = phase
	o.startedAt = time.Now().UTC()
	return nil
}

func (o *Orchestrator) release(result *RunResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.running = false
	o.cancelAsked = false
	o.currentPhase = ""
	if result != nil {
		o.lastResult = result
	}
}

func (o *Orchestrator) setPhase(phase Phase) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.currentPhase = phase
}

func (o *Orchestrator) cancelRequested() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cancelAsked
}

func (o *Orchestrator) run(ctx context.Context, opts Options, strictCache bool) (*RunResult, error) {
	ctx, span := tracing.StartSpan(ctx, "orchestrator.Orchestrator.run")
	defer span.End()

	if err := o.acquire(PhaseEntities); err != nil {
		return nil, err
	}

	result := &RunResult{
		Status:    RunStatusCompleted,
		StartTime: time.Now().UTC(),
	}
	defer func() {
		result.EndTime = time.Now().UTC()
		metrics.SyncRuns.WithLabelValues(result.Status).Inc()
		o.release(result)
	}()

	log := o.logger.WithContext(ctx)
	log.Info("Sync run started")

	runErr := o.runPhases(ctx, opts, strictCache, result)
	switch {
	case errors.Is(runErr, ErrCancelled):
		result.Status = RunStatusCancelled
		result.Error = runErr.Error()
		log.Warn("Sync run cancelled")
	case runErr != nil:
		result.Status = RunStatusFailed
		result.Error = runErr.Error()
		log.WithError(runErr).Error("Sync run failed")
	default:
		log.Info("Sync run completed")
	}
	return result, runErr
}

func (o *Orchestrator) runPhases(ctx context.Context, opts Options, strictCache bool, result *RunResult) error {
	entityPhase, err := o.runEntitiesPhase(ctx, opts)
	result.Phases = append(result.Phases, entityPhase)
	if err != nil {
		return err
	}
	if o.cancelRequested() {
		return ErrCancelled
	}

	o.setPhase(PhaseRelationships)
	relPhase := o.timePhase(PhaseRelationships, func(pr *PhaseResult) error {
		res, err := o.rels.Run(ctx)
		pr.Relationships = res
		return err
	})
	result.Phases = append(result.Phases, relPhase)
	if relPhase.Error != "" {
		return errors.New(relPhase.Error)
	}
	if o.cancelRequested() {
		return ErrCancelled
	}

	o.setPhase(PhaseCompute)
	if opts.SkipCompute {
		result.Phases = append(result.Phases, skippedPhase(PhaseCompute))
	} else {
		computePhase := o.timePhase(PhaseCompute, func(pr *PhaseResult) error {
			res, err := o.compute.Run(ctx)
			pr.Compute = res
			return err
		})
		result.Phases = append(result.Phases, computePhase)
		if computePhase.Error != "" {
			return errors.New(computePhase.Error)
		}
	}
	if o.cancelRequested() {
		return ErrCancelled
	}

	o.setPhase(PhaseCache)
	if opts.SkipCache {
		result.Phases = append(result.Phases, skippedPhase(PhaseCache))
		return nil
	}
	cachePhase := o.timePhase(PhaseCache, func(pr *PhaseResult) error {
		res, err := o.invalidator.InvalidateAll(ctx)
		if res != nil {
			pr.Cache = res
			metrics.CacheEvictions.Add(float64(res.Evicted))
		}
		return err
	})
	result.Phases = append(result.Phases, cachePhase)
	if cachePhase.Error != "" {
		if strictCache {
			return errors.New(cachePhase.Error)
		}
		o.logger.WithContext(ctx).Warnf("Cache invalidation failed, continuing: %s", cachePhase.Error)
	}
	return nil
}

func (o *Orchestrator) runEntitiesPhase(ctx context.Context, opts Options) (*PhaseResult, error) {
	start := time.Now()
	phase := &PhaseResult{Phase: PhaseEntities, Status: RunStatusCompleted}
	defer func() {
		phase.Duration = time.Since(start)
		metrics.PhaseDuration.WithLabelValues(string(PhaseEntities)).Observe(phase.Duration.Seconds())
	}()

	unitOpts := syncer.Options{ContinueOnError: opts.ContinueOnError}
	for _, unit := range o.units {
		if o.cancelRequested() {
			phase.Status = RunStatusCancelled
			return phase, ErrCancelled
		}
		res, err := unit.run(ctx, unitOpts)
		if res != nil {
			phase.Entities = append(phase.Entities, res)
			metrics.RecordsSynced.WithLabelValues(string(unit.kind)).Add(float64(res.Synced))
			metrics.RecordErrors.WithLabelValues(string(unit.kind)).Add(float64(res.Errors))
		}
		if err != nil {
			phase.Status = RunStatusFailed
			phase.Error = err.Error()
			return phase, err
		}
	}
	return phase, nil
}

func (o *Orchestrator) timePhase(phase Phase, fn func(pr *PhaseResult) error) *PhaseResult {
	start := time.Now()
	pr := &PhaseResult{Phase: phase, Status: RunStatusCompleted}
	if err := fn(pr); err != nil {
		pr.Status = RunStatusFailed
		pr.Error = err.Error()
	}
	pr.Duration = time.Since(start)
	metrics.PhaseDuration.WithLabelValues(string(phase)).Observe(pr.Duration.Seconds())
	return pr
}

func skippedPhase(phase Phase) *PhaseResult {
	return &PhaseResult{Phase: phase, Status: RunStatusCompleted, Skipped: true}
}
