// Package workflow drives terms through the stage DAG, checkpointing every transition.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/articleforge/internal/adapters/storage"
	"github.com/zatekoja/articleforge/internal/application/services"
	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	"github.com/zatekoja/articleforge/internal/domain/repositories"
	"github.com/zatekoja/articleforge/internal/infrastructure/observability"
	"github.com/zatekoja/articleforge/pkg/config"
	apperrors "github.com/zatekoja/articleforge/pkg/errors"
)

// DefaultStageTimeouts bound each stage when no override is configured
var DefaultStageTimeouts = map[entities.Stage]time.Duration{
	entities.StageResearch:     3 * time.Minute,
	entities.StageAnalysis:     2 * time.Minute,
	entities.StageValuation:    45 * time.Second,
	entities.StageEnhancement:  5 * time.Minute,
	entities.StageOptimization: 3 * time.Minute,
	entities.StageRender:       30 * time.Second,
	entities.StageExport:       time.Minute,
}

// Skip reasons recorded on stages
const (
	SkipTimeout          = "timeout"
	SkipDependencyFailed = "dependency_failed"
)

// Services are the stage owners the engine dispatches to
type Services struct {
	Research     *services.ResearchService
	Analysis     *services.AnalysisService
	Valuation    *services.ValuationService
	Enhancement  *services.EnhancementService
	Optimization *services.OptimizationService
	Render       *services.RenderService
	Export       *services.ExportService
}

// Options configures an Engine
type Options struct {
	Store    providers.ArtifactStore
	Services Services
	Locker   providers.SlugLocker
	// Events and History are optional
	Events  providers.RunEventBus
	History repositories.RunHistoryRepository
	Metrics *observability.Metrics

	Mode              config.Mode
	BatchSize         int
	ContinueOnFailure bool
	StageTimeouts     map[entities.Stage]time.Duration
	StageTTLs         map[entities.Stage]time.Duration

	Now   func() time.Time
	NewID func() string
}

// ProcessOptions tunes one invocation
type ProcessOptions struct {
	// Force ignores cached artifacts and starts a fresh run
	Force bool
}

// Engine is the per-term state machine plus the batch scheduler
type Engine struct {
	store             providers.ArtifactStore
	svc               Services
	locker            providers.SlugLocker
	events            providers.RunEventBus
	history           repositories.RunHistoryRepository
	metrics           *observability.Metrics
	mode              config.Mode
	batch             int
	continueOnFailure bool
	timeouts          map[entities.Stage]time.Duration
	ttls              map[entities.Stage]time.Duration
	now               func() time.Time
	newID             func() string

	batchRunning atomic.Bool
}

// NewEngine builds an engine
func NewEngine(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, apperrors.NewConfigError("workflow engine requires an artifact store", nil)
	}
	if opts.Locker == nil {
		return nil, apperrors.NewConfigError("workflow engine requires a slug locker", nil)
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 20
	}
	if opts.Mode == "" {
		opts.Mode = config.ModeStrict
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	timeouts := make(map[entities.Stage]time.Duration, len(DefaultStageTimeouts))
	for s, d := range DefaultStageTimeouts {
		timeouts[s] = d
	}
	for s, d := range opts.StageTimeouts {
		if d > 0 {
			timeouts[s] = d
		}
	}
	return &Engine{
		store:             opts.Store,
		svc:               opts.Services,
		locker:            opts.Locker,
		events:            opts.Events,
		history:           opts.History,
		metrics:           opts.Metrics,
		mode:              opts.Mode,
		batch:             opts.BatchSize,
		continueOnFailure: opts.ContinueOnFailure,
		timeouts:          timeouts,
		ttls:              opts.StageTTLs,
		now:               opts.Now,
		newID:             opts.NewID,
	}, nil
}

func (e *Engine) clock() time.Time {
	return e.now().UTC()
}

// ProcessTerm drives one term to a terminal state. A failed run is reported through
// its status; the error is reserved for cancellation and checkpoint failures.
func (e *Engine) ProcessTerm(ctx context.Context, raw string, opts ProcessOptions) (*entities.WorkflowRun, error) {
	term, err := entities.NewTerm(raw)
	if err != nil {
		return nil, err
	}

	unlock, err := e.locker.Lock(ctx, term.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", term.Slug, err)
	}
	defer unlock()

	ctx, span := observability.StartSpan(ctx, "workflow.process_term", attribute.String("slug", term.Slug))
	defer span.End()

	run, err := e.loadOrCreate(ctx, term, opts)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	logger := e.runLogger(ctx, run)
	logger.Info().Int("resumed", run.Resumed).Str("mode", run.Mode).Msg("processing term")

	state := &runState{}
	for {
		var done bool
		done, err = e.advance(ctx, run, state, opts)
		if err != nil {
			observability.RecordError(span, err)
			logger.Warn().Err(err).Msg("run interrupted")
			return run, err
		}
		if done {
			break
		}
	}

	e.finish(ctx, run)
	return run, nil
}

// Advance performs a single transition. It returns true once the run is terminal.
func (e *Engine) Advance(ctx context.Context, run *entities.WorkflowRun) (*entities.WorkflowRun, bool, error) {
	done, err := e.advance(ctx, run, &runState{}, ProcessOptions{})
	return run, done, err
}

// Status returns the checkpoint for slug
func (e *Engine) Status(ctx context.Context, slug string) (*entities.WorkflowRun, error) {
	var run entities.WorkflowRun
	if _, err := storage.GetJSON(ctx, e.store, entities.RunPath(slug), &run); err != nil {
		if apperrors.Is(err, apperrors.ErrorTypeNotFound) {
			return nil, apperrors.NewNotFoundError("no run recorded for " + slug)
		}
		return nil, err
	}
	run.EnsureStages()
	return &run, nil
}

// loadOrCreate resumes an unfinished checkpoint or starts a new run
func (e *Engine) loadOrCreate(ctx context.Context, term entities.Term, opts ProcessOptions) (*entities.WorkflowRun, error) {
	if !opts.Force {
		existing, err := e.Status(ctx, term.Slug)
		switch {
		case err == nil && !existing.Terminal():
			if n := existing.ResetInterrupted(); n > 0 {
				observability.LoggerFromContext(ctx).Info().
					Str("slug", term.Slug).
					Int("stages", n).
					Msg("re-running stages interrupted mid-flight")
			}
			existing.Resumed++
			existing.Mode = string(e.mode)
			return existing, nil
		case err != nil && !apperrors.Is(err, apperrors.ErrorTypeNotFound):
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("slug", term.Slug).Msg("unreadable checkpoint, starting a new run")
		}
	}

	run := entities.NewWorkflowRun(e.newID(), term, e.clock())
	run.Mode = string(e.mode)
	if err := e.checkpoint(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// advance picks the next ready stage, runs it and records the outcome
func (e *Engine) advance(ctx context.Context, run *entities.WorkflowRun, state *runState, opts ProcessOptions) (bool, error) {
	if run.Terminal() {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, apperrors.NewCancelledError("run cancelled", err)
	}

	stage, ok := run.NextStage()
	if !ok {
		run.Status = run.Resolve()
		if run.Status == entities.RunRunning || run.Status == entities.RunPending {
			run.Status = entities.RunFailed
		}
		return true, e.checkpoint(ctx, run)
	}

	st := run.Stage(stage)
	started := e.clock()
	st.Status = entities.StatusInProgress
	st.StartedAt = &started
	st.FinishedAt = nil
	st.Attempts++
	st.Error = nil
	st.SkipReason = ""
	run.Status = entities.RunRunning
	if err := e.checkpoint(ctx, run); err != nil {
		return false, err
	}
	e.publish(ctx, run, stage)

	outcome, err := e.runStage(ctx, run, stage, state, opts)
	if ctx.Err() != nil {
		// the in_progress checkpoint stays; the stage re-runs on resume
		return false, apperrors.NewCancelledError(fmt.Sprintf("run cancelled during %s", stage), ctx.Err())
	}

	finished := e.clock()
	st.FinishedAt = &finished
	duration := finished.Sub(started)
	logger := e.runLogger(ctx, run).With().Str("stage", string(stage)).Int64("duration_ms", duration.Milliseconds()).Logger()

	stop := false
	switch {
	case err == nil:
		st.Status = entities.StatusCompleted
		st.Cached = outcome.cached
		st.Artifacts = outcome.artifacts
		st.Metadata = outcome.metadata
		logger.Info().Str("status", string(st.Status)).Bool("cached", st.Cached).Msg("stage completed")

	case errors.Is(err, errStageTimeout) && stage.IsSoft():
		st.Status = entities.StatusSkipped
		st.SkipReason = SkipTimeout
		logger.Warn().Str("status", string(st.Status)).Msg("soft stage timed out, continuing without it")

	default:
		st.Status = entities.StatusFailed
		st.Error = stageError(err)
		logger.Error().Err(err).
			Str("status", string(st.Status)).
			Str("kind", st.Error.Kind).
			Str("reason", st.Error.Reason).
			Msg("stage failed")
		if !stage.IsSoft() {
			stop = e.onHardFailure(run, stage, st.Error)
		}
	}
	observability.RecordStage(ctx, e.metrics, string(stage), string(st.Status), duration)

	if stop {
		run.Status = entities.RunFailed
	} else {
		run.Status = run.Resolve()
	}
	if err := e.checkpoint(ctx, run); err != nil {
		return false, err
	}
	e.publish(ctx, run, stage)
	return run.Terminal(), nil
}

// onHardFailure applies the continuation policy and reports whether the run stops
func (e *Engine) onHardFailure(run *entities.WorkflowRun, failed entities.Stage, se *entities.StageError) bool {
	fatal := se.Kind == apperrors.ErrorTypeConfig.Kind() || se.Kind == apperrors.ErrorTypeInternal.Kind()
	if fatal || !e.continueOnFailure {
		return true
	}
	for _, s := range entities.Stages {
		st := run.Stage(s)
		if st.Status == entities.StatusPending && s.DependsOn(failed) {
			st.Status = entities.StatusSkipped
			st.SkipReason = SkipDependencyFailed + ":" + string(failed)
		}
	}
	return false
}

// finish records the terminal run in the history ledger
func (e *Engine) finish(ctx context.Context, run *entities.WorkflowRun) {
	logger := e.runLogger(ctx, run)
	outcome := entities.OutcomeFor(run)
	event := logger.Info()
	if run.Status != entities.RunCompleted {
		event = logger.Warn().Str("failed_stage", string(outcome.FailedStage)).Str("kind", outcome.ErrorKind)
	}
	event.Str("status", string(run.Status)).Int("soft_skips", len(outcome.SoftSkips)).Msg("run finished")

	if e.history != nil {
		if err := e.history.Record(ctx, repositories.NewRunRecord(run)); err != nil {
			logger.Warn().Err(err).Msg("failed to record run history")
		}
	}
}

func (e *Engine) checkpoint(ctx context.Context, run *entities.WorkflowRun) error {
	run.UpdatedAt = e.clock()
	meta := entities.ArtifactMeta{
		Term:       run.Term.Raw,
		Type:       "run",
		TimeFields: []string{"created_at", "updated_at", "started_at", "finished_at"},
	}
	// a cancelled caller must not prevent the checkpoint from landing
	if err := storage.PutJSON(context.WithoutCancel(ctx), e.store, entities.RunPath(run.Term.Slug), run, meta); err != nil {
		return apperrors.NewInternalError("failed to checkpoint run for "+run.Term.Slug, err)
	}
	return nil
}

func (e *Engine) publish(ctx context.Context, run *entities.WorkflowRun, stage entities.Stage) {
	if e.events == nil {
		return
	}
	st := run.Stage(stage)
	ev := entities.RunEvent{
		WorkflowID: run.ID,
		Slug:       run.Term.Slug,
		Stage:      stage,
		Status:     st.Status,
		RunStatus:  run.Status,
		At:         e.clock(),
	}
	if st.Error != nil {
		ev.ErrorKind = st.Error.Kind
	}
	if err := e.events.Publish(ctx, ev); err != nil {
		observability.LoggerFromContext(ctx).Debug().Err(err).Msg("failed to publish run event")
	}
}

func (e *Engine) runLogger(ctx context.Context, run *entities.WorkflowRun) *zerolog.Logger {
	l := observability.LoggerFromContext(ctx).With().
		Str("slug", run.Term.Slug).
		Str("workflow_id", run.ID).
		Logger()
	return &l
}

func stageError(err error) *entities.StageError {
	kind := apperrors.TypeOf(err)
	reason := apperrors.ReasonOf(err)
	if errors.Is(err, errStageTimeout) {
		kind, reason = apperrors.ErrorTypeCancelled, SkipTimeout
	}
	return &entities.StageError{Kind: kind.Kind(), Reason: reason, Message: err.Error()}
}
