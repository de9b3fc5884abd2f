package workflow

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/zatekoja/articleforge/internal/adapters/storage"
	"github.com/zatekoja/articleforge/internal/application/services"
	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/articleforge/pkg/errors"
)

// ReasonAlreadyRunning is the conflict reason for overlapping batches
const ReasonAlreadyRunning = "already_running"

// ProcessBatch runs up to BatchSize terms concurrently and writes the day's summary.
// Terms that share a slug are processed once.
func (e *Engine) ProcessBatch(ctx context.Context, terms []string, opts ProcessOptions) (*entities.BatchSummary, error) {
	if !e.batchRunning.CompareAndSwap(false, true) {
		return nil, apperrors.NewConflictError("a batch is already being processed", ReasonAlreadyRunning)
	}
	defer e.batchRunning.Store(false)

	if len(terms) == 0 {
		return nil, apperrors.NewValidationError("batch contains no terms")
	}

	logger := observability.LoggerFromContext(ctx)
	summary := &entities.BatchSummary{Mode: string(e.mode), StartedAt: e.clock()}

	// slots holds one outcome per seed position; duplicates leave theirs empty
	slots := make([]*entities.TermOutcome, len(terms))
	type pending struct {
		slot int
		term entities.Term
	}
	var valid []pending
	seen := make(map[string]bool, len(terms))
	for i, raw := range terms {
		term, err := entities.NewTerm(raw)
		if err != nil {
			slots[i] = &entities.TermOutcome{
				Term:      raw,
				Status:    entities.RunFailed,
				ErrorKind: apperrors.TypeOf(err).Kind(),
				Message:   err.Error(),
			}
			continue
		}
		if seen[term.Slug] {
			logger.Info().Str("slug", term.Slug).Msg("skipping duplicate term in batch")
			continue
		}
		seen[term.Slug] = true
		valid = append(valid, pending{slot: i, term: term})
	}

	logger.Info().Int("terms", len(valid)).Int("concurrency", e.batch).Msg("processing batch")

	sem := semaphore.NewWeighted(int64(e.batch))
	var wg sync.WaitGroup
	for _, p := range valid {
		if err := sem.Acquire(ctx, 1); err != nil {
			out := cancelledOutcome(p.term, nil, err)
			slots[p.slot] = &out
			continue
		}
		wg.Add(1)
		go func(p pending) {
			defer wg.Done()
			defer sem.Release(1)
			out := e.processOne(ctx, p.term, opts)
			slots[p.slot] = &out
		}(p)
	}
	wg.Wait()

	for _, o := range slots {
		if o != nil {
			summary.Add(*o)
		}
	}
	summary.FinishedAt = e.clock()

	if err := e.writeSummary(ctx, summary); err != nil {
		logger.Error().Err(err).Msg("failed to write batch summary")
	}
	logger.Info().
		Int("total", summary.Total).
		Int("successful", summary.Successful).
		Int("failed", summary.Failed).
		Int("soft_skips", summary.SoftSkips).
		Msg("batch finished")

	if err := ctx.Err(); err != nil {
		return summary, apperrors.NewCancelledError("batch cancelled", err)
	}
	return summary, nil
}

// Resume drives every non-terminal checkpoint in the store to completion
func (e *Engine) Resume(ctx context.Context, opts ProcessOptions) (*entities.BatchSummary, error) {
	slugs, err := services.ListRuns(ctx, e.store)
	if err != nil {
		return nil, err
	}
	var pending []string
	for _, slug := range slugs {
		run, err := e.Status(ctx, slug)
		if err != nil || run.Terminal() {
			continue
		}
		pending = append(pending, run.Term.Raw)
	}
	if len(pending) == 0 {
		return &entities.BatchSummary{Mode: string(e.mode), StartedAt: e.clock(), FinishedAt: e.clock()}, nil
	}
	return e.ProcessBatch(ctx, pending, opts)
}

func (e *Engine) processOne(ctx context.Context, term entities.Term, opts ProcessOptions) entities.TermOutcome {
	run, err := e.ProcessTerm(ctx, term.Raw, opts)
	if err != nil {
		return cancelledOutcome(term, run, err)
	}
	return entities.OutcomeFor(run)
}

func cancelledOutcome(term entities.Term, run *entities.WorkflowRun, err error) entities.TermOutcome {
	o := entities.TermOutcome{Term: term.Raw, Slug: term.Slug}
	if run != nil {
		o = entities.OutcomeFor(run)
	}
	o.Status = entities.RunFailed
	o.ErrorKind = apperrors.TypeOf(err).Kind()
	o.Message = err.Error()
	return o
}

func (e *Engine) writeSummary(ctx context.Context, summary *entities.BatchSummary) error {
	day := summary.StartedAt.Format("2006-01-02")
	meta := entities.ArtifactMeta{Type: "workflow-summary", TimeFields: []string{"started_at", "finished_at"}}
	return storage.PutJSON(context.WithoutCancel(ctx), e.store, entities.SummaryPath(day), summary, meta)
}
