package workflow

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/articleforge/internal/application/services"
	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/articleforge/pkg/errors"
)

var errStageTimeout = errors.New("stage deadline exceeded")

// runState carries artifacts between stages of one invocation so they are not re-read
type runState struct {
	bundle    *entities.ResearchBundle
	plan      *entities.ArticlePlan
	valuation *entities.ValuationRange
	enhanced  *entities.ArticleRecord
	optimized *entities.ArticleRecord
}

type stageOutcome struct {
	cached    bool
	artifacts []string
	metadata  map[string]interface{}
}

// runStage executes stage under its deadline
func (e *Engine) runStage(ctx context.Context, run *entities.WorkflowRun, stage entities.Stage, state *runState, opts ProcessOptions) (out stageOutcome, err error) {
	sctx, cancel := context.WithTimeout(ctx, e.timeouts[stage])
	defer cancel()
	sctx, span := observability.StartSpan(sctx, "workflow.stage."+string(stage),
		attribute.String("slug", run.Term.Slug),
		attribute.String("workflow_id", run.ID),
	)
	defer func() {
		if err != nil {
			observability.RecordError(span, err)
		}
		span.End()
	}()

	defer func() {
		if r := recover(); r != nil {
			err = apperrors.NewInternalError(fmt.Sprintf("stage %s panicked: %v", stage, r), nil)
		}
	}()

	stageOpts := services.StageOptions{Force: opts.Force, TTL: e.ttls[stage]}
	out, err = e.dispatch(sctx, run, stage, state, stageOpts)
	if err != nil && ctx.Err() == nil && errors.Is(sctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %s after %s: %w", errStageTimeout, stage, e.timeouts[stage], err)
	}
	return out, err
}

func (e *Engine) dispatch(ctx context.Context, run *entities.WorkflowRun, stage entities.Stage, state *runState, opts services.StageOptions) (stageOutcome, error) {
	term := run.Term
	slug := term.Slug

	switch stage {
	case entities.StageResearch:
		bundle, err := e.svc.Research.Collect(ctx, term, opts)
		if err != nil {
			return stageOutcome{}, err
		}
		state.bundle = bundle
		meta := map[string]interface{}{}
		if len(bundle.Missing) > 0 {
			meta["missing"] = bundle.Missing
		}
		if len(bundle.Mocked) > 0 {
			meta["mocked"] = bundle.Mocked
		}
		artifacts := make([]string, 0, len(entities.ResearchParts))
		for _, part := range entities.ResearchParts {
			if _, ok := bundle.Part(part); ok {
				artifacts = append(artifacts, entities.ResearchPath(slug, part))
			}
		}
		return stageOutcome{
			cached:    len(bundle.Cached) > 0 && len(bundle.Cached) == len(artifacts),
			artifacts: artifacts,
			metadata:  meta,
		}, nil

	case entities.StageAnalysis:
		bundle, err := e.bundle(ctx, term, state)
		if err != nil {
			return stageOutcome{}, err
		}
		res, err := e.svc.Analysis.Analyze(ctx, term, bundle, opts)
		if err != nil {
			return stageOutcome{}, err
		}
		state.plan = res.Plan
		return stageOutcome{
			cached:    res.Cached,
			artifacts: []string{entities.PlanPath(slug), entities.BlurbPath(slug)},
			metadata: map[string]interface{}{
				services.BlurbStrictKey: res.BlurbStrict,
				"sections":              len(res.Plan.Sections),
				"mock":                  res.Mock,
			},
		}, nil

	case entities.StageValuation:
		v, cached, err := e.svc.Valuation.Value(ctx, term, opts)
		if err != nil {
			return stageOutcome{}, err
		}
		state.valuation = v
		return stageOutcome{cached: cached, artifacts: []string{entities.ValuationPath(slug)}}, nil

	case entities.StageEnhancement:
		plan, err := e.plan(ctx, term, state)
		if err != nil {
			return stageOutcome{}, err
		}
		valuation := e.valuation(ctx, run, state)
		article, cached, err := e.svc.Enhancement.Enhance(ctx, term, plan, valuation, opts)
		if err != nil {
			return stageOutcome{}, err
		}
		state.enhanced = article
		return stageOutcome{
			cached:    cached,
			artifacts: []string{entities.EnhancedPath(slug)},
			metadata: map[string]interface{}{
				"sections":  len(article.Sections),
				"valuation": article.Valuation != nil,
			},
		}, nil

	case entities.StageOptimization:
		plan, err := e.plan(ctx, term, state)
		if err != nil {
			return stageOutcome{}, err
		}
		enhanced := state.enhanced
		if enhanced == nil {
			if enhanced, err = e.svc.Enhancement.Load(ctx, term); err != nil {
				return stageOutcome{}, err
			}
		}
		article, cached, err := e.svc.Optimization.Optimize(ctx, term, enhanced, plan, opts)
		if err != nil {
			return stageOutcome{}, err
		}
		state.optimized = article
		return stageOutcome{cached: cached, artifacts: []string{entities.OptimizedPath(slug)}}, nil

	case entities.StageRender:
		path, err := e.svc.Render.Render(ctx, run)
		if err != nil {
			return stageOutcome{}, err
		}
		return stageOutcome{artifacts: []string{path}}, nil

	case entities.StageExport:
		receipt, err := e.svc.Export.Publish(ctx, run)
		if err != nil {
			return stageOutcome{}, err
		}
		kinds := make([]string, 0, len(receipt.Targets))
		for _, t := range receipt.Targets {
			kinds = append(kinds, t.Kind)
		}
		return stageOutcome{
			artifacts: []string{entities.ExportReceiptPath(slug)},
			metadata:  map[string]interface{}{"targets": kinds},
		}, nil
	}

	return stageOutcome{}, apperrors.NewInternalError("unknown stage "+string(stage), nil)
}

func (e *Engine) bundle(ctx context.Context, term entities.Term, state *runState) (*entities.ResearchBundle, error) {
	if state.bundle != nil {
		return state.bundle, nil
	}
	b, err := e.svc.Research.Load(ctx, term)
	if err != nil {
		return nil, err
	}
	state.bundle = b
	return b, nil
}

func (e *Engine) plan(ctx context.Context, term entities.Term, state *runState) (*entities.ArticlePlan, error) {
	if state.plan != nil {
		return state.plan, nil
	}
	p, err := e.svc.Analysis.LoadPlan(ctx, term)
	if err != nil {
		return nil, err
	}
	state.plan = p
	return p, nil
}

// valuation returns the range only when the valuation stage completed in this run
func (e *Engine) valuation(ctx context.Context, run *entities.WorkflowRun, state *runState) *entities.ValuationRange {
	if run.Stage(entities.StageValuation).Status != entities.StatusCompleted {
		return nil
	}
	if state.valuation != nil {
		return state.valuation
	}
	v, err := e.svc.Valuation.Load(ctx, run.Term)
	if err != nil {
		e.runLogger(ctx, run).Warn().Err(err).Msg("completed valuation could not be loaded, enhancing without it")
		return nil
	}
	state.valuation = v
	return v
}
