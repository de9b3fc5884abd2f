package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRun(t *testing.T) *WorkflowRun {
	t.Helper()
	term, err := NewTerm("Art appraisal of antique lamps")
	require.NoError(t, err)
	return NewWorkflowRun("wf-1", term, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

func setAll(run *WorkflowRun, status StageStatus) {
	for _, s := range Stages {
		run.Stage(s).Status = status
	}
}

func TestNewTerm(t *testing.T) {
	term, err := NewTerm("  Art appraisal   of ANTIQUE lamps ")
	require.NoError(t, err)
	assert.Equal(t, "art-appraisal-of-antique-lamps", term.Slug)
	assert.Equal(t, "Art appraisal of ANTIQUE lamps", term.Raw)

	_, err = NewTerm(" -- ")
	assert.Error(t, err)
}

func TestNextStageFollowsDAG(t *testing.T) {
	run := newRun(t)

	next, ok := run.NextStage()
	require.True(t, ok)
	assert.Equal(t, StageResearch, next)

	run.Stage(StageResearch).Status = StatusCompleted
	run.Stage(StageAnalysis).Status = StatusCompleted
	next, _ = run.NextStage()
	assert.Equal(t, StageValuation, next)

	run.Stage(StageValuation).Status = StatusFailed
	next, _ = run.NextStage()
	assert.Equal(t, StageEnhancement, next, "a failed soft predecessor does not block enhancement")
}

func TestEnhancementWaitsForValuation(t *testing.T) {
	run := newRun(t)
	run.Stage(StageResearch).Status = StatusCompleted
	run.Stage(StageAnalysis).Status = StatusCompleted

	assert.False(t, run.Ready(StageEnhancement))
	run.Stage(StageValuation).Status = StatusSkipped
	assert.True(t, run.Ready(StageEnhancement))
}

func TestDependsOn(t *testing.T) {
	assert.True(t, StageExport.DependsOn(StageResearch))
	assert.True(t, StageEnhancement.DependsOn(StageAnalysis))
	assert.False(t, StageEnhancement.DependsOn(StageValuation))
	assert.False(t, StageValuation.DependsOn(StageEnhancement))
	assert.True(t, StageValuation.IsSoft())
	assert.False(t, StageAnalysis.IsSoft())
	assert.False(t, StageExport.IsSoft())
}

func TestResolve(t *testing.T) {
	run := newRun(t)
	assert.Equal(t, RunPending, run.Resolve())

	run.Stage(StageResearch).Status = StatusInProgress
	assert.Equal(t, RunRunning, run.Resolve())

	setAll(run, StatusCompleted)
	assert.Equal(t, RunCompleted, run.Resolve())

	run.Stage(StageValuation).Status = StatusFailed
	assert.Equal(t, RunCompleted, run.Resolve(), "last non-skipped stage completed")

	setAll(run, StatusSkipped)
	run.Stage(StageResearch).Status = StatusFailed
	assert.Equal(t, RunFailed, run.Resolve())

	stopped := newRun(t)
	stopped.Stage(StageResearch).Status = StatusCompleted
	stopped.Stage(StageAnalysis).Status = StatusFailed
	assert.Equal(t, RunFailed, stopped.Resolve(), "stop policy leaves pending stages behind a failure")
}

func TestResetInterrupted(t *testing.T) {
	run := newRun(t)
	now := time.Now()
	run.Stage(StageResearch).Status = StatusCompleted
	run.Stage(StageAnalysis).Status = StatusInProgress
	run.Stage(StageAnalysis).StartedAt = &now

	assert.Equal(t, 1, run.ResetInterrupted())
	assert.Equal(t, StatusPending, run.Stage(StageAnalysis).Status)
	assert.Nil(t, run.Stage(StageAnalysis).StartedAt)
}

func TestOutcomeFor(t *testing.T) {
	run := newRun(t)
	setAll(run, StatusCompleted)
	run.Stage(StageValuation).Status = StatusSkipped
	run.Status = run.Resolve()

	o := OutcomeFor(run)
	assert.Equal(t, RunCompleted, o.Status)
	assert.Equal(t, []Stage{StageValuation}, o.SoftSkips)
	assert.Equal(t, "art-appraisal-of-antique-lamps/article.md", o.Article)

	var summary BatchSummary
	summary.Add(o)
	summary.Add(TermOutcome{Status: RunFailed})
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Successful)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.SoftSkips)
}
