package repositories

import (
	"context"
	"time"

	"github.com/zatekoja/articleforge/internal/domain/entities"
)

// RunRecord is one finished workflow run as stored in the history ledger
type RunRecord struct {
	WorkflowID  string
	Slug        string
	Term        string
	Status      entities.RunStatus
	Mode        string
	FailedStage string
	ErrorKind   string
	SoftSkips   int
	CreatedAt   time.Time
	FinishedAt  time.Time
}

// RunHistoryFilter narrows List
type RunHistoryFilter struct {
	Slug   string
	Status entities.RunStatus
	Limit  int
}

// RunHistoryRepository persists finished runs for reporting
type RunHistoryRepository interface {
	Record(ctx context.Context, record *RunRecord) error
	List(ctx context.Context, filter RunHistoryFilter) ([]*RunRecord, error)
}

// NewRunRecord derives a history record from a run
func NewRunRecord(run *entities.WorkflowRun) *RunRecord {
	outcome := entities.OutcomeFor(run)
	return &RunRecord{
		WorkflowID:  run.ID,
		Slug:        run.Term.Slug,
		Term:        run.Term.Raw,
		Status:      run.Status,
		Mode:        run.Mode,
		FailedStage: string(outcome.FailedStage),
		ErrorKind:   outcome.ErrorKind,
		SoftSkips:   len(outcome.SoftSkips),
		CreatedAt:   run.CreatedAt,
		FinishedAt:  run.UpdatedAt,
	}
}
