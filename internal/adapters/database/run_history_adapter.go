package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/repositories"
	"github.com/zatekoja/articleforge/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/articleforge/pkg/errors"
)

const runsTable = "workflow_runs"

const createRunsTable = `CREATE TABLE IF NOT EXISTS workflow_runs (
	workflow_id  TEXT PRIMARY KEY,
	slug         TEXT NOT NULL,
	term         TEXT NOT NULL,
	status       TEXT NOT NULL,
	mode         TEXT NOT NULL DEFAULT '',
	failed_stage TEXT,
	error_kind   TEXT,
	soft_skips   INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL,
	finished_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS workflow_runs_slug_idx ON workflow_runs (slug, finished_at DESC)`

var runColumns = []interface{}{
	"workflow_id", "slug", "term", "status", "mode",
	"failed_stage", "error_kind", "soft_skips", "created_at", "finished_at",
}

// RunHistoryAdapter implements the RunHistoryRepository interface
type RunHistoryAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewRunHistoryAdapter creates a new run history adapter
func NewRunHistoryAdapter(client *postgres.Client) *RunHistoryAdapter {
	return &RunHistoryAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var _ repositories.RunHistoryRepository = (*RunHistoryAdapter)(nil)

// EnsureSchema creates the history table when missing
func (a *RunHistoryAdapter) EnsureSchema(ctx context.Context) error {
	if _, err := a.client.DB().ExecContext(ctx, createRunsTable); err != nil {
		return apperrors.NewInternalError("failed to create workflow_runs table", err)
	}
	return nil
}

// Record upserts a finished run keyed by workflow id
func (a *RunHistoryAdapter) Record(ctx context.Context, record *repositories.RunRecord) error {
	if record == nil {
		return apperrors.NewInternalError("run record is nil", nil)
	}

	row := goqu.Record{
		"workflow_id":  record.WorkflowID,
		"slug":         record.Slug,
		"term":         record.Term,
		"status":       string(record.Status),
		"mode":         record.Mode,
		"failed_stage": sql.NullString{String: record.FailedStage, Valid: record.FailedStage != ""},
		"error_kind":   sql.NullString{String: record.ErrorKind, Valid: record.ErrorKind != ""},
		"soft_skips":   record.SoftSkips,
		"created_at":   record.CreatedAt.UTC(),
		"finished_at":  record.FinishedAt.UTC(),
	}

	query, args, err := a.db.Insert(runsTable).
		Rows(row).
		OnConflict(goqu.DoUpdate("workflow_id", goqu.Record{
			"status":       goqu.L("EXCLUDED.status"),
			"mode":         goqu.L("EXCLUDED.mode"),
			"failed_stage": goqu.L("EXCLUDED.failed_stage"),
			"error_kind":   goqu.L("EXCLUDED.error_kind"),
			"soft_skips":   goqu.L("EXCLUDED.soft_skips"),
			"finished_at":  goqu.L("EXCLUDED.finished_at"),
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build run history upsert", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to record run "+record.WorkflowID, err)
	}
	return nil
}

// List returns the most recently finished runs matching filter
func (a *RunHistoryAdapter) List(ctx context.Context, filter repositories.RunHistoryFilter) ([]*repositories.RunRecord, error) {
	where := goqu.Ex{}
	if filter.Slug != "" {
		where["slug"] = filter.Slug
	}
	if filter.Status != "" {
		where["status"] = string(filter.Status)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query, args, err := a.db.Select(runColumns...).
		From(runsTable).
		Where(where).
		Order(goqu.I("finished_at").Desc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build run history query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list run history", err)
	}
	defer rows.Close()

	var records []*repositories.RunRecord
	for rows.Next() {
		rec := &repositories.RunRecord{}
		var status string
		var failedStage, errorKind sql.NullString
		if err := rows.Scan(
			&rec.WorkflowID,
			&rec.Slug,
			&rec.Term,
			&status,
			&rec.Mode,
			&failedStage,
			&errorKind,
			&rec.SoftSkips,
			&rec.CreatedAt,
			&rec.FinishedAt,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan run history row", err)
		}
		rec.Status = entities.RunStatus(status)
		rec.FailedStage = failedStage.String
		rec.ErrorKind = errorKind.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate run history", err)
	}
	return records, nil
}
