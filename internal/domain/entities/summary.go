package entities

import "time"

// TermOutcome is one line of a batch summary
type TermOutcome struct {
	Term        string    `json:"term"`
	Slug        string    `json:"slug"`
	WorkflowID  string    `json:"workflow_id,omitempty"`
	Status      RunStatus `json:"status"`
	FailedStage Stage     `json:"failed_stage,omitempty"`
	ErrorKind   string    `json:"error_kind,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Message     string    `json:"message,omitempty"`
	SoftSkips   []Stage   `json:"soft_skips,omitempty"`
	Article     string    `json:"article,omitempty"`
}

// BatchSummary is written to logs/<date>/workflow-summary.json
type BatchSummary struct {
	Mode       string        `json:"mode"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Total      int           `json:"total"`
	Successful int           `json:"successful"`
	Failed     int           `json:"failed"`
	SoftSkips  int           `json:"soft_skips"`
	Terms      []TermOutcome `json:"terms"`
}

// Add appends an outcome and updates the counters
func (s *BatchSummary) Add(o TermOutcome) {
	s.Terms = append(s.Terms, o)
	s.Total++
	if o.Status == RunCompleted {
		s.Successful++
	} else {
		s.Failed++
	}
	s.SoftSkips += len(o.SoftSkips)
}

// OutcomeFor builds the summary line for a finished run
func OutcomeFor(run *WorkflowRun) TermOutcome {
	o := TermOutcome{
		Term:       run.Term.Raw,
		Slug:       run.Term.Slug,
		WorkflowID: run.ID,
		Status:     run.Status,
		SoftSkips:  run.SoftSkips(),
	}
	if stage, st, ok := run.FailedStage(); ok && run.Status != RunCompleted {
		o.FailedStage = stage
		if st.Error != nil {
			o.ErrorKind = st.Error.Kind
			o.Reason = st.Error.Reason
			o.Message = st.Error.Message
		}
	}
	if run.Stage(StageRender).Status == StatusCompleted {
		o.Article = ArticlePath(run.Term.Slug)
	}
	return o
}
