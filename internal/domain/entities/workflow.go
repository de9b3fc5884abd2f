package entities

import (
	"time"
)

// Stage is one node of the fixed workflow DAG
type Stage string

const (
	StageResearch     Stage = "research"
	StageAnalysis     Stage = "analysis"
	StageValuation    Stage = "valuation"
	StageEnhancement  Stage = "enhancement"
	StageOptimization Stage = "optimization"
	StageRender       Stage = "render"
	StageExport       Stage = "export"
)

// Stages lists every stage in DAG order
var Stages = []Stage{
	StageResearch,
	StageAnalysis,
	StageValuation,
	StageEnhancement,
	StageOptimization,
	StageRender,
	StageExport,
}

// hardPredecessors must be completed or skipped before a stage may start
var hardPredecessors = map[Stage][]Stage{
	StageAnalysis:     {StageResearch},
	StageValuation:    {StageAnalysis},
	StageEnhancement:  {StageAnalysis},
	StageOptimization: {StageEnhancement},
	StageRender:       {StageOptimization},
	StageExport:       {StageRender},
}

// softPredecessors feed a stage when available but never block it
var softPredecessors = map[Stage][]Stage{
	StageEnhancement: {StageValuation},
}

// Predecessors returns the hard dependencies of s
func (s Stage) Predecessors() []Stage {
	return hardPredecessors[s]
}

// SoftPredecessors returns the soft dependencies of s
func (s Stage) SoftPredecessors() []Stage {
	return softPredecessors[s]
}

// IsSoft reports whether s only feeds other stages through soft edges
func (s Stage) IsSoft() bool {
	for _, deps := range hardPredecessors {
		for _, d := range deps {
			if d == s {
				return false
			}
		}
	}
	return s != StageExport
}

// DependsOn reports whether s transitively hard-depends on other
func (s Stage) DependsOn(other Stage) bool {
	for _, p := range hardPredecessors[s] {
		if p == other || p.DependsOn(other) {
			return true
		}
	}
	return false
}

// ParseStage returns the stage named name
func ParseStage(name string) (Stage, bool) {
	for _, s := range Stages {
		if string(s) == name {
			return s, true
		}
	}
	return "", false
}

// StageStatus is the lifecycle state of one stage within a run
type StageStatus string

const (
	StatusPending    StageStatus = "pending"
	StatusInProgress StageStatus = "in_progress"
	StatusCompleted  StageStatus = "completed"
	StatusFailed     StageStatus = "failed"
	StatusSkipped    StageStatus = "skipped"
)

// Settled reports whether successors may proceed past this status
func (s StageStatus) Settled() bool {
	return s == StatusCompleted || s == StatusSkipped
}

// Terminal reports whether the status can no longer change within the run
func (s StageStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusSkipped
}

// RunStatus is the aggregate state of a WorkflowRun
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// StageError records why a stage failed or was skipped
type StageError struct {
	Kind    string `json:"kind"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

// StageState is the persisted status of one stage
type StageState struct {
	Status     StageStatus            `json:"status"`
	Attempts   int                    `json:"attempts"`
	StartedAt  *time.Time             `json:"started_at,omitempty"`
	FinishedAt *time.Time             `json:"finished_at,omitempty"`
	Cached     bool                   `json:"cached,omitempty"`
	Artifacts  []string               `json:"artifacts,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	SkipReason string                 `json:"skip_reason,omitempty"`
	Error      *StageError            `json:"error,omitempty"`
}

// WorkflowRun is the stateful record of one processing attempt over a term
type WorkflowRun struct {
	ID        string                 `json:"workflow_id"`
	Term      Term                   `json:"term"`
	Status    RunStatus              `json:"status"`
	Mode      string                 `json:"mode,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
	Resumed   int                    `json:"resumed,omitempty"`
	Stages    map[Stage]*StageState  `json:"stages"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewWorkflowRun creates a run with every stage pending
func NewWorkflowRun(id string, term Term, now time.Time) *WorkflowRun {
	run := &WorkflowRun{
		ID:        id,
		Term:      term,
		Status:    RunPending,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
		Stages:    make(map[Stage]*StageState, len(Stages)),
	}
	run.EnsureStages()
	return run
}

// EnsureStages fills in missing stage entries as pending
func (r *WorkflowRun) EnsureStages() {
	if r.Stages == nil {
		r.Stages = make(map[Stage]*StageState, len(Stages))
	}
	for _, s := range Stages {
		if r.Stages[s] == nil {
			r.Stages[s] = &StageState{Status: StatusPending}
		}
	}
}

// Stage returns the state of s
func (r *WorkflowRun) Stage(s Stage) *StageState {
	r.EnsureStages()
	return r.Stages[s]
}

// Ready reports whether every hard predecessor of s is completed or skipped
// and every soft predecessor has reached a terminal status.
func (r *WorkflowRun) Ready(s Stage) bool {
	for _, p := range s.Predecessors() {
		if !r.Stage(p).Status.Settled() {
			return false
		}
	}
	for _, p := range s.SoftPredecessors() {
		if !r.Stage(p).Status.Terminal() {
			return false
		}
	}
	return true
}

// NextStage returns the first pending stage in DAG order whose predecessors allow it to start
func (r *WorkflowRun) NextStage() (Stage, bool) {
	for _, s := range Stages {
		if r.Stage(s).Status == StatusPending && r.Ready(s) {
			return s, true
		}
	}
	return "", false
}

// ResetInterrupted turns in_progress stages back into pending
func (r *WorkflowRun) ResetInterrupted() int {
	n := 0
	for _, s := range Stages {
		st := r.Stage(s)
		if st.Status == StatusInProgress {
			st.Status = StatusPending
			st.StartedAt = nil
			n++
		}
	}
	return n
}

// Terminal reports whether the run has finished
func (r *WorkflowRun) Terminal() bool {
	return r.Status == RunCompleted || r.Status == RunFailed
}

// Resolve derives the aggregate status from the stage map. A run whose last
// non-skipped stage is completed is completed.
func (r *WorkflowRun) Resolve() RunStatus {
	anyStarted := false
	anyFailed := false
	for _, s := range Stages {
		switch r.Stage(s).Status {
		case StatusInProgress:
			return RunRunning
		case StatusPending:
		case StatusFailed:
			anyFailed = true
			anyStarted = true
		default:
			anyStarted = true
		}
	}

	if _, ok := r.NextStage(); ok {
		if anyStarted {
			return RunRunning
		}
		return RunPending
	}

	for i := len(Stages) - 1; i >= 0; i-- {
		switch r.Stage(Stages[i]).Status {
		case StatusCompleted:
			return RunCompleted
		case StatusFailed:
			return RunFailed
		case StatusPending:
			// stopped before reaching this stage
			if anyFailed {
				return RunFailed
			}
		}
	}
	return RunFailed
}

// FailedStage returns the first failed stage in DAG order
func (r *WorkflowRun) FailedStage() (Stage, *StageState, bool) {
	for _, s := range Stages {
		if st := r.Stage(s); st.Status == StatusFailed {
			return s, st, true
		}
	}
	return "", nil, false
}

// SoftSkips lists soft stages that were skipped or failed
func (r *WorkflowRun) SoftSkips() []Stage {
	var out []Stage
	for _, s := range Stages {
		if !s.IsSoft() {
			continue
		}
		if st := r.Stage(s).Status; st == StatusSkipped || st == StatusFailed {
			out = append(out, s)
		}
	}
	return out
}

// RunEvent is published on every stage transition
type RunEvent struct {
	WorkflowID string      `json:"workflow_id"`
	Slug       string      `json:"slug"`
	Stage      Stage       `json:"stage,omitempty"`
	Status     StageStatus `json:"status,omitempty"`
	RunStatus  RunStatus   `json:"run_status"`
	ErrorKind  string      `json:"error_kind,omitempty"`
	At         time.Time   `json:"at"`
}
