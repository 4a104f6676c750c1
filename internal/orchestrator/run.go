package orchestrator

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Stage is the processing state of one pipeline run.
type Stage string

const (
	StageInitialized        Stage = "initialized"
	StageRawProcessed       Stage = "raw_processed"
	StageGeneratingFeedback Stage = "generating_llm_feedback"
	StageFeedbackGenerated  Stage = "llm_feedback_generated"
	StageDocumentCreated    Stage = "google_doc_created"
	StageDocumentFailed     Stage = "google_doc_failed"
)

// Transition records one stage change.
type Transition struct {
	From Stage     `json:"from"`
	To   Stage     `json:"to"`
	At   time.Time `json:"at"`
}

// Run is the in-memory state of one pipeline invocation.
type Run struct {
	ID          string       `json:"runId"`
	UserID      string       `json:"userId,omitempty"`
	ResumeID    string       `json:"resumeId,omitempty"`
	Stage       Stage        `json:"stage"`
	History     []Transition `json:"history"`
	DocumentURL string       `json:"documentUrl,omitempty"`
	Failure     *Failure     `json:"failure,omitempty"`
	StartedAt   time.Time    `json:"startedAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func (r *Run) advance(to Stage, at time.Time) Transition {
	t := Transition{From: r.Stage, To: to, At: at}
	r.History = append(r.History, t)
	r.Stage = to
	r.UpdatedAt = at
	return t
}

func (r *Run) snapshot() Run {
	out := *r
	out.History = append([]Transition(nil), r.History...)
	if r.Failure != nil {
		f := *r.Failure
		out.Failure = &f
	}
	return out
}

// Runs keeps recent runs so callers can poll them by id. Entries expire after the TTL.
type Runs struct {
	cache *cache.Cache
}

func NewRuns(ttl time.Duration) *Runs {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Runs{cache: cache.New(ttl, 2*ttl)}
}

func (r *Runs) put(run *Run) {
	if r == nil {
		return
	}
	r.cache.SetDefault(run.ID, run.snapshot())
}

// Get returns a copy of the run with the given id.
func (r *Runs) Get(id string) (Run, bool) {
	if r == nil {
		return Run{}, false
	}
	v, ok := r.cache.Get(id)
	if !ok {
		return Run{}, false
	}
	run, ok := v.(Run)
	return run, ok
}
