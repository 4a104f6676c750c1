package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-feedback/internal/extract"
	"resume-feedback/internal/extraction"
	"resume-feedback/internal/feedback"
	"resume-feedback/internal/notify"
	"resume-feedback/internal/prompts"
	"resume-feedback/internal/rendering"
	"resume-feedback/internal/resumes"
	"resume-feedback/internal/shared/metrics"
	"resume-feedback/internal/shared/storage/object"
	"resume-feedback/internal/shared/telemetry"
	"resume-feedback/internal/users"
)

type TextExtractor interface {
	Extract(ctx context.Context, doc extract.Document) (string, error)
}

type SectionExtractor interface {
	Extract(ctx context.Context, resumeText, promptKey string) (extraction.Result, error)
}

type FeedbackGenerator interface {
	Generate(ctx context.Context, content map[string]any) feedback.Result
	PolishEmail(ctx context.Context, tree map[string]any) (string, error)
}

type Drafter interface {
	Draft(ctx context.Context, draft notify.Draft) (notify.DraftMetadata, error)
}

type UserDirectory interface {
	GetByID(ctx context.Context, userID string) (users.User, error)
}

// Orchestrator sequences upload, extraction, storage, feedback and rendering.
type Orchestrator struct {
	Text     TextExtractor
	Sections SectionExtractor
	Resumes  *resumes.Service
	Feedback FeedbackGenerator
	Renderer rendering.Renderer
	Drafter  Drafter
	// Users and Store are optional.
	Users     UserDirectory
	Store     object.ObjectStore
	Runs      *Runs
	ModelInfo map[string]any
	PromptKey string
	NewID     func() string
	Now       func() time.Time
}

// Upload is a resume file submitted by a user.
type Upload struct {
	UserID   string
	FileName string
	MimeType string
	Data     []byte
}

// Outcome is the result of a successful run.
type Outcome struct {
	RunID       string         `json:"runId"`
	UserID      string         `json:"userId"`
	ResumeID    string         `json:"resumeId"`
	Stage       Stage          `json:"stage"`
	Feedback    map[string]any `json:"feedback"`
	DocumentURL string         `json:"documentUrl,omitempty"`
}

// DraftRequest selects the recipient of a feedback email. Empty fields fall back
// to the registered user and the extracted contact details.
type DraftRequest struct {
	Recipient string
	Name      string
	Polish    bool
}

func (o *Orchestrator) newRun(userID, resumeID string) *Run {
	now := o.now()
	run := &Run{
		ID:        o.newID(),
		UserID:    userID,
		ResumeID:  resumeID,
		Stage:     StageInitialized,
		StartedAt: now,
		UpdatedAt: now,
	}
	o.Runs.put(run)
	return run
}

func (o *Orchestrator) advance(run *Run, to Stage) {
	t := run.advance(to, o.now())
	o.Runs.put(run)
	telemetry.Info("pipeline.stage", map[string]any{
		"run_id":            run.ID,
		"user_id":           run.UserID,
		"resume_id":         run.ResumeID,
		"stage":             to,
		"status_transition": fmt.Sprintf("%s->%s", t.From, t.To),
	})
}

func (o *Orchestrator) abort(run *Run, started time.Time, f *Failure) *Failure {
	run.Failure = f
	run.UpdatedAt = o.now()
	o.Runs.put(run)
	metrics.IncPipelineFailed()
	metrics.ObservePipelineDurationMs(metrics.SinceMillis(started))
	telemetry.Error("pipeline.failed", map[string]any{
		"run_id":    run.ID,
		"user_id":   run.UserID,
		"resume_id": run.ResumeID,
		"stage":     run.Stage,
		"step":      f.Stage,
		"code":      f.Code,
		"error":     f.Detail,
	})
	return f
}

// ProcessRawResume extracts, validates and stores a resume, then generates feedback for it.
// Errors are always *Failure.
func (o *Orchestrator) ProcessRawResume(ctx context.Context, up Upload) (Outcome, error) {
	started := time.Now()
	metrics.IncPipelineStarted()
	run := o.newRun(up.UserID, "")

	if strings.TrimSpace(up.UserID) == "" {
		return Outcome{}, o.abort(run, started, fail(StepLookupUser, errors.New("user id is required")))
	}
	var industry string
	if o.Users != nil {
		user, err := o.Users.GetByID(ctx, up.UserID)
		if err != nil {
			return Outcome{}, o.abort(run, started, fail(StepLookupUser, err))
		}
		industry = user.Industry
	}

	doc := extract.Document{Data: up.Data, MimeType: up.MimeType, FileName: up.FileName}
	if o.Store != nil && len(up.Data) > 0 {
		key, _, mimeType, err := o.Store.Save(ctx, up.UserID, up.FileName, bytes.NewReader(up.Data))
		if err != nil {
			return Outcome{}, o.abort(run, started, fail(StepStoreUpload, err))
		}
		doc.Key = key
		if doc.MimeType == "" {
			doc.MimeType = mimeType
		}
	}

	text, err := o.Text.Extract(ctx, doc)
	if err != nil {
		return Outcome{}, o.abort(run, started, fail(StepExtractText, err))
	}

	sections, err := o.Sections.Extract(ctx, text, o.promptKey())
	if err != nil {
		return Outcome{}, o.abort(run, started, fail(StepExtractSections, err))
	}

	complete := true
	resumeID, err := o.Resumes.CreateOrUpdateUserVersion(ctx, up.UserID, sections, resumes.UserVersionInput{
		IsComplete: &complete,
		Status:     resumes.StatusPending,
		Industry:   industry,
		ModelInfo:  o.ModelInfo,
	})
	if err != nil {
		return Outcome{}, o.abort(run, started, fail(StepStoreUserVersion, err))
	}
	run.ResumeID = resumeID
	o.advance(run, StageRawProcessed)

	return o.generate(ctx, run, started)
}

// GenerateFeedback (re)runs feedback generation for a stored resume.
func (o *Orchestrator) GenerateFeedback(ctx context.Context, resumeID string) (Outcome, error) {
	started := time.Now()
	metrics.IncPipelineStarted()
	run := o.newRun("", resumeID)
	return o.generate(ctx, run, started)
}

func (o *Orchestrator) generate(ctx context.Context, run *Run, started time.Time) (Outcome, error) {
	o.advance(run, StageGeneratingFeedback)

	doc, err := o.Resumes.Fetch(ctx, run.ResumeID)
	if err != nil {
		return Outcome{}, o.abort(run, started, fail(StepFetchResume, err))
	}
	run.UserID = doc.Metadata.UserID

	res := o.Feedback.Generate(ctx, doc.Content)
	if res.Failed() {
		f := fail(StepGenerateFeedback, res.Err)
		if res.Err == nil {
			f = fail(StepGenerateFeedback, errors.New(res.Error))
		}
		return Outcome{}, o.abort(run, started, f)
	}

	if _, err := o.Resumes.CreateDerivedVersion(ctx, run.ResumeID, resumes.VersionLLMFeedback, res.Feedback, resumes.DerivedVersionInput{
		IsComplete: true,
		ModelInfo:  o.ModelInfo,
	}); err != nil {
		return Outcome{}, o.abort(run, started, fail(StepStoreFeedback, err))
	}
	o.advance(run, StageFeedbackGenerated)

	o.render(ctx, run, res.Feedback)

	metrics.IncPipelineCompleted()
	metrics.ObservePipelineDurationMs(metrics.SinceMillis(started))
	return Outcome{
		RunID:       run.ID,
		UserID:      run.UserID,
		ResumeID:    run.ResumeID,
		Stage:       run.Stage,
		Feedback:    res.Feedback,
		DocumentURL: run.DocumentURL,
	}, nil
}

// render never fails the run; the outcome is recorded in the run stage.
func (o *Orchestrator) render(ctx context.Context, run *Run, tree map[string]any) {
	renderer := o.Renderer
	if renderer == nil {
		renderer = rendering.Noop{}
	}
	url, err := renderer.Render(ctx, run.UserID, tree, rendering.DefaultPurpose)
	if err != nil || url == "" {
		if err == nil {
			err = errors.New("renderer returned no url")
		}
		metrics.IncDocRendered(false)
		telemetry.Warn("pipeline.render_failed", map[string]any{
			"run_id":    run.ID,
			"resume_id": run.ResumeID,
			"error":     err,
		})
		o.advance(run, StageDocumentFailed)
		return
	}
	metrics.IncDocRendered(true)
	run.DocumentURL = url
	if err := o.Resumes.SetDocumentURL(ctx, run.ResumeID, resumes.VersionLLMFeedback, url); err != nil {
		telemetry.Warn("pipeline.record_url_failed", map[string]any{
			"run_id":    run.ID,
			"resume_id": run.ResumeID,
			"error":     err,
		})
	}
	o.advance(run, StageDocumentCreated)
}

// DraftFeedbackEmail formats the stored feedback for resumeID and stores an email draft.
func (o *Orchestrator) DraftFeedbackEmail(ctx context.Context, resumeID string, req DraftRequest) (notify.DraftMetadata, error) {
	if o.Drafter == nil {
		return notify.DraftMetadata{}, fail(StepDraftEmail, errors.New("email drafting not configured"))
	}
	userDoc, err := o.Resumes.Fetch(ctx, resumeID)
	if err != nil {
		return notify.DraftMetadata{}, fail(StepFetchResume, err)
	}
	fbDoc, err := o.Resumes.FetchVersion(ctx, resumeID, resumes.VersionLLMFeedback)
	if err != nil {
		return notify.DraftMetadata{}, fail(StepFetchResume, err)
	}

	extracted := extraction.Result(userDoc.Content)
	recipient := strings.TrimSpace(req.Recipient)
	if recipient == "" && o.Users != nil {
		if user, err := o.Users.GetByID(ctx, userDoc.Metadata.UserID); err == nil {
			recipient = user.Email
		}
	}
	if recipient == "" {
		recipient = extracted.UserInfo("email")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = extracted.UserInfo("first_name")
	}

	body, err := o.emailBody(ctx, name, fbDoc.Content, req.Polish)
	if err != nil {
		return notify.DraftMetadata{}, fail(StepDraftEmail, err)
	}

	meta, err := o.Drafter.Draft(ctx, notify.Draft{
		UserID:   userDoc.Metadata.UserID,
		ResumeID: resumeID,
		To:       recipient,
		Name:     name,
		Body:     body,
	})
	if err != nil {
		return notify.DraftMetadata{}, fail(StepDraftEmail, err)
	}
	return meta, nil
}

func (o *Orchestrator) emailBody(ctx context.Context, name string, tree map[string]any, polish bool) (string, error) {
	if polish && o.Feedback != nil {
		body, err := o.Feedback.PolishEmail(ctx, tree)
		if err == nil && body != "" {
			return body, nil
		}
		telemetry.Warn("pipeline.polish_failed", map[string]any{"error": err})
	}
	return feedback.FormatEmailBody(name, tree)
}

// Run returns a recent run by id.
func (o *Orchestrator) Run(id string) (Run, bool) {
	return o.Runs.Get(id)
}

func (o *Orchestrator) promptKey() string {
	if o.PromptKey != "" {
		return o.PromptKey
	}
	return prompts.KeyExtractAllSections
}

func (o *Orchestrator) newID() string {
	if o.NewID != nil {
		return o.NewID()
	}
	return uuid.NewString()
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now().UTC()
}
