// internal/submission/orchestrator.go
package submission

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"intern-portal/internal/common/errors"
	"intern-portal/internal/common/logger"
	"intern-portal/internal/common/metrics"
	"intern-portal/internal/common/observability"
	"intern-portal/internal/notify"
	"intern-portal/internal/portal"
)

// APIClient is the slice of the portal client the orchestrator needs.
type APIClient interface {
	GetProgram(ctx context.Context, id int) (*portal.Program, error)
	CreateApplication(ctx context.Context, fields portal.ApplicationFields) (*portal.Application, error)
	ListMyApplications(ctx context.Context) ([]portal.Application, error)
	ListDocumentTypes(ctx context.Context) ([]portal.DocumentType, error)
	UploadDocument(ctx context.Context, applicationID, documentTypeID int, fileName string, content io.Reader) (*portal.Document, error)
}

// Dependencies wires the orchestrator's collaborators.
type Dependencies struct {
	Client        APIClient
	Guard         *DuplicateGuard
	Tracker       *ProgressTracker
	Notifier      notify.Notifier
	Logger        logger.Logger
	Observability *observability.Observability
}

// Orchestrator drives a draft through the full submission pipeline: local
// validation, program and duplicate pre-checks, application creation, then
// concurrent document uploads. At most one submission runs at a time.
type Orchestrator struct {
	client   APIClient
	guard    *DuplicateGuard
	tracker  *ProgressTracker
	notifier notify.Notifier
	logger   logger.Logger
	obs      *observability.Observability
	config   *Config

	inFlight atomic.Bool
}

func NewOrchestrator(deps Dependencies, cfg *Config) (*Orchestrator, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid submission config: %w", err)
	}
	if deps.Client == nil {
		return nil, fmt.Errorf("submission orchestrator requires an API client")
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NopNotifier{}
	}
	if deps.Tracker == nil {
		deps.Tracker = NewProgressTracker()
	}
	if deps.Guard == nil {
		deps.Guard = NewDuplicateGuard(deps.Client, deps.Logger)
	}

	return &Orchestrator{
		client:   deps.Client,
		guard:    deps.Guard,
		tracker:  deps.Tracker,
		notifier: deps.Notifier,
		logger:   deps.Logger,
		obs:      deps.Observability,
		config:   cfg,
	}, nil
}

// Tracker exposes the progress tracker so callers can subscribe before
// submitting.
func (o *Orchestrator) Tracker() *ProgressTracker {
	return o.tracker
}

// Submit runs the full pipeline against a snapshot of the draft. It returns
// a non-nil result for every terminal outcome; the error return is reserved
// for the re-entrancy guard. Once the application record exists the outcome
// can only be success or partial failure: document upload errors never roll
// the application back.
func (o *Orchestrator) Submit(ctx context.Context, draft *ApplicationDraft) (*SubmissionResult, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		return nil, errors.NewSubmissionInFlightError()
	}
	defer o.inFlight.Store(false)

	started := time.Now()
	frozen := draft.snapshot()

	log := o.logger.WithFields(map[string]interface{}{
		"program_id": frozen.ProgramID,
	})
	log.Info("Starting application submission", nil)

	result := o.submit(ctx, frozen, log)

	metrics.SubmissionsTotal.WithLabelValues(string(result.Outcome)).Inc()
	if o.obs != nil {
		o.obs.RecordSubmission(ctx, string(result.Outcome))
		o.obs.RecordSubmissionDuration(ctx, time.Since(started), string(result.Outcome))
	}

	log.Info("Submission finished", map[string]interface{}{
		"outcome":        string(result.Outcome),
		"application_id": result.ApplicationID,
		"uploaded":       result.UploadedCount,
		"duration":       time.Since(started).String(),
	})

	return result, nil
}

func (o *Orchestrator) submit(ctx context.Context, draft *ApplicationDraft, log logger.Logger) *SubmissionResult {
	// Phase 1: local validation. Purely in-memory, an invalid draft never
	// touches the network.
	phase := time.Now()
	fieldErrs := o.validateLocal(draft)
	metrics.SubmissionPhaseDuration.WithLabelValues("validate").Observe(time.Since(phase).Seconds())
	if len(fieldErrs) > 0 {
		o.notifier.Error("Application has validation errors, nothing was submitted")
		return &SubmissionResult{
			Outcome:     OutcomeValidationFailed,
			FieldErrors: fieldErrs,
			Reason:      "local validation failed",
		}
	}

	// Document types are needed for the required-document rule and per-type
	// constraints. A failed fetch relaxes validation rather than blocking the
	// pipeline; the server still enforces its own rules.
	docTypes, err := o.client.ListDocumentTypes(ctx)
	if err != nil {
		log.WithError(err).Warn("Could not load document types, relaxing document validation", nil)
		docTypes = nil
	}

	if fieldErrs := o.validateDocuments(draft, docTypes); len(fieldErrs) > 0 {
		o.notifier.Error("Application has validation errors, nothing was submitted")
		return &SubmissionResult{
			Outcome:     OutcomeValidationFailed,
			FieldErrors: fieldErrs,
			Reason:      "local validation failed",
		}
	}

	// Phase 2: pre-checks.
	phase = time.Now()
	if o.config.CheckProgramOpen {
		if result := o.checkProgramOpen(ctx, draft.ProgramID, log); result != nil {
			metrics.SubmissionPhaseDuration.WithLabelValues("precheck").Observe(time.Since(phase).Seconds())
			o.notifier.Error(result.Reason)
			return result
		}
	}

	found, checked := o.guard.HasExistingApplication(ctx, draft.ProgramID)
	metrics.SubmissionPhaseDuration.WithLabelValues("precheck").Observe(time.Since(phase).Seconds())
	if found {
		o.notifier.Error("You already have an active application for this program")
		return &SubmissionResult{
			Outcome: OutcomeDuplicateRejected,
			Reason:  "an active application for this program already exists",
		}
	}

	// Phase 3: create the application record.
	o.notifier.Info("Submitting application")
	phase = time.Now()
	app, err := o.client.CreateApplication(ctx, portal.ApplicationFields{
		Program:               draft.ProgramID,
		CoverLetter:           draft.Fields.CoverLetter,
		WhyInterested:         draft.Fields.WhyInterested,
		SkillsAndExperience:   draft.Fields.SkillsAndExperience,
		AvailabilityStartDate: draft.Fields.AvailabilityStartDate,
	})
	metrics.SubmissionPhaseDuration.WithLabelValues("create").Observe(time.Since(phase).Seconds())
	if err != nil {
		return o.createFailure(err, log, !checked)
	}

	log = log.WithFields(map[string]interface{}{"application_id": app.ID})
	log.Info("Application record created", nil)

	// Phase 4: upload every attached document concurrently. Wall time is
	// bounded by the slowest single upload.
	phase = time.Now()
	uploaded, failed := o.uploadDocuments(ctx, app.ID, draft, docTypes, log)
	metrics.SubmissionPhaseDuration.WithLabelValues("upload").Observe(time.Since(phase).Seconds())

	result := &SubmissionResult{
		ApplicationID:         app.ID,
		UploadedCount:         uploaded,
		FailedUploads:         failed,
		DuplicateCheckSkipped: !checked,
	}
	if len(failed) > 0 {
		result.Outcome = OutcomePartialFailure
		result.Reason = fmt.Sprintf("application submitted, but %d of %d document uploads failed", len(failed), uploaded+len(failed))
		o.notifier.Warning(result.Reason)
	} else {
		result.Outcome = OutcomeSuccess
		o.notifier.Success("Application submitted successfully")
	}
	return result
}

// validateLocal runs the field rules plus per-attachment file rules against
// the configured base constraints. It needs nothing from the server.
func (o *Orchestrator) validateLocal(draft *ApplicationDraft) map[string]string {
	fieldErrs := ValidateFields(draft.Fields, time.Now())
	if fieldErrs == nil {
		fieldErrs = make(map[string]string)
	}

	for typeID, file := range draft.Attachments() {
		if violations := ValidateFile(file, o.config.Constraints); len(violations) > 0 {
			key := fmt.Sprintf("%s.%d", FieldDocuments, typeID)
			fieldErrs[key] = joinViolations(violations)
		}
	}

	if len(fieldErrs) == 0 {
		return nil
	}
	return fieldErrs
}

// validateDocuments re-checks each attachment against its document type's own
// constraints and enforces the required-document rule. It runs after the
// category list has been fetched.
func (o *Orchestrator) validateDocuments(draft *ApplicationDraft, docTypes []portal.DocumentType) map[string]string {
	fieldErrs := make(map[string]string)

	typesByID := make(map[int]*portal.DocumentType, len(docTypes))
	for i := range docTypes {
		typesByID[docTypes[i].ID] = &docTypes[i]
	}

	attachments := draft.Attachments()
	for typeID, file := range attachments {
		constraints := o.config.Constraints.ForDocumentType(typesByID[typeID])
		if violations := ValidateFile(file, constraints); len(violations) > 0 {
			key := fmt.Sprintf("%s.%d", FieldDocuments, typeID)
			fieldErrs[key] = joinViolations(violations)
		}
	}

	// The portal requires at least one supporting document when document
	// categories exist at all. When the category list could not be loaded the
	// rule relaxes to allowing at most one uncategorized attachment.
	if len(docTypes) > 0 {
		if len(attachments) == 0 {
			fieldErrs[FieldDocuments] = "at least one supporting document is required"
		}
	} else if len(attachments) > 1 {
		fieldErrs[FieldDocuments] = "document categories are unavailable, attach at most one document"
	}

	if len(fieldErrs) == 0 {
		return nil
	}
	return fieldErrs
}

// joinViolations flattens every violation of one file into a single message,
// so a file that is both too big and the wrong type reports both at once.
func joinViolations(violations []FileError) string {
	msgs := make([]string, len(violations))
	for i, v := range violations {
		msgs[i] = v.Message
	}
	return strings.Join(msgs, "; ")
}

// checkProgramOpen returns a terminal result when the program is known to be
// closed. Lookup failures skip the check; the server rejects a closed-program
// create anyway.
func (o *Orchestrator) checkProgramOpen(ctx context.Context, programID int, log logger.Logger) *SubmissionResult {
	program, err := o.client.GetProgram(ctx, programID)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeResourceNotFound) {
			return &SubmissionResult{
				Outcome: OutcomeFatal,
				Reason:  fmt.Sprintf("program %d does not exist", programID),
			}
		}
		log.WithError(err).Warn("Program lookup failed, skipping open check", nil)
		return nil
	}
	if !program.AcceptingApplications(time.Now()) {
		return &SubmissionResult{
			Outcome: OutcomeProgramClosed,
			Reason:  fmt.Sprintf("program %q is no longer accepting applications", program.Name),
		}
	}
	return nil
}

// createFailure maps a CreateApplication error to its terminal result.
func (o *Orchestrator) createFailure(err error, log logger.Logger, checkSkipped bool) *SubmissionResult {
	log.WithError(err).Error("Application creation failed", nil)

	var stdErr *errors.StandardError
	if stderrors.As(err, &stdErr) {
		switch stdErr.Code {
		case errors.ErrCodeDuplicateApplication:
			o.notifier.Error("You already have an active application for this program")
			return &SubmissionResult{
				Outcome:               OutcomeDuplicateRejected,
				DuplicateCheckSkipped: checkSkipped,
				Reason:                stdErr.Details,
			}
		case errors.ErrCodeProgramClosed:
			o.notifier.Error("This program is no longer accepting applications")
			return &SubmissionResult{
				Outcome: OutcomeProgramClosed,
				Reason:  stdErr.Details,
			}
		case errors.ErrCodeValidationFailed:
			o.notifier.Error("The server rejected the application fields")
			return &SubmissionResult{
				Outcome:     OutcomeValidationFailed,
				FieldErrors: stdErr.Fields,
				Reason:      stdErr.Details,
			}
		}
	}

	o.notifier.Error("Submission failed, your application was not created")
	return &SubmissionResult{
		Outcome: OutcomeFatal,
		Reason:  err.Error(),
	}
}

// uploadDocuments issues every upload at once and waits for all of them. A
// failed upload is recorded against its document category so the caller can
// retry just that category.
func (o *Orchestrator) uploadDocuments(ctx context.Context, applicationID int, draft *ApplicationDraft, docTypes []portal.DocumentType, log logger.Logger) (int, []FailedUpload) {
	attachments := draft.Attachments()
	if len(attachments) == 0 {
		return 0, nil
	}

	typeNames := make(map[int]string, len(docTypes))
	for _, dt := range docTypes {
		typeNames[dt.ID] = dt.Name
	}

	tasks := make([]UploadTask, 0, len(attachments))
	for typeID, file := range attachments {
		tasks = append(tasks, UploadTask{
			ID:               uuid.New().String(),
			DocumentTypeID:   typeID,
			DocumentTypeName: typeNames[typeID],
			File:             file,
		})
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].DocumentTypeID < tasks[j].DocumentTypeID })

	o.notifier.Info(fmt.Sprintf("Uploading %d document(s)", len(tasks)))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		failed  []FailedUpload
		success int
	)

	for _, task := range tasks {
		o.tracker.Start(task.ID)

		wg.Add(1)
		go func(task UploadTask) {
			defer wg.Done()

			metrics.DocumentUploadsActive.Inc()
			defer metrics.DocumentUploadsActive.Dec()

			uploadCtx, cancel := context.WithTimeout(ctx, o.config.UploadTimeout)
			defer cancel()

			o.tracker.Update(task.ID, 10)
			_, err := o.client.UploadDocument(uploadCtx, applicationID, task.DocumentTypeID, task.File.Name, task.File.Reader())
			o.tracker.Finish(task.ID, err)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				metrics.DocumentUploadsTotal.WithLabelValues("failed").Inc()
				log.WithError(err).Error("Document upload failed", map[string]interface{}{
					"document_type_id": task.DocumentTypeID,
					"file_name":        task.File.Name,
				})
				failed = append(failed, FailedUpload{
					DocumentTypeID:   task.DocumentTypeID,
					DocumentTypeName: task.DocumentTypeName,
					FileName:         task.File.Name,
					Reason:           err.Error(),
				})
			} else {
				metrics.DocumentUploadsTotal.WithLabelValues("succeeded").Inc()
				success++
			}
		}(task)
	}

	wg.Wait()

	sort.Slice(failed, func(i, j int) bool { return failed[i].DocumentTypeID < failed[j].DocumentTypeID })
	return success, failed
}
