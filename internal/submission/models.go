// internal/submission/models.go
package submission

import (
	"bytes"
	"io"
	"strings"
)

// Server-side field names; validation errors are keyed by these so they can
// be surfaced next to the offending form field.
const (
	FieldCoverLetter           = "cover_letter"
	FieldWhyInterested         = "why_interested"
	FieldSkillsAndExperience   = "skills_and_experience"
	FieldAvailabilityStartDate = "availability_start_date"
	FieldDocuments             = "documents"
)

// FileAttachment wraps a user-selected file held by a draft until upload
// completes or it is detached.
type FileAttachment struct {
	Name     string
	Size     int64
	MIMEType string
	Content  []byte
}

// Extension returns the lower-cased suffix after the last dot, empty when the
// name carries none.
func (f *FileAttachment) Extension() string {
	idx := strings.LastIndex(f.Name, ".")
	if idx < 0 || idx == len(f.Name)-1 {
		return ""
	}
	return strings.ToLower(f.Name[idx+1:])
}

// Reader returns a fresh reader over the file content, so a retried upload
// never sees a half-consumed stream.
func (f *FileAttachment) Reader() io.Reader {
	return bytes.NewReader(f.Content)
}

// DraftFields holds the free-text and date answers of an application form.
type DraftFields struct {
	CoverLetter           string
	WhyInterested         string
	SkillsAndExperience   string
	AvailabilityStartDate string // 2006-01-02
}

// ApplicationDraft is the in-memory, client-owned draft. It is mutated only
// by form handlers before submission begins; Submit works on a snapshot so
// the live draft can never race an in-flight submission.
type ApplicationDraft struct {
	ProgramID   int
	Fields      DraftFields
	attachments map[int]FileAttachment // document type id -> at most one file
}

func NewDraft(programID int) *ApplicationDraft {
	return &ApplicationDraft{
		ProgramID:   programID,
		attachments: make(map[int]FileAttachment),
	}
}

// Attach binds a file to a document category, replacing any previous file in
// that category.
func (d *ApplicationDraft) Attach(documentTypeID int, file FileAttachment) {
	if d.attachments == nil {
		d.attachments = make(map[int]FileAttachment)
	}
	d.attachments[documentTypeID] = file
}

// Detach removes the file bound to a document category, if any.
func (d *ApplicationDraft) Detach(documentTypeID int) {
	delete(d.attachments, documentTypeID)
}

// Attachments returns a copy of the category -> file mapping.
func (d *ApplicationDraft) Attachments() map[int]FileAttachment {
	out := make(map[int]FileAttachment, len(d.attachments))
	for id, f := range d.attachments {
		out[id] = f
	}
	return out
}

// snapshot freezes the draft at submission start.
func (d *ApplicationDraft) snapshot() *ApplicationDraft {
	return &ApplicationDraft{
		ProgramID:   d.ProgramID,
		Fields:      d.Fields,
		attachments: d.Attachments(),
	}
}

// UploadTaskState tracks one document upload through its lifecycle.
type UploadTaskState string

const (
	TaskQueued    UploadTaskState = "queued"
	TaskUploading UploadTaskState = "uploading"
	TaskSucceeded UploadTaskState = "succeeded"
	TaskFailed    UploadTaskState = "failed"
)

// UploadTask is ephemeral; one exists per attached file while a submission is
// in flight.
type UploadTask struct {
	ID               string
	DocumentTypeID   int
	DocumentTypeName string
	File             FileAttachment
}

// Outcome is the tag of a SubmissionResult.
type Outcome string

const (
	OutcomeSuccess           Outcome = "success"
	OutcomeValidationFailed  Outcome = "validation_failed"
	OutcomeDuplicateRejected Outcome = "duplicate_rejected"
	OutcomeProgramClosed     Outcome = "program_closed"
	OutcomePartialFailure    Outcome = "partial_failure"
	OutcomeFatal             Outcome = "fatal"
)

// FailedUpload names one document category whose upload failed, so the caller
// can retry that category without resubmitting the application.
type FailedUpload struct {
	DocumentTypeID   int    `json:"documentTypeId"`
	DocumentTypeName string `json:"documentTypeName,omitempty"`
	FileName         string `json:"fileName"`
	Reason           string `json:"reason"`
}

// SubmissionResult is the single tagged outcome of a Submit call.
type SubmissionResult struct {
	Outcome               Outcome           `json:"outcome"`
	ApplicationID         int               `json:"applicationId,omitempty"`
	UploadedCount         int               `json:"uploadedCount"`
	FieldErrors           map[string]string `json:"fieldErrors,omitempty"`
	FailedUploads         []FailedUpload    `json:"failedUploads,omitempty"`
	DuplicateCheckSkipped bool              `json:"duplicateCheckSkipped,omitempty"`
	Reason                string            `json:"reason,omitempty"`
}
