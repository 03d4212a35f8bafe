// internal/portal/models.go
package portal

import (
	"encoding/json"
	"strings"
	"time"
)

// Application status lifecycle. Transitions are enforced server-side; the
// client only ever requests them.
const (
	StatusPending     = "pending"
	StatusUnderReview = "under_review"
	StatusApproved    = "approved"
	StatusRejected    = "rejected"
)

// IsActiveStatus reports whether a status still blocks a new application to
// the same program. Rejected applications do not.
func IsActiveStatus(status string) bool {
	switch status {
	case StatusPending, StatusUnderReview, StatusApproved:
		return true
	}
	return false
}

const dateLayout = "2006-01-02"

type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsStaff   bool   `json:"is_staff"`
}

type Program struct {
	ID                  int    `json:"id"`
	Name                string `json:"name"`
	ProgramType         string `json:"program_type"` // IT or NYSC
	Description         string `json:"description"`
	DurationMonths      int    `json:"duration_months"`
	StartDate           string `json:"start_date"`
	EndDate             string `json:"end_date"`
	ApplicationDeadline string `json:"application_deadline"`
	IsActive            bool   `json:"is_active"`
}

// AcceptingApplications reports whether the program can still be applied to
// as of the given day. An unparsable deadline counts as open; the server
// remains the authority either way.
func (p *Program) AcceptingApplications(today time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.ApplicationDeadline == "" {
		return true
	}
	deadline, err := time.Parse(dateLayout, p.ApplicationDeadline)
	if err != nil {
		return true
	}
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return !deadline.Before(day)
}

// ApplicationFields is the writable portion of an application record.
type ApplicationFields struct {
	Program               int    `json:"program"`
	CoverLetter           string `json:"cover_letter"`
	WhyInterested         string `json:"why_interested"`
	SkillsAndExperience   string `json:"skills_and_experience"`
	AvailabilityStartDate string `json:"availability_start_date"`
}

// Application is the client's read copy of a server-owned record.
type Application struct {
	ID                    int            `json:"id"`
	Applicant             int            `json:"applicant"`
	ApplicantName         string         `json:"applicant_name"`
	Program               int            `json:"program"`
	ProgramName           string         `json:"program_name"`
	Status                string         `json:"status"`
	CoverLetter           string         `json:"cover_letter"`
	WhyInterested         string         `json:"why_interested"`
	SkillsAndExperience   string         `json:"skills_and_experience"`
	AvailabilityStartDate string         `json:"availability_start_date"`
	SubmittedAt           string         `json:"submitted_at"`
	ReviewedAt            string         `json:"reviewed_at,omitempty"`
	ReviewedByName        string         `json:"reviewed_by_name,omitempty"`
	AdminNotes            string         `json:"admin_notes,omitempty"`
	StatusHistory         []StatusChange `json:"status_history,omitempty"`
}

type StatusChange struct {
	ID            int    `json:"id"`
	Status        string `json:"status"`
	ChangedByName string `json:"changed_by_name,omitempty"`
	ChangedAt     string `json:"changed_at"`
	Notes         string `json:"notes,omitempty"`
}

// DocumentType is a required or optional attachment category, optionally
// carrying its own size/extension constraints.
type DocumentType struct {
	ID                    int      `json:"id"`
	Name                  string   `json:"name"`
	Description           string   `json:"description,omitempty"`
	IsRequired            bool     `json:"is_required"`
	MaxFileSize           int64    `json:"max_file_size,omitempty"`
	AllowedExtensions     string   `json:"allowed_extensions,omitempty"` // comma-separated
	AllowedExtensionsList []string `json:"allowed_extensions_list,omitempty"`
}

// ExtensionList returns the allowed extensions, preferring the expanded list
// the serializer provides and falling back to the csv field.
func (dt *DocumentType) ExtensionList() []string {
	if len(dt.AllowedExtensionsList) > 0 {
		return dt.AllowedExtensionsList
	}
	if dt.AllowedExtensions == "" {
		return nil
	}
	parts := strings.Split(dt.AllowedExtensions, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type Document struct {
	ID               int    `json:"id"`
	Application      int    `json:"application"`
	DocumentType     int    `json:"document_type"`
	DocumentTypeName string `json:"document_type_name,omitempty"`
	FileName         string `json:"file_name"`
	FileSize         int64  `json:"file_size"`
	FileURL          string `json:"file_url,omitempty"`
	UploadedAt       string `json:"uploaded_at"`
	IsVerified       bool   `json:"is_verified"`
}

// normalizeList decodes a list endpoint body that may be either a bare JSON
// array or a paginated envelope with a "results" field. Every list response
// passes through here so callers never branch on response shape.
func normalizeList[T any](body []byte) ([]T, error) {
	var envelope struct {
		Count   int             `json:"count"`
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Results != nil {
		var items []T
		if err := json.Unmarshal(envelope.Results, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var items []T
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, err
	}
	return items, nil
}
