// internal/submission/validator.go
package submission

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"intern-portal/internal/portal"
)

const dateLayout = "2006-01-02"

// minTextLength is the trimmed-length floor for the free-text answers.
const minTextLength = 10

// ValidateFields evaluates every required field against its rule and collects
// all violations, keyed by server-side field name. Pure and idempotent; an
// empty map means the fields are submittable.
func ValidateFields(fields DraftFields, now time.Time) map[string]string {
	errs := make(map[string]string)

	textFields := []struct {
		key   string
		value string
	}{
		{FieldCoverLetter, fields.CoverLetter},
		{FieldWhyInterested, fields.WhyInterested},
		{FieldSkillsAndExperience, fields.SkillsAndExperience},
	}
	for _, f := range textFields {
		trimmed := strings.TrimSpace(f.value)
		if err := validation.Validate(trimmed,
			validation.Required,
			validation.RuneLength(minTextLength, 0),
		); err != nil {
			errs[f.key] = err.Error()
		}
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if err := validation.Validate(fields.AvailabilityStartDate,
		validation.Required,
		validation.Date(dateLayout).Min(today).RangeError("must not be in the past"),
	); err != nil {
		errs[FieldAvailabilityStartDate] = err.Error()
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// FileErrorKind classifies one file constraint violation.
type FileErrorKind string

const (
	SizeExceeded         FileErrorKind = "SIZE_EXCEEDED"
	UnsupportedExtension FileErrorKind = "UNSUPPORTED_EXTENSION"
	UnsupportedMimeType  FileErrorKind = "UNSUPPORTED_MIME_TYPE"
)

type FileError struct {
	Kind    FileErrorKind
	Message string
}

func (e FileError) Error() string {
	return e.Message
}

// FileConstraints is the constraint set a candidate file is validated against.
type FileConstraints struct {
	MaxSize           int64
	AllowedExtensions []string
	AllowedMimeTypes  []string
}

func DefaultConstraints() FileConstraints {
	return FileConstraints{
		MaxSize:           5 * 1024 * 1024,
		AllowedExtensions: []string{"pdf", "doc", "docx", "jpg", "jpeg", "png"},
		AllowedMimeTypes: []string{
			"application/pdf",
			"application/msword",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			"image/jpeg",
			"image/png",
		},
	}
}

// ForDocumentType overlays a document type's own size/extension limits, when
// the server provides them, onto the base constraints.
func (c FileConstraints) ForDocumentType(dt *portal.DocumentType) FileConstraints {
	out := c
	if dt == nil {
		return out
	}
	if dt.MaxFileSize > 0 {
		out.MaxSize = dt.MaxFileSize
	}
	if exts := dt.ExtensionList(); len(exts) > 0 {
		out.AllowedExtensions = exts
	}
	return out
}

// ValidateFile checks a candidate file against the constraint set. The three
// checks run independently so every violation is reported at once. A file
// with no extension always fails the extension check. Pure over its inputs.
func ValidateFile(file FileAttachment, constraints FileConstraints) []FileError {
	var errs []FileError

	if file.Size > constraints.MaxSize {
		errs = append(errs, FileError{
			Kind:    SizeExceeded,
			Message: fmt.Sprintf("file size %d exceeds limit of %d bytes", file.Size, constraints.MaxSize),
		})
	}

	ext := file.Extension()
	if !containsFold(constraints.AllowedExtensions, ext) {
		errs = append(errs, FileError{
			Kind: UnsupportedExtension,
			Message: fmt.Sprintf("file type %q not allowed, allowed: %s",
				ext, strings.Join(constraints.AllowedExtensions, ", ")),
		})
	}

	if !containsFold(constraints.AllowedMimeTypes, file.MIMEType) {
		errs = append(errs, FileError{
			Kind:    UnsupportedMimeType,
			Message: fmt.Sprintf("MIME type %q not allowed", file.MIMEType),
		})
	}

	return errs
}

func containsFold(haystack []string, needle string) bool {
	if needle == "" {
		return false
	}
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}
