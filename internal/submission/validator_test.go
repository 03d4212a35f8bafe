// internal/submission/validator_test.go
package submission

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validDraftFields() DraftFields {
	return DraftFields{
		CoverLetter:           "I am writing to express my strong interest in this internship.",
		WhyInterested:         "This program matches my career goals in software engineering.",
		SkillsAndExperience:   "Three years of Go and Python, plus two shipped side projects.",
		AvailabilityStartDate: time.Now().AddDate(0, 1, 0).Format("2006-01-02"),
	}
}

func pdfAttachment(size int64) FileAttachment {
	return FileAttachment{
		Name:     "resume.pdf",
		Size:     size,
		MIMEType: "application/pdf",
		Content:  []byte("%PDF-1.4"),
	}
}

func TestValidateFields_Valid(t *testing.T) {
	errs := ValidateFields(validDraftFields(), time.Now())
	assert.Nil(t, errs)
}

func TestValidateFields_TextRules(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		mutate   func(*DraftFields)
		wantKeys []string
	}{
		{
			name:     "empty cover letter",
			mutate:   func(f *DraftFields) { f.CoverLetter = "" },
			wantKeys: []string{FieldCoverLetter},
		},
		{
			name:     "whitespace only counts as empty",
			mutate:   func(f *DraftFields) { f.WhyInterested = "   \t\n  " },
			wantKeys: []string{FieldWhyInterested},
		},
		{
			name:     "too short after trimming",
			mutate:   func(f *DraftFields) { f.SkillsAndExperience = "  golang  " },
			wantKeys: []string{FieldSkillsAndExperience},
		},
		{
			name: "exactly ten characters passes",
			mutate: func(f *DraftFields) {
				f.CoverLetter = strings.Repeat("a", 10)
			},
			wantKeys: nil,
		},
		{
			name: "multibyte text counts characters not bytes",
			mutate: func(f *DraftFields) {
				f.CoverLetter = "面接希望です" // 6 characters, 18 bytes
			},
			wantKeys: []string{FieldCoverLetter},
		},
		{
			name: "ten multibyte characters pass",
			mutate: func(f *DraftFields) {
				f.CoverLetter = strings.Repeat("あ", 10)
			},
			wantKeys: nil,
		},
		{
			name: "all three text fields reported at once",
			mutate: func(f *DraftFields) {
				f.CoverLetter = ""
				f.WhyInterested = "short"
				f.SkillsAndExperience = " "
			},
			wantKeys: []string{FieldCoverLetter, FieldWhyInterested, FieldSkillsAndExperience},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validDraftFields()
			tt.mutate(&fields)

			errs := ValidateFields(fields, now)

			if len(tt.wantKeys) == 0 {
				assert.Nil(t, errs)
				return
			}
			assert.Len(t, errs, len(tt.wantKeys))
			for _, key := range tt.wantKeys {
				assert.Contains(t, errs, key)
				assert.NotEmpty(t, errs[key])
			}
		})
	}
}

func TestValidateFields_StartDate(t *testing.T) {
	now := time.Date(2026, 8, 31, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		date    string
		wantErr bool
	}{
		{name: "future date", date: "2026-10-01", wantErr: false},
		{name: "today is allowed", date: "2026-08-31", wantErr: false},
		{name: "yesterday rejected", date: "2026-08-30", wantErr: true},
		{name: "empty rejected", date: "", wantErr: true},
		{name: "garbage rejected", date: "next monday", wantErr: true},
		{name: "wrong layout rejected", date: "31/08/2026", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validDraftFields()
			fields.AvailabilityStartDate = tt.date

			errs := ValidateFields(fields, now)

			if tt.wantErr {
				assert.Contains(t, errs, FieldAvailabilityStartDate)
			} else {
				assert.NotContains(t, errs, FieldAvailabilityStartDate)
			}
		})
	}
}

func TestValidateFile_Valid(t *testing.T) {
	errs := ValidateFile(pdfAttachment(1024), DefaultConstraints())
	assert.Empty(t, errs)
}

func TestValidateFile_CollectsAllViolations(t *testing.T) {
	file := FileAttachment{
		Name:     "archive.zip",
		Size:     10 * 1024 * 1024,
		MIMEType: "application/zip",
	}

	errs := ValidateFile(file, DefaultConstraints())

	kinds := make([]FileErrorKind, 0, len(errs))
	for _, e := range errs {
		kinds = append(kinds, e.Kind)
	}
	assert.ElementsMatch(t, []FileErrorKind{SizeExceeded, UnsupportedExtension, UnsupportedMimeType}, kinds)
}

func TestValidateFile_SizeBoundary(t *testing.T) {
	c := DefaultConstraints()

	assert.Empty(t, ValidateFile(pdfAttachment(c.MaxSize), c), "exactly at the limit passes")

	errs := ValidateFile(pdfAttachment(c.MaxSize+1), c)
	assert.Len(t, errs, 1)
	assert.Equal(t, SizeExceeded, errs[0].Kind)
}

func TestValidateFile_Extensions(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		wantErr  bool
	}{
		{name: "upper-case extension accepted", fileName: "RESUME.PDF", wantErr: false},
		{name: "no extension rejected", fileName: "resume", wantErr: true},
		{name: "trailing dot rejected", fileName: "resume.", wantErr: true},
		{name: "exe rejected", fileName: "resume.exe", wantErr: true},
		{name: "multiple dots use last", fileName: "my.resume.final.pdf", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := pdfAttachment(100)
			file.Name = tt.fileName

			errs := ValidateFile(file, DefaultConstraints())

			if tt.wantErr {
				assert.Len(t, errs, 1)
				assert.Equal(t, UnsupportedExtension, errs[0].Kind)
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}

func TestValidateFile_Pure(t *testing.T) {
	file := pdfAttachment(100)
	c := DefaultConstraints()

	first := ValidateFile(file, c)
	second := ValidateFile(file, c)

	assert.Equal(t, first, second)
	assert.Equal(t, "resume.pdf", file.Name)
	assert.Equal(t, int64(100), file.Size)
}
