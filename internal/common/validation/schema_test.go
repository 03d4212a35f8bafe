// internal/common/validation/schema_test.go
package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, body string) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	return out
}

func TestCheckShape_Application(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{
			name: "complete record",
			body: `{"id": 42, "program": 7, "status": "pending", "cover_letter": "..."}`,
		},
		{
			name:    "missing id",
			body:    `{"program": 7, "status": "pending"}`,
			wantErr: true,
		},
		{
			name:    "unknown status",
			body:    `{"id": 42, "program": 7, "status": "archived"}`,
			wantErr: true,
		},
		{
			name:    "string id",
			body:    `{"id": "42", "program": 7, "status": "pending"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckShape(ApplicationSchema, decode(t, tt.body))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckShape_Document(t *testing.T) {
	assert.NoError(t, CheckShape(DocumentSchema, decode(t, `{"id": 11, "file_name": "resume.pdf"}`)))
	assert.Error(t, CheckShape(DocumentSchema, decode(t, `{"file_name": "resume.pdf"}`)))
}

func TestCheckShape_DocumentType(t *testing.T) {
	assert.NoError(t, CheckShape(DocumentTypeSchema, decode(t, `{"id": 1, "name": "Resume", "is_required": true}`)))
	assert.Error(t, CheckShape(DocumentTypeSchema, decode(t, `{"id": 1}`)))
}

func TestCheckShape_EmptySchemaPasses(t *testing.T) {
	assert.NoError(t, CheckShape(nil, decode(t, `{"anything": true}`)))
}
