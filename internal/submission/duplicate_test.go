// internal/submission/duplicate_test.go
package submission

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"intern-portal/internal/common/logger"
	"intern-portal/internal/portal"
)

type fakeLister struct {
	apps []portal.Application
	err  error
}

func (f *fakeLister) ListMyApplications(ctx context.Context) ([]portal.Application, error) {
	return f.apps, f.err
}

func TestDuplicateGuard_HasExistingApplication(t *testing.T) {
	tests := []struct {
		name        string
		apps        []portal.Application
		programID   int
		wantFound   bool
		wantChecked bool
	}{
		{
			name:        "no applications",
			apps:        nil,
			programID:   7,
			wantFound:   false,
			wantChecked: true,
		},
		{
			name: "pending application blocks",
			apps: []portal.Application{
				{ID: 1, Program: 7, Status: portal.StatusPending},
			},
			programID:   7,
			wantFound:   true,
			wantChecked: true,
		},
		{
			name: "under review blocks",
			apps: []portal.Application{
				{ID: 1, Program: 7, Status: portal.StatusUnderReview},
			},
			programID:   7,
			wantFound:   true,
			wantChecked: true,
		},
		{
			name: "approved blocks",
			apps: []portal.Application{
				{ID: 1, Program: 7, Status: portal.StatusApproved},
			},
			programID:   7,
			wantFound:   true,
			wantChecked: true,
		},
		{
			name: "rejected does not block re-applying",
			apps: []portal.Application{
				{ID: 1, Program: 7, Status: portal.StatusRejected},
			},
			programID:   7,
			wantFound:   false,
			wantChecked: true,
		},
		{
			name: "active application to another program does not block",
			apps: []portal.Application{
				{ID: 1, Program: 3, Status: portal.StatusPending},
			},
			programID:   7,
			wantFound:   false,
			wantChecked: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard := NewDuplicateGuard(&fakeLister{apps: tt.apps}, logger.NewTestLogger(t))

			found, checked := guard.HasExistingApplication(context.Background(), tt.programID)

			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.wantChecked, checked)
		})
	}
}

func TestDuplicateGuard_FailsOpenOnListError(t *testing.T) {
	guard := NewDuplicateGuard(&fakeLister{err: fmt.Errorf("backend down")}, logger.NewTestLogger(t))

	found, checked := guard.HasExistingApplication(context.Background(), 7)

	assert.False(t, found)
	assert.False(t, checked)
}
