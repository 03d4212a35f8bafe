// internal/submission/duplicate.go
package submission

import (
	"context"

	"intern-portal/internal/common/logger"
	"intern-portal/internal/portal"
)

type applicationLister interface {
	ListMyApplications(ctx context.Context) ([]portal.Application, error)
}

// DuplicateGuard pre-checks for an existing active application before the
// create request is issued. It is best-effort: the server enforces the
// uniqueness constraint authoritatively, the guard only saves a round trip
// and gives a friendlier failure.
type DuplicateGuard struct {
	lister applicationLister
	logger logger.Logger
}

func NewDuplicateGuard(lister applicationLister, log logger.Logger) *DuplicateGuard {
	return &DuplicateGuard{
		lister: lister,
		logger: log,
	}
}

// HasExistingApplication reports whether the current user already holds an
// active (pending, under_review or approved) application to the program.
// Rejected applications do not count: the portal allows re-applying after a
// rejection.
//
// The second return value reports whether the check actually ran. When the
// listing call fails the guard fails open with (false, false) so a listing
// outage never blocks submission.
func (g *DuplicateGuard) HasExistingApplication(ctx context.Context, programID int) (found bool, checked bool) {
	apps, err := g.lister.ListMyApplications(ctx)
	if err != nil {
		g.logger.WithError(err).WithFields(map[string]interface{}{
			"program_id": programID,
		}).Warn("Duplicate pre-check skipped, could not list applications", nil)
		return false, false
	}

	for _, app := range apps {
		if app.Program == programID && portal.IsActiveStatus(app.Status) {
			return true, true
		}
	}
	return false, true
}
