package syncloop

import (
	"time"

	"github.com/bashhack/gitfilesync/internal/git"
)

// RepositoryContext is the repository state observed during one iteration.
// It is rebuilt from scratch every iteration.
type RepositoryContext struct {
	Branch     string
	Divergence git.Divergence
	Status     git.Status
}

// IterationReport records what one iteration did.
type IterationReport struct {
	Context RepositoryContext

	Fetched   bool
	Pulled    bool
	Committed bool
	Pushed    bool

	// Conflicts lists paths left unmerged by a pull in this iteration.
	Conflicts []string
}

// SessionStats accumulates counters over a run.
type SessionStats struct {
	StartTime        time.Time
	Iterations       int
	FailedIterations int
	Pulls            int
	Commits          int
	Pushes           int
	Branch           string
}

func (s *SessionStats) record(report IterationReport, err error) {
	s.Iterations++
	if err != nil {
		s.FailedIterations++
	}
	if report.Pulled {
		s.Pulls++
	}
	if report.Committed {
		s.Commits++
	}
	if report.Pushed {
		s.Pushes++
	}
	if report.Context.Branch != "" {
		s.Branch = report.Context.Branch
	}
}
