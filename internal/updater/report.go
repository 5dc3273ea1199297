package updater

import (
	"github.com/membank-rc/membank/internal/bank"
)

// Report summarises one update run. Paths are workspace-relative.
type Report struct {
	Missing   []string
	New       []string
	Changed   []string
	Unchanged []string

	Written  []string
	Declined []string
	Failed   []string

	// Pending holds the classified changes when the run only checked.
	Pending []Change
	// ListingErrors are remote listing failures; the run carried on without
	// those candidates.
	ListingErrors []error

	PreviousVersion bank.Version
	Version         bank.Version
	VersionBumped   bool
}

func (r *Report) record(c Change) {
	switch c.Kind {
	case KindMissing:
		r.Missing = append(r.Missing, c.Path)
	case KindNew:
		r.New = append(r.New, c.Path)
	case KindChanged:
		r.Changed = append(r.Changed, c.Path)
	}
}

// HasChanges reports whether anything differed from the remote.
func (r *Report) HasChanges() bool {
	return len(r.Missing)+len(r.New)+len(r.Changed) > 0
}

// UpToDate reports whether the workspace matched the remote and every
// comparison succeeded.
func (r *Report) UpToDate() bool {
	return !r.HasChanges() && len(r.Failed) == 0
}
