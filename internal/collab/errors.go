package collab

import "fmt"

// ArchiveError reports that archiving could not complete, typically
// because a named source file is absent. Archiving is required for
// traceability, so callers treat this as fatal to the run.
type ArchiveError struct {
	Path   string
	Reason string
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("cannot archive %s: %s", e.Path, e.Reason)
}
