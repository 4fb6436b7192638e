package kbmodel

import "errors"

// ErrInvariantViolation marks a fatal internal inconsistency, such as a
// page whose on-disk content no longer hashes to its recorded
// content_hash. A build that surfaces this error must abort without
// saving a snapshot, so the previous snapshot stays authoritative.
// Callers distinguish it with errors.Is from the degraded-but-continue
// failures the fetch layer absorbs.
var ErrInvariantViolation = errors.New("internal invariant violation")
