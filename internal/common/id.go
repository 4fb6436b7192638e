package common

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewSnapshotID generates a snapshot identifier from the build time, to
// the second. NewSnapshotIDWithSuffix adds the UUID tail for collisions.
func NewSnapshotID(generatedAt time.Time) string {
	return generatedAt.UTC().Format("20060102T150405Z")
}

// NewSnapshotIDWithSuffix disambiguates a colliding snapshot ID with a short
// UUID tail when two builds land in the same second.
func NewSnapshotIDWithSuffix(generatedAt time.Time) string {
	return fmt.Sprintf("%s-%s", NewSnapshotID(generatedAt), uuid.New().String()[:8])
}

// NewCorrelationID generates a short run-correlation ID threaded through log
// lines for a single pipeline invocation.
func NewCorrelationID() string {
	return uuid.New().String()
}
