package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextScheduledRun(t *testing.T) {
	after := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

	next, err := NextScheduledRun("0 */6 * * *", after)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), next)
}

func TestNextScheduledRunRejectsBadExpression(t *testing.T) {
	_, err := NextScheduledRun("every tuesday", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid schedule expression")
}
