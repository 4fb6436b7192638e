package fetchutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

func testLogger() arbor.ILogger {
	return arbor.NewLogger().WithConsoleWriter(models.WriterConfiguration{Type: models.LogWriterTypeConsole})
}

func TestRetryPolicyDoSucceedsWithoutRetry(t *testing.T) {
	p := NewRetryPolicy()
	calls := 0
	status, err := p.Do(context.Background(), testLogger(), "test", func() (int, error) {
		calls++
		return 200, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 200, status)
	assert.Equal(t, 1, calls)
}

func TestRetryPolicyDoRetriesOn503ThenSucceeds(t *testing.T) {
	p := NewRetryPolicy()
	p.InitialBackoff = 0
	calls := 0
	status, err := p.Do(context.Background(), testLogger(), "test", func() (int, error) {
		calls++
		if calls < 2 {
			return 503, errors.New("unavailable")
		}
		return 200, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 200, status)
	assert.Equal(t, 2, calls)
}

func TestRetryPolicyDoesNotRetry404(t *testing.T) {
	p := NewRetryPolicy()
	calls := 0
	status, err := p.Do(context.Background(), testLogger(), "test", func() (int, error) {
		calls++
		return 404, errors.New("not found")
	})
	assert.Error(t, err)
	assert.Equal(t, 404, status)
	assert.Equal(t, 1, calls, "404 must be final and non-retried")
}

func TestRetryPolicyExhaustsMaxAttempts(t *testing.T) {
	p := NewRetryPolicy()
	p.InitialBackoff = 0
	calls := 0
	_, err := p.Do(context.Background(), testLogger(), "test", func() (int, error) {
		calls++
		return 500, errors.New("server error")
	})
	assert.Error(t, err)
	assert.Equal(t, p.MaxAttempts, calls)
}
