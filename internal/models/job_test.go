package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobStatus(t *testing.T) {
	assert.False(t, JobStatusProcessing.IsTerminal())
	assert.True(t, JobStatusCompleted.IsTerminal())
	assert.True(t, JobStatusFailed.IsTerminal())

	assert.True(t, JobStatusProcessing.IsValid())
	assert.False(t, JobStatus("queued").IsValid())
}
