package ingestion

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker(t *testing.T) {
	var buf bytes.Buffer

	tracker := NewProgressTracker(&buf, 10, 5)
	tracker.Start()

	tracker.Increment(3)
	assert.Empty(t, buf.String(), "below report interval")

	tracker.Increment(3)
	assert.Contains(t, buf.String(), "6/10")

	tracker.Finish()
	assert.Contains(t, buf.String(), "10/10 (100.0%)")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
}

func TestProgressTracker_ClampsToTotal(t *testing.T) {
	var buf bytes.Buffer

	tracker := NewProgressTracker(&buf, 3, 1)
	tracker.Start()
	tracker.Increment(5)

	assert.Contains(t, buf.String(), "3/3")
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer

	tracker := NewProgressTracker(&buf, 10, 1)
	tracker.Increment(5)
	tracker.Finish()

	assert.Empty(t, buf.String())
	assert.Zero(t, tracker.Elapsed())
}
