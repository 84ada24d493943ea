package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJobSummary_Outcome(t *testing.T) {
	assert.Equal(t, "failed", (&JobSummary{Success: false}).Outcome())
	assert.Equal(t, "partial", (&JobSummary{Success: true, Partial: true}).Outcome())
	assert.Equal(t, "partial", (&JobSummary{Success: true, Errors: 2}).Outcome())
	assert.Equal(t, "partial", (&JobSummary{Success: true, Skipped: 1}).Outcome())
	assert.Equal(t, "success", (&JobSummary{Success: true}).Outcome())
}

func TestJobSummary_Duration(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &JobSummary{StartedAt: start, FinishedAt: start.Add(90 * time.Second)}
	assert.Equal(t, 90*time.Second, s.Duration())
}
