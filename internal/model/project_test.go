package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusApproved.Terminal())
	assert.False(t, StatusInProgress.Terminal())
}

func TestOverdue(t *testing.T) {
	deadline := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	project := Project{Status: StatusInProgress, Deadline: deadline}

	assert.False(t, project.Overdue(deadline.Add(-time.Second)))
	assert.False(t, project.Overdue(deadline))
	assert.True(t, project.Overdue(deadline.Add(time.Second)))

	project.Status = StatusCompleted
	assert.False(t, project.Overdue(deadline.Add(time.Hour)))
}

func TestLatestPercentage(t *testing.T) {
	project := Project{}
	assert.Zero(t, project.LatestPercentage())

	project.ProgressUpdates = []ProgressUpdate{
		{Percentage: 30},
		{Percentage: 70},
	}
	assert.Equal(t, 70, project.LatestPercentage())
}

func TestMonthKey(t *testing.T) {
	assert.Equal(t, "2026-03", MonthKey(time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC)))

	// Local wall time crossing a month boundary normalizes to UTC.
	loc := time.FixedZone("UTC+5", 5*3600)
	assert.Equal(t, "2026-03", MonthKey(time.Date(2026, 4, 1, 2, 0, 0, 0, loc)))
}

func TestUtilizationPercent(t *testing.T) {
	assert.Zero(t, BudgetSummary{}.UtilizationPercent())
	assert.InDelta(t, 25.0, BudgetSummary{TotalApproved: 20_000_00, TotalSpent: 5_000_00}.UtilizationPercent(), 0.001)
}
