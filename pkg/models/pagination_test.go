package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, limit, want int
	}{
		{12, 5, 3},
		{10, 5, 2},
		{0, 10, 0},
		{1, 10, 1},
		{101, 100, 2},
		{5, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TotalPages(tt.total, tt.limit), "total=%d limit=%d", tt.total, tt.limit)
	}
}

func TestCompletionRate(t *testing.T) {
	assert.Equal(t, 0.0, CompletionRate(0, 0))
	assert.Equal(t, 50.0, CompletionRate(1, 2))
	assert.Equal(t, 100.0, CompletionRate(4, 4))
}

func TestPage_Normalize(t *testing.T) {
	p := Page{}.Normalize("deadline", SortAsc)
	assert.Equal(t, Page{Page: 1, Limit: 10, SortBy: "deadline", SortOrder: SortAsc}, p)
	assert.Equal(t, 0, p.Offset())

	p = Page{Page: 3, Limit: 500, SortBy: "title", SortOrder: SortDesc}.Normalize("deadline", SortAsc)
	assert.Equal(t, 100, p.Limit)
	assert.Equal(t, "title", p.SortBy)
	assert.Equal(t, SortDesc, p.SortOrder)
	assert.Equal(t, 200, p.Offset())
}

func TestPage_NormalizeClampsHugePage(t *testing.T) {
	p := Page{Page: math.MaxInt, Limit: MaxLimit}.Normalize("deadline", SortAsc)
	assert.Equal(t, MaxPage, p.Page)
	assert.Equal(t, (MaxPage-1)*MaxLimit, p.Offset())
	assert.Positive(t, p.Offset())
}

func TestLookup(t *testing.T) {
	found := Found(&Task{Title: "write report"})
	task, ok := found.Get()
	assert.True(t, ok)
	assert.Equal(t, "write report", task.Title)

	missing := NotAccessible[*Task]()
	task, ok = missing.Get()
	assert.False(t, ok)
	assert.Nil(t, task)
	assert.False(t, missing.IsFound())
}

func TestTask_IsOverdue(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	past := &Task{Deadline: now.Add(-time.Hour), Status: TaskStatusInProgress}
	assert.True(t, past.IsOverdue(now))

	past.Status = TaskStatusCompleted
	assert.False(t, past.IsOverdue(now))

	future := &Task{Deadline: now.Add(time.Hour), Status: TaskStatusNotStarted}
	assert.False(t, future.IsOverdue(now))
}
