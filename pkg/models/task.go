package models

import (
	"time"

	"github.com/google/uuid"
)

// Task is a unit of work with a deadline. ParentTaskID links subtasks into a tree.
type Task struct {
	ID           uuid.UUID    `json:"id"`
	Title        string       `json:"title"`
	Description  *string      `json:"description"`
	Deadline     time.Time    `json:"deadline"`
	Status       TaskStatus   `json:"status"`
	Priority     TaskPriority `json:"priority"`
	CreatorID    uuid.UUID    `json:"creatorId"`
	AssigneeID   *uuid.UUID   `json:"assigneeId"`
	ProjectID    *uuid.UUID   `json:"projectId"`
	ParentTaskID *uuid.UUID   `json:"parentTaskId"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`

	Creator      *UserSummary    `json:"creator,omitempty"`
	Assignee     *UserSummary    `json:"assignee,omitempty"`
	Project      *ProjectSummary `json:"project,omitempty"`
	SubtaskCount int             `json:"subtaskCount"`
}

// IsOverdue reports whether the deadline passed without the task being completed.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status != TaskStatusCompleted && t.Deadline.Before(now)
}

// TaskDetail is a task with its related records, as returned by get-by-id.
type TaskDetail struct {
	Task
	Parent      *Task         `json:"parentTask"`
	Subtasks    []*Task       `json:"subtasks"`
	Comments    []*Comment    `json:"comments"`
	Attachments []*Attachment `json:"attachments"`
	Reminders   []*Reminder   `json:"reminders"`
}

// TaskFilter narrows task listings. Nil fields do not filter.
type TaskFilter struct {
	Status       *TaskStatus
	Priority     *TaskPriority
	AssigneeID   *uuid.UUID
	ProjectID    *uuid.UUID
	DeadlineFrom *time.Time
	DeadlineTo   *time.Time
}

// TaskUpdate carries optional task changes. Nil fields are left untouched.
type TaskUpdate struct {
	Title        *string
	Description  *string
	Deadline     *time.Time
	Status       *TaskStatus
	Priority     *TaskPriority
	AssigneeID   *uuid.UUID
	ProjectID    *uuid.UUID
	ParentTaskID *uuid.UUID
}

// TaskStats summarizes the caller's tasks.
type TaskStats struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Pending        int     `json:"pending"`
	Overdue        int     `json:"overdue"`
	CompletionRate float64 `json:"completionRate"`
}
