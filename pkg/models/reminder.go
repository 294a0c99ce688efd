package models

import (
	"time"

	"github.com/google/uuid"
)

// Reminder schedules a notification about a task for one user.
// Once IsSent becomes true it never reverts.
type Reminder struct {
	ID        uuid.UUID    `json:"id"`
	TaskID    uuid.UUID    `json:"taskId"`
	UserID    uuid.UUID    `json:"userId"`
	RemindAt  time.Time    `json:"remindAt"`
	Type      ReminderType `json:"type"`
	IsSent    bool         `json:"isSent"`
	CreatedAt time.Time    `json:"createdAt"`

	Task *ReminderTask `json:"task,omitempty"`
}

// ReminderTask is the task context embedded in reminder responses.
type ReminderTask struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Deadline time.Time `json:"deadline"`
}

// ReminderUpdate carries optional reminder changes.
type ReminderUpdate struct {
	RemindAt *time.Time
	Type     *ReminderType
}

// DueReminder is a reminder joined with what delivery needs. Attempts counts
// claims including the current one.
type DueReminder struct {
	Reminder
	Attempts     int
	TaskTitle    string
	TaskDeadline time.Time
	UserEmail    string
	UserName     string
	PushToken    *string
}

// ReminderClaim selects reminders for one dispatch round. Claimed rows are
// leased until LeaseUntil so other dispatchers skip them.
type ReminderClaim struct {
	Now         time.Time
	Limit       int
	MaxAttempts int
	LeaseUntil  time.Time
}
