package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is an append-only note on a task.
type Comment struct {
	ID        uuid.UUID    `json:"id"`
	TaskID    uuid.UUID    `json:"taskId"`
	UserID    uuid.UUID    `json:"userId"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	User      *UserSummary `json:"user,omitempty"`
}

// Attachment is a file uploaded to a task. FilePath is relative to the upload directory.
type Attachment struct {
	ID        uuid.UUID    `json:"id"`
	TaskID    uuid.UUID    `json:"taskId"`
	UserID    uuid.UUID    `json:"userId"`
	FileName  string       `json:"fileName"`
	FilePath  string       `json:"filePath"`
	FileSize  int64        `json:"fileSize"`
	MimeType  string       `json:"mimeType"`
	CreatedAt time.Time    `json:"createdAt"`
	User      *UserSummary `json:"user,omitempty"`
}

// Notification is an in-app message addressed to one user.
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"userId"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	IsRead    bool             `json:"isRead"`
	CreatedAt time.Time        `json:"createdAt"`
}
