package models

import (
	"fmt"
	"slices"
)

// Role is a user's system-wide role.
type Role string

const (
	RoleStudent     Role = "STUDENT"
	RoleProjectLead Role = "PROJECT_LEAD"
	RoleAdmin       Role = "ADMIN"
	RoleSuperAdmin  Role = "SUPER_ADMIN"
)

// ValidRoles contains all valid role values.
var ValidRoles = []Role{RoleStudent, RoleProjectLead, RoleAdmin, RoleSuperAdmin}

func (r Role) IsValid() bool { return slices.Contains(ValidRoles, r) }

// IsAdmin reports whether the role carries administrative rights.
func (r Role) IsAdmin() bool { return r == RoleAdmin || r == RoleSuperAdmin }

func ParseRole(s string) (Role, error) { return parseEnum(s, ValidRoles, "role") }

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusArchived  ProjectStatus = "ARCHIVED"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
)

var ValidProjectStatuses = []ProjectStatus{ProjectStatusActive, ProjectStatusArchived, ProjectStatusCompleted}

func (s ProjectStatus) IsValid() bool { return slices.Contains(ValidProjectStatuses, s) }

func ParseProjectStatus(s string) (ProjectStatus, error) {
	return parseEnum(s, ValidProjectStatuses, "project status")
}

// TaskStatus is the progress state of a task.
type TaskStatus string

const (
	TaskStatusNotStarted TaskStatus = "NOT_STARTED"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusOverdue    TaskStatus = "OVERDUE"
)

var ValidTaskStatuses = []TaskStatus{TaskStatusNotStarted, TaskStatusInProgress, TaskStatusCompleted, TaskStatusOverdue}

func (s TaskStatus) IsValid() bool { return slices.Contains(ValidTaskStatuses, s) }

func ParseTaskStatus(s string) (TaskStatus, error) {
	return parseEnum(s, ValidTaskStatuses, "task status")
}

// TaskPriority orders tasks by urgency.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
	TaskPriorityUrgent TaskPriority = "URGENT"
)

var ValidTaskPriorities = []TaskPriority{TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent}

func (p TaskPriority) IsValid() bool { return slices.Contains(ValidTaskPriorities, p) }

func ParseTaskPriority(s string) (TaskPriority, error) {
	return parseEnum(s, ValidTaskPriorities, "task priority")
}

// ReminderType selects the delivery channel of a reminder.
type ReminderType string

const (
	ReminderTypePush  ReminderType = "PUSH"
	ReminderTypeEmail ReminderType = "EMAIL"
)

var ValidReminderTypes = []ReminderType{ReminderTypePush, ReminderTypeEmail}

func (t ReminderType) IsValid() bool { return slices.Contains(ValidReminderTypes, t) }

func ParseReminderType(s string) (ReminderType, error) {
	return parseEnum(s, ValidReminderTypes, "reminder type")
}

// NotificationType classifies in-app notifications.
type NotificationType string

const (
	NotificationInfo     NotificationType = "INFO"
	NotificationWarning  NotificationType = "WARNING"
	NotificationError    NotificationType = "ERROR"
	NotificationSuccess  NotificationType = "SUCCESS"
	NotificationReminder NotificationType = "REMINDER"
)

var ValidNotificationTypes = []NotificationType{
	NotificationInfo, NotificationWarning, NotificationError, NotificationSuccess, NotificationReminder,
}

func (t NotificationType) IsValid() bool { return slices.Contains(ValidNotificationTypes, t) }

func parseEnum[T ~string](s string, valid []T, kind string) (T, error) {
	v := T(s)
	if !slices.Contains(valid, v) {
		return "", fmt.Errorf("invalid %s %q", kind, s)
	}
	return v, nil
}
