package handlers

import (
	"net/url"

	"github.com/google/uuid"

	"github.com/deadline-tracker/deadline-tracker/pkg/models"
	"github.com/deadline-tracker/deadline-tracker/pkg/validation"
)

// Request bodies. Field messages come from the msg tag and are joined into the
// 400 response when validation fails.

type registerRequest struct {
	Email     string       `json:"email" validate:"required,email" msg:"Please provide a valid email"`
	Password  string       `json:"password" validate:"required,min=6" msg:"Password must be at least 6 characters long"`
	FirstName string       `json:"firstName" validate:"required,min=2,max=50" msg:"First name must be between 2 and 50 characters"`
	LastName  string       `json:"lastName" validate:"required,min=2,max=50" msg:"Last name must be between 2 and 50 characters"`
	Role      *models.Role `json:"role" validate:"omitempty,oneof=STUDENT PROJECT_LEAD ADMIN SUPER_ADMIN" msg:"Invalid user role"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email" msg:"Please provide a valid email"`
	Password string `json:"password" validate:"required" msg:"Password is required"`
}

type updateProfileRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=2,max=50" msg:"First name must be between 2 and 50 characters"`
	LastName  *string `json:"lastName" validate:"omitempty,min=2,max=50" msg:"Last name must be between 2 and 50 characters"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required" msg:"Current password is required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6" msg:"New password must be at least 6 characters long"`
}

type pushTokenRequest struct {
	Token string `json:"token" validate:"required,max=4096" msg:"Push token is required"`
}

type updateUserRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=2,max=50" msg:"First name must be between 2 and 50 characters"`
	LastName  *string `json:"lastName" validate:"omitempty,min=2,max=50" msg:"Last name must be between 2 and 50 characters"`
	Email     *string `json:"email" validate:"omitempty,email" msg:"Please provide a valid email"`
	IsActive  *bool   `json:"isActive"`
}

type updateRoleRequest struct {
	Role models.Role `json:"role" validate:"required,oneof=STUDENT PROJECT_LEAD ADMIN SUPER_ADMIN" msg:"Invalid user role"`
}

type createProjectRequest struct {
	Name        string           `json:"name" validate:"required,min=1,max=100" msg:"Project name must be between 1 and 100 characters"`
	Description *string          `json:"description" validate:"omitempty,max=500" msg:"Description must be at most 500 characters"`
	StartDate   *validation.Time `json:"startDate"`
	EndDate     *validation.Time `json:"endDate"`
}

type updateProjectRequest struct {
	Name        *string               `json:"name" validate:"omitempty,min=1,max=100" msg:"Project name must be between 1 and 100 characters"`
	Description *string               `json:"description" validate:"omitempty,max=500" msg:"Description must be at most 500 characters"`
	StartDate   *validation.Time      `json:"startDate"`
	EndDate     *validation.Time      `json:"endDate"`
	Status      *models.ProjectStatus `json:"status" validate:"omitempty,oneof=ACTIVE ARCHIVED COMPLETED" msg:"Invalid project status"`
}

type addMemberRequest struct {
	UserID string `json:"userId" validate:"required,uuid" msg:"Invalid user ID format"`
	Role   string `json:"role" validate:"omitempty,min=1,max=50" msg:"Role must be between 1 and 50 characters"`
}

type memberRoleRequest struct {
	Role string `json:"role" validate:"required,min=1,max=50" msg:"Role must be between 1 and 50 characters"`
}

type createTaskRequest struct {
	Title        string               `json:"title" validate:"required,min=1,max=200" msg:"Title must be between 1 and 200 characters"`
	Description  *string              `json:"description" validate:"omitempty,max=1000" msg:"Description must be at most 1000 characters"`
	Deadline     *validation.Time     `json:"deadline" validate:"required" msg:"Deadline must be a valid ISO 8601 date"`
	Priority     *models.TaskPriority `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT" msg:"Invalid task priority"`
	AssigneeID   *string              `json:"assigneeId" validate:"omitempty,uuid" msg:"Invalid assignee ID format"`
	ProjectID    *string              `json:"projectId" validate:"omitempty,uuid" msg:"Invalid project ID format"`
	ParentTaskID *string              `json:"parentTaskId" validate:"omitempty,uuid" msg:"Invalid parent task ID format"`
}

type updateTaskRequest struct {
	Title        *string              `json:"title" validate:"omitempty,min=1,max=200" msg:"Title must be between 1 and 200 characters"`
	Description  *string              `json:"description" validate:"omitempty,max=1000" msg:"Description must be at most 1000 characters"`
	Deadline     *validation.Time     `json:"deadline"`
	Status       *models.TaskStatus   `json:"status" validate:"omitempty,oneof=NOT_STARTED IN_PROGRESS COMPLETED OVERDUE" msg:"Invalid task status"`
	Priority     *models.TaskPriority `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT" msg:"Invalid task priority"`
	AssigneeID   *string              `json:"assigneeId" validate:"omitempty,uuid" msg:"Invalid assignee ID format"`
	ProjectID    *string              `json:"projectId" validate:"omitempty,uuid" msg:"Invalid project ID format"`
	ParentTaskID *string              `json:"parentTaskId" validate:"omitempty,uuid" msg:"Invalid parent task ID format"`
}

type taskStatusRequest struct {
	Status models.TaskStatus `json:"status" validate:"required,oneof=NOT_STARTED IN_PROGRESS COMPLETED OVERDUE" msg:"Invalid task status"`
}

type createReminderRequest struct {
	TaskID   string               `json:"taskId" validate:"required,uuid" msg:"Invalid task ID format"`
	RemindAt *validation.Time     `json:"remindAt" validate:"required" msg:"Reminder time must be a valid ISO 8601 date"`
	Type     *models.ReminderType `json:"type" validate:"omitempty,oneof=PUSH EMAIL" msg:"Reminder type must be PUSH or EMAIL"`
}

type updateReminderRequest struct {
	RemindAt *validation.Time     `json:"remindAt"`
	Type     *models.ReminderType `json:"type" validate:"omitempty,oneof=PUSH EMAIL" msg:"Reminder type must be PUSH or EMAIL"`
}

type commentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=1000" msg:"Comment must be between 1 and 1000 characters"`
}

// Query strings.

type userListQuery struct {
	validation.PageQuery
	Role     *models.Role
	IsActive *bool
}

func (q *userListQuery) Bind(values url.Values) []string {
	failures := q.BindPage(values, models.UserSortFields)
	q.Role = validation.OptionalEnum(values, "role", models.ParseRole, &failures)
	q.IsActive = validation.OptionalBool(values, "isActive", &failures)
	return failures
}

type projectListQuery struct {
	validation.PageQuery
	Status    *models.ProjectStatus
	CreatorID *uuid.UUID
}

func (q *projectListQuery) Bind(values url.Values) []string {
	failures := q.BindPage(values, models.ProjectSortFields)
	q.Status = validation.OptionalEnum(values, "status", models.ParseProjectStatus, &failures)
	q.CreatorID = validation.OptionalUUID(values, "creatorId", &failures)
	return failures
}

type taskListQuery struct {
	validation.PageQuery
	filter models.TaskFilter
}

func (q *taskListQuery) Bind(values url.Values) []string {
	failures := q.BindPage(values, models.TaskSortFields)
	q.filter = models.TaskFilter{
		Status:       validation.OptionalEnum(values, "status", models.ParseTaskStatus, &failures),
		Priority:     validation.OptionalEnum(values, "priority", models.ParseTaskPriority, &failures),
		AssigneeID:   validation.OptionalUUID(values, "assigneeId", &failures),
		ProjectID:    validation.OptionalUUID(values, "projectId", &failures),
		DeadlineFrom: validation.OptionalTime(values, "deadlineFrom", &failures),
		DeadlineTo:   validation.OptionalTime(values, "deadlineTo", &failures),
	}
	return failures
}

type notificationListQuery struct {
	validation.PageQuery
}

func (q *notificationListQuery) Bind(values url.Values) []string {
	return q.BindPage(values, []string{"createdAt"})
}

// optionalID parses an ID that already passed the uuid rule.
func optionalID(s *string) *uuid.UUID {
	if s == nil {
		return nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil
	}
	return &id
}
