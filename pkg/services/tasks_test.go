package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deadline-tracker/deadline-tracker/pkg/apperrors"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
)

type taskFixture struct {
	service     TaskService
	tasks       *mockTaskRepository
	projects    *mockProjectRepository
	users       *mockUserRepository
	reminders   *mockReminderRepository
	comments    *mockCommentRepository
	attachments *mockAttachmentRepository
	notifier    *mockNotifier
	now         time.Time
}

func newTaskFixture() *taskFixture {
	f := &taskFixture{
		tasks:       newMockTaskRepository(),
		projects:    newMockProjectRepository(),
		users:       newMockUserRepository(),
		reminders:   newMockReminderRepository(),
		comments:    &mockCommentRepository{},
		attachments: &mockAttachmentRepository{},
		notifier:    &mockNotifier{},
		now:         time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	svc := NewTaskService(f.tasks, f.users, f.reminders, f.comments, f.attachments,
		NewAccess(f.projects, f.tasks), f.notifier, zap.NewNop()).(*taskService)
	svc.now = func() time.Time { return f.now }
	f.service = svc
	return f
}

func TestTaskService_Create_Defaults(t *testing.T) {
	f := newTaskFixture()
	caller := identity(models.RoleStudent)

	task, err := f.service.Create(context.Background(), caller, TaskInput{Title: "Essay", Deadline: f.now.Add(time.Hour)})
	require.NoError(t, err)

	assert.Equal(t, models.TaskStatusNotStarted, task.Status)
	assert.Equal(t, models.TaskPriorityMedium, task.Priority)
	assert.Equal(t, caller.ID, task.CreatorID)
	assert.Empty(t, f.notifier.sent)
}

func TestTaskService_Create_MissingReferences(t *testing.T) {
	f := newTaskFixture()
	caller := identity(models.RoleStudent)
	ctx := context.Background()
	missing := uuid.New()

	_, err := f.service.Create(ctx, caller, TaskInput{Title: "x", Deadline: f.now, ProjectID: &missing})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, "Project not found", err.Error())

	_, err = f.service.Create(ctx, caller, TaskInput{Title: "x", Deadline: f.now, ParentTaskID: &missing})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, "Parent task not found", err.Error())

	_, err = f.service.Create(ctx, caller, TaskInput{Title: "x", Deadline: f.now, AssigneeID: &missing})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, "Assignee not found", err.Error())

	assert.Empty(t, f.tasks.tasks)
}

func TestTaskService_Create_ForeignProjectIsNotFound(t *testing.T) {
	f := newTaskFixture()
	project := f.projects.seed(uuid.New())

	_, err := f.service.Create(context.Background(), identity(models.RoleStudent), TaskInput{Title: "x", Deadline: f.now, ProjectID: &project.ID})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTaskService_Create_NotifiesAssignee(t *testing.T) {
	f := newTaskFixture()
	caller := identity(models.RoleProjectLead)
	assignee := &models.User{ID: uuid.New(), Email: "a@example.com", IsActive: true}
	f.users.users[assignee.ID] = assignee

	_, err := f.service.Create(context.Background(), caller, TaskInput{Title: "Slides", Deadline: f.now, AssigneeID: &assignee.ID})
	require.NoError(t, err)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, assignee.ID, f.notifier.sent[0].UserID)
	assert.Equal(t, models.NotificationInfo, f.notifier.sent[0].Type)
}

func TestTaskService_Create_NotifyFailureDoesNotFail(t *testing.T) {
	f := newTaskFixture()
	f.notifier.err = errors.New("db down")
	assignee := &models.User{ID: uuid.New(), IsActive: true}
	f.users.users[assignee.ID] = assignee

	_, err := f.service.Create(context.Background(), identity(models.RoleStudent), TaskInput{Title: "x", Deadline: f.now, AssigneeID: &assignee.ID})
	assert.NoError(t, err)
}

func TestTaskService_Get_Detail(t *testing.T) {
	f := newTaskFixture()
	caller := identity(models.RoleStudent)
	parent := f.tasks.seed(caller.ID, nil)
	task := f.tasks.seed(caller.ID, nil)
	task.ParentTaskID = &parent.ID
	child := f.tasks.seed(caller.ID, nil)
	child.ParentTaskID = &task.ID

	f.comments.comments = append(f.comments.comments, &models.Comment{ID: uuid.New(), TaskID: task.ID, Content: "hi"})
	f.reminders.reminders[uuid.New()] = &models.Reminder{TaskID: task.ID, UserID: caller.ID}
	f.reminders.reminders[uuid.New()] = &models.Reminder{TaskID: task.ID, UserID: uuid.New()}

	lookup, err := f.service.Get(context.Background(), caller, task.ID)
	require.NoError(t, err)
	detail, ok := lookup.Get()
	require.True(t, ok)

	require.NotNil(t, detail.Parent)
	assert.Equal(t, parent.ID, detail.Parent.ID)
	assert.Len(t, detail.Subtasks, 1)
	assert.Len(t, detail.Comments, 1)
	assert.Len(t, detail.Reminders, 1, "only the caller's reminders are included")
}

func TestTaskService_Get_NotAccessible(t *testing.T) {
	f := newTaskFixture()
	task := f.tasks.seed(uuid.New(), nil)

	lookup, err := f.service.Get(context.Background(), identity(models.RoleSuperAdmin), task.ID)
	require.NoError(t, err)
	assert.False(t, lookup.IsFound())
}

func TestTaskService_Update(t *testing.T) {
	f := newTaskFixture()
	caller := identity(models.RoleStudent)
	task := f.tasks.seed(caller.ID, nil)
	assignee := &models.User{ID: uuid.New(), IsActive: true}
	f.users.users[assignee.ID] = assignee

	_, err := f.service.Update(context.Background(), caller, task.ID, models.TaskUpdate{ParentTaskID: &task.ID})
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)

	lookup, err := f.service.Update(context.Background(), caller, task.ID, models.TaskUpdate{Title: ptr("Renamed"), AssigneeID: &assignee.ID})
	require.NoError(t, err)
	updated, ok := lookup.Get()
	require.True(t, ok)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Len(t, f.notifier.sent, 1)

	// Same assignee again: no second notification.
	_, err = f.service.Update(context.Background(), caller, task.ID, models.TaskUpdate{AssigneeID: &assignee.ID})
	require.NoError(t, err)
	assert.Len(t, f.notifier.sent, 1)
}

func TestTaskService_UpdateStatus_AssigneeAllowed(t *testing.T) {
	f := newTaskFixture()
	assignee := identity(models.RoleStudent)
	task := f.tasks.seed(uuid.New(), nil)
	task.AssigneeID = &assignee.ID

	lookup, err := f.service.UpdateStatus(context.Background(), assignee, task.ID, models.TaskStatusCompleted)
	require.NoError(t, err)
	updated, ok := lookup.Get()
	require.True(t, ok)
	assert.Equal(t, models.TaskStatusCompleted, updated.Status)
}

func TestTaskService_Delete(t *testing.T) {
	f := newTaskFixture()
	caller := identity(models.RoleStudent)
	task := f.tasks.seed(caller.ID, nil)

	lookup, err := f.service.Delete(context.Background(), identity(models.RoleStudent), task.ID)
	require.NoError(t, err)
	assert.False(t, lookup.IsFound())
	assert.Empty(t, f.tasks.deleted)

	lookup, err = f.service.Delete(context.Background(), caller, task.ID)
	require.NoError(t, err)
	assert.True(t, lookup.IsFound())
	assert.Equal(t, []uuid.UUID{task.ID}, f.tasks.deleted)
}

func TestTaskService_List_DefaultSort(t *testing.T) {
	f := newTaskFixture()

	_, err := f.service.List(context.Background(), identity(models.RoleStudent), models.TaskFilter{}, models.Page{})
	require.NoError(t, err)
	assert.Equal(t, "deadline", f.tasks.capturedPage.SortBy)
	assert.Equal(t, models.SortAsc, f.tasks.capturedPage.SortOrder)
	assert.Equal(t, models.DefaultLimit, f.tasks.capturedPage.Limit)
}

func TestTaskService_Overdue(t *testing.T) {
	f := newTaskFixture()
	caller := identity(models.RoleStudent)
	late := f.tasks.seed(caller.ID, nil)
	late.Deadline = f.now.Add(-time.Hour)
	done := f.tasks.seed(caller.ID, nil)
	done.Deadline = f.now.Add(-time.Hour)
	done.Status = models.TaskStatusCompleted
	f.tasks.seed(caller.ID, nil)

	tasks, err := f.service.Overdue(context.Background(), caller)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, late.ID, tasks[0].ID)
}

func TestTaskService_Upcoming_Window(t *testing.T) {
	f := newTaskFixture()

	_, err := f.service.Upcoming(context.Background(), identity(models.RoleStudent), 0)
	require.NoError(t, err)
	assert.Equal(t, f.now, f.tasks.capturedFrom)
	assert.Equal(t, f.now.AddDate(0, 0, DefaultUpcomingDays), f.tasks.capturedTo)

	_, err = f.service.Upcoming(context.Background(), identity(models.RoleStudent), 30)
	require.NoError(t, err)
	assert.Equal(t, f.now.AddDate(0, 0, 30), f.tasks.capturedTo)
}

func TestTaskService_Stats_CompletionRate(t *testing.T) {
	tests := []struct {
		name  string
		stats models.TaskStats
		want  float64
	}{
		{"empty", models.TaskStats{}, 0},
		{"one third", models.TaskStats{Total: 3, Completed: 1, Pending: 2}, 33},
		{"two thirds", models.TaskStats{Total: 3, Completed: 2, Pending: 1}, 67},
		{"all", models.TaskStats{Total: 4, Completed: 4}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTaskFixture()
			f.tasks.stats = &tt.stats

			stats, err := f.service.Stats(context.Background(), identity(models.RoleStudent))
			require.NoError(t, err)
			assert.Equal(t, tt.want, stats.CompletionRate)
		})
	}
}
