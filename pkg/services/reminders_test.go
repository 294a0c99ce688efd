package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deadline-tracker/deadline-tracker/pkg/models"
)

type reminderFixture struct {
	service   ReminderService
	reminders *mockReminderRepository
	tasks     *mockTaskRepository
	projects  *mockProjectRepository
	now       time.Time
}

func newReminderFixture() *reminderFixture {
	f := &reminderFixture{
		reminders: newMockReminderRepository(),
		tasks:     newMockTaskRepository(),
		projects:  newMockProjectRepository(),
		now:       time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	svc := NewReminderService(f.reminders, NewAccess(f.projects, f.tasks), zap.NewNop()).(*reminderService)
	svc.now = func() time.Time { return f.now }
	f.service = svc
	return f
}

func TestReminderService_Create(t *testing.T) {
	f := newReminderFixture()
	caller := identity(models.RoleStudent)
	task := f.tasks.seed(caller.ID, nil)

	reminder, err := f.service.Create(context.Background(), caller, ReminderInput{TaskID: task.ID, RemindAt: f.now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if reminder.Type != models.ReminderTypePush {
		t.Errorf("expected default type PUSH, got %s", reminder.Type)
	}
	if reminder.UserID != caller.ID {
		t.Errorf("expected reminder owned by caller")
	}
	if reminder.Task == nil || reminder.Task.Title != task.Title {
		t.Errorf("expected embedded task context, got %+v", reminder.Task)
	}
}

func TestReminderService_Create_InaccessibleTask(t *testing.T) {
	f := newReminderFixture()
	task := f.tasks.seed(uuid.New(), nil)

	_, err := f.service.Create(context.Background(), identity(models.RoleStudent), ReminderInput{TaskID: task.ID, RemindAt: f.now})
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "Task not found or access denied" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if len(f.reminders.reminders) != 0 {
		t.Error("expected no reminder to be stored")
	}
}

func TestReminderService_Upcoming_Window(t *testing.T) {
	f := newReminderFixture()

	if _, err := f.service.Upcoming(context.Background(), identity(models.RoleStudent), 3); err != nil {
		t.Fatalf("Upcoming failed: %v", err)
	}
	if !f.reminders.capturedFrom.Equal(f.now) || !f.reminders.capturedTo.Equal(f.now.AddDate(0, 0, 3)) {
		t.Errorf("unexpected window %v - %v", f.reminders.capturedFrom, f.reminders.capturedTo)
	}
}

func TestReminderService_ListForTask(t *testing.T) {
	f := newReminderFixture()
	caller := identity(models.RoleStudent)
	task := f.tasks.seed(caller.ID, nil)
	f.reminders.reminders[uuid.New()] = &models.Reminder{TaskID: task.ID, UserID: caller.ID}

	lookup, err := f.service.ListForTask(context.Background(), caller, task.ID)
	if err != nil {
		t.Fatalf("ListForTask failed: %v", err)
	}
	reminders, ok := lookup.Get()
	if !ok || len(reminders) != 1 {
		t.Fatalf("expected one reminder, got %v (found %v)", len(reminders), ok)
	}

	lookup, err = f.service.ListForTask(context.Background(), identity(models.RoleStudent), task.ID)
	if err != nil {
		t.Fatalf("ListForTask failed: %v", err)
	}
	if lookup.IsFound() {
		t.Error("expected NotAccessible for stranger")
	}
}

func TestReminderService_UpdateAndDelete(t *testing.T) {
	f := newReminderFixture()
	owner := identity(models.RoleStudent)
	task := f.tasks.seed(uuid.New(), nil)
	reminder := &models.Reminder{ID: uuid.New(), TaskID: task.ID, UserID: owner.ID, Type: models.ReminderTypePush}
	f.reminders.reminders[reminder.ID] = reminder
	ctx := context.Background()

	lookup, err := f.service.Update(ctx, identity(models.RoleStudent), reminder.ID, models.ReminderUpdate{Type: ptr(models.ReminderTypeEmail)})
	if err != nil || lookup.IsFound() {
		t.Fatalf("expected stranger update to be NotAccessible, got found=%v err=%v", lookup.IsFound(), err)
	}

	lookup, err = f.service.Update(ctx, owner, reminder.ID, models.ReminderUpdate{Type: ptr(models.ReminderTypeEmail)})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	updated, ok := lookup.Get()
	if !ok || updated.Type != models.ReminderTypeEmail {
		t.Fatalf("expected EMAIL reminder, got %+v", updated)
	}

	lookup, err = f.service.Delete(ctx, owner, reminder.ID)
	if err != nil || !lookup.IsFound() {
		t.Fatalf("Delete failed: found=%v err=%v", lookup.IsFound(), err)
	}

	lookup, err = f.service.Delete(ctx, owner, reminder.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if lookup.IsFound() {
		t.Error("expected second delete to be NotAccessible")
	}
}

func TestReminderService_NotAccessibleIsNotAnError(t *testing.T) {
	f := newReminderFixture()

	lookup, err := f.service.Update(context.Background(), identity(models.RoleStudent), uuid.New(), models.ReminderUpdate{})
	if err != nil {
		t.Fatalf("expected no error for missing reminder, got %v", err)
	}
	if lookup.IsFound() {
		t.Error("expected NotAccessible")
	}
}
