//go:build integration

package repositories

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/deadline-tracker/deadline-tracker/pkg/apperrors"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
)

func TestTaskRepository_CreateDefaultsAndJoins(t *testing.T) {
	tc := setupRepoTest(t)
	a := tc.createUser("a@x.com")
	b := tc.createUser("b@x.com")
	project := tc.createProject(a, "P")

	task := &models.Task{
		Title:      "Write report",
		Deadline:   time.Now().Add(24 * time.Hour),
		CreatorID:  a.ID,
		AssigneeID: &b.ID,
		ProjectID:  &project.ID,
	}
	if err := tc.tasks.Create(tc.ctx, task); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := tc.tasks.GetByID(tc.ctx, task.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != models.TaskStatusNotStarted || got.Priority != models.TaskPriorityMedium {
		t.Errorf("expected defaults NOT_STARTED/MEDIUM, got %s/%s", got.Status, got.Priority)
	}
	if got.Assignee == nil || got.Assignee.ID != b.ID {
		t.Errorf("expected assignee summary, got %+v", got.Assignee)
	}
	if got.Project == nil || got.Project.Name != "P" {
		t.Errorf("expected project summary, got %+v", got.Project)
	}
}

func TestTaskRepository_Create_UnknownProject(t *testing.T) {
	tc := setupRepoTest(t)
	a := tc.createUser("a@x.com")

	missing := uuid.New()
	task := &models.Task{Title: "T", Deadline: time.Now(), CreatorID: a.ID, ProjectID: &missing}
	if err := tc.tasks.Create(tc.ctx, task); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTaskRepository_List_Visibility(t *testing.T) {
	tc := setupRepoTest(t)
	a := tc.createUser("a@x.com")
	b := tc.createUser("b@x.com")
	c := tc.createUser("c@x.com")
	project := tc.createProject(a, "P")
	if err := tc.projects.AddMember(tc.ctx, &models.ProjectMember{ProjectID: project.ID, UserID: b.ID}); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}

	tc.createTask(a, "in project", time.Now().Add(time.Hour), &project.ID)
	tc.createTask(a, "personal", time.Now().Add(2*time.Hour), nil)

	page := defaultPage("deadline", models.SortAsc)
	cases := []struct {
		user  *models.User
		total int
	}{
		{a, 2},
		{b, 1},
		{c, 0},
	}
	for _, tt := range cases {
		_, total, err := tc.tasks.List(tc.ctx, tt.user.ID, models.TaskFilter{}, page)
		if err != nil {
			t.Fatalf("List for %s failed: %v", tt.user.Email, err)
		}
		if total != tt.total {
			t.Errorf("%s: expected %d visible tasks, got %d", tt.user.Email, tt.total, total)
		}
	}
}

func TestTaskRepository_List_Pagination(t *testing.T) {
	tc := setupRepoTest(t)
	a := tc.createUser("a@x.com")
	base := time.Now().Add(time.Hour)
	for i := 0; i < 12; i++ {
		tc.createTask(a, fmt.Sprintf("task %02d", i), base.Add(time.Duration(i)*time.Minute), nil)
	}

	page := models.Page{Page: 2, Limit: 5, SortBy: "deadline", SortOrder: models.SortAsc}
	tasks, total, err := tc.tasks.List(tc.ctx, a.ID, models.TaskFilter{}, page)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if total != 12 || len(tasks) != 5 {
		t.Fatalf("expected 5 of 12, got %d of %d", len(tasks), total)
	}
	if tasks[0].Title != "task 05" {
		t.Errorf("expected page 2 to start at task 05, got %q", tasks[0].Title)
	}
	if models.TotalPages(total, page.Limit) != 3 {
		t.Errorf("expected 3 pages")
	}

	page.Page = 4
	tasks, total, err = tc.tasks.List(tc.ctx, a.ID, models.TaskFilter{}, page)
	if err != nil {
		t.Fatalf("List beyond range failed: %v", err)
	}
	if len(tasks) != 0 || total != 12 {
		t.Errorf("expected empty page with total 12, got %d items, total %d", len(tasks), total)
	}
}

func TestTaskRepository_List_Filters(t *testing.T) {
	tc := setupRepoTest(t)
	a := tc.createUser("a@x.com")
	now := time.Now()

	urgent := &models.Task{Title: "urgent", Deadline: now.Add(time.Hour), CreatorID: a.ID, Priority: models.TaskPriorityUrgent}
	if err := tc.tasks.Create(tc.ctx, urgent); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	tc.createTask(a, "later", now.Add(72*time.Hour), nil)

	priority := models.TaskPriorityUrgent
	tasks, _, err := tc.tasks.List(tc.ctx, a.ID, models.TaskFilter{Priority: &priority}, defaultPage("deadline", models.SortAsc))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != urgent.ID {
		t.Errorf("expected only the urgent task, got %d tasks", len(tasks))
	}

	to := now.Add(24 * time.Hour)
	tasks, _, err = tc.tasks.List(tc.ctx, a.ID, models.TaskFilter{DeadlineTo: &to}, defaultPage("deadline", models.SortAsc))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("expected 1 task due within a day, got %d", len(tasks))
	}
}

func TestTaskRepository_OverdueAndUpcoming(t *testing.T) {
	tc := setupRepoTest(t)
	a := tc.createUser("a@x.com")
	now := time.Now()

	late := tc.createTask(a, "late", now.Add(-time.Hour), nil)
	doneLate := tc.createTask(a, "done late", now.Add(-2*time.Hour), nil)
	if _, err := tc.tasks.UpdateStatus(tc.ctx, doneLate.ID, models.TaskStatusCompleted); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	soon := tc.createTask(a, "soon", now.Add(48*time.Hour), nil)
	tc.createTask(a, "far", now.Add(30*24*time.Hour), nil)

	overdue, err := tc.tasks.ListOverdue(tc.ctx, a.ID, now)
	if err != nil {
		t.Fatalf("ListOverdue failed: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != late.ID {
		t.Errorf("expected only the late task, got %d", len(overdue))
	}

	upcoming, err := tc.tasks.ListUpcoming(tc.ctx, a.ID, now, now.Add(7*24*time.Hour))
	if err != nil {
		t.Fatalf("ListUpcoming failed: %v", err)
	}
	if len(upcoming) != 1 || upcoming[0].ID != soon.ID {
		t.Errorf("expected only the soon task, got %d", len(upcoming))
	}
}

func TestTaskRepository_Subtasks(t *testing.T) {
	tc := setupRepoTest(t)
	a := tc.createUser("a@x.com")
	parent := tc.createTask(a, "parent", time.Now().Add(time.Hour), nil)

	child := &models.Task{Title: "child", Deadline: time.Now().Add(time.Hour), CreatorID: a.ID, ParentTaskID: &parent.ID}
	if err := tc.tasks.Create(tc.ctx, child); err != nil {
		t.Fatalf("Create child failed: %v", err)
	}

	subtasks, err := tc.tasks.ListSubtasks(tc.ctx, parent.ID)
	if err != nil {
		t.Fatalf("ListSubtasks failed: %v", err)
	}
	if len(subtasks) != 1 || subtasks[0].ID != child.ID {
		t.Errorf("expected the child task, got %d", len(subtasks))
	}

	got, err := tc.tasks.GetByID(tc.ctx, parent.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.SubtaskCount != 1 {
		t.Errorf("expected subtask count 1, got %d", got.SubtaskCount)
	}
}

func TestTaskRepository_UpdateAndDelete(t *testing.T) {
	tc := setupRepoTest(t)
	a := tc.createUser("a@x.com")
	task := tc.createTask(a, "old", time.Now().Add(time.Hour), nil)

	title := "new"
	updated, err := tc.tasks.Update(tc.ctx, task.ID, models.TaskUpdate{Title: &title})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Title != "new" {
		t.Errorf("expected title new, got %q", updated.Title)
	}

	if err := tc.tasks.Delete(tc.ctx, task.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := tc.tasks.Delete(tc.ctx, task.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestTaskRepository_Stats(t *testing.T) {
	tc := setupRepoTest(t)
	a := tc.createUser("a@x.com")
	b := tc.createUser("b@x.com")
	now := time.Now()

	tc.createTask(a, "late", now.Add(-time.Hour), nil)
	inProgress := tc.createTask(a, "wip", now.Add(time.Hour), nil)
	if _, err := tc.tasks.UpdateStatus(tc.ctx, inProgress.ID, models.TaskStatusInProgress); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	assigned := &models.Task{Title: "assigned", Deadline: now.Add(time.Hour), CreatorID: b.ID, AssigneeID: &a.ID, Status: models.TaskStatusCompleted}
	if err := tc.tasks.Create(tc.ctx, assigned); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	stats, err := tc.tasks.Stats(tc.ctx, a.ID, now)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 3 || stats.Completed != 1 || stats.Pending != 2 || stats.Overdue != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
