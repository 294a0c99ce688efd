//go:build integration

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/deadline-tracker/deadline-tracker/pkg/database"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
	"github.com/deadline-tracker/deadline-tracker/pkg/testhelpers"
)

// repoTestContext holds the shared database and every repository under test.
type repoTestContext struct {
	t             *testing.T
	ctx           context.Context
	db            *database.DB
	users         UserRepository
	projects      ProjectRepository
	tasks         TaskRepository
	reminders     ReminderRepository
	comments      CommentRepository
	attachments   AttachmentRepository
	notifications NotificationRepository
}

// setupRepoTest empties all tables and returns fresh repositories.
func setupRepoTest(t *testing.T) *repoTestContext {
	testDB := testhelpers.GetTestDB(t)
	testhelpers.ResetTables(t, testDB.DB)

	return &repoTestContext{
		t:             t,
		ctx:           context.Background(),
		db:            testDB.DB,
		users:         NewUserRepository(testDB.DB),
		projects:      NewProjectRepository(testDB.DB),
		tasks:         NewTaskRepository(testDB.DB),
		reminders:     NewReminderRepository(testDB.DB),
		comments:      NewCommentRepository(testDB.DB),
		attachments:   NewAttachmentRepository(testDB.DB),
		notifications: NewNotificationRepository(testDB.DB),
	}
}

func (tc *repoTestContext) createUser(email string) *models.User {
	tc.t.Helper()
	user := &models.User{
		Email:     email,
		Password:  "$2a$12$hash",
		FirstName: "Test",
		LastName:  "User",
		Role:      models.RoleStudent,
	}
	if err := tc.users.Create(tc.ctx, user); err != nil {
		tc.t.Fatalf("failed to create user %s: %v", email, err)
	}
	return user
}

func (tc *repoTestContext) createProject(creator *models.User, name string) *models.Project {
	tc.t.Helper()
	project := &models.Project{Name: name, CreatorID: creator.ID}
	if err := tc.projects.Create(tc.ctx, project); err != nil {
		tc.t.Fatalf("failed to create project: %v", err)
	}
	return project
}

func (tc *repoTestContext) createTask(creator *models.User, title string, deadline time.Time, projectID *uuid.UUID) *models.Task {
	tc.t.Helper()
	task := &models.Task{
		Title:     title,
		Deadline:  deadline,
		CreatorID: creator.ID,
		ProjectID: projectID,
	}
	if err := tc.tasks.Create(tc.ctx, task); err != nil {
		tc.t.Fatalf("failed to create task: %v", err)
	}
	return task
}

func defaultPage(sortBy string, order models.SortOrder) models.Page {
	return models.Page{Page: 1, Limit: 10, SortBy: sortBy, SortOrder: order}
}
