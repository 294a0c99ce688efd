package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deadline-tracker/deadline-tracker/pkg/apperrors"
	"github.com/deadline-tracker/deadline-tracker/pkg/auth"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
	"github.com/deadline-tracker/deadline-tracker/pkg/notify"
)

func identity(role models.Role) *auth.Identity {
	return &auth.Identity{ID: uuid.New(), Email: uuid.NewString() + "@example.com", Role: role}
}

func ptr[T any](v T) *T { return &v }

// mockTx runs fn directly and records how often a transaction was requested.
type mockTx struct {
	calls int
}

func (m *mockTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

// mockUserRepository keeps users in memory.
type mockUserRepository struct {
	users     map[uuid.UUID]*models.User
	stats     *models.UserStats
	createErr error
	updateErr error

	capturedUpdate   models.UserUpdate
	capturedPassword string
	capturedToken    *string
	capturedFilter   models.UserFilter
	capturedPage     models.Page
}

func newMockUserRepository(users ...*models.User) *mockUserRepository {
	m := &mockUserRepository{users: make(map[uuid.UUID]*models.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepository) Create(_ context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = uuid.New()
	user.IsActive = true
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockUserRepository) List(_ context.Context, filter models.UserFilter, page models.Page) ([]*models.User, int, error) {
	m.capturedFilter = filter
	m.capturedPage = page
	var out []*models.User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (m *mockUserRepository) Update(_ context.Context, id uuid.UUID, update models.UserUpdate) (*models.User, error) {
	m.capturedUpdate = update
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if update.FirstName != nil {
		u.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		u.LastName = *update.LastName
	}
	if update.Email != nil {
		u.Email = *update.Email
	}
	if update.IsActive != nil {
		u.IsActive = *update.IsActive
	}
	return u, nil
}

func (m *mockUserRepository) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := m.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	m.capturedPassword = hash
	u.Password = hash
	return nil
}

func (m *mockUserRepository) UpdateRole(_ context.Context, id uuid.UUID, role models.Role) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	u.Role = role
	return u, nil
}

func (m *mockUserRepository) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	u, ok := m.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.IsActive = active
	return nil
}

func (m *mockUserRepository) SetPushToken(_ context.Context, id uuid.UUID, token *string) error {
	m.capturedToken = token
	return nil
}

func (m *mockUserRepository) UpsertByEmail(ctx context.Context, user *models.User) (bool, error) {
	if _, err := m.GetByEmail(ctx, user.Email); err == nil {
		return false, nil
	}
	return true, m.Create(ctx, user)
}

func (m *mockUserRepository) Stats(_ context.Context, id uuid.UUID, _ time.Time) (*models.UserStats, error) {
	if m.stats == nil {
		return &models.UserStats{}, nil
	}
	return m.stats, nil
}

// mockProjectRepository keeps projects and memberships in memory.
type mockProjectRepository struct {
	projects     map[uuid.UUID]*models.Project
	members      map[uuid.UUID]map[uuid.UUID]*models.ProjectMember
	stats        *models.ProjectStats
	addMemberErr error
	isMemberErr  error

	deleted []uuid.UUID
}

func newMockProjectRepository() *mockProjectRepository {
	return &mockProjectRepository{
		projects: make(map[uuid.UUID]*models.Project),
		members:  make(map[uuid.UUID]map[uuid.UUID]*models.ProjectMember),
	}
}

// seed stores a project owned by creator and enrolls the extra members.
func (m *mockProjectRepository) seed(creator uuid.UUID, members ...uuid.UUID) *models.Project {
	p := &models.Project{ID: uuid.New(), Name: "Thesis", CreatorID: creator, Status: models.ProjectStatusActive, StartDate: time.Now()}
	m.projects[p.ID] = p
	m.members[p.ID] = map[uuid.UUID]*models.ProjectMember{
		creator: {ID: uuid.New(), ProjectID: p.ID, UserID: creator, Role: models.MemberRoleOwner},
	}
	for _, u := range members {
		m.members[p.ID][u] = &models.ProjectMember{ID: uuid.New(), ProjectID: p.ID, UserID: u, Role: models.MemberRoleDefault}
	}
	return p
}

func (m *mockProjectRepository) Create(_ context.Context, project *models.Project) error {
	project.ID = uuid.New()
	m.projects[project.ID] = project
	m.members[project.ID] = make(map[uuid.UUID]*models.ProjectMember)
	return nil
}

func (m *mockProjectRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return p, nil
}

func (m *mockProjectRepository) List(_ context.Context, userID uuid.UUID, _ models.ProjectFilter, _ models.Page) ([]*models.Project, int, error) {
	var out []*models.Project
	for id, p := range m.projects {
		if _, ok := m.members[id][userID]; ok || p.CreatorID == userID {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (m *mockProjectRepository) Update(_ context.Context, id uuid.UUID, update models.ProjectUpdate) (*models.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if update.Name != nil {
		p.Name = *update.Name
	}
	if update.Status != nil {
		p.Status = *update.Status
	}
	if update.EndDate != nil {
		p.EndDate = update.EndDate
	}
	return p, nil
}

func (m *mockProjectRepository) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.projects[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.projects, id)
	delete(m.members, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockProjectRepository) AddMember(_ context.Context, member *models.ProjectMember) error {
	if m.addMemberErr != nil {
		return m.addMemberErr
	}
	if _, ok := m.members[member.ProjectID][member.UserID]; ok {
		return apperrors.ErrConflict
	}
	if member.Role == "" {
		member.Role = models.MemberRoleDefault
	}
	member.ID = uuid.New()
	member.JoinedAt = time.Now()
	if m.members[member.ProjectID] == nil {
		m.members[member.ProjectID] = make(map[uuid.UUID]*models.ProjectMember)
	}
	m.members[member.ProjectID][member.UserID] = member
	return nil
}

func (m *mockProjectRepository) RemoveMember(_ context.Context, projectID, userID uuid.UUID) error {
	if _, ok := m.members[projectID][userID]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.members[projectID], userID)
	return nil
}

func (m *mockProjectRepository) UpdateMemberRole(_ context.Context, projectID, userID uuid.UUID, role string) (*models.ProjectMember, error) {
	member, ok := m.members[projectID][userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	member.Role = role
	return member, nil
}

func (m *mockProjectRepository) ListMembers(_ context.Context, projectID uuid.UUID) ([]*models.ProjectMember, error) {
	var out []*models.ProjectMember
	for _, member := range m.members[projectID] {
		out = append(out, member)
	}
	return out, nil
}

func (m *mockProjectRepository) IsMember(_ context.Context, projectID, userID uuid.UUID) (bool, error) {
	if m.isMemberErr != nil {
		return false, m.isMemberErr
	}
	_, ok := m.members[projectID][userID]
	return ok, nil
}

func (m *mockProjectRepository) Stats(_ context.Context, _ uuid.UUID, _ time.Time) (*models.ProjectStats, error) {
	if m.stats == nil {
		return &models.ProjectStats{}, nil
	}
	return m.stats, nil
}

// mockTaskRepository keeps tasks in memory.
type mockTaskRepository struct {
	tasks map[uuid.UUID]*models.Task
	stats *models.TaskStats

	capturedPage models.Page
	capturedFrom time.Time
	capturedTo   time.Time
	deleted      []uuid.UUID
}

func newMockTaskRepository() *mockTaskRepository {
	return &mockTaskRepository{tasks: make(map[uuid.UUID]*models.Task)}
}

func (m *mockTaskRepository) seed(creator uuid.UUID, project *uuid.UUID) *models.Task {
	t := &models.Task{
		ID:        uuid.New(),
		Title:     "Write report",
		Deadline:  time.Now().Add(48 * time.Hour),
		Status:    models.TaskStatusNotStarted,
		Priority:  models.TaskPriorityMedium,
		CreatorID: creator,
		ProjectID: project,
	}
	m.tasks[t.ID] = t
	return t
}

func (m *mockTaskRepository) Create(_ context.Context, task *models.Task) error {
	task.ID = uuid.New()
	m.tasks[task.ID] = task
	return nil
}

func (m *mockTaskRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return t, nil
}

func (m *mockTaskRepository) Update(_ context.Context, id uuid.UUID, update models.TaskUpdate) (*models.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	updated := *t
	if update.Title != nil {
		updated.Title = *update.Title
	}
	if update.Status != nil {
		updated.Status = *update.Status
	}
	if update.AssigneeID != nil {
		updated.AssigneeID = update.AssigneeID
	}
	if update.ParentTaskID != nil {
		updated.ParentTaskID = update.ParentTaskID
	}
	m.tasks[id] = &updated
	return &updated, nil
}

func (m *mockTaskRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.TaskStatus) (*models.Task, error) {
	return m.Update(ctx, id, models.TaskUpdate{Status: &status})
}

func (m *mockTaskRepository) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.tasks[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.tasks, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockTaskRepository) List(_ context.Context, userID uuid.UUID, _ models.TaskFilter, page models.Page) ([]*models.Task, int, error) {
	m.capturedPage = page
	var out []*models.Task
	for _, t := range m.tasks {
		if t.CreatorID == userID {
			out = append(out, t)
		}
	}
	return out, len(out), nil
}

func (m *mockTaskRepository) ListOverdue(_ context.Context, userID uuid.UUID, now time.Time) ([]*models.Task, error) {
	var out []*models.Task
	for _, t := range m.tasks {
		if t.CreatorID == userID && t.IsOverdue(now) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTaskRepository) ListUpcoming(_ context.Context, _ uuid.UUID, from, to time.Time) ([]*models.Task, error) {
	m.capturedFrom, m.capturedTo = from, to
	return nil, nil
}

func (m *mockTaskRepository) ListSubtasks(_ context.Context, parentID uuid.UUID) ([]*models.Task, error) {
	var out []*models.Task
	for _, t := range m.tasks {
		if t.ParentTaskID != nil && *t.ParentTaskID == parentID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTaskRepository) ListByProject(_ context.Context, projectID uuid.UUID) ([]*models.Task, error) {
	var out []*models.Task
	for _, t := range m.tasks {
		if t.ProjectID != nil && *t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	return out, nil
}

func (m *mockTaskRepository) Stats(_ context.Context, _ uuid.UUID, _ time.Time) (*models.TaskStats, error) {
	if m.stats == nil {
		return &models.TaskStats{}, nil
	}
	s := *m.stats
	return &s, nil
}

// mockReminderRepository keeps reminders in memory.
type mockReminderRepository struct {
	mu          sync.Mutex
	nextAttempt map[uuid.UUID]time.Time

	reminders map[uuid.UUID]*models.Reminder
	due       []*models.DueReminder
	claimErr  error
	markErr   error

	claimed      []models.ReminderClaim
	sent         []uuid.UUID
	failures     map[uuid.UUID]string
	capturedFrom time.Time
	capturedTo   time.Time
}

func newMockReminderRepository() *mockReminderRepository {
	return &mockReminderRepository{
		reminders: make(map[uuid.UUID]*models.Reminder),
		failures:  make(map[uuid.UUID]string),
	}
}

func (m *mockReminderRepository) Create(_ context.Context, r *models.Reminder) error {
	r.ID = uuid.New()
	m.reminders[r.ID] = r
	return nil
}

func (m *mockReminderRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Reminder, error) {
	r, ok := m.reminders[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return r, nil
}

func (m *mockReminderRepository) ListForTaskAndUser(_ context.Context, taskID, userID uuid.UUID) ([]*models.Reminder, error) {
	var out []*models.Reminder
	for _, r := range m.reminders {
		if r.TaskID == taskID && r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockReminderRepository) ListUpcoming(_ context.Context, _ uuid.UUID, from, to time.Time) ([]*models.Reminder, error) {
	m.capturedFrom, m.capturedTo = from, to
	return nil, nil
}

func (m *mockReminderRepository) Update(_ context.Context, id uuid.UUID, update models.ReminderUpdate) (*models.Reminder, error) {
	r, ok := m.reminders[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if update.RemindAt != nil {
		r.RemindAt = *update.RemindAt
	}
	if update.Type != nil {
		r.Type = *update.Type
	}
	return r, nil
}

func (m *mockReminderRepository) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.reminders[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.reminders, id)
	return nil
}

// ClaimDue mirrors the lease rules of the SQL claim over the due slice.
// nextAttempt holds each row's lease or backoff.
func (m *mockReminderRepository) ClaimDue(_ context.Context, claim models.ReminderClaim) ([]*models.DueReminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claimed = append(m.claimed, claim)
	if m.claimErr != nil {
		return nil, m.claimErr
	}
	if m.nextAttempt == nil {
		m.nextAttempt = make(map[uuid.UUID]time.Time)
	}

	var out []*models.DueReminder
	for _, r := range m.due {
		if len(out) == claim.Limit {
			break
		}
		if r.IsSent || r.Attempts >= claim.MaxAttempts {
			continue
		}
		if next, ok := m.nextAttempt[r.ID]; ok && next.After(claim.Now) {
			continue
		}
		r.Attempts++
		m.nextAttempt[r.ID] = claim.LeaseUntil
		out = append(out, r)
	}
	return out, nil
}

func (m *mockReminderRepository) MarkSent(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markErr != nil {
		return m.markErr
	}
	for _, r := range m.due {
		if r.ID == id {
			r.IsSent = true
		}
	}
	m.sent = append(m.sent, id)
	return nil
}

func (m *mockReminderRepository) RecordFailure(_ context.Context, id uuid.UUID, lastErr string, retryAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[id] = lastErr
	m.nextAttempt[id] = retryAt
	return nil
}

type mockCommentRepository struct {
	comments []*models.Comment
}

func (m *mockCommentRepository) Create(_ context.Context, c *models.Comment) error {
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	m.comments = append(m.comments, c)
	return nil
}

func (m *mockCommentRepository) ListByTask(_ context.Context, taskID uuid.UUID) ([]*models.Comment, error) {
	var out []*models.Comment
	for _, c := range m.comments {
		if c.TaskID == taskID {
			out = append(out, c)
		}
	}
	return out, nil
}

type mockAttachmentRepository struct {
	attachments []*models.Attachment
	createErr   error
}

func (m *mockAttachmentRepository) Create(_ context.Context, a *models.Attachment) error {
	if m.createErr != nil {
		return m.createErr
	}
	a.ID = uuid.New()
	m.attachments = append(m.attachments, a)
	return nil
}

func (m *mockAttachmentRepository) ListByTask(_ context.Context, taskID uuid.UUID) ([]*models.Attachment, error) {
	var out []*models.Attachment
	for _, a := range m.attachments {
		if a.TaskID == taskID {
			out = append(out, a)
		}
	}
	return out, nil
}

type mockNotificationRepository struct {
	notifications []*models.Notification
	capturedPage  models.Page
}

func (m *mockNotificationRepository) Create(_ context.Context, n *models.Notification) error {
	n.ID = uuid.New()
	if n.Type == "" {
		n.Type = models.NotificationInfo
	}
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *mockNotificationRepository) ListByUser(_ context.Context, userID uuid.UUID, page models.Page) ([]*models.Notification, int, error) {
	m.capturedPage = page
	var out []*models.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, len(out), nil
}

func (m *mockNotificationRepository) MarkRead(_ context.Context, id, userID uuid.UUID) (*models.Notification, error) {
	for _, n := range m.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return n, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// mockNotifier records notifications sent through the Notifier interface.
type mockNotifier struct {
	sent  []*models.Notification
	err   error
	calls int
	// failOn makes only the n-th call (1-based) return err.
	failOn int
}

func (m *mockNotifier) Notify(_ context.Context, userID uuid.UUID, title, message string, kind models.NotificationType) error {
	m.calls++
	if m.err != nil && (m.failOn == 0 || m.failOn == m.calls) {
		return m.err
	}
	m.sent = append(m.sent, &models.Notification{UserID: userID, Title: title, Message: message, Type: kind})
	return nil
}

type mockPusher struct {
	tokens []string
	errFor map[string]error
}

func (m *mockPusher) Push(_ context.Context, token string, _ notify.Message) error {
	if token == "" {
		return notify.ErrNoDeviceToken
	}
	m.tokens = append(m.tokens, token)
	return m.errFor[token]
}

type mockMailer struct {
	mu  sync.Mutex
	to  []string
	err error
}

func (m *mockMailer) Send(_ context.Context, to, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.to = append(m.to, to)
	return nil
}

func (m *mockMailer) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.to)
}
