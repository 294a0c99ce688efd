package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deadline-tracker/deadline-tracker/pkg/apperrors"
	"github.com/deadline-tracker/deadline-tracker/pkg/auth"
	"github.com/deadline-tracker/deadline-tracker/pkg/config"
	"github.com/deadline-tracker/deadline-tracker/pkg/middleware"
	"github.com/deadline-tracker/deadline-tracker/pkg/models"
	"github.com/deadline-tracker/deadline-tracker/pkg/response"
	"github.com/deadline-tracker/deadline-tracker/pkg/services"
)

// tokenAuth resolves bearer tokens from a fixed table.
type tokenAuth struct {
	identities map[string]*auth.Identity
}

func (a *tokenAuth) ValidateRequest(r *http.Request) (*auth.Identity, string, error) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return nil, "", apperrors.Unauthorized("Access token required")
	}
	identity, ok := a.identities[token]
	if !ok {
		return nil, "", apperrors.Unauthorized("Invalid token")
	}
	return identity, token, nil
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	student *auth.Identity
	admin   *auth.Identity
}

func newTestServer(t *testing.T, svc Services) *testServer {
	t.Helper()
	student := &auth.Identity{ID: uuid.New(), Email: "student@x.com", Role: models.RoleStudent}
	admin := &auth.Identity{ID: uuid.New(), Email: "admin@x.com", Role: models.RoleAdmin}

	errs := response.NewTranslator(zap.NewNop(), false)
	authn := &tokenAuth{identities: map[string]*auth.Identity{"student": student, "admin": admin}}
	p := middleware.NewPipeline(auth.NewMiddleware(authn, errs, zap.NewNop()), errs)

	cfg := &config.Config{Version: "test", Env: "test", Upload: config.UploadConfig{Dir: t.TempDir()}}
	mux := NewRouter(cfg, svc, p, nil, errs.NotFoundHandler(), zap.NewNop())
	return &testServer{t: t, handler: mux, student: student, admin: admin}
}

func (s *testServer) do(method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	s.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// mockAuthService records the inputs it receives.
type mockAuthService struct {
	services.AuthService
	registered *services.RegisterInput
	result     *services.AuthResult
	err        error
}

func (m *mockAuthService) Register(ctx context.Context, input services.RegisterInput) (*services.AuthResult, error) {
	m.registered = &input
	return m.result, m.err
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*services.AuthResult, error) {
	return m.result, m.err
}

func (m *mockAuthService) Logout(ctx context.Context, caller *auth.Identity) error {
	return m.err
}

type mockUserService struct {
	services.UserService
	page       *models.PageResult[*models.User]
	filter     models.UserFilter
	capturedPg models.Page
}

func (m *mockUserService) List(ctx context.Context, filter models.UserFilter, page models.Page) (*models.PageResult[*models.User], error) {
	m.filter = filter
	m.capturedPg = page
	return m.page, nil
}

type mockProjectService struct {
	services.ProjectService
	member     models.Lookup[*models.ProjectMember]
	memberRole string
}

func (m *mockProjectService) AddMember(ctx context.Context, caller *auth.Identity, projectID, userID uuid.UUID, role string) (models.Lookup[*models.ProjectMember], error) {
	m.memberRole = role
	return m.member, nil
}

type mockTaskService struct {
	services.TaskService
	detail   models.Lookup[*models.TaskDetail]
	created  *services.TaskInput
	filter   models.TaskFilter
	upcoming int
	err      error
}

func (m *mockTaskService) Create(ctx context.Context, caller *auth.Identity, input services.TaskInput) (*models.Task, error) {
	m.created = &input
	if m.err != nil {
		return nil, m.err
	}
	return &models.Task{ID: uuid.New(), Title: input.Title, Deadline: input.Deadline, Priority: input.Priority, CreatorID: caller.ID}, nil
}

func (m *mockTaskService) List(ctx context.Context, caller *auth.Identity, filter models.TaskFilter, page models.Page) (*models.PageResult[*models.Task], error) {
	m.filter = filter
	return &models.PageResult[*models.Task]{Page: page.Page, Limit: page.Limit}, nil
}

func (m *mockTaskService) Get(ctx context.Context, caller *auth.Identity, id uuid.UUID) (models.Lookup[*models.TaskDetail], error) {
	return m.detail, m.err
}

func (m *mockTaskService) Overdue(ctx context.Context, caller *auth.Identity) ([]*models.Task, error) {
	return nil, m.err
}

func (m *mockTaskService) Upcoming(ctx context.Context, caller *auth.Identity, days int) ([]*models.Task, error) {
	m.upcoming = days
	return nil, m.err
}

type mockAttachmentService struct {
	services.AttachmentService
	uploadName string
	uploadBody string
	taskID     uuid.UUID
}

func (m *mockAttachmentService) Upload(ctx context.Context, caller *auth.Identity, taskID uuid.UUID, upload services.Upload) (models.Lookup[*models.Attachment], error) {
	data, err := io.ReadAll(upload.Content)
	if err != nil {
		return models.NotAccessible[*models.Attachment](), err
	}
	m.uploadName = upload.FileName
	m.uploadBody = string(data)
	m.taskID = taskID
	return models.Found(&models.Attachment{ID: uuid.New(), TaskID: taskID, FileName: upload.FileName, FileSize: int64(len(data)), MimeType: "text/plain"}), nil
}

type mockNotificationService struct {
	services.NotificationService
}

func (m *mockNotificationService) MarkRead(ctx context.Context, caller *auth.Identity, id uuid.UUID) (models.Lookup[*models.Notification], error) {
	return models.NotAccessible[*models.Notification](), nil
}
