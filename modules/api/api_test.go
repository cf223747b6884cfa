package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	taskdomain "github.com/Rahim-U/horizon-labs-assessment/domain/task"
	userdomain "github.com/Rahim-U/horizon-labs-assessment/domain/user"
	"github.com/Rahim-U/horizon-labs-assessment/modules/auth"
	"github.com/Rahim-U/horizon-labs-assessment/modules/cache"
	"github.com/Rahim-U/horizon-labs-assessment/modules/tasks"
)

func openTestDB(t *testing.T, models ...any) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.AutoMigrate(models...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func newTestAPI(t *testing.T) *Module {
	t.Helper()

	jwtConfig := auth.DefaultJWTConfig()
	jwtConfig.SecretKey = "test-secret"
	authService := auth.NewAuthService(
		auth.NewUserRepository(openTestDB(t, &userdomain.User{})),
		auth.NewPasswordHasher(),
		auth.NewJWTManager(jwtConfig),
		nil,
	)
	tasksService := tasks.NewService(
		tasks.NewRepository(openTestDB(t, &taskdomain.Task{})),
		cache.New(nil, "", 0),
	)

	m := NewModule(0, "")
	m.SetAuthService(authService)
	m.SetTasksService(tasksService)
	if err := m.buildApp(); err != nil {
		t.Fatalf("failed to build app: %v", err)
	}
	return m
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

// registerUser creates an account through the API and returns its access token.
func registerUser(t *testing.T, m *Module, email string) string {
	t.Helper()
	req := jsonRequest(t, http.MethodPost, "/auth/register", RegisterRequest{
		Email:    email,
		Username: "alice",
		Password: "Passw0rd!",
	})
	resp, err := m.App().Test(req, -1)
	if err != nil {
		t.Fatalf("register request failed: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, want 201", resp.StatusCode)
	}
	var body AuthResponse
	decodeBody(t, resp, &body)
	return body.Token.AccessToken
}

func TestRegisterEndpoint(t *testing.T) {
	m := newTestAPI(t)

	req := jsonRequest(t, http.MethodPost, "/auth/register", RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "Passw0rd!",
	})
	resp, err := m.App().Test(req, -1)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var body AuthResponse
	decodeBody(t, resp, &body)
	if body.User.Email != "alice@example.com" || body.Token.AccessToken == "" {
		t.Errorf("body = %+v", body)
	}

	// Duplicate email is rejected.
	req = jsonRequest(t, http.MethodPost, "/auth/register", RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice2",
		Password: "Passw0rd!",
	})
	resp, err = m.App().Test(req, -1)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("duplicate status = %d, want 400", resp.StatusCode)
	}
	var errBody ErrorResponse
	decodeBody(t, resp, &errBody)
	if errBody.Detail != "Email already registered" {
		t.Errorf("detail = %q", errBody.Detail)
	}
}

func TestRegisterWeakPassword(t *testing.T) {
	m := newTestAPI(t)
	req := jsonRequest(t, http.MethodPost, "/auth/register", RegisterRequest{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "weak",
	})
	resp, err := m.App().Test(req, -1)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func loginRequest(t *testing.T, email, password string) *http.Request {
	t.Helper()
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	req, err := http.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestLoginEndpoint(t *testing.T) {
	m := newTestAPI(t)
	registerUser(t, m, "alice@example.com")

	resp, err := m.App().Test(loginRequest(t, "alice@example.com", "Passw0rd!"), -1)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body AuthResponse
	decodeBody(t, resp, &body)
	if body.Token.AccessToken == "" || body.Token.TokenType != "bearer" {
		t.Errorf("token = %+v", body.Token)
	}

	resp, err = m.App().Test(loginRequest(t, "alice@example.com", "wrong"), -1)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong-password status = %d, want 401", resp.StatusCode)
	}
	if resp.Header.Get("WWW-Authenticate") != "Bearer" {
		t.Error("WWW-Authenticate header missing")
	}
	var errBody ErrorResponse
	decodeBody(t, resp, &errBody)
	if errBody.Detail != "Invalid email or password, or account is locked" {
		t.Errorf("detail = %q", errBody.Detail)
	}
}

func TestLoginMissingFields(t *testing.T) {
	m := newTestAPI(t)
	resp, err := m.App().Test(loginRequest(t, "", ""), -1)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
}

func TestRefreshEndpoint(t *testing.T) {
	m := newTestAPI(t)
	registerUser(t, m, "alice@example.com")

	resp, err := m.App().Test(loginRequest(t, "alice@example.com", "Passw0rd!"), -1)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	var body AuthResponse
	decodeBody(t, resp, &body)

	req := jsonRequest(t, http.MethodPost, "/auth/refresh", RefreshRequest{RefreshToken: body.Token.RefreshToken})
	resp, err = m.App().Test(req, -1)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var tokens TokenResponse
	decodeBody(t, resp, &tokens)
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Errorf("tokens = %+v", tokens)
	}

	req = jsonRequest(t, http.MethodPost, "/auth/refresh", RefreshRequest{RefreshToken: "garbage"})
	resp, err = m.App().Test(req, -1)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("garbage refresh status = %d, want 401", resp.StatusCode)
	}
}

func TestPasswordResetRequestNeverEnumerates(t *testing.T) {
	m := newTestAPI(t)
	req := jsonRequest(t, http.MethodPost, "/auth/password-reset", PasswordResetRequest{Email: "nobody@example.com"})
	resp, err := m.App().Test(req, -1)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 for unknown email", resp.StatusCode)
	}
}

func TestTaskRoutesRequireAuth(t *testing.T) {
	m := newTestAPI(t)

	req, _ := http.NewRequest(http.MethodGet, "/tasks/", nil)
	resp, err := m.App().Test(req, -1)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	var errBody ErrorResponse
	decodeBody(t, resp, &errBody)
	if errBody.Detail != "Not authenticated" {
		t.Errorf("detail = %q", errBody.Detail)
	}

	req, _ = http.NewRequest(http.MethodGet, "/tasks/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = m.App().Test(req, -1)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad-token status = %d, want 401", resp.StatusCode)
	}
	decodeBody(t, resp, &errBody)
	if errBody.Detail != "Could not validate credentials" {
		t.Errorf("detail = %q", errBody.Detail)
	}
}

func TestTaskLifecycle(t *testing.T) {
	m := newTestAPI(t)
	token := registerUser(t, m, "alice@example.com")

	authed := func(req *http.Request) *http.Request {
		req.Header.Set("Authorization", "Bearer "+token)
		return req
	}

	// Create.
	req := authed(jsonRequest(t, http.MethodPost, "/tasks/", tasks.CreateTaskRequest{Title: "write report"}))
	resp, err := m.App().Test(req, -1)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	var created taskdomain.Task
	decodeBody(t, resp, &created)
	if created.ID == 0 || created.Status != taskdomain.StatusPending {
		t.Errorf("created = %+v", created)
	}

	// List.
	req = authed(jsonRequest(t, http.MethodGet, "/tasks/", nil))
	resp, err = m.App().Test(req, -1)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want 200", resp.StatusCode)
	}
	var listed []taskdomain.Task
	decodeBody(t, resp, &listed)
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Errorf("listed = %+v", listed)
	}

	// Update.
	newTitle := "write the quarterly report"
	req = authed(jsonRequest(t, http.MethodPut, fmt.Sprintf("/tasks/%d", created.ID), tasks.UpdateTaskRequest{Title: &newTitle}))
	resp, err = m.App().Test(req, -1)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d, want 200", resp.StatusCode)
	}
	var updated taskdomain.Task
	decodeBody(t, resp, &updated)
	if updated.Title != newTitle {
		t.Errorf("updated title = %q", updated.Title)
	}

	// Get.
	req = authed(jsonRequest(t, http.MethodGet, fmt.Sprintf("/tasks/%d", created.ID), nil))
	resp, err = m.App().Test(req, -1)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want 200", resp.StatusCode)
	}

	// Delete.
	req = authed(jsonRequest(t, http.MethodDelete, fmt.Sprintf("/tasks/%d", created.ID), nil))
	resp, err = m.App().Test(req, -1)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}

	// Deleted tasks are gone.
	req = authed(jsonRequest(t, http.MethodGet, fmt.Sprintf("/tasks/%d", created.ID), nil))
	resp, err = m.App().Test(req, -1)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get-after-delete status = %d, want 404", resp.StatusCode)
	}
}

func TestListTasksValidatesQuery(t *testing.T) {
	m := newTestAPI(t)
	token := registerUser(t, m, "alice@example.com")

	tests := []struct {
		name string
		path string
	}{
		{"bad status", "/tasks/?status=done"},
		{"bad priority", "/tasks/?priority=urgent"},
		{"bad sort field", "/tasks/?sort_by=color"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Authorization", "Bearer "+token)
			resp, err := m.App().Test(req, -1)
			if err != nil {
				t.Fatalf("Test() error = %v", err)
			}
			if resp.StatusCode != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422", resp.StatusCode)
			}
		})
	}
}

func TestInvalidTaskIDRejected(t *testing.T) {
	m := newTestAPI(t)
	token := registerUser(t, m, "alice@example.com")

	req, _ := http.NewRequest(http.MethodGet, "/tasks/abc", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := m.App().Test(req, -1)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	m := newTestAPI(t)
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	resp, err := m.App().Test(req, -1)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestSecurityHeaders(t *testing.T) {
	m := newTestAPI(t)
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	resp, err := m.App().Test(req, -1)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}
