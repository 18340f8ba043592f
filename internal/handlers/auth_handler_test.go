package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"courseforge/internal/database"
	"courseforge/internal/models"
	"courseforge/internal/repository"
	"courseforge/internal/security"
	"courseforge/internal/service"
	"courseforge/internal/token"
)

type testServer struct {
	mux      *http.ServeMux
	userRepo *repository.UserRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	codec, err := token.NewCodec(token.Config{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "courseforge-test",
	})
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}

	emailService, err := service.NewEmailService("eu-west-1", "", "", "http://localhost:8080")
	if err != nil {
		t.Fatalf("NewEmailService() error = %v", err)
	}
	storageService, err := service.NewStorageService("eu-west-1", "", "", "", "", "")
	if err != nil {
		t.Fatalf("NewStorageService() error = %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	moduleRepo := repository.NewModuleRepository(db)

	authService := service.NewAuthService(userRepo, codec, emailService, 5*time.Minute)
	userService := service.NewUserService(userRepo, storageService)
	courseService := service.NewCourseService(courseRepo, storageService)
	moduleService := service.NewModuleService(moduleRepo, courseRepo)

	mw := NewMiddleware(codec, userRepo, security.NewRateLimiter(1000, time.Minute))
	authHandler := NewAuthHandler(authService, false)
	userHandler := NewUserHandler(userService, 5*1024*1024)
	courseHandler := NewCourseHandler(courseService, 5*1024*1024)
	moduleHandler := NewModuleHandler(moduleService)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/users/register", mw.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /api/v1/users/login", mw.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /api/v1/users/logout", mw.RequireAuth(authHandler.Logout))
	mux.HandleFunc("POST /api/v1/users/refresh-token", authHandler.RefreshToken)
	mux.HandleFunc("GET /api/v1/users/verify-email/{token}", mw.RequireAuth(authHandler.VerifyEmail))
	mux.HandleFunc("POST /api/v1/users/change-password", mw.RequireAuth(authHandler.ChangePassword))
	mux.HandleFunc("POST /api/v1/users/assign-role/{userId}", mw.RequireRole(models.RoleAdmin, authHandler.AssignRole))
	mux.HandleFunc("POST /api/v1/users/forgot-password", mw.RateLimit(authHandler.ForgotPassword))
	mux.HandleFunc("POST /api/v1/users/forgot-password/{token}", authHandler.ResetPassword)
	mux.HandleFunc("GET /api/v1/users/me", mw.RequireAuth(userHandler.Me))
	mux.HandleFunc("POST /api/v1/courses", mw.RequireAuth(courseHandler.Create))
	mux.HandleFunc("GET /api/v1/courses", courseHandler.List)
	mux.HandleFunc("PATCH /api/v1/courses/{id}", mw.RequireAuth(courseHandler.Update))
	mux.HandleFunc("POST /api/v1/courses/{id}/modules", mw.RequireAuth(moduleHandler.Add))

	return &testServer{mux: mux, userRepo: userRepo}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (bool, map[string]interface{}, string) {
	t.Helper()

	var envelope struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
		Message string                 `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("response is not the JSON envelope: %v (%s)", err, rec.Body.String())
	}
	return envelope.Success, envelope.Data, envelope.Message
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name && c.Value != "" {
			return c
		}
	}
	return nil
}

func registerBody(username string) map[string]string {
	return map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"fullName": "Test User",
		"password": "pw12345",
	}
}

func TestRegisterEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "POST", "/api/v1/users/register", registerBody("maria"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", rec.Code, rec.Body.String())
	}
	success, data, _ := decodeEnvelope(t, rec)
	if !success {
		t.Error("success = false")
	}
	if data["username"] != "maria" {
		t.Errorf("data.username = %v", data["username"])
	}
	if _, leaked := data["passwordHash"]; leaked {
		t.Error("password hash leaked in the response")
	}

	// Duplicate identity conflicts
	rec = ts.do(t, "POST", "/api/v1/users/register", registerBody("maria"))
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", rec.Code)
	}

	// Request-shape failure
	bad := registerBody("zoe")
	bad["password"] = "x"
	rec = ts.do(t, "POST", "/api/v1/users/register", bad)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("short password status = %d, want 422", rec.Code)
	}
	success, _, _ = decodeEnvelope(t, rec)
	if success {
		t.Error("failure envelope claims success")
	}
}

func TestLoginEndpointStatusMapping(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, "POST", "/api/v1/users/register", registerBody("maria"))

	rec := ts.do(t, "POST", "/api/v1/users/login", map[string]string{"identifier": "ghost", "password": "pw12345"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown identifier status = %d, want 404", rec.Code)
	}

	rec = ts.do(t, "POST", "/api/v1/users/login", map[string]string{"identifier": "maria", "password": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", rec.Code)
	}

	rec = ts.do(t, "POST", "/api/v1/users/login", map[string]string{"identifier": "maria", "password": "pw12345"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d (%s)", rec.Code, rec.Body.String())
	}
	access := cookieByName(rec, security.AccessTokenCookie)
	if access == nil || cookieByName(rec, security.RefreshTokenCookie) == nil {
		t.Fatal("login did not set the token cookies")
	}
	if !access.HttpOnly {
		t.Error("access cookie is not HttpOnly")
	}
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, "POST", "/api/v1/users/register", registerBody("maria"))

	login := ts.do(t, "POST", "/api/v1/users/login", map[string]string{"identifier": "maria", "password": "pw12345"})
	access := cookieByName(login, security.AccessTokenCookie)
	refresh := cookieByName(login, security.RefreshTokenCookie)
	if access == nil || refresh == nil {
		t.Fatalf("login did not set cookies (%d: %s)", login.Code, login.Body.String())
	}

	// Access token opens protected routes
	me := ts.do(t, "GET", "/api/v1/users/me", nil, access)
	if me.Code != http.StatusOK {
		t.Fatalf("me status = %d", me.Code)
	}
	_, data, _ := decodeEnvelope(t, me)
	if data["username"] != "maria" {
		t.Errorf("me username = %v", data["username"])
	}

	// Refresh rotates; the old refresh token is then dead
	refreshed := ts.do(t, "POST", "/api/v1/users/refresh-token", nil, refresh)
	if refreshed.Code != http.StatusOK {
		t.Fatalf("refresh status = %d (%s)", refreshed.Code, refreshed.Body.String())
	}
	nextRefresh := cookieByName(refreshed, security.RefreshTokenCookie)
	if nextRefresh == nil || nextRefresh.Value == refresh.Value {
		t.Fatal("refresh did not rotate the cookie")
	}

	replay := ts.do(t, "POST", "/api/v1/users/refresh-token", nil, refresh)
	if replay.Code != http.StatusUnauthorized {
		t.Errorf("replayed refresh status = %d, want 401", replay.Code)
	}

	// Logout, then even the current refresh token is dead
	nextAccess := cookieByName(refreshed, security.AccessTokenCookie)
	logout := ts.do(t, "POST", "/api/v1/users/logout", nil, nextAccess)
	if logout.Code != http.StatusOK {
		t.Fatalf("logout status = %d", logout.Code)
	}
	dead := ts.do(t, "POST", "/api/v1/users/refresh-token", nil, nextRefresh)
	if dead.Code != http.StatusUnauthorized {
		t.Errorf("post-logout refresh status = %d, want 401", dead.Code)
	}
}

func TestRequireAuthRejections(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "GET", "/api/v1/users/me", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", rec.Code)
	}

	rec = ts.do(t, "GET", "/api/v1/users/me", nil, &http.Cookie{Name: security.AccessTokenCookie, Value: "garbage"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token status = %d, want 401", rec.Code)
	}
	_, _, message := decodeEnvelope(t, rec)
	if message != "Invalid access token" {
		t.Errorf("message = %q, reasons must not leak", message)
	}
}

func TestBearerHeaderAuth(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, "POST", "/api/v1/users/register", registerBody("maria"))
	login := ts.do(t, "POST", "/api/v1/users/login", map[string]string{"identifier": "maria", "password": "pw12345"})

	var payload struct {
		Data struct {
			AccessToken string `json:"accessToken"`
		} `json:"data"`
	}
	if err := json.Unmarshal(login.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode login body: %v", err)
	}
	if payload.Data.AccessToken == "" {
		t.Fatal("login body did not echo the access token")
	}

	req := httptest.NewRequest("GET", "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+payload.Data.AccessToken)
	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("bearer auth status = %d, want 200", rec.Code)
	}
}

func TestAssignRoleRequiresAdmin(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, "POST", "/api/v1/users/register", registerBody("maria"))
	ts.do(t, "POST", "/api/v1/users/register", registerBody("victim"))

	login := ts.do(t, "POST", "/api/v1/users/login", map[string]string{"identifier": "maria", "password": "pw12345"})
	access := cookieByName(login, security.AccessTokenCookie)

	victim, err := ts.userRepo.GetByIdentifier("victim")
	if err != nil || victim == nil {
		t.Fatalf("victim lookup failed: %v", err)
	}

	rec := ts.do(t, "POST", "/api/v1/users/assign-role/"+itoa(victim.ID),
		map[string]string{"role": "instructor"}, access)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("student assign-role status = %d, want 403", rec.Code)
	}
	unchanged, _ := ts.userRepo.GetByID(victim.ID)
	if unchanged.Role != models.RoleStudent {
		t.Error("denied assign-role mutated the account")
	}

	// Promote the caller to admin and retry with a fresh token
	caller, err := ts.userRepo.GetByIdentifier("maria")
	if err != nil || caller == nil {
		t.Fatalf("caller lookup failed: %v", err)
	}
	if err := ts.userRepo.UpdateRole(caller.ID, models.RoleAdmin); err != nil {
		t.Fatalf("UpdateRole() error = %v", err)
	}
	login = ts.do(t, "POST", "/api/v1/users/login", map[string]string{"identifier": "maria", "password": "pw12345"})
	access = cookieByName(login, security.AccessTokenCookie)

	rec = ts.do(t, "POST", "/api/v1/users/assign-role/"+itoa(victim.ID),
		map[string]string{"role": "instructor"}, access)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin assign-role status = %d (%s)", rec.Code, rec.Body.String())
	}
	changed, _ := ts.userRepo.GetByID(victim.ID)
	if changed.Role != models.RoleInstructor {
		t.Errorf("role = %q, want instructor", changed.Role)
	}
}

func TestCourseOwnershipOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	owner := registerBody("alice")
	owner["role"] = "instructor"
	ts.do(t, "POST", "/api/v1/users/register", owner)
	rival := registerBody("carol")
	rival["role"] = "instructor"
	ts.do(t, "POST", "/api/v1/users/register", rival)

	ownerLogin := ts.do(t, "POST", "/api/v1/users/login", map[string]string{"identifier": "alice", "password": "pw12345"})
	ownerAccess := cookieByName(ownerLogin, security.AccessTokenCookie)

	created := ts.do(t, "POST", "/api/v1/courses", map[string]interface{}{"title": "Go Basics", "price": 10}, ownerAccess)
	if created.Code != http.StatusCreated {
		t.Fatalf("create status = %d (%s)", created.Code, created.Body.String())
	}
	_, data, _ := decodeEnvelope(t, created)
	courseID := itoa(int64(data["id"].(float64)))

	rivalLogin := ts.do(t, "POST", "/api/v1/users/login", map[string]string{"identifier": "carol", "password": "pw12345"})
	rivalAccess := cookieByName(rivalLogin, security.AccessTokenCookie)

	rec := ts.do(t, "PATCH", "/api/v1/courses/"+courseID, map[string]string{"title": "Hijacked"}, rivalAccess)
	if rec.Code != http.StatusForbidden {
		t.Errorf("rival update status = %d, want 403", rec.Code)
	}
	rec = ts.do(t, "POST", "/api/v1/courses/"+courseID+"/modules", map[string]string{"title": "Sneaky"}, rivalAccess)
	if rec.Code != http.StatusForbidden {
		t.Errorf("rival module add status = %d, want 403", rec.Code)
	}

	rec = ts.do(t, "PATCH", "/api/v1/courses/"+courseID, map[string]string{"title": "Go Fundamentals"}, ownerAccess)
	if rec.Code != http.StatusOK {
		t.Errorf("owner update status = %d (%s)", rec.Code, rec.Body.String())
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
