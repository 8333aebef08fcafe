package httpapi

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/goblog/internal/server/auth"
	"github.com/dmitrijs2005/goblog/internal/server/cache"
	"github.com/dmitrijs2005/goblog/internal/server/config"
	"github.com/dmitrijs2005/goblog/internal/server/models"
	"github.com/dmitrijs2005/goblog/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/goblog/internal/server/revocation"
	"github.com/dmitrijs2005/goblog/internal/server/services"
)

func newTestServer(t *testing.T) (*Server, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}

	cfg := &config.Config{
		SecretKey:                   string(testSecret),
		TokenValidityDuration:       time.Hour,
		RevocationRetentionDuration: time.Hour,
		PostCacheTTL:                time.Hour,
	}

	rev, err := revocation.NewStore(cache.NewMemory(), time.Hour, time.Hour)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}

	logger := testLogger()
	rm := repomanager.NewPostgresRepositoryManager()

	srv := NewServer(":0", logger, testSecret, rev,
		services.NewUserService(db, rm, rev, cfg),
		services.NewPostService(db, rm, cache.NewMemory(), cfg.PostCacheTTL, logger),
		services.NewFavoriteService(db, rm, logger),
		services.NewCategoryService(db, rm),
		services.NewPictureService(cfg))

	return srv, mock, db
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("encode error: %v", err)
	}
	return buf
}

func TestPing_EchoesSubject(t *testing.T) {
	srv, _, db := newTestServer(t)
	defer db.Close()

	token, err := auth.GenerateToken("u-1", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.AddCookie(&http.Cookie{Name: authCookieName, Value: token})
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body["user_id"] != "u-1" {
		t.Fatalf("want user_id u-1, got %+v", body)
	}
}

func userRow(t *testing.T, id, username, password string) *sqlmock.Rows {
	t.Helper()
	hashed, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	return sqlmock.NewRows([]string{"id", "username", "fullname", "salt", "password_hash", "favorites", "created_at"}).
		AddRow(id, username, "Full Name", hashed.Salt, hashed.Hash, []byte("[]"), time.Now())
}

func TestRegister_CreatedAndConflict(t *testing.T) {
	srv, mock, db := newTestServer(t)
	defer db.Close()

	mock.ExpectQuery("SELECT count").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery("INSERT INTO users").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	body := jsonBody(t, map[string]string{"username": "alice", "fullname": "Alice A.", "password": "secret-pass-1"})
	req := httptest.NewRequest(http.MethodPost, "/api/register", body)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("want 201, got %d: %s", rec.Code, rec.Body.String())
	}

	mock.ExpectQuery("SELECT count").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))

	body = jsonBody(t, map[string]string{"username": "alice", "password": "other-pass-1"})
	req = httptest.NewRequest(http.MethodPost, "/api/register", body)
	rec = httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("want 409, got %d", rec.Code)
	}
}

func TestRegister_MissingFields(t *testing.T) {
	srv, _, db := newTestServer(t)
	defer db.Close()

	body := jsonBody(t, map[string]string{"username": "alice"})
	req := httptest.NewRequest(http.MethodPost, "/api/register", body)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rec.Code)
	}
}

func TestLogin_SetsCookie(t *testing.T) {
	srv, mock, db := newTestServer(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, username").
		WithArgs("alice").
		WillReturnRows(userRow(t, "u-1", "alice", "secret"))

	body := jsonBody(t, map[string]string{"username": "alice", "password": "secret"})
	req := httptest.NewRequest(http.MethodPost, "/api/login", body)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == authCookieName {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatalf("expected an %s cookie", authCookieName)
	}

	subject, _, err := auth.ParseToken(cookie.Value, testSecret)
	if err != nil || subject != "u-1" {
		t.Fatalf("cookie token invalid: subject=%q err=%v", subject, err)
	}
}

func TestLogin_BadCredentialsCollapse(t *testing.T) {
	srv, mock, db := newTestServer(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, username").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	body := jsonBody(t, map[string]string{"username": "ghost", "password": "x"})
	req := httptest.NewRequest(http.MethodPost, "/api/login", body)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	unknownBody := rec.Body.String()
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown user: want 400, got %d", rec.Code)
	}

	mock.ExpectQuery("SELECT id, username").
		WithArgs("alice").
		WillReturnRows(userRow(t, "u-1", "alice", "secret"))

	body = jsonBody(t, map[string]string{"username": "alice", "password": "wrong"})
	req = httptest.NewRequest(http.MethodPost, "/api/login", body)
	rec = httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("wrong password: want 400, got %d", rec.Code)
	}
	if rec.Body.String() != unknownBody {
		t.Fatalf("credential failures should be identical: %q vs %q", rec.Body.String(), unknownBody)
	}
}

func TestLogout_RevokesSession(t *testing.T) {
	srv, mock, db := newTestServer(t)
	defer db.Close()

	token, err := auth.GenerateToken("u-1", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	cookie := &http.Cookie{Name: authCookieName, Value: token}

	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("logout: want 200, got %d", rec.Code)
	}

	// the token itself is still inside its ttl; only the revocation record
	// keeps it out now
	mock.ExpectQuery("SELECT").WillReturnError(sql.ErrNoRows)

	req = httptest.NewRequest(http.MethodGet, "/api/my-posts", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("after logout: want 401, got %d", rec.Code)
	}
}

func postRow(id, title string, views int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "title", "description", "picture", "content",
		"created_by_id", "created_by_fullname", "category_id", "category_name",
		"likes", "views", "created_at", "updated_at"}).
		AddRow(id, title, "", "", "body", "u-1", "Alice A.", nil, nil, int64(0), views, now, now)
}

func TestGetPost_IncrementsViews(t *testing.T) {
	srv, mock, db := newTestServer(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, title").
		WithArgs("p-1").
		WillReturnRows(postRow("p-1", "First", 41))
	mock.ExpectExec("UPDATE posts SET views").
		WithArgs("p-1", int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodGet, "/api/posts/p-1", nil)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got models.Post
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if got.Views != 42 {
		t.Fatalf("response views: want 42, got %d", got.Views)
	}

	srv.posts.Wait()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("view count not persisted: %v", err)
	}
}

func TestGetPost_NotFound(t *testing.T) {
	srv, mock, db := newTestServer(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, title").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	req := httptest.NewRequest(http.MethodGet, "/api/posts/ghost", nil)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	srv, _, db := newTestServer(t)
	defer db.Close()

	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/ping"},
		{http.MethodPost, "/api/logout"},
		{http.MethodPost, "/api/posts"},
		{http.MethodGet, "/api/my-posts"},
		{http.MethodGet, "/api/favorites"},
		{http.MethodPost, "/api/favorites"},
		{http.MethodDelete, "/api/favorites/p-1"},
		{http.MethodGet, "/api/uploads"},
	} {
		req := httptest.NewRequest(route.method, route.path, nil)
		rec := httptest.NewRecorder()
		srv.routes().ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: want 401, got %d", route.method, route.path, rec.Code)
		}
	}
}

func TestListCategories(t *testing.T) {
	srv, mock, db := newTestServer(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, name FROM categories").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow("c-1", "Life").AddRow("c-2", "Tech"))

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	var got []*models.Category
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Life" {
		t.Fatalf("unexpected categories: %+v", got)
	}
}
