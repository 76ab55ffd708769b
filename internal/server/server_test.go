package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/playperu/fieldgame/internal/database"
	"github.com/playperu/fieldgame/internal/migrations"
	"github.com/playperu/fieldgame/internal/notify"
	"github.com/playperu/fieldgame/internal/photos"
	"github.com/playperu/fieldgame/internal/store"
	"github.com/playperu/fieldgame/internal/submission"
)

const (
	testAdminEmail    = "admin@playperu.com"
	testAdminPassword = "changeme"
)

var fixedNow = time.Date(2026, 6, 13, 14, 0, 0, 0, time.UTC)

type testApp struct {
	t       *testing.T
	handler http.Handler
	store   *store.Store
	broker  *notify.Broker
	tokens  *Tokens
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	db, err := database.Open(ctx, database.DriverSQLite, filepath.Join(dir, "game.db"))
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	st := store.New(db)
	if err := st.EnsureOptionSettings(ctx); err != nil {
		t.Fatalf("seeding options: %v", err)
	}
	if err := st.EnsureAdmin(ctx, testAdminEmail, testAdminPassword); err != nil {
		t.Fatalf("seeding admin: %v", err)
	}

	ph, err := photos.New(filepath.Join(dir, "photos"))
	if err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	broker := notify.NewBroker()
	tokens := NewTokens("test-secret", time.Hour)
	deps := Deps{
		Store:          st,
		Service:        submission.NewService(st, ph, broker, logger, submission.Options{}),
		Photos:         ph,
		Broker:         broker,
		Tokens:         tokens,
		Notifier:       broker,
		MaxUploadBytes: 1 << 20,
	}

	return &testApp{
		t:       t,
		handler: New(":0", logger, deps, nil).Handler(),
		store:   st,
		broker:  broker,
		tokens:  tokens,
	}
}

type request struct {
	method  string
	path    string
	body    any
	token   string
	cookies []*http.Cookie
	header  map[string]string
}

func (a *testApp) do(req request) *httptest.ResponseRecorder {
	a.t.Helper()
	var body io.Reader
	switch b := req.body.(type) {
	case nil:
	case io.Reader:
		body = b
	default:
		data, err := json.Marshal(b)
		if err != nil {
			a.t.Fatal(err)
		}
		body = bytes.NewReader(data)
	}

	r := httptest.NewRequest(req.method, req.path, body)
	if req.body != nil && r.Header.Get("Content-Type") == "" {
		r.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.header {
		r.Header.Set(k, v)
	}
	if req.token != "" {
		r.Header.Set("Authorization", "Bearer "+req.token)
	}
	for _, c := range req.cookies {
		r.AddCookie(c)
	}

	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, r)
	return w
}

// login returns the admin session cookies.
func (a *testApp) login() []*http.Cookie {
	a.t.Helper()
	w := a.do(request{method: http.MethodPost, path: "/api/admin/login",
		body: AdminLoginRequest{Email: testAdminEmail, Password: testAdminPassword}})
	if w.Code != http.StatusOK {
		a.t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	return w.Result().Cookies()
}

func (a *testApp) admin(cookies []*http.Cookie, method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	return a.do(request{method: method, path: path, body: body, cookies: cookies})
}

// join joins the team from the device and returns the bearer token.
func (a *testApp) join(joinToken, device, name string) string {
	a.t.Helper()
	w := a.do(request{method: http.MethodPost, path: "/api/join",
		body:   JoinRequest{JoinToken: joinToken, PlayerName: name},
		header: map[string]string{deviceHeader: device}})
	if w.Code != http.StatusOK {
		a.t.Fatalf("join: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp JoinResponse
	decode(a.t, w, &resp)
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decoding %q: %v", w.Body.String(), err)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, w.Code, w.Body.String())
	}
}
