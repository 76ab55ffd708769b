package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/playperu/fieldgame/internal/handler/health"
)

type mockChecker struct{ err error }

func (m mockChecker) Check(_ context.Context) error { return m.err }

func TestHandler(t *testing.T) {
	tests := []struct {
		name       string
		required   map[string]health.Checker
		optional   map[string]health.Checker
		wantStatus int
		wantOver   string
		wantChecks map[string]string
	}{
		{
			name:       "all healthy",
			required:   map[string]health.Checker{"sqlite": mockChecker{}},
			optional:   map[string]health.Checker{"redis": mockChecker{}},
			wantStatus: http.StatusOK,
			wantOver:   "ok",
			wantChecks: map[string]string{"sqlite": "ok", "redis": "ok"},
		},
		{
			name:       "sqlite down",
			required:   map[string]health.Checker{"sqlite": mockChecker{err: errors.New("locked")}},
			optional:   map[string]health.Checker{"redis": mockChecker{}},
			wantStatus: http.StatusServiceUnavailable,
			wantOver:   "error",
			wantChecks: map[string]string{"sqlite": "error", "redis": "ok"},
		},
		{
			name:       "redis down",
			required:   map[string]health.Checker{"sqlite": mockChecker{}},
			optional:   map[string]health.Checker{"redis": mockChecker{err: errors.New("refused")}},
			wantStatus: http.StatusOK,
			wantOver:   "degraded",
			wantChecks: map[string]string{"sqlite": "ok", "redis": "error"},
		},
		{
			name:       "both down",
			required:   map[string]health.Checker{"sqlite": mockChecker{err: errors.New("db")}},
			optional:   map[string]health.Checker{"redis": mockChecker{err: errors.New("cache")}},
			wantStatus: http.StatusServiceUnavailable,
			wantOver:   "error",
			wantChecks: map[string]string{"sqlite": "error", "redis": "error"},
		},
		{
			name: "checker func",
			required: map[string]health.Checker{
				"sqlite": health.CheckerFunc(func(context.Context) error { return nil }),
			},
			wantStatus: http.StatusOK,
			wantOver:   "ok",
			wantChecks: map[string]string{"sqlite": "ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			h := health.NewHandler(logger, tt.required, tt.optional)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			h.Routes().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body health.Response
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if body.Status != tt.wantOver {
				t.Errorf("overall status = %q, want %q", body.Status, tt.wantOver)
			}
			if len(body.Checks) != len(tt.wantChecks) {
				t.Errorf("got %d checks, want %d", len(body.Checks), len(tt.wantChecks))
			}
			for name, want := range tt.wantChecks {
				if got := body.Checks[name].Status; got != want {
					t.Errorf("%s status = %q, want %q", name, got, want)
				}
			}
		})
	}
}
