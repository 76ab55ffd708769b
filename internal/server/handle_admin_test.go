package server

import (
	"net/http"
	"strings"
	"testing"

	"github.com/playperu/fieldgame/internal/fieldgame"
	"github.com/playperu/fieldgame/internal/store"
)

func TestAdminLogin(t *testing.T) {
	tests := []struct {
		name       string
		req        AdminLoginRequest
		wantStatus int
	}{
		{"good credentials", AdminLoginRequest{Email: testAdminEmail, Password: testAdminPassword}, http.StatusOK},
		{"email is case insensitive", AdminLoginRequest{Email: " Admin@PlayPeru.com ", Password: testAdminPassword}, http.StatusOK},
		{"wrong password", AdminLoginRequest{Email: testAdminEmail, Password: "wrong"}, http.StatusUnauthorized},
		{"unknown email", AdminLoginRequest{Email: "nobody@example.com", Password: testAdminPassword}, http.StatusUnauthorized},
		{"missing password", AdminLoginRequest{Email: testAdminEmail}, http.StatusBadRequest},
	}

	app := newTestApp(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(request{method: http.MethodPost, path: "/api/admin/login", body: tt.req})
			expectStatus(t, w, tt.wantStatus)
			if tt.wantStatus != http.StatusOK {
				return
			}
			found := false
			for _, c := range w.Result().Cookies() {
				if c.Name == adminCookieName && c.Value != "" && c.HttpOnly {
					found = true
				}
			}
			if !found {
				t.Error("expected admin_session cookie to be set")
			}
		})
	}
}

func TestAdminSessionLifecycle(t *testing.T) {
	app := newTestApp(t)

	expectStatus(t, app.do(request{method: http.MethodGet, path: "/api/admin/me"}), http.StatusUnauthorized)
	expectStatus(t, app.do(request{method: http.MethodGet, path: "/api/admin/me",
		cookies: []*http.Cookie{{Name: adminCookieName, Value: "forged"}}}), http.StatusUnauthorized)

	cookies := app.login()
	w := app.admin(cookies, http.MethodGet, "/api/admin/me", nil)
	expectStatus(t, w, http.StatusOK)
	var me AdminMeResponse
	decode(t, w, &me)
	if me.Email != testAdminEmail {
		t.Errorf("email = %q, want %q", me.Email, testAdminEmail)
	}

	expectStatus(t, app.admin(cookies, http.MethodPost, "/api/admin/logout", nil), http.StatusOK)
	expectStatus(t, app.admin(cookies, http.MethodGet, "/api/admin/me", nil), http.StatusUnauthorized)
}

func TestAdminRoutesRequireSession(t *testing.T) {
	app := newTestApp(t)
	paths := []string{
		"/api/admin/submissions",
		"/api/admin/control-room",
		"/api/admin/teams",
		"/api/admin/checkpoints",
		"/api/admin/options",
		"/api/admin/game",
		"/api/admin/resets",
		"/api/admin/sessions",
	}
	for _, p := range paths {
		t.Run(p, func(t *testing.T) {
			expectStatus(t, app.do(request{method: http.MethodGet, path: p}), http.StatusUnauthorized)
		})
	}
}

func TestAdminTeamsCRUD(t *testing.T) {
	app := newTestApp(t)
	cookies := app.login()

	w := app.admin(cookies, http.MethodPost, "/api/admin/teams", store.TeamInput{Name: "  "})
	expectStatus(t, w, http.StatusUnprocessableEntity)
	var invalid ValidationErrorResponse
	decode(t, w, &invalid)
	if len(invalid.Fields["name"]) == 0 {
		t.Errorf("fields = %v, want name", invalid.Fields)
	}

	w = app.admin(cookies, http.MethodPost, "/api/admin/teams", store.TeamInput{Name: "Condors", SortOrder: 2})
	expectStatus(t, w, http.StatusCreated)
	var team fieldgame.Team
	decode(t, w, &team)
	if team.JoinToken == "" {
		t.Fatal("created team has no join token")
	}

	expectStatus(t, app.admin(cookies, http.MethodPost, "/api/admin/teams", store.TeamInput{Name: "Condors"}),
		http.StatusUnprocessableEntity)

	w = app.admin(cookies, http.MethodPut, "/api/admin/teams/"+team.ID, store.TeamInput{Name: "Pumas", NameEditable: true})
	expectStatus(t, w, http.StatusOK)
	var updated fieldgame.Team
	decode(t, w, &updated)
	if updated.Name != "Pumas" || !updated.NameEditable {
		t.Errorf("updated team = %+v", updated)
	}

	w = app.admin(cookies, http.MethodPost, "/api/admin/teams/"+team.ID+"/regenerate-token", nil)
	expectStatus(t, w, http.StatusOK)
	var regenerated fieldgame.Team
	decode(t, w, &regenerated)
	if regenerated.JoinToken == team.JoinToken {
		t.Error("join token was not regenerated")
	}

	expectStatus(t, app.admin(cookies, http.MethodDelete, "/api/admin/teams/"+team.ID, nil), http.StatusNoContent)
	expectStatus(t, app.admin(cookies, http.MethodGet, "/api/admin/teams/"+team.ID, nil), http.StatusNotFound)
	expectStatus(t, app.admin(cookies, http.MethodDelete, "/api/admin/teams/"+team.ID, nil), http.StatusNotFound)
}

func TestAdminCheckpointsCRUD(t *testing.T) {
	app := newTestApp(t)
	cookies := app.login()

	w := app.admin(cookies, http.MethodPost, "/api/admin/checkpoints", map[string]any{"name": "Plaza"})
	expectStatus(t, w, http.StatusCreated)
	var cp fieldgame.Checkpoint
	decode(t, w, &cp)
	if cp.Points != 100 {
		t.Errorf("default points = %d, want 100", cp.Points)
	}

	expectStatus(t, app.admin(cookies, http.MethodPost, "/api/admin/checkpoints",
		store.CheckpointInput{Name: "Bridge", Points: -5}), http.StatusUnprocessableEntity)

	w = app.admin(cookies, http.MethodPut, "/api/admin/checkpoints/"+cp.ID,
		store.CheckpointInput{Name: "Plaza de Armas", Village: "Cusco", Points: 150})
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &cp)
	if cp.Name != "Plaza de Armas" || cp.Points != 150 {
		t.Errorf("updated checkpoint = %+v", cp)
	}

	expectStatus(t, app.admin(cookies, http.MethodDelete, "/api/admin/checkpoints/"+cp.ID, nil), http.StatusNoContent)
	expectStatus(t, app.admin(cookies, http.MethodGet, "/api/admin/checkpoints/"+cp.ID, nil), http.StatusNotFound)
}

func TestAdminOptions(t *testing.T) {
	app := newTestApp(t)
	cookies := app.login()

	w := app.admin(cookies, http.MethodGet, "/api/admin/options", nil)
	expectStatus(t, w, http.StatusOK)
	var settings []fieldgame.OptionSetting
	decode(t, w, &settings)
	if len(settings) != len(fieldgame.Kinds()) {
		t.Fatalf("got %d settings, want %d", len(settings), len(fieldgame.Kinds()))
	}

	expectStatus(t, app.admin(cookies, http.MethodPut, "/api/admin/options/fly", AdminOptionRequest{Name: "x"}), http.StatusNotFound)
	expectStatus(t, app.admin(cookies, http.MethodPut, "/api/admin/options/spy_team",
		AdminOptionRequest{Name: "spy", Cost: -1}), http.StatusUnprocessableEntity)

	w = app.admin(cookies, http.MethodPut, "/api/admin/options/spy_team", AdminOptionRequest{
		Name: "spy", AutoVerify: true, Cost: 75, CooldownSeconds: 1800, RuleText: "Costs 75.", AvailableToPlayers: true,
	})
	expectStatus(t, w, http.StatusOK)
	var spy fieldgame.OptionSetting
	decode(t, w, &spy)
	if spy.Cost != 75 || spy.CooldownSeconds != 1800 || spy.RuleTextDefault == "Costs 75." {
		t.Errorf("spy setting = %+v", spy)
	}

	expectStatus(t, app.admin(cookies, http.MethodPost, "/api/admin/options/rules/reset", nil), http.StatusOK)
	got, err := app.store.OptionSettings(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if got[fieldgame.KindSpy].RuleText == "Costs 75." {
		t.Error("rule text was not reset to its default")
	}
	if got[fieldgame.KindSpy].Cost != 75 {
		t.Errorf("rule reset changed the cost to %d", got[fieldgame.KindSpy].Cost)
	}
}

func TestAdminGameClock(t *testing.T) {
	app := newTestApp(t)
	cookies := app.login()

	w := app.admin(cookies, http.MethodPost, "/api/admin/game/start", nil)
	expectStatus(t, w, http.StatusOK)
	var game GameResponse
	decode(t, w, &game)
	if !game.Active || !game.Running || game.Start == nil {
		t.Fatalf("started game = %+v", game)
	}

	expectStatus(t, app.admin(cookies, http.MethodPut, "/api/admin/game",
		GameUpdateRequest{Active: true, Multiplier: "0"}), http.StatusUnprocessableEntity)

	w = app.admin(cookies, http.MethodPut, "/api/admin/game", GameUpdateRequest{Active: true, Multiplier: "1.5"})
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &game)
	if game.Multiplier != "1.5" {
		t.Errorf("multiplier = %q, want 1.5", game.Multiplier)
	}

	expectStatus(t, app.admin(cookies, http.MethodPost, "/api/admin/game/save-defaults", nil), http.StatusOK)
	w = app.admin(cookies, http.MethodPut, "/api/admin/game", GameUpdateRequest{Active: true, Multiplier: "3"})
	expectStatus(t, w, http.StatusOK)

	w = app.admin(cookies, http.MethodPost, "/api/admin/game/reset", nil)
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &game)
	if game.Multiplier != "1.5" {
		t.Errorf("multiplier after reset = %q, want saved default 1.5", game.Multiplier)
	}

	w = app.admin(cookies, http.MethodPost, "/api/admin/game/stop", nil)
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &game)
	if game.Active || game.Running {
		t.Errorf("stopped game = %+v", game)
	}
}

func TestAdminWindows(t *testing.T) {
	app := newTestApp(t)
	cookies := app.login()

	expectStatus(t, app.admin(cookies, http.MethodPost, "/api/admin/game/windows", map[string]any{
		"name": "Morning", "start": "2026-06-13T12:00:00Z", "end": "2026-06-13T10:00:00Z",
	}), http.StatusUnprocessableEntity)

	w := app.admin(cookies, http.MethodPost, "/api/admin/game/windows", map[string]any{
		"name": "Morning", "start": "2026-06-13T08:00:00Z", "end": "2026-06-13T12:00:00Z",
	})
	expectStatus(t, w, http.StatusCreated)
	var win fieldgame.TimeWindow
	decode(t, w, &win)

	w = app.admin(cookies, http.MethodGet, "/api/admin/game", nil)
	expectStatus(t, w, http.StatusOK)
	var game GameResponse
	decode(t, w, &game)
	if len(game.Windows) != 1 || game.Windows[0].Name != "Morning" {
		t.Errorf("windows = %+v", game.Windows)
	}

	expectStatus(t, app.admin(cookies, http.MethodDelete, "/api/admin/game/windows/"+win.ID, nil), http.StatusNoContent)
	expectStatus(t, app.admin(cookies, http.MethodDelete, "/api/admin/game/windows/"+win.ID, nil), http.StatusNotFound)
}

func TestAdminResets(t *testing.T) {
	app := newTestApp(t)
	cookies := app.login()
	ctx := t.Context()

	team, err := app.store.CreateTeam(ctx, store.TeamInput{Name: "Alpha"}, fixedNow)
	if err != nil {
		t.Fatal(err)
	}
	team.Points = 500
	team.Bounty = 40
	if err := app.store.SaveTeamState(ctx, team); err != nil {
		t.Fatal(err)
	}

	w := app.admin(cookies, http.MethodGet, "/api/admin/resets", nil)
	expectStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), `"capture-counts"`) {
		t.Errorf("resets = %s", w.Body.String())
	}

	expectStatus(t, app.admin(cookies, http.MethodPost, "/api/admin/resets/everything", nil), http.StatusNotFound)

	w = app.admin(cookies, http.MethodPost, "/api/admin/resets/points", nil)
	expectStatus(t, w, http.StatusOK)
	var res ResetResponse
	decode(t, w, &res)
	if res.RowsAffected != 1 {
		t.Errorf("rows = %d, want 1", res.RowsAffected)
	}

	got, _ := app.store.GetTeam(ctx, team.ID)
	if got.Points != 0 || got.Bounty != 40 {
		t.Errorf("team after points reset = %+v", got)
	}
}
