package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/fieldgame/internal/fieldgame"
	"github.com/playperu/fieldgame/internal/handler/health"
	"github.com/playperu/fieldgame/internal/store"
)

type operation struct {
	method, path string
	summary      string
	description  string
	request      any
	responses    map[int]any
	contentType  string
}

// Path parameter carriers. Operations with a body embed the body struct.
type (
	idPath struct {
		ID string `path:"id"`
	}
	namePath struct {
		Name string `path:"name"`
	}
	kindPath struct {
		Kind fieldgame.Kind `path:"kind"`
	}

	resolveOp struct {
		ID string `path:"id"`
		ResolveRequest
	}
	updateTeamOp struct {
		ID string `path:"id"`
		store.TeamInput
	}
	updateCheckpointOp struct {
		ID string `path:"id"`
		store.CheckpointInput
	}
	updateOptionOp struct {
		Kind fieldgame.Kind `path:"kind"`
		AdminOptionRequest
	}
)

const (
	playerAuth = " Requires Bearer token."
	adminAuth  = " Requires admin_session cookie."
)

func apiOperations() []operation {
	unauthorized := ErrorResponse{}
	invalid := ValidationErrorResponse{}

	return []operation{
		{method: http.MethodGet, path: "/healthz", summary: "Health check",
			description: "Returns the health status of backend dependencies.",
			responses:   map[int]any{http.StatusOK: health.Response{}, http.StatusServiceUnavailable: health.Response{}}},

		// Player.
		{method: http.MethodPost, path: "/api/join", summary: "Join a team",
			description: "Binds the device in the X-Device-Fingerprint header to the team behind the join token and returns a bearer token. The first join locks the device; three attempts to switch teams block it for an hour.",
			request:     JoinRequest{},
			responses: map[int]any{http.StatusOK: JoinResponse{}, http.StatusBadRequest: ErrorResponse{},
				http.StatusForbidden: ErrorResponse{}, http.StatusNotFound: ErrorResponse{}, http.StatusTooManyRequests: ErrorResponse{}}},
		{method: http.MethodGet, path: "/api/session", summary: "Current session",
			description: "Returns the player, the team with its visible points and the game state." + playerAuth,
			responses:   map[int]any{http.StatusOK: SessionResponse{}, http.StatusUnauthorized: unauthorized}},
		{method: http.MethodPut, path: "/api/team/name", summary: "Rename team",
			description: "Renames the player's team when its name is editable." + playerAuth,
			request:     RenameTeamRequest{},
			responses:   map[int]any{http.StatusOK: PlayerTeam{}, http.StatusUnprocessableEntity: invalid, http.StatusUnauthorized: unauthorized}},
		{method: http.MethodGet, path: "/api/options", summary: "List actions",
			description: "Returns the action kinds available to players with their rules." + playerAuth,
			responses:   map[int]any{http.StatusOK: []PlayerOption{}, http.StatusUnauthorized: unauthorized}},
		{method: http.MethodGet, path: "/api/targets", summary: "List rival teams",
			description: "Returns the teams an action can target." + playerAuth,
			responses:   map[int]any{http.StatusOK: []TargetTeam{}, http.StatusUnauthorized: unauthorized}},
		{method: http.MethodGet, path: "/api/checkpoints", summary: "List checkpoints",
			description: "Returns the checkpoints without their mine charge." + playerAuth,
			responses:   map[int]any{http.StatusOK: []PlayerCheckpoint{}, http.StatusUnauthorized: unauthorized}},
		{method: http.MethodGet, path: "/api/submissions", summary: "List own submissions",
			description: "Returns the team's latest submissions." + playerAuth,
			responses:   map[int]any{http.StatusOK: []fieldgame.Submission{}, http.StatusUnauthorized: unauthorized}},
		{method: http.MethodPost, path: "/api/submissions", summary: "Submit a claim",
			description: "Creates a pending submission. Send multipart/form-data with a \"photo\" file for kinds that require evidence. Auto-verified kinds return their outcome right away." + playerAuth,
			request:     CreateSubmissionRequest{},
			responses: map[int]any{http.StatusCreated: CreateSubmissionResponse{}, http.StatusUnprocessableEntity: invalid,
				http.StatusRequestEntityTooLarge: ErrorResponse{}, http.StatusUnauthorized: unauthorized}},
		{method: http.MethodGet, path: "/api/submissions/{id}", summary: "Get own submission",
			description: "Returns one of the team's submissions." + playerAuth,
			request:     idPath{},
			responses:   map[int]any{http.StatusOK: fieldgame.Submission{}, http.StatusNotFound: ErrorResponse{}, http.StatusUnauthorized: unauthorized}},
		{method: http.MethodGet, path: "/api/events", summary: "SSE event stream",
			description: "Server-Sent Events for the team and the device. EventSource clients pass the token as query parameter.",
			contentType: "text/event-stream",
			responses:   map[int]any{http.StatusOK: nil}},

		// Admin.
		{method: http.MethodPost, path: "/api/admin/login", summary: "Admin login",
			description: "Authenticate with email and password. Sets admin_session cookie.",
			request:     AdminLoginRequest{},
			responses:   map[int]any{http.StatusOK: AdminMeResponse{}, http.StatusUnauthorized: unauthorized}},
		{method: http.MethodPost, path: "/api/admin/logout", summary: "Admin logout",
			description: "Clears admin session and cookie.",
			responses:   map[int]any{http.StatusOK: nil}},
		{method: http.MethodGet, path: "/api/admin/me", summary: "Current admin",
			description: "Returns the currently authenticated admin." + adminAuth,
			responses:   map[int]any{http.StatusOK: AdminMeResponse{}, http.StatusUnauthorized: unauthorized}},
		{method: http.MethodGet, path: "/api/admin/control-room", summary: "Control room",
			description: "Next pending submission, counts, ranking, recent events and next end time." + adminAuth,
			responses:   map[int]any{http.StatusOK: store.ControlRoom{}, http.StatusUnauthorized: unauthorized}},
		{method: http.MethodGet, path: "/api/admin/live", summary: "Live admin feed",
			description: "Upgrades to a WebSocket that streams admin notifications." + adminAuth,
			contentType: "text/plain",
			responses:   map[int]any{http.StatusSwitchingProtocols: nil}},

		{method: http.MethodGet, path: "/api/admin/submissions", summary: "List submissions",
			description: "Filter with status, team, kind and limit query parameters. Pending submissions come oldest first." + adminAuth,
			responses:   map[int]any{http.StatusOK: []fieldgame.Submission{}, http.StatusUnauthorized: unauthorized}},
		{method: http.MethodGet, path: "/api/admin/submissions/{id}", summary: "Get submission",
			description: "Returns a submission." + adminAuth,
			request:     idPath{},
			responses:   map[int]any{http.StatusOK: fieldgame.Submission{}, http.StatusNotFound: ErrorResponse{}}},
		{method: http.MethodPost, path: "/api/admin/submissions/{id}/verify", summary: "Verify submission",
			description: "Scores the submission, writes its event and releases submissions queued behind it, atomically." + adminAuth,
			request:     resolveOp{},
			responses: map[int]any{http.StatusOK: VerifyResponse{}, http.StatusConflict: ErrorResponse{},
				http.StatusNotFound: ErrorResponse{}, http.StatusInternalServerError: ErrorResponse{}}},
		{method: http.MethodPost, path: "/api/admin/submissions/{id}/deny", summary: "Deny submission",
			description: "Denies the submission and releases submissions queued behind it." + adminAuth,
			request:     resolveOp{},
			responses:   map[int]any{http.StatusOK: fieldgame.Submission{}, http.StatusConflict: ErrorResponse{}, http.StatusNotFound: ErrorResponse{}}},
		{method: http.MethodGet, path: "/api/admin/submissions/{id}/queue", summary: "Queue status",
			description: "Reports whether the submission waits for another one." + adminAuth,
			request:     idPath{},
			responses:   map[int]any{http.StatusOK: fieldgame.QueueStatus{}, http.StatusNotFound: ErrorResponse{}}},

		{method: http.MethodGet, path: "/api/admin/teams", summary: "List teams", description: adminAuth[1:],
			responses: map[int]any{http.StatusOK: []fieldgame.Team{}}},
		{method: http.MethodPost, path: "/api/admin/teams", summary: "Create team",
			description: "Creates a team with a generated join token." + adminAuth,
			request:     store.TeamInput{},
			responses:   map[int]any{http.StatusCreated: fieldgame.Team{}, http.StatusUnprocessableEntity: invalid}},
		{method: http.MethodGet, path: "/api/admin/teams/{id}", summary: "Get team", description: adminAuth[1:],
			request:   idPath{},
			responses: map[int]any{http.StatusOK: fieldgame.Team{}, http.StatusNotFound: ErrorResponse{}}},
		{method: http.MethodPut, path: "/api/admin/teams/{id}", summary: "Update team", description: adminAuth[1:],
			request:   updateTeamOp{},
			responses: map[int]any{http.StatusOK: fieldgame.Team{}, http.StatusNotFound: ErrorResponse{}, http.StatusUnprocessableEntity: invalid}},
		{method: http.MethodDelete, path: "/api/admin/teams/{id}", summary: "Delete team",
			description: "Deletes a team with its submissions and events." + adminAuth,
			request:     idPath{},
			responses:   map[int]any{http.StatusNoContent: nil, http.StatusNotFound: ErrorResponse{}}},
		{method: http.MethodPost, path: "/api/admin/teams/{id}/regenerate-token", summary: "Regenerate join token", description: adminAuth[1:],
			request:   idPath{},
			responses: map[int]any{http.StatusOK: fieldgame.Team{}, http.StatusNotFound: ErrorResponse{}}},

		{method: http.MethodGet, path: "/api/admin/checkpoints", summary: "List checkpoints", description: adminAuth[1:],
			responses: map[int]any{http.StatusOK: []fieldgame.Checkpoint{}}},
		{method: http.MethodPost, path: "/api/admin/checkpoints", summary: "Create checkpoint", description: adminAuth[1:],
			request:   store.CheckpointInput{},
			responses: map[int]any{http.StatusCreated: fieldgame.Checkpoint{}, http.StatusUnprocessableEntity: invalid}},
		{method: http.MethodGet, path: "/api/admin/checkpoints/{id}", summary: "Get checkpoint", description: adminAuth[1:],
			request:   idPath{},
			responses: map[int]any{http.StatusOK: fieldgame.Checkpoint{}, http.StatusNotFound: ErrorResponse{}}},
		{method: http.MethodPut, path: "/api/admin/checkpoints/{id}", summary: "Update checkpoint", description: adminAuth[1:],
			request:   updateCheckpointOp{},
			responses: map[int]any{http.StatusOK: fieldgame.Checkpoint{}, http.StatusNotFound: ErrorResponse{}, http.StatusUnprocessableEntity: invalid}},
		{method: http.MethodDelete, path: "/api/admin/checkpoints/{id}", summary: "Delete checkpoint", description: adminAuth[1:],
			request:   idPath{},
			responses: map[int]any{http.StatusNoContent: nil, http.StatusNotFound: ErrorResponse{}}},

		{method: http.MethodGet, path: "/api/admin/options", summary: "List option settings", description: adminAuth[1:],
			responses: map[int]any{http.StatusOK: []fieldgame.OptionSetting{}}},
		{method: http.MethodPut, path: "/api/admin/options/{kind}", summary: "Update option setting", description: adminAuth[1:],
			request:   updateOptionOp{},
			responses: map[int]any{http.StatusOK: fieldgame.OptionSetting{}, http.StatusNotFound: ErrorResponse{}, http.StatusUnprocessableEntity: invalid}},
		{method: http.MethodPost, path: "/api/admin/options/rules/reset", summary: "Reset rule texts",
			description: "Restores every rule text to its saved default." + adminAuth,
			responses:   map[int]any{http.StatusOK: []fieldgame.OptionSetting{}}},
		{method: http.MethodPost, path: "/api/admin/options/rules/save-defaults", summary: "Save rule texts as defaults", description: adminAuth[1:],
			responses: map[int]any{http.StatusOK: []fieldgame.OptionSetting{}}},

		{method: http.MethodGet, path: "/api/admin/game", summary: "Game settings", description: adminAuth[1:],
			responses: map[int]any{http.StatusOK: GameResponse{}}},
		{method: http.MethodPut, path: "/api/admin/game", summary: "Update game settings", description: adminAuth[1:],
			request:   GameUpdateRequest{},
			responses: map[int]any{http.StatusOK: GameResponse{}, http.StatusUnprocessableEntity: invalid}},
		{method: http.MethodPost, path: "/api/admin/game/start", summary: "Start game", description: adminAuth[1:],
			responses: map[int]any{http.StatusOK: GameResponse{}}},
		{method: http.MethodPost, path: "/api/admin/game/stop", summary: "Stop game", description: adminAuth[1:],
			responses: map[int]any{http.StatusOK: GameResponse{}}},
		{method: http.MethodPost, path: "/api/admin/game/reset", summary: "Reset game settings",
			description: "Restores the saved default game settings." + adminAuth,
			responses:   map[int]any{http.StatusOK: GameResponse{}}},
		{method: http.MethodPost, path: "/api/admin/game/save-defaults", summary: "Save game defaults", description: adminAuth[1:],
			responses: map[int]any{http.StatusOK: GameResponse{}}},
		{method: http.MethodPost, path: "/api/admin/game/windows", summary: "Add time window", description: adminAuth[1:],
			request:   WindowRequest{},
			responses: map[int]any{http.StatusCreated: fieldgame.TimeWindow{}, http.StatusUnprocessableEntity: invalid}},
		{method: http.MethodDelete, path: "/api/admin/game/windows/{id}", summary: "Delete time window", description: adminAuth[1:],
			request:   idPath{},
			responses: map[int]any{http.StatusNoContent: nil, http.StatusNotFound: ErrorResponse{}}},

		{method: http.MethodGet, path: "/api/admin/resets", summary: "List resets", description: adminAuth[1:],
			responses: map[int]any{http.StatusOK: []store.Reset{}}},
		{method: http.MethodPost, path: "/api/admin/resets/{name}", summary: "Apply reset",
			description: "Runs a bulk reset such as mines, capture-counts, points, bounties or events." + adminAuth,
			request:     namePath{},
			responses:   map[int]any{http.StatusOK: ResetResponse{}, http.StatusNotFound: ErrorResponse{}}},

		{method: http.MethodGet, path: "/api/admin/photos/{id}", summary: "Download photo",
			description: "Streams the photo evidence of a submission." + adminAuth,
			contentType: "image/jpeg",
			request:     idPath{},
			responses:   map[int]any{http.StatusOK: nil, http.StatusNotFound: ErrorResponse{}}},
		{method: http.MethodDelete, path: "/api/admin/photos/{id}", summary: "Purge photo",
			description: "Deletes the photo of a resolved submission." + adminAuth,
			request:     idPath{},
			responses:   map[int]any{http.StatusNoContent: nil, http.StatusConflict: ErrorResponse{}, http.StatusNotFound: ErrorResponse{}}},
		{method: http.MethodPost, path: "/api/admin/photos/purge", summary: "Purge resolved photos",
			description: "Deletes the photos of all resolved submissions." + adminAuth,
			responses:   map[int]any{http.StatusOK: PurgeResponse{}}},

		{method: http.MethodGet, path: "/api/admin/sessions", summary: "List player sessions", description: adminAuth[1:],
			responses: map[int]any{http.StatusOK: []AdminSessionItem{}}},
		{method: http.MethodPost, path: "/api/admin/sessions/{id}/unblock", summary: "Unblock player session",
			description: "Clears failed join attempts and the block." + adminAuth,
			request:     idPath{},
			responses:   map[int]any{http.StatusOK: AdminSessionItem{}, http.StatusNotFound: ErrorResponse{}}},
	}
}

func newOpenAPISpec() (*openapi3.Spec, error) {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Field Game API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the field game: claims, verification, scoring and game administration.")

	for _, op := range apiOperations() {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", op.method, op.path, err)
		}
		oc.SetSummary(op.summary)
		oc.SetDescription(op.description)
		if op.request != nil {
			oc.AddReqStructure(op.request)
		}
		for status, body := range op.responses {
			opts := []openapi.ContentOption{openapi.WithHTTPStatus(status)}
			if body == nil && op.contentType != "" {
				opts = append(opts, openapi.WithContentType(op.contentType))
			}
			oc.AddRespStructure(body, opts...)
		}
		if err := r.AddOperation(oc); err != nil {
			return nil, fmt.Errorf("%s %s: %w", op.method, op.path, err)
		}
	}

	return r.Spec, nil
}

// handleOpenAPI panics when the document cannot be built, which only
// happens when a route is declared inconsistently.
func handleOpenAPI() http.HandlerFunc {
	spec, err := newOpenAPISpec()
	if err != nil {
		panic(fmt.Sprintf("building openapi document: %v", err))
	}
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("encoding openapi document: %v", err))
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
