package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/fieldgame/internal/fieldgame"
	"github.com/playperu/fieldgame/internal/store"
)

// ResolveRequest carries the optional message shown to the team.
type ResolveRequest struct {
	Message string `json:"message"`
}

type VerifyResponse struct {
	Submission fieldgame.Submission `json:"submission"`
	Event      fieldgame.Event      `json:"event"`
}

func handleAdminListSubmissions(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := store.SubmissionFilter{
			Status: fieldgame.Status(q.Get("status")),
			TeamID: q.Get("team"),
			Kind:   fieldgame.Kind(q.Get("kind")),
		}
		if f.Status != "" && !f.Status.Valid() {
			writeError(w, http.StatusBadRequest, "unknown status")
			return
		}
		if f.Kind != "" && !f.Kind.Valid() {
			writeError(w, http.StatusBadRequest, "unknown kind")
			return
		}
		if s := q.Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
				return
			}
			f.Limit = n
		}

		subs, err := deps.Store.ListSubmissions(r.Context(), f)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, subs)
	}
}

func handleAdminGetSubmission(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := deps.Store.GetSubmission(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

// readResolveRequest accepts an empty body.
func readResolveRequest(r *http.Request) (ResolveRequest, error) {
	var req ResolveRequest
	if r.ContentLength == 0 {
		return req, nil
	}
	err := readJSON(r, &req)
	return req, err
}

func handleAdminVerify(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := readResolveRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		id := chi.URLParam(r, "id")
		ev, err := deps.Service.Verify(r.Context(), id, adminFrom(r).ID, req.Message)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		sub, err := deps.Store.GetSubmission(r.Context(), id)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, VerifyResponse{Submission: sub, Event: ev})
	}
}

func handleAdminDeny(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := readResolveRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		sub, err := deps.Service.Deny(r.Context(), chi.URLParam(r, "id"), adminFrom(r).ID, req.Message)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

func handleAdminQueueStatus(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := deps.Service.QueueStatus(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}
