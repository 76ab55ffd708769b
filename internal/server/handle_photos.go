package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/fieldgame/internal/fieldgame"
	"github.com/playperu/fieldgame/internal/photos"
)

type PurgeResponse struct {
	Purged int `json:"purged"`
}

// handleAdminPhoto streams the photo evidence of a submission.
func handleAdminPhoto(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := deps.Store.GetSubmission(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		if !sub.HasPhoto() {
			writeError(w, http.StatusNotFound, "submission has no photo")
			return
		}

		f, err := deps.Photos.Open(sub.PhotoKey)
		if errors.Is(err, photos.ErrNotFound) {
			writeError(w, http.StatusNotFound, "photo not found")
			return
		}
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		defer f.Close()

		w.Header().Set("Content-Type", photos.ContentType(sub.PhotoKey))
		w.Header().Set("Cache-Control", "private, max-age=3600")
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, f); err != nil {
			logger.Warn("streaming photo failed", "submission_id", sub.ID, "error", err)
		}
	}
}

// handleAdminPurgePhoto deletes the photo of one resolved submission.
func handleAdminPurgePhoto(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := deps.Store.GetSubmission(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		if sub.Status == fieldgame.StatusPending {
			writeError(w, http.StatusConflict, "photo of a pending submission cannot be purged")
			return
		}
		if !sub.HasPhoto() {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if err := deps.Photos.Purge(sub.PhotoKey); err != nil {
			writeDomainError(w, logger, err)
			return
		}
		if err := deps.Store.SetPhotoKey(r.Context(), sub.ID, ""); err != nil {
			writeDomainError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleAdminPurgePhotos deletes the photos of all resolved submissions.
func handleAdminPurgePhotos(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refs, err := deps.Store.ResolvedPhotos(r.Context())
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		purged := 0
		for _, ref := range refs {
			if err := deps.Photos.Purge(ref.Key); err != nil {
				logger.Warn("purging photo failed", "submission_id", ref.SubmissionID, "error", err)
				continue
			}
			if err := deps.Store.SetPhotoKey(r.Context(), ref.SubmissionID, ""); err != nil {
				writeDomainError(w, logger, err)
				return
			}
			purged++
		}
		logger.Info("photos purged", "count", purged, "admin_id", adminFrom(r).ID)
		writeJSON(w, http.StatusOK, PurgeResponse{Purged: purged})
	}
}
