package server

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/playperu/fieldgame/internal/fieldgame"
	"github.com/playperu/fieldgame/internal/photos"
	"github.com/playperu/fieldgame/internal/store"
	"github.com/playperu/fieldgame/internal/submission"
)

const playerSubmissionLimit = 100

// CreateSubmissionRequest is the JSON form of a claim. Claims with photo
// evidence are sent as multipart/form-data with the same field names and
// the file in "photo". The submission time is always set by the server.
type CreateSubmissionRequest struct {
	Kind         fieldgame.Kind `json:"kind"`
	CheckpointID string         `json:"checkpointId"`
	TargetTeamID string         `json:"targetTeamId"`
	Stake        int            `json:"stake"`
	Description  string         `json:"description"`
}

type CreateSubmissionResponse struct {
	Submission   fieldgame.Submission  `json:"submission"`
	AutoVerified bool                  `json:"autoVerified"`
	Outcome      string                `json:"outcome,omitempty"`
	Queue        fieldgame.QueueStatus `json:"queue"`
}

func handleCreateSubmission(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := playerFrom(r)
		if deps.MaxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, deps.MaxUploadBytes)
		}

		in := submission.CreateInput{
			ID:              uuid.NewString(),
			TeamID:          p.Team.ID,
			PlayerSessionID: p.Session.ID,
		}

		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if mediaType == "multipart/form-data" {
			key, err := readMultipartSubmission(r, deps, &in)
			if err != nil {
				var maxErr *http.MaxBytesError
				var v *fieldgame.ValidationError
				switch {
				case errors.As(err, &maxErr):
					writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
				case errors.As(err, &v):
					writeDomainError(w, logger, err)
				default:
					writeError(w, http.StatusBadRequest, "invalid form: "+err.Error())
				}
				return
			}
			in.PhotoKey = key
		} else {
			var req CreateSubmissionRequest
			if err := readJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			in.Kind = req.Kind
			in.CheckpointID = req.CheckpointID
			in.TargetTeamID = req.TargetTeamID
			in.Stake = req.Stake
			in.Description = req.Description
		}

		res, err := deps.Service.Create(r.Context(), in)
		if err != nil {
			if in.PhotoKey != "" {
				if perr := deps.Photos.Purge(in.PhotoKey); perr != nil {
					logger.Warn("purging rejected photo failed", "key", in.PhotoKey, "error", perr)
				}
			}
			writeDomainError(w, logger, err)
			return
		}

		out := CreateSubmissionResponse{
			Submission:   res.Submission,
			AutoVerified: res.AutoVerified,
			Queue:        res.Submission.Queue(),
		}
		if res.Event != nil {
			out.Outcome = res.Event.Description
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

// readMultipartSubmission fills in from the form and stores the photo, if
// any, returning its key.
func readMultipartSubmission(r *http.Request, deps Deps, in *submission.CreateInput) (string, error) {
	if err := r.ParseMultipartForm(deps.MaxUploadBytes); err != nil {
		return "", err
	}

	in.Kind = fieldgame.Kind(r.FormValue("kind"))
	in.CheckpointID = r.FormValue("checkpointId")
	in.TargetTeamID = r.FormValue("targetTeamId")
	in.Description = r.FormValue("description")
	if s := r.FormValue("stake"); s != "" {
		stake, err := strconv.Atoi(s)
		if err != nil {
			return "", fmt.Errorf("stake: %w", err)
		}
		in.Stake = stake
	}

	file, header, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer file.Close()

	contentType, _, _ := strings.Cut(header.Header.Get("Content-Type"), ";")
	key, err := deps.Photos.Attach(in.ID, strings.TrimSpace(contentType), file)
	if errors.Is(err, photos.ErrUnsupportedType) {
		var v fieldgame.ValidationError
		v.Add("photo", "must be a JPEG, PNG, WebP or HEIC image")
		return "", &v
	}
	return key, err
}

func handleListSubmissions(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subs, err := deps.Store.ListSubmissions(r.Context(), store.SubmissionFilter{
			TeamID: playerFrom(r).Team.ID,
			Limit:  playerSubmissionLimit,
		})
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, subs)
	}
}

func handleGetSubmission(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := deps.Store.GetSubmission(r.Context(), chi.URLParam(r, "id"))
		if err == nil && sub.TeamID != playerFrom(r).Team.ID {
			err = fieldgame.ErrNotFound
		}
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}
