// Package health reports whether the server's dependencies are reachable.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

const checkTimeout = 3 * time.Second

// Checker verifies that an infrastructure dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

type Handler struct {
	required map[string]Checker
	optional map[string]Checker
	logger   *slog.Logger
}

// NewHandler reports 503 when a required check fails. A failing optional
// check only degrades the overall status.
func NewHandler(logger *slog.Logger, required, optional map[string]Checker) *Handler {
	return &Handler{required: required, optional: optional, logger: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.check)
	return r
}

type Result struct {
	Status     string `json:"status"`
	Optional   bool   `json:"optional,omitempty"`
	DurationMS int64  `json:"durationMs"`
}

type Response struct {
	Status string            `json:"status"`
	Checks map[string]Result `json:"checks"`
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	type named struct {
		name     string
		checker  Checker
		optional bool
	}
	var all []named
	for name, c := range h.required {
		all = append(all, named{name, c, false})
	}
	for name, c := range h.optional {
		all = append(all, named{name, c, true})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].name < all[j].name })

	results := make([]Result, len(all))
	var wg sync.WaitGroup
	for i, n := range all {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			err := n.checker.Check(ctx)
			res := Result{Status: "ok", Optional: n.optional, DurationMS: time.Since(start).Milliseconds()}
			if err != nil {
				h.logger.Error("health check failed", "name", n.name, "optional", n.optional, "error", err)
				res.Status = "error"
			}
			results[i] = res
		}()
	}
	wg.Wait()

	resp := Response{Status: "ok", Checks: make(map[string]Result, len(all))}
	status := http.StatusOK
	for i, n := range all {
		resp.Checks[n.name] = results[i]
		if results[i].Status == "ok" {
			continue
		}
		if n.optional {
			if resp.Status == "ok" {
				resp.Status = "degraded"
			}
			continue
		}
		resp.Status = "error"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
