package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/playperu/fieldgame/internal/notify"
)

const (
	ssePingInterval = 30 * time.Second
	notifyTimeout   = 2 * time.Second
)

// handleEvents streams the notifications of the player's team and of the
// player's own device as Server-Sent Events.
func handleEvents(logger *slog.Logger, deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		p := playerFrom(r)
		teamCh := notify.TeamChannel(p.Team.ID)
		playerCh := notify.PlayerChannel(p.Session.ID)

		team := deps.Broker.Subscribe(teamCh)
		defer deps.Broker.Unsubscribe(teamCh, team)
		own := deps.Broker.Subscribe(playerCh)
		defer deps.Broker.Unsubscribe(playerCh, own)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		logger.Debug("event stream opened", "session_id", p.Session.ID, "team_id", p.Team.ID)

		ping := time.NewTicker(ssePingInterval)
		defer ping.Stop()

		for {
			var data []byte
			select {
			case <-r.Context().Done():
				return
			case data = <-team:
			case data = <-own:
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventName(data), data)
			flusher.Flush()
		}
	}
}

func eventName(data []byte) string {
	var msg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
		return "message"
	}
	return msg.Type
}
