package server

import (
	"context"
	"net/http"

	"tailscale-webui/internal/poller"
	"tailscale-webui/internal/status"
)

type statusPayload struct {
	status.Snapshot
	View status.View `json:"view"`
}

func newStatusPayload(snap status.Snapshot) statusPayload {
	return statusPayload{Snapshot: snap, View: status.Render(snap.Running, snap.Login)}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStatusPayload(s.status.Query(r.Context())))
}

// handleStatusStream is one status view: it owns a poll task for the life
// of the connection.
func (s *Server) handleStatusStream(w http.ResponseWriter, r *http.Request) {
	stream, ok := openEventStream(w)
	if !ok {
		return
	}
	ctx := r.Context()
	updates := make(chan statusPayload, 1)

	task := poller.Start(ctx, s.pollInterval, func(ctx context.Context) {
		payload := newStatusPayload(s.status.Query(ctx))
		if ctx.Err() != nil {
			return
		}
		select {
		case updates <- payload:
		case <-ctx.Done():
		}
	}, poller.OnSkip(func() {
		s.diagLog.Debugf("status view tick skipped: query still running")
	}))
	defer task.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case payload := <-updates:
			if err := stream.send("status", payload); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleStatusHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "status history is disabled")
		return
	}
	events, err := s.history.Recent(r.Context(), queryLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "status history is disabled")
		return
	}
	actions, err := s.history.Actions(r.Context(), queryLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"actions": actions})
}

func (s *Server) handleTriggerLogin(w http.ResponseWriter, r *http.Request) {
	err := s.tailscale.Login()
	s.recordAction(r.Context(), "login", "", err)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}
