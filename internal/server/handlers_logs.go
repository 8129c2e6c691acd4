package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tailscale-webui/internal/logview"
	"tailscale-webui/internal/poller"
)

// defaultReverse reads the stored display order preference.
func (s *Server) defaultReverse() bool {
	current, err := s.settings.Get()
	if err != nil {
		return false
	}
	return current.ReverseLogs
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	reverse, ok := queryBool(r, "reverse")
	if !ok {
		reverse = s.defaultReverse()
	}
	entries, err := s.logs.Fetch(r.Context())
	if err != nil {
		s.diagLog.Warnf("fetch logs: %v", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if entries == nil {
		entries = []logview.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reverse": reverse,
		"entries": entries,
		"lines":   logview.Lines(entries, reverse),
		"text":    logview.Text(entries, reverse),
	})
}

// handleLogStream is one log view. The client learns the view id from the
// first "view" event and can flip the order through handleToggleLogOrder.
func (s *Server) handleLogStream(w http.ResponseWriter, r *http.Request) {
	stream, ok := openEventStream(w)
	if !ok {
		return
	}
	reverse, set := queryBool(r, "reverse")
	if !set {
		reverse = s.defaultReverse()
	}
	handle := s.views.open(reverse)
	defer s.views.close(handle.id)

	if err := stream.send("view", map[string]string{"id": handle.id}); err != nil {
		return
	}

	ctx := r.Context()
	task := poller.Start(ctx, s.pollInterval, func(ctx context.Context) {
		handle.view.Begin()
		entries, err := s.logs.Fetch(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			handle.view.Fail(err)
		} else {
			handle.view.Update(entries, time.Now().UTC())
		}
		handle.signal()
	}, poller.OnSkip(func() {
		s.diagLog.Debugf("log view %s tick skipped: fetch still running", handle.id)
	}))
	defer task.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-handle.notify:
			if err := stream.send("logs", handle.view.Snapshot()); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleToggleLogOrder(w http.ResponseWriter, r *http.Request) {
	handle, ok := s.views.get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "log view not found")
		return
	}
	reverse := handle.view.Toggle()
	handle.signal()
	writeJSON(w, http.StatusOK, map[string]bool{"reverse": reverse})
}
