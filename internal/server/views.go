package server

import (
	"sync"

	"github.com/google/uuid"

	"tailscale-webui/internal/logview"
)

// logViewHandle is one open log stream. notify is signalled whenever the
// view should be re-pushed to its client.
type logViewHandle struct {
	id     string
	view   *logview.View
	notify chan struct{}
}

func (h *logViewHandle) signal() {
	select {
	case h.notify <- struct{}{}:
	default:
	}
}

type viewRegistry struct {
	mu    sync.Mutex
	views map[string]*logViewHandle
}

func newViewRegistry() *viewRegistry {
	return &viewRegistry{views: make(map[string]*logViewHandle)}
}

func (r *viewRegistry) open(reverse bool) *logViewHandle {
	view := logview.NewView()
	if reverse {
		view.Toggle()
	}
	h := &logViewHandle{
		id:     uuid.NewString(),
		view:   view,
		notify: make(chan struct{}, 1),
	}
	r.mu.Lock()
	r.views[h.id] = h
	r.mu.Unlock()
	return h
}

func (r *viewRegistry) get(id string) (*logViewHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.views[id]
	return h, ok
}

func (r *viewRegistry) close(id string) {
	r.mu.Lock()
	delete(r.views, id)
	r.mu.Unlock()
}

func (r *viewRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}
