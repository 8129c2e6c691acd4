package logview

import (
	"sync"
	"time"
)

// Phase is the view's polling lifecycle state.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhasePolling Phase = "polling"
)

// Snapshot is the rendered state of a view.
type Snapshot struct {
	Phase     Phase     `json:"phase"`
	Reverse   bool      `json:"reverse"`
	Entries   []Entry   `json:"entries"`
	Lines     []string  `json:"lines"`
	Text      string    `json:"text"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// View holds the cached entries and display order of one open log view.
// The cached entries keep fetch order; only the display order toggles.
type View struct {
	mu        sync.Mutex
	phase     Phase
	reverse   bool
	entries   []Entry
	lastErr   error
	updatedAt time.Time
}

// NewView creates an idle view in chronological order.
func NewView() *View {
	return &View{phase: PhaseIdle}
}

// Begin marks a fetch in flight.
func (v *View) Begin() {
	v.mu.Lock()
	v.phase = PhasePolling
	v.mu.Unlock()
}

// Update stores a successful fetch and clears any previous error.
func (v *View) Update(entries []Entry, at time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = append([]Entry(nil), entries...)
	v.lastErr = nil
	v.phase = PhaseIdle
	v.updatedAt = at
}

// Fail records a fetch error. Previously cached entries are kept.
func (v *View) Fail(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastErr = err
	v.phase = PhaseIdle
}

// Toggle flips the display order and returns the new setting.
func (v *View) Toggle() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reverse = !v.reverse
	return v.reverse
}

// Reverse reports the current display order.
func (v *View) Reverse() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.reverse
}

// Snapshot renders the view.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	snap := Snapshot{
		Phase:     v.phase,
		Reverse:   v.reverse,
		Entries:   append([]Entry{}, v.entries...),
		Lines:     Lines(v.entries, v.reverse),
		Text:      Text(v.entries, v.reverse),
		UpdatedAt: v.updatedAt,
	}
	if v.lastErr != nil {
		snap.Error = v.lastErr.Error()
	}
	return snap
}
