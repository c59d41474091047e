package sim

import (
	"sync"
	"time"
)

// DefaultHistoryWindow is the rolling trend window kept by the driving
// loop when no capacity is configured.
const DefaultHistoryWindow = 24

// Snapshot is one tick's evaluation, stamped with the logical tick seq
// and the wall-clock time it was taken. Wall-clock is carried for display
// only; ordering is always by Seq.
type Snapshot struct {
	Seq      int64     `json:"seq"`
	RunToken string    `json:"run_token"`
	At       time.Time `json:"at"`
	Result   Result    `json:"result"`
}

// TickHistory is a fixed-capacity ring buffer of recent snapshots, owned
// by the driving loop for trend display. The oldest snapshot is evicted
// once the window is full. The core pipeline never touches it.
//
// Thread-safety: all methods are safe for concurrent use; the loop
// appends while presentation readers call Window.
type TickHistory struct {
	mu   sync.Mutex
	buf  []Snapshot
	next int
	full bool
}

// NewTickHistory creates a history window with the given capacity.
// Capacity <= 0 falls back to DefaultHistoryWindow.
func NewTickHistory(capacity int) *TickHistory {
	if capacity <= 0 {
		capacity = DefaultHistoryWindow
	}
	return &TickHistory{buf: make([]Snapshot, capacity)}
}

// Append records a snapshot, evicting the oldest entry when full.
func (h *TickHistory) Append(s Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf[h.next] = s
	h.next++
	if h.next == len(h.buf) {
		h.next = 0
		h.full = true
	}
}

// Window returns the retained snapshots oldest-first. The returned slice
// is a copy; callers may hold it across later appends.
func (h *TickHistory) Window() []Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.full {
		out := make([]Snapshot, h.next)
		copy(out, h.buf[:h.next])
		return out
	}
	out := make([]Snapshot, 0, len(h.buf))
	out = append(out, h.buf[h.next:]...)
	out = append(out, h.buf[:h.next]...)
	return out
}

// Len is the number of retained snapshots.
func (h *TickHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.full {
		return len(h.buf)
	}
	return h.next
}

// Cap is the window capacity.
func (h *TickHistory) Cap() int {
	return len(h.buf)
}
