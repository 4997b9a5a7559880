package activity

import (
	"context"
	"sync"
)

// CaptureHook accumulates normalized events in memory. Tests wire it into a
// Hooks chain and assert on Events afterwards; set Err to make the hook fail.
type CaptureHook struct {
	Events []Event
	Err    error
	mu     sync.Mutex
}

// Notify appends the normalized event and returns the configured error.
func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = append(h.Events, NormalizeEvent(event))
	return h.Err
}

// Reset drops the captured events so the hook can be reused between phases
// of a test.
func (h *CaptureHook) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = nil
}
