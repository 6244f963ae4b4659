package health

import "time"

// SetClock replaces the handler's clock and start time.
func (h *Handler) SetClock(started time.Time, now func() time.Time) {
	h.started = started
	h.now = now
}
