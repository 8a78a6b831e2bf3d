package outreach

import "sync"

// History is the process-lifetime log of dispatched messages, indexed both
// globally and per sender. Both indexes are updated under one lock so a
// reader never observes a record in one and not the other.
type History struct {
	mu       sync.RWMutex
	all      []SentEmail
	bySender map[string][]SentEmail
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{bySender: map[string][]SentEmail{}}
}

// Record appends records in the given order.
func (h *History) Record(records ...SentEmail) {
	if len(records) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, rec := range records {
		h.all = append(h.all, rec)
		h.bySender[rec.SenderID] = append(h.bySender[rec.SenderID], rec)
	}
}

// All returns a copy of every record in insertion order.
func (h *History) All() []SentEmail {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]SentEmail, len(h.all))
	copy(out, h.all)
	return out
}

// BySender returns a copy of senderID's records in insertion order. An
// unknown sender yields an empty slice.
func (h *History) BySender(senderID string) []SentEmail {
	h.mu.RLock()
	defer h.mu.RUnlock()
	bucket := h.bySender[senderID]
	out := make([]SentEmail, len(bucket))
	copy(out, bucket)
	return out
}

// Len reports the size of the global history.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}
