package outreach

import (
	"fmt"
	"sync"
)

// StatusBoard keeps the latest dispatch status per recipient. It is a
// diagnostic side channel and not part of the history.
type StatusBoard struct {
	mu       sync.RWMutex
	statuses map[string]string
}

// NewStatusBoard returns an empty board.
func NewStatusBoard() *StatusBoard {
	return &StatusBoard{statuses: map[string]string{}}
}

// Set overwrites the status for recipientID.
func (b *StatusBoard) Set(recipientID, status string) {
	b.mu.Lock()
	b.statuses[recipientID] = status
	b.mu.Unlock()
}

// Get returns the status for recipientID.
func (b *StatusBoard) Get(recipientID string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.statuses[recipientID]
	return s, ok
}

// Snapshot copies the whole board.
func (b *StatusBoard) Snapshot() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]string, len(b.statuses))
	for k, v := range b.statuses {
		out[k] = v
	}
	return out
}

func notRegisteredStatus(recipientID string) string {
	return fmt.Sprintf("Nonprofit not registered with email ID: %s", recipientID)
}
