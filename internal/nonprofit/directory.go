package nonprofit

import (
	"context"
	"errors"
	"sync"
)

// ErrConflict is returned when a record with the same email is already registered.
var ErrConflict = errors.New("nonprofit: email already registered")

// Record is a registered nonprofit. Email is the identity key.
type Record struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
	Email   string `json:"email" validate:"required"`
}

// Lookuper resolves a recipient email to its registered record.
type Lookuper interface {
	Lookup(ctx context.Context, email string) (Record, bool)
}

// Directory is an in-memory registry of nonprofits keyed by email.
// Records are immutable once registered.
type Directory struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{records: map[string]Record{}}
}

// Register stores rec unless its email is already taken, in which case
// ErrConflict is returned and the existing record is left untouched.
func (d *Directory) Register(_ context.Context, rec Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.records[rec.Email]; exists {
		return ErrConflict
	}
	d.records[rec.Email] = rec
	return nil
}

// Lookup returns the record registered under email.
func (d *Directory) Lookup(_ context.Context, email string) (Record, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rec, ok := d.records[email]
	return rec, ok
}

// Len reports the number of registered nonprofits.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.records)
}
