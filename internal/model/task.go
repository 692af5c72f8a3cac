package model

import (
	"time"

	"github.com/google/uuid"
)

// Task represents a single item in the list.
type Task struct {
	ID         string
	Details    string
	Created    time.Time
	Updated    time.Time
	Completed  bool
	CategoryID *string // nil means uncategorized
}

// NewTask builds an active task stamped with now.
func NewTask(details string, now time.Time) Task {
	return Task{
		ID:      NewID(),
		Details: details,
		Created: now,
		Updated: now,
	}
}

// NewID returns a fresh opaque identifier.
func NewID() string {
	return uuid.NewString()
}

// Clone returns a copy that shares no pointers with t.
func (t Task) Clone() Task {
	if t.CategoryID != nil {
		id := *t.CategoryID
		t.CategoryID = &id
	}
	return t
}
