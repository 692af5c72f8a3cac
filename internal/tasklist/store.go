package tasklist

import (
	"strings"
	"sync"
	"time"

	"taskboard/internal/model"
)

// Filter selects tasks by completion state.
type Filter int

const (
	FilterAll Filter = iota
	FilterActive
	FilterCompleted
)

// Order controls display order of a query.
type Order int

const (
	OrderInsertion Order = iota
	OrderNewestFirst
)

// Query describes a read-only projection of the store.
type Query struct {
	Filter Filter
	Order  Order
	// CategoryID narrows the result to one category when set.
	CategoryID *string
}

// UpdateResult tells what Update did with an incoming record.
type UpdateResult int

const (
	Ignored UpdateResult = iota
	Replaced
	Inserted
)

// Clock returns the current time.
type Clock func() time.Time

// Store owns an ordered collection of tasks. Every mutation goes through its methods.
type Store struct {
	mu    sync.Mutex
	tasks []model.Task
	now   Clock
}

func New(clock Clock) *Store {
	if clock == nil {
		clock = time.Now
	}
	return &Store{now: clock}
}

// Add appends a new active task. Blank input is ignored.
func (s *Store) Add(details string) (model.Task, bool) {
	return s.AddWithCategory(details, nil)
}

// AddWithCategory appends a new task tagged with categoryID.
func (s *Store) AddWithCategory(details string, categoryID *string) (model.Task, bool) {
	details = strings.TrimSpace(details)
	if details == "" {
		return model.Task{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task := model.NewTask(details, s.now())
	if categoryID != nil {
		id := *categoryID
		task.CategoryID = &id
	}
	s.tasks = append(s.tasks, task)
	return task.Clone(), true
}

// Update upserts by id. An existing task is replaced only when the incoming
// Updated is strictly later; an unknown id is appended.
func (s *Store) Update(task model.Task) UpdateResult {
	if task.ID == "" {
		return Ignored
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateLocked(task.Clone())
}

func (s *Store) updateLocked(task model.Task) UpdateResult {
	i := s.indexLocked(task.ID)
	if i < 0 {
		s.tasks = append(s.tasks, task)
		return Inserted
	}
	if !task.Updated.After(s.tasks[i].Updated) {
		return Ignored
	}
	s.tasks[i] = task
	return Replaced
}

// Remove deletes the task with id. Returns false when it was absent.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return true
}

// ToggleCompleted flips the completion flag of id.
func (s *Store) ToggleCompleted(id string) (model.Task, bool) {
	return s.modify(id, func(t *model.Task) bool {
		t.Completed = !t.Completed
		return true
	})
}

// Edit rewrites the details of id. Blank or unchanged text is ignored.
func (s *Store) Edit(id, details string) (model.Task, bool) {
	details = strings.TrimSpace(details)
	if details == "" {
		return model.Task{}, false
	}
	return s.modify(id, func(t *model.Task) bool {
		if t.Details == details {
			return false
		}
		t.Details = details
		return true
	})
}

// SetCategory retags id; nil clears the category.
func (s *Store) SetCategory(id string, categoryID *string) (model.Task, bool) {
	return s.modify(id, func(t *model.Task) bool {
		if sameCategory(t.CategoryID, categoryID) {
			return false
		}
		if categoryID == nil {
			t.CategoryID = nil
			return true
		}
		c := *categoryID
		t.CategoryID = &c
		return true
	})
}

// modify applies fn to a copy of the task and writes it back through the
// last-writer-wins path with a timestamp that always beats the stored one.
func (s *Store) modify(id string, fn func(t *model.Task) bool) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.Task{}, false
	}
	next := s.tasks[i].Clone()
	if !fn(&next) {
		return model.Task{}, false
	}
	next.Updated = s.localStampLocked(s.tasks[i].Updated)
	if s.updateLocked(next) == Ignored {
		return model.Task{}, false
	}
	return next.Clone(), true
}

func (s *Store) localStampLocked(prev time.Time) time.Time {
	now := s.now()
	if !now.After(prev) {
		return prev.Add(time.Nanosecond)
	}
	return now
}

// Get returns a copy of the task with id.
func (s *Store) Get(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.Task{}, false
	}
	return s.tasks[i].Clone(), true
}

// Query returns copies of the matching tasks; the store is left untouched.
func (s *Store) Query(q Query) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !q.matches(t) {
			continue
		}
		out = append(out, t.Clone())
	}
	if q.Order == OrderNewestFirst {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

func (q Query) matches(t model.Task) bool {
	switch q.Filter {
	case FilterActive:
		if t.Completed {
			return false
		}
	case FilterCompleted:
		if !t.Completed {
			return false
		}
	}
	if q.CategoryID != nil {
		return t.CategoryID != nil && *t.CategoryID == *q.CategoryID
	}
	return true
}

// ClearCompleted removes every completed task and returns how many were dropped.
func (s *Store) ClearCompleted() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.Completed {
			kept = append(kept, t)
		}
	}
	removed := len(s.tasks) - len(kept)
	for i := len(kept); i < len(s.tasks); i++ {
		s.tasks[i] = model.Task{}
	}
	s.tasks = kept
	return removed
}

// Counts reports totals by completion state.
func (s *Store) Counts() (total, active, completed int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tasks {
		total++
		if t.Completed {
			completed++
		} else {
			active++
		}
	}
	return total, active, completed
}

func (s *Store) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func sameCategory(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
