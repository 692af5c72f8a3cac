package service

import (
	"log"

	"taskboard/internal/metrics"
	"taskboard/internal/model"
	"taskboard/internal/session"
	"taskboard/internal/tasklist"
)

// TaskService runs task operations against a chat session and records metrics.
type TaskService struct {
	metrics *metrics.Metrics
}

func NewTaskService(m *metrics.Metrics) *TaskService {
	return &TaskService{metrics: m}
}

// Add creates a task, optionally tagged with a category.
func (s *TaskService) Add(sess *session.Session, details string, categoryID *string) (model.Task, bool) {
	task, ok := sess.Tasks.AddWithCategory(details, categoryID)
	s.metrics.OpBool("add", ok)
	if ok {
		log.Printf("[info] chat=%d add task=%s", sess.ChatID, task.ID)
	}
	return task, ok
}

// Update applies an externally produced record with last-writer-wins semantics.
func (s *TaskService) Update(sess *session.Session, task model.Task) tasklist.UpdateResult {
	res := sess.Tasks.Update(task)
	switch res {
	case tasklist.Inserted:
		s.metrics.Op("update", metrics.ResultInserted)
	case tasklist.Replaced:
		s.metrics.Op("update", metrics.ResultApplied)
	default:
		s.metrics.Op("update", metrics.ResultIgnored)
	}
	return res
}

func (s *TaskService) Toggle(sess *session.Session, id string) (model.Task, bool) {
	task, ok := sess.Tasks.ToggleCompleted(id)
	s.metrics.OpBool("toggle", ok)
	return task, ok
}

func (s *TaskService) Edit(sess *session.Session, id, details string) (model.Task, bool) {
	task, ok := sess.Tasks.Edit(id, details)
	s.metrics.OpBool("edit", ok)
	return task, ok
}

func (s *TaskService) SetCategory(sess *session.Session, id string, categoryID *string) (model.Task, bool) {
	task, ok := sess.Tasks.SetCategory(id, categoryID)
	s.metrics.OpBool("tag", ok)
	return task, ok
}

// Remove deletes a task and returns the removed copy for confirmation messages.
func (s *TaskService) Remove(sess *session.Session, id string) (model.Task, bool) {
	task, found := sess.Tasks.Get(id)
	ok := found && sess.Tasks.Remove(id)
	s.metrics.OpBool("remove", ok)
	if ok {
		log.Printf("[info] chat=%d remove task=%s", sess.ChatID, id)
	}
	return task, ok
}

func (s *TaskService) ClearCompleted(sess *session.Session) int {
	n := sess.Tasks.ClearCompleted()
	s.metrics.OpBool("clear", n > 0)
	return n
}

// List queries the session newest first and remembers the shown order for numbered commands.
func (s *TaskService) List(sess *session.Session, filter tasklist.Filter, categoryID *string) []model.Task {
	tasks := sess.Tasks.Query(tasklist.Query{
		Filter:     filter,
		Order:      tasklist.OrderNewestFirst,
		CategoryID: categoryID,
	})
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	sess.Remember(ids)
	return tasks
}

// Resolve turns a position from the last shown list into a task id.
func (s *TaskService) Resolve(sess *session.Session, n int) (string, bool) {
	return sess.Lookup(n)
}
