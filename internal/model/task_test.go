package model_test

import (
	"testing"
	"time"

	"taskboard/internal/model"
)

func TestNewTask(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	task := model.NewTask("Buy milk", now)

	if task.ID == "" {
		t.Error("expected non-empty ID")
	}
	if task.Details != "Buy milk" {
		t.Errorf("expected details %q, got %q", "Buy milk", task.Details)
	}
	if !task.Created.Equal(now) || !task.Updated.Equal(now) {
		t.Errorf("expected created/updated %v, got %v/%v", now, task.Created, task.Updated)
	}
	if task.Completed {
		t.Error("expected new task to be active")
	}
	if task.CategoryID != nil {
		t.Error("expected new task to be uncategorized")
	}
}

func TestNewTask_UniqueIDs(t *testing.T) {
	now := time.Now()
	a := model.NewTask("A", now)
	b := model.NewTask("B", now)

	if a.ID == b.ID {
		t.Error("expected different IDs for different tasks")
	}
}

func TestClone_DetachesCategory(t *testing.T) {
	cat := "work"
	task := model.NewTask("Report", time.Now())
	task.CategoryID = &cat

	copied := task.Clone()
	*copied.CategoryID = "home"

	if *task.CategoryID != "work" {
		t.Errorf("expected original category to stay %q, got %q", "work", *task.CategoryID)
	}
}

func TestNewCategory(t *testing.T) {
	cat := model.NewCategory("Work")

	if cat.Name != "Work" {
		t.Errorf("expected name %q, got %q", "Work", cat.Name)
	}
	if cat.ID == "" {
		t.Error("expected non-empty ID")
	}
}
