package app

import (
	"testing"
	"time"

	"studyhub/pkg/domain"
)

func TestCreateTaskDefaultsToPending(t *testing.T) {
	f := newFixture(t)
	userID := f.signUp(t, "tp1@mail.apu.edu.my")

	task, err := f.app.CreateTask(userID, TaskInput{
		Title:    "Revise graphs",
		DueDate:  time.Now().Add(48 * time.Hour),
		Priority: domain.PriorityHigh,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Status != domain.TaskPending {
		t.Fatalf("status = %q, want pending", task.Status)
	}
	if task.ID == "" || task.UserID != userID {
		t.Fatalf("bad identity fields: %+v", task)
	}
}

func TestCreateTaskRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	userID := f.signUp(t, "tp1@mail.apu.edu.my")

	if _, err := f.app.CreateTask(userID, TaskInput{Title: "  ", Priority: domain.PriorityLow}); err != ErrInvalidTitle {
		t.Fatalf("blank title: got %v", err)
	}
	if _, err := f.app.CreateTask(userID, TaskInput{Title: "x", Priority: "urgent"}); err != ErrInvalidPriority {
		t.Fatalf("bad priority: got %v", err)
	}
	if _, err := f.app.CreateTask(userID, TaskInput{Title: "x", Priority: domain.PriorityLow, Status: "done"}); err != ErrInvalidStatus {
		t.Fatalf("bad status: got %v", err)
	}
}

func TestTaskLifecycleIsOwnerScoped(t *testing.T) {
	f := newFixture(t)
	owner := f.signUp(t, "tp1@mail.apu.edu.my")
	intruder := f.signUp(t, "tp2@mail.apu.edu.my")

	task, err := f.app.CreateTask(owner, TaskInput{
		Title:    "Lab report",
		DueDate:  time.Now().Add(time.Hour),
		Priority: domain.PriorityMedium,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if _, err := f.app.UpdateTask(intruder, task.ID, TaskInput{Status: domain.TaskCompleted}); err != ErrNotFound {
		t.Fatalf("cross-user update: got %v, want ErrNotFound", err)
	}
	if err := f.app.DeleteTask(intruder, task.ID); err != ErrNotFound {
		t.Fatalf("cross-user delete: got %v, want ErrNotFound", err)
	}

	updated, err := f.app.UpdateTask(owner, task.ID, TaskInput{Status: domain.TaskCompleted})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Status != domain.TaskCompleted {
		t.Fatalf("status = %q", updated.Status)
	}
	if updated.Title != "Lab report" {
		t.Fatalf("partial update clobbered title: %q", updated.Title)
	}

	if err := f.app.DeleteTask(owner, task.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	tasks, _ := f.app.ListTasks(owner)
	if len(tasks) != 0 {
		t.Fatalf("task list should be empty, got %d", len(tasks))
	}
}

func TestListTasksOrderedByDueDate(t *testing.T) {
	f := newFixture(t)
	userID := f.signUp(t, "tp1@mail.apu.edu.my")

	base := time.Now()
	for _, offset := range []time.Duration{72 * time.Hour, 24 * time.Hour, 48 * time.Hour} {
		if _, err := f.app.CreateTask(userID, TaskInput{
			Title:    "t",
			DueDate:  base.Add(offset),
			Priority: domain.PriorityLow,
		}); err != nil {
			t.Fatalf("create task: %v", err)
		}
	}
	tasks, err := f.app.ListTasks(userID)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	for i := 1; i < len(tasks); i++ {
		if tasks[i].DueDate.Before(tasks[i-1].DueDate) {
			t.Fatalf("tasks not ordered by due date")
		}
	}
}
