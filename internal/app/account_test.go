package app

import (
	"context"
	"testing"
	"time"

	"studyhub/pkg/domain"
)

func TestDeleteAccountRemovesEverything(t *testing.T) {
	f := newFixture(t)
	userID := f.signUp(t, "gone@mail.apu.edu.my")
	keeper := f.signUp(t, "stays@mail.apu.edu.my")
	ctx := context.Background()

	if _, err := f.app.CreateTask(userID, TaskInput{Title: "t", DueDate: time.Now(), Priority: domain.PriorityLow}); err != nil {
		t.Fatalf("task: %v", err)
	}
	if _, err := f.app.CreateNote(userID, "n", false); err != nil {
		t.Fatalf("note: %v", err)
	}
	if _, err := f.app.CreateTimetableEntry(userID, TimetableInput{
		Title: "c", Day: domain.Monday, StartTime: "09:00", EndTime: "10:00",
	}); err != nil {
		t.Fatalf("timetable: %v", err)
	}
	if _, err := f.app.LogStudySession(userID, "topic", 30, 3); err != nil {
		t.Fatalf("study log: %v", err)
	}
	resource, err := f.app.UploadResource(ctx, userID, textUpload("f.txt", "data"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, err := f.app.AddBookmark(userID, resource.ID); err != nil {
		t.Fatalf("bookmark: %v", err)
	}
	if _, _, err := f.app.StreamChat(ctx, userID, "",
		[]ChatTurn{{Role: "user", Content: "hi"}}, nil, discardDelta); err != nil {
		t.Fatalf("chat: %v", err)
	}
	keeperTask, err := f.app.CreateTask(keeper, TaskInput{Title: "keep", DueDate: time.Now(), Priority: domain.PriorityLow})
	if err != nil {
		t.Fatalf("keeper task: %v", err)
	}

	if err := f.app.DeleteAccount(ctx, userID); err != nil {
		t.Fatalf("delete account: %v", err)
	}

	if tasks, _ := f.app.ListTasks(userID); len(tasks) != 0 {
		t.Fatalf("tasks remain: %d", len(tasks))
	}
	if notes, _ := f.app.ListNotes(userID); len(notes) != 0 {
		t.Fatalf("notes remain: %d", len(notes))
	}
	if entries, _ := f.app.ListTimetable(userID); len(entries) != 0 {
		t.Fatalf("timetable remains: %d", len(entries))
	}
	if logs, _ := f.app.ListStudyLogs(userID); len(logs) != 0 {
		t.Fatalf("study logs remain: %d", len(logs))
	}
	if resources, _ := f.app.ListResources(userID); len(resources) != 0 {
		t.Fatalf("resources remain: %d", len(resources))
	}
	if bookmarks, _ := f.app.ListBookmarks(userID); len(bookmarks) != 0 {
		t.Fatalf("bookmarks remain: %d", len(bookmarks))
	}
	if convs, _ := f.app.ListConversations(userID, 0); len(convs) != 0 {
		t.Fatalf("conversations remain: %d", len(convs))
	}
	if f.objects.count() != 0 {
		t.Fatalf("stored objects remain: %d", f.objects.count())
	}
	if _, _, err := f.app.Login("gone@mail.apu.edu.my", "secret123"); err != ErrInvalidCredentials {
		t.Fatalf("deleted account login: got %v", err)
	}

	// Other accounts are untouched.
	if _, ok, err := f.store.GetTask(keeper, keeperTask.ID); err != nil || !ok {
		t.Fatalf("keeper task lost: ok=%v err=%v", ok, err)
	}
}
