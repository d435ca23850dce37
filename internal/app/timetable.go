package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"studyhub/internal/security"
	"studyhub/pkg/domain"
)

const (
	minSlotMinutes = 30
	dayStartMinute = 8 * 60  // 08:00
	dayEndMinute   = 22 * 60 // 22:00
)

// TimetableInput carries the writable timetable fields.
type TimetableInput struct {
	Title     string
	Day       domain.Weekday
	StartTime string
	EndTime   string
}

// TimetableResult pairs a saved entry with any non-fatal warning, such as
// an overlap with an existing entry.
type TimetableResult struct {
	Entry   domain.TimetableEntry
	Warning string
}

// CreateTimetableEntry adds a class slot. Slots must sit inside the
// 08:00-22:00 window and run at least 30 minutes; overlaps with existing
// entries are saved but reported as a warning.
func (a *App) CreateTimetableEntry(userID string, in TimetableInput) (TimetableResult, error) {
	title := security.SanitizeText(strings.TrimSpace(in.Title))
	if !security.ValidTitle(title) {
		return TimetableResult{}, ErrInvalidTitle
	}
	if !validWeekday(in.Day) {
		return TimetableResult{}, ErrInvalidDay
	}
	start, end, err := parseSlot(in.StartTime, in.EndTime)
	if err != nil {
		return TimetableResult{}, err
	}

	warning, err := a.overlapWarning(userID, "", in.Day, start, end)
	if err != nil {
		return TimetableResult{}, err
	}

	now := time.Now().UTC()
	entry := domain.TimetableEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Day:       in.Day,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.SaveTimetableEntry(entry); err != nil {
		return TimetableResult{}, fmt.Errorf("save timetable entry: %w", err)
	}
	return TimetableResult{Entry: entry, Warning: warning}, nil
}

// ListTimetable returns the user's entries ordered by day and start time.
func (a *App) ListTimetable(userID string) ([]domain.TimetableEntry, error) {
	return a.store.ListTimetableByOwner(userID)
}

// UpdateTimetableEntry edits one of the user's entries.
func (a *App) UpdateTimetableEntry(userID, entryID string, in TimetableInput) (TimetableResult, error) {
	if !security.ValidUUID(entryID) {
		return TimetableResult{}, ErrNotFound
	}
	entry, ok, err := a.store.GetTimetableEntry(userID, entryID)
	if err != nil {
		return TimetableResult{}, fmt.Errorf("get timetable entry: %w", err)
	}
	if !ok {
		return TimetableResult{}, ErrNotFound
	}
	if in.Title != "" {
		title := security.SanitizeText(strings.TrimSpace(in.Title))
		if !security.ValidTitle(title) {
			return TimetableResult{}, ErrInvalidTitle
		}
		entry.Title = title
	}
	if in.Day != "" {
		if !validWeekday(in.Day) {
			return TimetableResult{}, ErrInvalidDay
		}
		entry.Day = in.Day
	}
	if in.StartTime != "" {
		entry.StartTime = in.StartTime
	}
	if in.EndTime != "" {
		entry.EndTime = in.EndTime
	}
	start, end, err := parseSlot(entry.StartTime, entry.EndTime)
	if err != nil {
		return TimetableResult{}, err
	}
	warning, err := a.overlapWarning(userID, entry.ID, entry.Day, start, end)
	if err != nil {
		return TimetableResult{}, err
	}

	entry.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveTimetableEntry(entry); err != nil {
		return TimetableResult{}, fmt.Errorf("save timetable entry: %w", err)
	}
	return TimetableResult{Entry: entry, Warning: warning}, nil
}

// DeleteTimetableEntry removes one of the user's entries.
func (a *App) DeleteTimetableEntry(userID, entryID string) error {
	if !security.ValidUUID(entryID) {
		return ErrNotFound
	}
	_, ok, err := a.store.GetTimetableEntry(userID, entryID)
	if err != nil {
		return fmt.Errorf("get timetable entry: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return a.store.DeleteTimetableEntry(userID, entryID)
}

func (a *App) overlapWarning(userID, excludeID string, day domain.Weekday, start, end int) (string, error) {
	existing, err := a.store.ListTimetableByOwner(userID)
	if err != nil {
		return "", fmt.Errorf("list timetable: %w", err)
	}
	for _, other := range existing {
		if other.ID == excludeID || other.Day != day {
			continue
		}
		oStart, oEnd, err := parseSlot(other.StartTime, other.EndTime)
		if err != nil {
			continue
		}
		if start < oEnd && oStart < end {
			return fmt.Sprintf("overlaps with %q (%s-%s)", other.Title, other.StartTime, other.EndTime), nil
		}
	}
	return "", nil
}

// parseSlot validates a HH:MM pair and returns minutes since midnight.
func parseSlot(startTime, endTime string) (int, int, error) {
	start, ok := parseClock(startTime)
	if !ok {
		return 0, 0, ErrInvalidTimeRange
	}
	end, ok := parseClock(endTime)
	if !ok {
		return 0, 0, ErrInvalidTimeRange
	}
	if end-start < minSlotMinutes {
		return 0, 0, ErrInvalidTimeRange
	}
	if start < dayStartMinute || end > dayEndMinute {
		return 0, 0, ErrInvalidTimeRange
	}
	return start, end, nil
}

func parseClock(value string) (int, bool) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

func validWeekday(d domain.Weekday) bool {
	switch d {
	case domain.Monday, domain.Tuesday, domain.Wednesday, domain.Thursday,
		domain.Friday, domain.Saturday, domain.Sunday:
		return true
	}
	return false
}
