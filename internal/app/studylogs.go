package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"studyhub/internal/security"
	"studyhub/pkg/domain"
)

// LogStudySession records a completed study session.
func (a *App) LogStudySession(userID, topic string, durationMins, productivity int) (domain.StudyLog, error) {
	topic = security.SanitizeText(strings.TrimSpace(topic))
	if !security.ValidTopic(topic) {
		return domain.StudyLog{}, ErrInvalidTopic
	}
	if durationMins <= 0 {
		return domain.StudyLog{}, ErrInvalidDuration
	}
	if productivity < 1 || productivity > 5 {
		return domain.StudyLog{}, ErrInvalidProductivity
	}
	entry := domain.StudyLog{
		ID:           uuid.NewString(),
		UserID:       userID,
		Topic:        topic,
		DurationMins: durationMins,
		Productivity: productivity,
		Timestamp:    time.Now().UTC(),
	}
	if err := a.store.SaveStudyLog(entry); err != nil {
		return domain.StudyLog{}, fmt.Errorf("save study log: %w", err)
	}
	return entry, nil
}

// ListStudyLogs returns the user's sessions, newest first.
func (a *App) ListStudyLogs(userID string) ([]domain.StudyLog, error) {
	return a.store.ListStudyLogsByOwner(userID)
}

// DeleteStudyLog removes one of the user's sessions.
func (a *App) DeleteStudyLog(userID, logID string) error {
	if !security.ValidUUID(logID) {
		return ErrNotFound
	}
	return a.store.DeleteStudyLog(userID, logID)
}
