package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	Name         string `gorm:"not null"`
	StudentID    string
	Program      string
	Year         string
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

type TaskModel struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;index"`
	Title     string    `gorm:"not null"`
	DueDate   time.Time `gorm:"not null"`
	Priority  string    `gorm:"not null"`
	Status    string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type NoteModel struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;index"`
	Content   string    `gorm:"type:text"`
	Pinned    bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type TimetableEntryModel struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;index"`
	Title     string    `gorm:"not null"`
	Day       string    `gorm:"not null"`
	StartTime string    `gorm:"not null"`
	EndTime   string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type StudyLogModel struct {
	ID           string    `gorm:"primaryKey"`
	UserID       string    `gorm:"not null;index"`
	Topic        string    `gorm:"not null"`
	DurationMins int       `gorm:"not null"`
	Productivity int       `gorm:"not null"`
	Timestamp    time.Time `gorm:"not null;index"`
}

type ResourceModel struct {
	ID          string         `gorm:"primaryKey"`
	UploaderID  string         `gorm:"not null;index"`
	Title       string         `gorm:"not null"`
	Tags        datatypes.JSON `gorm:"type:jsonb"`
	URL         string         `gorm:"not null"`
	FileName    string         `gorm:"not null"`
	FileSize    int64          `gorm:"not null"`
	FileType    string         `gorm:"not null"`
	StoragePath string         `gorm:"not null"`
	UploadedAt  time.Time      `gorm:"not null;index"`
}

type BookmarkModel struct {
	ID         string    `gorm:"primaryKey"`
	UserID     string    `gorm:"not null;index:idx_bookmark_user_resource,unique"`
	ResourceID string    `gorm:"not null;index:idx_bookmark_user_resource,unique"`
	CreatedAt  time.Time `gorm:"not null"`
}

type ConversationModel struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;index"`
	Title     string    `gorm:"not null"`
	IsActive  bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type MessageModel struct {
	ID             string         `gorm:"primaryKey"`
	ConversationID string         `gorm:"not null;index"`
	UserID         string         `gorm:"not null;index"`
	Role           string         `gorm:"not null"`
	Content        string         `gorm:"type:text;not null"`
	MessageType    string         `gorm:"not null"`
	Metadata       datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"not null;index"`
}
