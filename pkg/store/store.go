package store

import "studyhub/pkg/domain"

// Store defines persistence operations for all owner-scoped entities.
// Every read and mutation of user data is filtered by the owner id: the
// application enforces authorization at this layer, not in the database.
type Store interface {
	// users
	SaveUser(domain.User) error
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)
	DeleteUser(id string) error

	// tasks
	SaveTask(domain.Task) error
	ListTasksByOwner(ownerID string) ([]domain.Task, error)
	GetTask(ownerID, id string) (domain.Task, bool, error)
	DeleteTask(ownerID, id string) error
	DeleteTasksByOwner(ownerID string) error

	// notes
	SaveNote(domain.Note) error
	ListNotesByOwner(ownerID string) ([]domain.Note, error)
	GetNote(ownerID, id string) (domain.Note, bool, error)
	DeleteNote(ownerID, id string) error
	DeleteNotesByOwner(ownerID string) error

	// timetable
	SaveTimetableEntry(domain.TimetableEntry) error
	ListTimetableByOwner(ownerID string) ([]domain.TimetableEntry, error)
	GetTimetableEntry(ownerID, id string) (domain.TimetableEntry, bool, error)
	DeleteTimetableEntry(ownerID, id string) error
	DeleteTimetableByOwner(ownerID string) error

	// study logs
	SaveStudyLog(domain.StudyLog) error
	ListStudyLogsByOwner(ownerID string) ([]domain.StudyLog, error)
	DeleteStudyLog(ownerID, id string) error
	DeleteStudyLogsByOwner(ownerID string) error

	// resources
	SaveResource(domain.Resource) error
	ListResourcesByOwner(ownerID string) ([]domain.Resource, error)
	GetResource(ownerID, id string) (domain.Resource, bool, error)
	DeleteResource(ownerID, id string) error
	DeleteResourcesByOwner(ownerID string) error

	// bookmarks
	SaveBookmark(domain.Bookmark) error
	ListBookmarksByOwner(ownerID string) ([]domain.Bookmark, error)
	DeleteBookmark(ownerID, id string) error
	DeleteBookmarksByOwner(ownerID string) error
	DeleteBookmarksByResource(resourceID string) error

	// conversations & messages
	CreateConversation(domain.Conversation) error
	GetConversation(ownerID, id string) (domain.Conversation, bool, error)
	ListConversationsByOwner(ownerID string, limit int) ([]domain.Conversation, error)
	TouchConversation(id string) error
	DeleteConversationsByOwner(ownerID string) error
	AppendMessage(domain.Message) error
	ListConversationMessages(conversationID string, limit int) ([]domain.Message, error)
	DeleteMessagesByOwner(ownerID string) error
}

// SessionStore persists session tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
