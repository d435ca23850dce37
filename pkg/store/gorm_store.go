package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"studyhub/pkg/domain"
)

const migrateLockID int64 = 48214821

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		return tx.AutoMigrate(
			&UserModel{},
			&TaskModel{},
			&NoteModel{},
			&TimetableEntryModel{},
			&StudyLogModel{},
			&ResourceModel{},
			&BookmarkModel{},
			&ConversationModel{},
			&MessageModel{},
		)
	}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// users

// SaveUser registers or updates a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "name", "student_id", "program", "year", "password_hash", "updated_at"}),
	}).Create(&model).Error
}

// HasUserEmail checks if email exists.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// DeleteUser removes the user row.
func (s *GormStore) DeleteUser(id string) error {
	return s.db.Delete(&UserModel{}, "id = ?", id).Error
}

// tasks

// SaveTask stores or updates a task.
func (s *GormStore) SaveTask(t domain.Task) error {
	model := taskToModel(t)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "due_date", "priority", "status", "updated_at"}),
	}).Create(&model).Error
}

// ListTasksByOwner returns the owner's tasks ordered by due date.
func (s *GormStore) ListTasksByOwner(ownerID string) ([]domain.Task, error) {
	var models []TaskModel
	if err := s.db.Where("user_id = ?", ownerID).Order("due_date ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Task, 0, len(models))
	for _, m := range models {
		res = append(res, taskFromModel(m))
	}
	return res, nil
}

// GetTask retrieves one of the owner's tasks.
func (s *GormStore) GetTask(ownerID, id string) (domain.Task, bool, error) {
	var model TaskModel
	if err := s.db.Where("user_id = ?", ownerID).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Task{}, false, nil
		}
		return domain.Task{}, false, err
	}
	return taskFromModel(model), true, nil
}

// DeleteTask removes one of the owner's tasks.
func (s *GormStore) DeleteTask(ownerID, id string) error {
	return s.db.Where("user_id = ?", ownerID).Delete(&TaskModel{}, "id = ?", id).Error
}

// DeleteTasksByOwner removes every task of the owner.
func (s *GormStore) DeleteTasksByOwner(ownerID string) error {
	return s.db.Delete(&TaskModel{}, "user_id = ?", ownerID).Error
}

// notes

// SaveNote stores or updates a note (autosave upsert path).
func (s *GormStore) SaveNote(n domain.Note) error {
	model := noteToModel(n)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "pinned", "updated_at"}),
	}).Create(&model).Error
}

// ListNotesByOwner returns notes, pinned first, newest first within each group.
func (s *GormStore) ListNotesByOwner(ownerID string) ([]domain.Note, error) {
	var models []NoteModel
	if err := s.db.Where("user_id = ?", ownerID).
		Order("pinned DESC").
		Order("updated_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Note, 0, len(models))
	for _, m := range models {
		res = append(res, noteFromModel(m))
	}
	return res, nil
}

// GetNote retrieves one of the owner's notes.
func (s *GormStore) GetNote(ownerID, id string) (domain.Note, bool, error) {
	var model NoteModel
	if err := s.db.Where("user_id = ?", ownerID).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Note{}, false, nil
		}
		return domain.Note{}, false, err
	}
	return noteFromModel(model), true, nil
}

// DeleteNote removes one of the owner's notes.
func (s *GormStore) DeleteNote(ownerID, id string) error {
	return s.db.Where("user_id = ?", ownerID).Delete(&NoteModel{}, "id = ?", id).Error
}

// DeleteNotesByOwner removes every note of the owner.
func (s *GormStore) DeleteNotesByOwner(ownerID string) error {
	return s.db.Delete(&NoteModel{}, "user_id = ?", ownerID).Error
}

// timetable

// SaveTimetableEntry stores or updates a timetable entry.
func (s *GormStore) SaveTimetableEntry(e domain.TimetableEntry) error {
	model := timetableToModel(e)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "day", "start_time", "end_time", "updated_at"}),
	}).Create(&model).Error
}

// ListTimetableByOwner returns entries ordered by day then start time.
func (s *GormStore) ListTimetableByOwner(ownerID string) ([]domain.TimetableEntry, error) {
	var models []TimetableEntryModel
	if err := s.db.Where("user_id = ?", ownerID).
		Order("day ASC").
		Order("start_time ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.TimetableEntry, 0, len(models))
	for _, m := range models {
		res = append(res, timetableFromModel(m))
	}
	return res, nil
}

// GetTimetableEntry retrieves one of the owner's entries.
func (s *GormStore) GetTimetableEntry(ownerID, id string) (domain.TimetableEntry, bool, error) {
	var model TimetableEntryModel
	if err := s.db.Where("user_id = ?", ownerID).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.TimetableEntry{}, false, nil
		}
		return domain.TimetableEntry{}, false, err
	}
	return timetableFromModel(model), true, nil
}

// DeleteTimetableEntry removes one of the owner's entries.
func (s *GormStore) DeleteTimetableEntry(ownerID, id string) error {
	return s.db.Where("user_id = ?", ownerID).Delete(&TimetableEntryModel{}, "id = ?", id).Error
}

// DeleteTimetableByOwner removes every entry of the owner.
func (s *GormStore) DeleteTimetableByOwner(ownerID string) error {
	return s.db.Delete(&TimetableEntryModel{}, "user_id = ?", ownerID).Error
}

// study logs

// SaveStudyLog records a study session.
func (s *GormStore) SaveStudyLog(l domain.StudyLog) error {
	model := studyLogToModel(l)
	return s.db.Create(&model).Error
}

// ListStudyLogsByOwner returns logs newest first.
func (s *GormStore) ListStudyLogsByOwner(ownerID string) ([]domain.StudyLog, error) {
	var models []StudyLogModel
	if err := s.db.Where("user_id = ?", ownerID).Order("timestamp DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.StudyLog, 0, len(models))
	for _, m := range models {
		res = append(res, studyLogFromModel(m))
	}
	return res, nil
}

// DeleteStudyLog removes one of the owner's logs.
func (s *GormStore) DeleteStudyLog(ownerID, id string) error {
	return s.db.Where("user_id = ?", ownerID).Delete(&StudyLogModel{}, "id = ?", id).Error
}

// DeleteStudyLogsByOwner removes every log of the owner.
func (s *GormStore) DeleteStudyLogsByOwner(ownerID string) error {
	return s.db.Delete(&StudyLogModel{}, "user_id = ?", ownerID).Error
}

// resources

// SaveResource stores uploaded file metadata.
func (s *GormStore) SaveResource(r domain.Resource) error {
	model := resourceToModel(r)
	return s.db.Create(&model).Error
}

// ListResourcesByOwner returns the owner's uploads newest first.
func (s *GormStore) ListResourcesByOwner(ownerID string) ([]domain.Resource, error) {
	var models []ResourceModel
	if err := s.db.Where("uploader_id = ?", ownerID).Order("uploaded_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Resource, 0, len(models))
	for _, m := range models {
		res = append(res, resourceFromModel(m))
	}
	return res, nil
}

// GetResource retrieves one of the owner's uploads.
func (s *GormStore) GetResource(ownerID, id string) (domain.Resource, bool, error) {
	var model ResourceModel
	if err := s.db.Where("uploader_id = ?", ownerID).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Resource{}, false, nil
		}
		return domain.Resource{}, false, err
	}
	return resourceFromModel(model), true, nil
}

// DeleteResource removes one of the owner's uploads.
func (s *GormStore) DeleteResource(ownerID, id string) error {
	return s.db.Where("uploader_id = ?", ownerID).Delete(&ResourceModel{}, "id = ?", id).Error
}

// DeleteResourcesByOwner removes every upload of the owner.
func (s *GormStore) DeleteResourcesByOwner(ownerID string) error {
	return s.db.Delete(&ResourceModel{}, "uploader_id = ?", ownerID).Error
}

// bookmarks

// SaveBookmark joins the user to a resource.
func (s *GormStore) SaveBookmark(b domain.Bookmark) error {
	model := bookmarkToModel(b)
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&model).Error
}

// ListBookmarksByOwner returns the owner's bookmarks newest first.
func (s *GormStore) ListBookmarksByOwner(ownerID string) ([]domain.Bookmark, error) {
	var models []BookmarkModel
	if err := s.db.Where("user_id = ?", ownerID).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Bookmark, 0, len(models))
	for _, m := range models {
		res = append(res, bookmarkFromModel(m))
	}
	return res, nil
}

// DeleteBookmark removes one of the owner's bookmarks.
func (s *GormStore) DeleteBookmark(ownerID, id string) error {
	return s.db.Where("user_id = ?", ownerID).Delete(&BookmarkModel{}, "id = ?", id).Error
}

// DeleteBookmarksByOwner removes every bookmark of the owner.
func (s *GormStore) DeleteBookmarksByOwner(ownerID string) error {
	return s.db.Delete(&BookmarkModel{}, "user_id = ?", ownerID).Error
}

// DeleteBookmarksByResource removes all bookmarks pointing at a resource.
func (s *GormStore) DeleteBookmarksByResource(resourceID string) error {
	return s.db.Delete(&BookmarkModel{}, "resource_id = ?", resourceID).Error
}

// conversations & messages

// CreateConversation creates a new conversation record.
func (s *GormStore) CreateConversation(c domain.Conversation) error {
	model := conversationToModel(c)
	return s.db.Create(&model).Error
}

// GetConversation returns one of the owner's conversations.
func (s *GormStore) GetConversation(ownerID, id string) (domain.Conversation, bool, error) {
	var model ConversationModel
	if err := s.db.Where("user_id = ?", ownerID).First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Conversation{}, false, nil
		}
		return domain.Conversation{}, false, err
	}
	return conversationFromModel(model), true, nil
}

// ListConversationsByOwner returns the owner's latest conversations.
func (s *GormStore) ListConversationsByOwner(ownerID string, limit int) ([]domain.Conversation, error) {
	if limit <= 0 {
		limit = 100
	}
	var models []ConversationModel
	if err := s.db.Where("user_id = ?", ownerID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Conversation, 0, len(models))
	for _, m := range models {
		res = append(res, conversationFromModel(m))
	}
	return res, nil
}

// TouchConversation refreshes the conversation's updated_at timestamp.
func (s *GormStore) TouchConversation(id string) error {
	return s.db.Model(&ConversationModel{}).Where("id = ?", id).
		Update("updated_at", time.Now().UTC()).Error
}

// DeleteConversationsByOwner removes every conversation of the owner.
func (s *GormStore) DeleteConversationsByOwner(ownerID string) error {
	return s.db.Delete(&ConversationModel{}, "user_id = ?", ownerID).Error
}

// AppendMessage records a message.
func (s *GormStore) AppendMessage(msg domain.Message) error {
	model := messageToModel(msg)
	return s.db.Create(&model).Error
}

// ListConversationMessages returns messages in chronological order.
func (s *GormStore) ListConversationMessages(conversationID string, limit int) ([]domain.Message, error) {
	query := s.db.Where("conversation_id = ?", conversationID).Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var models []MessageModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Message, 0, len(models))
	for _, m := range models {
		res = append(res, messageFromModel(m))
	}
	return res, nil
}

// DeleteMessagesByOwner removes every message of the owner.
func (s *GormStore) DeleteMessagesByOwner(ownerID string) error {
	return s.db.Delete(&MessageModel{}, "user_id = ?", ownerID).Error
}

// converters

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		StudentID:    u.StudentID,
		Program:      u.Program,
		Year:         u.Year,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name,
		StudentID:    m.StudentID,
		Program:      m.Program,
		Year:         m.Year,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func taskToModel(t domain.Task) TaskModel {
	return TaskModel{
		ID:        t.ID,
		UserID:    t.UserID,
		Title:     t.Title,
		DueDate:   t.DueDate,
		Priority:  string(t.Priority),
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func taskFromModel(m TaskModel) domain.Task {
	return domain.Task{
		ID:        m.ID,
		UserID:    m.UserID,
		Title:     m.Title,
		DueDate:   m.DueDate,
		Priority:  domain.TaskPriority(m.Priority),
		Status:    domain.TaskStatus(m.Status),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func noteToModel(n domain.Note) NoteModel {
	return NoteModel{
		ID:        n.ID,
		UserID:    n.UserID,
		Content:   n.Content,
		Pinned:    n.Pinned,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func noteFromModel(m NoteModel) domain.Note {
	return domain.Note{
		ID:        m.ID,
		UserID:    m.UserID,
		Content:   m.Content,
		Pinned:    m.Pinned,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func timetableToModel(e domain.TimetableEntry) TimetableEntryModel {
	return TimetableEntryModel{
		ID:        e.ID,
		UserID:    e.UserID,
		Title:     e.Title,
		Day:       string(e.Day),
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func timetableFromModel(m TimetableEntryModel) domain.TimetableEntry {
	return domain.TimetableEntry{
		ID:        m.ID,
		UserID:    m.UserID,
		Title:     m.Title,
		Day:       domain.Weekday(m.Day),
		StartTime: m.StartTime,
		EndTime:   m.EndTime,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func studyLogToModel(l domain.StudyLog) StudyLogModel {
	return StudyLogModel{
		ID:           l.ID,
		UserID:       l.UserID,
		Topic:        l.Topic,
		DurationMins: l.DurationMins,
		Productivity: l.Productivity,
		Timestamp:    l.Timestamp,
	}
}

func studyLogFromModel(m StudyLogModel) domain.StudyLog {
	return domain.StudyLog{
		ID:           m.ID,
		UserID:       m.UserID,
		Topic:        m.Topic,
		DurationMins: m.DurationMins,
		Productivity: m.Productivity,
		Timestamp:    m.Timestamp,
	}
}

func resourceToModel(r domain.Resource) ResourceModel {
	rawTags, _ := json.Marshal(r.Tags)
	return ResourceModel{
		ID:          r.ID,
		UploaderID:  r.UploaderID,
		Title:       r.Title,
		Tags:        rawTags,
		URL:         r.URL,
		FileName:    r.FileName,
		FileSize:    r.FileSize,
		FileType:    r.FileType,
		StoragePath: r.StoragePath,
		UploadedAt:  r.UploadedAt,
	}
}

func resourceFromModel(m ResourceModel) domain.Resource {
	var tags []string
	if len(m.Tags) > 0 {
		_ = json.Unmarshal(m.Tags, &tags)
	}
	return domain.Resource{
		ID:          m.ID,
		UploaderID:  m.UploaderID,
		Title:       m.Title,
		Tags:        tags,
		URL:         m.URL,
		FileName:    m.FileName,
		FileSize:    m.FileSize,
		FileType:    m.FileType,
		StoragePath: m.StoragePath,
		UploadedAt:  m.UploadedAt,
	}
}

func bookmarkToModel(b domain.Bookmark) BookmarkModel {
	return BookmarkModel{
		ID:         b.ID,
		UserID:     b.UserID,
		ResourceID: b.ResourceID,
		CreatedAt:  b.CreatedAt,
	}
}

func bookmarkFromModel(m BookmarkModel) domain.Bookmark {
	return domain.Bookmark{
		ID:         m.ID,
		UserID:     m.UserID,
		ResourceID: m.ResourceID,
		CreatedAt:  m.CreatedAt,
	}
}

func conversationToModel(c domain.Conversation) ConversationModel {
	return ConversationModel{
		ID:        c.ID,
		UserID:    c.UserID,
		Title:     c.Title,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func conversationFromModel(m ConversationModel) domain.Conversation {
	return domain.Conversation{
		ID:        m.ID,
		UserID:    m.UserID,
		Title:     m.Title,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func messageToModel(msg domain.Message) MessageModel {
	meta, _ := json.Marshal(msg.Metadata)
	return MessageModel{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		UserID:         msg.UserID,
		Role:           string(msg.Role),
		Content:        msg.Content,
		MessageType:    msg.MessageType,
		Metadata:       meta,
		CreatedAt:      msg.CreatedAt,
	}
}

func messageFromModel(m MessageModel) domain.Message {
	var meta map[string]string
	if len(m.Metadata) > 0 {
		_ = json.Unmarshal(m.Metadata, &meta)
	}
	return domain.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		UserID:         m.UserID,
		Role:           domain.MessageRole(m.Role),
		Content:        m.Content,
		MessageType:    m.MessageType,
		Metadata:       meta,
		CreatedAt:      m.CreatedAt,
	}
}
