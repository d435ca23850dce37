package store

import (
	"sort"
	"sync"
	"time"

	"studyhub/pkg/domain"
)

// MemoryStore is an in-memory Store used by tests and local development.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string]domain.User
	tasks         map[string]domain.Task
	notes         map[string]domain.Note
	timetable     map[string]domain.TimetableEntry
	studyLogs     map[string]domain.StudyLog
	resources     map[string]domain.Resource
	bookmarks     map[string]domain.Bookmark
	conversations map[string]domain.Conversation
	messages      map[string][]domain.Message
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]domain.User),
		tasks:         make(map[string]domain.Task),
		notes:         make(map[string]domain.Note),
		timetable:     make(map[string]domain.TimetableEntry),
		studyLogs:     make(map[string]domain.StudyLog),
		resources:     make(map[string]domain.Resource),
		bookmarks:     make(map[string]domain.Bookmark),
		conversations: make(map[string]domain.Conversation),
		messages:      make(map[string][]domain.Message),
	}
}

func (s *MemoryStore) SaveUser(u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *MemoryStore) HasUserEmail(email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}

func (s *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok, nil
}

func (s *MemoryStore) DeleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) SaveTask(t domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
	return nil
}

func (s *MemoryStore) ListTasksByOwner(ownerID string) ([]domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []domain.Task
	for _, t := range s.tasks {
		if t.UserID == ownerID {
			res = append(res, t)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].DueDate.Before(res[j].DueDate) })
	return res, nil
}

func (s *MemoryStore) GetTask(ownerID, id string) (domain.Task, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok || t.UserID != ownerID {
		return domain.Task{}, false, nil
	}
	return t, true, nil
}

func (s *MemoryStore) DeleteTask(ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok && t.UserID == ownerID {
		delete(s.tasks, id)
	}
	return nil
}

func (s *MemoryStore) DeleteTasksByOwner(ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.tasks {
		if t.UserID == ownerID {
			delete(s.tasks, id)
		}
	}
	return nil
}

func (s *MemoryStore) SaveNote(n domain.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes[n.ID] = n
	return nil
}

func (s *MemoryStore) ListNotesByOwner(ownerID string) ([]domain.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []domain.Note
	for _, n := range s.notes {
		if n.UserID == ownerID {
			res = append(res, n)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Pinned != res[j].Pinned {
			return res[i].Pinned
		}
		return res[i].UpdatedAt.After(res[j].UpdatedAt)
	})
	return res, nil
}

func (s *MemoryStore) GetNote(ownerID, id string) (domain.Note, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[id]
	if !ok || n.UserID != ownerID {
		return domain.Note{}, false, nil
	}
	return n, true, nil
}

func (s *MemoryStore) DeleteNote(ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.notes[id]; ok && n.UserID == ownerID {
		delete(s.notes, id)
	}
	return nil
}

func (s *MemoryStore) DeleteNotesByOwner(ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, n := range s.notes {
		if n.UserID == ownerID {
			delete(s.notes, id)
		}
	}
	return nil
}

func (s *MemoryStore) SaveTimetableEntry(e domain.TimetableEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timetable[e.ID] = e
	return nil
}

func (s *MemoryStore) ListTimetableByOwner(ownerID string) ([]domain.TimetableEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []domain.TimetableEntry
	for _, e := range s.timetable {
		if e.UserID == ownerID {
			res = append(res, e)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Day != res[j].Day {
			return res[i].Day < res[j].Day
		}
		return res[i].StartTime < res[j].StartTime
	})
	return res, nil
}

func (s *MemoryStore) GetTimetableEntry(ownerID, id string) (domain.TimetableEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.timetable[id]
	if !ok || e.UserID != ownerID {
		return domain.TimetableEntry{}, false, nil
	}
	return e, true, nil
}

func (s *MemoryStore) DeleteTimetableEntry(ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.timetable[id]; ok && e.UserID == ownerID {
		delete(s.timetable, id)
	}
	return nil
}

func (s *MemoryStore) DeleteTimetableByOwner(ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.timetable {
		if e.UserID == ownerID {
			delete(s.timetable, id)
		}
	}
	return nil
}

func (s *MemoryStore) SaveStudyLog(l domain.StudyLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.studyLogs[l.ID] = l
	return nil
}

func (s *MemoryStore) ListStudyLogsByOwner(ownerID string) ([]domain.StudyLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []domain.StudyLog
	for _, l := range s.studyLogs {
		if l.UserID == ownerID {
			res = append(res, l)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Timestamp.After(res[j].Timestamp) })
	return res, nil
}

func (s *MemoryStore) DeleteStudyLog(ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.studyLogs[id]; ok && l.UserID == ownerID {
		delete(s.studyLogs, id)
	}
	return nil
}

func (s *MemoryStore) DeleteStudyLogsByOwner(ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, l := range s.studyLogs {
		if l.UserID == ownerID {
			delete(s.studyLogs, id)
		}
	}
	return nil
}

func (s *MemoryStore) SaveResource(r domain.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[r.ID] = r
	return nil
}

func (s *MemoryStore) ListResourcesByOwner(ownerID string) ([]domain.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []domain.Resource
	for _, r := range s.resources {
		if r.UploaderID == ownerID {
			res = append(res, r)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].UploadedAt.After(res[j].UploadedAt) })
	return res, nil
}

func (s *MemoryStore) GetResource(ownerID, id string) (domain.Resource, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resources[id]
	if !ok || r.UploaderID != ownerID {
		return domain.Resource{}, false, nil
	}
	return r, true, nil
}

func (s *MemoryStore) DeleteResource(ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.resources[id]; ok && r.UploaderID == ownerID {
		delete(s.resources, id)
	}
	return nil
}

func (s *MemoryStore) DeleteResourcesByOwner(ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.resources {
		if r.UploaderID == ownerID {
			delete(s.resources, id)
		}
	}
	return nil
}

func (s *MemoryStore) SaveBookmark(b domain.Bookmark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.bookmarks {
		if existing.UserID == b.UserID && existing.ResourceID == b.ResourceID {
			return nil
		}
	}
	s.bookmarks[b.ID] = b
	return nil
}

func (s *MemoryStore) ListBookmarksByOwner(ownerID string) ([]domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []domain.Bookmark
	for _, b := range s.bookmarks {
		if b.UserID == ownerID {
			res = append(res, b)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (s *MemoryStore) DeleteBookmark(ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bookmarks[id]; ok && b.UserID == ownerID {
		delete(s.bookmarks, id)
	}
	return nil
}

func (s *MemoryStore) DeleteBookmarksByOwner(ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, b := range s.bookmarks {
		if b.UserID == ownerID {
			delete(s.bookmarks, id)
		}
	}
	return nil
}

func (s *MemoryStore) DeleteBookmarksByResource(resourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, b := range s.bookmarks {
		if b.ResourceID == resourceID {
			delete(s.bookmarks, id)
		}
	}
	return nil
}

func (s *MemoryStore) CreateConversation(c domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[c.ID] = c
	return nil
}

func (s *MemoryStore) GetConversation(ownerID, id string) (domain.Conversation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	if !ok || c.UserID != ownerID {
		return domain.Conversation{}, false, nil
	}
	return c, true, nil
}

func (s *MemoryStore) ListConversationsByOwner(ownerID string, limit int) ([]domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []domain.Conversation
	for _, c := range s.conversations {
		if c.UserID == ownerID {
			res = append(res, c)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].UpdatedAt.After(res[j].UpdatedAt) })
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (s *MemoryStore) TouchConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.conversations[id]; ok {
		c.UpdatedAt = time.Now().UTC()
		s.conversations[id] = c
	}
	return nil
}

func (s *MemoryStore) DeleteConversationsByOwner(ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.conversations {
		if c.UserID == ownerID {
			delete(s.conversations, id)
		}
	}
	return nil
}

func (s *MemoryStore) AppendMessage(msg domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], msg)
	return nil
}

func (s *MemoryStore) ListConversationMessages(conversationID string, limit int) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[conversationID]
	res := make([]domain.Message, len(msgs))
	copy(res, msgs)
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (s *MemoryStore) DeleteMessagesByOwner(ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for convID, msgs := range s.messages {
		var kept []domain.Message
		for _, m := range msgs {
			if m.UserID != ownerID {
				kept = append(kept, m)
			}
		}
		if len(kept) == 0 {
			delete(s.messages, convID)
		} else {
			s.messages[convID] = kept
		}
	}
	return nil
}
