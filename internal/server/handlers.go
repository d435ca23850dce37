package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"studyhub/internal/app"
	"studyhub/pkg/domain"
)

// auth handlers

type signupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	StudentID string `json:"studentId"`
	Program   string `json:"program"`
	Year      string `json:"year"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req signupRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, token, err := s.app.SignUp(app.SignUpInput{
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
		StudentID: req.StudentID,
		Program:   req.Program,
		Year:      req.Year,
	})
	if err != nil {
		s.audit(r, "signup", "fail")
		writeAppError(w, err)
		return
	}
	s.audit(r, "signup", "success", "user_id", user.ID)
	setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, token, err := s.app.Login(req.Email, req.Password)
	if err != nil {
		s.audit(r, "login", "fail")
		writeAppError(w, err)
		return
	}
	s.audit(r, "login", "success", "user_id", user.ID)
	setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	token, ok := sessionToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := s.app.Logout(token); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func (s *Server) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.app.RequestPasswordReset(req.Email); err != nil {
		writeAppError(w, err)
		return
	}
	// Same acknowledgement whether or not the account exists.
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type updateProfileRequest struct {
	Name      *string `json:"name"`
	StudentID *string `json:"studentId"`
	Program   *string `json:"program"`
	Year      *string `json:"year"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, user)
	case http.MethodPatch:
		var req updateProfileRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		updated, err := s.app.UpdateProfile(user.ID, app.ProfileInput{
			Name:      req.Name,
			StudentID: req.StudentID,
			Program:   req.Program,
			Year:      req.Year,
		})
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case http.MethodDelete:
		if err := s.app.DeleteAccount(r.Context(), user.ID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		s.audit(r, "account_delete", "success", "user_id", user.ID)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "currentPassword and newPassword are required")
		return
	}
	if err := s.app.ChangePassword(user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		s.audit(r, "password_change", "fail", "user_id", user.ID)
		writeAppError(w, err)
		return
	}
	s.audit(r, "password_change", "success", "user_id", user.ID)
	w.WriteHeader(http.StatusNoContent)
}

// task handlers

type taskRequest struct {
	Title    string `json:"title"`
	DueDate  string `json:"dueDate"`
	Priority string `json:"priority"`
	Status   string `json:"status"`
}

func (req taskRequest) toInput() (app.TaskInput, error) {
	in := app.TaskInput{
		Title:    req.Title,
		Priority: domain.TaskPriority(req.Priority),
		Status:   domain.TaskStatus(req.Status),
	}
	if req.DueDate != "" {
		due, err := time.Parse(time.RFC3339, req.DueDate)
		if err != nil {
			return app.TaskInput{}, err
		}
		in.DueDate = due
	}
	return in, nil
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		tasks, err := s.app.ListTasks(user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": tasks, "count": len(tasks)})
	case http.MethodPost:
		var req taskRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		in, err := req.toInput()
		if err != nil {
			writeError(w, http.StatusBadRequest, "dueDate must be RFC 3339")
			return
		}
		task, err := s.app.CreateTask(user.ID, in)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, task)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleTaskByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	id, ok := pathID(r, "/api/tasks/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodPatch, http.MethodPut:
		var req taskRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		in, err := req.toInput()
		if err != nil {
			writeError(w, http.StatusBadRequest, "dueDate must be RFC 3339")
			return
		}
		task, err := s.app.UpdateTask(user.ID, id, in)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, task)
	case http.MethodDelete:
		if err := s.app.DeleteTask(user.ID, id); err != nil {
			writeAppError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

// note handlers

type noteRequest struct {
	Content *string `json:"content"`
	Pinned  *bool   `json:"pinned"`
}

func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		notes, err := s.app.ListNotes(user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": notes, "count": len(notes)})
	case http.MethodPost:
		var req noteRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		content := ""
		if req.Content != nil {
			content = *req.Content
		}
		pinned := req.Pinned != nil && *req.Pinned
		note, err := s.app.CreateNote(user.ID, content, pinned)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, note)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleNoteByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	id, ok := pathID(r, "/api/notes/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodPatch, http.MethodPut:
		var req noteRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		note, err := s.app.UpdateNote(user.ID, id, req.Content, req.Pinned)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, note)
	case http.MethodDelete:
		if err := s.app.DeleteNote(user.ID, id); err != nil {
			writeAppError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

// timetable handlers

type timetableRequest struct {
	Title     string `json:"title"`
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

func (req timetableRequest) toInput() app.TimetableInput {
	return app.TimetableInput{
		Title:     req.Title,
		Day:       domain.Weekday(strings.ToLower(req.Day)),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
}

type timetableResponse struct {
	Entry   domain.TimetableEntry `json:"entry"`
	Warning string                `json:"warning,omitempty"`
}

func (s *Server) handleTimetable(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		entries, err := s.app.ListTimetable(user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": entries, "count": len(entries)})
	case http.MethodPost:
		var req timetableRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		result, err := s.app.CreateTimetableEntry(user.ID, req.toInput())
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, timetableResponse{Entry: result.Entry, Warning: result.Warning})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleTimetableByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	id, ok := pathID(r, "/api/timetable/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodPatch, http.MethodPut:
		var req timetableRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		result, err := s.app.UpdateTimetableEntry(user.ID, id, req.toInput())
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, timetableResponse{Entry: result.Entry, Warning: result.Warning})
	case http.MethodDelete:
		if err := s.app.DeleteTimetableEntry(user.ID, id); err != nil {
			writeAppError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

// study log handlers

func (s *Server) handleStudyLogs(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		logs, err := s.app.ListStudyLogs(user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": logs, "count": len(logs)})
	case http.MethodPost:
		var req struct {
			Topic           string `json:"topic"`
			DurationMinutes int    `json:"durationMinutes"`
			Productivity    int    `json:"productivity"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		entry, err := s.app.LogStudySession(user.ID, req.Topic, req.DurationMinutes, req.Productivity)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, entry)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleStudyLogByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	id, ok := pathID(r, "/api/study-logs/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if err := s.app.DeleteStudyLog(user.ID, id); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// bookmark handlers

func (s *Server) handleBookmarks(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodGet:
		bookmarks, err := s.app.ListBookmarks(user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": bookmarks, "count": len(bookmarks)})
	case http.MethodPost:
		var req struct {
			ResourceID string `json:"resourceId"`
		}
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		bookmark, err := s.app.AddBookmark(user.ID, req.ResourceID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, bookmark)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleBookmarkByID(w http.ResponseWriter, r *http.Request, user domain.User) {
	id, ok := pathID(r, "/api/bookmarks/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if err := s.app.RemoveBookmark(user.ID, id); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
