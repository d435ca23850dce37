package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"studyhub/internal/app"
	"studyhub/internal/security"
	"studyhub/pkg/domain"
)

type chatRequest struct {
	ConversationID string         `json:"conversationId"`
	Messages       []app.ChatTurn `json:"messages"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.Method {
	case http.MethodPost:
		if !s.allowRate(w, r, "chat") {
			return
		}
		s.handleChatStream(w, r, user)
	case http.MethodGet:
		if !s.allowRate(w, r, "api") {
			return
		}
		s.handleChatHistory(w, r, user)
	default:
		methodNotAllowed(w)
	}
}

// handleChatStream streams the model reply as plain text chunks. The
// conversation ID goes out in a header before the first byte of the body,
// so a client starting a fresh conversation learns its ID immediately.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, int64(security.MaxRequestSize))).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	flusher, canFlush := w.(http.Flusher)

	started := false
	start := func(conversationID string) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Conversation-Id", conversationID)
		w.WriteHeader(http.StatusOK)
		started = true
	}

	onStart := func(conv domain.Conversation) {
		start(conv.ID)
	}
	onDelta := func(delta string) error {
		if _, err := io.WriteString(w, delta); err != nil {
			return err
		}
		if canFlush {
			flusher.Flush()
		}
		return nil
	}

	conv, _, err := s.app.StreamChat(r.Context(), user.ID, req.ConversationID, req.Messages, onStart, onDelta)
	if err != nil && !started {
		s.audit(r, "chat", "fail")
		writeAppError(w, err)
		return
	}
	if err != nil {
		// Mid-stream failure: the status line is gone, just stop writing.
		s.audit(r, "chat", "fail", "conversation_id", conv.ID, "error", err.Error())
	}
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request, user domain.User) {
	conversationID := r.URL.Query().Get("conversationId")
	if conversationID == "" {
		writeError(w, http.StatusBadRequest, "conversationId is required")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	conv, err := s.app.Conversation(user.ID, conversationID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	messages, err := s.app.ConversationMessages(user.ID, conversationID, limit)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"conversation": conv,
		"items":        messages,
		"count":        len(messages),
	})
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	conversations, err := s.app.ListConversations(user.ID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": conversations, "count": len(conversations)})
}
