package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"studyhub/internal/security"
	"studyhub/pkg/ai"
	"studyhub/pkg/domain"
)

const academicSystemPrompt = `You are an AI academic assistant designed to help university students with their studies. Please provide helpful, accurate, and educational responses. Focus on:
- Clear explanations
- Educational value
- Academic integrity
- Constructive learning

Avoid providing direct answers to homework/exam questions that could encourage cheating. Instead, guide students to understand concepts. Be encouraging and supportive while maintaining high academic standards.`

const conversationTitleLen = 50

// extractedFilePrefix marks messages carrying extracted file content, which
// are exempt from the suspicious-input check (extracted text legitimately
// contains markup and code).
const extractedFilePrefix = "📁"

// ChatTurn is one message of the client-supplied conversation context.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamChat validates the conversation context, persists the latest user
// message, streams the model reply through onDelta and persists the reply
// once the stream ends. onStart runs once the conversation is resolved,
// before any delta, so callers can announce its ID ahead of the stream.
// A partial reply is still persisted if the stream is cut short, so the
// transcript matches what the client saw.
func (a *App) StreamChat(ctx context.Context, userID, conversationID string, turns []ChatTurn, onStart func(domain.Conversation), onDelta func(string) error) (domain.Conversation, string, error) {
	if len(turns) == 0 {
		return domain.Conversation{}, "", ErrInvalidMessage
	}
	for i := range turns {
		switch turns[i].Role {
		case "user", "assistant", "system":
		default:
			return domain.Conversation{}, "", ErrInvalidMessage
		}
		if !security.ValidMessage(turns[i].Content) {
			return domain.Conversation{}, "", ErrInvalidMessage
		}
		if !strings.HasPrefix(turns[i].Content, extractedFilePrefix) && security.DetectSuspiciousInput(turns[i].Content) {
			return domain.Conversation{}, "", ErrSuspiciousInput
		}
		turns[i].Content = security.SanitizeText(turns[i].Content)
	}
	if conversationID != "" && !security.ValidUUID(conversationID) {
		return domain.Conversation{}, "", ErrNotFound
	}

	last := turns[len(turns)-1]

	var conv domain.Conversation
	if conversationID == "" {
		now := time.Now().UTC()
		conv = domain.Conversation{
			ID:        uuid.NewString(),
			UserID:    userID,
			Title:     deriveTitle(last.Content),
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := a.store.CreateConversation(conv); err != nil {
			return domain.Conversation{}, "", fmt.Errorf("create conversation: %w", err)
		}
	} else {
		existing, ok, err := a.store.GetConversation(userID, conversationID)
		if err != nil {
			return domain.Conversation{}, "", fmt.Errorf("get conversation: %w", err)
		}
		if !ok {
			return domain.Conversation{}, "", ErrNotFound
		}
		conv = existing
	}

	if last.Role == "user" {
		if err := a.store.AppendMessage(domain.Message{
			ID:             uuid.NewString(),
			ConversationID: conv.ID,
			UserID:         userID,
			Role:           domain.RoleUser,
			Content:        last.Content,
			MessageType:    "text",
			CreatedAt:      time.Now().UTC(),
		}); err != nil {
			return domain.Conversation{}, "", fmt.Errorf("save user message: %w", err)
		}
	}

	if onStart != nil {
		onStart(conv)
	}

	history := make([]ai.ChatMessage, 0, len(turns))
	for _, turn := range turns {
		history = append(history, ai.ChatMessage{Role: turn.Role, Content: turn.Content})
	}

	var reply strings.Builder
	streamErr := a.generator.StreamText(ctx, academicSystemPrompt, history, func(delta string) error {
		reply.WriteString(delta)
		return onDelta(delta)
	})

	// Whatever reached the client belongs in the transcript, even when the
	// stream was aborted. Persistence failures are logged, not surfaced,
	// since the reply was already delivered.
	if reply.Len() > 0 {
		if err := a.store.AppendMessage(domain.Message{
			ID:             uuid.NewString(),
			ConversationID: conv.ID,
			UserID:         userID,
			Role:           domain.RoleAssistant,
			Content:        reply.String(),
			MessageType:    "text",
			CreatedAt:      time.Now().UTC(),
		}); err != nil {
			slog.Error("save assistant message failed", "conversation_id", conv.ID, "error", err)
		}
		if err := a.store.TouchConversation(conv.ID); err != nil {
			slog.Error("touch conversation failed", "conversation_id", conv.ID, "error", err)
		}
	}

	return conv, reply.String(), streamErr
}

// ListConversations returns the user's latest conversations.
func (a *App) ListConversations(userID string, limit int) ([]domain.Conversation, error) {
	return a.store.ListConversationsByOwner(userID, limit)
}

// Conversation returns one of the user's conversations.
func (a *App) Conversation(userID, conversationID string) (domain.Conversation, error) {
	if !security.ValidUUID(conversationID) {
		return domain.Conversation{}, ErrNotFound
	}
	conv, ok, err := a.store.GetConversation(userID, conversationID)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	if !ok {
		return domain.Conversation{}, ErrNotFound
	}
	return conv, nil
}

// ConversationMessages returns a conversation's transcript, oldest first.
// The conversation must belong to the user.
func (a *App) ConversationMessages(userID, conversationID string, limit int) ([]domain.Message, error) {
	if _, err := a.Conversation(userID, conversationID); err != nil {
		return nil, err
	}
	return a.store.ListConversationMessages(conversationID, limit)
}

func deriveTitle(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return "New Chat"
	}
	runes := []rune(content)
	if len(runes) <= conversationTitleLen {
		return content
	}
	return string(runes[:conversationTitleLen]) + "..."
}
