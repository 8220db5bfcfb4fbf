// knoflo/controllers/chat.go
package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"knoflo/knoflo/metrics"
	"knoflo/knoflo/services/llm"
	"knoflo/knoflo/sources/psql/dao"
	"knoflo/knoflo/sources/psql/models"
	"knoflo/knoflo/utils/logging"
	"knoflo/knoflo/utils/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidSessionID = errors.New("invalid session id")
	ErrSessionNotFound  = errors.New("session not found or forbidden")
)

// backendFailureMessage is the terminal error payload; backend details stay
// in the logs.
const backendFailureMessage = "Failed to generate response. Make sure the model backend is running."

type ChatController struct {
	chatDAO *dao.ChatDAO
	noteDAO *dao.NoteDAO
	client  *llm.OllamaClient
}

func NewChatController(chatDAO *dao.ChatDAO, noteDAO *dao.NoteDAO, client *llm.OllamaClient) *ChatController {
	return &ChatController{chatDAO: chatDAO, noteDAO: noteDAO, client: client}
}

// noteContext fetches the note's title and plain text for the system prompt.
// Any miss (bad id, missing row, someone else's note) yields empty context.
func (c *ChatController) noteContext(ctx context.Context, userID int, noteID string) string {
	if noteID == "" {
		return ""
	}
	id, err := uuid.Parse(noteID)
	if err != nil {
		return ""
	}
	note, err := c.noteDAO.GetNoteByID(ctx, id)
	if err != nil || note == nil || note.UserID != userID {
		return ""
	}
	return "Title: " + note.Title + "\n\n" + note.PlainText
}

// ChatStream runs one conversation turn. Everything that can fail before a
// byte is streamed (session create, user-turn persist, bad session id)
// happens synchronously and returns an error; after that the returned channel
// carries zero or more text events followed by exactly one terminal event.
func (c *ChatController) ChatStream(ctx context.Context, userID int, req types.ChatStreamRequest) (<-chan types.StreamEvent, error) {
	mode := llm.ParseMode(req.Mode)
	noteContent := c.noteContext(ctx, userID, req.NoteID)
	systemPrompt := llm.BuildSystemPrompt(mode, noteContent)

	var sessionID uuid.UUID
	if req.SessionID == "" {
		var noteID *uuid.UUID
		if id, err := uuid.Parse(req.NoteID); err == nil && req.NoteID != "" {
			noteID = &id
		}
		session, err := c.chatDAO.CreateSession(ctx, userID, noteID, string(mode))
		if err != nil {
			return nil, err
		}
		sessionID = session.ID
	} else {
		id, err := uuid.Parse(req.SessionID)
		if err != nil {
			return nil, ErrInvalidSessionID
		}
		sessionID = id
	}

	// Persist the latest user turn before contacting the backend. A history
	// that does not end in a user turn persists nothing.
	if n := len(req.Messages); n > 0 && req.Messages[n-1].Role == "user" {
		if _, err := c.chatDAO.SaveMessage(ctx, sessionID, "user", req.Messages[n-1].Content); err != nil {
			return nil, err
		}
	}

	llmMessages := make([]llm.Message, 0, len(req.Messages)+1)
	llmMessages = append(llmMessages, llm.Message{Role: "system", Content: systemPrompt})
	for _, m := range req.Messages {
		llmMessages = append(llmMessages, llm.Message{Role: m.Role, Content: m.Content})
	}

	out := make(chan types.StreamEvent, 16)

	go func() {
		defer close(out)

		metrics.Global().StreamsStarted.Inc()
		chunks, errs := c.client.RunStream(ctx, llmMessages)

		var full strings.Builder
		for chunk := range chunks {
			full.WriteString(chunk)
			select {
			case out <- types.StreamEvent{Text: chunk}:
			case <-ctx.Done():
				// Client went away; drop the turn without persisting.
				metrics.Global().StreamsFailed.Inc()
				return
			}
		}

		if err := <-errs; err != nil {
			metrics.Global().StreamsFailed.Inc()
			if errors.Is(err, context.Canceled) {
				return
			}
			logging.ErrorLogger.Error("chat stream backend error",
				zap.String("session_id", sessionID.String()), zap.Error(err))
			select {
			case out <- types.StreamEvent{Error: backendFailureMessage}:
			case <-ctx.Done():
			}
			return
		}

		// Save the assistant turn after streaming completes. Persistence
		// failure is logged and counted but does not downgrade the terminal
		// event; the client already holds the full answer.
		if full.Len() > 0 {
			persistCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if _, err := c.chatDAO.SaveMessage(persistCtx, sessionID, "assistant", full.String()); err != nil {
				metrics.Global().PersistFailures.Inc()
				logging.ErrorLogger.Error("assistant turn persist failed",
					zap.String("session_id", sessionID.String()), zap.Error(err))
			}
		}

		select {
		case out <- types.StreamEvent{Done: true, SessionID: sessionID.String()}:
			metrics.Global().StreamsCompleted.Inc()
		case <-ctx.Done():
			metrics.Global().StreamsFailed.Inc()
		}
	}()

	return out, nil
}

func (c *ChatController) ListSessions(ctx context.Context, userID int) ([]models.ChatSession, error) {
	return c.chatDAO.GetSessionsByUser(ctx, userID)
}

func (c *ChatController) GetMessagesForSession(ctx context.Context, userID int, sessionID string) ([]models.ChatMessage, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, ErrInvalidSessionID
	}
	session, err := c.chatDAO.GetSessionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return c.chatDAO.GetSessionMessages(ctx, id)
}

func (c *ChatController) DeleteSession(ctx context.Context, userID int, sessionID string) error {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return ErrInvalidSessionID
	}
	if err := c.chatDAO.DeleteSession(ctx, userID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}
