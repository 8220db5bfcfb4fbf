// Package client consumes the knoflo chat stream: it submits one turn,
// decodes the SSE response incrementally, and keeps the conversation
// transcript up to date while fragments arrive.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"knoflo/knoflo/services/llm"
	"knoflo/knoflo/utils/types"
)

// FallbackReply replaces the assistant's entry whenever a turn fails; partial
// streamed text is never shown as a final answer.
const FallbackReply = "Sorry, I encountered an error. Please try again."

const dataPrefix = "data: "

var ErrTurnInFlight = errors.New("a turn is already in flight")

// greetings is the fixed opening line per study mode, shown on every reset.
var greetings = map[llm.StudyMode]string{
	llm.ModeQuiz:      "I'm ready to quiz you! Let's start with the first question.",
	llm.ModeExplain:   "I'll help you understand your notes better. What would you like me to explain?",
	llm.ModeFlashcard: "Let's study with flashcards! I'll show you terms one at a time. Ready for the first one?",
	llm.ModeGeneral:   "I'm here to help you study. Ask me anything about your notes!",
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		// Streams run as long as the model talks; ctx cancels, not a timeout.
		httpc: &http.Client{Timeout: 0},
	}
}

// Conversation holds one transcript plus the session id handed back by the
// relay. Not safe for concurrent use; one turn at a time by design.
type Conversation struct {
	client    *Client
	mode      llm.StudyMode
	noteID    string
	sessionID string
	messages  []Message
	loading   bool
	dropped   int
}

func (c *Client) NewConversation(mode llm.StudyMode, noteID string) *Conversation {
	conv := &Conversation{client: c, mode: mode, noteID: noteID}
	conv.reset()
	return conv
}

// SetMode switches the study mode. The transcript and session are discarded:
// the next turn opens a fresh session with the new binding.
func (conv *Conversation) SetMode(mode llm.StudyMode) {
	conv.mode = mode
	conv.reset()
}

// SetNote rebinds the conversation to another note, discarding state the same
// way a mode switch does.
func (conv *Conversation) SetNote(noteID string) {
	conv.noteID = noteID
	conv.reset()
}

func (conv *Conversation) reset() {
	conv.messages = conv.messages[:0]
	conv.sessionID = ""
	if greeting, ok := greetings[conv.mode]; ok {
		conv.messages = append(conv.messages, Message{Role: "assistant", Content: greeting})
	}
}

func (conv *Conversation) Mode() llm.StudyMode { return conv.mode }
func (conv *Conversation) SessionID() string   { return conv.sessionID }
func (conv *Conversation) Loading() bool       { return conv.loading }

// Dropped reports how many malformed stream lines were skipped so far.
func (conv *Conversation) Dropped() int { return conv.dropped }

// Messages returns a copy of the transcript.
func (conv *Conversation) Messages() []Message {
	out := make([]Message, len(conv.messages))
	copy(out, conv.messages)
	return out
}

// Send submits one user turn and blocks while the reply streams in. onDelta,
// if non-nil, is called for every text fragment as it lands; the transcript's
// last entry always holds the full accumulated reply. On any failure the
// transcript ends with FallbackReply and the error is returned.
func (conv *Conversation) Send(ctx context.Context, content string, onDelta func(delta string)) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if conv.loading {
		return ErrTurnInFlight
	}
	conv.loading = true
	defer func() { conv.loading = false }()

	conv.messages = append(conv.messages, Message{Role: "user", Content: content})

	body := types.ChatStreamRequest{
		Messages:  conv.turns(),
		NoteID:    conv.noteID,
		Mode:      string(conv.mode),
		SessionID: conv.sessionID,
	}
	resp, err := conv.client.postStream(ctx, "/chat/stream", body)
	if err != nil {
		conv.fail()
		return err
	}
	defer resp.Body.Close()

	// Placeholder entry; each fragment replaces its content with the
	// accumulated reply so far.
	conv.messages = append(conv.messages, Message{Role: "assistant"})

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 2*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		var ev types.StreamEvent
		if err := json.Unmarshal([]byte(line[len(dataPrefix):]), &ev); err != nil {
			conv.dropped++
			continue
		}
		switch {
		case ev.Error != "":
			conv.fail()
			return errors.New(ev.Error)
		case ev.Done:
			if ev.SessionID != "" {
				conv.sessionID = ev.SessionID
			}
		case ev.Text != "":
			full.WriteString(ev.Text)
			conv.messages[len(conv.messages)-1].Content = full.String()
			if onDelta != nil {
				onDelta(ev.Text)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		conv.fail()
		return err
	}
	return nil
}

// fail puts the fixed fallback text where the reply belongs.
func (conv *Conversation) fail() {
	if n := len(conv.messages); n > 0 && conv.messages[n-1].Role == "assistant" {
		conv.messages[n-1].Content = FallbackReply
		return
	}
	conv.messages = append(conv.messages, Message{Role: "assistant", Content: FallbackReply})
}

func (conv *Conversation) turns() []types.ChatTurn {
	out := make([]types.ChatTurn, len(conv.messages))
	for i, m := range conv.messages {
		out[i] = types.ChatTurn{Role: m.Role, Content: m.Content}
	}
	return out
}

func (c *Client) postStream(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, fmt.Errorf("bad status: %d", resp.StatusCode)
	}
	return resp, nil
}

// Login fetches a token for username, creating the account on first use.
func Login(ctx context.Context, baseURL, username string) (string, error) {
	payload, err := json.Marshal(map[string]string{"username": username})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(baseURL, "/")+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	httpc := &http.Client{Timeout: 15 * time.Second}
	resp, err := httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %d", resp.StatusCode)
	}
	var decoded struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	return decoded.Token, nil
}
