// knoflo/utils/types/chat.go
package types

// ChatTurn is one entry of the submitted conversation history.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatStreamRequest is the body of POST /chat/stream.
type ChatStreamRequest struct {
	Messages  []ChatTurn `json:"messages"`
	NoteID    string     `json:"noteId,omitempty"`
	Mode      string     `json:"mode,omitempty"`
	SessionID string     `json:"sessionId,omitempty"`
}

// StreamEvent is one SSE payload. Zero or more text events are followed by
// exactly one terminal event: done on success, error on failure.
type StreamEvent struct {
	Text      string `json:"text,omitempty"`
	Done      bool   `json:"done,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Error     string `json:"error,omitempty"`
}
