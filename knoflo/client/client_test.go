package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"knoflo/knoflo/services/llm"
	"knoflo/knoflo/utils/types"
)

// sseServer answers /chat/stream with the given raw SSE lines and records
// each decoded request body.
func sseServer(t *testing.T, lines []string) (*httptest.Server, *[]types.ChatStreamRequest) {
	t.Helper()
	var seen []types.ChatStreamRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req types.ChatStreamRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		seen = append(seen, req)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n", line)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func lastMessage(t *testing.T, conv *Conversation) Message {
	t.Helper()
	msgs := conv.Messages()
	if len(msgs) == 0 {
		t.Fatal("empty transcript")
	}
	return msgs[len(msgs)-1]
}

func TestSendAccumulatesFragments(t *testing.T) {
	srv, _ := sseServer(t, []string{
		`data: {"text":"Well, "}`,
		``,
		`data: {"text":"hello "}`,
		`data: {"text":"there."}`,
		`data: {"done":true,"sessionId":"abc-123"}`,
	})

	conv := New(srv.URL, "tok").NewConversation(llm.ModeGeneral, "")
	var deltas []string
	err := conv.Send(context.Background(), "hi", func(d string) { deltas = append(deltas, d) })
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if got := lastMessage(t, conv); got.Role != "assistant" || got.Content != "Well, hello there." {
		t.Errorf("transcript tail = %+v", got)
	}
	if strings.Join(deltas, "") != "Well, hello there." {
		t.Errorf("deltas = %v", deltas)
	}
	if conv.SessionID() != "abc-123" {
		t.Errorf("session id = %q", conv.SessionID())
	}
	if conv.Dropped() != 0 {
		t.Errorf("dropped = %d", conv.Dropped())
	}
}

func TestSendSkipsMalformedLines(t *testing.T) {
	srv, _ := sseServer(t, []string{
		`data: {"text":"ok"}`,
		`data: {not json`,
		`: keepalive comment`,
		`data: {"done":true,"sessionId":"s1"}`,
	})

	conv := New(srv.URL, "tok").NewConversation(llm.ModeGeneral, "")
	if err := conv.Send(context.Background(), "hi", nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := lastMessage(t, conv).Content; got != "ok" {
		t.Errorf("transcript tail = %q", got)
	}
	if conv.Dropped() != 1 {
		t.Errorf("dropped = %d, want 1", conv.Dropped())
	}
}

func TestSendCarriesSessionIDForward(t *testing.T) {
	srv, seen := sseServer(t, []string{
		`data: {"text":"a"}`,
		`data: {"done":true,"sessionId":"sess-9"}`,
	})

	conv := New(srv.URL, "tok").NewConversation(llm.ModeQuiz, "note-1")
	if err := conv.Send(context.Background(), "one", nil); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if err := conv.Send(context.Background(), "two", nil); err != nil {
		t.Fatalf("second send: %v", err)
	}

	if len(*seen) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(*seen))
	}
	if (*seen)[0].SessionID != "" {
		t.Errorf("first request carried session id %q", (*seen)[0].SessionID)
	}
	if (*seen)[1].SessionID != "sess-9" {
		t.Errorf("second request session id = %q", (*seen)[1].SessionID)
	}
	if (*seen)[1].Mode != "quiz" || (*seen)[1].NoteID != "note-1" {
		t.Errorf("binding wrong: %+v", (*seen)[1])
	}
	// History grows: greeting, user, assistant, user.
	last := (*seen)[1].Messages
	if len(last) != 4 || last[3].Role != "user" || last[3].Content != "two" {
		t.Errorf("unexpected history: %+v", last)
	}
}

func TestSendErrorEventYieldsFallback(t *testing.T) {
	srv, _ := sseServer(t, []string{
		`data: {"text":"partial "}`,
		`data: {"error":"model backend down"}`,
	})

	conv := New(srv.URL, "tok").NewConversation(llm.ModeExplain, "")
	err := conv.Send(context.Background(), "hi", nil)
	if err == nil || !strings.Contains(err.Error(), "model backend down") {
		t.Fatalf("expected the stream error, got %v", err)
	}
	if got := lastMessage(t, conv); got.Content != FallbackReply {
		t.Errorf("partial text must not survive a failed turn, got %q", got.Content)
	}
}

func TestSendNon200YieldsFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	conv := New(srv.URL, "tok").NewConversation(llm.ModeGeneral, "")
	if err := conv.Send(context.Background(), "hi", nil); err == nil {
		t.Fatal("expected an error")
	}
	if got := lastMessage(t, conv); got.Role != "assistant" || got.Content != FallbackReply {
		t.Errorf("transcript tail = %+v", got)
	}
}

func TestModeSwitchResetsConversation(t *testing.T) {
	srv, _ := sseServer(t, []string{
		`data: {"text":"x"}`,
		`data: {"done":true,"sessionId":"old-session"}`,
	})

	conv := New(srv.URL, "tok").NewConversation(llm.ModeGeneral, "")
	if err := conv.Send(context.Background(), "hi", nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	if conv.SessionID() == "" {
		t.Fatal("precondition: session id set")
	}

	conv.SetMode(llm.ModeFlashcard)

	if conv.SessionID() != "" {
		t.Error("session id must be cleared on mode switch")
	}
	msgs := conv.Messages()
	if len(msgs) != 1 || msgs[0].Role != "assistant" {
		t.Fatalf("expected a single greeting, got %+v", msgs)
	}
	if !strings.Contains(msgs[0].Content, "flashcards") {
		t.Errorf("greeting = %q", msgs[0].Content)
	}
}

func TestSendIgnoresBlankInput(t *testing.T) {
	conv := New("http://unused.invalid", "tok").NewConversation(llm.ModeGeneral, "")
	before := len(conv.Messages())
	if err := conv.Send(context.Background(), "   ", nil); err != nil {
		t.Fatalf("blank input must be a no-op, got %v", err)
	}
	if len(conv.Messages()) != before {
		t.Error("blank input mutated the transcript")
	}
}
