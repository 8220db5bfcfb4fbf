// knoflo/routes/chat.go
package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"knoflo/knoflo/config"
	"knoflo/knoflo/controllers"
	"knoflo/knoflo/middlewares"
	"knoflo/knoflo/utils/types"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
)

func ChatRoutes(ctrl *controllers.ChatController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		// POST /chat/stream : one conversation turn, answered as an SSE stream
		gr.Post("/stream", func(w http.ResponseWriter, r *http.Request) {
			var req types.ChatStreamRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			userID := r.Context().Value(middlewares.UserIDKey).(int)

			events, err := ctrl.ChatStream(r.Context(), userID, req)
			if err != nil {
				if errors.Is(err, controllers.ErrInvalidSessionID) {
					http.Error(w, err.Error(), http.StatusBadRequest)
				} else {
					http.Error(w, err.Error(), http.StatusInternalServerError)
				}
				return
			}

			flusher, ok := w.(http.Flusher)
			if !ok {
				http.Error(w, "streaming unsupported", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.WriteHeader(http.StatusOK)
			flusher.Flush()

			for ev := range events {
				b, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "data: %s\n\n", b)
				flusher.Flush()
			}
		})

		// GET /chat/sessions : list all user's sessions (threads)
		gr.Get("/sessions", func(w http.ResponseWriter, r *http.Request) {
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			sessions, err := ctrl.ListSessions(r.Context(), userID)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(sessions)
		})

		// GET /chat/session/{session_id}/messages : all messages for a session
		gr.Get("/session/{session_id}/messages", func(w http.ResponseWriter, r *http.Request) {
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			sessionID := chi.URLParam(r, "session_id")
			msgs, err := ctrl.GetMessagesForSession(r.Context(), userID, sessionID)
			if err != nil {
				switch {
				case errors.Is(err, controllers.ErrSessionNotFound):
					http.Error(w, err.Error(), http.StatusNotFound)
				case errors.Is(err, controllers.ErrInvalidSessionID):
					http.Error(w, err.Error(), http.StatusBadRequest)
				default:
					http.Error(w, err.Error(), http.StatusInternalServerError)
				}
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(msgs)
		})

		// DELETE /chat/session/{session_id} : delete one session (thread)
		gr.Delete("/session/{session_id}", func(w http.ResponseWriter, r *http.Request) {
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			sessionID := chi.URLParam(r, "session_id")
			if err := ctrl.DeleteSession(r.Context(), userID, sessionID); err != nil {
				switch {
				case errors.Is(err, controllers.ErrSessionNotFound):
					http.Error(w, err.Error(), http.StatusNotFound)
				case errors.Is(err, controllers.ErrInvalidSessionID):
					http.Error(w, err.Error(), http.StatusBadRequest)
				default:
					http.Error(w, err.Error(), http.StatusInternalServerError)
				}
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	// Websocket transport for the same stream: first frame carries the token
	// and the turn, every event goes back as one JSON text frame.
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")

		ctx := r.Context()
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			conn.Close(websocket.StatusUnsupportedData, "unsupported data")
			return
		}
		var input struct {
			Token       string                  `json:"token"`
			ChatRequest types.ChatStreamRequest `json:"chat_request"`
		}
		if err := json.Unmarshal(data, &input); err != nil {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"invalid json"}`))
			return
		}

		userID, ok := middlewares.UserIDFromToken(cfg, input.Token)
		if !ok {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"invalid token"}`))
			conn.Close(websocket.StatusPolicyViolation, "invalid token")
			return
		}

		events, err := ctrl.ChatStream(ctx, userID, input.ChatRequest)
		if err != nil {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"failed to start stream"}`))
			conn.Close(websocket.StatusInternalError, "stream error")
			return
		}
		for ev := range events {
			b, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, b); err != nil {
				return
			}
		}
		conn.Close(websocket.StatusNormalClosure, "")
	})
	return r
}
