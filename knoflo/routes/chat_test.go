package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"knoflo/knoflo/config"
	"knoflo/knoflo/controllers"
	"knoflo/knoflo/services/llm"
	"knoflo/knoflo/sources/psql/dao"
	"knoflo/knoflo/sources/psql/models"
	"knoflo/knoflo/utils/logging"
	"knoflo/knoflo/utils/types"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

func TestMain(m *testing.M) {
	logging.InitTestLogger()
	os.Exit(m.Run())
}

func newTestServer(t *testing.T, backendLines []string) (*httptest.Server, *gorm.DB, *models.User) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(&models.User{}, &models.Folder{}, &models.Note{},
		&models.ChatSession{}, &models.ChatMessage{})
	if err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	user := models.User{Username: "student", Email: "student@example.com"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, line := range backendLines {
			w.Write([]byte(line + "\n"))
		}
	}))
	t.Cleanup(backend.Close)

	cfg := config.Config{JWTSecret: testSecret}
	ctrl := controllers.NewChatController(
		dao.NewChatDAO(db),
		dao.NewNoteDAO(db),
		llm.NewOllamaClient(backend.URL, "test-model"),
	)
	r := chi.NewRouter()
	r.Mount("/chat", ChatRoutes(ctrl, cfg))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return srv, db, &user
}

func signToken(t *testing.T, userID int) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func postStream(t *testing.T, srv *httptest.Server, token string, req types.ChatStreamRequest) *http.Response {
	t.Helper()
	payload, _ := json.Marshal(req)
	httpReq, err := http.NewRequest(http.MethodPost, srv.URL+"/chat/stream", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestChatStreamSSEFraming(t *testing.T) {
	srv, _, user := newTestServer(t, []string{
		`{"message":{"content":"Hello, "},"done":false}`,
		`{"message":{"content":"world"},"done":false}`,
		`{"done":true}`,
	})
	token := signToken(t, user.ID)

	resp := postStream(t, srv, token, types.ChatStreamRequest{
		Messages: []types.ChatTurn{{Role: "user", Content: "hi"}},
		Mode:     "general",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	var raw bytes.Buffer
	if _, err := raw.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	body := raw.String()

	var texts []string
	var terminals int
	var sessionID string
	for _, block := range strings.Split(body, "\n\n") {
		if block == "" {
			continue
		}
		if !strings.HasPrefix(block, "data: ") {
			t.Fatalf("frame without data prefix: %q", block)
		}
		var ev types.StreamEvent
		if err := json.Unmarshal([]byte(block[len("data: "):]), &ev); err != nil {
			t.Fatalf("bad event %q: %v", block, err)
		}
		if ev.Done || ev.Error != "" {
			terminals++
			sessionID = ev.SessionID
			continue
		}
		texts = append(texts, ev.Text)
	}

	if got := strings.Join(texts, ""); got != "Hello, world" {
		t.Errorf("streamed text = %q", got)
	}
	if terminals != 1 {
		t.Errorf("terminal events = %d, want exactly 1", terminals)
	}
	if sessionID == "" {
		t.Error("done event carries no session id")
	}
}

func TestChatStreamRequiresAuth(t *testing.T) {
	srv, _, _ := newTestServer(t, []string{`{"done":true}`})

	resp := postStream(t, srv, "", types.ChatStreamRequest{
		Messages: []types.ChatTurn{{Role: "user", Content: "hi"}},
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}

	bad := signTokenWithSecret(t, 1, "wrong-secret")
	resp = postStream(t, srv, bad, types.ChatStreamRequest{
		Messages: []types.ChatTurn{{Role: "user", Content: "hi"}},
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status with bad signature = %d, want 401", resp.StatusCode)
	}
}

func signTokenWithSecret(t *testing.T, userID int, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestChatStreamBadSessionIDIs400(t *testing.T) {
	srv, _, user := newTestServer(t, []string{`{"done":true}`})
	token := signToken(t, user.ID)

	resp := postStream(t, srv, token, types.ChatStreamRequest{
		Messages:  []types.ChatTurn{{Role: "user", Content: "hi"}},
		SessionID: "garbage",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSessionEndpoints(t *testing.T) {
	srv, db, user := newTestServer(t, []string{
		`{"message":{"content":"answer"},"done":false}`,
		`{"done":true}`,
	})
	token := signToken(t, user.ID)

	resp := postStream(t, srv, token, types.ChatStreamRequest{
		Messages: []types.ChatTurn{{Role: "user", Content: "q"}},
		Mode:     "quiz",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stream status = %d", resp.StatusCode)
	}
	var raw bytes.Buffer
	raw.ReadFrom(resp.Body)

	var sess models.ChatSession
	if err := db.First(&sess).Error; err != nil {
		t.Fatalf("load session: %v", err)
	}

	get := func(path string) *http.Response {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		t.Cleanup(func() { r.Body.Close() })
		return r
	}

	listResp := get("/chat/sessions")
	var sessions []models.ChatSession
	if err := json.NewDecoder(listResp.Body).Decode(&sessions); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Mode != "quiz" {
		t.Errorf("sessions = %+v", sessions)
	}

	msgResp := get("/chat/session/" + sess.ID.String() + "/messages")
	var msgs []models.ChatMessage
	if err := json.NewDecoder(msgResp.Body).Decode(&msgs); err != nil {
		t.Fatalf("decode messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Errorf("expected user+assistant turns, got %d", len(msgs))
	}

	delReq, _ := http.NewRequest(http.MethodDelete, srv.URL+"/chat/session/"+sess.ID.String(), nil)
	delReq.Header.Set("Authorization", "Bearer "+token)
	delResp, err := http.DefaultClient.Do(delReq)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", delResp.StatusCode)
	}

	missing := get("/chat/session/" + sess.ID.String() + "/messages")
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("status after delete = %d, want 404", missing.StatusCode)
	}
}
