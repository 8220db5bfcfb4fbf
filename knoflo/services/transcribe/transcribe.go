// knoflo/services/transcribe/transcribe.go
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"knoflo/knoflo/utils/logging"
)

// Service talks to a whisper-server style speech-to-text HTTP endpoint.
type Service struct {
	client  *http.Client
	baseURL string
}

var (
	once   sync.Once
	shared *Service
)

func New(baseURL string) *Service {
	return &Service{
		client:  &http.Client{Timeout: 120 * time.Second},
		baseURL: baseURL,
	}
}

// Shared returns the process-wide transcription service. The first caller
// builds it; concurrent first calls are serialized by the once guard. There
// is no teardown.
func Shared(baseURL string) *Service {
	once.Do(func() {
		logging.AppLogger.Info("initializing transcription service")
		shared = New(baseURL)
	})
	return shared
}

type inferenceResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Transcribe sends one audio blob to the model and returns the recognized
// text.
func (s *Service) Transcribe(ctx context.Context, filename string, audio []byte) (string, error) {
	defer logging.LogDuration(ctx, "transcribe")()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(audio); err != nil {
		return "", err
	}
	if err := mw.WriteField("response_format", "json"); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/inference", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("whisper server status %d: %s", resp.StatusCode, string(b))
	}

	var decoded inferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if decoded.Error != "" {
		return "", fmt.Errorf("whisper server: %s", decoded.Error)
	}
	return decoded.Text, nil
}
