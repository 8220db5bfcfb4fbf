// knoflo/services/llm/llm.go
package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"

	"knoflo/knoflo/metrics"
	httputils "knoflo/knoflo/utils/http"
	"knoflo/knoflo/utils/logging"

	"go.uber.org/zap"
)

type OllamaClient struct {
	baseURL string
	model   string
}

func NewOllamaClient(baseURL, model string) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}
	return &OllamaClient{baseURL: baseURL, model: model}
}

func (c *OllamaClient) Model() string {
	return c.model
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model    string      `json:"model"`
	Messages []Message   `json:"messages"`
	Stream   bool        `json:"stream"`
	Options  interface{} `json:"options,omitempty"`
}

type ChatResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
	Error   string  `json:"error,omitempty"`
}

// Run performs a single non-streaming completion.
func (c *OllamaClient) Run(ctx context.Context, messages []Message) (string, error) {
	defer logging.LogDuration(ctx, "llm_run")()
	req := ChatRequest{Model: c.model, Messages: messages, Stream: false}
	var resp ChatResponse
	if err := httputils.PostJSON(c.baseURL+"/api/chat", req, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", errors.New(resp.Error)
	}
	return resp.Message.Content, nil
}

// RunStream opens a streaming completion and returns a channel of content
// fragments plus an error channel. Both close when the stream ends; the error
// channel yields at most one value. Lines that fail to parse as JSON are
// skipped and counted, never fatal. Cancelling ctx tears down the upstream
// request.
func (c *OllamaClient) RunStream(ctx context.Context, messages []Message) (<-chan string, <-chan error) {
	defer logging.LogDuration(ctx, "llm_run_stream")()

	ch := make(chan string, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(ch)
		defer close(errCh)

		req := ChatRequest{Model: c.model, Messages: messages, Stream: true}
		body, err := httputils.PostStream(ctx, c.baseURL+"/api/chat", req)
		if err != nil {
			errCh <- err
			return
		}
		defer body.Close()

		scanner := bufio.NewScanner(body)
		// Chunks are one JSON object per line; leave room for long ones.
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 2*1024*1024)

		for scanner.Scan() {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			default:
			}

			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var chunk ChatResponse
			if err := json.Unmarshal(line, &chunk); err != nil {
				metrics.Global().DroppedChunks.Inc()
				continue
			}
			if chunk.Error != "" {
				errCh <- errors.New(chunk.Error)
				return
			}
			if chunk.Message.Content != "" {
				select {
				case ch <- chunk.Message.Content:
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				}
			}
			if chunk.Done {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			logging.ErrorLogger.Error("llm stream read error", zap.Error(err))
			errCh <- err
		}
	}()

	return ch, errCh
}
