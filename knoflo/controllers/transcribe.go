// knoflo/controllers/transcribe.go
package controllers

import (
	"context"

	"knoflo/knoflo/config"
	"knoflo/knoflo/metrics"
	"knoflo/knoflo/services/transcribe"
	"knoflo/knoflo/sources/psql/dao"
	"knoflo/knoflo/sources/psql/models"
	"knoflo/knoflo/sources/storage"
	"knoflo/knoflo/utils/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AudioStore is the slice of the object storage layer the transcription path
// needs.
type AudioStore interface {
	UploadAudio(ctx context.Context, key string, data []byte, contentType string) error
}

type TranscribeController struct {
	cfg      config.Config
	audioDAO *dao.AudioDAO
	noteDAO  *dao.NoteDAO
	store    AudioStore
}

func NewTranscribeController(cfg config.Config, audioDAO *dao.AudioDAO, noteDAO *dao.NoteDAO, store AudioStore) *TranscribeController {
	return &TranscribeController{cfg: cfg, audioDAO: audioDAO, noteDAO: noteDAO, store: store}
}

// Transcribe converts one uploaded recording to text. The blob upload and
// recording row are best-effort bookkeeping: once the model produced a
// transcription the caller gets it back even if those writes fail.
func (c *TranscribeController) Transcribe(ctx context.Context, userID int, noteID, filename, contentType string, audio []byte) (string, error) {
	defer logging.LogDuration(ctx, "transcribe_request")()
	metrics.Global().TranscribeJobs.Inc()

	text, err := transcribe.Shared(c.cfg.WhisperURL).Transcribe(ctx, filename, audio)
	if err != nil {
		return "", err
	}

	if noteID != "" {
		c.saveRecording(ctx, userID, noteID, filename, contentType, audio, text)
	}
	return text, nil
}

func (c *TranscribeController) saveRecording(ctx context.Context, userID int, noteID, filename, contentType string, audio []byte, text string) {
	id, err := uuid.Parse(noteID)
	if err != nil {
		return
	}
	note, err := c.noteDAO.GetNoteByID(ctx, id)
	if err != nil || note == nil || note.UserID != userID {
		return
	}

	key := storage.AudioObjectKey(userID, noteID, filename)
	if err := c.store.UploadAudio(ctx, key, audio, contentType); err != nil {
		metrics.Global().PersistFailures.Inc()
		logging.ErrorLogger.Error("audio upload failed", zap.String("key", key), zap.Error(err))
		return
	}

	rec := &models.AudioRecording{
		UserID:        userID,
		NoteID:        id,
		StoragePath:   key,
		Transcription: text,
		Status:        models.RecordingStatusCompleted,
	}
	if err := c.audioDAO.CreateRecording(ctx, rec); err != nil {
		metrics.Global().PersistFailures.Inc()
		logging.ErrorLogger.Error("audio recording insert failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *TranscribeController) ListRecordings(ctx context.Context, userID int, noteID string) ([]models.AudioRecording, error) {
	id, err := uuid.Parse(noteID)
	if err != nil {
		return nil, ErrNoteNotFound
	}
	return c.audioDAO.GetRecordingsByNote(ctx, userID, id)
}
