package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RecordingStatusPending   = "pending"
	RecordingStatusCompleted = "completed"
	RecordingStatusFailed    = "failed"
)

type AudioRecording struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID        int       `json:"user_id" gorm:"not null;index"`
	User          User      `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	NoteID        uuid.UUID `json:"note_id" gorm:"type:uuid;not null;index"`
	StoragePath   string    `json:"storage_path" gorm:"type:varchar(512);not null"`
	Transcription string    `json:"transcription" gorm:"type:text"`
	Status        string    `json:"status" gorm:"type:varchar(32);not null;default:'pending'"`
	Duration      *float64  `json:"duration,omitempty"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (AudioRecording) TableName() string {
	return "audio_recordings"
}

func (a *AudioRecording) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
