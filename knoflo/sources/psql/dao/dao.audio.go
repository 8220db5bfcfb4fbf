package dao

import (
	"context"

	"knoflo/knoflo/sources/psql/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AudioDAO struct {
	DB *gorm.DB
}

func NewAudioDAO(db *gorm.DB) *AudioDAO {
	return &AudioDAO{DB: db}
}

func (dao *AudioDAO) CreateRecording(ctx context.Context, rec *models.AudioRecording) error {
	return dao.DB.WithContext(ctx).Create(rec).Error
}

func (dao *AudioDAO) GetRecordingsByNote(ctx context.Context, userID int, noteID uuid.UUID) ([]models.AudioRecording, error) {
	var recs []models.AudioRecording
	err := dao.DB.WithContext(ctx).
		Where("user_id = ? AND note_id = ?", userID, noteID).
		Order("created_at desc").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}
