// knoflo/sources/psql/dao/dao.chat.go
package dao

import (
	"context"

	"knoflo/knoflo/sources/psql/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatDAO struct {
	DB *gorm.DB
}

func NewChatDAO(db *gorm.DB) *ChatDAO {
	return &ChatDAO{DB: db}
}

// CreateSession opens a new session bound to (user, note, mode). The binding
// never changes afterwards; a mode or note switch gets a fresh session.
func (dao *ChatDAO) CreateSession(ctx context.Context, userID int, noteID *uuid.UUID, mode string) (*models.ChatSession, error) {
	session := models.ChatSession{
		UserID: userID,
		NoteID: noteID,
		Mode:   mode,
	}
	if err := dao.DB.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (dao *ChatDAO) GetSessionByID(ctx context.Context, id uuid.UUID) (*models.ChatSession, error) {
	var session models.ChatSession
	err := dao.DB.WithContext(ctx).First(&session, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (dao *ChatDAO) GetSessionsByUser(ctx context.Context, userID int) ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	err := dao.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// DeleteSession removes a session and its messages; only the owner may do so.
func (dao *ChatDAO) DeleteSession(ctx context.Context, userID int, sessionID uuid.UUID) error {
	return dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", sessionID, userID).Delete(&models.ChatSession{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("session_id = ?", sessionID).Delete(&models.ChatMessage{}).Error
	})
}

// SaveMessage appends one turn to a session.
func (dao *ChatDAO) SaveMessage(ctx context.Context, sessionID uuid.UUID, role, content string) (*models.ChatMessage, error) {
	msg := models.ChatMessage{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
	}
	if err := dao.DB.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (dao *ChatDAO) GetSessionMessages(ctx context.Context, sessionID uuid.UUID) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := dao.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at asc").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (dao *ChatDAO) CountSessionMessages(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var n int64
	err := dao.DB.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("session_id = ?", sessionID).
		Count(&n).Error
	return n, err
}
