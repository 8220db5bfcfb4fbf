package dao

import (
	"context"

	"knoflo/knoflo/sources/psql/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FolderDAO struct {
	DB *gorm.DB
}

func NewFolderDAO(db *gorm.DB) *FolderDAO {
	return &FolderDAO{DB: db}
}

func (dao *FolderDAO) CreateFolder(ctx context.Context, folder *models.Folder) error {
	return dao.DB.WithContext(ctx).Create(folder).Error
}

func (dao *FolderDAO) GetFolderByID(ctx context.Context, id uuid.UUID) (*models.Folder, error) {
	var folder models.Folder
	err := dao.DB.WithContext(ctx).First(&folder, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

func (dao *FolderDAO) GetAllFoldersByUser(ctx context.Context, userID int) ([]models.Folder, error) {
	var folders []models.Folder
	err := dao.DB.WithContext(ctx).Where("user_id = ?", userID).Order("name asc").Find(&folders).Error
	if err != nil {
		return nil, err
	}
	return folders, nil
}

func (dao *FolderDAO) UpdateFolder(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return dao.DB.WithContext(ctx).Model(&models.Folder{}).Where("id = ?", id).Updates(updates).Error
}

// DeleteFolder removes the folder and leaves its notes unfiled.
func (dao *FolderDAO) DeleteFolder(ctx context.Context, id uuid.UUID) error {
	return dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Note{}).Where("folder_id = ?", id).Update("folder_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Folder{}).Where("parent_id = ?", id).Update("parent_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Folder{}).Error
	})
}
