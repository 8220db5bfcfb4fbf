// knoflo/controllers/folders.go
package controllers

import (
	"context"
	"errors"

	"knoflo/knoflo/sources/psql/dao"
	"knoflo/knoflo/sources/psql/models"

	"github.com/google/uuid"
)

var ErrFolderNotFound = errors.New("folder not found or forbidden")

type FoldersController struct {
	dao *dao.FolderDAO
}

func NewFoldersController(dao *dao.FolderDAO) *FoldersController {
	return &FoldersController{dao: dao}
}

func (c *FoldersController) CreateFolder(ctx context.Context, userID int, name string, parentID *uuid.UUID) (*models.Folder, error) {
	folder := &models.Folder{
		UserID:   userID,
		Name:     name,
		ParentID: parentID,
	}
	if err := c.dao.CreateFolder(ctx, folder); err != nil {
		return nil, err
	}
	return folder, nil
}

func (c *FoldersController) GetFolder(ctx context.Context, userID int, id uuid.UUID) (*models.Folder, error) {
	folder, err := c.dao.GetFolderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if folder == nil || folder.UserID != userID {
		return nil, nil
	}
	return folder, nil
}

func (c *FoldersController) GetAllFoldersByUser(ctx context.Context, userID int) ([]models.Folder, error) {
	return c.dao.GetAllFoldersByUser(ctx, userID)
}

func (c *FoldersController) UpdateFolder(ctx context.Context, userID int, id uuid.UUID, updates map[string]interface{}) error {
	folder, err := c.GetFolder(ctx, userID, id)
	if err != nil {
		return err
	}
	if folder == nil {
		return ErrFolderNotFound
	}
	return c.dao.UpdateFolder(ctx, id, updates)
}

func (c *FoldersController) DeleteFolder(ctx context.Context, userID int, id uuid.UUID) error {
	folder, err := c.GetFolder(ctx, userID, id)
	if err != nil {
		return err
	}
	if folder == nil {
		return ErrFolderNotFound
	}
	return c.dao.DeleteFolder(ctx, id)
}
