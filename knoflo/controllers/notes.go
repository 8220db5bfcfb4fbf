// knoflo/controllers/notes.go
package controllers

import (
	"context"
	"errors"

	"knoflo/knoflo/sources/psql/dao"
	"knoflo/knoflo/sources/psql/models"

	"github.com/google/uuid"
)

var ErrNoteNotFound = errors.New("note not found or forbidden")

type NotesController struct {
	dao *dao.NoteDAO
}

func NewNotesController(dao *dao.NoteDAO) *NotesController {
	return &NotesController{dao: dao}
}

func (c *NotesController) CreateNote(ctx context.Context, userID int, title, content, plainText string, folderID *uuid.UUID, favourite bool) (*models.Note, error) {
	note := &models.Note{
		UserID:    userID,
		FolderID:  folderID,
		Title:     title,
		Content:   content,
		PlainText: plainText,
		Favourite: favourite,
	}
	if err := c.dao.CreateNote(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (c *NotesController) GetNote(ctx context.Context, userID int, id uuid.UUID) (*models.Note, error) {
	note, err := c.dao.GetNoteByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if note == nil || note.UserID != userID {
		return nil, nil
	}
	return note, nil
}

func (c *NotesController) GetAllNotesByUser(ctx context.Context, userID int) ([]models.Note, error) {
	return c.dao.GetAllNotesByUser(ctx, userID)
}

func (c *NotesController) GetNotesByFolder(ctx context.Context, userID int, folderID uuid.UUID) ([]models.Note, error) {
	return c.dao.GetNotesByFolder(ctx, userID, folderID)
}

func (c *NotesController) UpdateNote(ctx context.Context, userID int, id uuid.UUID, updates map[string]interface{}) error {
	note, err := c.GetNote(ctx, userID, id)
	if err != nil {
		return err
	}
	if note == nil {
		return ErrNoteNotFound
	}
	return c.dao.UpdateNote(ctx, id, updates)
}

func (c *NotesController) DeleteNote(ctx context.Context, userID int, id uuid.UUID) error {
	note, err := c.GetNote(ctx, userID, id)
	if err != nil {
		return err
	}
	if note == nil {
		return ErrNoteNotFound
	}
	return c.dao.DeleteNote(ctx, id)
}
