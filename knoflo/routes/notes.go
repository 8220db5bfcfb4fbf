// knoflo/routes/notes.go
package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"knoflo/knoflo/config"
	"knoflo/knoflo/controllers"
	"knoflo/knoflo/middlewares"
	"knoflo/knoflo/utils/types"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func NotesRoutes(ctrl *controllers.NotesController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		// Create note
		gr.Post("/", handleJSON(func(r *http.Request) (any, int, error) {
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			var req types.CreateNoteRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				return nil, http.StatusBadRequest, err
			}
			var folderID *uuid.UUID
			if req.FolderID != nil {
				id, err := uuid.Parse(*req.FolderID)
				if err != nil {
					return nil, http.StatusBadRequest, err
				}
				folderID = &id
			}
			favourite := false
			if req.Favourite != nil {
				favourite = *req.Favourite
			}
			note, err := ctrl.CreateNote(r.Context(), userID, req.Title, req.Content, req.PlainText, folderID, favourite)
			if err != nil {
				return nil, http.StatusInternalServerError, err
			}
			return note, http.StatusCreated, nil
		}))

		// List current user's notes
		gr.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			notes, err := ctrl.GetAllNotesByUser(r.Context(), userID)
			if err != nil {
				return nil, http.StatusInternalServerError, err
			}
			return notes, http.StatusOK, nil
		}))

		// List notes in a folder
		gr.Get("/folder/{folder_id}", handleJSON(func(r *http.Request) (any, int, error) {
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			folderID, err := uuid.Parse(chi.URLParam(r, "folder_id"))
			if err != nil {
				return nil, http.StatusBadRequest, err
			}
			notes, err := ctrl.GetNotesByFolder(r.Context(), userID, folderID)
			if err != nil {
				return nil, http.StatusInternalServerError, err
			}
			return notes, http.StatusOK, nil
		}))

		// Get single note
		gr.Get("/{id}", handleJSON(func(r *http.Request) (any, int, error) {
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			id, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				return nil, http.StatusBadRequest, err
			}
			note, err := ctrl.GetNote(r.Context(), userID, id)
			if err != nil {
				return nil, http.StatusInternalServerError, err
			}
			if note == nil {
				return nil, http.StatusNotFound, errors.New("note not found")
			}
			return note, http.StatusOK, nil
		}))

		// Update note (including favourite)
		gr.Put("/{id}", handleJSON(func(r *http.Request) (any, int, error) {
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			id, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				return nil, http.StatusBadRequest, err
			}
			var req types.UpdateNoteRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				return nil, http.StatusBadRequest, err
			}
			updates := map[string]interface{}{}
			if req.Title != nil {
				updates["title"] = *req.Title
			}
			if req.Content != nil {
				updates["content"] = *req.Content
			}
			if req.PlainText != nil {
				updates["plain_text"] = *req.PlainText
			}
			if req.FolderID != nil {
				if *req.FolderID == "" {
					updates["folder_id"] = nil
				} else {
					folderID, err := uuid.Parse(*req.FolderID)
					if err != nil {
						return nil, http.StatusBadRequest, err
					}
					updates["folder_id"] = folderID
				}
			}
			if req.Favourite != nil {
				updates["favourite"] = *req.Favourite
			}
			if len(updates) == 0 {
				return nil, http.StatusBadRequest, errors.New("no fields to update")
			}
			if err := ctrl.UpdateNote(r.Context(), userID, id, updates); err != nil {
				if errors.Is(err, controllers.ErrNoteNotFound) {
					return nil, http.StatusNotFound, err
				}
				return nil, http.StatusInternalServerError, err
			}
			return map[string]string{"status": "ok"}, http.StatusOK, nil
		}))

		// Delete note
		gr.Delete("/{id}", handleJSON(func(r *http.Request) (any, int, error) {
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			id, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				return nil, http.StatusBadRequest, err
			}
			if err := ctrl.DeleteNote(r.Context(), userID, id); err != nil {
				if errors.Is(err, controllers.ErrNoteNotFound) {
					return nil, http.StatusNotFound, err
				}
				return nil, http.StatusInternalServerError, err
			}
			return map[string]string{"status": "deleted"}, http.StatusOK, nil
		}))
	})
	return r
}
