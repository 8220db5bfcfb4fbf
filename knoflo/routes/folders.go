// knoflo/routes/folders.go
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

func FoldersRoutes(ctrl *controllers.FoldersController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		gr.Post("/", handleJSON(func(r *http.Request) (any, int, error) {
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			var req types.CreateFolderRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				return nil, http.StatusBadRequest, err
			}
			if req.Name == "" {
				return nil, http.StatusBadRequest, errors.New("folder name required")
			}
			var parentID *uuid.UUID
			if req.ParentID != nil {
				id, err := uuid.Parse(*req.ParentID)
				if err != nil {
					return nil, http.StatusBadRequest, err
				}
				parentID = &id
			}
			folder, err := ctrl.CreateFolder(r.Context(), userID, req.Name, parentID)
			if err != nil {
				return nil, http.StatusInternalServerError, err
			}
			return folder, http.StatusCreated, nil
		}))

		gr.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			folders, err := ctrl.GetAllFoldersByUser(r.Context(), userID)
			if err != nil {
				return nil, http.StatusInternalServerError, err
			}
			return folders, http.StatusOK, nil
		}))

		gr.Put("/{id}", handleJSON(func(r *http.Request) (any, int, error) {
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			id, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				return nil, http.StatusBadRequest, err
			}
			var req types.UpdateFolderRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				return nil, http.StatusBadRequest, err
			}
			updates := map[string]interface{}{}
			if req.Name != nil {
				updates["name"] = *req.Name
			}
			if req.ParentID != nil {
				if *req.ParentID == "" {
					updates["parent_id"] = nil
				} else {
					parentID, err := uuid.Parse(*req.ParentID)
					if err != nil {
						return nil, http.StatusBadRequest, err
					}
					updates["parent_id"] = parentID
				}
			}
			if len(updates) == 0 {
				return nil, http.StatusBadRequest, errors.New("no fields to update")
			}
			if err := ctrl.UpdateFolder(r.Context(), userID, id, updates); err != nil {
				if errors.Is(err, controllers.ErrFolderNotFound) {
					return nil, http.StatusNotFound, err
				}
				return nil, http.StatusInternalServerError, err
			}
			return map[string]string{"status": "ok"}, http.StatusOK, nil
		}))

		gr.Delete("/{id}", handleJSON(func(r *http.Request) (any, int, error) {
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			id, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				return nil, http.StatusBadRequest, err
			}
			if err := ctrl.DeleteFolder(r.Context(), userID, id); err != nil {
				if errors.Is(err, controllers.ErrFolderNotFound) {
					return nil, http.StatusNotFound, err
				}
				return nil, http.StatusInternalServerError, err
			}
			return map[string]string{"status": "deleted"}, http.StatusOK, nil
		}))
	})
	return r
}
