// knoflo/routes/transcribe.go
package routes

import (
	"errors"
	"io"
	"net/http"

	"knoflo/knoflo/config"
	"knoflo/knoflo/controllers"
	"knoflo/knoflo/middlewares"

	"github.com/go-chi/chi/v5"
)

// Recordings top out around a few minutes of webm audio.
const maxAudioUpload = 32 << 20

func TranscribeRoutes(ctrl *controllers.TranscribeController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		// POST /transcribe : multipart audio upload -> transcription text
		gr.Post("/", handleJSON(func(r *http.Request) (any, int, error) {
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			if err := r.ParseMultipartForm(maxAudioUpload); err != nil {
				return nil, http.StatusBadRequest, err
			}
			file, header, err := r.FormFile("audio")
			if err != nil {
				return nil, http.StatusBadRequest, errors.New("no audio file provided")
			}
			defer file.Close()
			audio, err := io.ReadAll(io.LimitReader(file, maxAudioUpload))
			if err != nil {
				return nil, http.StatusBadRequest, err
			}
			noteID := r.FormValue("noteId")

			text, err := ctrl.Transcribe(r.Context(), userID, noteID,
				header.Filename, header.Header.Get("Content-Type"), audio)
			if err != nil {
				return nil, http.StatusInternalServerError, err
			}
			return map[string]string{"transcription": text}, http.StatusOK, nil
		}))

		// GET /transcribe/note/{note_id} : recordings for one note
		gr.Get("/note/{note_id}", handleJSON(func(r *http.Request) (any, int, error) {
			userID := r.Context().Value(middlewares.UserIDKey).(int)
			recs, err := ctrl.ListRecordings(r.Context(), userID, chi.URLParam(r, "note_id"))
			if err != nil {
				if errors.Is(err, controllers.ErrNoteNotFound) {
					return nil, http.StatusBadRequest, err
				}
				return nil, http.StatusInternalServerError, err
			}
			return recs, http.StatusOK, nil
		}))
	})
	return r
}
