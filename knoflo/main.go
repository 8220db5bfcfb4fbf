package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"knoflo/knoflo/config"
	"knoflo/knoflo/controllers"
	"knoflo/knoflo/routes"
	"knoflo/knoflo/services/llm"
	"knoflo/knoflo/sources/psql"
	"knoflo/knoflo/sources/psql/dao"
	"knoflo/knoflo/sources/storage"
	"knoflo/knoflo/utils/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	logging.InitLogger()
	cfg := config.LoadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := psql.NewDatabase(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("database connection error", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	userDAO := dao.NewUserDAO(db.DB)
	folderDAO := dao.NewFolderDAO(db.DB)
	noteDAO := dao.NewNoteDAO(db.DB)
	chatDAO := dao.NewChatDAO(db.DB)
	audioDAO := dao.NewAudioDAO(db.DB)

	minioClient, err := storage.NewMinIOClient(cfg)
	if err != nil {
		logging.ErrorLogger.Error("minio connection error", zap.Error(err))
		os.Exit(1)
	}

	ollama := llm.NewOllamaClient(cfg.OllamaURL, cfg.OllamaModel)

	authCtrl := controllers.NewAuthController(userDAO, cfg)
	userCtrl := controllers.NewUserController(userDAO)
	notesCtrl := controllers.NewNotesController(noteDAO)
	foldersCtrl := controllers.NewFoldersController(folderDAO)
	chatCtrl := controllers.NewChatController(chatDAO, noteDAO, ollama)
	transcribeCtrl := controllers.NewTranscribeController(cfg, audioDAO, noteDAO, minioClient)
	healthCtrl := controllers.NewHealthController()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	withTimeout := r.With(middleware.Timeout(60 * time.Second))
	withTimeout.Mount("/auth", routes.AuthRoutes(authCtrl))
	withTimeout.Mount("/users", routes.UserRoutes(userCtrl, cfg))
	withTimeout.Mount("/notes", routes.NotesRoutes(notesCtrl, cfg))
	withTimeout.Mount("/folders", routes.FoldersRoutes(foldersCtrl, cfg))
	withTimeout.Mount("/health", routes.HealthRoutes(healthCtrl))

	// Streaming chat and transcription outlive the request timeout.
	r.Mount("/chat", routes.ChatRoutes(chatCtrl, cfg))
	r.Mount("/transcribe", routes.TranscribeRoutes(transcribeCtrl, cfg))

	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: r,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()
	logging.AppLogger.Info("knoflo listening", zap.String("addr", cfg.ServerAddr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	logging.AppLogger.Info("server shutdown complete")
}
