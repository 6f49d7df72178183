package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"counsel/counsel/config"
	"counsel/counsel/controllers"
	"counsel/counsel/middlewares"
	"counsel/counsel/routes"
	"counsel/counsel/services/llm"
	"counsel/counsel/sources/psql"
	"counsel/counsel/sources/psql/dao"
	"counsel/counsel/sources/storage"
	"counsel/counsel/utils/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
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

	memberDAO := dao.NewMemberDAO(db.DB)
	sessionDAO := dao.NewSessionDAO(db.DB)
	transcriptDAO := dao.NewTranscriptDAO(db.DB)

	gpt := llm.NewGPTClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)

	// Recording archival is optional; without object storage the
	// summarize endpoint still transcribes and summarizes.
	var recordings *storage.RecordingStore
	if cfg.MinIOEndpoint != "" {
		recordings, err = storage.NewRecordingStore(cfg)
		if err != nil {
			logging.ErrorLogger.Error("minio connection error", zap.Error(err))
			os.Exit(1)
		}
	}

	authCtrl := controllers.NewAuthController(memberDAO, cfg)
	chatCtrl := controllers.NewChatController(transcriptDAO, sessionDAO, gpt)
	recCtrl := controllers.NewRecordingController(recordings, gpt)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Mount("/auth", routes.AuthRoutes(authCtrl))
	r.Mount("/health", routes.HealthRoutes())
	r.Route("/api", func(api chi.Router) {
		api.Use(middlewares.AuthMiddleware(cfg, memberDAO))
		routes.RegisterChatRoutes(api, chatCtrl)
		routes.RegisterRecordingRoutes(api, recCtrl)
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}
	go func() {
		logging.AppLogger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()

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
