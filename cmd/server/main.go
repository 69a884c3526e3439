package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"surveyeditor/internal/cache"
	"surveyeditor/internal/config"
	"surveyeditor/internal/scheduler"
	"surveyeditor/internal/server"
	"surveyeditor/internal/service"
	"surveyeditor/internal/storage"
	"surveyeditor/internal/storage/providers"
	httptransport "surveyeditor/internal/transport/http"
)

func main() {
	cfg := config.MustLoad()
	setupLogger(cfg.Env)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := storage.InitDB(ctx, cfg.DatabaseUrl, cfg.DatabaseMaxConns)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	allProviders := providers.New(db)

	var drafts service.DraftJournal
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to ping redis: %v", err)
		}
		log.Printf("draft journal enabled on %s", cfg.Redis.Addr)
		drafts = cache.NewDraftCache(rdb, cfg.Redis.DraftTTL)
	}

	questionnaires := service.NewQuestionnaireService(allProviders.QuestionnaireProvider, drafts)
	if cfg.Autosave.Interval > 0 {
		scheduler.NewAutosaveScheduler(questionnaires, cfg.Autosave.Interval).Start(ctx)
	}

	router := httptransport.Router(questionnaires, cfg)

	addr := ":" + cfg.Server.Port
	log.Printf("listening on %s", addr)
	if err := server.Start(ctx, addr, router, cfg.Server.AllowedOrigins); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func setupLogger(env string) {
	var handler slog.Handler
	switch env {
	case "local":
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	default:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}
