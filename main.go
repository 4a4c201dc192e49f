package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/medlama/server/internal/agent/dialogue"
	"github.com/medlama/server/internal/agent/llm"
	"github.com/medlama/server/internal/agent/model"
	"github.com/medlama/server/internal/agent/repo"
	"github.com/medlama/server/internal/agent/research"
	"github.com/medlama/server/internal/agent/session"
	"github.com/medlama/server/internal/analytics"
	"github.com/medlama/server/internal/core"
	"github.com/medlama/server/internal/education"
	"github.com/medlama/server/internal/server"
	logx "github.com/medlama/server/pkg/logger"
	pkgredis "github.com/medlama/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the triage service,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:":8080"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM providers
	GeminiAPIKey     string `envconfig:"GEMINI_API_KEY" required:"true"`
	GeminiBaseURL    string `envconfig:"GEMINI_BASE_URL"`
	PerplexityAPIKey string `envconfig:"PERPLEXITY_API_KEY" required:"true"`
	PerplexityURL    string `envconfig:"PERPLEXITY_BASE_URL"`

	// Dialogue configs
	Dialogue   model.DialogueConfig
	Completion model.CompletionModelConfig
	Research   model.ResearchModelConfig
	Quiz       model.QuizConfig
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		logx.Debug().Err(err).Msg("no .env file loaded")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logx.Fatal().Err(err).Msg("failed to process environment config")
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	sessionTTL, err := time.ParseDuration(cfg.Dialogue.SessionTTL)
	if err != nil {
		logx.Fatal().Err(err).Str("value", cfg.Dialogue.SessionTTL).Msg("invalid DIALOGUE_SESSION_TTL")
	}
	transcriptTTL, err := time.ParseDuration(cfg.Dialogue.TranscriptTTL)
	if err != nil {
		logx.Fatal().Err(err).Str("value", cfg.Dialogue.TranscriptTTL).Msg("invalid DIALOGUE_TRANSCRIPT_TTL")
	}

	rdb, err := cfg.Redis.New()
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to initialise Redis client")
	}
	defer rdb.Close()
	logx.Info().Msg("connected to Redis")

	completion, err := llm.NewGeminiClient(ctx, llm.Config{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Model:   cfg.Completion,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to build completion client")
	}
	researcher := research.NewPerplexityClient(research.Config{
		APIKey:  cfg.PerplexityAPIKey,
		BaseURL: cfg.PerplexityURL,
		Model:   cfg.Research,
	})

	controller := dialogue.NewController(completion, researcher, cfg.Dialogue)
	transcripts := repo.NewRedisConversationRepository(rdb, transcriptTTL)
	store := session.NewStore(controller, transcripts, sessionTTL)
	defer store.Close()

	quiz := education.NewQuizService(completion, cfg.Quiz)
	tracker := analytics.NewTracker(rdb)

	handler := server.NewHandler(store, transcripts, quiz, tracker, rdb)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logx.Info().Str("addr", cfg.ListenAddr).Msg("triage server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logx.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logx.Error().Err(err).Msg("graceful shutdown failed")
	}
}
