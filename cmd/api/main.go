package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"myinterview/api/internal/analyzer"
	"myinterview/api/internal/app"
	"myinterview/api/internal/config"
	"myinterview/api/internal/export"
	"myinterview/api/internal/session"
	"myinterview/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		log.Fatal("GEMINI_API_KEY is not set; the analyzer cannot run without it")
	}

	slots, err := openSlotStore(ctx, cfg)
	if err != nil {
		log.Fatalf("slot store connection failed: %v", err)
	}
	defer slots.Close()

	if err := slots.Init(ctx); err != nil {
		log.Fatalf("slot store init failed: %v", err)
	}

	prompts, err := analyzer.LoadPromptConfig(cfg.PromptConfigPath)
	if err != nil {
		log.Fatalf("prompt config failed: %v", err)
	}
	gemini, err := analyzer.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, prompts)
	if err != nil {
		log.Fatalf("analyzer client failed: %v", err)
	}

	var exporter *export.Service
	if cfg.ExportEnabled {
		exporter = export.NewService()
	}

	sessions := session.New(slots)
	service := app.New(cfg, slots, sessions, gemini, exporter)
	service.Hydrate(ctx)

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Interview API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	// Let in-flight slot writes land before the store closes.
	service.Flush()
}

// openSlotStore picks the slot backend: Redis when REDIS_URL is set,
// MinIO when MINIO_ENDPOINT is set, PostgreSQL otherwise.
func openSlotStore(ctx context.Context, cfg config.Config) (store.SlotStore, error) {
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for session slots")
		return store.NewRedisStore(cfg.RedisURL)
	}
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		log.Printf("Using MinIO for session slots")
		return store.NewMinioStore(store.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	}
	log.Printf("Using PostgreSQL for session slots")
	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return store.NewPostgresStore(db), nil
}
