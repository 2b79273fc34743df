package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobboard/db"
	"jobboard/db/migrations"
	"jobboard/internal/auth"
	"jobboard/internal/award"
	"jobboard/internal/config"
	"jobboard/internal/handlers"
	"jobboard/internal/notify"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	dbConn, err := sqlx.Connect("postgres", cfg.DB.DSN)
	if err != nil {
		log.Fatalf("Cannot connect to DB: %v", err)
	}
	defer dbConn.Close()
	dbConn.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	dbConn.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	dbConn.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)

	if cfg.Migrations {
		if err := migrations.Run(dbConn.DB); err != nil {
			log.Fatalf("Migrations failed: %v", err)
		}
	}

	store := db.NewStorage(dbConn)
	verifier := auth.NewSupabaseVerifier(cfg.Auth.SupabaseURL, cfg.Auth.AnonKey, tokenCache(cfg.Auth), cfg.Auth.CacheTTL)

	notifier := notify.NewAsync(notifiers(cfg), cfg.NotifyTimeout, log.Default())
	awards := award.NewService(store, notifier)
	h := handlers.NewHandler(store, awards)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(auth.Middleware(verifier))
	r.Mount("/api", h.Routes())

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server on %s", cfg.ServerAddress)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.NotifyTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	// дождаться уже отправляемых уведомлений
	if err := notifier.Close(ctx); err != nil {
		log.Printf("Pending notifications dropped: %v", err)
	}
	log.Println("Server stopped")
}

// tokenCache: без REDIS_URL или при недоступном Redis токены проверяются каждый раз.
func tokenCache(cfg config.AuthConfig) auth.TokenCache {
	if cfg.RedisURL == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := auth.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Printf("Redis unavailable, token cache disabled: %v", err)
		return nil
	}
	return auth.NewRedisTokenCache(client)
}

func notifiers(cfg *config.Config) notify.Multi {
	var out notify.Multi
	if cfg.Email.Enabled() {
		out = append(out, notify.NewEmailNotifier(cfg.Email.APIURL, cfg.Email.APIKey, cfg.Email.From))
	} else {
		log.Println("EMAIL_API_URL or EMAIL_API_KEY not set, award emails disabled")
	}
	if cfg.Telegram.Enabled() {
		tg, err := notify.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			log.Printf("Telegram alerts disabled: %v", err)
		} else {
			out = append(out, tg)
		}
	}
	return out
}
