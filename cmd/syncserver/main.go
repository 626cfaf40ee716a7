package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/lockstep/watch-party/internal/account"
	"github.com/lockstep/watch-party/internal/api"
	"github.com/lockstep/watch-party/internal/messaging"
	"github.com/lockstep/watch-party/internal/mute"
	"github.com/lockstep/watch-party/internal/ratelimit"
	"github.com/lockstep/watch-party/internal/room"
	"github.com/lockstep/watch-party/internal/session"
	"github.com/lockstep/watch-party/migrations"
)

func main() {
	listenAddr := ":8080"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		listenAddr = v
	}
	redisAddr := "localhost:6379"
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		redisAddr = v
	}
	postgresDSN := "postgres://localhost/watchparty?sslmode=disable"
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		postgresDSN = v
	}
	readTimeout := 10 * time.Second
	if v := os.Getenv("READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			readTimeout = d
		}
	}
	writeTimeout := 10 * time.Second
	if v := os.Getenv("WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			writeTimeout = d
		}
	}

	// --- PostgreSQL ---
	db, err := openDatabase(postgresDSN)
	if err != nil {
		log.Fatalf("failed to connect to PostgreSQL: %v", err)
	}
	if err := runMigrations(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	accounts := account.NewStore(db)

	// --- Redis ---
	sessions, err := session.NewStore(redisAddr)
	if err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	limiter := ratelimit.NewLimiter(sessions.Client())
	mutes := mute.NewStore(sessions.Client())

	// --- NATS ---
	natsConfig := messaging.DefaultConfig()
	if v := os.Getenv("NATS_URL"); v != "" {
		natsConfig.URL = v
	}
	natsConfig.Name = "watchparty-syncserver"
	natsClient, err := messaging.NewClient(natsConfig)
	if err != nil {
		log.Fatalf("failed to connect to NATS: %v", err)
	}

	registry := room.NewRegistry()

	handler := api.NewHandler(registry, accounts, sessions)
	handler.SetLimiter(limiter)
	handler.SetMutes(mutes)
	handler.SetPublisher(natsClient)

	server := &http.Server{
		Addr:         listenAddr,
		Handler:      handler.Router(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	log.Printf("Watch-party sync server starting")
	log.Printf("  listen_addr:   %s", listenAddr)
	log.Printf("  redis_addr:    %s", redisAddr)
	log.Printf("  nats_url:      %s", natsConfig.URL)
	log.Printf("  read_timeout:  %s", readTimeout)
	log.Printf("  write_timeout: %s", writeTimeout)

	// Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, initiating graceful shutdown...", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("http shutdown error: %v", err)
		}

		natsClient.Close()
		if err := sessions.Close(); err != nil {
			log.Printf("session store close error: %v", err)
		}
		if err := db.Close(); err != nil {
			log.Printf("database close error: %v", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
	log.Printf("server stopped")
}

func openDatabase(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}
