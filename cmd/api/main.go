package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/scrawlparty/scrawlparty-backend/internal"
	"github.com/scrawlparty/scrawlparty-backend/internal/database"
	"github.com/scrawlparty/scrawlparty-backend/internal/game"
	"github.com/scrawlparty/scrawlparty-backend/internal/server"
	"github.com/scrawlparty/scrawlparty-backend/internal/store"
	"github.com/scrawlparty/scrawlparty-backend/internal/words"
)

// roomConfigFromEnv starts from the defaults and applies the room knobs an
// operator may override. Bad values are ignored with a warning rather than
// refusing to start.
func roomConfigFromEnv() internal.RoomConfig {
	cfg := internal.DefaultRoomConfig()
	overrideInt(&cfg.RoundSeconds, "ROUND_SECONDS", 5)
	overrideInt(&cfg.MaxRounds, "MAX_ROUNDS", 1)
	overrideInt(&cfg.MaxHintLetters, "MAX_HINT_LETTERS", 0)
	overrideInt(&cfg.MaxWordLength, "MAX_WORD_LENGTH", 1)
	overrideInt(&cfg.MaxPlayers, "MAX_PLAYERS", internal.MinPlayersToStart)
	return cfg
}

func overrideInt(dst *int, key string, min int) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min {
		logrus.Warnf("Ignoring %s=%q: want an integer >= %d", key, raw, min)
		return
	}
	*dst = v
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, relying on system environment variables")
	}

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if os.Getenv("LOG_LEVEL") == "debug" {
		logrus.SetLevel(logrus.DebugLevel)
	}

	ctx := context.Background()

	// Room state lives in Redis when REDIS_ADDR is set, otherwise in memory.
	var roomStore store.RoomStore
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logrus.Fatalf("Failed to connect to Redis at %s: %v", addr, err)
		}
		roomStore = store.NewRedisRoomStore(client, "sp:")
		logrus.Infof("Using Redis room store at %s", addr)
	} else {
		roomStore = store.NewMemoryRoomStore()
		logrus.Info("Using in-memory room store")
	}
	defer roomStore.Close()

	var suggester *words.SuggestionClient
	if url := os.Getenv("WORD_API_URL"); url != "" {
		suggester = words.NewSuggestionClient(url)
		logrus.Infof("Word suggestions from %s", url)
	}
	wordEngine := words.NewEngine(suggester)

	// Game archive is optional. Without DB_HOST finished games are not persisted.
	var archive game.Archiver
	var db database.Service
	if os.Getenv("DB_HOST") != "" {
		var err error
		db, err = database.New(ctx)
		if err != nil {
			logrus.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		archive = db
		logrus.Info("Game archive enabled")
	}

	engine := game.NewEngine(roomStore, wordEngine, archive, roomConfigFromEnv())
	hub := game.NewHub(roomStore)
	ws := game.NewWSHandler(engine, hub)

	srv := server.NewServer(engine, ws, db)

	go func() {
		logrus.Infof("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutdown signal received, shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}
	logrus.Info("Server exiting")
}
