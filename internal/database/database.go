package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/scrawlparty/scrawlparty-backend/internal"
)

// Service archives finished games and reports connection health.
type Service interface {
	// Health returns a map of health status information.
	Health() map[string]string

	// SaveGameResult persists the final standing of a finished game.
	SaveGameResult(ctx context.Context, result internal.GameResult) error

	// Close terminates the database connection pool.
	Close() error
}

type service struct {
	pool *pgxpool.Pool
}

var (
	database = os.Getenv("DB_DATABASE")
	password = os.Getenv("DB_PASSWORD")
	username = os.Getenv("DB_USERNAME")
	port     = os.Getenv("DB_PORT")
	host     = os.Getenv("DB_HOST")
)

const schema = `
CREATE TABLE IF NOT EXISTS game_results (
	id            BIGSERIAL PRIMARY KEY,
	room_code     TEXT        NOT NULL,
	rounds_played INT         NOT NULL,
	winner_id     TEXT        NOT NULL,
	winner_name   TEXT        NOT NULL,
	scores        JSONB       NOT NULL,
	finished_at   TIMESTAMPTZ NOT NULL
)`

// New connects to postgres using the DB_* environment variables and
// makes sure the results table exists.
func New(ctx context.Context) (Service, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", username, password, host, port, database)
	return NewWithConnString(ctx, connStr)
}

func NewWithConnString(ctx context.Context, connStr string) (Service, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &service{pool: pool}, nil
}

func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := s.pool.Ping(ctx); err != nil {
		logrus.Errorf("db down: %v", err)
		return map[string]string{
			"db_status": "down",
			"db_error":  err.Error(),
		}
	}

	stat := s.pool.Stat()
	return map[string]string{
		"db_status":      "up",
		"db_total_conns": fmt.Sprintf("%d", stat.TotalConns()),
		"db_idle_conns":  fmt.Sprintf("%d", stat.IdleConns()),
	}
}

func (s *service) SaveGameResult(ctx context.Context, result internal.GameResult) error {
	scores, err := json.Marshal(result.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO game_results (room_code, rounds_played, winner_id, winner_name, scores, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		result.RoomCode, result.RoundsPlayed, result.WinnerID, result.WinnerName, scores, result.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert game result: %w", err)
	}
	return nil
}

func (s *service) Close() error {
	logrus.Infof("Disconnected from database: %s", database)
	s.pool.Close()
	return nil
}
