package server

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/scrawlparty/scrawlparty-backend/internal/database"
	"github.com/scrawlparty/scrawlparty-backend/internal/game"
)

type Server struct {
	port int

	engine *game.Engine
	ws     *game.WSHandler
	db     database.Service
}

// NewServer wires the HTTP shell around the game engine. The database
// service may be nil when no archive is configured.
func NewServer(engine *game.Engine, ws *game.WSHandler, db database.Service) *http.Server {
	port, _ := strconv.Atoi(os.Getenv("PORT"))
	if port == 0 {
		port = 8080
	}

	s := &Server{
		port:   port,
		engine: engine,
		ws:     ws,
		db:     db,
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
