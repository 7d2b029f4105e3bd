package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/scrawlparty/scrawlparty-backend/internal"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// Apply CORS middleware
	r.Use(s.corsMiddleware)

	// OPTIONS stays routable so the middleware can answer preflights.
	r.HandleFunc("/", s.HealthHandler).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/rooms", s.CreateRoomHandler).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/rooms-available", s.GetRoomToJoin).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/ws/{roomId}", s.ws.ServeWS)

	return r
}

// CORS middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
		w.Header().Set("Access-Control-Allow-Credentials", "false")

		// If it's a websocket upgrade, skip further CORS checks
		if strings.ToLower(r.Header.Get("Upgrade")) == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "up"}
	if s.db != nil {
		for k, v := range s.db.Health() {
			resp[k] = v
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateRoomHandler makes a new room. Body: {"name": "<host display name>"}.
func (s *Server) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		writeTimedResponse(w, internal.Response{
			StatusCode:    http.StatusBadRequest,
			RespStartTime: startTime,
			Data:          "a non-empty name is required",
		})
		return
	}

	room, playerID, err := s.engine.CreateRoom(r.Context(), strings.TrimSpace(body.Name))
	if err != nil {
		logrus.Errorf("[CreateRoomHandler] create failed: %v", err)
		writeTimedResponse(w, internal.Response{
			StatusCode:    http.StatusInternalServerError,
			RespStartTime: startTime,
			Data:          "could not create room, please retry",
		})
		return
	}

	writeTimedResponse(w, internal.Response{
		StatusCode:    http.StatusCreated,
		RespStartTime: startTime,
		Data: map[string]string{
			"room_code": room.Code,
			"player_id": playerID,
		},
	})
}

func (s *Server) GetRoomToJoin(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()
	roomCode := s.engine.FindJoinableRoom(r.Context())

	var resp internal.Response
	if roomCode != "" {
		resp = internal.Response{
			StatusCode:    http.StatusOK,
			RespStartTime: startTime,
			Data:          roomCode,
		}
	} else {
		resp = internal.Response{
			StatusCode:    http.StatusNotFound,
			RespStartTime: startTime,
			Data:          "No joinable rooms available",
		}
	}
	writeTimedResponse(w, resp)
}

func writeTimedResponse(w http.ResponseWriter, resp internal.Response) {
	endTime := time.Now().UnixMilli()
	resp.RespEndTime = endTime
	resp.NetRespTime = endTime - resp.RespStartTime
	writeJSON(w, resp.StatusCode, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Error encoding response: %v", err)
	}
}
