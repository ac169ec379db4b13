// Package httpapi is the lobby-facing REST surface: game registration, room
// creation and read-only history/replay access. Gameplay itself happens over
// the WebSocket endpoint.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/mjgo/server/internal/persist"
	"github.com/mjgo/server/internal/session"
)

type API struct {
	mgr     *session.Manager
	history *persist.HistoryRepo
	replays *persist.ReplayRepo
	log     *zap.Logger
}

func New(mgr *session.Manager, history *persist.HistoryRepo, replays *persist.ReplayRepo, log *zap.Logger) *API {
	return &API{mgr: mgr, history: history, replays: replays, log: log}
}

// Register mounts the API routes on mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /games", a.createGame)
	mux.HandleFunc("POST /rooms", a.createRoom)
	mux.HandleFunc("GET /games", a.listGames)
	mux.HandleFunc("GET /replays/{game_id}", a.getReplay)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

type createGamePlayer struct {
	Name       string `json:"name"`
	UserID     string `json:"user_id"`
	GameTicket string `json:"game_ticket"`
}

type createGameRequest struct {
	GameID       string             `json:"game_id"`
	Preset       string             `json:"preset,omitempty"`
	NumAIPlayers int                `json:"num_ai_players"`
	Players      []createGamePlayer `json:"players"`
}

func (a *API) createGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.GameID == "" {
		writeError(w, http.StatusBadRequest, "game_id is required")
		return
	}
	if len(req.Players) > 4 {
		writeError(w, http.StatusRequestEntityTooLarge, "too many players")
		return
	}

	players := make([]session.PendingPlayerSpec, len(req.Players))
	for i, p := range req.Players {
		players[i] = session.PendingPlayerSpec{Name: p.Name, UserID: p.UserID, Ticket: p.GameTicket}
	}

	err := a.mgr.RegisterGame(req.GameID, req.Preset, players, req.NumAIPlayers)
	switch {
	case err == nil:
		a.log.Info("對局登記成功", zap.String("game_id", req.GameID))
		writeJSON(w, http.StatusCreated, map[string]string{"game_id": req.GameID})
	case errors.Is(err, session.ErrGameExists), errors.Is(err, session.ErrDuplicateEntry):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrTooManyPending):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

type createRoomRequest struct {
	NumAIPlayers int `json:"num_ai_players"`
}

func (a *API) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	id, err := a.mgr.CreateRoom(req.NumAIPlayers)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"room_id": id})
}

func (a *API) listGames(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be 1..500")
			return
		}
		limit = n
	}
	rows, err := a.history.RecentGames(r.Context(), limit)
	if err != nil {
		a.log.Error("對局列表查詢失敗", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (a *API) getReplay(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("game_id")
	journal, err := a.replays.LoadReplay(r.Context(), id)
	if errors.Is(err, persist.ErrReplayNotFound) {
		writeError(w, http.StatusNotFound, "no replay for game")
		return
	}
	if err != nil {
		a.log.Error("牌譜讀取失敗", zap.String("game_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "replay unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(journal)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
