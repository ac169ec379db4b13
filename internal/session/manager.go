// Package session binds the transport to the game core: it tracks
// connections, runs the pending-game and room protocols, owns the per-game
// sessions with their timers and replay journals, and substitutes an AI for
// any seat that drops.
package session

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mjgo/server/internal/ai"
	"github.com/mjgo/server/internal/config"
	"github.com/mjgo/server/internal/event"
	"github.com/mjgo/server/internal/game"
	"github.com/mjgo/server/internal/net"
)

// HistoryStore records game rows for the match-history API.
type HistoryStore interface {
	CreateGame(ctx context.Context, id string, startedAt time.Time, gameType string, players []string) error
	FinishGame(ctx context.Context, id string, endedAt time.Time, endReason string, numRounds int, standings []event.Standing) error
}

// ReplayStore persists completed game journals.
type ReplayStore interface {
	SaveReplay(ctx context.Context, gameID string, journal []byte) error
}

// client is the registry's view of one connection.
type client struct {
	conn        *net.WSConn
	connectedAt time.Time
	name        string

	// At most one of these is set; it is the connection's current home.
	pendingID string
	roomID    string
	gameID    string
}

func (cl *client) authed() bool {
	return cl.pendingID != "" || cl.roomID != "" || cl.gameID != ""
}

// Manager is the net.Router: it owns every registry (connections, pending
// games, rooms, live sessions) behind one lock, and delegates in-game traffic
// to the per-game session locks. Lock order is always registry → session.
type Manager struct {
	cfg     *config.Config
	log     *zap.Logger
	history HistoryStore
	replays ReplayStore
	presets map[string]game.Settings

	// newStrategy builds one substitute brain per replaced seat.
	newStrategy func() ai.Strategy

	mu      sync.Mutex
	rng     *rand.Rand
	conns   map[uint64]*client
	pending map[string]*pendingGame
	rooms   map[string]*room
	games   map[string]*GameSession
}

func NewManager(cfg *config.Config, presets map[string]game.Settings, history HistoryStore, replays ReplayStore, newStrategy func() ai.Strategy, log *zap.Logger) *Manager {
	if newStrategy == nil {
		newStrategy = func() ai.Strategy { return ai.Tsumogiri{} }
	}
	return &Manager{
		cfg:         cfg,
		log:         log,
		history:     history,
		replays:     replays,
		presets:     presets,
		newStrategy: newStrategy,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		conns:       make(map[uint64]*client),
		pending:     make(map[string]*pendingGame),
		rooms:       make(map[string]*room),
		games:       make(map[string]*GameSession),
	}
}

// ── net.Router ──

func (m *Manager) HandleMessage(c *net.WSConn, msg net.ClientMessage) {
	m.track(c)

	switch msg.Type {
	case net.MsgPing:
		c.TouchPing()
		c.Send(event.Event{Type: event.TypePong})
	case net.MsgJoinGame:
		m.handleJoinGame(c, msg.GameTicket)
	case net.MsgReconnect:
		m.handleReconnect(c, msg.GameID, msg.SessionToken)
	case net.MsgGameAction:
		if gs := m.sessionOf(c.ID()); gs != nil {
			gs.handleAction(c, msg)
		} else {
			c.Send(event.NewError(0, "GAME_ERROR", "connection is not in a game"))
		}
	case net.MsgChat:
		m.handleChat(c, msg.Text)
	case net.MsgCreateRoom:
		m.handleCreateRoom(c, msg.Name)
	case net.MsgJoinRoom:
		m.handleJoinRoom(c, msg.RoomID, msg.Name)
	case net.MsgLeaveRoom:
		m.handleLeaveRoom(c)
	case net.MsgSetReady:
		ready := true
		if msg.Ready != nil {
			ready = *msg.Ready
		}
		m.handleSetReady(c, ready)
	default:
		c.Send(event.NewError(0, "GAME_ERROR", "unknown message type "+msg.Type))
	}
}

func (m *Manager) HandleDisconnect(c *net.WSConn) {
	m.mu.Lock()
	cl := m.conns[c.ID()]
	delete(m.conns, c.ID())

	var gs *GameSession
	if cl != nil {
		switch {
		case cl.pendingID != "":
			m.leavePendingLocked(cl.pendingID, c.ID())
		case cl.roomID != "":
			m.leaveRoomLocked(cl.roomID, c.ID())
		case cl.gameID != "":
			gs = m.games[cl.gameID]
		}
	}
	m.mu.Unlock()

	if gs != nil {
		gs.handleDisconnect(c.ID())
	}
}

func (m *Manager) track(c *net.WSConn) {
	m.mu.Lock()
	if _, ok := m.conns[c.ID()]; !ok {
		m.conns[c.ID()] = &client{conn: c, connectedAt: time.Now()}
	}
	m.mu.Unlock()
}

func (m *Manager) sessionOf(connID uint64) *GameSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	cl := m.conns[connID]
	if cl == nil || cl.gameID == "" {
		return nil
	}
	return m.games[cl.gameID]
}

// detachGame drops a finished session from the registry. Called from session
// closers, never under a session lock's critical section.
func (m *Manager) detachGame(id string) {
	m.mu.Lock()
	delete(m.games, id)
	m.mu.Unlock()
}

// ── registration (HTTP API) ──

// RegisterGame reserves a game id and its join tickets; the humans then
// connect over WebSocket with join_game.
func (m *Manager) RegisterGame(id, presetName string, players []PendingPlayerSpec, numAI int) error {
	settings, err := m.preset(presetName)
	if err != nil {
		return err
	}
	pg, err := newPendingGame(id, settings, players, numAI)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pending[id]; ok {
		return ErrGameExists
	}
	if _, ok := m.games[id]; ok {
		return ErrGameExists
	}
	if len(m.pending) >= m.cfg.Game.MaxPendingGames {
		return ErrTooManyPending
	}
	pg.timer = time.AfterFunc(m.cfg.Game.PendingStartTimeout, func() { m.pendingExpired(id) })
	m.pending[id] = pg
	m.log.Info("對局已登記",
		zap.String("game_id", id), zap.Int("humans", len(players)), zap.Int("ai", numAI))
	return nil
}

// CreateRoom opens an empty casual room and returns its id.
func (m *Manager) CreateRoom(numAI int) (string, error) {
	if numAI < 0 || numAI > 3 {
		return "", ErrBadPlayerCount
	}
	r := &room{id: uuid.NewString(), numAI: numAI, createdAt: time.Now()}
	m.mu.Lock()
	m.rooms[r.id] = r
	m.mu.Unlock()
	m.log.Info("房間已建立", zap.String("room_id", r.id), zap.Int("ai", numAI))
	return r.id, nil
}

func (m *Manager) preset(name string) (game.Settings, error) {
	if name == "" {
		name = m.cfg.Game.Preset
	}
	st, ok := m.presets[name]
	if !ok {
		return game.Settings{}, ErrUnknownPreset
	}
	return st, nil
}

// ── pending-game protocol ──

func (m *Manager) handleJoinGame(c *net.WSConn, ticket string) {
	if ticket == "" {
		c.Send(event.NewError(0, "AUTH_FAILED", "missing game_ticket"))
		return
	}

	m.mu.Lock()
	var (
		pg   *pendingGame
		seat *pendingSeat
	)
	for _, p := range m.pending {
		if s := p.matchTicket(ticket); s != nil {
			pg, seat = p, s
			break
		}
	}
	if pg == nil {
		m.mu.Unlock()
		c.Send(event.NewError(0, "AUTH_FAILED", "unknown game ticket"))
		return
	}

	var closers []func()
	if old := seat.conn; old != nil {
		// Second connection with the same ticket replaces the first.
		if ocl := m.conns[old.ID()]; ocl != nil {
			ocl.pendingID = ""
		}
		closers = append(closers, func() { old.Close(net.CloseNormal, "replaced_by_reconnect") })
	}
	seat.conn = c
	if cl := m.conns[c.ID()]; cl != nil {
		cl.pendingID = pg.id
		cl.name = seat.name
	}

	joined := event.NewBroadcast(event.TypePlayerJoined, event.PlayerJoined{
		Name:           seat.name,
		ConnectedCount: pg.connectedCount(),
		ExpectedCount:  len(pg.humans),
	})
	for _, s := range pg.humans {
		if s.conn != nil {
			s.conn.Send(joined)
		}
	}

	if pg.full() {
		closers = append(closers, m.promotePendingLocked(pg)...)
	}
	m.mu.Unlock()
	runAll(closers)
}

func (m *Manager) leavePendingLocked(id string, connID uint64) {
	pg := m.pending[id]
	if pg == nil {
		return
	}
	for _, s := range pg.humans {
		if s.conn != nil && s.conn.ID() == connID {
			s.conn = nil
			break
		}
	}
}

// pendingExpired fires when a registered game's start deadline passes:
// whoever showed up plays, the absent seats go to substitutes. A game nobody
// joined is dropped.
func (m *Manager) pendingExpired(id string) {
	m.mu.Lock()
	pg := m.pending[id]
	var closers []func()
	if pg != nil {
		if pg.connectedCount() == 0 {
			delete(m.pending, id)
			m.log.Info("等待逾時，取消對局", zap.String("game_id", id))
		} else {
			m.log.Info("等待逾時，缺席者由代打補位",
				zap.String("game_id", id), zap.Int("connected", pg.connectedCount()))
			closers = m.promotePendingLocked(pg)
		}
	}
	m.mu.Unlock()
	runAll(closers)
}

// promotePendingLocked turns a pending game into a live session. Absent
// humans become AI seats.
func (m *Manager) promotePendingLocked(pg *pendingGame) []func() {
	delete(m.pending, pg.id)
	if pg.timer != nil {
		pg.timer.Stop()
	}

	var humans []seatSpec
	for _, s := range pg.humans {
		if s.conn != nil {
			humans = append(humans, seatSpec{name: s.name, userID: s.userID, conn: s.conn})
		}
	}
	return m.buildSessionLocked(pg.id, pg.settings, humans)
}

// ── room protocol ──

func (m *Manager) handleCreateRoom(c *net.WSConn, name string) {
	name, err := NormalizeName(name)
	if err != nil {
		c.Send(event.NewError(0, "INVALID_NAME", err.Error()))
		return
	}
	r := &room{id: uuid.NewString(), createdAt: time.Now()}
	m.mu.Lock()
	m.rooms[r.id] = r
	m.joinRoomLocked(r, c, name)
	m.mu.Unlock()
}

func (m *Manager) handleJoinRoom(c *net.WSConn, roomID, name string) {
	name, err := NormalizeName(name)
	if err != nil {
		c.Send(event.NewError(0, "INVALID_NAME", err.Error()))
		return
	}
	m.mu.Lock()
	r := m.rooms[roomID]
	switch {
	case r == nil:
		m.mu.Unlock()
		c.Send(event.NewError(0, "ROOM_NOT_FOUND", "no such room"))
		return
	case r.transitioning:
		m.mu.Unlock()
		c.Send(event.NewError(0, "ROOM_STARTING", "room is starting its game"))
		return
	case len(r.players) >= r.capacity():
		m.mu.Unlock()
		c.Send(event.NewError(0, "ROOM_FULL", "room is full"))
		return
	}
	for _, p := range r.players {
		if p.name == name {
			m.mu.Unlock()
			c.Send(event.NewError(0, "INVALID_NAME", "name already taken in this room"))
			return
		}
	}
	m.joinRoomLocked(r, c, name)
	m.mu.Unlock()
}

func (m *Manager) joinRoomLocked(r *room, c *net.WSConn, name string) {
	r.broadcast(event.NewBroadcast(event.TypePlayerJoined, event.PlayerJoined{
		Name:           name,
		ConnectedCount: len(r.players) + 1,
		ExpectedCount:  r.capacity(),
	}))
	r.players = append(r.players, &roomPlayer{conn: c, name: name})
	if cl := m.conns[c.ID()]; cl != nil {
		cl.roomID = r.id
		cl.name = name
	}
	c.Send(event.NewBroadcast(event.TypeRoomJoined, event.RoomJoined{
		RoomID:  r.id,
		Players: r.roster(),
		NumAI:   r.numAI,
	}))
}

func (m *Manager) handleLeaveRoom(c *net.WSConn) {
	m.mu.Lock()
	cl := m.conns[c.ID()]
	if cl == nil || cl.roomID == "" {
		m.mu.Unlock()
		c.Send(event.NewError(0, "ROOM_NOT_FOUND", "connection is not in a room"))
		return
	}
	id := cl.roomID
	cl.roomID = ""
	m.leaveRoomLocked(id, c.ID())
	m.mu.Unlock()
	c.Send(event.Event{Type: event.TypeRoomLeft})
}

func (m *Manager) leaveRoomLocked(id string, connID uint64) {
	r := m.rooms[id]
	if r == nil || r.transitioning {
		return
	}
	p := r.find(connID)
	if p == nil || !r.remove(connID) {
		return
	}
	if len(r.players) == 0 {
		delete(m.rooms, id)
		return
	}
	r.broadcast(event.NewBroadcast(event.TypePlayerLeft, event.PlayerLeft{Seat: -1, Name: p.name}))
}

func (m *Manager) handleSetReady(c *net.WSConn, ready bool) {
	m.mu.Lock()
	cl := m.conns[c.ID()]
	if cl == nil || cl.roomID == "" {
		m.mu.Unlock()
		c.Send(event.NewError(0, "ROOM_NOT_FOUND", "connection is not in a room"))
		return
	}
	r := m.rooms[cl.roomID]
	if r == nil || r.transitioning {
		m.mu.Unlock()
		return
	}
	p := r.find(c.ID())
	if p == nil {
		m.mu.Unlock()
		return
	}
	p.ready = ready
	r.broadcast(event.NewBroadcast(event.TypePlayerReadyChanged, event.PlayerReadyChanged{
		Name: p.name, Ready: ready,
	}))

	var closers []func()
	if r.allReady() {
		r.transitioning = true
		delete(m.rooms, r.id)

		settings, err := m.preset("")
		if err != nil {
			m.mu.Unlock()
			m.log.Error("預設規則缺失", zap.Error(err))
			return
		}
		var humans []seatSpec
		for _, rp := range r.players {
			if rcl := m.conns[rp.conn.ID()]; rcl != nil {
				rcl.roomID = ""
			}
			humans = append(humans, seatSpec{name: rp.name, conn: rp.conn})
		}
		closers = m.buildSessionLocked(uuid.NewString(), settings, humans)
	}
	m.mu.Unlock()
	runAll(closers)
}

// ── session construction ──

// seatSpec is one human to seat in a new game.
type seatSpec struct {
	name   string
	userID string
	conn   *net.WSConn
}

// buildSessionLocked seats the humans in order, fills the rest with
// substitutes, and returns the closers that credential the players and deal
// the first round. Callers hold the registry lock.
func (m *Manager) buildSessionLocked(id string, settings game.Settings, humans []seatSpec) []func() {
	var names [4]string
	for i := range names {
		if i < len(humans) {
			names[i] = humans[i].name
		} else {
			names[i] = fmt.Sprintf("CPU %d", i+1-len(humans))
		}
	}

	baseSeed := m.rng.Int63()
	wallRNG := rand.New(rand.NewSource(baseSeed))
	g := game.New(id, names, settings, wallRNG.Int63, m.log)
	for seat := len(humans); seat < 4; seat++ {
		g.SeatAI(seat, m.newStrategy())
	}

	var seats [4]seatSlot
	tokens := make([]string, len(humans))
	for i, h := range humans {
		tokens[i] = uuid.NewString()
		hash, err := bcrypt.GenerateFromPassword([]byte(tokens[i]), bcrypt.DefaultCost)
		if err != nil {
			// bcrypt only fails on absurd cost values; play on without
			// reconnection for the seat.
			m.log.Error("會話憑證產生失敗", zap.Error(err))
		}
		seats[i] = seatSlot{
			name:      h.name,
			userID:    h.userID,
			tokenHash: hash,
			human:     true,
			conn:      h.conn,
		}
	}
	for seat := len(humans); seat < 4; seat++ {
		seats[seat] = seatSlot{name: names[seat]}
	}

	gs := newGameSession(m, g, seats, baseSeed)
	m.games[id] = gs
	playerNames := make([]string, 0, len(humans))
	for _, h := range humans {
		if cl := m.conns[h.conn.ID()]; cl != nil {
			cl.pendingID = ""
			cl.gameID = id
		}
		playerNames = append(playerNames, h.name)
	}

	closers := []func(){func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := m.history.CreateGame(ctx, id, time.Now(), settings.Preset, playerNames); err != nil {
			m.log.Error("對局紀錄建立失敗", zap.String("game_id", id), zap.Error(err))
		}
	}}
	for i, h := range humans {
		seat, conn, token := i, h.conn, tokens[i]
		closers = append(closers, func() {
			conn.Send(event.NewSeat(event.TypeGameStarting, seat, event.GameStarting{
				GameID: id, Seat: seat, SessionToken: token,
			}))
		})
	}
	return append(closers, func() { gs.start() })
}

// ── in-game routing ──

func (m *Manager) handleReconnect(c *net.WSConn, gameID, token string) {
	if gameID == "" || token == "" {
		c.Send(event.NewError(0, "AUTH_FAILED", "missing game_id or session_token"))
		return
	}
	m.mu.Lock()
	gs := m.games[gameID]
	m.mu.Unlock()
	if gs == nil {
		c.Send(event.NewError(0, "GAME_ERROR", "no such game"))
		return
	}
	if !gs.reconnect(c, token) {
		return
	}
	m.mu.Lock()
	if cl := m.conns[c.ID()]; cl != nil {
		cl.gameID = gameID
	}
	m.mu.Unlock()
}

func (m *Manager) handleChat(c *net.WSConn, text string) {
	if len(text) > 500 {
		text = text[:500]
	}
	m.mu.Lock()
	cl := m.conns[c.ID()]
	var (
		gs *GameSession
		r  *room
	)
	var name string
	if cl != nil {
		name = cl.name
		switch {
		case cl.gameID != "":
			gs = m.games[cl.gameID]
		case cl.roomID != "":
			r = m.rooms[cl.roomID]
		}
	}
	if r != nil && text != "" {
		r.broadcast(event.NewBroadcast(event.TypeChat, event.Chat{Seat: -1, Name: name, Text: text}))
	}
	m.mu.Unlock()

	if gs != nil {
		gs.handleChat(c.ID(), text)
	}
}
