package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mjgo/server/internal/event"
	"github.com/mjgo/server/internal/game"
	"github.com/mjgo/server/internal/net"
	"github.com/mjgo/server/internal/round"
	"github.com/mjgo/server/internal/tile"
)

// seatSlot is one seat's connection-side state. Game-rule state lives in the
// Game; this is only identity, transport and reconnection bookkeeping.
type seatSlot struct {
	name      string
	userID    string
	tokenHash []byte // bcrypt of the session token; nil for AI-from-start seats
	human     bool   // configured as a human seat (survives AI substitution)

	conn           net.Connection // nil while disconnected
	disconnectedAt time.Time
	remainingBank  time.Duration // bank captured at disconnect
}

// GameSession binds one Game to its four connections: it serializes all
// access to the game, fans events out, runs the timers and records the
// replay. Socket closes and persistence always happen outside the lock, via
// the closer lists the locked sections build up.
type GameSession struct {
	id  string
	mgr *Manager
	log *zap.Logger

	// Lock order across the package is registry → session; a locked session
	// never calls back into the registry.
	mu     sync.Mutex
	g      *game.Game
	seats  [4]seatSlot
	timers *TimerManager
	replay *ReplayCollector
	ended  bool
}

// persistTimeout bounds the post-game database writes.
const persistTimeout = 10 * time.Second

func newGameSession(mgr *Manager, g *game.Game, seats [4]seatSlot, seed int64) *GameSession {
	gs := &GameSession{
		id:     g.ID,
		mgr:    mgr,
		log:    mgr.log.With(zap.String("game_id", g.ID)),
		g:      g,
		seats:  seats,
		replay: NewReplayCollector(g.ID, seed),
	}
	gs.timers = NewTimerManager(mgr.cfg.Timer, gs.handleTimeout)
	return gs
}

// start deals the first round and delivers the opening events.
func (gs *GameSession) start() {
	gs.mu.Lock()
	closers := gs.dispatch(gs.g.Start())
	gs.mu.Unlock()
	runAll(closers)
}

// seatOf resolves a live connection to its seat, -1 when unknown.
func (gs *GameSession) seatOf(connID uint64) int {
	for i := range gs.seats {
		if c := gs.seats[i].conn; c != nil && c.ID() == connID {
			return i
		}
	}
	return -1
}

// handleAction applies one game_action message from a connection.
func (gs *GameSession) handleAction(c net.Connection, msg net.ClientMessage) {
	gs.mu.Lock()
	closers := gs.handleActionLocked(c, msg)
	gs.mu.Unlock()
	runAll(closers)
}

func (gs *GameSession) handleActionLocked(c net.Connection, msg net.ClientMessage) []func() {
	if gs.ended {
		c.Send(event.NewError(0, "GAME_ERROR", "game is over"))
		return nil
	}
	seat := gs.seatOf(c.ID())
	if seat < 0 {
		c.Send(event.NewError(0, "GAME_ERROR", "connection is not seated in this game"))
		return nil
	}

	evs, err := gs.applyAction(seat, msg)
	if err != nil {
		var ie *round.InvalidError
		if errors.As(err, &ie) {
			// Rule violations no honest client produces: drop the offender and
			// hand the seat to a substitute.
			gs.log.Warn("玩家違規操作，強制斷線",
				zap.Int("seat", seat), zap.String("code", ie.Code), zap.String("reason", ie.Reason))
			c.Send(event.NewError(seat, ie.Code, ie.Reason))
			return gs.substituteLocked(seat, "invalid_game_action", net.ClosePolicy)
		}
		c.Send(event.NewError(seat, "GAME_ERROR", err.Error()))
		return nil
	}
	return gs.dispatch(evs)
}

// applyAction translates the wire action into a game call.
func (gs *GameSession) applyAction(seat int, msg net.ClientMessage) ([]event.Event, error) {
	needTile := func() (tile.Tile, error) {
		if msg.TileID == nil {
			return 0, errors.New("action requires tile_id")
		}
		t := tile.Tile(*msg.TileID)
		if t < 0 || int(t) >= tile.NumTiles {
			return 0, errors.New("tile_id out of range")
		}
		return t, nil
	}

	switch msg.Action {
	case net.ActionDiscard, net.ActionDeclareRiichi:
		t, err := needTile()
		if err != nil {
			return nil, err
		}
		return gs.g.Discard(seat, t, msg.Action == net.ActionDeclareRiichi)
	case net.ActionDeclareTsumo:
		return gs.g.Tsumo(seat)
	case net.ActionCallRon:
		return gs.g.CallResponse(seat, round.RespRon, [2]tile.Tile{})
	case net.ActionCallPon:
		return gs.g.CallResponse(seat, round.RespPon, [2]tile.Tile{})
	case net.ActionCallChi:
		if msg.SequenceTiles == nil {
			return nil, errors.New("call_chi requires sequence_tiles")
		}
		pair := [2]tile.Tile{tile.Tile(msg.SequenceTiles[0]), tile.Tile(msg.SequenceTiles[1])}
		return gs.g.CallResponse(seat, round.RespChi, pair)
	case net.ActionCallKan:
		switch msg.KanType {
		case net.KanClosed:
			t, err := needTile()
			if err != nil {
				return nil, err
			}
			return gs.g.ClosedKan(seat, t)
		case net.KanAdded:
			t, err := needTile()
			if err != nil {
				return nil, err
			}
			return gs.g.AddedKan(seat, t)
		case net.KanOpen, "":
			return gs.g.CallResponse(seat, round.RespKan, [2]tile.Tile{})
		}
		return nil, errors.New("unknown kan_type " + msg.KanType)
	case net.ActionPass:
		return gs.g.CallResponse(seat, round.RespPass, [2]tile.Tile{})
	case net.ActionCallKyuushu:
		return gs.g.Kyuushu(seat)
	case net.ActionConfirmRound:
		return gs.g.ConfirmAdvance(seat), nil
	}
	return nil, errors.New("unknown game action " + msg.Action)
}

// handleChat relays table chat to every seated connection.
func (gs *GameSession) handleChat(connID uint64, text string) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	seat := gs.seatOf(connID)
	if seat < 0 || text == "" {
		return
	}
	ev := event.NewBroadcast(event.TypeChat, event.Chat{
		Seat: seat, Name: gs.seats[seat].name, Text: text,
	})
	for i := range gs.seats {
		if c := gs.seats[i].conn; c != nil {
			c.Send(ev)
		}
	}
}

// handleDisconnect substitutes the seat behind a dropped connection.
func (gs *GameSession) handleDisconnect(connID uint64) {
	gs.mu.Lock()
	seat := gs.seatOf(connID)
	var closers []func()
	if seat >= 0 && !gs.ended {
		gs.log.Info("玩家斷線，代打接手", zap.Int("seat", seat), zap.String("name", gs.seats[seat].name))
		closers = gs.substituteLocked(seat, "", 0)
	}
	gs.mu.Unlock()
	runAll(closers)
}

// substituteLocked detaches the seat's connection, captures its clock, hands
// the seat to a substitute and plays the substitute forward. closeCode 0
// means the socket is already gone.
func (gs *GameSession) substituteLocked(seat int, closeReason string, closeCode int) []func() {
	slot := &gs.seats[seat]
	c := slot.conn
	slot.conn = nil
	slot.disconnectedAt = time.Now()
	slot.remainingBank = gs.timers.Bank(seat)
	gs.timers.CancelSeat(seat)

	var closers []func()
	if c != nil && closeCode != 0 {
		closers = append(closers, func() { c.Close(closeCode, closeReason) })
	}

	evs := []event.Event{event.NewBroadcast(event.TypePlayerLeft, event.PlayerLeft{
		Seat: seat, Name: slot.name,
	})}
	evs = append(evs, gs.g.ReplaceWithAI(seat, gs.mgr.newStrategy())...)
	closers = append(closers, gs.dispatch(evs)...)

	if !gs.ended && gs.connectedHumans() == 0 {
		closers = append(closers, gs.abandonLocked()...)
	}
	return closers
}

func (gs *GameSession) connectedHumans() int {
	n := 0
	for i := range gs.seats {
		if gs.seats[i].conn != nil {
			n++
		}
	}
	return n
}

// abandonLocked tears the game down with nobody left to play for. The replay
// is dropped; only the history row records the abandonment.
func (gs *GameSession) abandonLocked() []func() {
	gs.ended = true
	gs.timers.StopAll()
	gs.log.Info("對局無人，放棄", zap.Int("rounds", gs.g.RoundsPlayed()))

	id, rounds := gs.id, gs.g.RoundsPlayed()
	mgr := gs.mgr
	return []func(){func() {
		mgr.detachGame(id)
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := mgr.history.FinishGame(ctx, id, time.Now(), "abandoned", rounds, nil); err != nil {
			mgr.log.Error("對局紀錄寫入失敗", zap.String("game_id", id), zap.Error(err))
		}
	}}
}

// reconnect re-seats a returning player. The caller holds no locks.
func (gs *GameSession) reconnect(c net.Connection, token string) bool {
	gs.mu.Lock()
	if gs.ended {
		gs.mu.Unlock()
		c.Send(event.NewError(0, "GAME_ERROR", "game is over"))
		return false
	}

	seat := -1
	for i := range gs.seats {
		s := &gs.seats[i]
		if !s.human || len(s.tokenHash) == 0 {
			continue
		}
		if bcrypt.CompareHashAndPassword(s.tokenHash, []byte(token)) == nil {
			seat = i
			break
		}
	}
	if seat < 0 {
		gs.mu.Unlock()
		c.Send(event.NewError(0, "AUTH_FAILED", "invalid session token"))
		return false
	}

	var closers []func()
	slot := &gs.seats[seat]
	if old := slot.conn; old != nil {
		// Same credential from a new socket wins; the stale one is evicted.
		closers = append(closers, func() { old.Close(net.CloseNormal, "replaced_by_reconnect") })
	} else {
		gs.g.RestoreHuman(seat)
		gs.timers.SetBank(seat, slot.remainingBank)
	}
	slot.conn = c
	slot.disconnectedAt = time.Time{}
	gs.log.Info("玩家重連", zap.Int("seat", seat), zap.String("name", slot.name))

	c.Send(event.NewSeat(event.TypeGameReconnected, seat, gs.g.Snapshot(seat)))
	closers = append(closers, gs.dispatch([]event.Event{
		event.NewBroadcast(event.TypePlayerReconnected, event.PlayerReconnected{Seat: seat, Name: slot.name}),
	})...)
	gs.rearmSeatLocked(seat)
	gs.mu.Unlock()
	runAll(closers)
	return true
}

// rearmSeatLocked restarts whatever timer the reconnected seat owes.
func (gs *GameSession) rearmSeatLocked(seat int) {
	switch {
	case gs.g.Finished():
	case gs.g.AwaitingAdvance():
		if gs.g.AdvancePending(seat) {
			gs.timers.StartAdvance(seat)
		}
	case gs.g.Round().Prompt != nil:
		if gs.g.Round().Prompt.Pending[seat] {
			gs.timers.StartMeld(seat)
		}
	case gs.g.Round().Current == seat:
		gs.timers.StartTurn(seat)
	}
}

// handleTimeout runs on a timer goroutine when a seat's clock empties.
func (gs *GameSession) handleTimeout(seat int, kind TimeoutKind) {
	gs.mu.Lock()
	var closers []func()
	if !gs.ended {
		gs.log.Info("計時逾時，執行預設動作",
			zap.Int("seat", seat), zap.String("timer", kind.String()))
		closers = gs.dispatch(gs.g.Timeout(seat))
	}
	gs.mu.Unlock()
	runAll(closers)
}

// dispatch records, times and delivers one batch of game events. Returned
// closers run outside the lock.
func (gs *GameSession) dispatch(evs []event.Event) []func() {
	var closers []func()
	for _, ev := range evs {
		gs.replay.Offer(ev)
		closers = append(closers, gs.applyTimers(ev)...)
		gs.deliver(ev)
	}
	return closers
}

// applyTimers translates event types into timer transitions.
func (gs *GameSession) applyTimers(ev event.Event) []func() {
	switch ev.Type {
	case event.TypeRoundStarted:
		if ev.Target == 0 {
			gs.timers.AddRoundBonus()
			for seat := 0; seat < 4; seat++ {
				gs.timers.CancelAdvance(seat)
			}
		}
	case event.TypeDraw:
		gs.timers.CancelAllMelds()
		d := ev.Data.(event.Draw)
		if gs.humanSeated(d.Seat) {
			gs.timers.StartTurn(d.Seat)
		}
	case event.TypeTurn:
		t := ev.Data.(event.Turn)
		if gs.humanSeated(t.Seat) {
			gs.timers.StartTurn(t.Seat)
		}
	case event.TypeDiscard:
		gs.timers.StopTurn(ev.Data.(event.Discard).Seat)
	case event.TypeMeld:
		gs.timers.CancelAllMelds()
	case event.TypeCallPrompt:
		if gs.humanSeated(ev.Target) {
			gs.timers.StartMeld(ev.Target)
		}
	case event.TypeRoundEnd:
		for seat := 0; seat < 4; seat++ {
			gs.timers.StopTurn(seat)
			gs.timers.CancelMeld(seat)
		}
		if !gs.g.Finished() {
			for seat := 0; seat < 4; seat++ {
				if gs.humanSeated(seat) {
					gs.timers.StartAdvance(seat)
				}
			}
		}
	case event.TypeGameEnded:
		return gs.finishLocked(ev.Data.(event.GameEnded))
	}
	return nil
}

func (gs *GameSession) humanSeated(seat int) bool {
	return seat >= 0 && seat < 4 && !gs.g.IsAI(seat) && gs.seats[seat].conn != nil
}

// finishLocked persists the completed game and schedules the goodbyes.
func (gs *GameSession) finishLocked(result event.GameEnded) []func() {
	gs.ended = true
	gs.timers.StopAll()

	id := gs.id
	mgr := gs.mgr
	journal := gs.replay.Bytes()
	rounds := gs.g.RoundsPlayed()
	standings := result.Standings

	closers := []func(){func() {
		mgr.detachGame(id)
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := mgr.replays.SaveReplay(ctx, id, journal); err != nil {
			mgr.log.Error("牌譜寫入失敗", zap.String("game_id", id), zap.Error(err))
		}
		if err := mgr.history.FinishGame(ctx, id, time.Now(), "completed", rounds, standings); err != nil {
			mgr.log.Error("對局紀錄寫入失敗", zap.String("game_id", id), zap.Error(err))
		}
	}}
	for i := range gs.seats {
		if c := gs.seats[i].conn; c != nil {
			closers = append(closers, func() { c.Close(net.CloseNormal, "game_ended") })
		}
	}
	return closers
}

// deliver fans one event out to the connections it targets. Non-acting seats
// never see another seat's action hints.
func (gs *GameSession) deliver(ev event.Event) {
	for seat := range gs.seats {
		c := gs.seats[seat].conn
		if c == nil {
			continue
		}
		if ev.Target != event.Broadcast && ev.Target != seat {
			continue
		}
		out := ev
		if ev.Type == event.TypeDraw {
			if d := ev.Data.(event.Draw); d.Seat != seat && len(d.AvailableActions) > 0 {
				d.AvailableActions = nil
				out.Data = d
			}
		}
		c.Send(out)
	}
}

func runAll(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}
