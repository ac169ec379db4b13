package session

import (
	"sync"
	"time"

	"github.com/mjgo/server/internal/config"
)

// TimeoutKind identifies which timer expired.
type TimeoutKind int

const (
	TimeoutTurn TimeoutKind = iota
	TimeoutMeld
	TimeoutAdvance
)

func (k TimeoutKind) String() string {
	switch k {
	case TimeoutTurn:
		return "turn"
	case TimeoutMeld:
		return "meld"
	case TimeoutAdvance:
		return "round_advance"
	}
	return "unknown"
}

// TimerManager runs the per-seat chess clock plus the fixed call-prompt and
// round-advance timers for one game. Turn time is a bank: every turn grants
// the increment for free, and only time beyond the increment drains the bank.
// Expiry callbacks fire on a timer goroutine; the owner re-locks the game.
type TimerManager struct {
	cfg      config.TimerConfig
	onExpire func(seat int, kind TimeoutKind)

	mu      sync.Mutex
	stopped bool

	bank      [4]time.Duration
	turn      [4]*time.Timer
	turnStart [4]time.Time
	turnGen   [4]uint64

	meld    [4]*time.Timer
	meldGen [4]uint64

	advance    [4]*time.Timer
	advanceGen [4]uint64
}

func NewTimerManager(cfg config.TimerConfig, onExpire func(seat int, kind TimeoutKind)) *TimerManager {
	tm := &TimerManager{cfg: cfg, onExpire: onExpire}
	for i := range tm.bank {
		tm.bank[i] = time.Duration(cfg.TurnBankSeconds) * time.Second
	}
	return tm
}

// AddRoundBonus tops up every seat's bank at the start of a round.
func (tm *TimerManager) AddRoundBonus() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	for i := range tm.bank {
		tm.bank[i] += time.Duration(tm.cfg.RoundBonusSeconds) * time.Second
	}
}

// StartTurn arms the seat's clock for increment + remaining bank.
func (tm *TimerManager) StartTurn(seat int) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.stopped {
		return
	}
	tm.stopTurnLocked(seat, false)
	tm.turnGen[seat]++
	gen := tm.turnGen[seat]
	tm.turnStart[seat] = time.Now()
	dur := time.Duration(tm.cfg.TurnIncrementSeconds)*time.Second + tm.bank[seat]
	tm.turn[seat] = time.AfterFunc(dur, func() { tm.fireTurn(seat, gen) })
}

// StopTurn disarms the seat's clock and drains the bank by whatever the turn
// used beyond the free increment.
func (tm *TimerManager) StopTurn(seat int) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.stopTurnLocked(seat, true)
}

func (tm *TimerManager) stopTurnLocked(seat int, charge bool) {
	t := tm.turn[seat]
	if t == nil {
		return
	}
	t.Stop()
	tm.turn[seat] = nil
	if !charge {
		return
	}
	over := time.Since(tm.turnStart[seat]) - time.Duration(tm.cfg.TurnIncrementSeconds)*time.Second
	if over > 0 {
		tm.bank[seat] -= over
		if tm.bank[seat] < 0 {
			tm.bank[seat] = 0
		}
	}
}

func (tm *TimerManager) fireTurn(seat int, gen uint64) {
	tm.mu.Lock()
	if tm.stopped || tm.turnGen[seat] != gen || tm.turn[seat] == nil {
		tm.mu.Unlock()
		return
	}
	tm.turn[seat] = nil
	tm.bank[seat] = 0
	tm.mu.Unlock()
	tm.onExpire(seat, TimeoutTurn)
}

// StartMeld arms the fixed-length call-prompt timer for the seat.
func (tm *TimerManager) StartMeld(seat int) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.stopped {
		return
	}
	tm.cancelMeldLocked(seat)
	tm.meldGen[seat]++
	gen := tm.meldGen[seat]
	dur := time.Duration(tm.cfg.MeldTimeoutSeconds) * time.Second
	tm.meld[seat] = time.AfterFunc(dur, func() { tm.fireFixed(seat, gen, TimeoutMeld) })
}

func (tm *TimerManager) CancelMeld(seat int) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.cancelMeldLocked(seat)
}

func (tm *TimerManager) CancelAllMelds() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	for seat := range tm.meld {
		tm.cancelMeldLocked(seat)
	}
}

func (tm *TimerManager) cancelMeldLocked(seat int) {
	if t := tm.meld[seat]; t != nil {
		t.Stop()
		tm.meld[seat] = nil
	}
}

// StartAdvance arms the between-rounds confirmation timer for the seat.
func (tm *TimerManager) StartAdvance(seat int) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.stopped {
		return
	}
	tm.cancelAdvanceLocked(seat)
	tm.advanceGen[seat]++
	gen := tm.advanceGen[seat]
	dur := time.Duration(tm.cfg.RoundAdvanceTimeoutSeconds) * time.Second
	tm.advance[seat] = time.AfterFunc(dur, func() { tm.fireFixed(seat, gen, TimeoutAdvance) })
}

func (tm *TimerManager) CancelAdvance(seat int) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.cancelAdvanceLocked(seat)
}

func (tm *TimerManager) cancelAdvanceLocked(seat int) {
	if t := tm.advance[seat]; t != nil {
		t.Stop()
		tm.advance[seat] = nil
	}
}

func (tm *TimerManager) fireFixed(seat int, gen uint64, kind TimeoutKind) {
	tm.mu.Lock()
	var armed *[4]*time.Timer
	var curGen uint64
	switch kind {
	case TimeoutMeld:
		armed, curGen = &tm.meld, tm.meldGen[seat]
	case TimeoutAdvance:
		armed, curGen = &tm.advance, tm.advanceGen[seat]
	default:
		tm.mu.Unlock()
		return
	}
	if tm.stopped || curGen != gen || armed[seat] == nil {
		tm.mu.Unlock()
		return
	}
	armed[seat] = nil
	tm.mu.Unlock()
	tm.onExpire(seat, kind)
}

// CancelSeat disarms every timer owned by the seat. Used on disconnect: the
// substitute acts immediately and needs no clock.
func (tm *TimerManager) CancelSeat(seat int) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.stopTurnLocked(seat, true)
	tm.cancelMeldLocked(seat)
	tm.cancelAdvanceLocked(seat)
}

// Bank returns the seat's remaining bank time.
func (tm *TimerManager) Bank(seat int) time.Duration {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.bank[seat]
}

// SetBank restores a captured bank on reconnection.
func (tm *TimerManager) SetBank(seat int, d time.Duration) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if d < 0 {
		d = 0
	}
	tm.bank[seat] = d
}

// StopAll permanently disarms the manager; further Start calls are no-ops and
// in-flight expiries are dropped.
func (tm *TimerManager) StopAll() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.stopped = true
	for seat := 0; seat < 4; seat++ {
		tm.stopTurnLocked(seat, false)
		tm.cancelMeldLocked(seat)
		tm.cancelAdvanceLocked(seat)
	}
}
