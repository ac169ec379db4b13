package session

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mjgo/server/internal/game"
	"github.com/mjgo/server/internal/net"
)

// Registration errors surfaced to the HTTP API.
var (
	ErrGameExists     = errors.New("game id already registered")
	ErrDuplicateEntry = errors.New("duplicate player name, user id or ticket")
	ErrBadPlayerCount = errors.New("player count and AI count must total four seats")
	ErrTooManyPending = errors.New("too many games awaiting players")
	ErrUnknownPreset  = errors.New("unknown rule preset")
)

// PendingPlayerSpec is one expected human, as registered by the lobby
// service. The ticket is single-use: it authenticates the WebSocket join.
type PendingPlayerSpec struct {
	Name   string
	UserID string
	Ticket string
}

// pendingSeat is one awaited human seat.
type pendingSeat struct {
	name       string
	userID     string
	ticketHash []byte
	conn       *net.WSConn // nil until joined
}

// pendingGame is a registered game waiting for its humans to connect. All
// fields are guarded by the Manager registry lock.
type pendingGame struct {
	id        string
	settings  game.Settings
	humans    []*pendingSeat
	numAI     int
	createdAt time.Time
	timer     *time.Timer // start deadline
}

func (pg *pendingGame) connectedCount() int {
	n := 0
	for _, s := range pg.humans {
		if s.conn != nil {
			n++
		}
	}
	return n
}

func (pg *pendingGame) full() bool { return pg.connectedCount() == len(pg.humans) }

// matchTicket finds the seat a join ticket belongs to.
func (pg *pendingGame) matchTicket(ticket string) *pendingSeat {
	for _, s := range pg.humans {
		if bcrypt.CompareHashAndPassword(s.ticketHash, []byte(ticket)) == nil {
			return s
		}
	}
	return nil
}

// newPendingGame validates and hashes a registration.
func newPendingGame(id string, settings game.Settings, players []PendingPlayerSpec, numAI int) (*pendingGame, error) {
	if numAI < 0 || numAI > 3 || len(players)+numAI != 4 {
		return nil, ErrBadPlayerCount
	}

	pg := &pendingGame{
		id:        id,
		settings:  settings,
		numAI:     numAI,
		createdAt: time.Now(),
	}
	seenName := map[string]bool{}
	seenUser := map[string]bool{}
	seenTicket := map[string]bool{}
	for _, p := range players {
		name, err := NormalizeName(p.Name)
		if err != nil {
			return nil, err
		}
		if p.UserID == "" || p.Ticket == "" {
			return nil, errors.New("player missing user_id or game_ticket")
		}
		if seenName[name] || seenUser[p.UserID] || seenTicket[p.Ticket] {
			return nil, ErrDuplicateEntry
		}
		seenName[name] = true
		seenUser[p.UserID] = true
		seenTicket[p.Ticket] = true

		hash, err := bcrypt.GenerateFromPassword([]byte(p.Ticket), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		pg.humans = append(pg.humans, &pendingSeat{
			name:       name,
			userID:     p.UserID,
			ticketHash: hash,
		})
	}
	return pg, nil
}
