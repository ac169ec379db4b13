package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mjgo/server/internal/net"
)

// Run drives the heartbeat sweep until ctx is cancelled: connections that
// stop pinging are dropped, and connections that never authenticate into a
// game, pending game or room are dropped with the auth-timeout close code.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Network.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	now := time.Now()
	idleBefore := now.Add(-m.cfg.Network.IdleTimeout).Unix()

	type victim struct {
		conn   *net.WSConn
		code   int
		reason string
	}
	var victims []victim

	m.mu.Lock()
	for _, cl := range m.conns {
		switch {
		case cl.conn.LastPing() < idleBefore:
			victims = append(victims, victim{cl.conn, net.ClosePolicy, "idle_timeout"})
		case !cl.authed() && now.Sub(cl.connectedAt) > m.cfg.Network.AuthTimeout:
			victims = append(victims, victim{cl.conn, net.CloseAuthTimeout, "auth_timeout"})
		}
	}
	m.mu.Unlock()

	for _, v := range victims {
		m.log.Info("連線逾時，強制斷開",
			zap.Uint64("conn", v.conn.ID()), zap.String("reason", v.reason))
		v.conn.Close(v.code, v.reason)
	}
}
