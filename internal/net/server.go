package net

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Router receives decoded client messages and disconnect notifications. The
// session manager implements it; handlers run on the per-connection read
// goroutine.
type Router interface {
	HandleMessage(c *WSConn, msg ClientMessage)
	HandleDisconnect(c *WSConn)
}

// Server upgrades HTTP requests to WebSocket connections and runs one read
// loop per connection.
type Server struct {
	upgrader   websocket.Upgrader
	router     Router
	nextID     atomic.Uint64
	msgsPerSec int // per-connection inbound rate cap (0 = unlimited)
	log        *zap.Logger
}

func NewServer(router Router, msgsPerSec int, log *zap.Logger) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Lobby and game clients are served from separate origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		router:     router,
		msgsPerSec: msgsPerSec,
		log:        log,
	}
}

// ServeHTTP handles the /ws endpoint.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("升級失敗", zap.Error(err))
		return
	}

	id := s.nextID.Add(1)
	conn := newWSConn(ws, id, s.log)
	s.log.Info("玩家連線", zap.Uint64("conn", id), zap.String("ip", conn.RemoteAddr()))

	go s.readLoop(conn)
}

func (s *Server) readLoop(c *WSConn) {
	defer func() {
		c.Close(CloseNormal, "")
		s.router.HandleDisconnect(c)
	}()

	var (
		msgCount   int
		msgResetAt int64
	)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if !c.IsClosed() {
				s.log.Debug("讀取錯誤", zap.Uint64("conn", c.id), zap.Error(err))
			}
			return
		}

		if s.msgsPerSec > 0 {
			now := time.Now().Unix()
			if now != msgResetAt {
				msgCount = 0
				msgResetAt = now
			}
			msgCount++
			if msgCount > s.msgsPerSec {
				s.log.Warn("訊息速率超限，斷開連線",
					zap.Uint64("conn", c.id), zap.Int("mps", msgCount))
				return
			}
		}

		msg, err := DecodeClient(data)
		if err != nil {
			s.log.Debug("訊息解碼失敗", zap.Uint64("conn", c.id), zap.Error(err))
			continue
		}
		s.router.HandleMessage(c, msg)
	}
}
