package server

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MatthewPDingle/CSCPT-sub000/internal/protocol"
)

const (
	sendBufferSize = 64
	pingInterval   = 30 * time.Second
	idleTimeout    = 90 * time.Second
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

// rateLimiter is a token bucket refilled at perMinute tokens per minute.
type rateLimiter struct {
	mu        sync.Mutex
	clock     quartz.Clock
	perMinute int
	tokens    float64
	last      time.Time
}

func newRateLimiter(clock quartz.Clock, perMinute int) *rateLimiter {
	return &rateLimiter{
		clock:     clock,
		perMinute: perMinute,
		tokens:    float64(perMinute),
		last:      clock.Now(),
	}
}

func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	elapsed := now.Sub(r.last).Minutes()
	r.last = now
	r.tokens += elapsed * float64(r.perMinute)
	if r.tokens > float64(r.perMinute) {
		r.tokens = float64(r.perMinute)
	}
	if r.tokens < 1 {
		return false
	}
	r.tokens--
	return true
}

// Session is one duplex client channel bound to (game_id, player_id).
// Outbound events go through a bounded buffer; a client that cannot drain
// it is disconnected rather than allowed to stall the game loop.
type Session struct {
	ID       string
	GameID   string
	PlayerID string

	conn    *websocket.Conn
	send    chan protocol.Envelope
	clock   quartz.Clock
	logger  *log.Logger
	limiter *rateLimiter
	metrics *Metrics

	// inbound delivers decoded client messages to the game loop; onClose
	// fires exactly once when the session dies.
	inbound func(s *Session, msg *protocol.ClientMessage)
	onClose func(s *Session)

	closeOnce sync.Once
	done      chan struct{}
}

// NewSession wraps an upgraded websocket connection.
func NewSession(conn *websocket.Conn, gameID, playerID string, clock quartz.Clock, ratePerMin int, logger *log.Logger, metrics *Metrics) *Session {
	id := uuid.NewString()
	return &Session{
		ID:       id,
		GameID:   gameID,
		PlayerID: playerID,
		conn:     conn,
		send:     make(chan protocol.Envelope, sendBufferSize),
		clock:    clock,
		logger:   logger.WithPrefix("session").With("session_id", id, "player_id", playerID),
		limiter:  newRateLimiter(clock, ratePerMin),
		metrics:  metrics,
		done:     make(chan struct{}),
	}
}

// Bind wires the session to its game before Run.
func (s *Session) Bind(inbound func(*Session, *protocol.ClientMessage), onClose func(*Session)) {
	s.inbound = inbound
	s.onClose = onClose
}

// Run starts both pumps and blocks until the session dies.
func (s *Session) Run() {
	s.metrics.SessionsActive.Inc()
	defer s.metrics.SessionsActive.Dec()

	go s.writePump()
	s.readPump()
}

// Send queues an event for delivery. A full buffer closes the session;
// backpressure never reaches the game loop.
func (s *Session) Send(env protocol.Envelope) {
	select {
	case <-s.done:
	case s.send <- env:
	default:
		s.logger.Warn("send buffer full, closing session")
		s.Close()
	}
}

// SendError is a convenience for rejection replies.
func (s *Session) SendError(code, message string) {
	env, err := protocol.NewEvent(protocol.EventError, 0, 0, s.clock.Now().UnixMilli(), protocol.ErrorEvent{
		Code:    code,
		Message: message,
	})
	if err != nil {
		s.logger.Error("marshal error event", "err", err)
		return
	}
	s.Send(env)
}

// Close tears the session down. Idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
		if s.onClose != nil {
			s.onClose(s)
		}
	})
}

// Done is closed when the session has been torn down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// SessionID, Player, Deliver, Fail and Kick satisfy the game loop's
// Client interface.
func (s *Session) SessionID() string { return s.ID }

func (s *Session) Player() string { return s.PlayerID }

func (s *Session) Deliver(env protocol.Envelope) { s.Send(env) }

func (s *Session) Fail(code, message string) { s.SendError(code, message) }

func (s *Session) Kick() { s.Close() }

func (s *Session) readPump() {
	defer s.Close()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(s.clock.Now().Add(idleTimeout))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(s.clock.Now().Add(idleTimeout))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("read failed", "err", err)
			}
			return
		}
		s.conn.SetReadDeadline(s.clock.Now().Add(idleTimeout))

		if !s.limiter.allow() {
			s.logger.Warn("inbound rate limit exceeded, closing session")
			s.metrics.RateLimited.Inc()
			s.SendError(protocol.CodeRateLimited, "too many messages")
			return
		}

		msg, err := protocol.DecodeClientMessage(raw)
		if err != nil {
			s.logger.Debug("rejected frame", "err", err)
			s.SendError(protocol.CodeInvalidMessage, err.Error())
			continue
		}

		// Heartbeats are answered here; everything else goes to the game.
		if msg.Type == protocol.MsgPing {
			pong, err := protocol.NewEvent(protocol.EventPong, 0, 0, s.clock.Now().UnixMilli(), protocol.Empty{})
			if err == nil {
				s.Send(pong)
			}
			continue
		}

		if s.inbound != nil {
			s.inbound(s, msg)
		}
	}
}

func (s *Session) writePump() {
	ticker := s.clock.NewTicker(pingInterval, "ping")
	defer ticker.Stop()
	defer s.Close()

	for {
		select {
		case <-s.done:
			return
		case env := <-s.send:
			s.conn.SetWriteDeadline(s.clock.Now().Add(writeWait))
			if err := s.conn.WriteJSON(env); err != nil {
				s.logger.Warn("write failed", "err", err)
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(s.clock.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
