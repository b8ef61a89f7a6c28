package handlers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// readDeadline is refreshed on every pong; idle sockets that stop
	// answering pings are dropped.
	readDeadline = 90 * time.Second

	// writeDeadline bounds every outbound write so one slow consumer cannot
	// stall a handler mid fan-out.
	writeDeadline = 10 * time.Second

	// readLimit caps a single frame. Media arrives base64-encoded inside
	// text frames, so the limit is well above the teacher's usual 64KiB.
	readLimit = 16 << 20
)

// Session owns one connected socket from accept to disconnect. The read loop
// runs on the connection's goroutine and dispatches frames synchronously, so a
// client's frames are handled in the order they arrive.
type Session struct {
	conn   *websocket.Conn
	router *Router
	log    zerolog.Logger

	// phone is 0 until login_request succeeds.
	phone atomic.Int64

	// writeMu serializes writes: handler replies and fan-out from other
	// sessions may target this socket concurrently.
	writeMu sync.Mutex
}

// NewSession wraps an accepted connection. The session is not registered
// anywhere until the client authenticates.
func NewSession(conn *websocket.Conn, router *Router) *Session {
	id := uuid.New()
	return &Session{
		conn:   conn,
		router: router,
		log:    router.log.With().Str("session", id.String()).Logger(),
	}
}

// Phone returns the authenticated identity, 0 before login.
func (s *Session) Phone() int64 {
	return s.phone.Load()
}

// Authenticate attaches the identity to this socket.
func (s *Session) Authenticate(phone int64) {
	s.phone.Store(phone)
	s.log = s.log.With().Int64("phone", phone).Logger()
}

// Send writes one JSON frame under the write lock with a bounded deadline.
func (s *Session) Send(v interface{}) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return s.conn.WriteJSON(v)
}

// Run reads frames until the socket closes, then tears down presence state.
func (s *Session) Run(ctx context.Context) {
	defer s.conn.Close()

	s.conn.SetReadLimit(readLimit)
	_ = s.conn.SetReadDeadline(time.Now().Add(readDeadline))
	s.conn.SetPongHandler(func(string) error {
		_ = s.conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			s.log.Debug().Err(err).Msg("socket closed")
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}

		_ = s.conn.SetReadDeadline(time.Now().Add(readDeadline))
		s.router.Dispatch(ctx, s, data)
	}

	s.router.Disconnect(ctx, s)
}
