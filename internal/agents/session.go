package agents

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// session wraps one agent websocket connection. Writes are serialized:
// gorilla/websocket allows at most one concurrent writer.
type session struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	mu sync.Mutex
}

func newSession(conn *websocket.Conn, writeTimeout time.Duration) *session {
	return &session{
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

// Send writes a command to the agent, bounded by the transport write
// timeout so no caller blocks indefinitely.
func (s *session) Send(cmd Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return err
	}

	return s.conn.WriteJSON(cmd)
}

func (s *session) Close() {
	_ = s.conn.Close()
}

var _ sender = (*session)(nil)
