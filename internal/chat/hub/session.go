package hub

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"gig_chat_service/internal/chat/domain"
	"gig_chat_service/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrSessionClosed frame sent to a session whose connection is gone
	ErrSessionClosed = errors.New("session closed")
	// ErrSendBufferFull outbound queue is full, the frame is dropped
	ErrSendBufferFull = errors.New("send buffer full")
)

const writeWait = 10 * time.Second

// Session one live client connection
type Session interface {
	ID() string
	MemberID() string
	// Send enqueue resp without blocking
	Send(resp domain.WSResponse) error
}

// FrameWriter the write half of a websocket connection
type FrameWriter interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// ConnSession Session backed by a websocket connection, all writes happen on the Run goroutine
type ConnSession struct {
	id           string
	memberID     string
	conn         FrameWriter
	queue        chan domain.WSResponse
	done         chan struct{}
	closeOnce    sync.Once
	pingInterval time.Duration
}

// NewConnSession create a session with a send queue of buffer frames
func NewConnSession(memberID string, conn FrameWriter, buffer int, pingInterval time.Duration) *ConnSession {
	if buffer <= 0 {
		buffer = 1
	}
	return &ConnSession{
		id:           uuid.NewString(),
		memberID:     memberID,
		conn:         conn,
		queue:        make(chan domain.WSResponse, buffer),
		done:         make(chan struct{}),
		pingInterval: pingInterval,
	}
}

// ID session id, unique per connection
func (s *ConnSession) ID() string { return s.id }

// MemberID authenticated member of the connection
func (s *ConnSession) MemberID() string { return s.memberID }

// Send enqueue resp, frames for a closed or saturated session are dropped
func (s *ConnSession) Send(resp domain.WSResponse) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	select {
	case s.queue <- resp:
		return nil
	case <-s.done:
		return ErrSessionClosed
	default:
		logger.Log.Warn("send buffer full, frame dropped",
			zap.String("sessionID", s.id), zap.String("memberID", s.memberID), zap.String("action", resp.Action))
		return ErrSendBufferFull
	}
}

// Run drain the queue onto the connection and ping every pingInterval, returns once the session is closed
func (s *ConnSession) Run() {
	var tick <-chan time.Time
	if s.pingInterval > 0 {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case resp := <-s.queue:
			b, err := json.Marshal(resp)
			if err != nil {
				logger.Log.Error("marshal frame", zap.String("sessionID", s.id), zap.Error(err))
				continue
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				logger.Log.Warn("write frame", zap.String("sessionID", s.id), zap.Error(err))
				s.Close()
				return
			}
		case <-tick:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				logger.Log.Warn("ping", zap.String("sessionID", s.id), zap.Error(err))
				s.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

// Close stop the writer and close the connection, safe to call more than once
func (s *ConnSession) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if err := s.conn.Close(); err != nil {
			logger.Log.Debug("close conn", zap.String("sessionID", s.id), zap.Error(err))
		}
	})
}

// Done closed once the session is closed
func (s *ConnSession) Done() <-chan struct{} {
	return s.done
}
