package hub

import (
	"context"
	"errors"
	"sync"
	"time"

	"gig_chat_service/internal/chat/domain"

	"github.com/stretchr/testify/mock"
)

type fakeSession struct {
	id       string
	memberID string

	mu     sync.Mutex
	frames []domain.WSResponse
	err    error
}

func newFakeSession(id, memberID string) *fakeSession {
	return &fakeSession{id: id, memberID: memberID}
}

func (s *fakeSession) ID() string       { return s.id }
func (s *fakeSession) MemberID() string { return s.memberID }

func (s *fakeSession) Send(resp domain.WSResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, resp)
	return nil
}

func (s *fakeSession) Frames() []domain.WSResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.WSResponse(nil), s.frames...)
}

// MockRelay mock Relay
type MockRelay struct {
	mock.Mock
}

func (m *MockRelay) Publish(ctx context.Context, ev domain.LiveEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *MockRelay) Subscribe(ctx context.Context, handler func(domain.LiveEvent)) error {
	args := m.Called(ctx, handler)
	return args.Error(0)
}

type writtenFrame struct {
	messageType int
	data        []byte
}

type fakeConn struct {
	written  chan writtenFrame
	writeErr error

	mu     sync.Mutex
	closed int
}

func newFakeConn() *fakeConn {
	return &fakeConn{written: make(chan writtenFrame, 16)}
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.written <- writtenFrame{messageType: messageType, data: data}
	return nil
}

func (c *fakeConn) WriteControl(messageType int, data []byte, _ time.Time) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.written <- writtenFrame{messageType: messageType, data: data}
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

func (c *fakeConn) Closed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

var errBoom = errors.New("boom")
