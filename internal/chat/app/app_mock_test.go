package app

import (
	"context"
	"errors"
	"sync"

	"gig_chat_service/internal/chat/domain"
	"gig_chat_service/pkg/logger"

	"github.com/stretchr/testify/mock"
)

func init() {
	logger.SetNewNop()
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Append mock append
func (m *MockMessageRepository) Append(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// History mock history
func (m *MockMessageRepository) History(ctx context.Context, userA, userB string) ([]domain.Message, error) {
	args := m.Called(ctx, userA, userB)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// ScanParticipant mock scan
func (m *MockMessageRepository) ScanParticipant(ctx context.Context, userID string) ([]domain.Message, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockPublisher Mock Publisher
type MockPublisher struct {
	mock.Mock
}

// Publish mock publish
func (m *MockPublisher) Publish(ctx context.Context, ev domain.LiveEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

// MockEventSink Mock EventSink
type MockEventSink struct {
	mock.Mock
}

// Emit mock emit
func (m *MockEventSink) Emit(ctx context.Context, msg domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// Close mock close
func (m *MockEventSink) Close() error {
	args := m.Called()
	return args.Error(0)
}

type fakeSession struct {
	id       string
	memberID string

	mu     sync.Mutex
	frames []domain.WSResponse
}

func newFakeSession(id, memberID string) *fakeSession {
	return &fakeSession{id: id, memberID: memberID}
}

func (s *fakeSession) ID() string       { return s.id }
func (s *fakeSession) MemberID() string { return s.memberID }

func (s *fakeSession) Send(resp domain.WSResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, resp)
	return nil
}

func (s *fakeSession) Frames() []domain.WSResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.WSResponse(nil), s.frames...)
}

func (s *fakeSession) Last() domain.WSResponse {
	frames := s.Frames()
	if len(frames) == 0 {
		return domain.WSResponse{}
	}
	return frames[len(frames)-1]
}

var errBoom = errors.New("boom")

// pdf magic, enough for mimetype to detect application/pdf
var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

// png signature and IHDR chunk
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x02, 0x00, 0x00, 0x00, 0x90, 0x77, 0x53, 0xde,
}

// windows executable header
var exeBytes = append([]byte("MZ"), make([]byte, 128)...)

// ogg page header
var oggBytes = append([]byte("OggS\x00\x02"), make([]byte, 64)...)

var allowedTypes = []string{
	"application/pdf",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}
