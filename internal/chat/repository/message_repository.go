package repository

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"gig_chat_service/internal/chat/domain"
	errprocess "gig_chat_service/pkg/err"
	"gig_chat_service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MessageRepository durable append-only message log
type MessageRepository interface {
	// Append fill id, timestamp, pair key and arrival order, validate, then write m
	Append(ctx context.Context, m *domain.Message) error
	// History every message of the pair (userA, userB), oldest first
	History(ctx context.Context, userA, userB string) ([]domain.Message, error)
	// ScanParticipant every message userID sent or received, oldest first
	ScanParticipant(ctx context.Context, userID string) ([]domain.Message, error)
}

var lastArrival atomic.Int64

// arrivalStamp strictly increasing unix nanos, keeps arrival order when the wall clock stalls
func arrivalStamp() int64 {
	for {
		now := time.Now().UnixNano()
		last := lastArrival.Load()
		if now <= last {
			now = last + 1
		}
		if lastArrival.CompareAndSwap(last, now) {
			return now
		}
	}
}

// prepare normalize and validate m before it is written
func prepare(m *domain.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp == 0 {
		m.Timestamp = time.Now().UnixMilli()
	}
	if err := m.Validate(); err != nil {
		logger.Log.Warn("reject message", zap.String("senderID", m.SenderID), zap.Error(err))
		return err
	}
	m.PairKey = domain.NewPairKey(m.SenderID, m.ReceiverID)
	m.StoredAt = arrivalStamp()
	return nil
}

func lessMessage(a, b *domain.Message) bool {
	if a.Timestamp != b.Timestamp {
		return a.Timestamp < b.Timestamp
	}
	return a.StoredAt < b.StoredAt
}

// SortMessages timestamp ASC, arrival order breaks ties
func SortMessages(msgs []domain.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return lessMessage(&msgs[i], &msgs[j])
	})
}

func storageFailure(msg string, cause error) error {
	return errprocess.WrapCause(domain.ErrStorageFailure, msg, cause)
}
