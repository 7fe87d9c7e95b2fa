package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gig_chat_service/internal/chat/domain"
	"gig_chat_service/pkg/logger"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

const memoryShards = 32

type pairShard struct {
	mu    sync.RWMutex
	pairs map[domain.PairKey][]domain.Message
}

type participantShard struct {
	mu    sync.RWMutex
	pairs map[string]map[domain.PairKey]struct{}
}

type memoryMessageRepository struct {
	ids          sync.Map
	pairs        [memoryShards]*pairShard
	participants [memoryShards]*participantShard
}

// NewMemoryMessageRepository process local MessageRepository, appends on different pairs never share a lock
func NewMemoryMessageRepository() MessageRepository {
	r := &memoryMessageRepository{}
	for i := 0; i < memoryShards; i++ {
		r.pairs[i] = &pairShard{pairs: make(map[domain.PairKey][]domain.Message)}
		r.participants[i] = &participantShard{pairs: make(map[string]map[domain.PairKey]struct{})}
	}
	return r
}

func (r *memoryMessageRepository) pairShardFor(key domain.PairKey) *pairShard {
	return r.pairs[xxhash.Sum64String(string(key))%memoryShards]
}

func (r *memoryMessageRepository) participantShardFor(userID string) *participantShard {
	return r.participants[xxhash.Sum64String(userID)%memoryShards]
}

func (r *memoryMessageRepository) Append(ctx context.Context, m *domain.Message) error {
	if err := ctx.Err(); err != nil {
		return storageFailure("append canceled", err)
	}
	if err := prepare(m); err != nil {
		return err
	}
	if _, loaded := r.ids.LoadOrStore(m.ID, struct{}{}); loaded {
		logger.Log.Warn("duplicate message id", zap.String("id", m.ID))
		return fmt.Errorf("%w: duplicate message id %s", domain.ErrValidation, m.ID)
	}

	ps := r.pairShardFor(m.PairKey)
	ps.mu.Lock()
	msgs := ps.pairs[m.PairKey]
	i := sort.Search(len(msgs), func(i int) bool { return lessMessage(m, &msgs[i]) })
	msgs = append(msgs, domain.Message{})
	copy(msgs[i+1:], msgs[i:])
	msgs[i] = *m
	ps.pairs[m.PairKey] = msgs
	ps.mu.Unlock()

	for _, userID := range []string{m.SenderID, m.ReceiverID} {
		us := r.participantShardFor(userID)
		us.mu.Lock()
		keys, ok := us.pairs[userID]
		if !ok {
			keys = make(map[domain.PairKey]struct{})
			us.pairs[userID] = keys
		}
		keys[m.PairKey] = struct{}{}
		us.mu.Unlock()
	}
	return nil
}

func (r *memoryMessageRepository) History(ctx context.Context, userA, userB string) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageFailure("history canceled", err)
	}
	return r.pairMessages(domain.NewPairKey(userA, userB)), nil
}

func (r *memoryMessageRepository) ScanParticipant(ctx context.Context, userID string) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageFailure("scan canceled", err)
	}

	us := r.participantShardFor(userID)
	us.mu.RLock()
	keys := make([]domain.PairKey, 0, len(us.pairs[userID]))
	for key := range us.pairs[userID] {
		keys = append(keys, key)
	}
	us.mu.RUnlock()

	var out []domain.Message
	for _, key := range keys {
		out = append(out, r.pairMessages(key)...)
	}
	SortMessages(out)
	return out, nil
}

func (r *memoryMessageRepository) pairMessages(key domain.PairKey) []domain.Message {
	ps := r.pairShardFor(key)
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	msgs := ps.pairs[key]
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out
}
