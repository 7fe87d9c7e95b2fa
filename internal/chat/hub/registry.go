package hub

import (
	"sync"

	"gig_chat_service/internal/chat/domain"
	"gig_chat_service/pkg/logger"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

const shardCount = 32

type roomShard struct {
	mu    sync.RWMutex
	rooms map[domain.PairKey]map[string]Session
}

type memberShard struct {
	mu     sync.Mutex
	joined map[string]map[domain.PairKey]struct{}
}

// Stats registry counters
type Stats struct {
	Rooms    int `json:"rooms"`
	Sessions int `json:"sessions"`
}

// Registry pair key -> live sessions, every pair key is written under exactly one shard lock
type Registry struct {
	rooms   [shardCount]*roomShard
	members [shardCount]*memberShard
}

// NewRegistry create an empty Registry
func NewRegistry() *Registry {
	r := &Registry{}
	for i := 0; i < shardCount; i++ {
		r.rooms[i] = &roomShard{rooms: make(map[domain.PairKey]map[string]Session)}
		r.members[i] = &memberShard{joined: make(map[string]map[domain.PairKey]struct{})}
	}
	return r
}

func (r *Registry) roomShardFor(key domain.PairKey) *roomShard {
	return r.rooms[xxhash.Sum64String(string(key))%shardCount]
}

func (r *Registry) memberShardFor(sessionID string) *memberShard {
	return r.members[xxhash.Sum64String(sessionID)%shardCount]
}

// Join register session on the pair (selfID, counterpartID); joining twice is a no-op
func (r *Registry) Join(selfID, counterpartID string, s Session) (domain.PairKey, error) {
	if selfID == "" || counterpartID == "" {
		return "", errValidation("selfId and counterpartId are required")
	}
	if selfID == counterpartID {
		return "", errValidation("selfId equals counterpartId")
	}

	key := domain.NewPairKey(selfID, counterpartID)

	// lock order: member shard then room shard
	ms := r.memberShardFor(s.ID())
	ms.mu.Lock()
	defer ms.mu.Unlock()

	rs := r.roomShardFor(key)
	rs.mu.Lock()
	sessions, ok := rs.rooms[key]
	if !ok {
		sessions = make(map[string]Session)
		rs.rooms[key] = sessions
	}
	sessions[s.ID()] = s
	rs.mu.Unlock()

	keys, ok := ms.joined[s.ID()]
	if !ok {
		keys = make(map[domain.PairKey]struct{})
		ms.joined[s.ID()] = keys
	}
	keys[key] = struct{}{}

	logger.Log.Debug("session joined", zap.String("sessionID", s.ID()), zap.String("pairKey", string(key)))
	return key, nil
}

// Leave drop session from every pair it joined, reports whether anything was removed
func (r *Registry) Leave(s Session) bool {
	ms := r.memberShardFor(s.ID())
	ms.mu.Lock()
	defer ms.mu.Unlock()

	keys, ok := ms.joined[s.ID()]
	if !ok {
		return false
	}
	delete(ms.joined, s.ID())

	for key := range keys {
		rs := r.roomShardFor(key)
		rs.mu.Lock()
		if sessions, ok := rs.rooms[key]; ok {
			delete(sessions, s.ID())
			if len(sessions) == 0 {
				delete(rs.rooms, key)
			}
		}
		rs.mu.Unlock()
	}

	logger.Log.Debug("session left", zap.String("sessionID", s.ID()), zap.Int("rooms", len(keys)))
	return true
}

// Route snapshot of the live sessions of key, empty when nobody joined
func (r *Registry) Route(key domain.PairKey) []Session {
	rs := r.roomShardFor(key)
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	sessions := rs.rooms[key]
	out := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s)
	}
	return out
}

// Stats count rooms and joined sessions
func (r *Registry) Stats() Stats {
	var st Stats
	for _, rs := range r.rooms {
		rs.mu.RLock()
		st.Rooms += len(rs.rooms)
		rs.mu.RUnlock()
	}
	for _, ms := range r.members {
		ms.mu.Lock()
		st.Sessions += len(ms.joined)
		ms.mu.Unlock()
	}
	return st
}
