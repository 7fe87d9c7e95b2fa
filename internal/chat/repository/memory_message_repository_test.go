package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"gig_chat_service/internal/chat/domain"
	"gig_chat_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.SetNewNop()
}

func textMessage(from, to, body string, ts int64) *domain.Message {
	return &domain.Message{SenderID: from, ReceiverID: to, SenderName: from, Kind: domain.KindText, Body: body, Timestamp: ts}
}

func TestMemoryMessageRepository_AppendHistory(t *testing.T) {
	repo := NewMemoryMessageRepository()
	ctx := context.Background()

	m := textMessage("u1", "u2", "hello", 100)
	require.NoError(t, repo.Append(ctx, m))
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, domain.NewPairKey("u1", "u2"), m.PairKey)
	assert.NotZero(t, m.StoredAt)

	for _, pair := range [][2]string{{"u1", "u2"}, {"u2", "u1"}} {
		got, err := repo.History(ctx, pair[0], pair[1])
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, m.ID, got[0].ID)
		assert.Equal(t, "u1", got[0].SenderID)
		assert.Equal(t, "u2", got[0].ReceiverID)
		assert.Equal(t, domain.KindText, got[0].Kind)
		assert.Equal(t, "hello", got[0].Body)
	}
}

func TestMemoryMessageRepository_AssignsTimestamp(t *testing.T) {
	repo := NewMemoryMessageRepository()
	m := textMessage("u1", "u2", "now", 0)

	require.NoError(t, repo.Append(context.Background(), m))
	assert.NotZero(t, m.Timestamp)
}

func TestMemoryMessageRepository_HistoryOrdering(t *testing.T) {
	repo := NewMemoryMessageRepository()
	ctx := context.Background()

	for _, ts := range []int64{300, 100, 200} {
		require.NoError(t, repo.Append(ctx, textMessage("u1", "u2", fmt.Sprint(ts), ts)))
	}
	// same timestamp keeps arrival order
	require.NoError(t, repo.Append(ctx, textMessage("u2", "u1", "200-b", 200)))

	got, err := repo.History(ctx, "u2", "u1")
	require.NoError(t, err)

	var bodies []string
	for _, m := range got {
		bodies = append(bodies, m.Body)
	}
	assert.Equal(t, []string{"100", "200", "200-b", "300"}, bodies)
}

func TestMemoryMessageRepository_Validation(t *testing.T) {
	repo := NewMemoryMessageRepository()
	ctx := context.Background()

	err := repo.Append(ctx, textMessage("u1", "u1", "self", 1))
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = repo.Append(ctx, &domain.Message{SenderID: "u1", ReceiverID: "u2", Kind: domain.KindAudio})
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := repo.History(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryMessageRepository_DuplicateID(t *testing.T) {
	repo := NewMemoryMessageRepository()
	ctx := context.Background()

	first := textMessage("u1", "u2", "a", 1)
	first.ID = "fixed"
	require.NoError(t, repo.Append(ctx, first))

	second := textMessage("u1", "u2", "b", 2)
	second.ID = "fixed"
	assert.ErrorIs(t, repo.Append(ctx, second), domain.ErrValidation)
}

func TestMemoryMessageRepository_DuplicateContentIsKept(t *testing.T) {
	repo := NewMemoryMessageRepository()
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, textMessage("u1", "u2", "retry", 5)))
	require.NoError(t, repo.Append(ctx, textMessage("u1", "u2", "retry", 5)))

	got, err := repo.History(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestMemoryMessageRepository_ScanParticipant(t *testing.T) {
	repo := NewMemoryMessageRepository()
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, textMessage("u1", "u2", "a", 10)))
	require.NoError(t, repo.Append(ctx, textMessage("u3", "u1", "b", 5)))
	require.NoError(t, repo.Append(ctx, textMessage("u2", "u3", "c", 1)))

	got, err := repo.ScanParticipant(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Body)
	assert.Equal(t, "a", got[1].Body)

	none, err := repo.ScanParticipant(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryMessageRepository_HistoryIsACopy(t *testing.T) {
	repo := NewMemoryMessageRepository()
	ctx := context.Background()
	require.NoError(t, repo.Append(ctx, textMessage("u1", "u2", "orig", 1)))

	got, _ := repo.History(ctx, "u1", "u2")
	got[0].Body = "changed"

	again, _ := repo.History(ctx, "u1", "u2")
	assert.Equal(t, "orig", again[0].Body)
}

func TestMemoryMessageRepository_ConcurrentAppends(t *testing.T) {
	repo := NewMemoryMessageRepository()
	ctx := context.Background()
	const pairs, perPair = 8, 50

	var wg sync.WaitGroup
	for p := 0; p < pairs; p++ {
		for i := 0; i < perPair; i++ {
			wg.Add(1)
			go func(p, i int) {
				defer wg.Done()
				assert.NoError(t, repo.Append(ctx, textMessage("seller", fmt.Sprintf("buyer-%d", p), "x", int64(i+1))))
			}(p, i)
		}
	}
	wg.Wait()

	for p := 0; p < pairs; p++ {
		got, err := repo.History(ctx, "seller", fmt.Sprintf("buyer-%d", p))
		require.NoError(t, err)
		assert.Len(t, got, perPair)
	}
	all, err := repo.ScanParticipant(ctx, "seller")
	require.NoError(t, err)
	assert.Len(t, all, pairs*perPair)
}

func TestMemoryMessageRepository_CanceledContext(t *testing.T) {
	repo := NewMemoryMessageRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, repo.Append(ctx, textMessage("u1", "u2", "x", 1)), domain.ErrStorageFailure)
}
