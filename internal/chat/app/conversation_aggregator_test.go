package app

import (
	"context"
	"testing"

	"gig_chat_service/internal/chat/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(sender, receiver, name string, ts, storedAt int64) domain.Message {
	return domain.Message{
		SenderID:   sender,
		ReceiverID: receiver,
		SenderName: name,
		Kind:       domain.KindText,
		Body:       "x",
		Timestamp:  ts,
		StoredAt:   storedAt,
	}
}

func TestAggregateConversations(t *testing.T) {
	msgs := []domain.Message{
		msg("u2", "u1", "Bob", 100, 1),
		msg("u1", "u3", "Ann", 150, 2),
		msg("u1", "u2", "Ann", 200, 3),
		msg("u2", "u1", "Bobby", 180, 4),
		msg("u4", "u1", "", 150, 5),
		msg("u5", "u6", "Eve", 999, 6),
	}

	convs := AggregateConversations("u1", msgs)
	require.Len(t, convs, 3)

	assert.Equal(t, domain.Conversation{CounterpartID: "u2", CounterpartName: "Bobby", LastMessageAt: 200}, convs[0])
	// equal lastMessageAt, counterpartId ascending
	assert.Equal(t, "u3", convs[1].CounterpartID)
	assert.Equal(t, int64(150), convs[1].LastMessageAt)
	assert.Empty(t, convs[1].CounterpartName, "u3 never sent anything")
	assert.Equal(t, "u4", convs[2].CounterpartID)
	assert.Empty(t, convs[2].CounterpartName)
}

func TestAggregateConversations_NameTieBrokenByArrival(t *testing.T) {
	msgs := []domain.Message{
		msg("u2", "u1", "Later", 100, 9),
		msg("u2", "u1", "Earlier", 100, 3),
	}

	convs := AggregateConversations("u1", msgs)
	require.Len(t, convs, 1)
	assert.Equal(t, "Later", convs[0].CounterpartName)
}

func TestAggregateConversations_Empty(t *testing.T) {
	convs := AggregateConversations("u1", nil)
	assert.NotNil(t, convs)
	assert.Empty(t, convs)
}

func TestConversationAggregator_For(t *testing.T) {
	ctx := context.Background()
	repo := new(MockMessageRepository)
	repo.On("ScanParticipant", ctx, "u1").Return([]domain.Message{msg("u2", "u1", "Bob", 10, 1)}, nil).Once()
	repo.On("ScanParticipant", ctx, "u9").Return(nil, domain.ErrStorageFailure).Once()

	agg := NewConversationAggregator(repo)

	convs, err := agg.For(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Conversation{{CounterpartID: "u2", CounterpartName: "Bob", LastMessageAt: 10}}, convs)

	_, err = agg.For(ctx, "u9")
	assert.ErrorIs(t, err, domain.ErrStorageFailure)

	repo.AssertExpectations(t)
}
