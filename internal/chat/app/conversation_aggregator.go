package app

import (
	"context"
	"sort"

	"gig_chat_service/internal/chat/domain"
	"gig_chat_service/internal/chat/repository"
)

// ConversationAggregator builds a user's conversation list from the message log
type ConversationAggregator struct {
	msgRepo repository.MessageRepository
}

// NewConversationAggregator create ConversationAggregator
func NewConversationAggregator(msgRepo repository.MessageRepository) *ConversationAggregator {
	return &ConversationAggregator{msgRepo: msgRepo}
}

// For one entry per counterpart userID ever talked to, most recent first
func (a *ConversationAggregator) For(ctx context.Context, userID string) ([]domain.Conversation, error) {
	msgs, err := a.msgRepo.ScanParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}
	return AggregateConversations(userID, msgs), nil
}

type conversationAcc struct {
	conv domain.Conversation
	last domain.Message
	// name source, the latest message the counterpart sent
	named *domain.Message
}

func later(a, b *domain.Message) bool {
	if a.Timestamp != b.Timestamp {
		return a.Timestamp > b.Timestamp
	}
	return a.StoredAt > b.StoredAt
}

// AggregateConversations group msgs by counterpart of userID; the name is the most recent non-empty
// senderName the counterpart used, entries are ordered lastMessageAt DESC then counterpartId ASC
func AggregateConversations(userID string, msgs []domain.Message) []domain.Conversation {
	byCounterpart := make(map[string]*conversationAcc)

	for i := range msgs {
		m := &msgs[i]
		if !m.HasParticipant(userID) || m.SenderID == m.ReceiverID {
			continue
		}
		counterpart := m.Counterpart(userID)

		acc, ok := byCounterpart[counterpart]
		if !ok {
			acc = &conversationAcc{conv: domain.Conversation{CounterpartID: counterpart}, last: *m}
			byCounterpart[counterpart] = acc
		} else if later(m, &acc.last) {
			acc.last = *m
		}

		if m.SenderID == counterpart && m.SenderName != "" && (acc.named == nil || later(m, acc.named)) {
			acc.named = m
		}
	}

	out := make([]domain.Conversation, 0, len(byCounterpart))
	for _, acc := range byCounterpart {
		acc.conv.LastMessageAt = acc.last.Timestamp
		if acc.named != nil {
			acc.conv.CounterpartName = acc.named.SenderName
		}
		out = append(out, acc.conv)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].LastMessageAt != out[j].LastMessageAt {
			return out[i].LastMessageAt > out[j].LastMessageAt
		}
		return out[i].CounterpartID < out[j].CounterpartID
	})
	return out
}
