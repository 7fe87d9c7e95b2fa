package domain

// MessageCreatedType event type emitted after a message is stored
const MessageCreatedType = "message.created"

// MessageCreated downstream notification for a stored message
type MessageCreated struct {
	Type       string  `json:"type"`
	PairKey    PairKey `json:"pairKey"`
	Message    Message `json:"message"`
	OccurredAt int64   `json:"occurredAt"`
}
