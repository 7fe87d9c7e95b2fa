package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind message content kind
type Kind string

const (
	// KindText plain text body
	KindText Kind = "text"
	// KindAudio recorded audio, body lives in the blob store
	KindAudio Kind = "audio"
	// KindFile uploaded document, body lives in the blob store
	KindFile Kind = "file"
)

// FileMeta original file name and normalized mime type of a file message
type FileMeta struct {
	FileName string `bson:"file_name" json:"fileName"`
	MimeType string `bson:"mime_type" json:"fileType"`
}

// Message one chat message between two users
type Message struct {
	ID         string    `bson:"_id" json:"id"`
	SenderID   string    `bson:"sender_id" json:"senderId"`
	ReceiverID string    `bson:"receiver_id" json:"receiverId"`
	SenderName string    `bson:"sender_name" json:"senderName"`
	Kind       Kind      `bson:"kind" json:"kind"`
	Body       string    `bson:"body,omitempty" json:"message,omitempty"`
	MediaRef   string    `bson:"media_ref,omitempty" json:"mediaRef,omitempty"`
	FileMeta   *FileMeta `bson:"file_meta,omitempty" json:"fileMeta,omitempty"`
	Timestamp  int64     `bson:"timestamp" json:"timestamp"`

	PairKey  PairKey `bson:"pair_key" json:"-"`
	StoredAt int64   `bson:"stored_at" json:"-"`
	// BlobKey object name in the blob store, used to clean up after a failed append
	BlobKey string `bson:"-" json:"-"`
}

// Validate check the envelope and the kind specific fields
func (m *Message) Validate() error {
	if m.SenderID == "" || m.ReceiverID == "" {
		return fmt.Errorf("%w: senderId and receiverId are required", ErrValidation)
	}
	if m.SenderID == m.ReceiverID {
		return fmt.Errorf("%w: senderId equals receiverId", ErrValidation)
	}

	switch m.Kind {
	case KindText:
		if m.Body == "" {
			return fmt.Errorf("%w: text message without body", ErrValidation)
		}
		if m.MediaRef != "" || m.FileMeta != nil {
			return fmt.Errorf("%w: text message with media", ErrValidation)
		}
	case KindAudio:
		if m.MediaRef == "" {
			return fmt.Errorf("%w: audio message without mediaRef", ErrValidation)
		}
		if m.Body != "" || m.FileMeta != nil {
			return fmt.Errorf("%w: audio message with body or file meta", ErrValidation)
		}
	case KindFile:
		if m.MediaRef == "" || m.FileMeta == nil {
			return fmt.Errorf("%w: file message without mediaRef or file meta", ErrValidation)
		}
		if m.Body != "" {
			return fmt.Errorf("%w: file message with body", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrValidation, m.Kind)
	}
	return nil
}

// Counterpart the other side of the message as seen by userID
func (m *Message) Counterpart(userID string) string {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// HasParticipant userID is sender or receiver
func (m *Message) HasParticipant(userID string) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// PairKey canonical key of an unordered user pair
type PairKey string

// NewPairKey same key for (a, b) and (b, a); the length prefix keeps ids holding ':' apart
func NewPairKey(a, b string) PairKey {
	lo, hi := a, b
	if hi < lo {
		lo, hi = hi, lo
	}
	return PairKey(strconv.Itoa(len(lo)) + ":" + lo + ":" + hi)
}

// Members split the key back into its two ids
func (p PairKey) Members() (string, string, bool) {
	n, rest, ok := strings.Cut(string(p), ":")
	if !ok {
		return "", "", false
	}
	size, err := strconv.Atoi(n)
	if err != nil || size < 0 || len(rest) < size+1 || rest[size] != ':' {
		return "", "", false
	}
	return rest[:size], rest[size+1:], true
}

// Has userID is one of the two members
func (p PairKey) Has(userID string) bool {
	lo, hi, ok := p.Members()
	return ok && (lo == userID || hi == userID)
}

// Conversation one entry of a user's conversation list
type Conversation struct {
	CounterpartID   string `json:"counterpartId"`
	CounterpartName string `json:"counterpartName"`
	LastMessageAt   int64  `json:"lastMessageAt"`
}
