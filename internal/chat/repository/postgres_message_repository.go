package repository

import (
	"context"
	"errors"
	"fmt"

	"gig_chat_service/internal/chat/domain"
	"gig_chat_service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// messageRecord row of chat_messages
type messageRecord struct {
	ID         string `gorm:"primaryKey;type:varchar(64)"`
	PairKey    string `gorm:"index:idx_chat_messages_pair,priority:1;not null"`
	SenderID   string `gorm:"index;not null"`
	ReceiverID string `gorm:"index;not null"`
	SenderName string
	Kind       string `gorm:"type:varchar(16);not null"`
	Body       string
	MediaRef   string
	FileName   string
	FileType   string
	Timestamp  int64 `gorm:"index:idx_chat_messages_pair,priority:2;not null"`
	StoredAt   int64 `gorm:"index:idx_chat_messages_pair,priority:3;not null"`
}

// TableName gorm table name
func (messageRecord) TableName() string {
	return MessageCollection
}

func toRecord(m *domain.Message) messageRecord {
	rec := messageRecord{
		ID:         m.ID,
		PairKey:    string(m.PairKey),
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		SenderName: m.SenderName,
		Kind:       string(m.Kind),
		Body:       m.Body,
		MediaRef:   m.MediaRef,
		Timestamp:  m.Timestamp,
		StoredAt:   m.StoredAt,
	}
	if m.FileMeta != nil {
		rec.FileName = m.FileMeta.FileName
		rec.FileType = m.FileMeta.MimeType
	}
	return rec
}

func (rec messageRecord) toDomain() domain.Message {
	m := domain.Message{
		ID:         rec.ID,
		SenderID:   rec.SenderID,
		ReceiverID: rec.ReceiverID,
		SenderName: rec.SenderName,
		Kind:       domain.Kind(rec.Kind),
		Body:       rec.Body,
		MediaRef:   rec.MediaRef,
		Timestamp:  rec.Timestamp,
		PairKey:    domain.PairKey(rec.PairKey),
		StoredAt:   rec.StoredAt,
	}
	if m.Kind == domain.KindFile {
		m.FileMeta = &domain.FileMeta{FileName: rec.FileName, MimeType: rec.FileType}
	}
	return m
}

type postgresMessageRepository struct {
	db *gorm.DB
}

// NewPostgresMessageRepository create a MessageRepository on postgreSQL, migrating chat_messages first
func NewPostgresMessageRepository(db *gorm.DB) (MessageRepository, error) {
	if err := db.AutoMigrate(&messageRecord{}); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", MessageCollection, err)
	}
	return &postgresMessageRepository{db: db}, nil
}

func (r *postgresMessageRepository) Append(ctx context.Context, m *domain.Message) error {
	if err := prepare(m); err != nil {
		return err
	}

	rec := toRecord(m)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.Log.Warn("duplicate message id", zap.String("id", m.ID))
			return fmt.Errorf("%w: duplicate message id %s", domain.ErrValidation, m.ID)
		}
		return storageFailure("insert message", err)
	}
	return nil
}

func (r *postgresMessageRepository) History(ctx context.Context, userA, userB string) ([]domain.Message, error) {
	q := r.db.WithContext(ctx).Where("pair_key = ?", string(domain.NewPairKey(userA, userB)))
	return r.find(q)
}

func (r *postgresMessageRepository) ScanParticipant(ctx context.Context, userID string) ([]domain.Message, error) {
	q := r.db.WithContext(ctx).Where("sender_id = ? OR receiver_id = ?", userID, userID)
	return r.find(q)
}

func (r *postgresMessageRepository) find(q *gorm.DB) ([]domain.Message, error) {
	var recs []messageRecord
	if err := q.Order("timestamp ASC, stored_at ASC").Find(&recs).Error; err != nil {
		return nil, storageFailure("find messages", err)
	}

	msgs := make([]domain.Message, 0, len(recs))
	for _, rec := range recs {
		msgs = append(msgs, rec.toDomain())
	}
	return msgs, nil
}
