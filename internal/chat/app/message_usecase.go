package app

import (
	"context"
	"errors"

	"gig_chat_service/internal/chat/domain"
	"gig_chat_service/internal/chat/repository"
	errprocess "gig_chat_service/pkg/err"
	"gig_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// Publisher fans a stored message out to live sessions
type Publisher interface {
	Publish(ctx context.Context, ev domain.LiveEvent) error
}

// Caller who is asking: the authenticated member and, for websocket calls, the session to skip on fan-out
type Caller struct {
	UserID    string
	SessionID string
}

// Attachment audio or file body, either raw bytes or a reference to an earlier upload
type Attachment struct {
	Data     []byte
	Ref      string
	FileName string
	MimeType string
}

// MessageUseCase send and read messages
type MessageUseCase struct {
	msgRepo    repository.MessageRepository
	encoder    *PayloadEncoder
	publisher  Publisher
	sink       repository.EventSink
	aggregator *ConversationAggregator
}

// NewMessageUseCase init message use case, sink may be nil
func NewMessageUseCase(
	msgRepo repository.MessageRepository,
	encoder *PayloadEncoder,
	publisher Publisher,
	sink repository.EventSink,
) *MessageUseCase {
	if sink == nil {
		sink = repository.NewNoopSink()
	}
	return &MessageUseCase{
		msgRepo:    msgRepo,
		encoder:    encoder,
		publisher:  publisher,
		sink:       sink,
		aggregator: NewConversationAggregator(msgRepo),
	}
}

// SendText store a text message then fan it out
func (uc *MessageUseCase) SendText(ctx context.Context, caller Caller, env Envelope, body string) (*domain.Message, error) {
	if err := authorizeSender(caller, env); err != nil {
		return nil, err
	}
	m, err := uc.encoder.EncodeText(env, body)
	if err != nil {
		return nil, err
	}
	return uc.deliver(ctx, caller, m)
}

// SendAudio store the audio body and message then fan it out
func (uc *MessageUseCase) SendAudio(ctx context.Context, caller Caller, env Envelope, audio Attachment) (*domain.Message, error) {
	if err := authorizeSender(caller, env); err != nil {
		return nil, err
	}

	var (
		m   *domain.Message
		err error
	)
	if len(audio.Data) == 0 && audio.Ref != "" {
		m, err = uc.encoder.EncodeAudioRef(env, audio.Ref)
	} else {
		m, err = uc.encoder.EncodeAudio(ctx, env, audio.Data)
	}
	if err != nil {
		return nil, err
	}
	return uc.deliver(ctx, caller, m)
}

// SendFile store the document and message then fan it out
func (uc *MessageUseCase) SendFile(ctx context.Context, caller Caller, env Envelope, file Attachment) (*domain.Message, error) {
	if err := authorizeSender(caller, env); err != nil {
		return nil, err
	}

	var (
		m   *domain.Message
		err error
	)
	if len(file.Data) == 0 && file.Ref != "" {
		m, err = uc.encoder.EncodeFileRef(env, file.Ref, file.FileName, file.MimeType)
	} else {
		m, err = uc.encoder.EncodeFile(ctx, env, file.FileName, file.MimeType, file.Data)
	}
	if err != nil {
		return nil, err
	}
	return uc.deliver(ctx, caller, m)
}

// UploadAudio store an audio body for a later send_audio; no message is written or published
func (uc *MessageUseCase) UploadAudio(ctx context.Context, caller Caller, env Envelope, data []byte) (Upload, error) {
	if err := authorizeSender(caller, env); err != nil {
		return Upload{}, err
	}
	if err := env.validate(); err != nil {
		return Upload{}, err
	}
	return uc.encoder.UploadAudio(ctx, data)
}

// UploadFile store a document for a later send_file; no message is written or published
func (uc *MessageUseCase) UploadFile(ctx context.Context, caller Caller, env Envelope, file Attachment) (Upload, error) {
	if err := authorizeSender(caller, env); err != nil {
		return Upload{}, err
	}
	if err := env.validate(); err != nil {
		return Upload{}, err
	}
	return uc.encoder.UploadFile(ctx, file.FileName, file.MimeType, file.Data)
}

// deliver persist first; nothing is published unless the append succeeded
func (uc *MessageUseCase) deliver(ctx context.Context, caller Caller, m *domain.Message) (*domain.Message, error) {
	if err := uc.msgRepo.Append(ctx, m); err != nil {
		uc.encoder.Discard(ctx, m)
		if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrStorageFailure) {
			return nil, err
		}
		return nil, errprocess.WrapCause(domain.ErrStorageFailure, "append message", err)
	}

	if err := uc.publisher.Publish(ctx, domain.NewLiveEvent(*m, caller.SessionID)); err != nil {
		logger.Log.Error("publish live event", zap.String("messageID", m.ID), zap.Error(err))
	}
	if err := uc.sink.Emit(ctx, *m); err != nil {
		logger.Log.Error("emit message.created", zap.String("messageID", m.ID), zap.Error(err))
	}

	logger.Log.Debug("message sent", zap.String("messageID", m.ID), zap.String("kind", string(m.Kind)), zap.String("pairKey", string(m.PairKey)))
	return m, nil
}

// History every message between userA and userB, oldest first; only the two of them may read it
func (uc *MessageUseCase) History(ctx context.Context, currentUserID, userA, userB string) ([]domain.Message, error) {
	if userA == "" || userB == "" {
		return nil, errprocess.Wrap(domain.ErrValidation, "userA and userB are required")
	}
	if userA == userB {
		return nil, errprocess.Wrap(domain.ErrValidation, "userA equals userB")
	}
	if currentUserID != userA && currentUserID != userB {
		return nil, errprocess.Wrap(domain.ErrForbidden, "history of a pair the caller is not part of")
	}
	return uc.msgRepo.History(ctx, userA, userB)
}

// Conversations conversation list of userID, only userID may read it
func (uc *MessageUseCase) Conversations(ctx context.Context, currentUserID, userID string) ([]domain.Conversation, error) {
	if userID == "" {
		return nil, errprocess.Wrap(domain.ErrValidation, "userId is required")
	}
	if currentUserID != userID {
		return nil, errprocess.Wrap(domain.ErrForbidden, "conversations of another user")
	}
	return uc.aggregator.For(ctx, userID)
}

func authorizeSender(caller Caller, env Envelope) error {
	if caller.UserID == "" {
		return errprocess.Wrap(domain.ErrValidation, "no authenticated user")
	}
	if env.SenderID != caller.UserID {
		return errprocess.Wrap(domain.ErrValidation, "senderId does not match the authenticated user")
	}
	return nil
}
