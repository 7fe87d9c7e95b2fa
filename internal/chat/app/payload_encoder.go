package app

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"gig_chat_service/internal/chat/domain"
	"gig_chat_service/internal/chat/repository"
	"gig_chat_service/pkg"
	errprocess "gig_chat_service/pkg/err"
	"gig_chat_service/pkg/logger"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Envelope fields every message carries whatever its kind
type Envelope struct {
	SenderID   string
	ReceiverID string
	SenderName string
	Timestamp  int64
}

func (e Envelope) validate() error {
	if e.SenderID == "" || e.ReceiverID == "" {
		return errprocess.Wrap(domain.ErrValidation, "senderId and receiverId are required")
	}
	if e.SenderID == e.ReceiverID {
		return errprocess.Wrap(domain.ErrValidation, "senderId equals receiverId")
	}
	return nil
}

func (e Envelope) message(kind domain.Kind) *domain.Message {
	return &domain.Message{
		SenderID:   e.SenderID,
		ReceiverID: e.ReceiverID,
		SenderName: e.SenderName,
		Kind:       kind,
		Timestamp:  e.Timestamp,
	}
}

// PayloadPolicy size limits and file mime allow-list
type PayloadPolicy struct {
	MaxAudioBytes    int64
	MaxFileBytes     int64
	AllowedFileTypes []string
}

// sniffed types that say nothing about the real document format
var containerTypes = []string{"text/plain", "application/zip", "application/x-ole-storage"}

// PayloadEncoder turns a send request into a Message, writing audio and file bodies to the blob store
type PayloadEncoder struct {
	blobs  repository.BlobStore
	policy PayloadPolicy
}

// NewPayloadEncoder create PayloadEncoder
func NewPayloadEncoder(blobs repository.BlobStore, policy PayloadPolicy) *PayloadEncoder {
	return &PayloadEncoder{blobs: blobs, policy: policy}
}

// EncodeText text message
func (e *PayloadEncoder) EncodeText(env Envelope, body string) (*domain.Message, error) {
	if err := env.validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, errprocess.Wrap(domain.ErrValidation, "message is required")
	}

	m := env.message(domain.KindText)
	m.Body = body
	return m, nil
}

// Upload media written to the blob store, not yet part of any message
type Upload struct {
	URL        string
	ObjectName string
	MimeType   string
	FileName   string
}

// UploadAudio store a recorded audio body
func (e *PayloadEncoder) UploadAudio(ctx context.Context, data []byte) (Upload, error) {
	if err := checkSize(len(data), e.policy.MaxAudioBytes, "audio"); err != nil {
		return Upload{}, err
	}

	sniffed := mimetype.Detect(data)
	objectName := fmt.Sprintf("audio/%s%s", uuid.NewString(), sniffed.Extension())
	ref, err := e.blobs.Put(ctx, objectName, sniffed.String(), data)
	if err != nil {
		return Upload{}, errprocess.WrapCause(domain.ErrStorageFailure, "store audio", err)
	}
	return Upload{URL: ref, ObjectName: objectName, MimeType: sniffed.String()}, nil
}

// EncodeAudio store data in the blob store and reference it
func (e *PayloadEncoder) EncodeAudio(ctx context.Context, env Envelope, data []byte) (*domain.Message, error) {
	if err := env.validate(); err != nil {
		return nil, err
	}
	up, err := e.UploadAudio(ctx, data)
	if err != nil {
		return nil, err
	}

	m := env.message(domain.KindAudio)
	m.MediaRef = up.URL
	m.BlobKey = up.ObjectName
	return m, nil
}

// EncodeAudioRef audio already uploaded to ref
func (e *PayloadEncoder) EncodeAudioRef(env Envelope, ref string) (*domain.Message, error) {
	if err := env.validate(); err != nil {
		return nil, err
	}
	if err := checkRef(ref); err != nil {
		return nil, err
	}

	m := env.message(domain.KindAudio)
	m.MediaRef = ref
	return m, nil
}

// UploadFile store a document. The type is checked first: anything outside the allow-list is
// ErrUnsupportedMediaType whatever its size, and nothing is written.
func (e *PayloadEncoder) UploadFile(ctx context.Context, fileName, declaredMime string, data []byte) (Upload, error) {
	sniffed := mimetype.Detect(data)
	mimeType := NormalizeMime(declaredMime)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = sniffed.String()
	}
	if err := e.checkFileType(mimeType); err != nil {
		return Upload{}, err
	}
	if fileName == "" {
		return Upload{}, errprocess.Wrap(domain.ErrValidation, "fileName is required")
	}
	if err := checkSize(len(data), e.policy.MaxFileBytes, "file"); err != nil {
		return Upload{}, err
	}
	if !e.contentAllowed(sniffed) {
		return Upload{}, errprocess.Wrap(domain.ErrUnsupportedMediaType, fmt.Sprintf("content looks like %s, not %s", sniffed.String(), mimeType))
	}

	objectName := fmt.Sprintf("file/%s%s", uuid.NewString(), safeExt(fileName))
	ref, err := e.blobs.Put(ctx, objectName, mimeType, data)
	if err != nil {
		return Upload{}, errprocess.WrapCause(domain.ErrStorageFailure, "store file", err)
	}
	return Upload{URL: ref, ObjectName: objectName, MimeType: mimeType, FileName: fileName}, nil
}

// EncodeFile check the mime type against the allow-list, then store data in the blob store
func (e *PayloadEncoder) EncodeFile(ctx context.Context, env Envelope, fileName, declaredMime string, data []byte) (*domain.Message, error) {
	if err := env.validate(); err != nil {
		return nil, err
	}
	up, err := e.UploadFile(ctx, fileName, declaredMime, data)
	if err != nil {
		return nil, err
	}

	m := env.message(domain.KindFile)
	m.MediaRef = up.URL
	m.FileMeta = &domain.FileMeta{FileName: up.FileName, MimeType: up.MimeType}
	m.BlobKey = up.ObjectName
	return m, nil
}

// EncodeFileRef file already uploaded to ref, the declared mime type must still be allowed
func (e *PayloadEncoder) EncodeFileRef(env Envelope, ref, fileName, declaredMime string) (*domain.Message, error) {
	if err := env.validate(); err != nil {
		return nil, err
	}
	mimeType := NormalizeMime(declaredMime)
	if err := e.checkFileType(mimeType); err != nil {
		return nil, err
	}
	if fileName == "" {
		return nil, errprocess.Wrap(domain.ErrValidation, "fileName is required")
	}
	if err := checkRef(ref); err != nil {
		return nil, err
	}

	m := env.message(domain.KindFile)
	m.MediaRef = ref
	m.FileMeta = &domain.FileMeta{FileName: fileName, MimeType: mimeType}
	return m, nil
}

// Discard remove the blob written for m, used when m could not be stored
func (e *PayloadEncoder) Discard(ctx context.Context, m *domain.Message) {
	if m == nil || m.BlobKey == "" {
		return
	}
	if err := e.blobs.Remove(ctx, m.BlobKey); err != nil {
		logger.Log.Error("discard blob", zap.String("object", m.BlobKey), zap.Error(err))
	}
}

func (e *PayloadEncoder) checkFileType(mimeType string) error {
	if mimeType == "" || !pkg.ContainsFold(e.policy.AllowedFileTypes, mimeType) {
		return errprocess.Wrap(domain.ErrUnsupportedMediaType, fmt.Sprintf("file type %q is not allowed", mimeType))
	}
	return nil
}

// contentAllowed the sniffed type is unknown, a generic container, or an allowed type
func (e *PayloadEncoder) contentAllowed(sniffed *mimetype.MIME) bool {
	if sniffed.Is("application/octet-stream") {
		return true
	}
	for m := sniffed; m != nil; m = m.Parent() {
		if m.Is("application/octet-stream") {
			break
		}
		if pkg.ContainsFold(e.policy.AllowedFileTypes, m.String()) || pkg.Contains(containerTypes, m.String()) {
			return true
		}
	}
	return false
}

// NormalizeMime drop parameters and lower-case
func NormalizeMime(v string) string {
	v, _, _ = strings.Cut(v, ";")
	return strings.ToLower(strings.TrimSpace(v))
}

func checkSize(n int, max int64, what string) error {
	if n == 0 {
		return errprocess.Wrap(domain.ErrInvalidPayload, what+" is empty")
	}
	if max > 0 && int64(n) > max {
		return errprocess.Wrap(domain.ErrPayloadTooLarge, fmt.Sprintf("%s is %d bytes, limit %d", what, n, max))
	}
	return nil
}

func checkRef(ref string) error {
	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errprocess.Wrap(domain.ErrInvalidPayload, fmt.Sprintf("media reference %q is not an http(s) url", ref))
	}
	return nil
}

func safeExt(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if len(ext) > 8 || strings.ContainsAny(ext, "/\\ ") {
		return ""
	}
	return ext
}
