package app

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"

	"gig_chat_service/internal/chat/domain"
	"gig_chat_service/internal/chat/hub"
	"gig_chat_service/internal/chat/repository"
	"gig_chat_service/pkg/logger"
	"gig_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ChatHTTPHandler REST side of the chat
type ChatHTTPHandler struct {
	uc       *MessageUseCase
	registry *hub.Registry
}

// NewChatHTTPHandler create ChatHTTPHandler
func NewChatHTTPHandler(uc *MessageUseCase, registry *hub.Registry) *ChatHTTPHandler {
	return &ChatHTTPHandler{uc: uc, registry: registry}
}

// SendMessageRequest body of POST /messages
type SendMessageRequest struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	SenderName string `json:"senderName"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`
}

// ErrorResponse error body
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// StatusFor http status of a domain error
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrPayloadTooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrUnsupportedMediaType):
		return fiber.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidPayload):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

func writeError(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		logger.Log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(ErrorResponse{Error: err.Error(), Code: ErrorCode(err)})
}

// HeaderChatSession optional session id from the join ack; that session is skipped on fan-out
const HeaderChatSession = "X-Chat-Session"

func callerOf(c *fiber.Ctx) Caller {
	return Caller{UserID: middlewares.MemberID(c), SessionID: c.Get(HeaderChatSession)}
}

// SendMessage store a text message
// @Summary Send text message
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body SendMessageRequest true "message"
// @Param X-Chat-Session header string false "session id to leave out of the fan-out"
// @Success 201 {object} domain.Message
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /messages [post]
func (h *ChatHTTPHandler) SendMessage(c *fiber.Ctx) error {
	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body", Code: "validation"})
	}

	env := Envelope{SenderID: req.SenderID, ReceiverID: req.ReceiverID, SenderName: req.SenderName, Timestamp: req.Timestamp}
	m, err := h.uc.SendText(c.UserContext(), callerOf(c), env, req.Message)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

// UploadAudioResponse body of POST /messages/audio
type UploadAudioResponse struct {
	AudioURL string `json:"audioUrl"`
}

// UploadFileResponse body of POST /messages/file
type UploadFileResponse struct {
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
}

// UploadAudio store a recorded audio body; the message itself is sent with send_audio on the websocket
// @Summary Upload audio
// @Tags Chat
// @Accept multipart/form-data
// @Produce json
// @Param senderId formData string true "sender"
// @Param receiverId formData string true "receiver"
// @Param audio formData file true "audio"
// @Success 201 {object} UploadAudioResponse
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Router /messages/audio [post]
func (h *ChatHTTPHandler) UploadAudio(c *fiber.Ctx) error {
	env, err := formEnvelope(c)
	if err != nil {
		return writeError(c, err)
	}
	data, _, err := formFile(c, "audio")
	if err != nil {
		return writeError(c, err)
	}

	up, err := h.uc.UploadAudio(c.UserContext(), callerOf(c), env, data)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(UploadAudioResponse{AudioURL: up.URL})
}

// UploadFile store a document; the message itself is sent with send_file on the websocket
// @Summary Upload file
// @Description pdf, ppt, pptx, doc and docx only
// @Tags Chat
// @Accept multipart/form-data
// @Produce json
// @Param senderId formData string true "sender"
// @Param receiverId formData string true "receiver"
// @Param file formData file true "document"
// @Success 201 {object} UploadFileResponse
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 415 {object} ErrorResponse
// @Router /messages/file [post]
func (h *ChatHTTPHandler) UploadFile(c *fiber.Ctx) error {
	env, err := formEnvelope(c)
	if err != nil {
		return writeError(c, err)
	}
	data, fh, err := formFile(c, "file")
	if err != nil {
		return writeError(c, err)
	}

	file := Attachment{Data: data, FileName: fh.Filename, MimeType: fh.Header.Get(fiber.HeaderContentType)}
	up, err := h.uc.UploadFile(c.UserContext(), callerOf(c), env, file)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(UploadFileResponse{FileURL: up.URL, FileName: up.FileName, FileType: up.MimeType})
}

// History messages between two users
// @Summary Message history of a pair
// @Tags Chat
// @Produce json
// @Param userA query string true "user id"
// @Param userB query string true "user id"
// @Success 200 {array} domain.Message
// @Failure 403 {object} ErrorResponse
// @Router /messages/history [get]
func (h *ChatHTTPHandler) History(c *fiber.Ctx) error {
	msgs, err := h.uc.History(c.UserContext(), middlewares.MemberID(c), c.Query("userA"), c.Query("userB"))
	if err != nil {
		return writeError(c, err)
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return c.JSON(msgs)
}

// Conversations conversation list of a user
// @Summary Conversation list
// @Tags Chat
// @Produce json
// @Param userId path string true "user id"
// @Success 200 {array} domain.Conversation
// @Failure 403 {object} ErrorResponse
// @Router /conversations/{userId} [get]
func (h *ChatHTTPHandler) Conversations(c *fiber.Ctx) error {
	convs, err := h.uc.Conversations(c.UserContext(), middlewares.MemberID(c), c.Params("userId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(convs)
}

// MediaHandler serve uploads of a process local blob store under /media
// @Summary Download media kept in memory
// @Tags Chat
// @Param object path string true "object name"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Router /media/{object} [get]
func MediaHandler(store *repository.MemoryBlobStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		blob, ok := store.Get(c.Params("*"))
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "media not found", Code: "not_found"})
		}
		c.Set(fiber.HeaderContentType, blob.ContentType)
		return c.Send(blob.Data)
	}
}

// Stats live rooms and sessions of this node
// @Summary Registry stats
// @Tags Shared
// @Produce json
// @Success 200 {object} hub.Stats
// @Router /stats [get]
func (h *ChatHTTPHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(h.registry.Stats())
}

// ConnectCheck check chat service started
// @Summary Check chat service status
// @Tags Shared
// @Success 200 {string} string "chat service start!"
// @Router / [get]
func ConnectCheck(c *fiber.Ctx) error {
	return c.SendString("chat service start!")
}

// Healthz liveness probe
// @Summary Liveness probe
// @Tags Shared
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func Healthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// DebugLogFlag toggle debug log flag
// @Summary Toggle Debug Log Flag
// @Tags Shared
// @Param status query bool true "Debug status"
// @Success 200 {string} string "debug mode updated"
// @Failure 400 {string} string "Invalid status value"
// @Router /debug [post]
func DebugLogFlag(c *fiber.Ctx) error {
	statusStr := c.Query("status")
	status, err := strconv.ParseBool(statusStr)
	if err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	logger.Log.Info("debug", zap.Bool("status", status))
	logger.Log.SetDebugMode(status)
	return c.SendString(fmt.Sprintf("debug mode is : %t", status))
}

func formEnvelope(c *fiber.Ctx) (Envelope, error) {
	env := Envelope{
		SenderID:   c.FormValue("senderId"),
		ReceiverID: c.FormValue("receiverId"),
		SenderName: c.FormValue("senderName"),
	}
	if ts := c.FormValue("timestamp"); ts != "" {
		v, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return env, fmt.Errorf("%w: timestamp %q is not unix millis", domain.ErrValidation, ts)
		}
		env.Timestamp = v
	}
	return env, nil
}

func formFile(c *fiber.Ctx, field string) ([]byte, *multipart.FileHeader, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s is required", domain.ErrInvalidPayload, field)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: open %s: %v", domain.ErrInvalidPayload, field, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read %s: %v", domain.ErrInvalidPayload, field, err)
	}
	return data, fh, nil
}
