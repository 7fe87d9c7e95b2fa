package app

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gig_chat_service/internal/chat/domain"
	"gig_chat_service/internal/chat/hub"
	errprocess "gig_chat_service/pkg/err"
	"gig_chat_service/pkg/logger"
	"gig_chat_service/pkg/middlewares"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// WebsocketSettings per connection tuning
type WebsocketSettings struct {
	PingInterval time.Duration
	SendBuffer   int
	ReadLimit    int64
}

// ChatWebsocketHandler live chat over websocket
type ChatWebsocketHandler struct {
	registry *hub.Registry
	uc       *MessageUseCase
	settings WebsocketSettings
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(registry *hub.Registry, uc *MessageUseCase, settings WebsocketSettings) *ChatWebsocketHandler {
	return &ChatWebsocketHandler{
		registry: registry,
		uc:       uc,
		settings: settings,
	}
}

// HandleConnection websocket entry point, returns when the connection is gone or ctx is done
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	memberID, _ := conn.Locals(middlewares.TokenMemberID).(string)
	if memberID == "" {
		closeWebSocketConnection(conn, websocket.ClosePolicyViolation, "missing member")
		return
	}

	if h.settings.ReadLimit > 0 {
		conn.SetReadLimit(h.settings.ReadLimit)
	}

	session := hub.NewConnSession(memberID, conn, h.settings.SendBuffer, h.settings.PingInterval)
	logger.Log.Info("websocket open", zap.String("memberID", memberID), zap.String("sessionID", session.ID()))

	go session.Run()
	go func() {
		select {
		case <-ctx.Done():
			closeWebSocketConnection(conn, websocket.CloseGoingAway, "server shutting down")
		case <-session.Done():
		}
	}()
	defer func() {
		h.registry.Leave(session)
		session.Close()
		logger.Log.Info("websocket close", zap.String("memberID", memberID), zap.String("sessionID", session.ID()))
	}()

	if h.settings.PingInterval > 0 {
		pongWait := 2 * h.settings.PingInterval
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
	}

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Warn("websocket read error", zap.String("sessionID", session.ID()), zap.Error(err))
			}
			return
		}

		switch mt {
		case websocket.TextMessage:
			h.Dispatch(ctx, session, msg)
		default:
			sendError(session, "only text frames are accepted")
		}
	}
}

// Dispatch run one inbound frame of session and answer it
func (h *ChatWebsocketHandler) Dispatch(ctx context.Context, session hub.Session, raw []byte) {
	var req domain.WSRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		sendError(session, "invalid json")
		return
	}

	memberID := session.MemberID()
	caller := Caller{UserID: memberID, SessionID: session.ID()}
	resp := domain.WSResponse{Action: req.Action, Success: false, Payload: map[string]interface{}{}}

	var err error
	switch domain.Action(req.Action) {
	case domain.Join:
		self := req.SelfID
		if self == "" {
			self = memberID
		}
		if self != memberID {
			err = errprocess.Wrap(domain.ErrForbidden, "join as another member")
			break
		}
		var key domain.PairKey
		if key, err = h.registry.Join(self, req.CounterpartID, session); err == nil {
			resp.Payload["pairKey"] = string(key)
			resp.Payload["counterpartId"] = req.CounterpartID
			resp.Payload["sessionId"] = session.ID()
		}

	case domain.SendMessage:
		var m *domain.Message
		if m, err = h.uc.SendText(ctx, caller, envelopeOf(req), req.Message); err == nil {
			resp.Payload = domain.MessagePayload(*m)
		}

	case domain.SendAudio:
		var m *domain.Message
		audio := Attachment{Data: req.AudioData, Ref: req.Audio}
		if m, err = h.uc.SendAudio(ctx, caller, envelopeOf(req), audio); err == nil {
			resp.Payload = domain.MessagePayload(*m)
		}

	case domain.SendFile:
		var m *domain.Message
		file := Attachment{Data: req.File, Ref: req.FileURL, FileName: req.FileName, MimeType: req.FileType}
		if m, err = h.uc.SendFile(ctx, caller, envelopeOf(req), file); err == nil {
			resp.Payload = domain.MessagePayload(*m)
		}

	case domain.History:
		var msgs []domain.Message
		if msgs, err = h.uc.History(ctx, memberID, memberID, req.CounterpartID); err == nil {
			resp.Payload["messages"] = msgs
		}

	case domain.Conversations:
		var convs []domain.Conversation
		if convs, err = h.uc.Conversations(ctx, memberID, memberID); err == nil {
			resp.Payload["conversations"] = convs
		}

	default:
		sendError(session, "unknown action")
		return
	}

	if err != nil {
		resp.Error = err.Error()
		resp.Payload["code"] = ErrorCode(err)
		logger.Log.Warn("websocket action failed", zap.String("memberID", memberID), zap.String("action", req.Action), zap.Error(err))
	} else {
		resp.Success = true
	}
	sendResponse(session, resp)
}

func envelopeOf(req domain.WSRequest) Envelope {
	return Envelope{
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		SenderName: req.SenderName,
		Timestamp:  req.Timestamp,
	}
}

// ErrorCode stable code of a domain error for clients
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrPayloadTooLarge):
		return "payload_too_large"
	case errors.Is(err, domain.ErrInvalidPayload):
		return "invalid_payload"
	case errors.Is(err, domain.ErrUnsupportedMediaType):
		return "unsupported_media_type"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrStorageFailure):
		return "storage_failure"
	default:
		return "internal"
	}
}

// sendResponse queue resp on the session writer
func sendResponse(session hub.Session, resp domain.WSResponse) {
	if err := session.Send(resp); err != nil {
		logger.Log.Warn("send response", zap.String("sessionID", session.ID()), zap.String("action", resp.Action), zap.Error(err))
	}
}

func sendError(session hub.Session, errorMsg string) {
	sendResponse(session, domain.WSResponse{
		Action:  "error",
		Success: false,
		Error:   errorMsg,
	})
}

func closeWebSocketConnection(conn *websocket.Conn, code int, reason string) {
	if err := conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second)); err != nil {
		logger.Log.Warn("send close frame", zap.Error(err))
	}
	conn.Close()
}
