package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"gig_chat_service/internal/chat/app"
	"gig_chat_service/internal/chat/domain"
	"gig_chat_service/internal/chat/hub"
	"gig_chat_service/internal/chat/repository"
	"gig_chat_service/pkg/logger"
	"gig_chat_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.SetNewNop()
}

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

var exeBytes = append([]byte("MZ"), make([]byte, 128)...)

var oggBytes = append([]byte("OggS\x00\x02"), make([]byte, 64)...)

type testServer struct {
	app   *fiber.App
	blobs *repository.MemoryBlobStore
	repo  repository.MessageRepository
}

func newTestServer() *testServer {
	return newTestServerContext(context.Background())
}

func newTestServerContext(ctx context.Context) *testServer {
	registry := hub.NewRegistry()
	blobs := repository.NewMemoryBlobStore("https://cdn.test")
	enc := app.NewPayloadEncoder(blobs, app.PayloadPolicy{
		MaxAudioBytes: 1024,
		MaxFileBytes:  1024,
		AllowedFileTypes: []string{
			"application/pdf",
			"application/msword",
		},
	})
	repo := repository.NewMemoryMessageRepository()
	uc := app.NewMessageUseCase(repo, enc, hub.NewBroker(registry, nil), nil)

	r := NewFiberApp(4 << 20)
	RegisterRoutes(ctx, r,
		app.NewChatWebsocketHandler(registry, uc, app.WebsocketSettings{PingInterval: time.Second, SendBuffer: 16, ReadLimit: 1 << 20}),
		app.NewChatHTTPHandler(uc, registry),
		blobs)
	return &testServer{app: r, blobs: blobs, repo: repo}
}

func bearer(t *testing.T, memberID string) string {
	tok, err := token.GenerateJWT(memberID, string(token.RoleBuyer), "test")
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, req *http.Request, memberID string) (int, []byte) {
	if memberID != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bearer(t, memberID))
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func jsonRequest(method, url string, v interface{}) *http.Request {
	raw, _ := json.Marshal(v)
	req := httptest.NewRequest(method, url, bytes.NewReader(raw))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func multipartRequest(url string, fields map[string]string, field, fileName, contentType string, data []byte) *http.Request {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, fileName))
	h.Set("Content-Type", contentType)
	part, _ := w.CreatePart(h)
	_, _ = part.Write(data)
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

var pair = map[string]string{"senderId": "u1", "receiverId": "u2", "senderName": "Ann"}

func TestPublicRoutes(t *testing.T) {
	s := newTestServer()

	status, body := s.do(t, httptest.NewRequest(http.MethodGet, "/", nil), "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "chat service start!", string(body))

	status, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil), "")
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/stats", nil), "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestSendMessageAndHistory(t *testing.T) {
	s := newTestServer()

	status, body := s.do(t, jsonRequest(http.MethodPost, "/messages", app.SendMessageRequest{
		SenderID: "u1", ReceiverID: "u2", SenderName: "Ann", Message: "hello", Timestamp: 100,
	}), "u1")
	require.Equal(t, fiber.StatusCreated, status, string(body))

	var m domain.Message
	require.NoError(t, json.Unmarshal(body, &m))
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, domain.KindText, m.Kind)
	assert.Equal(t, int64(100), m.Timestamp)

	status, body = s.do(t, httptest.NewRequest(http.MethodGet, "/messages/history?userA=u2&userB=u1", nil), "u2")
	require.Equal(t, fiber.StatusOK, status)
	var hist []domain.Message
	require.NoError(t, json.Unmarshal(body, &hist))
	require.Len(t, hist, 1)
	assert.Equal(t, "hello", hist[0].Body)

	status, body = s.do(t, httptest.NewRequest(http.MethodGet, "/conversations/u1", nil), "u1")
	require.Equal(t, fiber.StatusOK, status)
	var convs []domain.Conversation
	require.NoError(t, json.Unmarshal(body, &convs))
	assert.Equal(t, []domain.Conversation{{CounterpartID: "u2", LastMessageAt: 100}}, convs)
}

func TestSendMessage_Errors(t *testing.T) {
	s := newTestServer()

	status, body := s.do(t, jsonRequest(http.MethodPost, "/messages", app.SendMessageRequest{SenderID: "u1", ReceiverID: "u2"}), "u1")
	assert.Equal(t, fiber.StatusBadRequest, status)
	var e app.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, "validation", e.Code)

	status, _ = s.do(t, jsonRequest(http.MethodPost, "/messages", app.SendMessageRequest{SenderID: "u1", ReceiverID: "u2", Message: "x"}), "u3")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/messages/history?userA=u1&userB=u2", nil), "u3")
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/conversations/u1", nil), "u2")
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = s.do(t, httptest.NewRequest(http.MethodGet, "/messages/history?userA=u1&userB=u2", nil), "u1")
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, "[]", string(body))
}

func (s *testServer) history(t *testing.T) []domain.Message {
	hist, err := s.repo.History(context.Background(), "u1", "u2")
	require.NoError(t, err)
	return hist
}

func TestUploadAudio(t *testing.T) {
	s := newTestServer()

	status, body := s.do(t, multipartRequest("/messages/audio", pair, "audio", "voice.ogg", "audio/ogg", oggBytes), "u1")
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var out app.UploadAudioResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Contains(t, out.AudioURL, "https://cdn.test/audio/")
	assert.Empty(t, s.history(t), "upload stores no message")

	status, _ = s.do(t, multipartRequest("/messages/audio", pair, "audio", "long.ogg", "audio/ogg", make([]byte, 2048)), "u1")
	assert.Equal(t, fiber.StatusRequestEntityTooLarge, status)

	status, _ = s.do(t, multipartRequest("/messages/audio", pair, "audio", "voice.ogg", "audio/ogg", oggBytes), "u3")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, 1, s.blobs.Len())
}

func TestUploadFile(t *testing.T) {
	s := newTestServer()

	status, body := s.do(t, multipartRequest("/messages/file", pair, "file", "brief.pdf", "application/pdf", pdfBytes), "u1")
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var out app.UploadFileResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Contains(t, out.FileURL, "https://cdn.test/file/")
	assert.Equal(t, "brief.pdf", out.FileName)
	assert.Equal(t, "application/pdf", out.FileType)
	assert.Empty(t, s.history(t), "upload stores no message")

	status, _ = s.do(t, multipartRequest("/messages/file", pair, "file", "setup.exe", "application/x-msdownload", exeBytes), "u1")
	assert.Equal(t, fiber.StatusUnsupportedMediaType, status)

	status, _ = s.do(t, multipartRequest("/messages/file", pair, "file", "setup.exe", "application/x-msdownload", nil), "u1")
	assert.Equal(t, fiber.StatusUnsupportedMediaType, status)

	status, _ = s.do(t, multipartRequest("/messages/file", pair, "file", "setup.exe", "application/x-msdownload",
		append(append([]byte(nil), exeBytes...), make([]byte, 2048)...)), "u1")
	assert.Equal(t, fiber.StatusUnsupportedMediaType, status)

	status, _ = s.do(t, multipartRequest("/messages/file", pair, "file", "setup.pdf", "application/pdf", exeBytes), "u1")
	assert.Equal(t, fiber.StatusUnsupportedMediaType, status)
	assert.Equal(t, 1, s.blobs.Len())

	req := jsonRequest(http.MethodPost, "/messages/file", pair)
	status, _ = s.do(t, req, "u1")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestMediaRoute(t *testing.T) {
	s := newTestServer()

	status, body := s.do(t, multipartRequest("/messages/file", pair, "file", "brief.pdf", "application/pdf", pdfBytes), "u1")
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var out app.UploadFileResponse
	require.NoError(t, json.Unmarshal(body, &out))

	req := httptest.NewRequest(http.MethodGet, "/media/"+strings.TrimPrefix(out.FileURL, "https://cdn.test/"), nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, got)

	status, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/media/file/missing.pdf", nil), "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestDebugLogFlag(t *testing.T) {
	s := newTestServer()

	status, _ := s.do(t, httptest.NewRequest(http.MethodPost, "/debug?status=maybe", nil), "u1")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := s.do(t, httptest.NewRequest(http.MethodPost, "/debug?status=false", nil), "u1")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "debug mode is : false", string(body))
}

func startListener(t *testing.T, s *testServer) string {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = s.app.Listener(ln) }()
	t.Cleanup(func() { _ = s.app.ShutdownWithTimeout(time.Second) })
	return ln.Addr().String()
}

func dialWS(t *testing.T, addr, memberID string) *websocket.Conn {
	url := fmt.Sprintf("ws://%s/ws?auth=%s", addr, bearer(t, memberID))
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) domain.WSResponse {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var resp domain.WSResponse
	require.NoError(t, conn.ReadJSON(&resp))
	return resp
}

func TestWebsocket_AudioFanOut(t *testing.T) {
	s := newTestServer()
	addr := startListener(t, s)

	c1 := dialWS(t, addr, "u1")
	c2 := dialWS(t, addr, "u2")

	require.NoError(t, c1.WriteJSON(domain.WSRequest{Action: "join", SelfID: "u1", CounterpartID: "u2"}))
	assert.True(t, readFrame(t, c1).Success)
	require.NoError(t, c2.WriteJSON(domain.WSRequest{Action: "join", SelfID: "u2", CounterpartID: "u1"}))
	assert.True(t, readFrame(t, c2).Success)

	require.NoError(t, c1.WriteJSON(domain.WSRequest{Action: "send_audio", SenderID: "u1", ReceiverID: "u2", SenderName: "Ann", AudioData: oggBytes}))

	ack := readFrame(t, c1)
	require.True(t, ack.Success, ack.Error)
	assert.Equal(t, "send_audio", ack.Action)

	got := readFrame(t, c2)
	assert.Equal(t, "receive_audio", got.Action)
	assert.Equal(t, "u1", got.Payload["senderId"])
	assert.Contains(t, got.Payload["audio"], "https://cdn.test/audio/")

	// no echo: the next frame c1 sees is the answer to its own request
	require.NoError(t, c1.WriteJSON(domain.WSRequest{Action: "conversations"}))
	next := readFrame(t, c1)
	assert.Equal(t, "conversations", next.Action)
}

func joinWS(t *testing.T, conn *websocket.Conn, self, counterpart string) domain.WSResponse {
	require.NoError(t, conn.WriteJSON(domain.WSRequest{Action: "join", SelfID: self, CounterpartID: counterpart}))
	ack := readFrame(t, conn)
	require.True(t, ack.Success, ack.Error)
	return ack
}

func TestWebsocket_UploadThenAnnounce(t *testing.T) {
	s := newTestServer()
	addr := startListener(t, s)

	c1 := dialWS(t, addr, "u1")
	c2 := dialWS(t, addr, "u2")
	joinWS(t, c1, "u1", "u2")
	joinWS(t, c2, "u2", "u1")

	status, body := s.do(t, multipartRequest("/messages/file", pair, "file", "brief.pdf", "application/pdf", pdfBytes), "u1")
	require.Equal(t, fiber.StatusCreated, status, string(body))
	var up app.UploadFileResponse
	require.NoError(t, json.Unmarshal(body, &up))

	require.NoError(t, c1.WriteJSON(domain.WSRequest{Action: "send_file", SenderID: "u1", ReceiverID: "u2",
		FileURL: up.FileURL, FileName: up.FileName, FileType: up.FileType}))
	ack := readFrame(t, c1)
	require.True(t, ack.Success, ack.Error)

	got := readFrame(t, c2)
	assert.Equal(t, "receive_file", got.Action)
	assert.Equal(t, up.FileURL, got.Payload["fileUrl"])

	// exactly one delivery: c2's next frame answers its own request
	require.NoError(t, c2.WriteJSON(domain.WSRequest{Action: "conversations"}))
	assert.Equal(t, "conversations", readFrame(t, c2).Action)

	hist := s.history(t)
	require.Len(t, hist, 1)
	assert.Equal(t, up.FileURL, hist[0].MediaRef)
}

func TestWebsocket_RESTSendWithSessionHeader(t *testing.T) {
	s := newTestServer()
	addr := startListener(t, s)

	c1 := dialWS(t, addr, "u1")
	c2 := dialWS(t, addr, "u2")
	sessionID, _ := joinWS(t, c1, "u1", "u2").Payload["sessionId"].(string)
	require.NotEmpty(t, sessionID)
	joinWS(t, c2, "u2", "u1")

	req := jsonRequest(http.MethodPost, "/messages", app.SendMessageRequest{SenderID: "u1", ReceiverID: "u2", Message: "via rest"})
	req.Header.Set(app.HeaderChatSession, sessionID)
	status, body := s.do(t, req, "u1")
	require.Equal(t, fiber.StatusCreated, status, string(body))

	got := readFrame(t, c2)
	assert.Equal(t, "receive_message", got.Action)
	assert.Equal(t, "via rest", got.Payload["message"])

	require.NoError(t, c1.WriteJSON(domain.WSRequest{Action: "conversations"}))
	assert.Equal(t, "conversations", readFrame(t, c1).Action, "origin session gets no copy")
	assert.Len(t, s.history(t), 1)
}

func TestWebsocket_ClosedWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := newTestServerContext(ctx)
	addr := startListener(t, s)

	c1 := dialWS(t, addr, "u1")
	joinWS(t, c1, "u1", "u2")

	cancel()

	require.NoError(t, c1.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := c1.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), err.Error())
}

func TestWebsocket_RequiresToken(t *testing.T) {
	s := newTestServer()
	addr := startListener(t, s)

	_, resp, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/ws", addr), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
