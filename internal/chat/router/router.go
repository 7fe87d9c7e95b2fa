package router

import (
	"context"

	_ "gig_chat_service/docs" // swagger document
	"gig_chat_service/internal/chat/app"
	"gig_chat_service/internal/chat/repository"
	"gig_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"
)

// NewFiberApp fiber app accepting bodies up to bodyLimit bytes
func NewFiberApp(bodyLimit int) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:   "chat_service",
		BodyLimit: bodyLimit,
	})
}

// RegisterRoutes register chat routes, everything but /, /healthz, /swagger and /media needs a JWT.
// Websocket sessions end when ctx is done. media may be nil when uploads go to MinIO.
// @title Gig Chat Service API
// @version 1.0
// @description Real-time buyer/seller chat: text, audio and document messages
// @BasePath /
func RegisterRoutes(
	ctx context.Context,
	r *fiber.App,
	chatWebsocket *app.ChatWebsocketHandler,
	chatHTTP *app.ChatHTTPHandler,
	media *repository.MemoryBlobStore,
) {
	r.Get("/swagger/*", swagger.HandlerDefault)
	r.Get("/", app.ConnectCheck)
	r.Get("/healthz", app.Healthz)
	if media != nil {
		r.Get("/media/*", app.MediaHandler(media))
	}

	r.Use(middlewares.JWTMiddleware())

	r.Post("/debug", app.DebugLogFlag)
	r.Get("/stats", chatHTTP.Stats)

	r.Get("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}, websocket.New(func(c *websocket.Conn) {
		chatWebsocket.HandleConnection(ctx, c)
	}))

	r.Post("/messages", chatHTTP.SendMessage)
	r.Post("/messages/audio", chatHTTP.UploadAudio)
	r.Post("/messages/file", chatHTTP.UploadFile)
	r.Get("/messages/history", chatHTTP.History)

	r.Get("/conversations/:userId", chatHTTP.Conversations)
}
