package database

import (
	"fmt"
	"time"

	"gig_chat_service/pkg/logger"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NewNATSConnection connect to NATS with retry, the client keeps reconnecting after that
func NewNATSConnection(d NATSConnection) (*nats.Conn, error) {
	var nc *nats.Conn
	var err error

	for attempt := 1; attempt <= d.RetryCount || attempt == 1; attempt++ {
		nc, err = nats.Connect(d.URL,
			nats.Name(d.Name),
			nats.MaxReconnects(-1),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				logger.Log.Warn("nats disconnected", zap.Error(err))
			}),
			nats.ReconnectHandler(func(c *nats.Conn) {
				logger.Log.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
			}),
		)
		if err == nil {
			return nc, nil
		}

		logger.Log.Warn("nats connect failed, retrying...", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(d.RetryInterval * time.Second)
	}

	return nil, fmt.Errorf("connect nats[%s]: %w", d.URL, err)
}
