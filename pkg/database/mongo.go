package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"gig_chat_service/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const mongoAttemptTimeout = 5 * time.Second

// MongoURI mongodb:// uri, credentials are escaped and left out when user is empty
func MongoURI(host string, port int, user, password string) string {
	u := url.URL{Scheme: "mongodb", Host: net.JoinHostPort(host, strconv.Itoa(port))}
	if user != "" {
		u.User = url.UserPassword(user, password)
	}
	return u.String()
}

// NewMongoDB connect and ping the primary, retrying RetryCount times
func NewMongoDB(ctx context.Context, c Connection, dbName string) (*MongoDB, error) {
	clientOpts := options.Client().ApplyURI(c.ConnectStr).SetAppName(dbName)

	var err error
	for i := 0; i <= c.RetryCount; i++ {
		var db *MongoDB
		if db, err = connectMongo(ctx, clientOpts, dbName); err == nil {
			return db, nil
		}

		logger.Log.Warn("mongo connect attempt failed", zap.Int("attempt", i+1), zap.Error(err))
		if i < c.RetryCount {
			time.Sleep(c.RetryInterval * time.Second)
		}
	}

	return nil, fmt.Errorf("failed to connect to MongoDB after retries: %w", err)
}

func connectMongo(ctx context.Context, opts *options.ClientOptions, dbName string) (*MongoDB, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, mongoAttemptTimeout)
	defer cancel()

	client, err := mongo.Connect(attemptCtx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(attemptCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &MongoDB{Client: client, Database: client.Database(dbName)}, nil
}

// Close disconnect mongoDB
func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
