package database

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// Connection definition connection string with retry setting
type Connection struct {
	ConnectStr string

	RetryCount    int
	RetryInterval time.Duration
}

// MongoDB definition mongo db
type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// PostgresConnection definition message store postgreSQL
type PostgresConnection struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string

	RetryCount    int
	RetryInterval time.Duration
}

// DSN keyword/value DSN understood by gorm.io/driver/postgres
func (p PostgresConnection) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", p.Host, p.Port, p.User, p.Password, p.Database)
}

// NATSConnection definition live relay nats, Name shows up in the server's connz
type NATSConnection struct {
	URL  string
	Name string

	RetryCount    int
	RetryInterval time.Duration
}

// MinIOConnection definition chat media bucket
type MinIOConnection struct {
	Endpoint   string
	User       string
	Password   string
	BucketName string
	UseSSL     bool

	RetryCount    int
	RetryInterval time.Duration
}

// KafkaConnection definition message.created topic
type KafkaConnection struct {
	Brokers       []string
	Topic         string
	RetryCount    int
	RetryInterval time.Duration
}
