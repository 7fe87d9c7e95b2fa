package config

import "time"

// Chat definition chat_service YAML structure
type Chat struct {
	Port           string `mapstructure:"port"`
	GRPCHealthPort string `mapstructure:"grpc_health_port"`
	Pprof          bool   `mapstructure:"pprof"`

	Storage StorageConfig `mapstructure:"storage"`
	Relay   RelayConfig   `mapstructure:"relay"`
	Sink    SinkConfig    `mapstructure:"sink"`

	MongoSQL   DatabaseConfig `mapstructure:"mongo"`
	PostgreSQL DatabaseConfig `mapstructure:"pg"`
	Redis      RedisConfig    `mapstructure:"redis"`
	NATS       NATSConfig     `mapstructure:"nats"`
	MinIO      MinIOConfig    `mapstructure:"minio"`
	Kafka      KafkaConfig    `mapstructure:"kafka"`
	RabbitMQ   RabbitMQConfig `mapstructure:"rabbitmq"`

	Payload   PayloadConfig   `mapstructure:"payload"`
	Websocket WebsocketConfig `mapstructure:"websocket"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

// StorageConfig message store driver: mongo | postgres | memory
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
}

// RelayConfig cross node live relay driver: redis | nats | local
type RelayConfig struct {
	Driver string `mapstructure:"driver"`
}

// SinkConfig message.created sink driver: kafka | rabbitmq | none
type SinkConfig struct {
	Driver string `mapstructure:"driver"`
}

// RedisConfig definition redis setting, Addr wins over sentinel discovery
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	RedisDB  int    `mapstructure:"redis_db"`
}

// NATSConfig definition nats setting
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// MinIOConfig definition blob store setting
type MinIOConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	BucketName    string        `mapstructure:"bucket"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PublicURL     string        `mapstructure:"public_url"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
	RetryInterval int           `mapstructure:"retry_interval"`
	RetryCount    int           `mapstructure:"retry_count"`
}

// KafkaConfig definition kafka sink setting
type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	Topic         string   `mapstructure:"topic"`
	RetryInterval int      `mapstructure:"retry_interval"`
	RetryCount    int      `mapstructure:"retry_count"`
}

// RabbitMQConfig definition rabbitmq sink setting
type RabbitMQConfig struct {
	URL           string `mapstructure:"url"`
	Exchange      string `mapstructure:"exchange"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// PayloadConfig limits for audio and file messages
type PayloadConfig struct {
	MaxAudioBytes    int64    `mapstructure:"max_audio_bytes"`
	MaxFileBytes     int64    `mapstructure:"max_file_bytes"`
	AllowedFileTypes []string `mapstructure:"allowed_file_types"`
}

// WebsocketConfig per connection tuning
type WebsocketConfig struct {
	PingInterval time.Duration `mapstructure:"ping_interval"`
	SendBuffer   int           `mapstructure:"send_buffer"`
	ReadLimit    int64         `mapstructure:"read_limit"`
}

// AuthConfig jwt verification setting
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// DefaultAllowedFileTypes pdf, ppt, pptx, doc, docx
var DefaultAllowedFileTypes = []string{
	"application/pdf",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ApplyDefaults fill zero values left out of the YAML
func (c *Chat) ApplyDefaults() {
	if c.Port == "" {
		c.Port = "8083"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "mongo"
	}
	if c.Relay.Driver == "" {
		c.Relay.Driver = "local"
	}
	if c.Sink.Driver == "" {
		c.Sink.Driver = "none"
	}
	if c.Payload.MaxAudioBytes <= 0 {
		c.Payload.MaxAudioBytes = 10 << 20
	}
	if c.Payload.MaxFileBytes <= 0 {
		c.Payload.MaxFileBytes = 25 << 20
	}
	if len(c.Payload.AllowedFileTypes) == 0 {
		c.Payload.AllowedFileTypes = DefaultAllowedFileTypes
	}
	if c.Websocket.PingInterval <= 0 {
		c.Websocket.PingInterval = 30 * time.Second
	}
	if c.Websocket.SendBuffer <= 0 {
		c.Websocket.SendBuffer = 64
	}
	if c.Websocket.ReadLimit <= 0 {
		// base64 inflates binary frames by 4/3
		c.Websocket.ReadLimit = c.Payload.MaxFileBytes*4/3 + 4096
	}
	if c.MinIO.PresignExpiry <= 0 {
		c.MinIO.PresignExpiry = 7 * 24 * time.Hour
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "chat.message.created"
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "chat.events"
	}
}
