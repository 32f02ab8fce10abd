package config

import (
	"os"
	"strconv"
	"time"

	commoncfg "overwatch-ingest/internal/common/config"
)

// Config overwatch-ingest（摄取管线 + HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string
	}
	DBEnabled bool
	Database  commoncfg.DatabaseConfig
	Redis     struct {
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	GenAI  commoncfg.GenAIConfig
	Intake IntakeConfig
	MQTT   MQTTConfig
}

// IntakeConfig Redis Streams 文档接入配置
type IntakeConfig struct {
	Enabled     bool   `yaml:"enabled"`      // 是否启用流式接入（默认 true，Redis 不可用时由 main 降级关闭）
	Stream      string `yaml:"stream"`       // 原始文档流（如 "overwatch:documents:raw"）
	Group       string `yaml:"group"`        // 消费组名
	Consumer    string `yaml:"consumer"`     // 消费者名
	EventStream string `yaml:"event_stream"` // 摄取完成事件流（发布给推演时钟/决策顾问）
}

// MQTTConfig MQTT 配置（用于外场单位推送原始文档）
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`   // 是否启用 MQTT 接入（默认 false）
	Broker   string `yaml:"broker"`    // MQTT Broker 地址（如 "tcp://localhost:1883"）
	ClientID string `yaml:"client_id"` // 客户端 ID
	Username string `yaml:"username"`  // 用户名（可选）
	Password string `yaml:"password"`  // 密码（可选）
	Topic    string `yaml:"topic"`     // 订阅主题（如 "overwatch/+/documents"）
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	// Default to true for local dev: if DB is unavailable, overwatch-ingest falls back to the in-memory store.
	// This keeps `go run` usable without a local postgres.
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "overwatch")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	// Generative Text Service 配置（分类与抽取唯一的外部调用）
	cfg.GenAI.BaseURL = getEnv("GENAI_BASE_URL", "http://localhost:11434/v1")
	cfg.GenAI.APIKey = getEnv("GENAI_API_KEY", "")
	cfg.GenAI.Model = getEnv("GENAI_MODEL", "llama3.1:8b")
	cfg.GenAI.Timeout = time.Duration(parseInt(getEnv("GENAI_TIMEOUT_SECONDS", "120"), 120)) * time.Second
	cfg.GenAI.MaxTokens = parseInt(getEnv("GENAI_MAX_TOKENS", "4096"), 4096)

	// 流式接入配置
	cfg.Intake.Enabled = getEnv("INTAKE_ENABLED", "true") == "true"
	cfg.Intake.Stream = getEnv("INTAKE_STREAM", "overwatch:documents:raw")
	cfg.Intake.Group = getEnv("INTAKE_GROUP", "overwatch-ingest")
	cfg.Intake.Consumer = getEnv("INTAKE_CONSUMER", "overwatch-ingest-1")
	cfg.Intake.EventStream = getEnv("INTAKE_EVENT_STREAM", "overwatch:documents:ingested")

	// MQTT 配置（外场单位推送原始文档，默认禁用）
	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "overwatch-ingest")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "overwatch/+/documents")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
