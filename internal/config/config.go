package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App        AppConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Lock       LockConfig
	Logger     LoggerConfig
	Kafka      KafkaConfig
	Responder  ResponderConfig
	Escalation EscalationConfig
	Intake     IntakeConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	CORSOrigins           string
}

// PostgresConfig holds DB connection values. An empty DSN selects the in-memory store.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Lock backends.
const (
	LockBackendLocal = "local"
	LockBackendRedis = "redis"
)

// LockConfig selects how per-ticket work is serialized.
type LockConfig struct {
	Backend    string
	Prefix     string
	TTLSeconds int
	WaitMillis int
}

// TTL returns the lease duration of a distributed lock.
func (l LockConfig) TTL() time.Duration {
	return time.Duration(l.TTLSeconds) * time.Second
}

// Wait returns the retry interval while a distributed lock is contended.
func (l LockConfig) Wait() time.Duration {
	return time.Duration(l.WaitMillis) * time.Millisecond
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// KafkaConfig configures the event relay. No brokers disables publishing.
type KafkaConfig struct {
	Brokers          []string
	TicketsTopic     string
	EscalationsTopic string
	MetricsTopic     string
	DLQTopic         string
}

// Enabled reports whether brokers were configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// Responder providers.
const (
	ProviderMock      = "mock"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ResponderConfig selects and configures the AI reply provider.
type ResponderConfig struct {
	Provider       string
	APIKey         string
	BaseURL        string
	Model          string
	MaxTokens      int
	TimeoutSeconds int
}

// Timeout returns the per-call responder deadline.
func (r ResponderConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// EscalationConfig feeds the escalation policy.
type EscalationConfig struct {
	SentimentThreshold float64  `yaml:"sentiment_threshold"`
	Keywords           []string `yaml:"keywords"`
	File               string   `yaml:"-"`
}

// IntakeConfig tunes inbound message handling.
type IntakeConfig struct {
	ThreadWindowHours int
	TwilioAuthToken   string
	TwilioWebhookURL  string
	MaxBodyBytes      int
}

// ThreadWindow returns how long a conversation stays attached to its latest ticket.
func (i IntakeConfig) ThreadWindow() time.Duration {
	return time.Duration(i.ThreadWindowHours) * time.Hour
}

// Default escalation keywords.
var DefaultEscalationKeywords = []string{"legal", "sue", "lawyer", "refund"}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "support-desk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			CORSOrigins:           getEnv("CORS_ALLOW_ORIGINS", "*"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Lock: LockConfig{
			Backend:    strings.ToLower(getEnv("LOCK_BACKEND", LockBackendLocal)),
			Prefix:     getEnv("LOCK_PREFIX", "support-desk:lock:"),
			TTLSeconds: getEnvAsInt("LOCK_TTL_SECONDS", 30),
			WaitMillis: getEnvAsInt("LOCK_RETRY_MILLIS", 25),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Kafka: KafkaConfig{
			Brokers:          getEnvAsList("KAFKA_BROKERS", nil),
			TicketsTopic:     getEnv("KAFKA_TOPIC_TICKETS", "fte.tickets.incoming"),
			EscalationsTopic: getEnv("KAFKA_TOPIC_ESCALATIONS", "fte.escalations"),
			MetricsTopic:     getEnv("KAFKA_TOPIC_METRICS", "fte.metrics"),
			DLQTopic:         getEnv("KAFKA_TOPIC_DLQ", "fte.dlq"),
		},
		Responder: ResponderConfig{
			Provider:       strings.ToLower(getEnv("RESPONDER_PROVIDER", ProviderMock)),
			APIKey:         os.Getenv("RESPONDER_API_KEY"),
			BaseURL:        os.Getenv("RESPONDER_BASE_URL"),
			Model:          os.Getenv("RESPONDER_MODEL"),
			MaxTokens:      getEnvAsInt("RESPONDER_MAX_TOKENS", 1024),
			TimeoutSeconds: getEnvAsInt("RESPONDER_TIMEOUT_SECONDS", 30),
		},
		Escalation: EscalationConfig{
			SentimentThreshold: 0.3,
			Keywords:           append([]string(nil), DefaultEscalationKeywords...),
			File:               getEnv("ESCALATION_CONFIG_FILE", "escalation.yaml"),
		},
		Intake: IntakeConfig{
			ThreadWindowHours: getEnvAsInt("INTAKE_THREAD_WINDOW_HOURS", 24),
			TwilioAuthToken:   os.Getenv("TWILIO_AUTH_TOKEN"),
			TwilioWebhookURL:  os.Getenv("TWILIO_WEBHOOK_URL"),
			MaxBodyBytes:      getEnvAsInt("INTAKE_MAX_BODY_BYTES", 1<<20),
		},
	}

	if err := cfg.Escalation.loadFile(); err != nil {
		return nil, err
	}
	cfg.Escalation.SentimentThreshold = getEnvAsFloat("ESCALATION_SENTIMENT_THRESHOLD", cfg.Escalation.SentimentThreshold)
	cfg.Escalation.Keywords = getEnvAsList("ESCALATION_KEYWORDS", cfg.Escalation.Keywords)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the service cannot run with.
func (c *Config) Validate() error {
	switch c.Lock.Backend {
	case LockBackendLocal:
	case LockBackendRedis:
		if c.Redis.Addr == "" {
			return errors.New("LOCK_BACKEND=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown LOCK_BACKEND %q", c.Lock.Backend)
	}

	switch c.Responder.Provider {
	case ProviderMock:
	case ProviderOpenAI, ProviderAnthropic:
		if c.Responder.APIKey == "" {
			return fmt.Errorf("RESPONDER_PROVIDER=%s requires RESPONDER_API_KEY", c.Responder.Provider)
		}
	default:
		return fmt.Errorf("unknown RESPONDER_PROVIDER %q", c.Responder.Provider)
	}

	if t := c.Escalation.SentimentThreshold; t < 0 || t > 1 {
		return fmt.Errorf("escalation sentiment threshold %v outside [0,1]", t)
	}
	if c.Intake.ThreadWindowHours < 0 {
		return errors.New("INTAKE_THREAD_WINDOW_HOURS must not be negative")
	}
	return nil
}

// loadFile overlays the YAML policy file. A missing file is ignored.
func (e *EscalationConfig) loadFile() error {
	if e.File == "" {
		return nil
	}
	data, err := os.ReadFile(e.File)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", e.File, err)
	}
	if err := yaml.Unmarshal(data, e); err != nil {
		return fmt.Errorf("parse %s: %w", e.File, err)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
