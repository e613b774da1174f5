package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Service   *svcConfig
	Pipeline  *pipelineConfig
	Webhook   *webhookConfig
	RateLimit *rateLimitConfig
	Storage   *storageConfig
	Engine    *engineConfig
}

type svcConfig struct {
	Address        string `envconfig:"TTS_API_ADDRESS" default:":8001"`
	MetricsAddress string `envconfig:"TTS_API_METRICS_ADDRESS" default:":8080"`
	BaseUrl        string `envconfig:"TTS_API_BASE_URL" default:"http://localhost:8001"`
	LogLevel       string `envconfig:"TTS_API_LOG_LEVEL" default:"info"`
	CorsOrigins    string `envconfig:"TTS_API_CORS_ORIGINS" default:"*"`
	Auth           Auth
}

type pipelineConfig struct {
	PendingCeiling     int           `envconfig:"TTS_API_PENDING_CEILING" default:"100"`
	WorkerPollInterval time.Duration `envconfig:"TTS_API_WORKER_POLL_INTERVAL" default:"1s"`
	JobTimeout         time.Duration `envconfig:"TTS_API_JOB_TIMEOUT" default:"10m"`
	ReaperInterval     time.Duration `envconfig:"TTS_API_REAPER_INTERVAL" default:"1m"`
}

type webhookConfig struct {
	Secret      string        `envconfig:"TTS_API_WEBHOOK_SECRET" default:"your-webhook-secret-key-change-in-production"`
	Timeout     time.Duration `envconfig:"TTS_API_WEBHOOK_TIMEOUT" default:"10s"`
	MaxAttempts int           `envconfig:"TTS_API_WEBHOOK_MAX_ATTEMPTS" default:"3"`
}

type rateLimitConfig struct {
	RequestsPerMinute int `envconfig:"TTS_API_RATE_LIMIT_PER_MINUTE" default:"60"`
	RequestsPerHour   int `envconfig:"TTS_API_RATE_LIMIT_PER_HOUR" default:"1000"`
}

type storageConfig struct {
	Type          string        `envconfig:"TTS_API_STORAGE_TYPE" default:"local"`
	LocalDir      string        `envconfig:"TTS_API_STORAGE_DIR" default:"async_audio"`
	RetentionAge  time.Duration `envconfig:"TTS_API_AUDIO_RETENTION" default:"24h"`
	SweepInterval time.Duration `envconfig:"TTS_API_AUDIO_SWEEP_INTERVAL" default:"1h"`
	S3            s3Config
}

type s3Config struct {
	Endpoint  string `envconfig:"TTS_API_S3_ENDPOINT" default:""`
	Bucket    string `envconfig:"TTS_API_S3_BUCKET" default:"tts-audio"`
	AccessKey string `envconfig:"TTS_API_S3_ACCESS_KEY" default:""`
	SecretKey string `envconfig:"TTS_API_S3_SECRET_KEY" default:""`
	UseSSL    bool   `envconfig:"TTS_API_S3_USE_SSL" default:"true"`
}

type engineConfig struct {
	SupportedLanguages map[string]string `envconfig:"TTS_API_LANGUAGES" default:"oromo:facebook/mms-tts-orm,amharic:facebook/mms-tts-amh"`
	DefaultLanguage    string            `envconfig:"TTS_API_DEFAULT_LANGUAGE" default:"oromo"`
}

type Auth struct {
	AuthenticationType string `envconfig:"TTS_API_AUTH" default:"none"`
	APIKeys            string `envconfig:"TTS_API_KEYS" default:""`
	JWTSecret          string `envconfig:"TTS_API_JWT_SECRET" default:""`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns a fresh config, bypassing the singleton. Used by tests.
func NewDefault() (*Config, error) {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
