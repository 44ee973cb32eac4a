package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/roach88/shelfswap/internal/domain"
)

// Backend names.
const (
	CoverInline = "inline"
	CoverMinio  = "minio"
	CoverGCS    = "gcs"

	NotifyNone     = "none"
	NotifyRabbitMQ = "rabbitmq"
	NotifyPubSub   = "pubsub"
)

// Config is the complete shelfswap configuration.
//
// Both yaml and json tags are set: yaml for the file, json for encoding
// into CUE during validation.
type Config struct {
	Database  string       `yaml:"database" json:"database"`
	LogLevel  string       `yaml:"log_level" json:"log_level"`
	SeedUsers []SeedUser   `yaml:"seed_users" json:"seed_users"`
	Cover     CoverConfig  `yaml:"cover" json:"cover"`
	Notify    NotifyConfig `yaml:"notify" json:"notify"`
}

// SeedUser is a user present when no snapshot has been saved yet.
type SeedUser struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Email  string `yaml:"email" json:"email"`
	Secret string `yaml:"secret" json:"secret"`
	Phone  string `yaml:"phone" json:"phone"`
	Role   string `yaml:"role" json:"role"`
}

// CoverConfig selects where uploaded covers are stored.
type CoverConfig struct {
	Backend       string      `yaml:"backend" json:"backend"`
	MaxBytes      int64       `yaml:"max_bytes" json:"max_bytes"`
	PublicBaseURL string      `yaml:"public_base_url" json:"public_base_url"`
	Minio         MinioConfig `yaml:"minio" json:"minio"`
	GCS           GCSConfig   `yaml:"gcs" json:"gcs"`
}

// MinioConfig holds MinIO connection settings.
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	AccessKey string `yaml:"access_key" json:"access_key"`
	SecretKey string `yaml:"secret_key" json:"secret_key"`
	Bucket    string `yaml:"bucket" json:"bucket"`
	UseSSL    bool   `yaml:"use_ssl" json:"use_ssl"`
}

// GCSConfig holds Google Cloud Storage settings.
type GCSConfig struct {
	Bucket          string `yaml:"bucket" json:"bucket"`
	ProjectID       string `yaml:"project_id" json:"project_id"`
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`
}

// NotifyConfig selects where domain events are published.
type NotifyConfig struct {
	Backend  string         `yaml:"backend" json:"backend"`
	Channel  string         `yaml:"channel" json:"channel"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq" json:"rabbitmq"`
	PubSub   PubSubConfig   `yaml:"pubsub" json:"pubsub"`
}

// RabbitMQConfig holds RabbitMQ connection settings.
type RabbitMQConfig struct {
	URL             string `yaml:"url" json:"url"`
	QueueDurable    bool   `yaml:"queue_durable" json:"queue_durable"`
	QueueAutoDelete bool   `yaml:"queue_auto_delete" json:"queue_auto_delete"`
}

// PubSubConfig holds Google Pub/Sub settings.
type PubSubConfig struct {
	ProjectID       string `yaml:"project_id" json:"project_id"`
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`
}

// Default returns the built-in configuration.
func Default() Config {
	seeds := domain.DefaultSeedUsers()
	users := make([]SeedUser, len(seeds))
	for i, u := range seeds {
		users[i] = SeedUser{
			ID:     u.ID,
			Name:   u.Name,
			Email:  u.Email,
			Secret: u.Secret,
			Phone:  u.Phone,
			Role:   string(u.Role),
		}
	}

	return Config{
		Database:  "shelfswap.db",
		LogLevel:  "info",
		SeedUsers: users,
		Cover: CoverConfig{
			Backend:  CoverInline,
			MaxBytes: 2 << 20,
		},
		Notify: NotifyConfig{
			Backend: NotifyNone,
			Channel: "shelfswap.events",
			RabbitMQ: RabbitMQConfig{
				QueueDurable: true,
			},
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is non-empty), .env and the process environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}

	if errs := Validate(cfg); len(errs) > 0 {
		return Config{}, &InvalidError{Errors: errs}
	}

	return cfg, nil
}

// decodeYAML overlays data onto cfg. Unknown keys are rejected.
func decodeYAML(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv overrides cfg from environment variables found by lookup.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("env %s: %w", key, err)
		}
		*dst = b
		return nil
	}

	str("SHELFSWAP_DB", &cfg.Database)
	str("SHELFSWAP_LOG_LEVEL", &cfg.LogLevel)

	str("SHELFSWAP_COVER_BACKEND", &cfg.Cover.Backend)
	str("SHELFSWAP_COVER_BASE_URL", &cfg.Cover.PublicBaseURL)
	if v, ok := lookup("SHELFSWAP_COVER_MAX_BYTES"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("env SHELFSWAP_COVER_MAX_BYTES: %w", err)
		}
		cfg.Cover.MaxBytes = n
	}
	str("MINIO_ENDPOINT", &cfg.Cover.Minio.Endpoint)
	str("MINIO_ACCESS_KEY", &cfg.Cover.Minio.AccessKey)
	str("MINIO_SECRET_KEY", &cfg.Cover.Minio.SecretKey)
	str("MINIO_BUCKET", &cfg.Cover.Minio.Bucket)
	if err := boolean("MINIO_USE_SSL", &cfg.Cover.Minio.UseSSL); err != nil {
		return err
	}
	str("GCS_BUCKET", &cfg.Cover.GCS.Bucket)
	str("GCS_PROJECT_ID", &cfg.Cover.GCS.ProjectID)
	str("GOOGLE_APPLICATION_CREDENTIALS", &cfg.Cover.GCS.CredentialsFile)

	str("SHELFSWAP_NOTIFY_BACKEND", &cfg.Notify.Backend)
	str("SHELFSWAP_NOTIFY_CHANNEL", &cfg.Notify.Channel)
	str("RABBITMQ_URL", &cfg.Notify.RabbitMQ.URL)
	if err := boolean("RABBITMQ_QUEUE_DURABLE", &cfg.Notify.RabbitMQ.QueueDurable); err != nil {
		return err
	}
	str("PUBSUB_PROJECT_ID", &cfg.Notify.PubSub.ProjectID)
	str("GOOGLE_APPLICATION_CREDENTIALS", &cfg.Notify.PubSub.CredentialsFile)

	return nil
}

// Users converts the seed users to domain users.
func (c Config) Users() []domain.User {
	out := make([]domain.User, len(c.SeedUsers))
	for i, s := range c.SeedUsers {
		out[i] = domain.User{
			ID:     s.ID,
			Name:   s.Name,
			Email:  s.Email,
			Secret: s.Secret,
			Phone:  s.Phone,
			Role:   domain.Role(s.Role),
		}
	}
	return out
}
