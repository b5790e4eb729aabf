package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StorageDynamo   = "dynamo"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	PushFCM  = "fcm"
	PushSNS  = "sns"
	PushNone = "none"

	VerifierHTTP = "http"
	VerifierJWT  = "jwt"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort  string `env:"APP_PORT" envDefault:"3000"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"dynamo"`

	AWSRegion      string       `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpointURL string       `env:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string       `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string       `env:"AWS_SECRET_ACCESS_KEY"`
	DynamoTables   DynamoTables `envPrefix:"DYNAMO_TABLE_"`

	DatabaseURL string `env:"DATABASE_URL"`

	PushProvider       string        `env:"PUSH_PROVIDER" envDefault:"fcm"`
	FCMCredentialsFile string        `env:"FCM_CREDENTIALS_FILE"`
	FCMProjectID       string        `env:"FCM_PROJECT_ID"`
	SNSRegion          string        `env:"SNS_REGION" envDefault:"us-east-1"`
	PushTimeout        time.Duration `env:"PUSH_TIMEOUT" envDefault:"5s"`
	FanoutWorkers      int           `env:"FANOUT_WORKERS" envDefault:"8"`

	NotificationTimezone string `env:"NOTIFICATION_TIMEZONE" envDefault:"America/Bogota"`

	UserServiceURL          string        `env:"USER_SERVICE_URL"`
	InvitationsServiceURL   string        `env:"INVITATIONS_SERVICE_URL"`
	InvitationFilterEnabled bool          `env:"INVITATION_FILTER_ENABLED" envDefault:"false"`
	UpstreamTimeout         time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"5s"`

	SessionVerifier   string        `env:"SESSION_VERIFIER" envDefault:"http"`
	JWTPublicKeyPath  string        `env:"JWT_PUBLIC_KEY_PATH" envDefault:"./public_key.pem"`
	JWTPrivateKeyPath string        `env:"JWT_PRIVATE_KEY_PATH"`
	JWTExpiry         time.Duration `env:"JWT_EXPIRY" envDefault:"168h"`

	InternalAPIKey string   `env:"INTERNAL_API_KEY"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","` // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Notifications     string `env:"NOTIFICATIONS" envDefault:"notifications"`
	NotificationTypes string `env:"NOTIFICATION_TYPES" envDefault:"notification_types"`
	Devices           string `env:"DEVICES" envDefault:"devices"`
	Counters          string `env:"COUNTERS" envDefault:"counters"`
}

// Load reads all configuration from environment variables and checks the
// values that select an implementation.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case StorageDynamo, StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s storage driver", StoragePostgres)
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	switch c.PushProvider {
	case PushFCM, PushSNS, PushNone:
	default:
		return fmt.Errorf("unknown PUSH_PROVIDER %q", c.PushProvider)
	}
	switch c.SessionVerifier {
	case VerifierHTTP, VerifierJWT:
	default:
		return fmt.Errorf("unknown SESSION_VERIFIER %q", c.SessionVerifier)
	}
	if c.InvitationFilterEnabled && c.InvitationsServiceURL == "" {
		return fmt.Errorf("INVITATIONS_SERVICE_URL is required when INVITATION_FILTER_ENABLED is set")
	}
	return nil
}

// Location returns the zone notification dates are stamped in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.NotificationTimezone)
	if err != nil {
		return nil, fmt.Errorf("load NOTIFICATION_TIMEZONE: %w", err)
	}
	return loc, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
