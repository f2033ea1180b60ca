package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/driveshare/marketing-dispatch/internal/domain"
	"github.com/hashicorp/go-multierror"
)

type Config struct {
	AppPort        string `env:"APP_PORT" envDefault:"8080"`
	MetricsAddress string `env:"METRICS_ADDRESS" envDefault:":9090"`
	APIKey         string `env:"MARKETING_API_KEY"`

	DBHost          string `env:"DB_HOST" envDefault:"localhost"`
	DBPort          string `env:"DB_PORT" envDefault:"5432"`
	DBUser          string `env:"DB_USER" envDefault:"postgres"`
	DBPassword      string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName          string `env:"DB_NAME" envDefault:"carrental"`
	DBSSLMode       string `env:"DB_SSLMODE" envDefault:"disable"`
	DBMigrationsDir string `env:"DB_MIGRATIONS_DIR" envDefault:"db/migrations"`

	EmailProvider     string        `env:"EMAIL_PROVIDER" envDefault:"smtp"`
	EmailDailyLimit   int           `env:"EMAIL_DAILY_LIMIT" envDefault:"100"`
	EmailFromAddress  string        `env:"EMAIL_FROM_ADDRESS"`
	EmailFromName     string        `env:"EMAIL_FROM_NAME" envDefault:"DriveShare"`
	EmailReplyTo      string        `env:"EMAIL_REPLY_TO"`
	EmailSendTimeout  time.Duration `env:"EMAIL_SEND_TIMEOUT" envDefault:"10s"`
	CampaignTimezone  string        `env:"CAMPAIGN_TIMEZONE" envDefault:"UTC"`
	CampaignSubject   string        `env:"CAMPAIGN_SUBJECT"`
	CampaignTemplate  string        `env:"CAMPAIGN_TEMPLATE_FILE"`
	CampaignSchedule  time.Duration `env:"CAMPAIGN_SCHEDULE_INTERVAL" envDefault:"0s"`
	PublicBaseURL     string        `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	LandingURL        string        `env:"LANDING_URL" envDefault:"http://localhost:3000"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	SendGridAPIKey  string `env:"SENDGRID_API_KEY"`
	SendGridBaseURL string `env:"SENDGRID_BASE_URL" envDefault:"https://api.sendgrid.com/v3"`

	SESRegion    string `env:"AWS_SES_REGION" envDefault:"us-east-1"`
	SESAccessKey string `env:"AWS_SES_ACCESS_KEY"`
	SESSecretKey string `env:"AWS_SES_SECRET_KEY"`

	TrackingEventsEnabled  bool   `env:"TRACKING_EVENTS_ENABLED" envDefault:"false"`
	KafkaBrokers           string `env:"KAFKA_BROKERS" envDefault:"kafka:9092"`
	KafkaClientID          string `env:"KAFKA_CLIENT_ID" envDefault:"marketing-dispatch"`
	KafkaGroupID           string `env:"KAFKA_GROUP_ID" envDefault:"marketing-tracking"`
	KafkaTopicPartitions   int    `env:"KAFKA_TOPIC_PARTITIONS" envDefault:"3"`
	KafkaReplicationFactor int    `env:"KAFKA_REPLICATION_FACTOR" envDefault:"1"`
}

// Load reads the configuration from the environment and validates it. The
// returned error is a *domain.ConfigurationError listing every problem found.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, &domain.ConfigurationError{Err: fmt.Errorf("unable to parse configuration from environment: %w", err)}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var result *multierror.Error

	if c.APIKey == "" {
		result = multierror.Append(result, errors.New("MARKETING_API_KEY is not set"))
	}
	if c.EmailDailyLimit <= 0 {
		result = multierror.Append(result, fmt.Errorf("EMAIL_DAILY_LIMIT must be a positive integer, got %d", c.EmailDailyLimit))
	}
	if c.EmailFromAddress == "" {
		result = multierror.Append(result, errors.New("EMAIL_FROM_ADDRESS is not set"))
	}
	if c.EmailSendTimeout <= 0 {
		result = multierror.Append(result, errors.New("EMAIL_SEND_TIMEOUT must be positive"))
	}
	if _, err := time.LoadLocation(c.CampaignTimezone); err != nil {
		result = multierror.Append(result, fmt.Errorf("CAMPAIGN_TIMEZONE is invalid: %w", err))
	}
	if c.CampaignSchedule < 0 {
		result = multierror.Append(result, errors.New("CAMPAIGN_SCHEDULE_INTERVAL must not be negative"))
	}
	for name, raw := range map[string]string{"PUBLIC_BASE_URL": c.PublicBaseURL, "LANDING_URL": c.LandingURL} {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			result = multierror.Append(result, fmt.Errorf("%s must be an absolute URL, got %q", name, raw))
		}
	}

	provider := c.Provider()
	switch provider {
	case domain.ProviderSMTP:
		if c.SMTPHost == "" {
			result = multierror.Append(result, errors.New("SMTP_HOST is required for the smtp provider"))
		}
		if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
			result = multierror.Append(result, fmt.Errorf("SMTP_PORT is out of range: %d", c.SMTPPort))
		}
		if (c.SMTPUsername == "") != (c.SMTPPassword == "") {
			result = multierror.Append(result, errors.New("SMTP_USERNAME and SMTP_PASSWORD must be set together"))
		}
	case domain.ProviderSendGrid:
		if c.SendGridAPIKey == "" {
			result = multierror.Append(result, errors.New("SENDGRID_API_KEY is required for the sendgrid provider"))
		}
	case domain.ProviderSES:
		if c.SESRegion == "" {
			result = multierror.Append(result, errors.New("AWS_SES_REGION is required for the ses provider"))
		}
		if (c.SESAccessKey == "") != (c.SESSecretKey == "") {
			result = multierror.Append(result, errors.New("AWS_SES_ACCESS_KEY and AWS_SES_SECRET_KEY must be set together"))
		}
	case domain.ProviderLog:
	default:
		result = multierror.Append(result, fmt.Errorf("%w: %q", domain.ErrUnknownProvider, c.EmailProvider))
	}

	if c.TrackingEventsEnabled && len(c.Brokers()) == 0 {
		result = multierror.Append(result, errors.New("KAFKA_BROKERS is required when TRACKING_EVENTS_ENABLED is true"))
	}

	if err := result.ErrorOrNil(); err != nil {
		return &domain.ConfigurationError{Err: err}
	}
	return nil
}

func (c *Config) Provider() domain.Provider {
	return domain.Provider(strings.ToLower(strings.TrimSpace(c.EmailProvider)))
}

func (c *Config) DailyLimit() int {
	return c.EmailDailyLimit
}

// Location falls back to UTC; Validate rejects unknown zones before this is used.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.CampaignTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) DatabaseURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	u := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + c.DBSSLMode,
	}
	return u.String()
}

func (c *Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func (c *Config) TopicPartitions() int {
	if c.KafkaTopicPartitions <= 0 {
		return 3
	}
	return c.KafkaTopicPartitions
}

func (c *Config) ReplicationFactor() int16 {
	if c.KafkaReplicationFactor <= 0 {
		return 1
	}
	return int16(c.KafkaReplicationFactor)
}
