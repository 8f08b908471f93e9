package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dmitrijs2005/sheetkeeper/internal/flagx"
)

// envConfig holds raw environment values. Unset variables stay nil so they
// do not clobber earlier layers.
type envConfig struct {
	HTTPAddr          *string        `env:"SHEET_HTTP_ADDR"`
	LogLevel          *string        `env:"SHEET_LOG_LEVEL"`
	StorageBackend    *string        `env:"SHEET_STORAGE"`
	S3BaseEndpoint    *string        `env:"S3_ENDPOINT"`
	S3AccessKey       *string        `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey       *string        `env:"S3_SECRET_ACCESS_KEY"`
	S3Bucket          *string        `env:"S3_BUCKET_NAME"`
	S3Region          *string        `env:"S3_REGION"`
	S3UsePathStyle    *bool          `env:"S3_USE_PATH_STYLE"`
	Namespace         *string        `env:"SHEET_NAMESPACE"`
	EncryptionKey     *string        `env:"ENCRYPTION_KEY"`
	TokenSecret       *string        `env:"TOKEN_SECRET"`
	EditTokenValidity *time.Duration `env:"EDIT_TOKEN_VALIDITY"`
	SitePassword      *string        `env:"SITE_PASSWORD"`
	SessionSecret     *string        `env:"SESSION_SECRET"`
	SecureCookies     *bool          `env:"SECURE_COOKIES"`
	AllowedOrigins    []string       `env:"ALLOWED_ORIGINS" envSeparator:","`
	SMTPHost          *string        `env:"EMAIL_SERVER_HOST"`
	SMTPPort          *int           `env:"EMAIL_SERVER_PORT"`
	SMTPUser          *string        `env:"EMAIL_SERVER_USER"`
	SMTPPassword      *string        `env:"EMAIL_SERVER_PASSWORD"`
	MailFrom          *string        `env:"EMAIL_FROM"`
	NotificationTo    *string        `env:"NOTIFICATION_TO"`
	ExcludeIPs        *string        `env:"EXCLUDE_IPS"`
}

func parseEnv(config *Config) error {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	set(&config.HTTPAddr, raw.HTTPAddr)
	set(&config.LogLevel, raw.LogLevel)
	set(&config.StorageBackend, raw.StorageBackend)
	set(&config.S3BaseEndpoint, raw.S3BaseEndpoint)
	set(&config.S3AccessKey, raw.S3AccessKey)
	set(&config.S3SecretKey, raw.S3SecretKey)
	set(&config.S3Bucket, raw.S3Bucket)
	set(&config.S3Region, raw.S3Region)
	set(&config.S3UsePathStyle, raw.S3UsePathStyle)
	set(&config.Namespace, raw.Namespace)
	set(&config.EncryptionKey, raw.EncryptionKey)
	set(&config.TokenSecret, raw.TokenSecret)
	set(&config.EditTokenValidity, raw.EditTokenValidity)
	set(&config.SitePassword, raw.SitePassword)
	set(&config.SessionSecret, raw.SessionSecret)
	set(&config.SecureCookies, raw.SecureCookies)
	if raw.AllowedOrigins != nil {
		config.AllowedOrigins = raw.AllowedOrigins
	}
	set(&config.SMTPHost, raw.SMTPHost)
	set(&config.SMTPPort, raw.SMTPPort)
	set(&config.SMTPUser, raw.SMTPUser)
	set(&config.SMTPPassword, raw.SMTPPassword)
	set(&config.MailFrom, raw.MailFrom)
	set(&config.NotificationTo, raw.NotificationTo)
	if raw.ExcludeIPs != nil {
		config.ExcludeIPs = flagx.SplitList(*raw.ExcludeIPs)
	}
	return nil
}
