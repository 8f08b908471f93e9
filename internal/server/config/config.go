// Package config handles configuration for the server component,
// including defaults, JSON overlay, environment variables and command-line
// flags.
package config

import (
	"errors"
	"os"
	"time"
)

const (
	StorageS3     = "s3"
	StorageMemory = "memory"
)

// Config holds runtime settings for the SheetKeeper server.
//
// Fields:
//   - HTTPAddr: bind address for the HTTP endpoint.
//   - S3*: S3-compatible bucket holding records and the index.
//   - Namespace: key prefix for canonical records and the index.
//   - EncryptionKey: passphrase the record key is derived from. Required.
//   - TokenSecret / EditTokenValidity: HS256 secret and lifetime of edit tokens.
//   - SitePassword / SessionSecret: site-wide sign-in gate; empty password disables it.
//   - SMTP*: login notification relay; empty host disables notifications.
type Config struct {
	HTTPAddr          string
	LogLevel          string
	StorageBackend    string
	S3BaseEndpoint    string
	S3AccessKey       string
	S3SecretKey       string
	S3Bucket          string
	S3Region          string
	S3UsePathStyle    bool
	Namespace         string
	EncryptionKey     string
	TokenSecret       string
	EditTokenValidity time.Duration
	SitePassword      string
	SessionSecret     string
	SecureCookies     bool
	AllowedOrigins    []string
	SMTPHost          string
	SMTPPort          int
	SMTPUser          string
	SMTPPassword      string
	MailFrom          string
	NotificationTo    string
	ExcludeIPs        []string
}

var ErrMissingEncryptionKey = errors.New("encryption key is not configured")

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.LogLevel = "info"
	c.StorageBackend = StorageS3
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.S3AccessKey = "admin"
	c.S3SecretKey = "secretpassword"
	c.S3Bucket = "sheets"
	c.S3Region = "auto"
	c.Namespace = "preciousdays"
	c.TokenSecret = "secretKey"
	c.EditTokenValidity = 24 * time.Hour
	c.SessionSecret = "sessionSecret"
	c.SMTPPort = 465
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.EncryptionKey == "" {
		return ErrMissingEncryptionKey
	}
	if c.StorageBackend != StorageS3 && c.StorageBackend != StorageMemory {
		return errors.New("unknown storage backend " + c.StorageBackend)
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
