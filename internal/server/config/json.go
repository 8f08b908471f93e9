package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/sheetkeeper/internal/flagx"
	"github.com/dmitrijs2005/sheetkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Absent keys
// leave the current value untouched, which is why every field is a pointer.
// Durations accept "24h" style strings or integer nanoseconds.
type JsonConfig struct {
	HTTPAddr          *string         `json:"http_addr"`
	LogLevel          *string         `json:"log_level"`
	StorageBackend    *string         `json:"storage_backend"`
	S3BaseEndpoint    *string         `json:"s3_base_endpoint"`
	S3AccessKey       *string         `json:"s3_access_key"`
	S3SecretKey       *string         `json:"s3_secret_key"`
	S3Bucket          *string         `json:"s3_bucket"`
	S3Region          *string         `json:"s3_region"`
	S3UsePathStyle    *bool           `json:"s3_use_path_style"`
	Namespace         *string         `json:"namespace"`
	EncryptionKey     *string         `json:"encryption_key"`
	TokenSecret       *string         `json:"token_secret"`
	EditTokenValidity *timex.Duration `json:"edit_token_validity"`
	SitePassword      *string         `json:"site_password"`
	SessionSecret     *string         `json:"session_secret"`
	SecureCookies     *bool           `json:"secure_cookies"`
	AllowedOrigins    []string        `json:"allowed_origins"`
	SMTPHost          *string         `json:"smtp_host"`
	SMTPPort          *int            `json:"smtp_port"`
	SMTPUser          *string         `json:"smtp_user"`
	SMTPPassword      *string         `json:"smtp_password"`
	MailFrom          *string         `json:"mail_from"`
	NotificationTo    *string         `json:"notification_to"`
	ExcludeIPs        []string        `json:"exclude_ips"`
}

// parseJson overlays the JSON file named by -c/-config (or $SHEET_CONFIG)
// onto config. Without a path nothing is loaded.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	c.apply(config)
	return nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (c *JsonConfig) apply(config *Config) {
	set(&config.HTTPAddr, c.HTTPAddr)
	set(&config.LogLevel, c.LogLevel)
	set(&config.StorageBackend, c.StorageBackend)
	set(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	set(&config.S3AccessKey, c.S3AccessKey)
	set(&config.S3SecretKey, c.S3SecretKey)
	set(&config.S3Bucket, c.S3Bucket)
	set(&config.S3Region, c.S3Region)
	set(&config.S3UsePathStyle, c.S3UsePathStyle)
	set(&config.Namespace, c.Namespace)
	set(&config.EncryptionKey, c.EncryptionKey)
	set(&config.TokenSecret, c.TokenSecret)
	if c.EditTokenValidity != nil {
		config.EditTokenValidity = c.EditTokenValidity.Duration
	}
	set(&config.SitePassword, c.SitePassword)
	set(&config.SessionSecret, c.SessionSecret)
	set(&config.SecureCookies, c.SecureCookies)
	if c.AllowedOrigins != nil {
		config.AllowedOrigins = c.AllowedOrigins
	}
	set(&config.SMTPHost, c.SMTPHost)
	set(&config.SMTPPort, c.SMTPPort)
	set(&config.SMTPUser, c.SMTPUser)
	set(&config.SMTPPassword, c.SMTPPassword)
	set(&config.MailFrom, c.MailFrom)
	set(&config.NotificationTo, c.NotificationTo)
	if c.ExcludeIPs != nil {
		config.ExcludeIPs = c.ExcludeIPs
	}
}
