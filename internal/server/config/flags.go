package config

import (
	"flag"
	"fmt"

	"github.com/dmitrijs2005/sheetkeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP bind address (e.g., ":8080")
//	-l string     log level
//	-e string     S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-u string     S3 access key
//	-p string     S3 secret key
//	-b string     S3 bucket name
//	-g string     S3 region
//	-n string     key namespace
//	-k string     record encryption passphrase
//	-s string     edit token HMAC secret
//	-t duration   edit token validity (e.g., "24h")
//
// Args are first filtered with flagx.FilterArgs so flags owned by other
// components do not cause parse errors.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-l", "-e", "-u", "-p", "-b", "-g", "-n", "-k", "-s", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.Namespace, "n", config.Namespace, "key namespace")

	fs.StringVar(&config.EncryptionKey, "k", config.EncryptionKey, "record encryption passphrase")
	fs.StringVar(&config.TokenSecret, "s", config.TokenSecret, "edit token secret")
	fs.DurationVar(&config.EditTokenValidity, "t", config.EditTokenValidity, "edit token validity")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
