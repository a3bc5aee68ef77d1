// Package config reads settings from the environment and an optional .env
// file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"bugmaschine/booru-mux/export"
	"bugmaschine/booru-mux/logging"
	"bugmaschine/booru-mux/schema"
	"bugmaschine/booru-mux/sink"

	"github.com/joho/godotenv"
)

type Gateway struct {
	Port      string
	PublicURL string        // base of the signed proxy links, empty disables rewriting
	LinkTTL   time.Duration // how long a proxy link stays valid
}

type Config struct {
	Debug     bool
	LogDir    string
	UserAgent string
	Catalogue string // path to a YAML catalogue, empty for the built-in one
	AssetDir  string

	Gateway Gateway
	S3      sink.S3Config
	DB      export.Config
}

// Load reads .env (if present) and then the environment. Variables that are
// already set win over the file.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
		logging.Debug("No .env file found, using the environment only")
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	c := &Config{
		LogDir:    getenv("LOG_DIR", "."),
		UserAgent: os.Getenv("BOORU_USER_AGENT"),
		Catalogue: os.Getenv("BOORU_CATALOGUE"),
		AssetDir:  os.Getenv("ASSET_DIR"),
		Gateway: Gateway{
			Port:      getenv("GATEWAY_PORT", "8080"),
			PublicURL: os.Getenv("GATEWAY_PUBLIC_URL"),
		},
		S3: sink.S3Config{
			Bucket:    os.Getenv("S3_BUCKET"),
			Region:    os.Getenv("S3_REGION"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
		},
		DB: export.Config{
			Host:     os.Getenv("DB_HOST"),
			Name:     os.Getenv("DB_NAME"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASS"),
		},
	}

	var errs []error
	var err error
	if c.Debug, err = parseBool("DEBUG", false); err != nil {
		errs = append(errs, err)
	}
	if c.DB.Port, err = parseInt("DB_PORT", 5432); err != nil {
		errs = append(errs, err)
	}
	if c.Gateway.LinkTTL, err = parseDuration("GATEWAY_LINK_TTL", time.Hour); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}

// S3Enabled reports whether an S3 bucket is configured.
func (c *Config) S3Enabled() bool {
	return c.S3.Bucket != ""
}

func (c *Config) DBEnabled() bool {
	return c.DB.Host != ""
}

// Sources loads the configured catalogue.
func (c *Config) Sources() (*schema.Catalogue, error) {
	if c.Catalogue == "" {
		return schema.Builtin()
	}
	return schema.LoadCatalogue(c.Catalogue)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %q is not a boolean", key, v)
	}
	return b, nil
}

func parseInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, v)
	}
	return i, nil
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: %q is not a positive duration", key, v)
	}
	return d, nil
}
