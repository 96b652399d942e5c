// Package config loads process settings from a .env file, the environment
// and command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/vncsmyrnk/meetpoll/internal/logging"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	HTTPAddr        string
	Store           string
	Postgres        PostgresConfig
	SMTP            SMTPConfig
	BaseURL         string
	MailTimeout     time.Duration
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

type PostgresConfig struct {
	// URL, when set, wins over the individual fields.
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DB       string
	SSLMode  string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether mails go to a relay rather than the log.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

// DSN builds the connection string handed to lib/pq.
func (c PostgresConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.DB,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

func defaults() *Config {
	return &Config{
		HTTPAddr: "0.0.0.0:8080",
		Store:    StorePostgres,
		Postgres: PostgresConfig{
			Host:    "localhost",
			Port:    "5432",
			SSLMode: "disable",
		},
		SMTP: SMTPConfig{
			Port: 587,
		},
		BaseURL:         "http://localhost:8080",
		MailTimeout:     30 * time.Second,
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: 30 * time.Second,
	}
}

// Load reads envFile (".env" when empty; a missing file is fine), then the environment, then
// the flags in args parsed through flagSet. Every invalid setting is
// reported in the returned error. pflag.ErrHelp is returned untouched.
func Load(envFile string, flagSet *pflag.FlagSet, args []string) (*Config, error) {
	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := defaults()
	var errs []error
	cfg.readEnv(os.LookupEnv, &errs)

	if flagSet != nil {
		cfg.AddFlags(flagSet)
		if err := flagSet.Parse(args); err != nil {
			return nil, err
		}
	}

	errs = append(errs, cfg.validate()...)
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// AddFlags registers the overridable settings, using the current values as
// defaults.
func (c *Config) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.HTTPAddr, "http-addr", c.HTTPAddr, "address the HTTP server listens on")
	flagSet.StringVar(&c.Store, "store", c.Store, "storage backend: postgres or memory")
	flagSet.StringVar(&c.Postgres.URL, "database-url", c.Postgres.URL, "postgres connection url")
	flagSet.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn or error")
	flagSet.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log format: json or text")
}

func (c *Config) readEnv(lookup func(string) (string, bool), errs *[]error) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	duration := func(key string, dst *time.Duration) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("%s: %q is not a duration", key, v))
			return
		}
		*dst = d
	}

	str("HTTP_ADDR", &c.HTTPAddr)
	str("STORE", &c.Store)

	str("DATABASE_URL", &c.Postgres.URL)
	str("POSTGRES_HOST", &c.Postgres.Host)
	str("POSTGRES_PORT", &c.Postgres.Port)
	str("POSTGRES_USER", &c.Postgres.User)
	str("POSTGRES_PASSWORD", &c.Postgres.Password)
	str("POSTGRES_DB", &c.Postgres.DB)
	str("POSTGRES_SSLMODE", &c.Postgres.SSLMode)

	str("SMTP_HOST", &c.SMTP.Host)
	if v, ok := lookup("SMTP_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("SMTP_PORT: %q is not a number", v))
		} else {
			c.SMTP.Port = port
		}
	}
	str("SMTP_USERNAME", &c.SMTP.Username)
	str("SMTP_PASSWORD", &c.SMTP.Password)
	str("MAIL_FROM", &c.SMTP.From)
	str("APP_BASE_URL", &c.BaseURL)
	duration("MAIL_TIMEOUT", &c.MailTimeout)

	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	duration("SHUTDOWN_TIMEOUT", &c.ShutdownTimeout)
}

func (c *Config) validate() []error {
	var errs []error

	switch c.Store {
	case StorePostgres:
		if c.Postgres.URL == "" && (c.Postgres.User == "" || c.Postgres.DB == "") {
			errs = append(errs, errors.New("POSTGRES_USER and POSTGRES_DB are required unless DATABASE_URL is set"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE: unknown store %q", c.Store))
	}

	if c.SMTP.Enabled() {
		if c.SMTP.From == "" {
			errs = append(errs, errors.New("MAIL_FROM is required when SMTP_HOST is set"))
		}
		if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
			errs = append(errs, fmt.Errorf("SMTP_PORT: %d is out of range", c.SMTP.Port))
		}
	}
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil || !strings.HasPrefix(c.BaseURL, "http") {
		errs = append(errs, fmt.Errorf("APP_BASE_URL: %q is not an http url", c.BaseURL))
	}
	if c.MailTimeout <= 0 {
		errs = append(errs, errors.New("MAIL_TIMEOUT must be positive"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT: unknown format %q", c.LogFormat))
	}

	return errs
}
