// Package config handles configuration for the server component: defaults,
// an optional JSON or YAML file, environment variables (with .env support)
// and command-line flags, applied in that order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/dmitrijs2005/thoughtboard/internal/flagx"
)

// MinSecretKeyBytes is the shortest accepted token signing secret.
const MinSecretKeyBytes = 32

// Config holds runtime settings for the Thought Board server.
//
// Fields:
//   - HTTPAddr / GRPCAddr: bind addresses of the public endpoints.
//   - DatabaseDSN: PostgreSQL DSN (pgx). When empty it is assembled from the
//     DB* parts, which require DBPassword.
//   - SecretKey: HMAC secret for signing access tokens (HS256). Never logged.
//   - AccessTokenValidityDuration: default access token lifetime.
//   - S3*: object storage for thought exports. An empty S3Bucket disables it.
type Config struct {
	HTTPAddr string
	GRPCAddr string

	DatabaseDSN string
	DBUser      string
	DBPassword  string
	DBHost      string
	DBPort      string
	DBName      string

	SecretKey                   string
	AccessTokenValidityDuration time.Duration

	AdminUsername string
	CORSOrigins   []string

	LogLevel  string
	LogFormat string

	RedisAddr        string
	LoginMaxFailures int
	LoginWindow      time.Duration

	S3RootUser     string
	S3RootPassword string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string

	Argon2MemoryKiB   uint32
	Argon2Iterations  uint32
	Argon2Parallelism uint8

	ShutdownTimeout time.Duration
}

// LoadDefaults populates Config with development defaults. The secret key and
// the database password have no default and must be supplied.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8000"
	c.GRPCAddr = ":50051"
	c.DBUser = "postgres"
	c.DBHost = "localhost"
	c.DBPort = "5432"
	c.DBName = "thoughtboard"
	c.AccessTokenValidityDuration = 30 * time.Minute
	c.CORSOrigins = []string{
		"https://klimentsi.live",
		"https://api.klimentsi.live",
		"http://localhost",
		"http://localhost:8080",
	}
	c.LogLevel = "info"
	c.LogFormat = "json"
	c.LoginMaxFailures = 5
	c.LoginWindow = 15 * time.Minute
	c.S3Region = "us-east-1"
	c.Argon2MemoryKiB = 64 * 1024
	c.Argon2Iterations = 3
	c.Argon2Parallelism = 2
	c.ShutdownTimeout = 10 * time.Second
}

// LoadConfig builds a Config from os.Args and the environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load applies defaults, then the config file named by -c/-config (or the
// CONFIG variable), then environment variables, then flags from args. The
// result is validated.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseFile(cfg, flagx.ConfigFile(args)); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	cfg.resolveDSN()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveDSN assembles DatabaseDSN from its parts when it was not given
// directly and a password is available.
func (c *Config) resolveDSN() {
	if c.DatabaseDSN != "" || c.DBPassword == "" {
		return
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	c.DatabaseDSN = u.String()
}

// Validate reports the first setting that would prevent a safe start.
func (c *Config) Validate() error {
	var errs []error

	switch {
	case c.SecretKey == "":
		errs = append(errs, errors.New("SECRET_KEY is required"))
	case len(c.SecretKey) < MinSecretKeyBytes:
		errs = append(errs, fmt.Errorf("SECRET_KEY must be at least %d bytes", MinSecretKeyBytes))
	}

	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database is not configured: set DATABASE_DSN or DB_PASSWORD"))
	}
	if c.AccessTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("access token lifetime must be positive"))
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http address is required"))
	}
	if c.LoginMaxFailures <= 0 || c.LoginWindow <= 0 {
		errs = append(errs, errors.New("login throttling limits must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// S3Enabled reports whether thought exports can be stored.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

// LogValue implements slog.LogValuer so secrets never reach the logs.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("http_addr", c.HTTPAddr),
		slog.String("grpc_addr", c.GRPCAddr),
		slog.String("database_dsn", redactDSN(c.DatabaseDSN)),
		slog.String("secret_key", redact(c.SecretKey)),
		slog.Duration("access_token_ttl", c.AccessTokenValidityDuration),
		slog.Any("cors_origins", c.CORSOrigins),
		slog.String("log_level", c.LogLevel),
		slog.String("redis_addr", c.RedisAddr),
		slog.Int("login_max_failures", c.LoginMaxFailures),
		slog.Duration("login_window", c.LoginWindow),
		slog.String("s3_bucket", c.S3Bucket),
		slog.String("s3_endpoint", c.S3BaseEndpoint),
		slog.String("s3_root_password", redact(c.S3RootPassword)),
	)
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "[REDACTED]"
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return "[REDACTED]"
	}
	return u.Redacted()
}
