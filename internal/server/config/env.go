package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names understood by parseEnv.
const (
	EnvHTTPAddr          = "HTTP_ADDR"
	EnvGRPCAddr          = "GRPC_ADDR"
	EnvDatabaseDSN       = "DATABASE_DSN"
	EnvDBUser            = "DB_USER"
	EnvDBPassword        = "DB_PASSWORD"
	EnvDBHost            = "DB_HOST"
	EnvDBPort            = "DB_PORT"
	EnvDBName            = "DB_NAME"
	EnvSecretKey         = "SECRET_KEY"
	EnvTokenMinutes      = "ACCESS_TOKEN_EXPIRE_MINUTES"
	EnvAdminUsername     = "ADMIN_USERNAME"
	EnvCORSOrigins       = "CORS_ORIGINS"
	EnvLogLevel          = "LOG_LEVEL"
	EnvLogFormat         = "LOG_FORMAT"
	EnvRedisAddr         = "REDIS_ADDR"
	EnvLoginMaxFailures  = "LOGIN_MAX_FAILURES"
	EnvLoginWindow       = "LOGIN_WINDOW"
	EnvS3RootUser        = "S3_ROOT_USER"
	EnvS3RootPassword    = "S3_ROOT_PASSWORD"
	EnvS3Bucket          = "S3_BUCKET"
	EnvS3Region          = "S3_REGION"
	EnvS3BaseEndpoint    = "S3_ENDPOINT"
	EnvArgon2MemoryKiB   = "ARGON2_MEMORY_KIB"
	EnvArgon2Iterations  = "ARGON2_ITERATIONS"
	EnvArgon2Parallelism = "ARGON2_PARALLELISM"
)

// dotEnvFiles are loaded before reading the environment. Variables already
// set in the process win over the files.
var dotEnvFiles = []string{".env"}

// parseEnv overlays environment variables onto config. A missing .env file is
// not an error; a variable that cannot be parsed is.
func parseEnv(config *Config) error {
	for _, f := range dotEnvFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return fmt.Errorf("load %s: %w", f, err)
			}
		}
	}

	envString(&config.HTTPAddr, EnvHTTPAddr)
	envString(&config.GRPCAddr, EnvGRPCAddr)
	envString(&config.DatabaseDSN, EnvDatabaseDSN)
	envString(&config.DBUser, EnvDBUser)
	envString(&config.DBPassword, EnvDBPassword)
	envString(&config.DBHost, EnvDBHost)
	envString(&config.DBPort, EnvDBPort)
	envString(&config.DBName, EnvDBName)
	envString(&config.SecretKey, EnvSecretKey)
	envString(&config.AdminUsername, EnvAdminUsername)
	envString(&config.LogLevel, EnvLogLevel)
	envString(&config.LogFormat, EnvLogFormat)
	envString(&config.RedisAddr, EnvRedisAddr)
	envString(&config.S3RootUser, EnvS3RootUser)
	envString(&config.S3RootPassword, EnvS3RootPassword)
	envString(&config.S3Bucket, EnvS3Bucket)
	envString(&config.S3Region, EnvS3Region)
	envString(&config.S3BaseEndpoint, EnvS3BaseEndpoint)

	if v := lookup(EnvCORSOrigins); v != "" {
		config.CORSOrigins = splitList(v)
	}

	if v := lookup(EnvTokenMinutes); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTokenMinutes, err)
		}
		config.AccessTokenValidityDuration = time.Duration(n) * time.Minute
	}

	if v := lookup(EnvLoginMaxFailures); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvLoginMaxFailures, err)
		}
		config.LoginMaxFailures = n
	}

	if v := lookup(EnvLoginWindow); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvLoginWindow, err)
		}
		config.LoginWindow = d
	}

	if err := envUint32(&config.Argon2MemoryKiB, EnvArgon2MemoryKiB, 32); err != nil {
		return err
	}
	if err := envUint32(&config.Argon2Iterations, EnvArgon2Iterations, 32); err != nil {
		return err
	}
	par := uint32(config.Argon2Parallelism)
	if err := envUint32(&par, EnvArgon2Parallelism, 8); err != nil {
		return err
	}
	config.Argon2Parallelism = uint8(par)

	return nil
}

func lookup(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envString(dst *string, key string) {
	if v := lookup(key); v != "" {
		*dst = v
	}
}

func envUint32(dst *uint32, key string, bits int) error {
	v := lookup(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseUint(v, 10, bits)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = uint32(n)
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
