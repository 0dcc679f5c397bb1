package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/thoughtboard/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Durations use
// timex.Duration so both "30m" and integer nanoseconds are accepted. Empty
// values leave the current setting untouched.
type FileConfig struct {
	HTTPAddr string `json:"http_addr" yaml:"http_addr"`
	GRPCAddr string `json:"grpc_addr" yaml:"grpc_addr"`

	DatabaseDSN string `json:"database_dsn" yaml:"database_dsn"`
	DBUser      string `json:"db_user" yaml:"db_user"`
	DBPassword  string `json:"db_password" yaml:"db_password"`
	DBHost      string `json:"db_host" yaml:"db_host"`
	DBPort      string `json:"db_port" yaml:"db_port"`
	DBName      string `json:"db_name" yaml:"db_name"`

	SecretKey                   string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`

	AdminUsername string   `json:"admin_username" yaml:"admin_username"`
	CORSOrigins   []string `json:"cors_origins" yaml:"cors_origins"`

	LogLevel  string `json:"log_level" yaml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format"`

	RedisAddr        string         `json:"redis_addr" yaml:"redis_addr"`
	LoginMaxFailures int            `json:"login_max_failures" yaml:"login_max_failures"`
	LoginWindow      timex.Duration `json:"login_window" yaml:"login_window"`

	S3RootUser     string `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket       string `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region       string `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`

	ShutdownTimeout timex.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// parseFile overlays the file at path onto config. YAML is used for .yaml and
// .yml files, JSON otherwise. An empty path is a no-op.
func parseFile(config *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	fc.apply(config)
	return nil
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.HTTPAddr, fc.HTTPAddr)
	setString(&c.GRPCAddr, fc.GRPCAddr)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.DBUser, fc.DBUser)
	setString(&c.DBPassword, fc.DBPassword)
	setString(&c.DBHost, fc.DBHost)
	setString(&c.DBPort, fc.DBPort)
	setString(&c.DBName, fc.DBName)
	setString(&c.SecretKey, fc.SecretKey)
	setString(&c.AdminUsername, fc.AdminUsername)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogFormat, fc.LogFormat)
	setString(&c.RedisAddr, fc.RedisAddr)
	setString(&c.S3RootUser, fc.S3RootUser)
	setString(&c.S3RootPassword, fc.S3RootPassword)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.S3BaseEndpoint, fc.S3BaseEndpoint)

	if fc.AccessTokenValidityDuration.Duration > 0 {
		c.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	}
	if fc.LoginWindow.Duration > 0 {
		c.LoginWindow = fc.LoginWindow.Duration
	}
	if fc.ShutdownTimeout.Duration > 0 {
		c.ShutdownTimeout = fc.ShutdownTimeout.Duration
	}
	if fc.LoginMaxFailures > 0 {
		c.LoginMaxFailures = fc.LoginMaxFailures
	}
	if len(fc.CORSOrigins) > 0 {
		c.CORSOrigins = fc.CORSOrigins
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
