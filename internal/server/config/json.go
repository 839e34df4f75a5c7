package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/accounts/internal/flagx"
	"github.com/dmitrijs2005/accounts/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Interval fields use
// timex.Duration so both "10m" strings and integer nanoseconds parse.
type JsonConfig struct {
	HTTPAddr             string         `json:"http_addr"`
	DatabaseDSN          string         `json:"database_dsn"`
	LogLevel             string         `json:"log_level"`
	PasswordHasher       string         `json:"password_hasher"`
	BcryptCost           int            `json:"bcrypt_cost"`
	VerificationCodeTTL  timex.Duration `json:"verification_code_ttl"`
	ResetCodeTTL         timex.Duration `json:"reset_code_ttl"`
	SessionTTL           timex.Duration `json:"session_ttl"`
	RequireVerifiedEmail bool           `json:"require_verified_email"`
	ReaperInterval       timex.Duration `json:"reaper_interval"`
	RateLimitPerMinute   int            `json:"rate_limit_per_minute"`
	TrustProxyHeaders    bool           `json:"trust_proxy_headers"`
	ShutdownTimeout      timex.Duration `json:"shutdown_timeout"`
	Notifier             string         `json:"notifier"`
	S3AccessKey          string         `json:"s3_access_key"`
	S3SecretKey          string         `json:"s3_secret_key"`
	S3Bucket             string         `json:"s3_bucket"`
	S3Region             string         `json:"s3_region"`
	S3BaseEndpoint       string         `json:"s3_base_endpoint"`
}

// parseJson overlays Config with the file named by -c or -config. Keys
// missing from the file keep their current values.
func parseJson(cfg *Config) error {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := toJson(cfg)
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	cfg.HTTPAddr = c.HTTPAddr
	cfg.DatabaseDSN = c.DatabaseDSN
	cfg.LogLevel = c.LogLevel
	cfg.PasswordHasher = c.PasswordHasher
	cfg.BcryptCost = c.BcryptCost
	cfg.VerificationCodeTTL = c.VerificationCodeTTL.Duration
	cfg.ResetCodeTTL = c.ResetCodeTTL.Duration
	cfg.SessionTTL = c.SessionTTL.Duration
	cfg.RequireVerifiedEmail = c.RequireVerifiedEmail
	cfg.ReaperInterval = c.ReaperInterval.Duration
	cfg.RateLimitPerMinute = c.RateLimitPerMinute
	cfg.TrustProxyHeaders = c.TrustProxyHeaders
	cfg.ShutdownTimeout = c.ShutdownTimeout.Duration
	cfg.Notifier = c.Notifier
	cfg.S3AccessKey = c.S3AccessKey
	cfg.S3SecretKey = c.S3SecretKey
	cfg.S3Bucket = c.S3Bucket
	cfg.S3Region = c.S3Region
	cfg.S3BaseEndpoint = c.S3BaseEndpoint

	return nil
}

func toJson(cfg *Config) *JsonConfig {
	return &JsonConfig{
		HTTPAddr:             cfg.HTTPAddr,
		DatabaseDSN:          cfg.DatabaseDSN,
		LogLevel:             cfg.LogLevel,
		PasswordHasher:       cfg.PasswordHasher,
		BcryptCost:           cfg.BcryptCost,
		VerificationCodeTTL:  timex.Duration{Duration: cfg.VerificationCodeTTL},
		ResetCodeTTL:         timex.Duration{Duration: cfg.ResetCodeTTL},
		SessionTTL:           timex.Duration{Duration: cfg.SessionTTL},
		RequireVerifiedEmail: cfg.RequireVerifiedEmail,
		ReaperInterval:       timex.Duration{Duration: cfg.ReaperInterval},
		RateLimitPerMinute:   cfg.RateLimitPerMinute,
		TrustProxyHeaders:    cfg.TrustProxyHeaders,
		ShutdownTimeout:      timex.Duration{Duration: cfg.ShutdownTimeout},
		Notifier:             cfg.Notifier,
		S3AccessKey:          cfg.S3AccessKey,
		S3SecretKey:          cfg.S3SecretKey,
		S3Bucket:             cfg.S3Bucket,
		S3Region:             cfg.S3Region,
		S3BaseEndpoint:       cfg.S3BaseEndpoint,
	}
}
