package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv_OverlaysProcessEnvironment(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}
	clearEnv(t)

	t.Setenv("DATABASE_URL", "memory")
	t.Setenv("PASSWORD_HASHER", "sha256")
	t.Setenv("BCRYPT_COST", "6")
	t.Setenv("RESET_CODE_TTL", "5m")
	t.Setenv("REQUIRE_VERIFIED_EMAIL", "no")
	t.Setenv("RATE_LIMIT_RPM", "not-a-number")
	t.Setenv("TRUST_PROXY_HEADERS", "on")

	cfg := defaults()
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, MemoryDSN, cfg.DatabaseDSN)
	assert.True(t, cfg.UsesMemoryStore())
	assert.Equal(t, HasherSHA256, cfg.PasswordHasher)
	assert.Equal(t, 6, cfg.BcryptCost)
	assert.Equal(t, 5*time.Minute, cfg.ResetCodeTTL)
	assert.False(t, cfg.RequireVerifiedEmail)
	assert.Equal(t, 30, cfg.RateLimitPerMinute, "unparsable values keep the previous setting")
	assert.True(t, cfg.TrustProxyHeaders)
}

func TestParseEnv_LoadsDotenvFileFromFlag(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := filepath.Join(t.TempDir(), "accounts.env")
	require.NoError(t, os.WriteFile(path, []byte("HTTP_ADDR=127.0.0.1:9999\nNOTIFIER=s3\nS3_BUCKET=mail\n"), 0o600))
	os.Args = []string{"testbin", "-env", path}

	// godotenv.Load never overrides variables already present.
	clearEnv(t)

	cfg := defaults()
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, "127.0.0.1:9999", cfg.HTTPAddr)
	assert.Equal(t, NotifierS3, cfg.Notifier)
	assert.Equal(t, "mail", cfg.S3Bucket)
}

func TestParseEnv_MissingDotenvFromFlagFails(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin", "-env", filepath.Join(t.TempDir(), "missing.env")}

	require.Error(t, parseEnv(defaults()))
}

func TestGetBool(t *testing.T) {
	t.Setenv("FLAG_ON", "Yes")
	t.Setenv("FLAG_OFF", "0")
	t.Setenv("FLAG_BAD", "maybe")

	assert.True(t, getBool("FLAG_ON", false))
	assert.False(t, getBool("FLAG_OFF", true))
	assert.True(t, getBool("FLAG_BAD", true))
	assert.False(t, getBool("FLAG_UNSET_FOR_TEST", false))
}
