package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"BASE_URL", "COOKIE", "USER_AGENT", "PROXY_URL", "INPUT_FILE", "OUTPUT_FILE",
		"CODE_PATTERN", "CONNECT_TIMEOUT", "TIMEOUT", "RETRY_DELAY", "THROTTLE",
		"MAX_RETRIES", "CONCURRENCY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("BASE_URL", "https://example.com/redeem/")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/redeem/", cfg.BaseURL)
	assert.Equal(t, "statuscheck/0.1", cfg.UserAgent)
	assert.Equal(t, ".data.txt", cfg.InputFile)
	assert.Equal(t, "results.txt", cfg.OutputFile)
	assert.Equal(t, 10*time.Second, cfg.ClientConfig().ConnectTimeout)
	assert.Equal(t, 15*time.Second, cfg.ClientConfig().Timeout)
	assert.Equal(t, time.Second, cfg.RetryDelay())
	assert.Equal(t, time.Second, cfg.Throttle())
	assert.Equal(t, 0, cfg.MaxRetries)
	assert.Equal(t, 1, cfg.Concurrency)
}

func TestLoad_MissingBaseURL(t *testing.T) {
	clearEnv(t)

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BASE_URL")
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BASE_URL", "https://example.com/")
	t.Setenv("COOKIE", "  session=abc  ")
	t.Setenv("USER_AGENT", "custom/2")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("THROTTLE", "250ms")
	t.Setenv("RETRY_DELAY", "0s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "session=abc", cfg.Cookie)
	assert.Equal(t, "custom/2", cfg.UserAgent)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Throttle())
	assert.Zero(t, cfg.RetryDelay())
}

func TestLoad_InvalidDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("BASE_URL", "https://example.com/")
	t.Setenv("TIMEOUT", "soon")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid TIMEOUT")
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "statuscheck.yml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: https://file.example.com/\nconcurrency: 4\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://file.example.com/", cfg.BaseURL)
	assert.Equal(t, 4, cfg.Concurrency)
}

func TestLoad_MissingFileIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("BASE_URL", "https://example.com/")

	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	assert.NoError(t, err)
}

func TestLoadDotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("USER_AGENT", "from-env")
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("USER_AGENT=from-file\nPROXY_URL=socks5://127.0.0.1:9050\n"), 0o600))

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "from-env", os.Getenv("USER_AGENT"))

	require.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "missing")))
}

func TestHeader(t *testing.T) {
	h, err := Config{UserAgent: "ua/1"}.Header()
	require.NoError(t, err)
	assert.Equal(t, "ua/1", h.Get("User-Agent"))
	assert.Empty(t, h.Get("Cookie"))

	h, err = Config{Cookie: "a=b", UserAgent: "ua/1"}.Header()
	require.NoError(t, err)
	assert.Equal(t, "a=b", h.Get("Cookie"))

	h, err = Config{}.Header()
	require.NoError(t, err)
	assert.Equal(t, "statuscheck/0.1", h.Get("User-Agent"))

	_, err = Config{Cookie: "a=b\r\nX-Injected: 1"}.Header()
	assert.EqualError(t, err, "invalid COOKIE header value")

	_, err = Config{UserAgent: "bad\x00ua"}.Header()
	assert.EqualError(t, err, "invalid USER_AGENT header value")
}

func TestValidate(t *testing.T) {
	base := Config{Concurrency: 1}
	assert.NoError(t, base.Validate())

	bad := base
	bad.Concurrency = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.MaxRetries = -1
	assert.Error(t, bad.Validate())

	bad = base
	bad.ThrottleInterval = "-1s"
	assert.Error(t, bad.Validate())
}

func TestRedacted(t *testing.T) {
	cfg := Config{Cookie: "secret"}
	assert.Equal(t, "<redacted>", cfg.Redacted().Cookie)
	assert.Equal(t, "secret", cfg.Cookie)
}
