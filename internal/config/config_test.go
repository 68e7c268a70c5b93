package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"APP_ADDR", "STORE_DRIVER", "BOOKS_FILE", "DB_TIMEOUT", "RELAY_DRIVER",
		"EVENT_HANDLER_TIMEOUT", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"MAX_BODY_BYTES", "CORS_ALLOWED_ORIGINS", "SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, DriverFile, cfg.StoreDriver)
	assert.Equal(t, "data/books.json", cfg.BooksFile)
	assert.Equal(t, RelayNone, cfg.RelayDriver)
	assert.Equal(t, 2*time.Second, cfg.EventHandlerTimeout)
	assert.Equal(t, 3*time.Second, cfg.DBTimeout)
	assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
	assert.Equal(t, 40, cfg.RateLimitBurst)
	assert.Empty(t, cfg.CORSAllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ADDR", ":9999")
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("EVENT_HANDLER_TIMEOUT", "250ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("RELAY_DRIVER", "nats")
	t.Setenv("RELAY_URL", "nats://localhost:4222")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 250*time.Millisecond, cfg.EventHandlerTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, RelayNATS, cfg.RelayDriver)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown store driver", "STORE_DRIVER", "mongo"},
		{"unknown relay driver", "RELAY_DRIVER", "sqs"},
		{"bad duration", "EVENT_HANDLER_TIMEOUT", "soon"},
		{"negative burst", "RATE_LIMIT_BURST", "-1"},
		{"bad rps", "RATE_LIMIT_RPS", "fast"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_RelayRequiresURL(t *testing.T) {
	t.Setenv("RELAY_DRIVER", "kafka")
	t.Setenv("RELAY_URL", "")

	_, err := Load()
	assert.ErrorContains(t, err, "RELAY_URL")
}

func TestLoadEnvFiles_DoesNotOverrideExistingEnv(t *testing.T) {
	tmp := t.TempDir()
	p := filepath.Join(tmp, ".env")

	if err := os.WriteFile(p, []byte("BOOKS_FILE=from_file\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	t.Setenv("BOOKS_FILE", "from_env")

	cwd, _ := os.Getwd()
	_ = os.Chdir(tmp)
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	LoadEnvFiles()

	if got := os.Getenv("BOOKS_FILE"); got != "from_env" {
		t.Fatalf("expected existing env to win, got %q", got)
	}
}
