package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"ADDR", "LOG_LEVEL", "LOG_DEV", "HAND_SIZE", "HANDSHAKE_TIMEOUT", "WRITE_TIMEOUT",
	"OUTBOX_SIZE", "NOTIFY_REJECTIONS", "CARDS_FILE", "DATABASE_URL", "NATS_URL",
	"NATS_SUBJECT", "ALLOWED_ORIGINS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	c := FromEnv()

	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, "info", c.LogLevel)
	assert.False(t, c.LogDev)
	assert.Equal(t, 7, c.HandSize)
	assert.Equal(t, 5*time.Second, c.HandshakeTimeout)
	assert.Equal(t, 3*time.Second, c.WriteTimeout)
	assert.Equal(t, 16, c.OutboxSize)
	assert.False(t, c.NotifyRejections)
	assert.Equal(t, "cards.rounds", c.NATSSubject)
	assert.Empty(t, c.DatabaseURL)
	assert.Empty(t, c.AllowedOrigins)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADDR", ":9000")
	t.Setenv("HAND_SIZE", "10")
	t.Setenv("HANDSHAKE_TIMEOUT", "250ms")
	t.Setenv("NOTIFY_REJECTIONS", "true")
	t.Setenv("ALLOWED_ORIGINS", "localhost:*, example.com ,")

	c := FromEnv()
	assert.Equal(t, ":9000", c.Addr)
	assert.Equal(t, 10, c.HandSize)
	assert.Equal(t, 250*time.Millisecond, c.HandshakeTimeout)
	assert.True(t, c.NotifyRejections)
	assert.Equal(t, []string{"localhost:*", "example.com"}, c.AllowedOrigins)
}

func TestFromEnv_BadValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("HAND_SIZE", "-3")
	t.Setenv("WRITE_TIMEOUT", "soon")
	t.Setenv("LOG_DEV", "maybe")

	c := FromEnv()
	assert.Equal(t, 7, c.HandSize)
	assert.Equal(t, 3*time.Second, c.WriteTimeout)
	assert.False(t, c.LogDev)
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("NATS_SUBJECT")
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("NATS_SUBJECT=games.finished\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("NATS_SUBJECT") })

	c := Load(path)
	assert.Equal(t, "games.finished", c.NATSSubject)
}
