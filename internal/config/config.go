package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr             string
	LogLevel         string
	LogDev           bool
	HandSize         int
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	OutboxSize       int
	NotifyRejections bool
	CardsFile        string
	DatabaseURL      string
	NATSURL          string
	NATSSubject      string
	AllowedOrigins   []string
}

// Load reads an optional .env file and then the environment. Variables that
// are already set win over the file.
func Load(files ...string) Config {
	_ = godotenv.Load(files...)
	return FromEnv()
}

func FromEnv() Config {
	c := Config{}
	c.Addr = getenv("ADDR", ":8080")
	c.LogLevel = getenv("LOG_LEVEL", "info")
	c.LogDev = getbool("LOG_DEV", false)
	c.HandSize = getint("HAND_SIZE", 7)
	c.HandshakeTimeout = getduration("HANDSHAKE_TIMEOUT", 5*time.Second)
	c.WriteTimeout = getduration("WRITE_TIMEOUT", 3*time.Second)
	c.OutboxSize = getint("OUTBOX_SIZE", 16)
	c.NotifyRejections = getbool("NOTIFY_REJECTIONS", false)
	c.CardsFile = os.Getenv("CARDS_FILE")
	c.DatabaseURL = os.Getenv("DATABASE_URL")
	c.NATSURL = os.Getenv("NATS_URL")
	c.NATSSubject = getenv("NATS_SUBJECT", "cards.rounds")
	c.AllowedOrigins = getlist("ALLOWED_ORIGINS")
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getbool(k string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(k))
	if err != nil {
		return def
	}
	return b
}

func getduration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func getlist(k string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(k), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
