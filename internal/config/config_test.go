package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("PORT", "")
	t.Setenv("WS_SEND_BUFFER", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("NATS_RECONNECT_WAIT", "")

	cfg := Load()

	req.Equal("8080", cfg.ServerPort)
	req.Equal(64, cfg.WSSendBuffer)
	req.Equal(2*time.Second, cfg.NotifyTimeout)
	req.False(cfg.TracingEnabled)
	req.Equal("json", cfg.LogFormat)
	req.Equal(2*time.Second, cfg.NATSReconnectWait)
}

func TestLoad_Overrides(t *testing.T) {
	req := require.New(t)
	t.Setenv("PORT", "9090")
	t.Setenv("WS_SEND_BUFFER", "8")
	t.Setenv("WS_WRITE_TIMEOUT", "3s")
	t.Setenv("TRACING_ENABLED", "true")

	cfg := Load()

	req.Equal("9090", cfg.ServerPort)
	req.Equal(8, cfg.WSSendBuffer)
	req.Equal(3*time.Second, cfg.WSWriteTimeout)
	req.True(cfg.TracingEnabled)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	req := require.New(t)
	t.Setenv("WS_SEND_BUFFER", "many")
	t.Setenv("NOTIFY_TIMEOUT", "soon")

	cfg := Load()

	req.Equal(64, cfg.WSSendBuffer)
	req.Equal(2*time.Second, cfg.NotifyTimeout)
}

func TestLoad_CORSAllowedOrigins(t *testing.T) {
	req := require.New(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://shop.example.com, ,https://admin.example.com ")

	cfg := Load()

	req.Equal([]string{"https://shop.example.com", "https://admin.example.com"}, cfg.CORSAllowedOrigins)
}
