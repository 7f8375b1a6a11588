package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("COURSETRACK_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "notification", cfg.QueuePrefix)
	require.Equal(t, 5*time.Second, cfg.QueuePollInterval)
	require.Equal(t, time.Hour, cfg.OverdueInterval)
	require.Equal(t, 7*24*time.Hour, cfg.OverdueGrace)
	require.Equal(t, 7*24*time.Hour, cfg.DeliveryStatusTTL)
	require.Equal(t, 3, cfg.JobMaxAttempts)
	require.Equal(t, "log", cfg.MailProvider)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, "*", cfg.CORSAllowOrigins)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("COURSETRACK_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	t.Setenv("COURSETRACK_JWT_SECRET", "secret")
	t.Setenv("COURSETRACK_QUEUE_POLL_INTERVAL", "soon")

	_, err := Load()
	require.ErrorContains(t, err, "queue.poll_interval")
}

func TestLoadSendgridNeedsKey(t *testing.T) {
	t.Setenv("COURSETRACK_JWT_SECRET", "secret")
	t.Setenv("COURSETRACK_MAIL_PROVIDER", "sendgrid")

	_, err := Load()
	require.Error(t, err)
}
