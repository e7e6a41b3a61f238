package app

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustledger/internal/integrity"
	"trustledger/internal/platform/config"
)

func loadConfig(t *testing.T) config.Config {
	t.Helper()
	t.Setenv("TRUSTLEDGER_CONFIG", "")
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestNew_MemoryStore(t *testing.T) {
	cfg := loadConfig(t)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	a, err := New(context.Background(), cfg, logger, WithoutMetrics())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close()) })

	assert.Nil(t, a.Relay)

	report, err := a.Orchestrator.RunExclusive(context.Background(), integrity.DefaultOptions())
	require.NoError(t, err)
	assert.Zero(t, report.Detections.TotalDetected)
	assert.Empty(t, report.TrustScores)
}

func TestNew_KafkaWithoutOutboxIsIgnored(t *testing.T) {
	t.Setenv("TRUSTLEDGER_KAFKA_BROKERS", "localhost:9092")
	cfg := loadConfig(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	a, err := New(context.Background(), cfg, logger, WithoutMetrics())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Nil(t, a.Relay)
	assert.Contains(t, buf.String(), "relay disabled")
}

func TestNew_UnreachablePostgres(t *testing.T) {
	t.Setenv("TRUSTLEDGER_STORE_DRIVER", "postgres")
	t.Setenv("TRUSTLEDGER_STORE_DATABASE_URL", "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1")
	cfg := loadConfig(t)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	_, err := New(context.Background(), cfg, logger, WithoutMetrics())
	require.Error(t, err)
}
