package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Engine.Window)
	assert.Equal(t, 3, cfg.Engine.MinSamples)
	assert.Equal(t, 0.05, cfg.Engine.PumpPct)
	assert.Equal(t, 0.03, cfg.Engine.TrailPct)
	assert.Equal(t, 0.998, cfg.Engine.FeeHaircut)
	assert.Equal(t, 30, cfg.Ingest.SymbolsPerShard)
	assert.Equal(t, "USDT", cfg.Ingest.QuoteAsset)
	assert.Equal(t, 500, cfg.Executor.QueueSize)
	assert.Equal(t, int64(5000), cfg.Mexc.RecvWindow)
	assert.Equal(t, "https://api.mexc.com", cfg.Mexc.RestURL)
	assert.Equal(t, 8080, cfg.Service.Port)
	assert.Equal(t, "file", cfg.Store.Driver)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "values.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  window: 45s
  pump_pct: 0.07
ingest:
  symbols_per_shard: 10
  quote_asset: usdc
store:
  driver: postgres
  dsn: postgres://from-file
`), 0o600))

	t.Setenv("MEXC_API_KEY", "key")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "12345")
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_DSN", "postgres://from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.Engine.Window)
	assert.Equal(t, 0.07, cfg.Engine.PumpPct)
	assert.Equal(t, 10, cfg.Ingest.SymbolsPerShard)
	assert.Equal(t, "USDC", cfg.Ingest.QuoteAsset)
	assert.Equal(t, "key", cfg.Mexc.APIKey)
	assert.Equal(t, "tok", cfg.Telegram.Token)
	assert.Equal(t, int64(12345), cfg.Telegram.ChatID)
	assert.Equal(t, 9090, cfg.Service.Port)
	assert.Equal(t, "postgres://from-env", cfg.Store.DSN)
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr())
}

func TestLoad_RejectsBadThresholds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "values.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  trail_pct: 2\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_DialBurstRequiredWithRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "values.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ingest:\n  dial_rate: 5\n  dial_burst: 0\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial_burst")

	// без лимита burst не нужен
	require.NoError(t, os.WriteFile(path, []byte("ingest:\n  dial_rate: 0\n  dial_burst: 0\n"), 0o600))
	_, err = Load(path)
	assert.NoError(t, err)
}

func TestLoad_PostgresNeedsDSN(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")

	_, err := Load("")
	assert.Error(t, err)
}

func TestEngineConfig(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	ec := cfg.EngineConfig()
	assert.Equal(t, cfg.Engine.Window, ec.Window)
	assert.Equal(t, cfg.Engine.MinPrice, ec.MinPrice)
	assert.NoError(t, ec.Validate())
}
