package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAPI_Defaults(t *testing.T) {
	cfg, err := LoadAPI("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "payment-proofs", cfg.ProofsBucket)
	assert.Equal(t, "contracts", cfg.FileShare)
	assert.Equal(t, "payments", cfg.PaymentsDir)
	assert.Equal(t, "order-notifications", cfg.OrderQueue)
	assert.Equal(t, 3, cfg.ConflictRetries)
}

func TestLoadAPI_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9090"
storage_driver: memory
worker_count: 2
request_timeout: 3s
minio:
  endpoint: minio:9000
`), 0o600))

	t.Setenv("PORT", "7070")
	t.Setenv("CONFLICT_RETRIES", "5")

	cfg, err := LoadAPI(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "memory", cfg.StorageDriver)
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, 5, cfg.ConflictRetries)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "minio:9000", cfg.Minio.Endpoint)
}

func TestLoadAPI_Invalid(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "tables")
	_, err := LoadAPI("")
	assert.Error(t, err)
}

func TestLoadAPI_KafkaNeedsBrokers(t *testing.T) {
	t.Setenv("NOTIFIER", "kafka")
	_, err := LoadAPI("")
	assert.ErrorContains(t, err, "KAFKA_BROKERS")
}

func TestLoadWeb_RequiresURLs(t *testing.T) {
	_, err := LoadWeb("")
	assert.ErrorContains(t, err, "API_BASE_URL")

	t.Setenv("API_BASE_URL", "http://api:8080/")
	_, err = LoadWeb("")
	assert.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://localhost/web")
	cfg, err := LoadWeb("")
	require.NoError(t, err)
	assert.Equal(t, "http://api:8080", cfg.APIBaseURL)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
}
