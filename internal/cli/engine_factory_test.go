package cli

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/dataflow/internal/logging"
	"github.com/aretw0/dataflow/pkg/plugins/basic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, cfg *Config) {
	t.Helper()
	engine, closeStore, err := CreateEngine(cfg, logging.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)
	defer closeStore()

	ctx := context.Background()
	_, err = engine.CreateNode(basic.KeyConstant, 0, 0, false)
	require.NoError(t, err)
	require.NoError(t, engine.Save(ctx, "g"))

	engine.Clear()
	report, err := engine.Load(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Nodes)
}

func TestCreateEngine_Memory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Backend = "memory"
	roundTrip(t, cfg)
}

func TestCreateEngine_File(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Dir = t.TempDir()
	cfg.Store.Format = "yaml"
	roundTrip(t, cfg)
}

func TestCreateEngine_Redis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := DefaultConfig()
	cfg.Store.Backend = "redis"
	cfg.Store.Redis.Addr = mr.Addr()
	roundTrip(t, cfg)

	assert.True(t, mr.Exists("dataflow:graph:g"))
}

func TestCreateEngine_Sealed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Dir = t.TempDir()
	cfg.Store.EncryptionKey = base64.StdEncoding.EncodeToString(make([]byte, 32))
	roundTrip(t, cfg)

	data, err := os.ReadFile(filepath.Join(cfg.Store.Dir, "g.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"sealed"`)
	assert.NotContains(t, string(data), "basic.constant")
}

func TestCreateEngine_UnknownBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Backend = "tape"
	_, _, err := CreateEngine(cfg, logging.NewNop(), nil)
	assert.Error(t, err)
}
