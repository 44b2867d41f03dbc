package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/vault-deployer/internal/domain"
	"github.com/trebuchet-org/vault-deployer/internal/domain/config"
	"github.com/trebuchet-org/vault-deployer/internal/domain/models"
)

func newTestConfig(t *testing.T) *config.RuntimeConfig {
	t.Helper()
	root := t.TempDir()
	return &config.RuntimeConfig{
		ProjectRoot: root,
		DataDir:     filepath.Join(root, ".vault-deployer"),
	}
}

func TestManifestStore_LoadMissing(t *testing.T) {
	store := NewManifestStoreAdapter(newTestConfig(t))

	_, err := store.Load(context.Background(), "testnet")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestManifestStore_SaveAndLoad(t *testing.T) {
	cfg := newTestConfig(t)
	store := NewManifestStoreAdapter(cfg)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	manifest := &models.Manifest{
		Network:  "testnet",
		ChainID:  4002,
		Plan:     "dante-vault",
		Deployer: common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"),
		Status:   models.RunStatusFailed,
		Contracts: []*models.DeployedContract{
			{Name: "Sentinel", Contract: "SentinelV2", Address: common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"), BlockNumber: 1},
		},
		Failure: &models.FailureRecord{
			Phase: "deploy", Index: 2, Name: "Strategy", Kind: "TransactionReverted", Error: "tx 0x02 reverted",
		},
		UpdatedAt: now,
	}
	require.NoError(t, store.Save(ctx, manifest))

	path := filepath.Join(cfg.ProjectRoot, "deployments", "testnet.json")
	assert.Equal(t, path, store.Path("testnet"))
	assert.FileExists(t, path)
	assert.NoFileExists(t, path+".tmp")

	// file is readable by other tools
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "dante-vault", raw["plan"])
	assert.Equal(t, "failed", raw["status"])

	loaded, err := store.Load(ctx, "testnet")
	require.NoError(t, err)
	assert.Equal(t, manifest.Deployer, loaded.Deployer)
	assert.Equal(t, now, loaded.UpdatedAt)
	require.NotNil(t, loaded.Contract("Sentinel"))
	assert.Equal(t, manifest.Contracts[0].Address, loaded.Contract("Sentinel").Address)
	assert.Equal(t, "Strategy", loaded.Failure.Name)
}

func TestManifestStore_CorruptFile(t *testing.T) {
	cfg := newTestConfig(t)
	store := NewManifestStoreAdapter(cfg)
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.ProjectRoot, "deployments"), 0755))
	require.NoError(t, os.WriteFile(store.Path("local"), []byte("{"), 0644))

	_, err := store.Load(context.Background(), "local")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestRunStateStore(t *testing.T) {
	cfg := newTestConfig(t)
	store := NewRunStateStoreAdapter(cfg)
	ctx := context.Background()

	_, err := store.Load(ctx, "dante-vault", "local")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	state := &models.RunState{
		Plan:    "dante-vault",
		Network: "local",
		ChainID: 31337,
		Status:  models.RunStatusRunning,
		Deployed: []*models.DeployedContract{
			{Name: "Sentinel", Contract: "SentinelV2", Address: common.HexToAddress("0x01")},
		},
	}
	require.NoError(t, store.Save(ctx, state))
	assert.FileExists(t, filepath.Join(cfg.DataDir, "runs", "dante-vault-local.json"))

	state.Status = models.RunStatusCompleted
	require.NoError(t, store.Save(ctx, state))

	loaded, err := store.Load(ctx, "dante-vault", "local")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, loaded.Status)
	assert.Equal(t, uint64(31337), loaded.ChainID)
	require.Len(t, loaded.Deployed, 1)
	assert.Equal(t, "Sentinel", loaded.Deployed[0].Name)

	// other networks are separate
	_, err = store.Load(ctx, "dante-vault", "testnet")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
