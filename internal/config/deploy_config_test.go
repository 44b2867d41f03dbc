package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/vault-deployer/internal/domain/config"
)

func TestLoadDeployConfig(t *testing.T) {
	t.Run("built-in profiles only", func(t *testing.T) {
		cfg, source, err := LoadDeployConfig(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, "defaults", source)
		assert.Len(t, cfg.Profiles, 3)
		assert.Equal(t, "0.8.1", cfg.Compiler.Version)
	})

	t.Run("file overrides and adds profiles", func(t *testing.T) {
		t.Setenv("FANTOM_RPC_URL", "https://rpc.ftm.tools")
		t.Setenv("FANTOM_PRIVATE_KEY", DevPrivateKey)

		root := t.TempDir()
		writeFile(t, filepath.Join(root, DeployConfigFile), `
[compiler]
optimizer_runs = 200

[etherscan]
api_key = "KEY123"

[profiles.mainnet]
rpc_url = "${FANTOM_RPC_URL}"
private_key = "${FANTOM_PRIVATE_KEY}"
gas = "auto"
gas_price = 50000000000
gas_multiplier = 1.2
chain_id = 250

[profiles.fork]
ephemeral = true
rpc_url = "http://127.0.0.1:9545"
gas = 8000000
`)

		cfg, source, err := LoadDeployConfig(root)
		require.NoError(t, err)
		assert.Equal(t, DeployConfigFile, source)

		assert.Equal(t, 200, cfg.Compiler.OptimizerRuns)
		assert.Equal(t, "0.8.1", cfg.Compiler.Version, "unset compiler keys keep defaults")
		assert.Equal(t, "KEY123", cfg.Etherscan.APIKey)

		mainnet := cfg.Profiles["mainnet"]
		assert.Equal(t, "https://rpc.ftm.tools", mainnet.RPCURL)
		assert.Equal(t, "${FANTOM_RPC_URL}", mainnet.RawRPCURL)
		assert.Equal(t, DevPrivateKey, mainnet.PrivateKey)
		assert.True(t, mainnet.Gas.Auto)
		assert.Equal(t, config.FixedGas(50000000000), mainnet.GasPrice)
		assert.Equal(t, 1.2, mainnet.GasMultiplier)
		assert.Equal(t, uint64(250), mainnet.ChainID)
		assert.False(t, mainnet.RequireConfirmation, "file profile replaces the built-in one")

		fork := cfg.Profiles["fork"]
		assert.True(t, fork.Ephemeral)
		assert.Equal(t, config.FixedGas(8000000), fork.Gas)

		assert.Contains(t, cfg.Profiles, "local")
	})

	t.Run("dotenv supplies secrets", func(t *testing.T) {
		const envVar = "VAULT_DEPLOYER_TEST_DOTENV_RPC"
		t.Cleanup(func() { os.Unsetenv(envVar) })

		root := t.TempDir()
		writeFile(t, filepath.Join(root, ".env"), envVar+"=http://from-dotenv:8545\n")
		writeFile(t, filepath.Join(root, DeployConfigFile), "[profiles.staging]\nrpc_url = \"${"+envVar+"}\"\n")

		cfg, _, err := LoadDeployConfig(root)
		require.NoError(t, err)
		assert.Equal(t, "http://from-dotenv:8545", cfg.Profiles["staging"].RPCURL)
	})

	t.Run("invalid gas value", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, DeployConfigFile), "[profiles.local]\ngas = \"fast\"\n")

		_, _, err := LoadDeployConfig(root)
		assert.Error(t, err)
	})
}

func TestDetectEnvVar(t *testing.T) {
	tests := []struct {
		raw    string
		name   string
		wantOK bool
	}{
		{"${TESTNET_RPC_URL}", "TESTNET_RPC_URL", true},
		{" ${KEY} ", "KEY", true},
		{"https://rpc/${KEY}", "", false},
		{"0xabc", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			name, ok := DetectEnvVar(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestGenerateEnvVarName(t *testing.T) {
	assert.Equal(t, "TESTNET_RPC_URL", GenerateEnvVarName("testnet", "rpc_url"))
	assert.Equal(t, "BSC_TEST_PRIVATE_KEY", GenerateEnvVarName("bsc-test", "private_key"))
}
