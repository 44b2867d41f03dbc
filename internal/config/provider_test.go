package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider(t *testing.T) {
	t.Run("defaults without deploy.toml", func(t *testing.T) {
		root := t.TempDir()
		v := viper.New()
		v.Set("project_root", root)
		v.Set("network", "local")

		cfg, err := Provider(v)
		require.NoError(t, err)

		assert.Equal(t, root, cfg.ProjectRoot)
		assert.Equal(t, filepath.Join(root, DataDirName), cfg.DataDir)
		assert.Equal(t, "local", cfg.Network)
		assert.Equal(t, "defaults", cfg.ConfigSource)
		assert.Equal(t, filepath.Join(root, "artifacts"), cfg.ArtifactsDir)
		assert.Contains(t, cfg.DeployConfig.Profiles, "mainnet")
	})

	t.Run("artifacts flag overrides compiler setting", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, DeployConfigFile), "[compiler]\nartifacts = \"out\"\n")

		v := viper.New()
		v.Set("project_root", root)
		cfg, err := Provider(v)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "out"), cfg.ArtifactsDir)
		assert.Equal(t, DeployConfigFile, cfg.ConfigSource)

		v.Set("artifacts", "/abs/artifacts")
		cfg, err = Provider(v)
		require.NoError(t, err)
		assert.Equal(t, "/abs/artifacts", cfg.ArtifactsDir)
	})

	t.Run("broken deploy.toml", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, DeployConfigFile), "[profiles.local\n")

		v := viper.New()
		v.Set("project_root", root)
		_, err := Provider(v)
		assert.Error(t, err)
	})
}

func TestSetupViperBindsFlags(t *testing.T) {
	root := t.TempDir()
	cmd := &cobra.Command{Use: "deploy"}
	cmd.Flags().Bool("non-interactive", false, "")
	cmd.Flags().Duration("confirm-timeout", 0, "")
	cmd.Flags().String("network", "", "")
	require.NoError(t, cmd.Flags().Parse([]string{"--non-interactive", "--confirm-timeout=30s", "--network=testnet"}))

	v := SetupViper(root, cmd)

	assert.True(t, v.GetBool("non_interactive"))
	assert.Equal(t, 30*time.Second, v.GetDuration("confirm_timeout"))
	assert.Equal(t, "testnet", v.GetString("network"))
	assert.Equal(t, root, v.GetString("project_root"))
}

func TestSetupViperReadsEnvironment(t *testing.T) {
	t.Setenv("DEPLOY_NETWORK", "mainnet")
	v := SetupViper(t.TempDir(), nil)
	assert.Equal(t, "mainnet", v.GetString("network"))
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "hardhat.config.js"), "module.exports = {}\n")
	nested := filepath.Join(root, "scripts", "deep")
	require.NoError(t, os.MkdirAll(nested, 0755))
	t.Chdir(nested)

	found, err := FindProjectRoot()
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(found)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}
