package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/samber/lo"
	"github.com/trebuchet-org/vault-deployer/internal/domain/config"
)

// DeployConfigFile is the project configuration file name
const DeployConfigFile = "deploy.toml"

// LoadDeployConfig loads deploy.toml on top of the built-in profiles.
// A [profiles.<name>] table replaces the built-in profile of the same name.
func LoadDeployConfig(projectRoot string) (*config.DeployConfig, string, error) {
	loadEnvFiles(projectRoot)

	cfg := config.DefaultDeployConfig()
	source := "defaults"

	path := filepath.Join(projectRoot, DeployConfigFile)
	if _, err := os.Stat(path); err == nil {
		var file config.DeployConfig
		md, err := toml.DecodeFile(path, &file)
		if err != nil {
			return nil, "", fmt.Errorf("failed to parse %s: %w", DeployConfigFile, err)
		}

		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := lo.Map(undecoded, func(k toml.Key, _ int) string { return k.String() })
			fmt.Fprintf(os.Stderr, "Warning: unknown keys in %s: %s\n", DeployConfigFile, strings.Join(keys, ", "))
		}

		mergeCompiler(&cfg.Compiler, &file.Compiler, md)
		if md.IsDefined("etherscan", "api_key") {
			cfg.Etherscan.APIKey = file.Etherscan.APIKey
		}
		if md.IsDefined("etherscan", "url") {
			cfg.Etherscan.URL = file.Etherscan.URL
		}
		for name, profile := range file.Profiles {
			cfg.Profiles[name] = profile
		}
		source = DeployConfigFile
	}

	expandDeployConfig(cfg)
	return cfg, source, nil
}

func mergeCompiler(dst, src *config.CompilerConfig, md toml.MetaData) {
	if md.IsDefined("compiler", "version") {
		dst.Version = src.Version
	}
	if md.IsDefined("compiler", "optimizer") {
		dst.OptimizerEnabled = src.OptimizerEnabled
	}
	if md.IsDefined("compiler", "optimizer_runs") {
		dst.OptimizerRuns = src.OptimizerRuns
	}
	if md.IsDefined("compiler", "artifacts") {
		dst.ArtifactsDir = src.ArtifactsDir
	}
}

// expandDeployConfig resolves ${VAR} references, keeping the raw values
func expandDeployConfig(cfg *config.DeployConfig) {
	cfg.Etherscan.APIKey = ExpandValue(cfg.Etherscan.APIKey)
	cfg.Etherscan.URL = ExpandValue(cfg.Etherscan.URL)

	for name, p := range cfg.Profiles {
		p.RawRPCURL = p.RPCURL
		p.RawPrivateKey = p.PrivateKey
		p.RPCURL = ExpandValue(p.RPCURL)
		p.PrivateKey = ExpandValue(p.PrivateKey)
		p.ExplorerURL = ExpandValue(p.ExplorerURL)
		cfg.Profiles[name] = p
	}
}
