package config

// DeployConfig is the parsed deploy.toml
type DeployConfig struct {
	Compiler  CompilerConfig           `toml:"compiler"`
	Etherscan EtherscanConfig          `toml:"etherscan"`
	Profiles  map[string]ProfileConfig `toml:"profiles"`
}

// CompilerConfig records the settings the artifacts were built with
type CompilerConfig struct {
	Version          string `toml:"version"`
	OptimizerEnabled bool   `toml:"optimizer"`
	OptimizerRuns    int    `toml:"optimizer_runs"`
	ArtifactsDir     string `toml:"artifacts"`
}

// EtherscanConfig holds block explorer credentials
type EtherscanConfig struct {
	APIKey string `toml:"api_key"`
	URL    string `toml:"url"`
}

// ProfileConfig is one [profiles.<name>] table as written by the user
type ProfileConfig struct {
	RPCURL                     string   `toml:"rpc_url"`
	PrivateKey                 string   `toml:"private_key"`
	Ephemeral                  bool     `toml:"ephemeral"`
	ChainID                    uint64   `toml:"chain_id"`
	Gas                        GasValue `toml:"gas"`
	GasPrice                   GasValue `toml:"gas_price"`
	GasMultiplier              float64  `toml:"gas_multiplier"`
	BlockGasLimit              uint64   `toml:"block_gas_limit"`
	AllowUnlimitedContractSize bool     `toml:"allow_unlimited_contract_size"`
	MaxContractSize            int      `toml:"max_contract_size"`
	ConfirmTimeout             string   `toml:"confirm_timeout"`
	PollInterval               string   `toml:"poll_interval"`
	RequireConfirmation        bool     `toml:"require_confirmation"`
	ExplorerURL                string   `toml:"explorer_url"`

	// Raw values before ${VAR} expansion, used to name missing variables
	RawRPCURL     string `toml:"-"`
	RawPrivateKey string `toml:"-"`
}

// DefaultDeployConfig returns the built-in profiles: local, testnet and mainnet
func DefaultDeployConfig() *DeployConfig {
	return &DeployConfig{
		Compiler: CompilerConfig{
			Version:          "0.8.1",
			OptimizerEnabled: true,
			OptimizerRuns:    1000,
			ArtifactsDir:     "artifacts",
		},
		Etherscan: EtherscanConfig{
			APIKey: "${ETHERSCAN_API_KEY}",
		},
		Profiles: map[string]ProfileConfig{
			"local": {
				RPCURL:                     "http://127.0.0.1:8545",
				Ephemeral:                  true,
				Gas:                        AutoGas(),
				GasPrice:                   AutoGas(),
				GasMultiplier:              1,
				AllowUnlimitedContractSize: true,
				ConfirmTimeout:             "1m",
			},
			"testnet": {
				RPCURL:                     "${TESTNET_RPC_URL}",
				PrivateKey:                 "${TESTNET_PRIVATE_KEY}",
				Gas:                        FixedGas(10000000),
				GasPrice:                   AutoGas(),
				GasMultiplier:              1,
				BlockGasLimit:              10000000,
				AllowUnlimitedContractSize: true,
				ConfirmTimeout:             "5m",
			},
			"mainnet": {
				RPCURL:              "${MAINNET_RPC_URL}",
				PrivateKey:          "${MAINNET_PRIVATE_KEY}",
				Gas:                 AutoGas(),
				GasPrice:            AutoGas(),
				GasMultiplier:       1,
				ConfirmTimeout:      "10m",
				RequireConfirmation: true,
			},
		},
	}
}
