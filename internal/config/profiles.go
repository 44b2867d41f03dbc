package config

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/vault-deployer/internal/domain"
	"github.com/trebuchet-org/vault-deployer/internal/domain/config"
)

const (
	// DevPrivateKey is account #0 of the hardhat and anvil development mnemonic
	DevPrivateKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

	// DefaultLocalRPCURL is used by ephemeral profiles without an rpc_url
	DefaultLocalRPCURL = "http://127.0.0.1:8545"

	defaultConfirmTimeout = 5 * time.Minute
	defaultPollInterval   = time.Second
)

// BuildProfile turns a configured profile into a NetworkProfile.
// Live profiles must carry an RPC endpoint and a valid signing key.
func BuildProfile(name string, pc config.ProfileConfig, cfg *config.DeployConfig) (*config.NetworkProfile, error) {
	profile := &config.NetworkProfile{
		Name:                name,
		RPCURL:              pc.RPCURL,
		PrivateKey:          pc.PrivateKey,
		Ephemeral:           pc.Ephemeral,
		ChainID:             pc.ChainID,
		RequireConfirmation: pc.RequireConfirmation,
		ExplorerURL:         pc.ExplorerURL,
	}
	if cfg != nil {
		if profile.ExplorerURL == "" {
			profile.ExplorerURL = cfg.Etherscan.URL
		}
		profile.ExplorerAPIKey = cfg.Etherscan.APIKey
	}

	if profile.Ephemeral {
		if profile.RPCURL == "" {
			profile.RPCURL = DefaultLocalRPCURL
		}
		if profile.PrivateKey == "" {
			profile.PrivateKey = DevPrivateKey
		}
	}

	if profile.RPCURL == "" {
		return nil, missingCredential(name, "rpc_url", pc.RawRPCURL)
	}
	if profile.PrivateKey == "" {
		return nil, missingCredential(name, "private_key", pc.RawPrivateKey)
	}
	if err := ValidatePrivateKey(profile.PrivateKey); err != nil {
		return nil, fmt.Errorf("profile '%s' has an invalid private_key: %w", name, err)
	}

	gas, err := buildGasPolicy(pc)
	if err != nil {
		return nil, fmt.Errorf("profile '%s': %w", name, err)
	}
	profile.Gas = gas

	switch {
	case pc.AllowUnlimitedContractSize:
		profile.MaxContractSize = 0
	case pc.MaxContractSize > 0:
		profile.MaxContractSize = pc.MaxContractSize
	default:
		profile.MaxContractSize = config.DefaultMaxContractSize
	}

	profile.ConfirmTimeout, err = parseDuration(pc.ConfirmTimeout, defaultConfirmTimeout)
	if err != nil {
		return nil, fmt.Errorf("profile '%s': invalid confirm_timeout: %w", name, err)
	}
	profile.PollInterval, err = parseDuration(pc.PollInterval, defaultPollInterval)
	if err != nil {
		return nil, fmt.Errorf("profile '%s': invalid poll_interval: %w", name, err)
	}

	return profile, nil
}

// ValidatePrivateKey checks that a hex key parses as a secp256k1 key
func ValidatePrivateKey(key string) error {
	_, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(key), "0x"))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMissingCredential, err)
	}
	return nil
}

func missingCredential(profile, field, raw string) error {
	envVar, ok := DetectEnvVar(raw)
	if !ok && raw == "" {
		envVar = GenerateEnvVarName(profile, field)
	}
	return &domain.MissingCredentialError{Profile: profile, Field: field, EnvVar: envVar}
}

func buildGasPolicy(pc config.ProfileConfig) (config.GasPolicy, error) {
	policy := config.GasPolicy{
		Mode:       config.GasModeAuto,
		Multiplier: pc.GasMultiplier,
	}
	if policy.Multiplier == 0 {
		policy.Multiplier = 1
	}
	if policy.Multiplier < 0 {
		return policy, fmt.Errorf("gas_multiplier must be positive, got %v", pc.GasMultiplier)
	}

	if pc.Gas.Set && !pc.Gas.Auto {
		if pc.Gas.Value == 0 {
			return policy, fmt.Errorf("gas must be greater than zero")
		}
		if pc.BlockGasLimit > 0 && pc.Gas.Value > pc.BlockGasLimit {
			return policy, fmt.Errorf("gas %d exceeds block_gas_limit %d", pc.Gas.Value, pc.BlockGasLimit)
		}
		policy.Mode = config.GasModeFixed
		policy.GasLimit = pc.Gas.Value
	}
	if pc.GasPrice.Set && !pc.GasPrice.Auto {
		policy.GasPrice = new(big.Int).SetUint64(pc.GasPrice.Value)
	}
	return policy, nil
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", raw)
	}
	return d, nil
}
