package config

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// DefaultMaxContractSize is the EIP-170 runtime bytecode limit
const DefaultMaxContractSize = 24576

// GasMode selects how gas limit and price are chosen for a transaction
type GasMode string

const (
	GasModeFixed GasMode = "fixed"
	GasModeAuto  GasMode = "auto"
)

// GasPolicy is the resolved gas strategy of a profile.
// In auto mode the estimated limit is scaled by Multiplier.
// A nil GasPrice lets the node suggest one.
type GasPolicy struct {
	Mode       GasMode
	GasLimit   uint64
	GasPrice   *big.Int
	Multiplier float64
}

func (g GasPolicy) String() string {
	price := "auto"
	if g.GasPrice != nil {
		price = g.GasPrice.String()
	}
	if g.Mode == GasModeFixed {
		return fmt.Sprintf("fixed (limit %d, price %s)", g.GasLimit, price)
	}
	return fmt.Sprintf("auto (x%.2f, price %s)", g.Multiplier, price)
}

// NetworkProfile is the immutable network target of a single run
type NetworkProfile struct {
	Name       string
	RPCURL     string
	PrivateKey string
	// Ephemeral profiles target a throwaway local chain and may run without secrets
	Ephemeral bool
	// ChainID of zero accepts whatever the node reports
	ChainID uint64
	Gas     GasPolicy
	// MaxContractSize of zero means unbounded
	MaxContractSize int
	ConfirmTimeout  time.Duration
	PollInterval    time.Duration
	// RequireConfirmation asks the operator before submitting anything
	RequireConfirmation bool
	ExplorerURL         string
	ExplorerAPIKey      string
}

// Unbounded reports whether the profile skips the contract size check
func (p *NetworkProfile) Unbounded() bool {
	return p.MaxContractSize <= 0
}

// GasValue is a TOML value that is either a number or the string "auto"
type GasValue struct {
	Auto  bool
	Value uint64
	Set   bool
}

// AutoGas returns a GasValue in auto mode
func AutoGas() GasValue {
	return GasValue{Auto: true, Set: true}
}

// FixedGas returns a GasValue with a fixed amount
func FixedGas(v uint64) GasValue {
	return GasValue{Value: v, Set: true}
}

// UnmarshalTOML implements toml.Unmarshaler
func (g *GasValue) UnmarshalTOML(data any) error {
	switch v := data.(type) {
	case int64:
		if v < 0 {
			return fmt.Errorf("gas value must not be negative: %d", v)
		}
		*g = FixedGas(uint64(v))
	case float64:
		if v < 0 {
			return fmt.Errorf("gas value must not be negative: %v", v)
		}
		*g = FixedGas(uint64(v))
	case string:
		s := strings.TrimSpace(v)
		if strings.EqualFold(s, "auto") {
			*g = AutoGas()
			return nil
		}
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return fmt.Errorf("gas value must be a number or \"auto\": %q", v)
		}
		*g = FixedGas(n)
	default:
		return fmt.Errorf("unsupported gas value type %T", data)
	}
	return nil
}

func (g GasValue) String() string {
	if g.Auto || !g.Set {
		return "auto"
	}
	return strconv.FormatUint(g.Value, 10)
}
