package blockchain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/trebuchet-org/vault-deployer/internal/domain"
	"github.com/trebuchet-org/vault-deployer/internal/domain/config"
	"github.com/trebuchet-org/vault-deployer/internal/usecase"
)

const (
	defaultDialAttempts = 3
	defaultDialDelay    = time.Second
	defaultDialTimeout  = 10 * time.Second
)

// Backend is the node API a session needs. *ethclient.Client and the
// simulated backend client both satisfy it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
}

// DialFunc opens a backend for an RPC endpoint
type DialFunc func(ctx context.Context, rpcURL string) (Backend, error)

// Connector opens chain sessions for network profiles
type Connector struct {
	dial     DialFunc
	attempts uint
	delay    time.Duration
	log      *slog.Logger
}

// NewConnector creates a connector dialing JSON-RPC endpoints with ethclient
func NewConnector(log *slog.Logger) *Connector {
	return NewConnectorWithDialer(dialEthclient, log)
}

// NewConnectorWithDialer creates a connector using a custom dial function
func NewConnectorWithDialer(dial DialFunc, log *slog.Logger) *Connector {
	return &Connector{
		dial:     dial,
		attempts: defaultDialAttempts,
		delay:    defaultDialDelay,
		log:      log,
	}
}

// WithRetry overrides the dial retry policy
func (c *Connector) WithRetry(attempts uint, delay time.Duration) *Connector {
	c.attempts = attempts
	c.delay = delay
	return c
}

func dialEthclient(ctx context.Context, rpcURL string) (Backend, error) {
	return ethclient.DialContext(ctx, rpcURL)
}

// Connect dials the profile's endpoint, checks the chain ID and loads the signer.
// Dialing and the chain ID query are read-only and retried.
func (c *Connector) Connect(ctx context.Context, profile *config.NetworkProfile) (usecase.ChainSession, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(profile.PrivateKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid private key for '%s': %v", domain.ErrMissingCredential, profile.Name, err)
	}

	var (
		backend Backend
		chainID *big.Int
	)
	err = retry.Do(func() error {
		dialCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
		defer cancel()

		b, err := c.dial(dialCtx, profile.RPCURL)
		if err != nil {
			return err
		}
		id, err := b.ChainID(dialCtx)
		if err != nil {
			closeBackend(b)
			return err
		}
		backend, chainID = b, id
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warn("rpc not reachable, retrying", "profile", profile.Name, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot reach %s: %v", domain.ErrConfirmationServiceUnavailable, profile.RPCURL, err)
	}

	if profile.ChainID != 0 && chainID.Uint64() != profile.ChainID {
		closeBackend(backend)
		return nil, fmt.Errorf("%w: profile '%s' expects chain %d, node reports %d",
			domain.ErrNetworkMismatch, profile.Name, profile.ChainID, chainID.Uint64())
	}

	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		closeBackend(backend)
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}

	c.log.Debug("connected", "profile", profile.Name, "chain_id", chainID.Uint64(), "deployer", opts.From.Hex())

	return newSession(backend, opts, chainID, profile, c.log), nil
}

func closeBackend(b Backend) {
	if closer, ok := b.(interface{ Close() }); ok {
		closer.Close()
	}
}

var _ usecase.ChainConnector = (*Connector)(nil)
