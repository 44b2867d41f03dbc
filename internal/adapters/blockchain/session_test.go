package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/vault-deployer/internal/domain"
	"github.com/trebuchet-org/vault-deployer/internal/domain/config"
	"github.com/trebuchet-org/vault-deployer/internal/usecase"
)

var (
	// returns a single STOP byte as runtime code
	stopContract = common.FromHex("0x6001600c60003960016000f300")
	// reverts with empty data
	revertingInit = common.FromHex("0x60006000fd")
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSimBackend(t *testing.T) (*simulated.Backend, *ecdsa.PrivateKey) {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	balance := new(big.Int).Mul(big.NewInt(1000), big.NewInt(1e18))
	sim := simulated.NewBackend(
		types.GenesisAlloc{crypto.PubkeyToAddress(key.PublicKey): {Balance: balance}},
		simulated.WithBlockGasLimit(50_000_000),
	)
	t.Cleanup(func() { _ = sim.Close() })
	return sim, key
}

// startAutoMine commits a block every blockTime until the test ends
func startAutoMine(t *testing.T, sim *simulated.Backend, blockTime time.Duration) {
	t.Helper()

	ctx := t.Context()
	ticker := time.NewTicker(blockTime)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sim.Commit()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func simProfile(key *ecdsa.PrivateKey, gas config.GasPolicy) *config.NetworkProfile {
	return &config.NetworkProfile{
		Name:           "local",
		RPCURL:         "simulated",
		PrivateKey:     hexutil.Encode(crypto.FromECDSA(key)),
		Ephemeral:      true,
		Gas:            gas,
		ConfirmTimeout: 10 * time.Second,
		PollInterval:   10 * time.Millisecond,
	}
}

func simDialer(sim *simulated.Backend) DialFunc {
	return func(ctx context.Context, rpcURL string) (Backend, error) {
		return sim.Client(), nil
	}
}

func connectSim(t *testing.T, sim *simulated.Backend, profile *config.NetworkProfile) *Session {
	t.Helper()
	session, err := NewConnectorWithDialer(simDialer(sim), testLogger()).Connect(context.Background(), profile)
	require.NoError(t, err)
	return session.(*Session)
}

func autoGas() config.GasPolicy {
	return config.GasPolicy{Mode: config.GasModeAuto, Multiplier: 1.2}
}

func TestConnector_Connect(t *testing.T) {
	sim, key := newSimBackend(t)

	session := connectSim(t, sim, simProfile(key, autoGas()))
	assert.Equal(t, uint64(1337), session.ChainID())
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), session.Deployer())
}

func TestConnector_ChainMismatch(t *testing.T) {
	sim, key := newSimBackend(t)
	profile := simProfile(key, autoGas())
	profile.ChainID = 250

	_, err := NewConnectorWithDialer(simDialer(sim), testLogger()).Connect(context.Background(), profile)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNetworkMismatch)
	assert.Contains(t, err.Error(), "expects chain 250, node reports 1337")
}

func TestConnector_DialRetries(t *testing.T) {
	_, key := newSimBackend(t)
	attempts := 0
	dial := func(ctx context.Context, rpcURL string) (Backend, error) {
		attempts++
		return nil, errors.New("dial tcp 127.0.0.1:8545: connect: connection refused")
	}

	connector := NewConnectorWithDialer(dial, testLogger()).WithRetry(3, time.Millisecond)
	_, err := connector.Connect(context.Background(), simProfile(key, autoGas()))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfirmationServiceUnavailable)
	assert.Equal(t, 3, attempts)
}

func TestConnector_InvalidKey(t *testing.T) {
	sim, key := newSimBackend(t)
	profile := simProfile(key, autoGas())
	profile.PrivateKey = "0xnothex"

	_, err := NewConnectorWithDialer(simDialer(sim), testLogger()).Connect(context.Background(), profile)
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
}

func TestSession_DeployAndConfirm(t *testing.T) {
	sim, key := newSimBackend(t)
	startAutoMine(t, sim, 20*time.Millisecond)
	session := connectSim(t, sim, simProfile(key, autoGas()))
	ctx := context.Background()

	pending, err := session.SubmitCreation(ctx, stopContract)
	require.NoError(t, err)
	assert.Equal(t, crypto.CreateAddress(session.Deployer(), 0), pending.ContractAddress)

	receipt, err := session.WaitConfirmed(ctx, pending)
	require.NoError(t, err)
	assert.Equal(t, pending.Hash, receipt.TxHash)
	assert.Equal(t, pending.ContractAddress, receipt.ContractAddress)
	assert.NotZero(t, receipt.BlockNumber)
	assert.NotZero(t, receipt.GasUsed)

	ok, err := session.HasCode(ctx, receipt.ContractAddress)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = session.HasCode(ctx, common.HexToAddress("0x1234"))
	require.NoError(t, err)
	assert.False(t, ok)

	// a call to a contract without functions still succeeds (STOP)
	call, err := session.SubmitCall(ctx, receipt.ContractAddress, []byte{0xde, 0xad, 0xbe, 0xef})
	require.NoError(t, err)
	_, err = session.WaitConfirmed(ctx, call)
	require.NoError(t, err)
}

func TestSession_SubmitCancelledIsNotARevert(t *testing.T) {
	sim, key := newSimBackend(t)
	session := connectSim(t, sim, simProfile(key, autoGas()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := session.SubmitCreation(ctx, stopContract)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCancelled)
	assert.NotErrorIs(t, err, domain.ErrTransactionReverted)
	assert.Equal(t, domain.FaultCancelled, domain.KindOf(err))
}

func TestSession_FixedGasRevertIsMined(t *testing.T) {
	sim, key := newSimBackend(t)
	startAutoMine(t, sim, 20*time.Millisecond)
	session := connectSim(t, sim, simProfile(key, config.GasPolicy{Mode: config.GasModeFixed, GasLimit: 200_000}))

	pending, err := session.SubmitCreation(context.Background(), revertingInit)
	require.NoError(t, err)
	assert.Equal(t, uint64(200_000), pending.Tx.Gas())

	_, err = session.WaitConfirmed(context.Background(), pending)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransactionReverted)

	var revert *domain.RevertError
	require.ErrorAs(t, err, &revert)
	assert.Equal(t, pending.Hash.Hex(), revert.TxHash)
	assert.Contains(t, revert.Reason, "execution reverted")
}

func TestSession_AutoGasRevertFailsEstimation(t *testing.T) {
	sim, key := newSimBackend(t)
	session := connectSim(t, sim, simProfile(key, autoGas()))

	_, err := session.SubmitCreation(context.Background(), revertingInit)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransactionReverted)
	assert.Contains(t, err.Error(), "gas estimation failed")
}

func TestSession_ConfirmationTimeout(t *testing.T) {
	sim, key := newSimBackend(t)
	session := connectSim(t, sim, simProfile(key, autoGas()))

	pending, err := session.SubmitCreation(context.Background(), stopContract)
	require.NoError(t, err)

	// nothing mines the block
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = session.WaitConfirmed(ctx, pending)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransactionTimeout)
}

func TestClassifySubmitError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "reverted", err: errors.New("execution reverted: not owner"), want: domain.ErrTransactionReverted},
		{name: "rejected", err: errors.New("insufficient funds for gas * price + value"), want: domain.ErrTransactionReverted},
		{name: "refused", err: errors.New("Post \"http://127.0.0.1:8545\": dial tcp: connection refused"), want: domain.ErrConfirmationServiceUnavailable},
		{name: "eof", err: io.EOF, want: domain.ErrConfirmationServiceUnavailable},
		{name: "cancelled", err: fmt.Errorf("gas estimation failed: %w", context.Canceled), want: domain.ErrCancelled},
		{name: "deadline", err: context.DeadlineExceeded, want: domain.ErrTransactionTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifySubmitError(tt.err)
			assert.ErrorIs(t, err, tt.want)
			if tt.want != domain.ErrTransactionReverted {
				assert.NotErrorIs(t, err, domain.ErrTransactionReverted)
			}
		})
	}
}

var _ usecase.ChainSession = (*Session)(nil)
