package blockchain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/vault-deployer/internal/domain"
	"github.com/trebuchet-org/vault-deployer/internal/usecase"
)

// scriptedBackend answers receipt queries from a script
type scriptedBackend struct {
	Backend
	responses []func() (*types.Receipt, error)
	calls     int
	callErr   error
}

func (b *scriptedBackend) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	i := b.calls
	b.calls++
	if i >= len(b.responses) {
		i = len(b.responses) - 1
	}
	return b.responses[i]()
}

func (b *scriptedBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return nil, b.callErr
}

func notFound() (*types.Receipt, error) { return nil, ethereum.NotFound }

func mined(status uint64) func() (*types.Receipt, error) {
	return func() (*types.Receipt, error) {
		return &types.Receipt{Status: status, BlockNumber: big.NewInt(7), GasUsed: 21000}, nil
	}
}

func transportErr() (*types.Receipt, error) { return nil, errors.New("connection reset by peer") }

// rpcDataError mimics a JSON-RPC error carrying revert data
type rpcDataError struct{ data string }

func (e rpcDataError) Error() string          { return "execution reverted" }
func (e rpcDataError) ErrorCode() int         { return 3 }
func (e rpcDataError) ErrorData() interface{} { return e.data }

func newTestWaiter(b Backend) *Waiter {
	return NewWaiter(b, common.HexToAddress("0x01"), time.Millisecond, testLogger())
}

func pendingTx() *usecase.PendingTransaction {
	to := common.HexToAddress("0x02")
	tx := types.NewTx(&types.LegacyTx{To: &to, Gas: 50000, GasPrice: big.NewInt(1)})
	return &usecase.PendingTransaction{Hash: tx.Hash(), Tx: tx}
}

func TestWaiter_PollsUntilMined(t *testing.T) {
	b := &scriptedBackend{responses: []func() (*types.Receipt, error){notFound, notFound, transportErr, mined(types.ReceiptStatusSuccessful)}}

	receipt, err := newTestWaiter(b).WaitConfirmed(context.Background(), pendingTx())
	require.NoError(t, err)
	assert.Equal(t, uint64(7), receipt.BlockNumber)
	assert.Equal(t, uint64(21000), receipt.GasUsed)
	assert.Equal(t, 4, b.calls)
}

func TestWaiter_ServiceUnavailable(t *testing.T) {
	b := &scriptedBackend{responses: []func() (*types.Receipt, error){transportErr}}

	_, err := newTestWaiter(b).WaitConfirmed(context.Background(), pendingTx())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfirmationServiceUnavailable)
	assert.Equal(t, maxConsecutiveErrors, b.calls)
}

func TestWaiter_NotFoundResetsErrorCount(t *testing.T) {
	script := []func() (*types.Receipt, error){}
	for i := 0; i < 3; i++ {
		script = append(script, transportErr, transportErr, transportErr, transportErr, notFound)
	}
	script = append(script, mined(types.ReceiptStatusSuccessful))
	b := &scriptedBackend{responses: script}

	_, err := newTestWaiter(b).WaitConfirmed(context.Background(), pendingTx())
	assert.NoError(t, err)
}

func TestWaiter_Timeout(t *testing.T) {
	b := &scriptedBackend{responses: []func() (*types.Receipt, error){notFound}}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestWaiter(b).WaitConfirmed(ctx, pendingTx())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransactionTimeout)
}

func TestWaiter_Cancelled(t *testing.T) {
	b := &scriptedBackend{responses: []func() (*types.Receipt, error){notFound}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestWaiter(b).WaitConfirmed(ctx, pendingTx())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaiter_RevertReason(t *testing.T) {
	// Error(string) "not owner"
	reasonData := "0x08c379a0" +
		"0000000000000000000000000000000000000000000000000000000000000020" +
		"0000000000000000000000000000000000000000000000000000000000000009" +
		"6e6f74206f776e65720000000000000000000000000000000000000000000000"

	tests := []struct {
		name    string
		callErr error
		want    string
	}{
		{name: "decoded reason", callErr: rpcDataError{data: reasonData}, want: "not owner"},
		{name: "custom error", callErr: rpcDataError{data: "0x12345678"}, want: "custom error 0x12345678"},
		{name: "plain error", callErr: errors.New("execution reverted"), want: "execution reverted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &scriptedBackend{
				responses: []func() (*types.Receipt, error){mined(types.ReceiptStatusFailed)},
				callErr:   tt.callErr,
			}
			pending := pendingTx()

			_, err := newTestWaiter(b).WaitConfirmed(context.Background(), pending)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrTransactionReverted)

			var revert *domain.RevertError
			require.ErrorAs(t, err, &revert)
			assert.Equal(t, tt.want, revert.Reason)
			assert.Equal(t, pending.Hash.Hex(), revert.TxHash)
		})
	}
}
