package blockchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/vault-deployer/internal/domain"
	"github.com/trebuchet-org/vault-deployer/internal/domain/models"
	"github.com/trebuchet-org/vault-deployer/internal/usecase"
)

// maxConsecutiveErrors is how many failed receipt queries in a row mean the node is gone
const maxConsecutiveErrors = 5

// Waiter polls for transaction receipts
type Waiter struct {
	backend  Backend
	from     common.Address
	interval time.Duration
	log      *slog.Logger
}

// NewWaiter creates a waiter polling every interval
func NewWaiter(backend Backend, from common.Address, interval time.Duration, log *slog.Logger) *Waiter {
	if interval <= 0 {
		interval = time.Second
	}
	return &Waiter{backend: backend, from: from, interval: interval, log: log}
}

// WaitConfirmed blocks until the transaction is mined or ctx ends.
// A mined transaction with failed status is returned as a *domain.RevertError.
func (w *Waiter) WaitConfirmed(ctx context.Context, pending *usecase.PendingTransaction) (*models.Receipt, error) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	failures := 0
	for {
		receipt, err := w.backend.TransactionReceipt(ctx, pending.Hash)
		switch {
		case err == nil:
			return w.settle(ctx, pending, receipt)
		case errors.Is(err, ethereum.NotFound):
			failures = 0
		case ctx.Err() != nil:
			// reported below
		default:
			failures++
			w.log.Debug("receipt query failed", "tx", pending.Hash.Hex(), "attempt", failures, "error", err)
			if failures >= maxConsecutiveErrors {
				return nil, fmt.Errorf("%w: %d receipt queries for %s failed: %v",
					domain.ErrConfirmationServiceUnavailable, failures, pending.Hash.Hex(), err)
			}
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: tx %s not mined before the deadline", domain.ErrTransactionTimeout, pending.Hash.Hex())
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *Waiter) settle(ctx context.Context, pending *usecase.PendingTransaction, receipt *types.Receipt) (*models.Receipt, error) {
	if receipt.Status == types.ReceiptStatusFailed {
		return nil, &domain.RevertError{
			TxHash: pending.Hash.Hex(),
			Reason: w.revertReason(ctx, pending.Tx, receipt),
		}
	}

	result := &models.Receipt{
		TxHash:          receipt.TxHash,
		GasUsed:         receipt.GasUsed,
		ContractAddress: receipt.ContractAddress,
	}
	if receipt.BlockNumber != nil {
		result.BlockNumber = receipt.BlockNumber.Uint64()
	}
	return result, nil
}

// revertReason replays a failed transaction to recover the revert message
func (w *Waiter) revertReason(ctx context.Context, tx *types.Transaction, receipt *types.Receipt) string {
	if tx == nil {
		return ""
	}
	call := ethereum.CallMsg{
		From:  w.from,
		To:    tx.To(),
		Data:  tx.Data(),
		Value: tx.Value(),
		Gas:   tx.Gas(),
	}
	_, err := w.backend.CallContract(ctx, call, receipt.BlockNumber)
	if err == nil {
		// The replay passed, which happens when it ran out of gas on chain
		if receipt.GasUsed == tx.Gas() {
			return "out of gas"
		}
		return ""
	}
	return decodeRevert(err)
}

// dataError matches the JSON-RPC error type, which go-ethereum keeps private
type dataError interface {
	Error() string
	ErrorData() interface{}
}

func decodeRevert(err error) string {
	var de dataError
	if !errors.As(err, &de) {
		return err.Error()
	}
	hexData, ok := de.ErrorData().(string)
	if !ok || hexData == "" {
		return de.Error()
	}
	data, decodeErr := hexutil.Decode(hexData)
	if decodeErr != nil {
		return hexData
	}
	if reason, unpackErr := abi.UnpackRevert(data); unpackErr == nil {
		return reason
	}
	if len(data) == 0 {
		return de.Error()
	}
	return "custom error " + hexData
}

var _ usecase.ConfirmationWaiter = (*Waiter)(nil)
