package blockchain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/vault-deployer/internal/domain"
	"github.com/trebuchet-org/vault-deployer/internal/domain/config"
	"github.com/trebuchet-org/vault-deployer/internal/usecase"
)

// Session signs and submits transactions for one profile and waits for them
type Session struct {
	*Waiter

	backend Backend
	opts    *bind.TransactOpts
	chainID *big.Int
	profile *config.NetworkProfile
	log     *slog.Logger
}

func newSession(backend Backend, opts *bind.TransactOpts, chainID *big.Int, profile *config.NetworkProfile, log *slog.Logger) *Session {
	return &Session{
		Waiter:  NewWaiter(backend, opts.From, profile.PollInterval, log),
		backend: backend,
		opts:    opts,
		chainID: chainID,
		profile: profile,
		log:     log,
	}
}

// ChainID returns the connected chain's ID
func (s *Session) ChainID() uint64 { return s.chainID.Uint64() }

// Deployer returns the signing address
func (s *Session) Deployer() common.Address { return s.opts.From }

// Close releases the underlying connection
func (s *Session) Close() { closeBackend(s.backend) }

// HasCode reports whether runtime code exists at address
func (s *Session) HasCode(ctx context.Context, address common.Address) (bool, error) {
	code, err := s.backend.CodeAt(ctx, address, nil)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrConfirmationServiceUnavailable, err)
	}
	return len(code) > 0, nil
}

// SubmitCreation sends a contract creation transaction
func (s *Session) SubmitCreation(ctx context.Context, code []byte) (*usecase.PendingTransaction, error) {
	opts, err := s.transactOpts(ctx, nil, code)
	if err != nil {
		return nil, err
	}

	address, tx, _, err := bind.DeployContract(opts, abi.ABI{}, code, s.backend)
	if err != nil {
		return nil, classifySubmitError(err)
	}

	s.log.Debug("creation submitted", "tx", tx.Hash().Hex(), "address", address.Hex(), "gas", tx.Gas())
	return &usecase.PendingTransaction{Hash: tx.Hash(), ContractAddress: address, Tx: tx}, nil
}

// SubmitCall sends a call transaction with pre-encoded calldata
func (s *Session) SubmitCall(ctx context.Context, to common.Address, data []byte) (*usecase.PendingTransaction, error) {
	opts, err := s.transactOpts(ctx, &to, data)
	if err != nil {
		return nil, err
	}

	contract := bind.NewBoundContract(to, abi.ABI{}, s.backend, s.backend, s.backend)
	tx, err := contract.RawTransact(opts, data)
	if err != nil {
		return nil, classifySubmitError(err)
	}

	s.log.Debug("call submitted", "tx", tx.Hash().Hex(), "to", to.Hex(), "gas", tx.Gas())
	return &usecase.PendingTransaction{Hash: tx.Hash(), Tx: tx}, nil
}

// transactOpts applies the profile's gas policy. Fixed limits skip estimation,
// so a reverting transaction is still mined and reported by the waiter.
func (s *Session) transactOpts(ctx context.Context, to *common.Address, data []byte) (*bind.TransactOpts, error) {
	opts := *s.opts
	opts.Context = ctx

	gas := s.profile.Gas
	if gas.GasPrice != nil {
		opts.GasPrice = new(big.Int).Set(gas.GasPrice)
	}

	switch gas.Mode {
	case config.GasModeFixed:
		opts.GasLimit = gas.GasLimit
	default:
		estimate, err := s.backend.EstimateGas(ctx, ethereum.CallMsg{From: opts.From, To: to, Data: data})
		if err != nil {
			return nil, classifySubmitError(fmt.Errorf("gas estimation failed: %w", err))
		}
		opts.GasLimit = uint64(float64(estimate) * gas.Multiplier)
		if opts.GasLimit < estimate {
			opts.GasLimit = estimate
		}
	}
	return &opts, nil
}

// classifySubmitError maps a submission error to the fault taxonomy.
// Transport failures are service problems; anything the node answered is a rejection.
// Context errors map to Cancelled and TransactionTimeout.
func classifySubmitError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: submission aborted: %v", domain.ErrCancelled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: submission did not complete: %v", domain.ErrTransactionTimeout, err)
	}
	if isTransportError(err) {
		return fmt.Errorf("%w: %v", domain.ErrConfirmationServiceUnavailable, err)
	}
	if strings.Contains(strings.ToLower(err.Error()), "execution reverted") {
		return fmt.Errorf("%w: %v", domain.ErrTransactionReverted, err)
	}
	return fmt.Errorf("%w: rejected by node: %v", domain.ErrTransactionReverted, err)
}

func isTransportError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host")
}

var _ usecase.ChainSession = (*Session)(nil)
