package usecase

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/vault-deployer/internal/domain"
	"github.com/trebuchet-org/vault-deployer/internal/domain/config"
	"github.com/trebuchet-org/vault-deployer/internal/domain/models"
)

// ContractFactory instantiates contracts from artifacts over one chain session.
// Every submission is awaited under the profile's confirmation timeout.
type ContractFactory struct {
	artifacts ArtifactRepository
	session   ChainSession
	profile   *config.NetworkProfile
	log       *slog.Logger
}

// NewContractFactory creates a factory bound to a session and profile
func NewContractFactory(
	artifacts ArtifactRepository,
	session ChainSession,
	profile *config.NetworkProfile,
	log *slog.Logger,
) *ContractFactory {
	return &ContractFactory{
		artifacts: artifacts,
		session:   session,
		profile:   profile,
		log:       log,
	}
}

// Instantiate deploys a contract and blocks until the creation is confirmed
func (f *ContractFactory) Instantiate(ctx context.Context, name, contract string, args []any) (*models.DeployedContract, error) {
	artifact, err := f.artifacts.GetArtifact(ctx, contract)
	if err != nil {
		return nil, err
	}
	parsed, err := parseABI(artifact)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrArgumentMismatch, err)
	}

	packed, err := packArguments(parsed.Constructor.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("constructor of %s: %w", contract, err)
	}

	code, err := artifact.Bytecode.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrArtifactNotFound, contract, err)
	}
	code = append(code, packed...)

	f.log.Debug("submitting contract creation", "step", name, "contract", contract, "size", len(code))

	pending, err := f.submit(ctx, func(submitCtx context.Context) (*PendingTransaction, error) {
		return f.session.SubmitCreation(submitCtx, code)
	})
	if err != nil {
		return nil, err
	}

	receipt, err := f.confirm(ctx, pending)
	if err != nil {
		return nil, err
	}

	address := receipt.ContractAddress
	if address == (common.Address{}) {
		address = pending.ContractAddress
	}

	f.log.Info("contract deployed", "step", name, "contract", contract, "address", address.Hex(), "block", receipt.BlockNumber)

	return &models.DeployedContract{
		Name:            name,
		Contract:        contract,
		Address:         address,
		TxHash:          receipt.TxHash,
		BlockNumber:     receipt.BlockNumber,
		ConstructorArgs: hex.EncodeToString(packed),
		Caller:          f.bind(address, parsed),
	}, nil
}

// Attach returns a handle for a contract deployed in an earlier run
func (f *ContractFactory) Attach(ctx context.Context, prior *models.DeployedContract) (*models.DeployedContract, error) {
	artifact, err := f.artifacts.GetArtifact(ctx, prior.Contract)
	if err != nil {
		return nil, err
	}
	parsed, err := parseABI(artifact)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrArgumentMismatch, err)
	}

	attached := *prior
	attached.Reused = true
	attached.Caller = f.bind(prior.Address, parsed)
	return &attached, nil
}

// Call sends a state-changing method call to a deployed contract and waits for it
func (f *ContractFactory) Call(ctx context.Context, target *models.DeployedContract, method string, args []any) (*models.Receipt, error) {
	if target.Caller == nil {
		attached, err := f.Attach(ctx, target)
		if err != nil {
			return nil, err
		}
		target.Caller = attached.Caller
	}
	return target.Caller.Transact(ctx, method, args...)
}

// submit runs a submission detached from parent cancellation. Stopping a run
// only takes effect between confirmed steps; the confirm timeout still bounds it.
func (f *ContractFactory) submit(ctx context.Context, send func(context.Context) (*PendingTransaction, error)) (*PendingTransaction, error) {
	submitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.profile.ConfirmTimeout)
	defer cancel()
	return send(submitCtx)
}

// confirm waits for a pending transaction. The wait ignores parent cancellation:
// a submitted transaction cannot be withdrawn, so only the timeout bounds it.
func (f *ContractFactory) confirm(ctx context.Context, pending *PendingTransaction) (*models.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.profile.ConfirmTimeout)
	defer cancel()

	receipt, err := f.session.WaitConfirmed(waitCtx, pending)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, domain.ErrTransactionTimeout) {
			return nil, fmt.Errorf("%w: tx %s not confirmed within %s", domain.ErrTransactionTimeout, pending.Hash.Hex(), f.profile.ConfirmTimeout)
		}
		return nil, err
	}
	return receipt, nil
}

func (f *ContractFactory) bind(address common.Address, parsed abi.ABI) models.ContractCaller {
	return &boundContract{factory: f, address: address, abi: parsed}
}

// boundContract implements models.ContractCaller for a deployed address
type boundContract struct {
	factory *ContractFactory
	address common.Address
	abi     abi.ABI
}

// Transact encodes a method call, submits it and waits for confirmation
func (b *boundContract) Transact(ctx context.Context, method string, args ...any) (*models.Receipt, error) {
	m, ok := b.abi.Methods[method]
	if !ok {
		return nil, fmt.Errorf("%w: no method %s", domain.ErrArgumentMismatch, method)
	}
	packed, err := packArguments(m.Inputs, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	data := append(append([]byte{}, m.ID...), packed...)

	b.factory.log.Debug("submitting call", "to", b.address.Hex(), "method", method)

	pending, err := b.factory.submit(ctx, func(submitCtx context.Context) (*PendingTransaction, error) {
		return b.factory.session.SubmitCall(submitCtx, b.address, data)
	})
	if err != nil {
		return nil, err
	}
	return b.factory.confirm(ctx, pending)
}

var _ models.ContractCaller = (*boundContract)(nil)
