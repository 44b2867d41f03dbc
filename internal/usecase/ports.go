package usecase

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/vault-deployer/internal/domain/config"
	"github.com/trebuchet-org/vault-deployer/internal/domain/models"
)

// ProfileResolver selects a network profile by name
type ProfileResolver interface {
	Resolve(ctx context.Context, selector string) (*config.NetworkProfile, error)
	Profiles(ctx context.Context) []string
}

// ArtifactRepository provides compiled contracts keyed by contract name
type ArtifactRepository interface {
	GetArtifact(ctx context.Context, name string) (*models.Artifact, error)
}

// PlanLoader reads a deployment plan. An empty path selects the built-in plan.
type PlanLoader interface {
	Load(ctx context.Context, path string) (*models.Plan, error)
}

// PendingTransaction is a submitted but unconfirmed transaction
type PendingTransaction struct {
	Hash common.Hash
	// ContractAddress is set for contract creations
	ContractAddress common.Address
	Tx              *types.Transaction
}

// TransactionSubmitter signs and sends transactions according to the profile's gas policy
type TransactionSubmitter interface {
	SubmitCreation(ctx context.Context, code []byte) (*PendingTransaction, error)
	SubmitCall(ctx context.Context, to common.Address, data []byte) (*PendingTransaction, error)
}

// ConfirmationWaiter blocks until a transaction is mined, reverted or the context ends
type ConfirmationWaiter interface {
	WaitConfirmed(ctx context.Context, tx *PendingTransaction) (*models.Receipt, error)
}

// ChainSession is a connection to one network with one signer
type ChainSession interface {
	TransactionSubmitter
	ConfirmationWaiter
	ChainID() uint64
	Deployer() common.Address
	HasCode(ctx context.Context, address common.Address) (bool, error)
	Close()
}

// ChainConnector opens a session for a profile
type ChainConnector interface {
	Connect(ctx context.Context, profile *config.NetworkProfile) (ChainSession, error)
}

// ManifestStore persists deployment manifests per network
type ManifestStore interface {
	Save(ctx context.Context, manifest *models.Manifest) error
	Load(ctx context.Context, network string) (*models.Manifest, error)
}

// RunStateStore persists run state for explicit resume
type RunStateStore interface {
	Save(ctx context.Context, state *models.RunState) error
	Load(ctx context.Context, plan, network string) (*models.RunState, error)
}

// VerificationRequest describes one contract to verify on a block explorer
type VerificationRequest struct {
	Contract        *models.DeployedContract
	SourceName      string
	ChainID         uint64
	Profile         *config.NetworkProfile
	Compiler        config.CompilerConfig
	ConstructorArgs string
}

// VerificationOutcome is the result per verifier
type VerificationOutcome struct {
	Verifier string
	Status   string
	URL      string
	Reason   string
}

// ContractVerifier submits source verification for a deployed contract
type ContractVerifier interface {
	Verify(ctx context.Context, req VerificationRequest) ([]VerificationOutcome, error)
}

// DeployConfirmer asks the operator before live submissions
type DeployConfirmer interface {
	ConfirmDeployment(ctx context.Context, profile *config.NetworkProfile, plan *models.Plan) (bool, error)
}

// ProfileSelector lets the operator pick a profile when none was given
type ProfileSelector interface {
	SelectProfile(ctx context.Context, profiles []string) (string, error)
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}
