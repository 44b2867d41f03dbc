package adapters

import (
	"github.com/google/wire"
	"github.com/trebuchet-org/vault-deployer/internal/adapters/artifacts"
	"github.com/trebuchet-org/vault-deployer/internal/adapters/blockchain"
	"github.com/trebuchet-org/vault-deployer/internal/adapters/fs"
	"github.com/trebuchet-org/vault-deployer/internal/adapters/interactive"
	"github.com/trebuchet-org/vault-deployer/internal/adapters/network"
	"github.com/trebuchet-org/vault-deployer/internal/adapters/plan"
	"github.com/trebuchet-org/vault-deployer/internal/adapters/verification"
	"github.com/trebuchet-org/vault-deployer/internal/usecase"
)

// FSSet provides filesystem-based implementations
var FSSet = wire.NewSet(
	fs.NewManifestStoreAdapter,
	wire.Bind(new(usecase.ManifestStore), new(*fs.ManifestStoreAdapter)),

	fs.NewRunStateStoreAdapter,
	wire.Bind(new(usecase.RunStateStore), new(*fs.RunStateStoreAdapter)),
)

// ProjectSet provides plan and artifact sources
var ProjectSet = wire.NewSet(
	plan.NewLoader,
	wire.Bind(new(usecase.PlanLoader), new(*plan.Loader)),

	artifacts.NewRepository,
	wire.Bind(new(usecase.ArtifactRepository), new(*artifacts.Repository)),
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.ProfileSelector), new(*interactive.SelectorAdapter)),

	interactive.NewConfirmAdapter,
	wire.Bind(new(usecase.DeployConfirmer), new(*interactive.ConfirmAdapter)),
)

// ConfigSet provides configuration-based implementations
var ConfigSet = wire.NewSet(
	network.NewResolver,
	wire.Bind(new(usecase.ProfileResolver), new(*network.Resolver)),
)

// BlockchainSet provides blockchain-based implementations
var BlockchainSet = wire.NewSet(
	blockchain.NewConnector,
	wire.Bind(new(usecase.ChainConnector), new(*blockchain.Connector)),
)

// VerificationSet provides source verification
var VerificationSet = wire.NewSet(
	verification.NewForgeVerifier,
	wire.Bind(new(usecase.ContractVerifier), new(*verification.ForgeVerifier)),
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	FSSet,
	ProjectSet,
	InteractiveSet,
	ConfigSet,
	BlockchainSet,
	VerificationSet,
)
