package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"github.com/trebuchet-org/vault-deployer/internal/domain"
	"github.com/trebuchet-org/vault-deployer/internal/domain/config"
	"github.com/trebuchet-org/vault-deployer/internal/domain/models"
)

// VerifyDeploymentParams contains parameters for verification
type VerifyDeploymentParams struct {
	Network   string
	Contracts []string // step names; empty verifies everything in the manifest
}

// ContractVerification is the verification outcome of one contract
type ContractVerification struct {
	Contract *models.DeployedContract
	Outcomes []VerificationOutcome
	Error    error
}

// VerifyDeploymentResult contains the result of verification
type VerifyDeploymentResult struct {
	Network  string
	Results  []*ContractVerification
	Skipped  []string
	Verified int
	Failed   int
}

// VerifyDeployment submits source verification for the contracts in a network's manifest
type VerifyDeployment struct {
	profiles  ProfileResolver
	manifests ManifestStore
	artifacts ArtifactRepository
	verifier  ContractVerifier
	cfg       *config.RuntimeConfig
	progress  ProgressSink
	log       *slog.Logger
}

// NewVerifyDeployment creates a new verify deployment use case
func NewVerifyDeployment(
	profiles ProfileResolver,
	manifests ManifestStore,
	artifacts ArtifactRepository,
	verifier ContractVerifier,
	cfg *config.RuntimeConfig,
	progress ProgressSink,
	log *slog.Logger,
) *VerifyDeployment {
	return &VerifyDeployment{
		profiles:  profiles,
		manifests: manifests,
		artifacts: artifacts,
		verifier:  verifier,
		cfg:       cfg,
		progress:  progress,
		log:       log,
	}
}

// Run executes the use case
func (uc *VerifyDeployment) Run(ctx context.Context, params VerifyDeploymentParams) (*VerifyDeploymentResult, error) {
	profile, err := uc.profiles.Resolve(ctx, params.Network)
	if err != nil {
		return nil, err
	}
	if profile.Ephemeral {
		return nil, fmt.Errorf("%w: '%s' is an ephemeral network", domain.ErrVerificationFailed, profile.Name)
	}

	manifest, err := uc.manifests.Load(ctx, profile.Name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("no deployments recorded for '%s'", profile.Name)
		}
		return nil, err
	}

	targets := manifest.Contracts
	if len(params.Contracts) > 0 {
		var missing []string
		targets, missing = selectContracts(manifest, params.Contracts)
		if len(missing) > 0 {
			return nil, fmt.Errorf("%w: %v not in the %s manifest", domain.ErrNotFound, missing, profile.Name)
		}
	}

	result := &VerifyDeploymentResult{Network: profile.Name}
	compiler := config.CompilerConfig{}
	if uc.cfg.DeployConfig != nil {
		compiler = uc.cfg.DeployConfig.Compiler
	}

	for i, contract := range targets {
		uc.progress.OnProgress(ctx, ProgressEvent{
			Stage:   "verifying",
			Current: i + 1,
			Total:   len(targets),
			Message: fmt.Sprintf("Verifying %s at %s", contract.Name, contract.Address.Hex()),
			Spinner: true,
		})

		artifact, err := uc.artifacts.GetArtifact(ctx, contract.Contract)
		if err != nil {
			result.Skipped = append(result.Skipped, contract.Name)
			uc.log.Warn("skipping verification", "contract", contract.Name, "error", err)
			continue
		}

		outcomes, err := uc.verifier.Verify(ctx, VerificationRequest{
			Contract:        contract,
			SourceName:      artifact.SourceName,
			ChainID:         manifest.ChainID,
			Profile:         profile,
			Compiler:        compiler,
			ConstructorArgs: contract.ConstructorArgs,
		})
		cv := &ContractVerification{Contract: contract, Outcomes: outcomes, Error: err}
		result.Results = append(result.Results, cv)
		if err != nil {
			result.Failed++
		} else {
			result.Verified++
		}
	}

	uc.progress.OnProgress(ctx, ProgressEvent{Stage: "verify_completed"})
	return result, nil
}

func selectContracts(manifest *models.Manifest, names []string) ([]*models.DeployedContract, []string) {
	var missing []string
	selected := lo.FilterMap(names, func(name string, _ int) (*models.DeployedContract, bool) {
		c := manifest.Contract(name)
		if c == nil {
			missing = append(missing, name)
		}
		return c, c != nil
	})
	return selected, missing
}
