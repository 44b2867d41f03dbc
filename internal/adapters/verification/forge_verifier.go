package verification

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/trebuchet-org/vault-deployer/internal/domain"
	"github.com/trebuchet-org/vault-deployer/internal/domain/config"
	"github.com/trebuchet-org/vault-deployer/internal/usecase"
)

const (
	verifierEtherscan = "etherscan"
	verifierSourcify  = "sourcify"
)

// commandRunner runs a command in dir and returns its combined output
type commandRunner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// ForgeVerifier verifies sources with `forge verify-contract` on Etherscan-style explorers and Sourcify
type ForgeVerifier struct {
	projectRoot string
	run         commandRunner
	log         *slog.Logger
}

// NewForgeVerifier creates a new forge verifier
func NewForgeVerifier(cfg *config.RuntimeConfig, log *slog.Logger) *ForgeVerifier {
	return &ForgeVerifier{
		projectRoot: cfg.ProjectRoot,
		run:         execRunner,
		log:         log,
	}
}

// Verify submits the contract to every verifier. It fails only when all of them fail.
func (v *ForgeVerifier) Verify(ctx context.Context, req usecase.VerificationRequest) ([]usecase.VerificationOutcome, error) {
	var (
		outcomes []usecase.VerificationOutcome
		failures []string
	)

	for _, verifier := range []string{verifierEtherscan, verifierSourcify} {
		args := v.buildArgs(req, verifier)
		v.log.Debug("running forge", "args", strings.Join(args, " "))

		outcome := usecase.VerificationOutcome{Verifier: verifier}
		if err := v.execute(ctx, args); err != nil {
			outcome.Status = "failed"
			outcome.Reason = err.Error()
			failures = append(failures, fmt.Sprintf("%s: %v", verifier, err))
		} else {
			outcome.Status = "verified"
			outcome.URL = explorerURL(req, verifier)
		}
		outcomes = append(outcomes, outcome)
	}

	if len(failures) == len(outcomes) {
		return outcomes, fmt.Errorf("%w: %s", domain.ErrVerificationFailed, strings.Join(failures, "; "))
	}
	return outcomes, nil
}

// buildArgs builds the forge verify-contract arguments for one verifier
func (v *ForgeVerifier) buildArgs(req usecase.VerificationRequest, verifier string) []string {
	contract := req.Contract
	constructorArgs := strings.TrimPrefix(req.ConstructorArgs, "0x")

	args := []string{
		"verify-contract",
		contract.Address.Hex(),
		fmt.Sprintf("%s:%s", req.SourceName, contract.Contract),
		"--chain-id", strconv.FormatUint(req.ChainID, 10),
		"--watch",
	}

	switch verifier {
	case verifierSourcify:
		args = append(args, "--verifier", "sourcify")
	default:
		if req.Profile != nil && req.Profile.ExplorerURL != "" {
			args = append(args, "--verifier-url", req.Profile.ExplorerURL)
		}
		if req.Profile != nil && req.Profile.ExplorerAPIKey != "" {
			args = append(args, "--etherscan-api-key", req.Profile.ExplorerAPIKey)
		}
	}

	if req.Compiler.Version != "" {
		args = append(args, "--compiler-version", req.Compiler.Version)
	}
	if req.Compiler.OptimizerEnabled && req.Compiler.OptimizerRuns > 0 {
		args = append(args, "--num-of-optimizations", strconv.Itoa(req.Compiler.OptimizerRuns))
	}
	if constructorArgs != "" {
		args = append(args, "--constructor-args", constructorArgs)
	}

	return args
}

// execute runs forge and interprets its output
func (v *ForgeVerifier) execute(ctx context.Context, args []string) error {
	output, err := v.run(ctx, v.projectRoot, "forge", args...)
	outputStr := strings.TrimSpace(string(output))

	if alreadyVerified(outputStr) {
		return nil
	}
	if err != nil {
		if outputStr == "" {
			return err
		}
		return fmt.Errorf("verification failed: %s", outputStr)
	}
	if strings.Contains(outputStr, "Contract successfully verified") {
		return nil
	}
	return fmt.Errorf("verification status unclear: %s", outputStr)
}

func alreadyVerified(output string) bool {
	return strings.Contains(output, "Already Verified") ||
		strings.Contains(strings.ToLower(output), "already verified")
}

func explorerURL(req usecase.VerificationRequest, verifier string) string {
	address := req.Contract.Address.Hex()
	if verifier == verifierSourcify {
		return fmt.Sprintf("https://sourcify.dev/#/lookup/%s", address)
	}
	if req.Profile == nil || req.Profile.ExplorerURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/address/%s#code", strings.TrimSuffix(req.Profile.ExplorerURL, "/"), address)
}

var _ usecase.ContractVerifier = (*ForgeVerifier)(nil)
