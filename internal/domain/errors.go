package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for deployment operations
var (
	// ErrProfileNotFound is returned when a selector matches no configured network profile
	ErrProfileNotFound = errors.New("profile not found")

	// ErrMissingCredential is returned when a live profile lacks an RPC endpoint or signing key
	ErrMissingCredential = errors.New("missing credential")

	// ErrArgumentMismatch is returned when arguments don't fit the artifact's ABI
	ErrArgumentMismatch = errors.New("argument mismatch")

	// ErrDanglingReference is returned when an argument references a step that has not run yet
	ErrDanglingReference = errors.New("dangling reference")

	// ErrTransactionReverted is returned when the network rejects or reverts a transaction
	ErrTransactionReverted = errors.New("transaction reverted")

	// ErrTransactionTimeout is returned when a transaction is not confirmed in time
	ErrTransactionTimeout = errors.New("transaction timeout")

	// ErrConfirmationServiceUnavailable is returned when the node cannot be reached
	ErrConfirmationServiceUnavailable = errors.New("confirmation service unavailable")

	// ErrArtifactNotFound is returned when no compiled artifact exists for a contract name
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrContractTooLarge is returned when runtime bytecode exceeds the profile's size limit
	ErrContractTooLarge = errors.New("contract too large")

	// ErrInvalidPlan is returned when a deployment plan is structurally broken
	ErrInvalidPlan = errors.New("invalid plan")

	// ErrNetworkMismatch is returned when the node's chain ID differs from the profile
	ErrNetworkMismatch = errors.New("network mismatch")

	// ErrCancelled is returned when a run is stopped between steps
	ErrCancelled = errors.New("deployment cancelled")

	// ErrNotFound is returned when a requested record doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrVerificationFailed is returned when source verification fails
	ErrVerificationFailed = errors.New("verification failed")
)

// FaultKind names the class of a deployment failure
type FaultKind string

const (
	FaultProfileNotFound                FaultKind = "ProfileNotFound"
	FaultMissingCredential              FaultKind = "MissingCredential"
	FaultArgumentMismatch               FaultKind = "ArgumentMismatch"
	FaultDanglingReference              FaultKind = "DanglingReference"
	FaultTransactionReverted            FaultKind = "TransactionReverted"
	FaultTransactionTimeout             FaultKind = "TransactionTimeout"
	FaultConfirmationServiceUnavailable FaultKind = "ConfirmationServiceUnavailable"
	FaultArtifactNotFound               FaultKind = "ArtifactNotFound"
	FaultContractTooLarge               FaultKind = "ContractTooLarge"
	FaultInvalidPlan                    FaultKind = "InvalidPlan"
	FaultNetworkMismatch                FaultKind = "NetworkMismatch"
	FaultCancelled                      FaultKind = "Cancelled"
	FaultUnknown                        FaultKind = "Unknown"
)

var faultKinds = []struct {
	err  error
	kind FaultKind
}{
	{ErrProfileNotFound, FaultProfileNotFound},
	{ErrMissingCredential, FaultMissingCredential},
	{ErrArgumentMismatch, FaultArgumentMismatch},
	{ErrDanglingReference, FaultDanglingReference},
	{ErrTransactionReverted, FaultTransactionReverted},
	{ErrTransactionTimeout, FaultTransactionTimeout},
	{ErrConfirmationServiceUnavailable, FaultConfirmationServiceUnavailable},
	{ErrArtifactNotFound, FaultArtifactNotFound},
	{ErrContractTooLarge, FaultContractTooLarge},
	{ErrInvalidPlan, FaultInvalidPlan},
	{ErrNetworkMismatch, FaultNetworkMismatch},
	{ErrCancelled, FaultCancelled},
}

// KindOf classifies an error chain into a FaultKind
func KindOf(err error) FaultKind {
	if err == nil {
		return ""
	}
	for _, fk := range faultKinds {
		if errors.Is(err, fk.err) {
			return fk.kind
		}
	}
	return FaultUnknown
}

// IsPreflight reports whether the fault is raised before any transaction is submitted
func (k FaultKind) IsPreflight() bool {
	switch k {
	case FaultProfileNotFound, FaultMissingCredential, FaultArgumentMismatch,
		FaultDanglingReference, FaultArtifactNotFound, FaultContractTooLarge, FaultInvalidPlan:
		return true
	}
	return false
}

// ProfileNotFoundError carries the unknown selector and close matches
type ProfileNotFoundError struct {
	Selector    string
	Suggestions []string
}

func (e *ProfileNotFoundError) Error() string {
	msg := fmt.Sprintf("network profile '%s' not found", e.Selector)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean: %s?)", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

func (e *ProfileNotFoundError) Unwrap() error { return ErrProfileNotFound }

// MissingCredentialError names the profile and the absent field
type MissingCredentialError struct {
	Profile string
	Field   string
	EnvVar  string
}

func (e *MissingCredentialError) Error() string {
	if e.EnvVar != "" {
		return fmt.Sprintf("profile '%s' requires %s (set %s)", e.Profile, e.Field, e.EnvVar)
	}
	return fmt.Sprintf("profile '%s' requires %s", e.Profile, e.Field)
}

func (e *MissingCredentialError) Unwrap() error { return ErrMissingCredential }

// RevertError describes a mined transaction with a failed status
type RevertError struct {
	TxHash string
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("tx %s reverted: %s", e.TxHash, e.Reason)
	}
	return fmt.Sprintf("tx %s reverted", e.TxHash)
}

func (e *RevertError) Unwrap() error { return ErrTransactionReverted }
