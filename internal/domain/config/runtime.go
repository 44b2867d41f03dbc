package config

import (
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string

	// Context settings
	Network      string // profile selector, empty if not specified
	PlanPath     string // empty selects the built-in plan
	ArtifactsDir string

	// Execution settings
	Debug          bool
	NonInteractive bool
	JSON           bool
	Timeout        time.Duration
	ConfirmTimeout time.Duration // overrides the profile value when set

	// Command-specific settings (only populated for relevant commands)
	DryRun bool
	Resume bool
	Yes    bool

	// Resolved configurations
	DeployConfig *DeployConfig
	ConfigSource string // "deploy.toml" or "defaults"
}
