package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
)

// envVarPattern matches ${VAR_NAME} patterns in TOML values
var envVarPattern = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_]*)\}$`)

// DetectEnvVar checks if a raw TOML value is a simple ${VAR_NAME} reference.
// Returns the variable name and true if the value is a pure env var reference.
func DetectEnvVar(rawValue string) (string, bool) {
	matches := envVarPattern.FindStringSubmatch(strings.TrimSpace(rawValue))
	if len(matches) == 2 {
		return matches[1], true
	}
	return "", false
}

// GenerateEnvVarName generates a conventional env var name for a profile field.
// Examples: (testnet, rpc_url) -> TESTNET_RPC_URL, (bsc-test, private_key) -> BSC_TEST_PRIVATE_KEY
func GenerateEnvVarName(profile, field string) string {
	name := strings.ToUpper(profile + "_" + field)
	return strings.NewReplacer("-", "_", ".", "_").Replace(name)
}

// ExpandValue expands ${VAR} and $VAR references from the environment
func ExpandValue(raw string) string {
	return strings.TrimSpace(os.ExpandEnv(raw))
}

// loadEnvFiles loads .env then .env.local from the project root.
// Variables already present in the environment win.
func loadEnvFiles(projectRoot string) {
	envFiles := []string{
		filepath.Join(projectRoot, ".env"),
		filepath.Join(projectRoot, ".env.local"),
	}

	for _, envFile := range envFiles {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
			}
		}
	}
}
