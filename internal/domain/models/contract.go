package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// BytecodeObject holds hex bytecode. Hardhat writes a bare string, Foundry an object.
type BytecodeObject struct {
	Object         string         `json:"object"`
	LinkReferences map[string]any `json:"linkReferences,omitempty"`
}

// UnmarshalJSON accepts both "0x..." and {"object": "0x..."}
func (b *BytecodeObject) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		b.Object = s
		return nil
	}
	type alias BytecodeObject
	var obj alias
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("bytecode must be a hex string or object: %w", err)
	}
	*b = BytecodeObject(obj)
	return nil
}

// Bytes decodes the hex object
func (b BytecodeObject) Bytes() ([]byte, error) {
	obj := strings.TrimSpace(b.Object)
	if strings.Contains(obj, "__") {
		return nil, fmt.Errorf("bytecode has unlinked library references")
	}
	hex := strings.TrimPrefix(obj, "0x")
	if len(hex)%2 != 0 {
		return nil, fmt.Errorf("bytecode has odd hex length")
	}
	return common.FromHex(obj), nil
}

// Empty reports whether the artifact carries no code (interfaces, abstract contracts)
func (b BytecodeObject) Empty() bool {
	obj := strings.TrimPrefix(strings.TrimSpace(b.Object), "0x")
	return obj == ""
}

// Artifact represents a compiled contract from a Hardhat or Foundry build
type Artifact struct {
	ContractName     string          `json:"contractName"`
	SourceName       string          `json:"sourceName"`
	ABI              json.RawMessage `json:"abi"`
	Bytecode         BytecodeObject  `json:"bytecode"`
	DeployedBytecode BytecodeObject  `json:"deployedBytecode"`

	// Path of the artifact file on disk
	Path string `json:"-"`
}

// RuntimeSize returns the deployed bytecode length in bytes
func (a *Artifact) RuntimeSize() int {
	code, err := a.DeployedBytecode.Bytes()
	if err != nil {
		return 0
	}
	return len(code)
}
