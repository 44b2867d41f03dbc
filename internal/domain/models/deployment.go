package models

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Receipt is the confirmed outcome of a transaction
type Receipt struct {
	TxHash          common.Hash    `json:"txHash"`
	BlockNumber     uint64         `json:"blockNumber"`
	GasUsed         uint64         `json:"gasUsed"`
	ContractAddress common.Address `json:"contractAddress,omitempty"`
}

// ContractCaller issues confirmed transactions against a deployed contract
type ContractCaller interface {
	Transact(ctx context.Context, method string, args ...any) (*Receipt, error)
}

// DeployedContract is the result of one confirmed deployment step
type DeployedContract struct {
	Name            string         `json:"name"`
	Contract        string         `json:"contract"`
	Address         common.Address `json:"address"`
	TxHash          common.Hash    `json:"txHash"`
	BlockNumber     uint64         `json:"blockNumber"`
	ConstructorArgs string         `json:"constructorArgs,omitempty"`
	Reused          bool           `json:"reused,omitempty"`

	Caller ContractCaller `json:"-"`
}

// ActionResult is a confirmed post-deploy action
type ActionResult struct {
	Name        string         `json:"name"`
	Target      string         `json:"target"`
	Method      string         `json:"method"`
	Address     common.Address `json:"address"`
	TxHash      common.Hash    `json:"txHash"`
	BlockNumber uint64         `json:"blockNumber"`
	Reused      bool           `json:"reused,omitempty"`
}

// RunStatus is the persisted status of a run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCompleted RunStatus = "completed"
)

// FailureRecord is the persisted form of a step failure
type FailureRecord struct {
	Phase string `json:"phase"`
	Index int    `json:"index"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// Manifest is the deployment record written for a network
type Manifest struct {
	Network   string              `json:"network"`
	ChainID   uint64              `json:"chainId"`
	Plan      string              `json:"plan"`
	Deployer  common.Address      `json:"deployer"`
	Status    RunStatus           `json:"status"`
	Contracts []*DeployedContract `json:"contracts"`
	Actions   []*ActionResult     `json:"actions"`
	Failure   *FailureRecord      `json:"failure,omitempty"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// Contract returns the named contract or nil
func (m *Manifest) Contract(name string) *DeployedContract {
	for _, c := range m.Contracts {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// RunState tracks an in-progress run so it can be resumed explicitly
type RunState struct {
	Plan      string              `json:"plan"`
	Network   string              `json:"network"`
	ChainID   uint64              `json:"chainId"`
	Status    RunStatus           `json:"status"`
	Deployed  []*DeployedContract `json:"deployed"`
	Actions   []*ActionResult     `json:"actions"`
	Failure   *FailureRecord      `json:"failure,omitempty"`
	StartedAt time.Time           `json:"startedAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}
