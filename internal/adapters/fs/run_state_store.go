package fs

import (
	"context"
	"path/filepath"

	"github.com/trebuchet-org/vault-deployer/internal/domain/config"
	"github.com/trebuchet-org/vault-deployer/internal/domain/models"
	"github.com/trebuchet-org/vault-deployer/internal/usecase"
)

// RunStateStoreAdapter keeps run state under <data dir>/runs for --resume
type RunStateStoreAdapter struct {
	dir string
}

// NewRunStateStoreAdapter creates a new RunStateStoreAdapter
func NewRunStateStoreAdapter(cfg *config.RuntimeConfig) *RunStateStoreAdapter {
	return &RunStateStoreAdapter{dir: filepath.Join(cfg.DataDir, "runs")}
}

func (s *RunStateStoreAdapter) path(plan, network string) string {
	return filepath.Join(s.dir, plan+"-"+network+".json")
}

// Save writes the run state, overwriting the previous one for the same plan and network
func (s *RunStateStoreAdapter) Save(_ context.Context, state *models.RunState) error {
	return writeJSON(s.path(state.Plan, state.Network), state)
}

// Load reads the last run state. Returns domain.ErrNotFound if there is none.
func (s *RunStateStoreAdapter) Load(_ context.Context, plan, network string) (*models.RunState, error) {
	var state models.RunState
	if err := readJSON(s.path(plan, network), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

var _ usecase.RunStateStore = (*RunStateStoreAdapter)(nil)
