package fs

import (
	"context"
	"path/filepath"

	"github.com/trebuchet-org/vault-deployer/internal/domain/config"
	"github.com/trebuchet-org/vault-deployer/internal/domain/models"
	"github.com/trebuchet-org/vault-deployer/internal/usecase"
)

// ManifestsDir holds one deployment manifest per network, relative to the project root
const ManifestsDir = "deployments"

// ManifestStoreAdapter implements ManifestStore with deployments/<network>.json files
type ManifestStoreAdapter struct {
	dir string
}

// NewManifestStoreAdapter creates a new ManifestStoreAdapter
func NewManifestStoreAdapter(cfg *config.RuntimeConfig) *ManifestStoreAdapter {
	return &ManifestStoreAdapter{dir: filepath.Join(cfg.ProjectRoot, ManifestsDir)}
}

// Path returns the manifest file of a network
func (s *ManifestStoreAdapter) Path(network string) string {
	return filepath.Join(s.dir, network+".json")
}

// Save replaces the network's manifest
func (s *ManifestStoreAdapter) Save(_ context.Context, manifest *models.Manifest) error {
	return writeJSON(s.Path(manifest.Network), manifest)
}

// Load reads the network's manifest. Returns domain.ErrNotFound if nothing was deployed yet.
func (s *ManifestStoreAdapter) Load(_ context.Context, network string) (*models.Manifest, error) {
	var manifest models.Manifest
	if err := readJSON(s.Path(network), &manifest); err != nil {
		return nil, err
	}
	return &manifest, nil
}

var _ usecase.ManifestStore = (*ManifestStoreAdapter)(nil)
