package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/trebuchet-org/vault-deployer/internal/domain"
	"github.com/trebuchet-org/vault-deployer/internal/domain/config"
	"github.com/trebuchet-org/vault-deployer/internal/domain/models"
	"github.com/trebuchet-org/vault-deployer/internal/usecase"
)

// Repository indexes Hardhat (artifacts/) or Foundry (out/) build output by contract name
type Repository struct {
	dirs []string
	log  *slog.Logger

	mu      sync.RWMutex
	indexed bool
	byKey   map[string]*models.Artifact   // "source:Name" and unique "Name"
	byName  map[string][]*models.Artifact // all artifacts sharing a name
}

// NewRepository creates an artifact repository for the configured build directory.
// Without an explicit directory, artifacts/ and out/ under the project root are searched.
func NewRepository(cfg *config.RuntimeConfig, log *slog.Logger) *Repository {
	dirs := []string{cfg.ArtifactsDir}
	if cfg.ArtifactsDir == "" {
		dirs = []string{
			filepath.Join(cfg.ProjectRoot, "artifacts"),
			filepath.Join(cfg.ProjectRoot, "out"),
		}
	}
	return &Repository{dirs: dirs, log: log}
}

// GetArtifact returns the artifact for a contract name or "source.sol:Name"
func (r *Repository) GetArtifact(ctx context.Context, name string) (*models.Artifact, error) {
	if err := r.ensureIndexed(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if artifact, ok := r.byKey[name]; ok {
		return artifact, nil
	}
	if candidates := r.byName[name]; len(candidates) > 1 {
		sources := lo.Map(candidates, func(a *models.Artifact, _ int) string { return a.SourceName + ":" + a.ContractName })
		sort.Strings(sources)
		return nil, fmt.Errorf("%w: '%s' is ambiguous, use one of %s", domain.ErrArtifactNotFound, name, strings.Join(sources, ", "))
	}
	return nil, fmt.Errorf("%w: no compiled contract named '%s' in %s", domain.ErrArtifactNotFound, name, strings.Join(r.dirs, ", "))
}

// Names returns every indexed contract name, sorted
func (r *Repository) Names() ([]string, error) {
	if err := r.ensureIndexed(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := lo.Keys(r.byName)
	sort.Strings(names)
	return names, nil
}

func (r *Repository) ensureIndexed() error {
	r.mu.RLock()
	done := r.indexed
	r.mu.RUnlock()
	if done {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexed {
		return nil
	}
	return r.index()
}

// index walks the build directories. Caller holds the write lock.
func (r *Repository) index() error {
	r.byKey = make(map[string]*models.Artifact)
	r.byName = make(map[string][]*models.Artifact)

	found := false
	for _, dir := range r.dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		found = true

		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() == "build-info" {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != ".json" || strings.HasSuffix(path, ".dbg.json") {
				return nil
			}
			r.add(path)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to index artifacts in %s: %w", dir, err)
		}
	}

	if !found {
		return fmt.Errorf("%w: no build output in %s (compile the contracts first)", domain.ErrArtifactNotFound, strings.Join(r.dirs, ", "))
	}

	r.indexed = true
	r.log.Debug("indexed artifacts", "contracts", len(r.byName))
	return nil
}

// artifactFile covers both Hardhat and Foundry artifact layouts
type artifactFile struct {
	models.Artifact
	Metadata json.RawMessage `json:"metadata"`
}

type foundryMetadata struct {
	Settings struct {
		CompilationTarget map[string]string `json:"compilationTarget"`
	} `json:"settings"`
}

func (r *Repository) add(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		r.log.Debug("skipping unreadable artifact", "path", path, "error", err)
		return
	}

	var file artifactFile
	if err := json.Unmarshal(data, &file); err != nil || len(file.ABI) == 0 {
		// Not an artifact (e.g. cache files)
		return
	}

	artifact := file.Artifact
	artifact.Path = path

	if artifact.ContractName == "" {
		artifact.ContractName, artifact.SourceName = foundryTarget(file.Metadata)
	}
	if artifact.ContractName == "" {
		// Foundry layout: out/<File>.sol/<Name>.json
		artifact.ContractName = strings.TrimSuffix(filepath.Base(path), ".json")
		if artifact.SourceName == "" {
			artifact.SourceName = filepath.Base(filepath.Dir(path))
		}
	}

	key := artifact.SourceName + ":" + artifact.ContractName
	if _, exists := r.byKey[key]; exists {
		return
	}
	r.byKey[key] = &artifact

	r.byName[artifact.ContractName] = append(r.byName[artifact.ContractName], &artifact)
	if len(r.byName[artifact.ContractName]) == 1 {
		r.byKey[artifact.ContractName] = &artifact
	} else {
		delete(r.byKey, artifact.ContractName)
	}
}

// foundryTarget reads the compilation target from Foundry metadata, which is
// either an object or a JSON-encoded string
func foundryTarget(raw json.RawMessage) (name, source string) {
	if len(raw) == 0 {
		return "", ""
	}
	var meta foundryMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		var encoded string
		if json.Unmarshal(raw, &encoded) != nil || json.Unmarshal([]byte(encoded), &meta) != nil {
			return "", ""
		}
	}
	for src, contract := range meta.Settings.CompilationTarget {
		return contract, src
	}
	return "", ""
}

var _ usecase.ArtifactRepository = (*Repository)(nil)
