package network

import (
	"context"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"github.com/trebuchet-org/vault-deployer/internal/config"
	"github.com/trebuchet-org/vault-deployer/internal/domain"
	domainconfig "github.com/trebuchet-org/vault-deployer/internal/domain/config"
	"github.com/trebuchet-org/vault-deployer/internal/usecase"
)

// maxSuggestions caps the "did you mean" list
const maxSuggestions = 3

// Resolver resolves network profiles from the loaded deploy configuration
type Resolver struct {
	cfg *domainconfig.RuntimeConfig
}

// NewResolver creates a new profile resolver
func NewResolver(cfg *domainconfig.RuntimeConfig) *Resolver {
	return &Resolver{cfg: cfg}
}

// Profiles returns the configured profile names, sorted
func (r *Resolver) Profiles(ctx context.Context) []string {
	if r.cfg.DeployConfig == nil {
		return nil
	}
	names := lo.Keys(r.cfg.DeployConfig.Profiles)
	sort.Strings(names)
	return names
}

// Resolve looks a profile up by name (case-insensitive) and validates its credentials
func (r *Resolver) Resolve(ctx context.Context, selector string) (*domainconfig.NetworkProfile, error) {
	name, pc, ok := r.lookup(selector)
	if !ok {
		return nil, &domain.ProfileNotFoundError{
			Selector:    selector,
			Suggestions: r.suggest(selector),
		}
	}

	profile, err := config.BuildProfile(name, pc, r.cfg.DeployConfig)
	if err != nil {
		return nil, err
	}

	// --confirm-timeout overrides the profile
	if r.cfg.ConfirmTimeout > 0 {
		profile.ConfirmTimeout = r.cfg.ConfirmTimeout
	}
	return profile, nil
}

func (r *Resolver) lookup(selector string) (string, domainconfig.ProfileConfig, bool) {
	if r.cfg.DeployConfig == nil || selector == "" {
		return "", domainconfig.ProfileConfig{}, false
	}
	if pc, ok := r.cfg.DeployConfig.Profiles[selector]; ok {
		return selector, pc, true
	}
	for name, pc := range r.cfg.DeployConfig.Profiles {
		if strings.EqualFold(name, selector) {
			return name, pc, true
		}
	}
	return "", domainconfig.ProfileConfig{}, false
}

// suggest returns close profile names. An empty selector suggests every profile.
func (r *Resolver) suggest(selector string) []string {
	names := r.Profiles(context.Background())
	if selector == "" {
		return names
	}

	matches := fuzzy.Find(strings.ToLower(selector), names)
	suggestions := lo.Map(matches, func(m fuzzy.Match, _ int) string { return m.Str })

	// Substrings and extensions of a name (mainnet-fork) match too
	for _, name := range names {
		if strings.Contains(name, strings.ToLower(selector)) || strings.HasPrefix(strings.ToLower(selector), name) {
			suggestions = append(suggestions, name)
		}
	}
	suggestions = lo.Uniq(suggestions)

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}

var _ usecase.ProfileResolver = (*Resolver)(nil)
