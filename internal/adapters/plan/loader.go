package plan

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/trebuchet-org/vault-deployer/internal/domain"
	"github.com/trebuchet-org/vault-deployer/internal/domain/config"
	"github.com/trebuchet-org/vault-deployer/internal/domain/models"
	"github.com/trebuchet-org/vault-deployer/internal/usecase"
	"gopkg.in/yaml.v3"
)

// DefaultPlanSource names the embedded plan in results and manifests
const DefaultPlanSource = "built-in"

//go:embed default_plan.yaml
var defaultPlan []byte

// Loader reads YAML deployment plans
type Loader struct {
	projectRoot string
}

// NewLoader creates a plan loader resolving relative paths against the project root
func NewLoader(cfg *config.RuntimeConfig) *Loader {
	return &Loader{projectRoot: cfg.ProjectRoot}
}

// Load reads the plan at path, or the built-in plan when path is empty
func (l *Loader) Load(ctx context.Context, path string) (*models.Plan, error) {
	if path == "" {
		return Parse(defaultPlan, DefaultPlanSource)
	}

	if !filepath.IsAbs(path) && l.projectRoot != "" {
		path = filepath.Join(l.projectRoot, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read plan: %v", domain.ErrInvalidPlan, err)
	}
	return Parse(data, path)
}

type planFile struct {
	Name    string       `yaml:"name"`
	Params  yaml.Node    `yaml:"params"` // anchors only
	Steps   []stepFile   `yaml:"steps"`
	Actions []actionFile `yaml:"actions"`
}

type stepFile struct {
	Name     string      `yaml:"name"`
	Contract string      `yaml:"contract"`
	Args     []yaml.Node `yaml:"args"`
}

type actionFile struct {
	Name   string      `yaml:"name"`
	Target string      `yaml:"target"`
	Method string      `yaml:"method"`
	Args   []yaml.Node `yaml:"args"`
}

// Parse decodes a YAML plan. Arguments are scalars, {ref: Step} mappings or sequences of either.
func Parse(data []byte, source string) (*models.Plan, error) {
	var file planFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidPlan, source, err)
	}

	p := &models.Plan{Name: file.Name, Source: source}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}

	for i, s := range file.Steps {
		args, err := parseArgs(s.Args)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: step %d (%s): %v", domain.ErrInvalidPlan, source, i+1, s.Name, err)
		}
		contract := s.Contract
		if contract == "" {
			contract = s.Name
		}
		p.Steps = append(p.Steps, models.DeploymentStep{Name: s.Name, Contract: contract, Args: args})
	}

	for i, a := range file.Actions {
		args, err := parseArgs(a.Args)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: action %d (%s): %v", domain.ErrInvalidPlan, source, i+1, a.Name, err)
		}
		name := a.Name
		if name == "" {
			name = a.Method
		}
		p.Actions = append(p.Actions, models.PostDeployAction{Name: name, Target: a.Target, Method: a.Method, Args: args})
	}

	return p, nil
}

func parseArgs(nodes []yaml.Node) ([]models.Arg, error) {
	args := make([]models.Arg, 0, len(nodes))
	for i := range nodes {
		arg, err := parseArg(&nodes[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		args = append(args, arg)
	}
	return args, nil
}

func parseArg(node *yaml.Node) (models.Arg, error) {
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}

	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return models.Arg{}, fmt.Errorf("line %d: null is not a value", node.Line)
		}
		return models.Literal(node.Value), nil

	case yaml.MappingNode:
		var ref struct {
			Ref string `yaml:"ref"`
		}
		if err := node.Decode(&ref); err != nil {
			return models.Arg{}, fmt.Errorf("line %d: %v", node.Line, err)
		}
		if ref.Ref == "" || len(node.Content) != 2 {
			return models.Arg{}, fmt.Errorf("line %d: mappings must be {ref: <step>}", node.Line)
		}
		return models.Ref(ref.Ref), nil

	case yaml.SequenceNode:
		items := make([]models.Arg, 0, len(node.Content))
		for _, child := range node.Content {
			item, err := parseArg(child)
			if err != nil {
				return models.Arg{}, err
			}
			items = append(items, item)
		}
		return models.List(items...), nil
	}

	return models.Arg{}, fmt.Errorf("line %d: unsupported value", node.Line)
}

var _ usecase.PlanLoader = (*Loader)(nil)
