package models

import (
	"fmt"
	"strings"
)

// ArgKind distinguishes literal arguments from references to earlier steps
type ArgKind int

const (
	ArgLiteral ArgKind = iota
	ArgRef
	ArgList
)

// Arg is one constructor or call argument in a plan
type Arg struct {
	Kind  ArgKind
	Value string
	Ref   string
	Items []Arg
}

// Literal returns a literal argument
func Literal(v string) Arg {
	return Arg{Kind: ArgLiteral, Value: v}
}

// Ref returns an argument resolving to the address of a previous step
func Ref(step string) Arg {
	return Arg{Kind: ArgRef, Ref: step}
}

// List returns an array argument
func List(items ...Arg) Arg {
	return Arg{Kind: ArgList, Items: items}
}

// References lists every step name this argument depends on
func (a Arg) References() []string {
	switch a.Kind {
	case ArgRef:
		return []string{a.Ref}
	case ArgList:
		var refs []string
		for _, item := range a.Items {
			refs = append(refs, item.References()...)
		}
		return refs
	}
	return nil
}

func (a Arg) String() string {
	switch a.Kind {
	case ArgRef:
		return fmt.Sprintf("<%s.address>", a.Ref)
	case ArgList:
		parts := make([]string, len(a.Items))
		for i, item := range a.Items {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return a.Value
}

// DeploymentStep deploys one contract
type DeploymentStep struct {
	Name     string
	Contract string
	Args     []Arg
}

// PostDeployAction is a configuration call against a deployed contract
type PostDeployAction struct {
	Name   string
	Target string
	Method string
	Args   []Arg
}

// Plan is an ordered list of deployments followed by post-deploy actions
type Plan struct {
	Name    string
	Source  string
	Steps   []DeploymentStep
	Actions []PostDeployAction
}

// StepIndex returns the position of a named step or -1
func (p *Plan) StepIndex(name string) int {
	for i, s := range p.Steps {
		if s.Name == name {
			return i
		}
	}
	return -1
}
