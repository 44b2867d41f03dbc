package domain

import "fmt"

// Phase identifies which part of a plan an error belongs to
type Phase string

const (
	PhaseDeploy Phase = "deploy"
	PhaseAction Phase = "action"
)

// StepError locates a failure inside a plan. Index is 1-based within its phase.
type StepError struct {
	Phase Phase
	Index int
	Name  string
	Err   error
}

func (e *StepError) Error() string {
	switch e.Phase {
	case PhaseAction:
		return fmt.Sprintf("action %d (%s): %v", e.Index, e.Name, e.Err)
	default:
		return fmt.Sprintf("step %d (%s): %v", e.Index, e.Name, e.Err)
	}
}

func (e *StepError) Unwrap() error { return e.Err }

// Kind returns the fault kind of the underlying error
func (e *StepError) Kind() FaultKind {
	return KindOf(e.Err)
}
