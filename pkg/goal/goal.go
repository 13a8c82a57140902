package goal

import (
	"errors"
	"fmt"

	"github.com/imdario/mergo"

	fluxerr "github.com/fluxcd/sdm/pkg/errors"
)

// Environments in which goals conventionally run. The numeric prefix
// orders them.
const (
	CodeEnvironment       = "0-code"
	StagingEnvironment    = "1-staging"
	ProductionEnvironment = "2-prod"

	contextRoot = "sdm"
)

// Descriptions are shown to users (e.g., as commit status
// descriptions) for each state a goal can be in.
type Descriptions struct {
	Planned            string `json:"planned,omitempty" yaml:"planned,omitempty"`
	Requested          string `json:"requested,omitempty" yaml:"requested,omitempty"`
	InProcess          string `json:"inProcess,omitempty" yaml:"inProcess,omitempty"`
	WaitingForApproval string `json:"waitingForApproval,omitempty" yaml:"waitingForApproval,omitempty"`
	Completed          string `json:"completed,omitempty" yaml:"completed,omitempty"`
	Failed             string `json:"failed,omitempty" yaml:"failed,omitempty"`
	Skipped            string `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Definition is everything needed to create a Goal.
type Definition struct {
	Name string `json:"name" yaml:"name"`
	// Context is the unique key by which the goal is correlated
	// with e.g., commit statuses and side effects. If left empty it
	// is derived from the environment and name.
	Context          string       `json:"context,omitempty" yaml:"context,omitempty"`
	DisplayName      string       `json:"displayName,omitempty" yaml:"displayName,omitempty"`
	Environment      string       `json:"environment,omitempty" yaml:"environment,omitempty"`
	Descriptions     Descriptions `json:"descriptions,omitempty" yaml:"descriptions,omitempty"`
	ApprovalRequired bool         `json:"approvalRequired,omitempty" yaml:"approvalRequired,omitempty"`
	RetryFeasible    bool         `json:"retryFeasible,omitempty" yaml:"retryFeasible,omitempty"`
}

// Goal is a named unit of delivery work. Goals are created when the
// machine is configured and do not change afterwards; they are shared
// by pointer.
type Goal struct {
	def Definition
}

var ErrNoName = errors.New("goal definition has no name")

// New creates a goal, filling in anything left out of the definition
// with defaults.
func New(def Definition) (*Goal, error) {
	if def.Name == "" {
		return nil, fluxerr.UserError(ErrNoName)
	}
	defaults := Definition{
		Environment: CodeEnvironment,
		DisplayName: def.Name,
	}
	if err := mergo.Merge(&def, defaults); err != nil {
		return nil, err
	}
	if def.Context == "" {
		def.Context = fmt.Sprintf("%s/%s/%s", contextRoot, def.Environment, def.Name)
	}
	if err := mergo.Merge(&def.Descriptions, defaultDescriptions(def.DisplayName)); err != nil {
		return nil, err
	}
	return &Goal{def: def}, nil
}

// MustNew is New for goals defined in code, which panics on a bad
// definition.
func MustNew(def Definition) *Goal {
	g, err := New(def)
	if err != nil {
		panic(err)
	}
	return g
}

func defaultDescriptions(displayName string) Descriptions {
	return Descriptions{
		Planned:            "Planned: " + displayName,
		Requested:          "Ready: " + displayName,
		InProcess:          "Working: " + displayName,
		WaitingForApproval: "Approval required: " + displayName,
		Completed:          "Complete: " + displayName,
		Failed:             "Failed: " + displayName,
		Skipped:            "Skipped: " + displayName,
	}
}

func (g *Goal) Context() string     { return g.def.Context }
func (g *Goal) Name() string        { return g.def.Name }
func (g *Goal) DisplayName() string { return g.def.DisplayName }
func (g *Goal) Environment() string { return g.def.Environment }

// Definition returns a copy of the (completed) definition.
func (g *Goal) Definition() Definition {
	return g.def
}

func (g *Goal) String() string {
	return g.def.Context
}

// Describe gives the user-facing description of the goal in the
// state given.
func (g *Goal) Describe(s State) string {
	d := g.def.Descriptions
	switch s {
	case StatePlanned:
		return d.Planned
	case StateRequested:
		return d.Requested
	case StateInProcess:
		return d.InProcess
	case StateWaitingForApproval:
		return d.WaitingForApproval
	case StateSuccess:
		return d.Completed
	case StateFailure:
		return d.Failed
	case StateSkipped:
		return d.Skipped
	default:
		return g.def.DisplayName
	}
}

// State is where a goal has got to, for a particular push.
type State string

const (
	StatePlanned            State = "planned"
	StateRequested          State = "requested"
	StateInProcess          State = "in_process"
	StateWaitingForApproval State = "waiting_for_approval"
	StateSuccess            State = "success"
	StateFailure            State = "failure"
	StateSkipped            State = "skipped"
)

// Terminal reports whether nothing further will happen to a goal in
// this state.
func (s State) Terminal() bool {
	switch s {
	case StateSuccess, StateFailure, StateSkipped:
		return true
	}
	return false
}

// Goals is a named set of goals, in the order they were given.
type Goals struct {
	Name  string
	Goals []*Goal
}

func NewGoals(name string, goals ...*Goal) *Goals {
	return &Goals{Name: name, Goals: goals}
}

func (gs *Goals) Contexts() []string {
	cs := make([]string, len(gs.Goals))
	for i, g := range gs.Goals {
		cs[i] = g.Context()
	}
	return cs
}
