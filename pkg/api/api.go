// Package api defines what a delivery machine serves, both in process
// (the daemon) and over HTTP (the client).
package api

import (
	"context"

	"github.com/fluxcd/sdm/pkg/goal"
	"github.com/fluxcd/sdm/pkg/job"
	"github.com/fluxcd/sdm/pkg/push"
	"github.com/fluxcd/sdm/pkg/sideeffect"
	"github.com/fluxcd/sdm/pkg/unit"
)

// GoalStatus describes a goal, and, when it is about a particular
// push, the state it is in.
type GoalStatus struct {
	Context     string     `json:"context" yaml:"context"`
	Name        string     `json:"name" yaml:"name"`
	Environment string     `json:"environment" yaml:"environment"`
	State       goal.State `json:"state,omitempty" yaml:"state,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	SideEffect  string     `json:"sideEffect,omitempty" yaml:"sideEffect,omitempty"`
}

// PushResult is what the machine made of a push.
type PushResult struct {
	Repo     push.RepoRef `json:"repo" yaml:"repo"`
	Revision string       `json:"revision" yaml:"revision"`
	Goals    []GoalStatus `json:"goals" yaml:"goals"`
	// Jobs dispatching the events raised by the push
	Jobs []job.ID `json:"jobs,omitempty" yaml:"jobs,omitempty"`
}

// Completion reports that a side effect has finished the work for a
// goal, for a pushed revision.
type Completion struct {
	Repo        push.RepoRef `json:"repo"`
	Revision    string       `json:"revision"`
	Goal        string       `json:"goal"`
	SideEffect  string       `json:"sideEffect"`
	State       goal.State   `json:"state"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
}

// Command is a request to run the command handler with the intent
// given.
type Command struct {
	Intent     string          `json:"intent"`
	Parameters unit.Parameters `json:"parameters,omitempty"`
}

type CommandResult struct {
	Intent  string `json:"intent"`
	Message string `json:"message"`
}

// Server is the interface a delivery machine satisfies.
type Server interface {
	Ping(context.Context) error
	Version(context.Context) (string, error)

	HandlePush(context.Context, push.Push) (PushResult, error)
	ListGoals(context.Context) ([]GoalStatus, error)
	FindSideEffect(ctx context.Context, goalContext string) (sideeffect.GoalSideEffect, error)
	CompleteSideEffect(context.Context, Completion) (job.ID, error)
	RunCommand(context.Context, Command) (CommandResult, error)
	JobStatus(context.Context, job.ID) (job.Status, error)
}
