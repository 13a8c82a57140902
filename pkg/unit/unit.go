// Package unit defines functional units: bundles of event and command
// handler makers that are registered with a machine as one.
package unit

import (
	"context"

	"github.com/fluxcd/sdm/pkg/event"
)

// EventHandler reacts to events of the type it subscribes to.
type EventHandler interface {
	Subscription() string
	Handle(ctx context.Context, e event.Event) error
}

// Parameters are the arguments given to a command.
type Parameters map[string]string

// CommandHandler runs the command named by its intent, returning a
// message for whoever invoked it.
type CommandHandler interface {
	Intent() string
	Handle(ctx context.Context, params Parameters) (string, error)
}

// Makers create a fresh handler each time they are called, so
// handlers can keep state for the duration of one invocation. A nil
// maker is a registration that was never filled in.
type (
	EventHandlerMaker   func() EventHandler
	CommandHandlerMaker func() CommandHandler
)

// FunctionalUnit is anything that can be registered with a machine.
type FunctionalUnit interface {
	EventHandlers() []EventHandlerMaker
	CommandHandlers() []CommandHandlerMaker
}

// Unit is a FunctionalUnit listing its makers directly. Use it by
// pointer; appending to the lists after composing the unit is seen by
// the composition.
type Unit struct {
	Events   []EventHandlerMaker
	Commands []CommandHandlerMaker
}

func (u *Unit) EventHandlers() []EventHandlerMaker {
	if u == nil {
		return nil
	}
	return u.Events
}

func (u *Unit) CommandHandlers() []CommandHandlerMaker {
	if u == nil {
		return nil
	}
	return u.Commands
}

// Composed is the concatenation of a number of functional units. The
// lists are worked out each time they are asked for, from the
// children as they are at that moment; nothing is copied or cached.
// The same maker registered twice is returned twice.
type Composed struct {
	units []FunctionalUnit
}

// Compose aggregates the units given, in order. Nil units are
// ignored.
func Compose(units ...FunctionalUnit) *Composed {
	c := &Composed{}
	for _, u := range units {
		if u != nil {
			c.units = append(c.units, u)
		}
	}
	return c
}

// EventHandlers concatenates the children's event handler makers,
// leaving out nil makers.
func (c *Composed) EventHandlers() []EventHandlerMaker {
	var res []EventHandlerMaker
	for _, u := range c.units {
		for _, m := range u.EventHandlers() {
			if m != nil {
				res = append(res, m)
			}
		}
	}
	return res
}

// CommandHandlers concatenates the children's command handler makers.
// Unlike EventHandlers, nil makers are passed through; callers
// invoking them must check.
// TODO(sdm): decide whether nil command makers should be dropped here too, as for events.
func (c *Composed) CommandHandlers() []CommandHandlerMaker {
	var res []CommandHandlerMaker
	for _, u := range c.units {
		res = append(res, u.CommandHandlers()...)
	}
	return res
}

// EventHandlerFunc makes an EventHandler from a function.
func EventHandlerFunc(subscription string, handle func(context.Context, event.Event) error) EventHandler {
	return eventHandlerFunc{subscription: subscription, handle: handle}
}

type eventHandlerFunc struct {
	subscription string
	handle       func(context.Context, event.Event) error
}

func (h eventHandlerFunc) Subscription() string {
	return h.subscription
}

func (h eventHandlerFunc) Handle(ctx context.Context, e event.Event) error {
	return h.handle(ctx, e)
}

// CommandHandlerFunc makes a CommandHandler from a function.
func CommandHandlerFunc(intent string, handle func(context.Context, Parameters) (string, error)) CommandHandler {
	return commandHandlerFunc{intent: intent, handle: handle}
}

type commandHandlerFunc struct {
	intent string
	handle func(context.Context, Parameters) (string, error)
}

func (h commandHandlerFunc) Intent() string {
	return h.intent
}

func (h commandHandlerFunc) Handle(ctx context.Context, params Parameters) (string, error) {
	return h.handle(ctx, params)
}
