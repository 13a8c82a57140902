package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/fluxcd/sdm/pkg/goal"
	"github.com/fluxcd/sdm/pkg/push"
)

// These are all the types of events. Event handlers subscribe to one
// of them.
const (
	OnPush          = "push"
	OnGoalPlanned   = "goal_planned"
	OnGoalCompleted = "goal_completed"

	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

type Event struct {
	// ID is a UUID for this event. Set by New.
	ID uuid.UUID `json:"id"`

	// Type is one of the event types above.
	Type string `json:"type"`

	// Repo and Revision identify what was pushed.
	Repo     push.RepoRef `json:"repo"`
	Revision string       `json:"revision"`

	// StartedAt is the time the event happened.
	StartedAt time.Time `json:"startedAt"`

	// LogLevel for this event. Used to indicate how important it is.
	// `debug|info|warn|error`
	LogLevel string `json:"logLevel"`

	// Message, if given, is used as the summary of the event in
	// place of one derived from the metadata.
	Message string `json:"message,omitempty"`

	// Metadata is Event.Type-specific metadata.
	Metadata EventMetadata `json:"metadata,omitempty"`
}

// New creates an event about the push given, stamped with a fresh ID
// and the current time.
func New(eventType string, p push.Push, metadata EventMetadata) Event {
	return Event{
		ID:        uuid.New(),
		Type:      eventType,
		Repo:      p.Repo,
		Revision:  p.After,
		StartedAt: time.Now().UTC(),
		LogLevel:  LogLevelInfo,
		Metadata:  metadata,
	}
}

func (e Event) ShortRevision() string {
	return shortRevision(e.Revision)
}

func (e Event) String() string {
	if e.Message != "" {
		return e.Message
	}

	switch e.Type {
	case OnPush:
		metadata, ok := e.Metadata.(*PushEventMetadata)
		if !ok || metadata == nil {
			break
		}
		commits := len(metadata.Push.Commits)
		noun := "commits"
		if commits == 1 {
			noun = "commit"
		}
		return fmt.Sprintf("Push of %d %s to %s %s (%s)",
			commits, noun, e.Repo, metadata.Push.Ref, e.ShortRevision())
	case OnGoalPlanned:
		metadata, ok := e.Metadata.(*GoalEventMetadata)
		if !ok || metadata == nil {
			break
		}
		var via string
		if metadata.SideEffect != "" {
			via = fmt.Sprintf(", fulfilled by %s", metadata.SideEffect)
		}
		return fmt.Sprintf("Planned %s for %s@%s%s", metadata.Goal, e.Repo, e.ShortRevision(), via)
	case OnGoalCompleted:
		metadata, ok := e.Metadata.(*GoalEventMetadata)
		if !ok || metadata == nil {
			break
		}
		var desc string
		if metadata.Description != "" {
			desc = fmt.Sprintf(": %s", metadata.Description)
		}
		return fmt.Sprintf("Goal %s %s for %s@%s%s",
			metadata.Goal, metadata.State, e.Repo, e.ShortRevision(), desc)
	}
	// no metadata, or not the kind the type calls for
	return fmt.Sprintf("Unknown event: %s", e.Type)
}

func shortRevision(rev string) string {
	if len(rev) <= 7 {
		return rev
	}
	return rev[:7]
}

// PushEventMetadata is the metadata for when a push has been received.
type PushEventMetadata struct {
	Push push.Push `json:"push"`
}

// GoalEventMetadata is the metadata for when a goal is planned for a
// push, and when it completes.
type GoalEventMetadata struct {
	// Goal is the goal context.
	Goal        string     `json:"goal"`
	GoalName    string     `json:"goalName,omitempty"`
	State       goal.State `json:"state"`
	Description string     `json:"description,omitempty"`
	// SideEffect names the side effect fulfilling the goal, if any.
	SideEffect string `json:"sideEffect,omitempty"`
	URL        string `json:"url,omitempty"`
}

type UnknownEventMetadata map[string]interface{}

func (e *Event) UnmarshalJSON(in []byte) error {
	type alias Event
	var wireEvent struct {
		*alias
		MetadataBytes json.RawMessage `json:"metadata,omitempty"`
	}
	wireEvent.alias = (*alias)(e)

	if err := json.Unmarshal(in, &wireEvent); err != nil {
		return err
	}
	if wireEvent.Type == "" {
		return errors.New("Event type is empty")
	}

	switch wireEvent.Type {
	case OnPush:
		var metadata PushEventMetadata
		if err := json.Unmarshal(wireEvent.MetadataBytes, &metadata); err != nil {
			return err
		}
		e.Metadata = &metadata
	case OnGoalPlanned, OnGoalCompleted:
		var metadata GoalEventMetadata
		if err := json.Unmarshal(wireEvent.MetadataBytes, &metadata); err != nil {
			return err
		}
		e.Metadata = &metadata
	default:
		if len(wireEvent.MetadataBytes) > 0 {
			var metadata UnknownEventMetadata
			if err := json.Unmarshal(wireEvent.MetadataBytes, &metadata); err != nil {
				return err
			}
			e.Metadata = metadata
		}
	}
	return nil
}

// EventMetadata is a type safety trick used to make sure that Metadata field
// of Event is always a pointer, so that consumers can cast without being
// concerned about encountering a value type instead. It works by virtue of the
// fact that the method is only defined for pointer receivers; the actual
// method chosen is entirely arbitary.
type EventMetadata interface {
	Type() string
}

func (m *PushEventMetadata) Type() string {
	return OnPush
}

// Type is the same for planned and completed goals; the event type
// tells them apart.
func (m *GoalEventMetadata) Type() string {
	return "goal"
}

// Special exception from pointer receiver rule, as UnknownEventMetadata is a
// type alias for a map
func (uem UnknownEventMetadata) Type() string {
	return "unknown"
}
