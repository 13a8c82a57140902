// Package notifications tells people about pushes and goals, as
// functional units subscribed to the events concerned.
package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"

	"github.com/fluxcd/sdm/pkg/event"
	"github.com/fluxcd/sdm/pkg/goal"
	"github.com/fluxcd/sdm/pkg/push"
	"github.com/fluxcd/sdm/pkg/unit"
)

type SlackMsg struct {
	Username    string            `json:"username"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments,omitempty"`
}

type SlackAttachment struct {
	Fallback  string   `json:"fallback,omitempty"`
	Title     string   `json:"title,omitempty"`
	TitleLink string   `json:"title_link,omitempty"`
	Text      string   `json:"text"`
	Author    string   `json:"author_name,omitempty"`
	Color     string   `json:"color,omitempty"`
	Markdown  []string `json:"mrkdwn_in,omitempty"`
}

const (
	PushTemplate = `Push of {{len .Push.Commits}} commit{{if not (eq (len .Push.Commits) 1)}}s{{end}} to {{.Event.Repo}} {{trimPrefix .Push.Ref "refs/heads/"}} ({{short .Event.Revision}})`

	GoalPlannedTemplate = `Planned {{.Goal.Goal}} for {{.Event.Repo}}@{{short .Event.Revision}}{{with .Goal.SideEffect}}, to be fulfilled by {{.}}{{end}}`

	GoalCompletedTemplate = `{{with .Goal.GoalName}}{{.}}{{else}}{{.Goal.Goal}}{{end}} {{.Goal.State}} for {{.Event.Repo}}@{{short .Event.Revision}}`
)

var defaultTemplates = map[string]string{
	event.OnPush:          PushTemplate,
	event.OnGoalPlanned:   GoalPlannedTemplate,
	event.OnGoalCompleted: GoalCompletedTemplate,
}

// SlackConfig says where to send notifications, and which events to
// send them for.
type SlackConfig struct {
	HookURL  string
	Username string
	// NotifyEvents are the event types to notify; if empty, only
	// completed goals are notified.
	NotifyEvents []string
	// Templates override the text of the notification, by event type.
	Templates map[string]string
	Timeout   time.Duration
}

// Slack posts events to a Slack incoming webhook.
type Slack struct {
	config SlackConfig
	client *http.Client
	logger log.Logger
}

func NewSlack(config SlackConfig, logger log.Logger) *Slack {
	if len(config.NotifyEvents) == 0 {
		config.NotifyEvents = []string{event.OnGoalCompleted}
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Slack{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
}

// Unit is a functional unit with a handler for each of the event
// types configured.
func (s *Slack) Unit() *unit.Unit {
	u := &unit.Unit{}
	for _, eventType := range s.config.NotifyEvents {
		eventType := eventType
		u.Events = append(u.Events, func() unit.EventHandler {
			return unit.EventHandlerFunc(eventType, s.Notify)
		})
	}
	return u
}

type templateArgs struct {
	Event event.Event
	Push  *push.Push
	Goal  *event.GoalEventMetadata
}

// Notify posts a message about the event.
func (s *Slack) Notify(ctx context.Context, e event.Event) error {
	args := templateArgs{Event: e}
	var attachments []SlackAttachment
	switch m := e.Metadata.(type) {
	case *event.PushEventMetadata:
		args.Push = &m.Push
		if len(m.Push.Commits) > 0 {
			attachments = append(attachments, commitsAttachment(m))
		}
	case *event.GoalEventMetadata:
		args.Goal = m
		if e.Type == event.OnGoalCompleted {
			attachments = append(attachments, goalAttachment(m))
		}
	default:
		return fmt.Errorf("cannot notify %s event with metadata %T", e.Type, e.Metadata)
	}

	text := e.Message
	if text == "" {
		tmpl, ok := s.config.Templates[e.Type]
		if !ok {
			tmpl = defaultTemplates[e.Type]
		}
		var err error
		if text, err = instantiateTemplate(e.Type, tmpl, args); err != nil {
			return err
		}
	}

	if err := s.notify(ctx, SlackMsg{
		Username:    s.config.Username,
		Text:        text,
		Attachments: attachments,
	}); err != nil {
		return err
	}
	s.logger.Log("info", "notified slack", "event", e.ID, "type", e.Type)
	return nil
}

func goalAttachment(m *event.GoalEventMetadata) SlackAttachment {
	color := "good"
	switch m.State {
	case goal.StateFailure:
		color = "danger"
	case goal.StateSkipped:
		color = "warning"
	}
	text := m.Description
	if text == "" {
		text = string(m.State)
	}
	a := SlackAttachment{
		Fallback: text,
		Text:     text,
		Color:    color,
		Author:   m.SideEffect,
	}
	if m.URL != "" {
		a.Title = m.Goal
		a.TitleLink = m.URL
	}
	return a
}

func commitsAttachment(m *event.PushEventMetadata) SlackAttachment {
	buf := &bytes.Buffer{}
	fmt.Fprintln(buf, "```")
	for _, c := range m.Push.Commits {
		fmt.Fprintf(buf, "%s %s\n", short(c.SHA), firstLine(c.Message))
	}
	fmt.Fprintln(buf, "```")
	return SlackAttachment{
		Text:     buf.String(),
		Markdown: []string{"text"},
		Color:    "good",
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func (s *Slack) notify(ctx context.Context, msg SlackMsg) error {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(msg); err != nil {
		return errors.Wrap(err, "encoding Slack POST request")
	}

	req, err := http.NewRequest("POST", s.config.HookURL, buf)
	if err != nil {
		return errors.Wrap(err, "constructing Slack HTTP request")
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req.WithContext(ctx))
	if err != nil {
		return errors.Wrap(err, "executing HTTP POST to Slack")
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 1024*1024))
		return fmt.Errorf("%s from Slack (%s)", resp.Status, strings.TrimSpace(string(body)))
	}
	return nil
}

func instantiateTemplate(tmplName, tmplStr string, args interface{}) (string, error) {
	tmpl, err := template.New(tmplName).Funcs(templateFuncs).Parse(tmplStr)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, args); err != nil {
		return "", err
	}
	return buf.String(), nil
}
