package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxcd/sdm/pkg/event"
	"github.com/fluxcd/sdm/pkg/goal"
	"github.com/fluxcd/sdm/pkg/push"
)

var examplePush = push.Push{
	Repo:   push.RepoRef{Owner: "fluxcd", Name: "sdm", DefaultBranch: "master"},
	Ref:    "refs/heads/master",
	Before: "1111111111111111111111111111111111111111",
	After:  "abcdef0123456789abcdef0123456789abcdef01",
	Commits: []push.Commit{
		{SHA: "9999999999999999999999999999999999999999", Message: "Fix the build\n\nIt was broken."},
		{SHA: "abcdef0123456789abcdef0123456789abcdef01", Message: "Add tests"},
	},
}

func slackServer(t *testing.T, status int) (*httptest.Server, *[]SlackMsg) {
	var got []SlackMsg
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		var msg SlackMsg
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		got = append(got, msg)
		w.WriteHeader(status)
		w.Write([]byte("ok"))
	}))
	return srv, &got
}

func completed(state goal.State, description, url string) event.Event {
	return event.New(event.OnGoalCompleted, examplePush, &event.GoalEventMetadata{
		Goal:        goal.BuildGoal.Context(),
		GoalName:    goal.BuildGoal.Name(),
		State:       state,
		Description: description,
		SideEffect:  "jenkins",
		URL:         url,
	})
}

func TestSlackGoalCompleted(t *testing.T) {
	srv, got := slackServer(t, http.StatusOK)
	defer srv.Close()

	s := NewSlack(SlackConfig{HookURL: srv.URL, Username: "sdm"}, nil)
	require.NoError(t, s.Notify(context.Background(), completed(goal.StateFailure, "Build failed", "https://ci.example.com/42")))

	require.Len(t, *got, 1)
	msg := (*got)[0]
	assert.Equal(t, "sdm", msg.Username)
	assert.Equal(t, "build failure for fluxcd/sdm@abcdef0", msg.Text)
	require.Len(t, msg.Attachments, 1)
	a := msg.Attachments[0]
	assert.Equal(t, "danger", a.Color)
	assert.Equal(t, "Build failed", a.Text)
	assert.Equal(t, "jenkins", a.Author)
	assert.Equal(t, "https://ci.example.com/42", a.TitleLink)
}

func TestSlackPush(t *testing.T) {
	srv, got := slackServer(t, http.StatusOK)
	defer srv.Close()

	s := NewSlack(SlackConfig{HookURL: srv.URL}, nil)
	require.NoError(t, s.Notify(context.Background(), event.New(event.OnPush, examplePush, &event.PushEventMetadata{Push: examplePush})))

	require.Len(t, *got, 1)
	msg := (*got)[0]
	assert.Equal(t, "Push of 2 commits to fluxcd/sdm master (abcdef0)", msg.Text)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "```\n9999999 Fix the build\nabcdef0 Add tests\n```\n", msg.Attachments[0].Text)
}

func TestSlackCustomTemplateAndMessage(t *testing.T) {
	srv, got := slackServer(t, http.StatusOK)
	defer srv.Close()

	s := NewSlack(SlackConfig{
		HookURL: srv.URL,
		Templates: map[string]string{
			event.OnGoalPlanned: `{{.Goal.Goal}} planned ({{.Goal.State}})`,
		},
	}, nil)
	planned := event.New(event.OnGoalPlanned, examplePush, &event.GoalEventMetadata{
		Goal:  goal.BuildGoal.Context(),
		State: goal.StatePlanned,
	})
	require.NoError(t, s.Notify(context.Background(), planned))

	e := completed(goal.StateSuccess, "", "")
	e.Message = "All done"
	require.NoError(t, s.Notify(context.Background(), e))

	require.Len(t, *got, 2)
	assert.Equal(t, "sdm/0-code/build planned (planned)", (*got)[0].Text)
	assert.Empty(t, (*got)[0].Attachments)
	assert.Equal(t, "All done", (*got)[1].Text)
	assert.Equal(t, "success", (*got)[1].Attachments[0].Text)
	assert.Equal(t, "good", (*got)[1].Attachments[0].Color)
}

func TestSlackError(t *testing.T) {
	srv, _ := slackServer(t, http.StatusNotFound)
	defer srv.Close()

	s := NewSlack(SlackConfig{HookURL: srv.URL}, nil)
	err := s.Notify(context.Background(), completed(goal.StateSuccess, "", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	err = s.Notify(context.Background(), event.Event{Type: "unknown", Metadata: event.UnknownEventMetadata{}})
	assert.Error(t, err)
}

func TestSlackUnit(t *testing.T) {
	s := NewSlack(SlackConfig{HookURL: "http://example.com"}, nil)
	u := s.Unit()
	require.Len(t, u.EventHandlers(), 1)
	assert.Equal(t, event.OnGoalCompleted, u.EventHandlers()[0]().Subscription())
	assert.Empty(t, u.CommandHandlers())

	s = NewSlack(SlackConfig{NotifyEvents: []string{event.OnPush, event.OnGoalPlanned}}, nil)
	var subs []string
	for _, m := range s.Unit().EventHandlers() {
		subs = append(subs, m().Subscription())
	}
	assert.Equal(t, []string{event.OnPush, event.OnGoalPlanned}, subs)
}
