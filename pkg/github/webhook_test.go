package github

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fluxerr "github.com/fluxcd/sdm/pkg/errors"
)

const pushPayload = `{
  "ref": "refs/heads/master",
  "before": "1111111111111111111111111111111111111111",
  "after": "2222222222222222222222222222222222222222",
  "deleted": false,
  "repository": {
    "name": "sdm",
    "html_url": "https://github.com/fluxcd/sdm",
    "default_branch": "master",
    "owner": {"name": "fluxcd", "login": "fluxcd"}
  },
  "commits": [
    {"id": "2222222222222222222222222222222222222222", "message": "Build with maven", "author": {"name": "Ann"}}
  ]
}`

var secret = []byte("s3cret")

func webhookRequest(eventType, payload string, key []byte) *http.Request {
	r := httptest.NewRequest("POST", "/webhook", bytes.NewBufferString(payload))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("X-GitHub-Event", eventType)
	if key != nil {
		mac := hmac.New(sha1.New, key)
		mac.Write([]byte(payload))
		r.Header.Set("X-Hub-Signature", "sha1="+hex.EncodeToString(mac.Sum(nil)))
	}
	return r
}

func TestParsePushRequest(t *testing.T) {
	p, err := ParsePushRequest(webhookRequest("push", pushPayload, secret), secret)
	require.NoError(t, err)

	assert.Equal(t, "fluxcd/sdm", p.Repo.String())
	assert.Equal(t, "https://github.com/fluxcd/sdm", p.Repo.URL)
	assert.True(t, p.ToDefaultBranch())
	assert.Equal(t, before, p.Before)
	assert.Equal(t, after, p.After)
	require.Len(t, p.Commits, 1)
	assert.Equal(t, "Build with maven", p.Commits[0].Message)
	assert.Equal(t, "Ann", p.Commits[0].Author)
}

func TestParsePushRequestBadSignature(t *testing.T) {
	_, err := ParsePushRequest(webhookRequest("push", pushPayload, []byte("wrong")), secret)
	assert.True(t, fluxerr.IsUser(err))

	_, err = ParsePushRequest(webhookRequest("push", pushPayload, nil), secret)
	assert.True(t, fluxerr.IsUser(err))
}

func TestParsePushRequestWithoutSecret(t *testing.T) {
	for _, key := range [][]byte{nil, []byte("whatever")} {
		p, err := ParsePushRequest(webhookRequest("push", pushPayload, key), nil)
		require.NoError(t, err)
		assert.Equal(t, "fluxcd/sdm", p.Repo.String())
		assert.Equal(t, after, p.After)
	}
}

func TestParsePushRequestOtherEvents(t *testing.T) {
	_, err := ParsePushRequest(webhookRequest("ping", `{"zen": "Keep it logically awesome."}`, secret), secret)
	assert.Equal(t, ErrPing, err)

	_, err = ParsePushRequest(webhookRequest("issues", `{}`, secret), secret)
	assert.True(t, fluxerr.IsUser(err))

	deleted := bytes.Replace([]byte(pushPayload), []byte(`"deleted": false`), []byte(`"deleted": true`), 1)
	_, err = ParsePushRequest(webhookRequest("push", string(deleted), secret), secret)
	assert.Equal(t, ErrRefDeleted, err)
}
