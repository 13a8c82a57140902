package main

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxcd/sdm/pkg/api"
	"github.com/fluxcd/sdm/pkg/git/gittest"
)

const testMachine = `
name: test-sdm
goals:
- name: build
  sideEffect: ci
- name: deploy
  environment: 1-staging
rules:
- name: java build
  test:
    all:
    - isMaven: true
    - materialChange: java
  goals: [build, sdm/1-staging/deploy]
`

func writeMachine(t *testing.T, definition string) (string, func()) {
	dir, err := ioutil.TempDir("", "sdmctl-machine")
	require.NoError(t, err)
	path := filepath.Join(dir, "machine.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte(definition), 0644))
	return path, func() { os.RemoveAll(dir) }
}

func plan(t *testing.T, args ...string) api.PushResult {
	out := mustExecute(t, &mockServer{}, append([]string{"plan", "-o", "json"}, args...)...)
	var result api.PushResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	return result
}

func goalContexts(result api.PushResult) []string {
	var contexts []string
	for _, g := range result.Goals {
		contexts = append(contexts, g.Context)
	}
	return contexts
}

func TestPlan(t *testing.T) {
	machineFile, cleanupMachine := writeMachine(t, testMachine)
	defer cleanupMachine()
	repo, cleanup := gittest.NewRepo(t)
	defer cleanup()

	repo.Commit("initial", map[string]string{"pom.xml": "<project/>", "README.md": "# hi"})
	docs := repo.Commit("docs", map[string]string{"README.md": "# hello"})

	result := plan(t, "-m", machineFile, "--dir", repo.Dir, "--before", "HEAD~1")
	assert.Equal(t, docs, result.Revision)
	assert.Equal(t, filepath.Base(repo.Dir), result.Repo.Name)
	assert.Empty(t, result.Goals)

	code := repo.Commit("code", map[string]string{"src/main/java/App.java": "class App {}"})
	result = plan(t, "-m", machineFile, "--dir", repo.Dir, "--before", docs)
	assert.Equal(t, code, result.Revision)
	assert.Equal(t, []string{"sdm/0-code/build", "sdm/1-staging/deploy"}, goalContexts(result))
	assert.Equal(t, "ci", result.Goals[0].SideEffect)
	assert.Equal(t, "requested", string(result.Goals[0].State))
	assert.Equal(t, "planned", string(result.Goals[1].State))
}

func TestPlanUnknownChanges(t *testing.T) {
	machineFile, cleanupMachine := writeMachine(t, testMachine)
	defer cleanupMachine()
	repo, cleanup := gittest.NewRepo(t)
	defer cleanup()

	repo.Commit("initial", map[string]string{"pom.xml": "<project/>", "README.md": "# hi"})

	// with nothing to compare against, material change tests pass
	result := plan(t, "-m", machineFile, "--dir", repo.Dir)
	assert.Equal(t, []string{"sdm/0-code/build", "sdm/1-staging/deploy"}, goalContexts(result))
}

func TestPlanWorkingTree(t *testing.T) {
	machineFile, cleanupMachine := writeMachine(t, testMachine)
	defer cleanupMachine()
	repo, cleanup := gittest.NewRepo(t)
	defer cleanup()

	repo.Commit("initial", map[string]string{"README.md": "# hi"})
	require.NoError(t, ioutil.WriteFile(filepath.Join(repo.Dir, "pom.xml"), []byte("<project/>"), 0644))

	result := plan(t, "-m", machineFile, "--dir", repo.Dir)
	assert.Empty(t, result.Goals)

	result = plan(t, "-m", machineFile, "--dir", repo.Dir, "--working-tree")
	assert.Equal(t, []string{"sdm/0-code/build", "sdm/1-staging/deploy"}, goalContexts(result))
}

func TestPlanErrors(t *testing.T) {
	machineFile, cleanupMachine := writeMachine(t, testMachine)
	defer cleanupMachine()
	repo, cleanup := gittest.NewRepo(t)
	defer cleanup()
	repo.Commit("initial", map[string]string{"pom.xml": "<project/>"})

	_, err := execute(t, &mockServer{}, "plan", "-m", machineFile, "--dir", repo.Dir, "--before", "no-such-rev")
	assert.Error(t, err)

	_, err = execute(t, &mockServer{}, "plan", "-m", filepath.Join(repo.Dir, "missing.yaml"), "--dir", repo.Dir)
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	machineFile, cleanup := writeMachine(t, testMachine)
	defer cleanup()

	out := mustExecute(t, &mockServer{}, "check", "-m", machineFile)
	assert.Contains(t, out, "SDM test-sdm")
	assert.Contains(t, out, "side effect ci")

	bad, cleanupBad := writeMachine(t, "name: broken\nrules:\n- name: r\n  goals: [nope]\n")
	defer cleanupBad()
	_, err := execute(t, &mockServer{}, "check", "-m", bad)
	assert.Error(t, err)
}

func TestPush(t *testing.T) {
	repo, cleanup := gittest.NewRepo(t)
	defer cleanup()
	first := repo.Commit("initial", map[string]string{"pom.xml": "<project/>"})
	second := repo.Commit("more", map[string]string{"src/main/java/App.java": "class App {}"})
	repo.Git("remote", "add", "origin", "git@github.com:fluxcd/sdm.git")

	server := &mockServer{}
	out := mustExecute(t, server, "push", "--dir", repo.Dir, "--before", first)
	assert.Contains(t, out, "sdm/0-code/build")

	assert.Equal(t, "fluxcd/sdm", server.push.Repo.String())
	assert.Equal(t, "refs/heads/master", server.push.Ref)
	assert.Equal(t, first, server.push.Before)
	assert.Equal(t, second, server.push.After)
	require.Len(t, server.push.Commits, 1)
	assert.Equal(t, "more", server.push.Commits[0].Message)
}
