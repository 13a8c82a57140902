package gittest

import (
	"bytes"
	"io/ioutil"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// Repo is a scratch git repository on the local filesystem, for tests
// that need real commits to look at.
type Repo struct {
	Dir string
	t   *testing.T
}

// NewRepo initialises an empty repository with `master` checked out.
// Also returns a cleanup func to clean up after.
func NewRepo(t *testing.T) (*Repo, func()) {
	dir, err := ioutil.TempDir("", "sdm-gittest")
	if err != nil {
		t.Fatal(err)
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			t.Fatal(err)
		}
	}
	r := &Repo{Dir: dir, t: t}
	r.Git("init")
	r.Git("symbolic-ref", "HEAD", "refs/heads/master")
	r.Git("config", "--local", "user.email", "example@example.com")
	r.Git("config", "--local", "user.name", "example")
	return r, cleanup
}

// Commit writes the files given, relative to the root of the repo,
// and commits them with the message. A file with empty content is
// removed instead. Returns the new HEAD revision.
func (r *Repo) Commit(message string, files map[string]string) string {
	for path, content := range files {
		abs := filepath.Join(r.Dir, path)
		if content == "" {
			if err := os.Remove(abs); err != nil {
				r.t.Fatal(err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
			r.t.Fatal(err)
		}
		if err := ioutil.WriteFile(abs, []byte(content), 0644); err != nil {
			r.t.Fatal(err)
		}
	}
	r.Git("add", "--all")
	r.Git("commit", "--allow-empty", "-m", message)
	return r.Git("rev-parse", "HEAD")
}

// Git runs a git command in the repo, failing the test if it does
// not succeed. Returns the trimmed output.
func (r *Repo) Git(args ...string) string {
	cmd := exec.Command("git", append([]string{"-C", r.Dir}, args...)...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	out, err := cmd.Output()
	if err != nil {
		r.t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, stderr.String())
	}
	return strings.TrimSpace(string(out))
}
