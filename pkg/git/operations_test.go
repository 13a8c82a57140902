package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{}, splitList(""))
	assert.Equal(t, []string{}, splitList("\n"))
	assert.Equal(t, []string{"a.java", "docs/b.md"}, splitList("a.java\ndocs/b.md\n"))
}

func TestSplitLog(t *testing.T) {
	commits, err := splitLog("abc|Ann|first\ndef|Bob|second | with a pipe\n")
	assert.NoError(t, err)
	assert.Equal(t, []Commit{
		{Revision: "abc", Author: "Ann", Message: "first"},
		{Revision: "def", Author: "Bob", Message: "second | with a pipe"},
	}, commits)

	_, err = splitLog("not a log line")
	assert.Error(t, err)
}
