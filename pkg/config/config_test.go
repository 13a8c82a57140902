package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	assert.Error(t, Config{}.IsValid())
	assert.Error(t, Config{ConfigVersion: "v0"}.IsValid())
	assert.NoError(t, Config{ConfigVersion: SDMConfigVersion}.IsValid())
}

func TestEnabled(t *testing.T) {
	var c Config
	assert.False(t, c.GitHubEnabled())
	assert.False(t, c.MemcachedEnabled())

	c.GitHubURL = "https://github.example.com/api/v3/"
	assert.True(t, c.GitHubEnabled())
	c = Config{GitHubToken: "t0ken", MemcachedHostname: "memcached"}
	assert.True(t, c.GitHubEnabled())
	assert.True(t, c.MemcachedEnabled())
}
