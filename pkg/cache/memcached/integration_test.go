// +build integration

package memcached

import (
	"flag"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"

	"github.com/fluxcd/sdm/pkg/cache"
	"github.com/fluxcd/sdm/pkg/push"
)

var (
	memcachedIPs = flag.String("memcached-ips", "127.0.0.1:11211", "space-separated host:port values for memcached to connect to")
)

func TestMemcache_ReadWrite(t *testing.T) {
	mc := NewFixedServerMemcacheClient(MemcacheConfig{
		Timeout: time.Second,
		Logger:  log.With(log.NewLogfmtLogger(os.Stderr), "component", "memcached"),
	}, strings.Fields(*memcachedIPs)...)

	key := cache.NewChangesKey(push.RepoRef{Owner: "fluxcd", Name: "sdm"}, "abc", time.Now().String())
	_, err := mc.GetKey(key)
	assert.Equal(t, cache.ErrNotCached, err)

	val := []byte(`["src/App.java"]`)
	if err := mc.SetKey(key, time.Minute, val); err != nil {
		t.Fatal(err)
	}
	cached, err := mc.GetKey(key)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, val, cached)
}
