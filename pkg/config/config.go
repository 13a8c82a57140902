// config is the package containing configuration for sdmd, shared so
// it can be used by sdmd itself as well as other programs e.g.,
// `sdmctl`.
package config

import (
	"fmt"
	"time"
)

const (
	ConfigPath       = "/etc/sdmd"
	ConfigName       = "sdm-config.yaml"
	ConfigType       = "yaml"
	SDMConfigVersion = "v1"

	// EnvPrefix is prepended to the upper-cased, underscored flag
	// name to give the environment variable for a setting, e.g.,
	// SDM_GITHUB_TOKEN for --github-token.
	EnvPrefix = "SDM"
)

type Config struct {
	// This is expected to be present in a config file (and will not
	// correspond to a flag). The value determines how the config file
	// is interpreted: for now, if it is not equal to
	// SDMConfigVersion above, it is considered an invalid
	// configuration.
	ConfigVersion string `mapstructure:"sdmConfigVersion"`

	LogFormat     string `mapstructure:"logFormat"`
	Listen        string `mapstructure:"listen"`
	ListenMetrics string `mapstructure:"listenMetrics"`
	Token         string `mapstructure:"token"`

	Machine        string        `mapstructure:"machine"`
	HandlerTimeout time.Duration `mapstructure:"handlerTimeout"`
	JobStatusCache int           `mapstructure:"jobStatusCache"`

	GitHubURL           string        `mapstructure:"githubUrl"`
	GitHubToken         string        `mapstructure:"githubToken"`
	GitHubWebhookSecret string        `mapstructure:"githubWebhookSecret"`
	GitHubStatuses      bool          `mapstructure:"githubStatuses"`
	GitHubRPS           float64       `mapstructure:"githubRps"`
	GitHubBurst         int           `mapstructure:"githubBurst"`
	GitHubTimeout       time.Duration `mapstructure:"githubTimeout"`

	GitCheckout string `mapstructure:"gitCheckout"`

	MemcachedHostname string        `mapstructure:"memcachedHostname"`
	MemcachedPort     int           `mapstructure:"memcachedPort"`
	MemcachedService  string        `mapstructure:"memcachedService"`
	MemcachedTimeout  time.Duration `mapstructure:"memcachedTimeout"`
	MemcachedExpiry   time.Duration `mapstructure:"memcachedExpiry"`

	SlackURL      string   `mapstructure:"slackUrl"`
	SlackUsername string   `mapstructure:"slackUsername"`
	SlackEvents   []string `mapstructure:"slackEvents"`
}

func (c Config) IsValid() error {
	if c.ConfigVersion != SDMConfigVersion {
		return fmt.Errorf("config file is expected to include `sdmConfigVersion: %s` to mark it as an sdm config", SDMConfigVersion)
	}
	return nil
}

// GitHubEnabled is true if sdmd should talk to the GitHub API.
func (c Config) GitHubEnabled() bool {
	return c.GitHubToken != "" || c.GitHubURL != ""
}

// MemcachedEnabled is true if sdmd should cache changed files in
// memcached.
func (c Config) MemcachedEnabled() bool {
	return c.MemcachedHostname != ""
}
