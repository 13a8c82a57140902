package main

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/fluxcd/sdm/pkg/cache"
	"github.com/fluxcd/sdm/pkg/config"
	"github.com/fluxcd/sdm/pkg/event"
)

// envName gives the environment variable that can set a flag, e.g.,
// SDM_GITHUB_TOKEN for --github-token.
func envName(flagName string) string {
	return config.EnvPrefix + "_" + strings.ToUpper(strings.Replace(flagName, "-", "_", -1))
}

// defineConfigFlags defines the flags that can also be set in a
// config file or the environment. These need special treatment,
// because some care must be taken to match them ("bind") with config
// file field names.
func defineConfigFlags(fs *pflag.FlagSet, bail func(error)) {

	bind := func(fieldName, flagName string) error {
		configStruct := reflect.TypeOf(config.Config{})
		field, ok := configStruct.FieldByName(fieldName)
		if !ok {
			return fmt.Errorf("attempt to bind a flag to a field not present in config.Config, %q", fieldName)
		}
		// this parallels the logic in
		// github.com/mitchellh/mapstructure, except that we want to
		// bail if a field is mentioned that is marked ignore, like
		// this: `mapstructure:"-"`
		mappedName := field.Name
		mapstructureTagParts := strings.Split(field.Tag.Get("mapstructure"), ",")
		if namePart := mapstructureTagParts[0]; namePart != "" {
			if namePart == "-" { // means ignore this field
				return fmt.Errorf(`attempt to bind a flag to a config field tagged as ignored, %q`, field.Name)
			}
			mappedName = namePart
		}
		if err := viper.BindPFlag(mappedName, fs.Lookup(flagName)); err != nil {
			return err
		}
		return viper.BindEnv(mappedName, envName(flagName))
	}

	bindOrBail := func(fieldName, flagName string) {
		if err := bind(fieldName, flagName); err != nil {
			bail(err)
		}
	}

	defineString := func(fieldName, flagName, def, desc string) {
		fs.String(flagName, def, desc)
		bindOrBail(fieldName, flagName)
	}

	defineStringP := func(fieldName, flagName, short, def, desc string) {
		fs.StringP(flagName, short, def, desc)
		bindOrBail(fieldName, flagName)
	}

	defineStringSlice := func(fieldName, flagName string, def []string, desc string) {
		fs.StringSlice(flagName, def, desc)
		bindOrBail(fieldName, flagName)
	}

	defineBool := func(fieldName, flagName string, def bool, desc string) {
		fs.Bool(flagName, def, desc)
		bindOrBail(fieldName, flagName)
	}

	defineDuration := func(fieldName, flagName string, def time.Duration, desc string) {
		fs.Duration(flagName, def, desc)
		bindOrBail(fieldName, flagName)
	}

	defineInt := func(fieldName, flagName string, def int, desc string) {
		fs.Int(flagName, def, desc)
		bindOrBail(fieldName, flagName)
	}

	defineFloat64 := func(fieldName, flagName string, def float64, desc string) {
		fs.Float64(flagName, def, desc)
		bindOrBail(fieldName, flagName)
	}

	defineString("LogFormat", "log-format", "fmt", "change the log format (one of {fmt,json})")
	defineStringP("Listen", "listen", "l", ":3030", "listen address where /metrics and API will be served")
	defineString("ListenMetrics", "listen-metrics", "", "listen address for /metrics endpoint")
	defineString("Token", "token", "", "if set, API clients must present this as a bearer token")

	defineStringP("Machine", "machine", "m", "machine.yaml", "path to the file defining goals, push rules and side effects")
	defineDuration("HandlerTimeout", "handler-timeout", time.Minute, "maximum time an event or command handler may take")
	defineInt("JobStatusCache", "job-status-cache", 100, "number of completed jobs to remember the status of")

	// GitHub
	defineString("GitHubURL", "github-url", "", "GitHub API endpoint, for GitHub Enterprise; e.g., https://github.example.com/api/v3/")
	defineString("GitHubToken", "github-token", "", "token used to read pushed repositories and set commit statuses")
	defineString("GitHubWebhookSecret", "github-webhook-secret", "", "secret GitHub signs webhook deliveries with")
	defineBool("GitHubStatuses", "github-statuses", true, "report goal states as commit statuses")
	defineFloat64("GitHubRPS", "github-rps", 10, "maximum GitHub API requests per second")
	defineInt("GitHubBurst", "github-burst", 20, "maximum burst of GitHub API requests")
	defineDuration("GitHubTimeout", "github-timeout", 20*time.Second, "duration after which GitHub API requests time out")

	defineString("GitCheckout", "git-checkout", "", "if set, list changed files and read pushed files from the git checkout at this path rather than the GitHub API")

	defineString("MemcachedHostname", "memcached-hostname", "", "hostname for memcached service; if empty, changed files are not cached")
	defineInt("MemcachedPort", "memcached-port", 11211, "memcached service port.")
	defineDuration("MemcachedTimeout", "memcached-timeout", time.Second, "maximum time to wait before giving up on memcached requests.")
	defineString("MemcachedService", "memcached-service", "", "SRV service used to discover memcache servers; if empty, use hostname and port")
	defineDuration("MemcachedExpiry", "memcached-expiry", cache.DefaultExpiry, "how long changed files are cached for")

	defineString("SlackURL", "slack-url", "", "Slack incoming webhook URL; if empty, nothing is sent to Slack")
	defineString("SlackUsername", "slack-username", "sdm", "username to post to Slack as")
	defineStringSlice("SlackEvents", "slack-events", []string{event.OnGoalCompleted}, "event types to post to Slack")
}
