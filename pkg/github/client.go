package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/google/go-github/v28/github"
	"golang.org/x/oauth2"

	fluxmetrics "github.com/fluxcd/sdm/pkg/metrics"
)

const (
	defaultBaseURL = "https://api.github.com/"
	defaultRPS     = 10
	defaultBurst   = 20
	defaultTimeout = 20 * time.Second
)

// Config says how to reach the GitHub API.
type Config struct {
	// Token is an OAuth2 or personal access token; without one, only
	// public repositories can be read and no statuses can be set.
	Token string
	// BaseURL is the API endpoint, for GitHub Enterprise e.g.,
	// https://github.example.com/api/v3/
	BaseURL string
	RPS     float64
	Burst   int
	Timeout time.Duration
}

// Client talks to the GitHub API on behalf of the daemon: it lists
// the files changed by pushes, lets push tests look at the pushed
// tree, and reports goal states as commit statuses.
type Client struct {
	gh       *github.Client
	limiters *RateLimiters
	host     string
	logger   log.Logger
}

func NewClient(cfg Config, logger log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	if cfg.RPS <= 0 {
		cfg.RPS = defaultRPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing GitHub API URL %q: %s", cfg.BaseURL, err)
	}

	limiters := &RateLimiters{RPS: cfg.RPS, Burst: cfg.Burst, Logger: log.With(logger, "component", "ratelimiter")}
	var transport http.RoundTripper = limiters.RoundTripper(http.DefaultTransport, baseURL.Host)
	if cfg.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}),
			Base:   transport,
		}
	}

	gh := github.NewClient(&http.Client{Transport: transport, Timeout: cfg.Timeout})
	gh.BaseURL = baseURL
	return &Client{
		gh:       gh,
		limiters: limiters,
		host:     baseURL.Host,
		logger:   logger,
	}, nil
}

func observe(op string, begin time.Time, err error) {
	requestDuration.With(
		fluxmetrics.LabelOperation, op,
		fluxmetrics.LabelSuccess, fmt.Sprint(err == nil),
	).Observe(time.Since(begin).Seconds())
}

// Ping checks the credentials by asking for the rate limits, which
// does not count against them.
func (c *Client) Ping(ctx context.Context) (err error) {
	defer func(begin time.Time) { observe("ping", begin, err) }(time.Now())
	_, _, err = c.gh.RateLimits(ctx)
	return apiError("rate limits", err)
}
