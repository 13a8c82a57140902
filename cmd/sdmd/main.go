package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/fluxcd/sdm/pkg/cache"
	"github.com/fluxcd/sdm/pkg/cache/memcached"
	"github.com/fluxcd/sdm/pkg/config"
	"github.com/fluxcd/sdm/pkg/daemon"
	"github.com/fluxcd/sdm/pkg/git"
	"github.com/fluxcd/sdm/pkg/github"
	daemonhttp "github.com/fluxcd/sdm/pkg/http/daemon"
	"github.com/fluxcd/sdm/pkg/job"
	"github.com/fluxcd/sdm/pkg/machine"
	"github.com/fluxcd/sdm/pkg/notifications"
	"github.com/fluxcd/sdm/pkg/push"
)

var version = "unversioned"

const memcacheUpdateInterval = time.Minute

// checkoutProjects reads pushed files from the tree of the pushed
// revision in a local checkout.
type checkoutProjects struct {
	checkout *git.Checkout
}

func (c checkoutProjects) Project(_ context.Context, p push.Push) (push.Project, error) {
	return c.checkout.ProjectAt(p.After), nil
}

func main() {
	// Flag domain.
	fs := pflag.NewFlagSet("default", pflag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "DESCRIPTION\n")
		fmt.Fprintf(os.Stderr, "  sdmd is a software delivery machine. It plans goals for pushes,\n")
		fmt.Fprintf(os.Stderr, "  and tells side effects what to do about them.\n")
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "FLAGS\n")
		fs.PrintDefaults()
	}

	var (
		configFile  = fs.String("config", "", "path to a config file; flags and "+config.EnvPrefix+"_* environment variables override what it says")
		versionFlag = fs.Bool("version", false, "get version number")
	)
	defineConfigFlags(fs, func(err error) {
		fmt.Fprintf(os.Stderr, "error defining flags: %s\n", err)
		os.Exit(1)
	})
	fs.Parse(os.Args[1:])

	if *versionFlag {
		fmt.Println(version)
		os.Exit(0)
	}

	var cfg config.Config
	if *configFile != "" {
		viper.SetConfigFile(*configFile)
		viper.SetConfigType(config.ConfigType)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "error reading config file: %s\n", err)
			os.Exit(1)
		}
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error interpreting config: %s\n", err)
		os.Exit(1)
	}
	if *configFile != "" {
		if err := cfg.IsValid(); err != nil {
			fmt.Fprintf(os.Stderr, "invalid config file %s: %s\n", *configFile, err)
			os.Exit(1)
		}
	}

	// Logger domain.
	var logger log.Logger
	{
		switch cfg.LogFormat {
		case "json":
			logger = log.NewJSONLogger(log.NewSyncWriter(os.Stderr))
		case "fmt":
			logger = log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
		default:
			fmt.Fprintf(os.Stderr, "unsupported log format: %q\n", cfg.LogFormat)
			os.Exit(1)
		}
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
	}
	logger.Log("version", version)

	// GitHub component.
	var gh *github.Client
	if cfg.GitHubEnabled() {
		logger := log.With(logger, "component", "github")
		var err error
		gh, err = github.NewClient(github.Config{
			Token:   cfg.GitHubToken,
			BaseURL: cfg.GitHubURL,
			RPS:     cfg.GitHubRPS,
			Burst:   cfg.GitHubBurst,
			Timeout: cfg.GitHubTimeout,
		}, logger)
		if err != nil {
			logger.Log("err", err)
			os.Exit(1)
		}
		if err := gh.Ping(context.Background()); err != nil {
			logger.Log("warning", "GitHub API not reachable", "err", err)
		}
	}

	// Changed files component.
	var (
		lister   push.ChangedFilesLister
		projects daemon.ProjectLoader
	)
	{
		logger := log.With(logger, "component", "changes")
		switch {
		case cfg.GitCheckout != "":
			checkout := git.NewCheckout(cfg.GitCheckout)
			if _, err := checkout.HeadRevision(context.Background()); err != nil {
				logger.Log("err", err)
				os.Exit(1)
			}
			lister = git.Lister{Checkout: checkout}
			projects = checkoutProjects{checkout: checkout}
			logger.Log("source", "git", "dir", checkout.Dir())
		case gh != nil:
			lister = gh
			projects = gh
			logger.Log("source", "github")
		default:
			logger.Log("source", "none", "warning", "changed files will never be known; every material change test passes")
		}

		if lister != nil && cfg.MemcachedEnabled() {
			memcacheConfig := memcached.MemcacheConfig{
				Host:           cfg.MemcachedHostname,
				Service:        cfg.MemcachedService,
				Timeout:        cfg.MemcachedTimeout,
				UpdateInterval: memcacheUpdateInterval,
				Logger:         log.With(logger, "component", "memcached"),
			}
			var mc *memcached.MemcacheClient
			if cfg.MemcachedService == "" {
				mc = memcached.NewFixedServerMemcacheClient(memcacheConfig,
					cfg.MemcachedHostname+":"+strconv.Itoa(cfg.MemcachedPort))
			} else {
				mc = memcached.NewMemcacheClient(memcacheConfig)
			}
			defer mc.Stop()
			lister = &cache.Lister{
				Next:   lister,
				Cache:  cache.InstrumentClient(mc),
				Expiry: cfg.MemcachedExpiry,
				Logger: logger,
			}
			logger.Log("cache", "memcached", "host", cfg.MemcachedHostname, "service", cfg.MemcachedService)
		}
	}

	// Machine component.
	var m *machine.Machine
	{
		logger := log.With(logger, "component", "machine")
		def, err := machine.LoadDefinition(cfg.Machine)
		if err != nil {
			logger.Log("err", err)
			os.Exit(1)
		}
		m, err = def.Compile(machine.Collaborators{Lister: lister, Logger: logger})
		if err != nil {
			logger.Log("err", err)
			os.Exit(1)
		}
		if cfg.SlackURL != "" {
			slack := notifications.NewSlack(notifications.SlackConfig{
				HookURL:      cfg.SlackURL,
				Username:     cfg.SlackUsername,
				NotifyEvents: cfg.SlackEvents,
			}, log.With(logger, "component", "slack"))
			m.AddFunctionalUnits(slack.Unit())
		}
		logger.Log("machine", m.Name(), "file", cfg.Machine)
		fmt.Fprint(os.Stderr, m.Describe())
	}

	// Mechanical components.

	// When we can receive from this channel, it indicates that we
	// are ready to shut down.
	errc := make(chan error)
	// This signals other routines to shut down;
	shutdown := make(chan struct{})
	// .. and this is to wait for other routines to shut down cleanly.
	shutdownWg := &sync.WaitGroup{}

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errc <- fmt.Errorf("%s", <-c)
	}()

	jobs := job.NewQueue(shutdown, shutdownWg)
	d := &daemon.Daemon{
		V:              version,
		Machine:        m,
		Projects:       projects,
		Jobs:           jobs,
		JobStatusCache: &job.StatusCache{Size: cfg.JobStatusCache},
		Logger:         log.With(logger, "component", "daemon"),
		HandlerTimeout: cfg.HandlerTimeout,
	}
	if gh != nil && cfg.GitHubStatuses {
		d.Statuses = gh
	}

	shutdownWg.Add(1)
	go d.Loop(shutdown, shutdownWg, log.With(logger, "component", "loop"))

	// Metrics and API server.
	go func() {
		mux := http.DefaultServeMux
		// Serve /metrics alongside API
		if cfg.ListenMetrics == "" {
			mux.Handle("/metrics", promhttp.Handler())
		}
		handler := daemonhttp.NewHandler(d, daemonhttp.NewRouter(), daemonhttp.HandlerConfig{
			Token:         cfg.Token,
			WebhookSecret: []byte(cfg.GitHubWebhookSecret),
			Logger:        log.With(logger, "component", "api"),
		})
		mux.Handle("/api/sdm/", http.StripPrefix("/api/sdm", handler))
		logger.Log("addr", cfg.Listen)
		errc <- http.ListenAndServe(cfg.Listen, mux)
	}()

	if cfg.ListenMetrics != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Log("metrics-addr", cfg.ListenMetrics)
			errc <- http.ListenAndServe(cfg.ListenMetrics, mux)
		}()
	}

	// wait here until stopping.
	logger.Log("exiting", <-errc)
	close(shutdown)
	shutdownWg.Wait()
}
