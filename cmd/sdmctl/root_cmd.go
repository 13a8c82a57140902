package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fluxcd/sdm/pkg/api"
	transport "github.com/fluxcd/sdm/pkg/http"
	"github.com/fluxcd/sdm/pkg/http/client"
)

const (
	EnvVariableURL   = "SDM_URL"
	EnvVariableToken = "SDM_TOKEN"
	defaultURL       = "http://localhost:3030/api/sdm"
)

type rootOpts struct {
	URL     string
	Token   string
	Output  string
	Timeout time.Duration
	API     api.Server
}

func newRoot() *rootOpts {
	return &rootOpts{}
}

var rootLongHelp = strings.TrimSpace(`
sdmctl talks to a software delivery machine.

Workflow:
  sdmctl check -m machine.yaml                     # Is the machine definition sound?
  sdmctl plan -m machine.yaml --before HEAD~1      # Which goals would a push of HEAD get?
  sdmctl goals                                     # Which goals does the running machine know?
  sdmctl side-effect sdm/0-code/build              # Who fulfils the build goal?
  sdmctl complete --goal sdm/0-code/build \
    --repo fluxcd/sdm --revision 0f3e... --state success
`)

func (opts *rootOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "sdmctl",
		Long:              rootLongHelp,
		SilenceUsage:      true,
		PersistentPreRunE: opts.PersistentPreRunE,
	}
	cmd.PersistentFlags().StringVarP(&opts.URL, "url", "u", defaultURL,
		fmt.Sprintf("base URL of the sdmd API server; you can also set the environment variable %s", EnvVariableURL))
	cmd.PersistentFlags().StringVarP(&opts.Token, "token", "t", "",
		fmt.Sprintf("API token; you can also set the environment variable %s", EnvVariableToken))
	cmd.PersistentFlags().StringVarP(&opts.Output, "output", "o", outputFormatTab, "output format (one of {tab,yaml,json})")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 60*time.Second, "global command timeout")

	cmd.AddCommand(
		newVersionCommand(),
		newGoals(opts).Command(),
		newSideEffect(opts).Command(),
		newComplete(opts).Command(),
		newRun(opts).Command(),
		newJob(opts).Command(),
		newPush(opts).Command(),
		newPlan(opts).Command(),
		newCheck(opts).Command(),
	)
	return cmd
}

func (opts *rootOpts) PersistentPreRunE(cmd *cobra.Command, _ []string) error {
	if err := checkOutputFormat(opts.Output); err != nil {
		return err
	}
	if opts.API != nil {
		return nil
	}
	opts.URL = getFromEnvIfNotSet(cmd.Flags().Changed("url"), EnvVariableURL, opts.URL)
	opts.Token = getFromEnvIfNotSet(cmd.Flags().Changed("token"), EnvVariableToken, opts.Token)
	opts.API = client.New(http.DefaultClient, transport.NewAPIRouter(), opts.URL, client.Token(opts.Token))
	return nil
}

func getFromEnvIfNotSet(changed bool, env, value string) string {
	if changed {
		return value
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return value
}

func (opts *rootOpts) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opts.Timeout)
}
