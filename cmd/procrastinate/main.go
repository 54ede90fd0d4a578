// This program prints out Twitch streams that are currently live
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bcmk/procrastinate/internal/config"
	"github.com/bcmk/procrastinate/internal/metrics"
	"github.com/bcmk/procrastinate/internal/present"
	"github.com/bcmk/procrastinate/internal/query"
	"github.com/bcmk/procrastinate/internal/twitch"
	"github.com/bcmk/procrastinate/lib/cmdlib"
	"github.com/spf13/pflag"
)

// Exit codes
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmdlib.InitLog(stderr, cmdlib.ErrVerbosity)
	flags, err := config.ParseFlags("procrastinate", args, stdout)
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "%v, see --help\n", err)
		return exitUsage
	}
	q, err := query.Parse(flags.Args)
	if err != nil {
		fmt.Fprintf(stderr, "%v, see --help\n", err)
		return exitUsage
	}
	cfg, err := config.ReadConfig(flags)
	if err != nil {
		cmdlib.Lerr("config error, %v", err)
		return exitUsage
	}
	cmdlib.InitLog(stderr, cmdlib.VerbosityKind(cfg.Verbosity))
	q.Channels = cfg.Channels

	met := metrics.New()
	defer writeMetrics(cfg.MetricsFile, met)

	api, err := newAPI(cfg, met)
	if err != nil {
		cmdlib.Lerr("%v", err)
		return exitError
	}
	cmdlib.Linf("querying %s api in %s mode", cfg.API, q.Mode)
	streams, err := twitch.NewClient(api).Live(ctx, q)
	if err != nil {
		cmdlib.Lerr("%v", err)
		return exitError
	}
	met.SetLiveStreams(len(streams))
	if err := present.Write(stdout, present.Format(cfg.Format), streams); err != nil {
		cmdlib.Lerr("cannot write output, %v", err)
		return exitError
	}
	return exitOK
}

func newAPI(cfg *config.Config, recorder twitch.Recorder) (twitch.API, error) {
	client := cmdlib.HTTPClientWithTimeoutAndAddress(cfg.TimeoutSeconds, cfg.SourceIPAddress, cfg.EnableCookies)
	switch cfg.API {
	case config.Helix:
		return twitch.NewHelix(twitch.HelixConfig{
			HTTPClient:     client.Client,
			ClientID:       cfg.ClientID,
			ClientSecret:   cfg.ClientSecret,
			AppAccessToken: cfg.AppAccessToken,
			MaxPages:       cfg.MaxPages,
			Recorder:       recorder,
		})
	case config.Kraken:
		return twitch.NewKraken(twitch.KrakenConfig{
			HTTPClient:           client.Client,
			BaseURL:              cfg.APIBaseURL,
			ClientID:             cfg.ClientID,
			MaxPages:             cfg.MaxPages,
			DegradeOnDecodeError: cfg.DegradeOnDecodeError,
			Recorder:             recorder,
		}), nil
	}
	return nil, fmt.Errorf("unknown api %q", cfg.API)
}

func writeMetrics(path string, met *metrics.Metrics) {
	if path == "" {
		return
	}
	if err := met.WriteToTextfile(path); err != nil {
		cmdlib.Lerr("cannot write metrics, %v", err)
		return
	}
	cmdlib.Ldbg("metrics written to %s", path)
}
