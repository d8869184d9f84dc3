// Package main implements dawctl, a remote-control test harness for a DAW
// reached over OSC and over an MCP tool server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chabad360/dawctl/internal/config"
	"github.com/chabad360/dawctl/internal/logging"
	"github.com/chabad360/dawctl/internal/report"
)

var (
	configPath  string
	logLevel    string
	host        string
	sendPort    int
	receivePort int
	metricsAddr string

	version = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	interrupted := ctx.Err() != nil
	stop()

	os.Exit(exitCode(err, interrupted))
}

// exitCode prints what the commands did not and maps err to the process status.
func exitCode(err error, interrupted bool) int {
	if err == nil {
		return 0
	}
	if interrupted {
		report.New(os.Stdout).Info("Test interrupted by user")
		return 1
	}
	var re *reportedError
	if !errors.As(err, &re) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return 1
}

var rootCmd = &cobra.Command{
	Use:   "dawctl",
	Short: "Remote-control test harness for a DAW",
	Long: `dawctl drives a digital audio workstation through its OSC control surface
and through an MCP tool server, and reports what happened.

Configuration comes from built-in defaults, an optional YAML file (--config),
DAWCTL_* environment variables and finally command line flags.

Examples:
  # Check that the DAW accepts OSC commands
  dawctl setup

  # Run every tool test and verify the replies
  dawctl tools --receive-port 9001

  # Walk through the MCP tool server
  dawctl mcp`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&configPath, "config", "", "YAML configuration file")
	f.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.StringVar(&host, "host", "", "host the DAW listens on")
	f.IntVar(&sendPort, "send-port", 0, "port the DAW receives OSC on")
	f.IntVar(&receivePort, "receive-port", 0, "port OSC feedback is received on")
	f.StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
}

// reportedError is an error the command already printed.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// app is what every command needs.
type app struct {
	cfg *config.Config
	log *zap.Logger
	rep *report.Reporter
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Log, nil)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, rep: report.New(cmd.OutOrStdout())}, nil
}

// applyFlags overrides cfg with the flags set on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if f.Changed("host") {
		cfg.OSC.Host = host
	}
	if f.Changed("send-port") {
		cfg.OSC.SendPort = sendPort
	}
	if f.Changed("receive-port") {
		cfg.OSC.ReceivePort = receivePort
	}
	if f.Changed("metrics-addr") {
		cfg.Metrics.Addr = metricsAddr
	}
	return cfg.Validate()
}

// fail prints err with the troubleshooting tips, unless the run was interrupted.
func (a *app) fail(ctx context.Context, err error, tips []string) error {
	if ctx.Err() != nil {
		return err
	}
	a.rep.Error(err)
	a.rep.Troubleshoot(tips)
	return &reportedError{err: err}
}

// expand fills ${host}, ${send_port}, ${receive_port} and ${send_addr} into lines.
func (a *app) expand(lines []string) []string {
	vars := map[string]string{
		"host":         a.cfg.OSC.Host,
		"send_port":    fmt.Sprint(a.cfg.OSC.SendPort),
		"receive_port": fmt.Sprint(a.cfg.OSC.ReceivePort),
		"send_addr":    a.cfg.OSC.SendAddr(),
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = os.Expand(l, func(k string) string { return vars[k] })
	}
	return out
}
