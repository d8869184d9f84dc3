package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/chabad360/dawctl/internal/remote"
)

var listenFor time.Duration

func init() {
	listenCmd.Flags().DurationVar(&listenFor, "for", 0, "stop after this long (default: until interrupted)")
	rootCmd.AddCommand(listenCmd)
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print the OSC feedback the DAW sends",
	Long: `Bind the receive port and print every OSC message that arrives, bundles
included, until interrupted.

Examples:
  dawctl listen
  dawctl listen --receive-port 9001 --for 30s`,
	Args: cobra.NoArgs,
	RunE: runListen,
}

func runListen(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	a.rep.Info("OSC listener started on %s", a.cfg.OSC.ListenAddr())
	var received int
	err = a.withSurface(ctx, echo, func(ctx context.Context, s *remote.Surface) error {
		if listenFor > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, listenFor)
			defer cancel()
		}
		<-ctx.Done()
		received = s.Replies().Len()
		return nil
	})
	if err != nil {
		return err
	}
	a.rep.Info("Received %d messages", received)
	return nil
}
