package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chabad360/dawctl/internal/remote"
	"github.com/chabad360/dawctl/internal/scenario"
)

var (
	scenarioFile string
	skipSettle   bool
)

func init() {
	for _, c := range []*cobra.Command{setupCmd, toolsCmd} {
		c.Flags().StringVar(&scenarioFile, "scenario", "", "run this TOML scenario instead of the built-in one")
		c.Flags().BoolVar(&skipSettle, "skip-settle", false, "do not wait after commands the DAW does not acknowledge")
		rootCmd.AddCommand(c)
	}
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Check that the DAW accepts OSC commands",
	Long: `Send the setup sequence to the DAW: a new project, two named tracks and a
MIDI item on the first one. Nothing is verified automatically; check the DAW.

Examples:
  dawctl setup
  dawctl setup --host 192.168.1.20 --send-port 8000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runScenario(cmd, "setup", sendOnly)
	},
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Run every tool test against the DAW and verify the replies",
	Long: `Run the comprehensive tool tests over OSC. Queries wait for their reply
from the DAW, so the DAW must send feedback to the receive port.

Examples:
  dawctl tools
  dawctl tools --receive-port 9001 --log-level debug
  dawctl tools --scenario my-tests.toml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runScenario(cmd, "tools", echo)
	},
}

func runScenario(cmd *cobra.Command, builtin string, fb feedback) error {
	ctx := cmd.Context()
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	var sc *scenario.Scenario
	if scenarioFile != "" {
		sc, err = scenario.LoadFile(scenarioFile)
	} else {
		sc, err = scenario.Builtin(builtin)
	}
	if err != nil {
		return err
	}
	if n := sc.Awaited(); fb == sendOnly && n > 0 {
		return fmt.Errorf("scenario %q awaits %d replies; run it with dawctl tools", sc.Name, n)
	}

	a.rep.Header(sc.Title)
	a.rep.Info("Connecting to REAPER at %s", a.cfg.OSC.SendAddr())
	if fb != sendOnly {
		a.rep.Info("Listening for responses on %s", a.cfg.OSC.ListenAddr())
	}
	for _, l := range a.expand(sc.Intro) {
		a.rep.Info("%s", l)
	}

	var sum scenario.Summary
	err = a.withSurface(ctx, fb, func(ctx context.Context, s *remote.Surface) error {
		a.rep.OK("OSC client created successfully")
		runner := &scenario.Runner{
			Remote:     s,
			Reporter:   a.rep,
			Logger:     a.log.Named("scenario"),
			SkipSettle: skipSettle,
		}
		var err error
		sum, err = runner.Run(ctx, sc)
		return err
	})
	if err == nil && !sum.OK() {
		err = fmt.Errorf("%d of %d tests failed", sum.Failed, len(sc.Tests))
	}
	if err != nil {
		return a.fail(ctx, err, a.expand(sc.Troubleshooting))
	}

	a.rep.Header("Test Summary")
	a.rep.Line("")
	a.rep.Line("[SUMMARY] All %d tests completed successfully!", sum.Passed)
	a.rep.List("Verification Checklist", sc.Checklist)
	if sc.Success != "" {
		a.rep.Success("%s", sc.Success)
	}
	a.rep.List("Tools Tested", sc.Coverage)
	return nil
}
