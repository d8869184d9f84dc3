package main

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chabad360/dawctl/internal/toolclient"
)

var (
	mcpProject string
	mcpTracks  []string
)

func init() {
	mcpCmd.Flags().StringVar(&mcpProject, "project", toolclient.DefaultProjectName, "name of the project to create")
	mcpCmd.Flags().StringSliceVar(&mcpTracks, "tracks", toolclient.DefaultTracks, "tracks to create")
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Walk through the DAW tools of an MCP server",
	Long: `Start the MCP tool server (mcp.command and mcp.args in the configuration),
list its tools and call the DAW tools one by one, printing every result.

The server is started by dawctl; stop any instance that is already running.

Examples:
  dawctl mcp
  dawctl mcp --tracks Piano,Bass --project Demo`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	a.rep.Header("REAPER MCP Protocol Interface Test")
	a.rep.Line("")
	a.rep.Line("This test demonstrates how AI agents interact with")
	a.rep.Line("the REAPER MCP server through the MCP protocol.")

	mc := a.cfg.MCP
	a.log.Debug("starting tool server", zap.String("command", mc.Command), zap.String("args", strings.Join(mc.Args, " ")))

	w := &toolclient.Walkthrough{
		Reporter:    a.rep,
		Logger:      a.log.Named("mcp"),
		Client:      &mcp.Implementation{Name: "dawctl", Version: version},
		ProjectName: mcpProject,
		Tracks:      mcpTracks,
		Pause:       mc.Pause,
	}

	runCtx, cancel := context.WithTimeout(ctx, mc.Timeout)
	defer cancel()
	if err := w.Run(runCtx, toolclient.CommandTransport(mc.Command, mc.Args, mc.Env)); err != nil {
		return a.fail(ctx, err, []string{
			"This test starts its own MCP server instance; stop any server that is already running",
			"Check mcp.command and mcp.args in the configuration: " + mc.Command + " " + strings.Join(mc.Args, " "),
			"Alternatively, use 'dawctl tools', which talks to the DAW over OSC directly",
		})
	}
	return nil
}
