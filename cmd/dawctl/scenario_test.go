package main

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chabad360/dawctl/internal/daw"
	"github.com/chabad360/dawctl/osc"
)

const trackCountScenario = `
name = "count"
title = "Track Count Check"
troubleshooting = [
  "Make sure REAPER is running",
  "Feedback goes to port ${receive_port}",
]

[[tests]]
title = "Get Track Count"
result = "Retrieved track count"

  [[tests.steps]]
  command = "get_track_count"
  await = true
`

// execute runs the dawctl root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	scenarioFile, skipSettle = "", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "count.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func udpPort(t *testing.T, conn net.PacketConn) string {
	t.Helper()
	return strconv.Itoa(conn.LocalAddr().(*net.UDPAddr).Port)
}

// freePort returns a UDP port that was free a moment ago.
func freePort(t *testing.T) string {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()
	return udpPort(t, conn)
}

// silentDAW accepts commands and never answers.
func silentDAW(t *testing.T) string {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return udpPort(t, conn)
}

// countingDAW answers track count queries with feedback to feedbackPort.
func countingDAW(t *testing.T, feedbackPort string, tracks int32) string {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	feedback, err := osc.Dial(net.JoinHostPort("127.0.0.1", feedbackPort))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv := &osc.Server{Handler: osc.HandlerFunc(func(p osc.Packet, _ net.Addr) {
			for _, msg := range osc.Messages(p) {
				if msg.Address == daw.AddressTrackCountGet {
					_ = feedback.Send(osc.NewMessage(daw.AddressTrackCount, tracks))
				}
			}
		})}
		_ = srv.Serve(ctx, conn)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		conn.Close()
		feedback.Close()
	})
	return udpPort(t, conn)
}

func TestTools_Reachable(t *testing.T) {
	t.Setenv("DAWCTL_OSC_REPLY_TIMEOUT", "2s")
	receive := freePort(t)
	send := countingDAW(t, receive, 3)

	out, err := execute(t, "tools",
		"--log-level", "error", "--host", "127.0.0.1",
		"--send-port", send, "--receive-port", receive,
		"--skip-settle", "--scenario", writeScenario(t, trackCountScenario))
	require.NoError(t, err, out)
	assert.Equal(t, 0, exitCode(err, false))
	assert.Contains(t, out, "Listening for responses on 127.0.0.1:"+receive)
	assert.Contains(t, out, "[Received] /track/count: [3]")
	assert.Contains(t, out, "Retrieved track count (1 replies)")
	assert.Contains(t, out, "[SUMMARY] All 1 tests completed successfully!")
	assert.NotContains(t, out, "Troubleshooting:")
}

func TestTools_Silent(t *testing.T) {
	t.Setenv("DAWCTL_OSC_REPLY_TIMEOUT", "200ms")

	out, err := execute(t, "tools",
		"--log-level", "error", "--host", "127.0.0.1",
		"--send-port", silentDAW(t), "--receive-port", "0",
		"--skip-settle", "--scenario", writeScenario(t, trackCountScenario))
	require.Error(t, err)

	var re *reportedError
	assert.True(t, errors.As(err, &re), "failure is printed by the command")
	assert.Equal(t, 1, exitCode(err, false))
	assert.Contains(t, out, "Test failed: 1 of 1 tests failed")
	assert.Contains(t, out, "Troubleshooting:")
	assert.Contains(t, out, "1. Make sure REAPER is running")
	assert.Contains(t, out, "2. Feedback goes to port 0")
	assert.NotContains(t, out, "[SUMMARY]")
}

func TestSetup_FeedbackPortHeld(t *testing.T) {
	held, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer held.Close()

	out, err := execute(t, "setup",
		"--log-level", "error", "--host", "127.0.0.1",
		"--send-port", silentDAW(t), "--receive-port", udpPort(t, held),
		"--skip-settle")
	require.NoError(t, err, out)
	assert.Equal(t, 0, exitCode(err, false))
	assert.NotContains(t, out, "Listening for responses")
	assert.Contains(t, out, "[SUMMARY] All 6 tests completed successfully!")
}

func TestSetup_RejectsAwaits(t *testing.T) {
	out, err := execute(t, "setup",
		"--log-level", "error", "--host", "127.0.0.1",
		"--send-port", silentDAW(t), "--receive-port", "0",
		"--scenario", writeScenario(t, trackCountScenario))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "awaits 1 replies")
	assert.Empty(t, out)
}
