package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chabad360/dawctl/internal/daw"
	"github.com/chabad360/dawctl/internal/remote"
	"github.com/chabad360/dawctl/osc"
)

var (
	sendAwait  string
	sendBundle bool
)

func init() {
	sendCmd.Flags().StringVar(&sendAwait, "await", "", "wait for a reply at this address (pattern) and print it")
	sendCmd.Flags().BoolVar(&sendBundle, "bundle", false, "wrap the message in an immediate bundle")
	rootCmd.AddCommand(sendCmd)
}

var sendCmd = &cobra.Command{
	Use:   "send ADDRESS [ARG...]",
	Short: "Send one OSC message to the DAW",
	Long: `Send one OSC message. Arguments are typed by prefix, or inferred:

  i:42  int32     h:42  int64     f:0.5  float32    d:0.5  float64
  s:txt string    T     true      F      false      N      nil
  42 -> int32, 0.5 -> float32, anything else -> string

Examples:
  dawctl send /action 40001
  dawctl send /track/0/name "s:Lead Vocals"
  dawctl send /track/count/get --await /track/count`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	msg, err := parseMessage(args[0], args[1:])
	if err != nil {
		return err
	}

	if sendAwait == "" {
		return a.sendRaw(msg)
	}
	if sendBundle {
		return fmt.Errorf("--bundle and --await cannot be combined")
	}

	c := daw.Command{Name: "send", Message: msg, Reply: sendAwait}
	return a.withSurface(ctx, quiet, func(ctx context.Context, s *remote.Surface) error {
		reply, err := s.Request(ctx, c)
		if err != nil {
			return err
		}
		a.rep.OK("Sent %s", msg)
		a.rep.Received(reply.Address, reply.Arguments)
		return nil
	})
}

// sendRaw sends msg without binding the receive port.
func (a *app) sendRaw(msg *osc.Message) error {
	client, err := osc.Dial(a.cfg.OSC.SendAddr())
	if err != nil {
		return err
	}
	defer client.Close()

	var p osc.Packet = msg
	if sendBundle {
		p = osc.NewBundle(msg)
	}
	if err := client.Send(p); err != nil {
		return err
	}
	a.rep.OK("Sent %s to %s", msg, client.RemoteAddr())
	return nil
}

// parseMessage builds a message from a command line.
func parseMessage(addr string, args []string) (*osc.Message, error) {
	if !strings.HasPrefix(addr, "/") {
		return nil, fmt.Errorf("address %q must start with '/'", addr)
	}
	msg := osc.NewMessage(addr)
	for _, s := range args {
		arg, err := parseArg(s)
		if err != nil {
			return nil, err
		}
		if err := msg.Append(arg); err != nil {
			return nil, err
		}
	}
	return msg, nil
}

func parseArg(s string) (interface{}, error) {
	switch s {
	case "T":
		return true, nil
	case "F":
		return false, nil
	case "N":
		return nil, nil
	}

	if tag, val, ok := strings.Cut(s, ":"); ok && len(tag) == 1 {
		switch tag {
		case "s":
			return val, nil
		case "i":
			v, err := strconv.ParseInt(val, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("argument %q: %w", s, err)
			}
			return int32(v), nil
		case "h":
			v, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("argument %q: %w", s, err)
			}
			return v, nil
		case "f":
			v, err := strconv.ParseFloat(val, 32)
			if err != nil {
				return nil, fmt.Errorf("argument %q: %w", s, err)
			}
			return float32(v), nil
		case "d":
			v, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, fmt.Errorf("argument %q: %w", s, err)
			}
			return v, nil
		}
	}

	if v, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int32(v), nil
	}
	if v, err := strconv.ParseFloat(s, 32); err == nil {
		return float32(v), nil
	}
	return s, nil
}
