// Package toolclient drives the DAW through an MCP tool server.
package toolclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ErrToolFailed is returned when a tool reports an error result.
var ErrToolFailed = errors.New("tool failed")

// CommandTransport returns a transport that starts the tool server as a
// subprocess and talks to it over stdio. env is added to the current environment.
func CommandTransport(command string, args, env []string) *mcp.CommandTransport {
	cmd := exec.Command(command, args...)
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	cmd.Stderr = os.Stderr
	return &mcp.CommandTransport{Command: cmd}
}

// ToolInfo describes one advertised tool.
type ToolInfo struct {
	Name        string
	Description string
	// Params are the property names of the input schema, sorted.
	Params []string
}

// ListTools returns every tool the server advertises, following pagination.
func ListTools(ctx context.Context, session *mcp.ClientSession) ([]ToolInfo, error) {
	var out []ToolInfo
	params := &mcp.ListToolsParams{}
	for {
		res, err := session.ListTools(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("list tools: %w", err)
		}
		for _, t := range res.Tools {
			info := ToolInfo{Name: t.Name, Description: t.Description}
			info.Params, err = schemaProperties(t.InputSchema)
			if err != nil {
				return nil, fmt.Errorf("list tools: %s: %w", t.Name, err)
			}
			out = append(out, info)
		}
		if res.NextCursor == "" {
			return out, nil
		}
		params.Cursor = res.NextCursor
	}
}

// schemaProperties returns the sorted property names of a JSON schema.
func schemaProperties(schema any) ([]string, error) {
	if schema == nil {
		return nil, nil
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	var s struct {
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// CallText calls the tool and returns its text content, joined by newlines.
func CallText(ctx context.Context, session *mcp.ClientSession, name string, args map[string]any) (string, error) {
	if args == nil {
		args = map[string]any{}
	}
	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return "", fmt.Errorf("call %s: %w", name, err)
	}

	var texts []string
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}
	text := strings.Join(texts, "\n")
	if res.IsError {
		return text, fmt.Errorf("call %s: %w: %s", name, ErrToolFailed, text)
	}
	return text, nil
}
