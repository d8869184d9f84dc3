// Package config loads dawctl configuration from defaults, an optional YAML
// file and DAWCTL_ environment variables.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/chabad360/dawctl/internal/logging"
)

const (
	// EnvPrefix prefixes every environment variable read by Load.
	EnvPrefix = "DAWCTL_"

	maxConfigFileSize = 1024 * 1024 // 1MB
)

// Config is the complete dawctl configuration.
type Config struct {
	OSC     OSCConfig      `koanf:"osc"`
	MCP     MCPConfig      `koanf:"mcp"`
	Log     logging.Config `koanf:"log"`
	Metrics MetricsConfig  `koanf:"metrics"`
}

// OSCConfig configures the OSC surface of the DAW.
type OSCConfig struct {
	// Host is where the DAW listens, and the interface feedback is received on.
	Host        string `koanf:"host"`
	SendPort    int    `koanf:"send_port"`
	ReceivePort int    `koanf:"receive_port"`

	ReplyTimeout time.Duration `koanf:"reply_timeout"`
	// SendRate is the sustained number of messages per second; 0 disables pacing.
	SendRate  float64 `koanf:"send_rate"`
	SendBurst int     `koanf:"send_burst"`
	// Tagged appends a correlation tag to requests, for bridges that echo it.
	Tagged bool `koanf:"tagged"`
}

// SendAddr is the host:port commands are sent to.
func (c OSCConfig) SendAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.SendPort))
}

// ListenAddr is the host:port feedback is received on.
func (c OSCConfig) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.ReceivePort))
}

// MCPConfig configures the tool server process.
type MCPConfig struct {
	Command string        `koanf:"command"`
	Args    []string      `koanf:"args"`
	Env     []string      `koanf:"env"`
	Pause   time.Duration `koanf:"pause"`
	Timeout time.Duration `koanf:"timeout"`
}

// MetricsConfig configures the optional prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address of /metrics. Empty disables the endpoint.
	Addr string `koanf:"addr"`
}

//go:embed defaults.yaml
var defaults []byte

// Default returns the built-in configuration.
func Default() *Config {
	k, err := newKoanf()
	if err != nil {
		panic(err)
	}
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		panic(fmt.Errorf("config: embedded defaults: %w", err))
	}
	return cfg
}

// newKoanf returns a koanf instance holding the embedded defaults.
func newKoanf() (*koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(defaults), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("config: embedded defaults: %w", err)
	}
	return k, nil
}

// Load returns the defaults overridden by the YAML file at path (if path is
// not empty) and then by environment variables.
//
// Environment variables map to keys by dropping the prefix and splitting
// on the first underscore:
//
//	DAWCTL_OSC_SEND_PORT -> osc.send_port
//	DAWCTL_LOG_LEVEL     -> log.level
func Load(path string) (*Config, error) {
	k, err := newKoanf()
	if err != nil {
		return nil, err
	}

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		section, field, ok := strings.Cut(lower, "_")
		if !ok {
			return lower
		}
		return section + "." + field
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error

	if c.OSC.Host == "" {
		errs = append(errs, errors.New("osc.host is required"))
	}
	if !validPort(c.OSC.SendPort) {
		errs = append(errs, fmt.Errorf("osc.send_port %d out of range", c.OSC.SendPort))
	}
	// Port 0 lets the system pick the feedback port.
	if c.OSC.ReceivePort != 0 && !validPort(c.OSC.ReceivePort) {
		errs = append(errs, fmt.Errorf("osc.receive_port %d out of range", c.OSC.ReceivePort))
	}
	if c.OSC.ReplyTimeout <= 0 {
		errs = append(errs, errors.New("osc.reply_timeout must be positive"))
	}
	if c.OSC.SendRate < 0 {
		errs = append(errs, errors.New("osc.send_rate must not be negative"))
	}
	if c.OSC.SendRate > 0 && c.OSC.SendBurst < 1 {
		errs = append(errs, errors.New("osc.send_burst must be at least 1"))
	}
	if strings.TrimSpace(c.MCP.Command) == "" {
		errs = append(errs, errors.New("mcp.command is required"))
	}
	if c.MCP.Pause < 0 {
		errs = append(errs, errors.New("mcp.pause must not be negative"))
	}
	if c.MCP.Timeout <= 0 {
		errs = append(errs, errors.New("mcp.timeout must be positive"))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func validPort(p int) bool {
	return p > 0 && p <= 65535
}
