// Package config loads server configuration: built-in defaults, an
// optional pouch.yaml file on top, and environment variables on top
// of that, so containers can configure everything through the
// environment alone.
package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// Config is the resolved server configuration.
type Config struct {
	WALFile string `yaml:"wal_file" env:"WAL_FILE"`

	TCPHost   string `yaml:"tcp_host" env:"TCP_HOST"`
	TCPPort   int    `yaml:"tcp_port" env:"TCP_PORT"`
	EnableTCP bool   `yaml:"enable_tcp" env:"ENABLE_TCP"`

	WSHost   string `yaml:"ws_host" env:"WS_HOST"`
	WSPort   int    `yaml:"ws_port" env:"WS_PORT"`
	EnableWS bool   `yaml:"enable_ws" env:"ENABLE_WS"`

	// Peer discovery is opaque to the engine; see internal/discovery.
	EnableDiscovery bool   `yaml:"enable_discovery" env:"ENABLE_DISCOVERY"`
	DiscoveryAddr   string `yaml:"discovery_addr" env:"DISCOVERY_ADDR"`
	PeerAddr        string `yaml:"peer_addr" env:"PEER_ADDR"`
	NodeID          string `yaml:"node_id" env:"NODE_ID"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		WALFile:       "wal.log",
		TCPHost:       "0.0.0.0",
		TCPPort:       6379,
		EnableTCP:     true,
		WSHost:        "0.0.0.0",
		WSPort:        6389,
		EnableWS:      false,
		DiscoveryAddr: "0.0.0.0:6399",
	}
}

// Load reads the optional YAML file at path (a missing file is fine),
// then overlays environment variables on top. Unset variables leave
// the file/default values untouched.
func Load(ctx context.Context, path string) (*Config, error) {
	return load(ctx, path, envconfig.OsLookuper())
}

func load(ctx context.Context, path string, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// env-only deployment
		case err != nil:
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
		// File/default values pre-populate the struct; a set variable
		// must still win.
		DefaultOverwrite: true,
	}); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	return &cfg, nil
}

// TCPAddr is the listen address of the plain TCP acceptor.
func (c *Config) TCPAddr() string {
	return net.JoinHostPort(c.TCPHost, strconv.Itoa(c.TCPPort))
}

// WSAddr is the listen address of the WebSocket acceptor.
func (c *Config) WSAddr() string {
	return net.JoinHostPort(c.WSHost, strconv.Itoa(c.WSPort))
}
