package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the YAML configuration.
type Config struct {
	Version  int                `yaml:"version"`
	Global   GlobalConfig       `yaml:"global"`
	Networks map[string]Network `yaml:"networks"`
}

type GlobalConfig struct {
	Template    string `yaml:"template"`
	CLIPackage  string `yaml:"cli_package"`
	RegistryURL string `yaml:"registry_url"`
	HistoryDB   string `yaml:"history_db"`
	Timeout     string `yaml:"timeout"`
}

// Network describes where a group lives on one chain and how to reach it.
type Network struct {
	SubgraphURL string `yaml:"subgraph_url"`
	RPCURL      string `yaml:"rpc_url"`
	Contract    string `yaml:"contract"`
	StartBlock  uint64 `yaml:"start_block"`
	LogRange    uint64 `yaml:"log_range"`
}

var envPattern = regexp.MustCompile(`\${([A-Za-z_][A-Za-z0-9_]*)}`)

// Load returns the built-in defaults merged with the file at path.
// An empty path, or a path that does not exist when optional is set, yields the defaults.
func Load(path string, optional bool) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("stat config: %w", err)
	}

	if err := loadDotEnv(path); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	interpolated, err := interpolateEnv(string(raw))
	if err != nil {
		return nil, err
	}

	var file Config
	if err := yaml.Unmarshal([]byte(interpolated), &file); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.merge(file)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadDotEnv(configPath string) error {
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("load .env: %w", err)
		}
	}
	return nil
}

func interpolateEnv(input string) (string, error) {
	missing := []string{}
	out := envPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := envPattern.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		missing = append(missing, name)
		return match
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("missing environment variables: %s", strings.Join(dedup(missing), ", "))
	}
	return out, nil
}

// merge overlays non-zero fields of file onto c.
func (c *Config) merge(file Config) {
	if file.Version != 0 {
		c.Version = file.Version
	}
	g := file.Global
	if g.Template != "" {
		c.Global.Template = g.Template
	}
	if g.CLIPackage != "" {
		c.Global.CLIPackage = g.CLIPackage
	}
	if g.RegistryURL != "" {
		c.Global.RegistryURL = g.RegistryURL
	}
	if g.HistoryDB != "" {
		c.Global.HistoryDB = g.HistoryDB
	}
	if g.Timeout != "" {
		c.Global.Timeout = g.Timeout
	}

	for name, n := range file.Networks {
		base, ok := c.Networks[name]
		if !ok {
			// Kept so Validate can reject it by name.
			c.Networks[name] = n
			continue
		}
		if n.SubgraphURL != "" {
			base.SubgraphURL = n.SubgraphURL
		}
		if n.RPCURL != "" {
			base.RPCURL = n.RPCURL
		}
		if n.Contract != "" {
			base.Contract = n.Contract
		}
		if n.StartBlock != 0 {
			base.StartBlock = n.StartBlock
		}
		if n.LogRange != 0 {
			base.LogRange = n.LogRange
		}
		c.Networks[name] = base
	}
}

// Validate performs small, direct schema checks.
func (c *Config) Validate() error {
	if c.Global.Template == "" {
		return errors.New("global.template is required")
	}
	if c.Global.RegistryURL == "" {
		return errors.New("global.registry_url is required")
	}
	if _, err := c.RequestTimeout(); err != nil {
		return err
	}
	if len(c.Networks) == 0 {
		return errors.New("at least one network is required")
	}

	for _, name := range c.NetworkNames() {
		if !slices.Contains(SupportedNetworks, name) {
			return fmt.Errorf("network %s: not supported", name)
		}
		n := c.Networks[name]
		if err := n.Validate(); err != nil {
			return fmt.Errorf("network %s: %w", name, err)
		}
	}
	return nil
}

func (n *Network) Validate() error {
	if n.SubgraphURL == "" && n.RPCURL == "" {
		return errors.New("subgraph_url or rpc_url is required")
	}
	if n.RPCURL != "" && n.Contract == "" {
		return errors.New("contract is required when rpc_url is set")
	}
	if n.Contract != "" && !common.IsHexAddress(n.Contract) {
		return fmt.Errorf("invalid contract address: %s", n.Contract)
	}
	return nil
}

// RequestTimeout parses global.timeout; zero means no client timeout.
func (c *Config) RequestTimeout() (time.Duration, error) {
	if c.Global.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Global.Timeout)
	if err != nil {
		return 0, fmt.Errorf("parse global.timeout %q: %w", c.Global.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("global.timeout must not be negative")
	}
	return d, nil
}

// NetworkNames returns the configured networks in allow-list order.
func (c *Config) NetworkNames() []string {
	names := make([]string, 0, len(c.Networks))
	for _, name := range SupportedNetworks {
		if _, ok := c.Networks[name]; ok {
			names = append(names, name)
		}
	}
	extra := []string{}
	for name := range c.Networks {
		if !slices.Contains(SupportedNetworks, name) {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	return append(names, extra...)
}

// IsSupported reports whether name is an allow-listed network.
func IsSupported(name string) bool {
	return slices.Contains(SupportedNetworks, name)
}

func dedup(values []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
