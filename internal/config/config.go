package config

import (
	"fmt"
	"os"
	"slices"

	"grimm.is/chainreg/internal/brand"
	"grimm.is/chainreg/internal/chains"
	"grimm.is/chainreg/internal/logging"
)

// EnvPath names the environment variable that overrides the default
// config path.
var EnvPath = brand.ConfigEnvPrefix + "_CONFIG"

// Families lists the table family names accepted in the source block.
var Families = []string{"ip", "ip6", "inet", "arp", "bridge", "netdev"}

// Config is the top-level chainreg configuration.
type Config struct {
	Index  *IndexConfig  `hcl:"index,block" json:"index"`
	Log    *LogConfig    `hcl:"log,block" json:"log"`
	Source *SourceConfig `hcl:"source,block" json:"source"`
}

// IndexConfig tunes the chain index.
type IndexConfig struct {
	BucketLength     int  `hcl:"bucket_length,optional" json:"bucket_length"`
	RebuildThreshold *int `hcl:"rebuild_threshold,optional" json:"rebuild_threshold"`
	MaxIndexSlots    int  `hcl:"max_index_slots,optional" json:"max_index_slots,omitempty"`
	MaxChains        int  `hcl:"max_chains,optional" json:"max_chains,omitempty"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string `hcl:"level,optional" json:"level"`
	JSON  bool   `hcl:"json,optional" json:"json"`
}

// SourceConfig names the nftables table to edit.
type SourceConfig struct {
	Family string `hcl:"family,optional" json:"family"`
	Table  string `hcl:"table,optional" json:"table"`
}

// Default returns a configuration with every default filled in.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills in missing blocks and attributes.
func (c *Config) ApplyDefaults() {
	if c.Index == nil {
		c.Index = &IndexConfig{}
	}
	if c.Index.BucketLength == 0 {
		c.Index.BucketLength = chains.DefaultBucketLen
	}
	if c.Index.RebuildThreshold == nil {
		threshold := chains.DefaultRebuildThreshold
		c.Index.RebuildThreshold = &threshold
	}

	if c.Log == nil {
		c.Log = &LogConfig{}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Source == nil {
		c.Source = &SourceConfig{}
	}
	if c.Source.Family == "" {
		c.Source.Family = "ip"
	}
	if c.Source.Table == "" {
		c.Source.Table = "filter"
	}
}

func (c *Config) clone() *Config {
	out := &Config{}
	if c.Index != nil {
		index := *c.Index
		out.Index = &index
	}
	if c.Log != nil {
		log := *c.Log
		out.Log = &log
	}
	if c.Source != nil {
		source := *c.Source
		out.Source = &source
	}
	return out
}

// Validate checks the configuration after defaults were applied.
func (c *Config) Validate() error {
	if c.Index == nil || c.Log == nil || c.Source == nil {
		return fmt.Errorf("configuration is missing defaults")
	}
	if err := c.ChainsConfig().Validate(); err != nil {
		return fmt.Errorf("invalid index block: %w", err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log block: %w", err)
	}
	if !slices.Contains(Families, c.Source.Family) {
		return fmt.Errorf("invalid source block: unknown family %q", c.Source.Family)
	}
	return nil
}

// ChainsConfig converts the index block to registry tuning.
func (c *Config) ChainsConfig() chains.Config {
	cc := chains.Config{
		BucketLen:        c.Index.BucketLength,
		RebuildThreshold: chains.DefaultRebuildThreshold,
		MaxIndexSlots:    c.Index.MaxIndexSlots,
		MaxChains:        c.Index.MaxChains,
	}
	if c.Index.RebuildThreshold != nil {
		cc.RebuildThreshold = *c.Index.RebuildThreshold
	}
	return cc
}

// LoggingConfig converts the log block to logger settings.
func (c *Config) LoggingConfig() logging.Config {
	lc := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.Log.Level); err == nil {
		lc.Level = level
	}
	lc.JSON = c.Log.JSON
	return lc
}

// ResolvePath returns the config path to use: explicit, then $CHAINREG_CONFIG,
// then the brand default.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return brand.ConfigPath()
}
