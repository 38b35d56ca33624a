package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// LoadFile reads and validates an HCL (or .json) config file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(path, data)
}

// LoadFileOrDefault is LoadFile, except that a missing file yields the
// defaults.
func LoadFileOrDefault(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse decodes src. The filename extension selects HCL or JSON syntax.
func Parse(filename string, src []byte) (*Config, error) {
	var cfg Config
	if err := hclsimple.Decode(filename, src, nil, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Marshal renders cfg as HCL.
func Marshal(cfg *Config) []byte {
	c := cfg.clone()
	c.ApplyDefaults()

	f := hclwrite.NewEmptyFile()
	root := f.Body()

	index := root.AppendNewBlock("index", nil).Body()
	index.SetAttributeValue("bucket_length", cty.NumberIntVal(int64(c.Index.BucketLength)))
	index.SetAttributeValue("rebuild_threshold", cty.NumberIntVal(int64(*c.Index.RebuildThreshold)))
	if c.Index.MaxIndexSlots > 0 {
		index.SetAttributeValue("max_index_slots", cty.NumberIntVal(int64(c.Index.MaxIndexSlots)))
	}
	if c.Index.MaxChains > 0 {
		index.SetAttributeValue("max_chains", cty.NumberIntVal(int64(c.Index.MaxChains)))
	}
	root.AppendNewline()

	log := root.AppendNewBlock("log", nil).Body()
	log.SetAttributeValue("level", cty.StringVal(c.Log.Level))
	if c.Log.JSON {
		log.SetAttributeValue("json", cty.True)
	}
	root.AppendNewline()

	source := root.AppendNewBlock("source", nil).Body()
	source.SetAttributeValue("family", cty.StringVal(c.Source.Family))
	source.SetAttributeValue("table", cty.StringVal(c.Source.Table))

	return hclwrite.Format(f.Bytes())
}

// WriteFile writes cfg to path, refusing to overwrite an existing file
// unless force is set.
func WriteFile(path string, cfg *Config, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(Marshal(cfg)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
