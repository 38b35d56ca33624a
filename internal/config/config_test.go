package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/chainreg/internal/brand"
	"grimm.is/chainreg/internal/chains"
)

func TestParseConfig(t *testing.T) {
	hclContent := `
index {
  bucket_length     = 16
  rebuild_threshold = 0
  max_chains        = 5000
}

log {
  level = "debug"
  json  = true
}

source {
  family = "inet"
  table  = "glacic"
}
`

	cfg, err := Parse("test.hcl", []byte(hclContent))
	if err != nil {
		t.Fatalf("Failed to parse HCL: %v", err)
	}

	if cfg.Index.BucketLength != 16 {
		t.Errorf("Expected bucket_length 16, got %d", cfg.Index.BucketLength)
	}
	if cfg.Index.RebuildThreshold == nil || *cfg.Index.RebuildThreshold != 0 {
		t.Errorf("Expected explicit rebuild_threshold 0, got %v", cfg.Index.RebuildThreshold)
	}
	if cfg.Source.Family != "inet" || cfg.Source.Table != "glacic" {
		t.Errorf("Unexpected source block: %+v", cfg.Source)
	}

	cc := cfg.ChainsConfig()
	if cc.RebuildThreshold != 0 {
		t.Errorf("Expected threshold 0 to survive conversion, got %d", cc.RebuildThreshold)
	}
	if cc.MaxChains != 5000 {
		t.Errorf("Expected max_chains 5000, got %d", cc.MaxChains)
	}

	lc := cfg.LoggingConfig()
	assert.True(t, lc.JSON)
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := Parse("empty.hcl", nil)
	require.NoError(t, err)

	assert.Equal(t, chains.DefaultBucketLen, cfg.Index.BucketLength)
	require.NotNil(t, cfg.Index.RebuildThreshold)
	assert.Equal(t, chains.DefaultRebuildThreshold, *cfg.Index.RebuildThreshold)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "ip", cfg.Source.Family)
	assert.Equal(t, "filter", cfg.Source.Table)
	assert.Equal(t, chains.DefaultConfig(), cfg.ChainsConfig())
}

func TestParseConfig_JSON(t *testing.T) {
	cfg, err := Parse("config.json", []byte(`{"index": {"bucket_length": 8}}`))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Index.BucketLength)
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"negative bucket", `index { bucket_length = -1 }`},
		{"negative threshold", `index { rebuild_threshold = -5 }`},
		{"bad level", `log { level = "loud" }`},
		{"bad family", `source { family = "ipx" }`},
		{"unknown block", `zone "lan" {}`},
		{"syntax", `index {`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.hcl", []byte(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	threshold := 12
	in := &Config{
		Index:  &IndexConfig{BucketLength: 4, RebuildThreshold: &threshold, MaxIndexSlots: 9},
		Log:    &LogConfig{Level: "warn", JSON: true},
		Source: &SourceConfig{Family: "ip6", Table: "mangle"},
	}

	out := Marshal(in)
	assert.Contains(t, string(out), "bucket_length")
	assert.NotContains(t, string(out), "max_chains")

	back, err := Parse("roundtrip.hcl", out)
	require.NoError(t, err)
	assert.Equal(t, in, back)
}

func TestMarshal_Defaults(t *testing.T) {
	out := string(Marshal(&Config{}))
	assert.Contains(t, out, "index {")
	assert.Contains(t, out, `table  = "filter"`)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chainreg.hcl")

	require.NoError(t, WriteFile(path, Default(), false))
	assert.Error(t, WriteFile(path, Default(), false), "existing file must not be overwritten")
	require.NoError(t, WriteFile(path, Default(), true))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileOrDefault(t *testing.T) {
	cfg, err := LoadFileOrDefault(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	bad := filepath.Join(t.TempDir(), "bad.hcl")
	require.NoError(t, os.WriteFile(bad, []byte(`index { bucket_length = "x" }`), 0644))
	_, err = LoadFileOrDefault(bad)
	assert.Error(t, err)
}

func TestResolvePath(t *testing.T) {
	t.Setenv(EnvPath, "")
	assert.Equal(t, brand.ConfigPath(), ResolvePath(""))
	assert.Equal(t, "/tmp/x.hcl", ResolvePath("/tmp/x.hcl"))

	t.Setenv(EnvPath, "/srv/chainreg.hcl")
	assert.Equal(t, "/srv/chainreg.hcl", ResolvePath(""))
}
