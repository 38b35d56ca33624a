package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestRenderChains(t *testing.T) {
	s := testSession(t)

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderChains(&buf, s.Name(), s.Snapshot(), s.Stats(), "table"))
		out := buf.String()
		assert.Contains(t, out, "CHAIN")
		assert.Contains(t, out, "lan_in")
		assert.Contains(t, out, "builtin")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderChains(&buf, s.Name(), s.Snapshot(), s.Stats(), "json"))

		var got listing
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "filter", got.Table)
		require.Len(t, got.Chains, 4)
		assert.True(t, got.Chains[0].Builtin)
		assert.Equal(t, "input", got.Chains[0].Hook)
		assert.Equal(t, 2, got.Index.UserChains)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderChains(&buf, s.Name(), s.Snapshot(), s.Stats(), "yaml"))

		var got listing
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		require.Len(t, got.Chains, 4)
		assert.Equal(t, "wan_in", got.Chains[3].Name)
		assert.Empty(t, got.Chains[3].Policy)
	})

	t.Run("unknown", func(t *testing.T) {
		var buf bytes.Buffer
		assert.Error(t, renderChains(&buf, s.Name(), s.Snapshot(), s.Stats(), "xml"))
	})
}
