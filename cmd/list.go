package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"

	"grimm.is/chainreg/internal/chains"
)

// chainView is the serialized form of a chain in list output.
type chainView struct {
	Name       string `json:"name" yaml:"name"`
	Builtin    bool   `json:"builtin" yaml:"builtin"`
	Hook       string `json:"hook,omitempty" yaml:"hook,omitempty"`
	Policy     string `json:"policy,omitempty" yaml:"policy,omitempty"`
	Rules      int    `json:"rules" yaml:"rules"`
	References int    `json:"references" yaml:"references"`
}

type listing struct {
	Table  string       `json:"table" yaml:"table"`
	Chains []chainView  `json:"chains" yaml:"chains"`
	Index  chains.Stats `json:"index" yaml:"index"`
}

func viewOf(c *chains.Chain) chainView {
	v := chainView{
		Name:       c.Name,
		Builtin:    c.IsBuiltin(),
		Rules:      len(c.Rules),
		References: c.References,
	}
	if v.Builtin {
		v.Hook = c.Hook.String()
		v.Policy = c.Policy.String()
	}
	return v
}

// RunList prints the chains of the configured table.
func RunList(configFile, format string) error {
	cfg, logger, err := loadRuntime(configFile)
	if err != nil {
		return err
	}
	s, _, err := openSession(cfg, logger, nil)
	if err != nil {
		return err
	}
	return renderChains(os.Stdout, s.Name(), s.Snapshot(), s.Stats(), format)
}

func renderChains(w io.Writer, name string, cs []*chains.Chain, stats chains.Stats, format string) error {
	l := listing{Table: name, Index: stats, Chains: make([]chainView, 0, len(cs))}
	for _, c := range cs {
		l.Chains = append(l.Chains, viewOf(c))
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(l)
	case "yaml":
		out, err := yaml.Marshal(l)
		if err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}
		_, err = w.Write(out)
		return err
	case "", "table":
		rows := make([][]string, 0, len(l.Chains))
		for _, v := range l.Chains {
			kind := "user"
			if v.Builtin {
				kind = "builtin"
			}
			rows = append(rows, []string{
				v.Name, kind, v.Hook, v.Policy,
				strconv.Itoa(v.Rules), strconv.Itoa(v.References),
			})
		}
		fmt.Fprintln(w, StyleTitle.Render("table "+name))
		fmt.Fprintln(w, newTable([]string{"CHAIN", "KIND", "HOOK", "POLICY", "RULES", "REFS"}, rows, stats.Builtins).Render())
		fmt.Fprintln(w, StyleMuted.Render(Printer.Sprintf("%d built-in, %d user chains, %d index slots (bucket %d)",
			stats.Builtins, stats.UserChains, stats.IndexSlots, stats.BucketLen)))
		return nil
	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
	}
}
