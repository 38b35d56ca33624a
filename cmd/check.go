package cmd

import (
	"fmt"
	"strings"

	"grimm.is/chainreg/internal/brand"
	"grimm.is/chainreg/internal/chains"
)

// RunFind looks a chain up in the configured table.
func RunFind(configFile, name string) error {
	if name == "" {
		return fmt.Errorf("usage: %s find <chain>", brand.BinaryName)
	}
	cfg, logger, err := loadRuntime(configFile)
	if err != nil {
		return err
	}
	s, _, err := openSession(cfg, logger, nil)
	if err != nil {
		return err
	}

	c, ok := s.Lookup(name)
	if !ok {
		return fmt.Errorf("chain %s not found in table %s", name, s.Name())
	}
	Printer.Println(describeChain(c))
	return nil
}

func describeChain(c *chains.Chain) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)", c.Name, c.Kind)
	if c.IsBuiltin() {
		fmt.Fprintf(&b, " hook=%s policy=%s", c.Hook, c.Policy)
	}
	fmt.Fprintf(&b, " rules=%d references=%d", len(c.Rules), c.References)
	for i, r := range c.Rules {
		if r.Target != "" {
			fmt.Fprintf(&b, "\n  rule %d -> %s", i+1, r.Target)
		}
	}
	return b.String()
}

// RunCheck loads the configured table and verifies the registry invariants.
func RunCheck(configFile string, verbose bool) error {
	cfg, logger, err := loadRuntime(configFile)
	if err != nil {
		return err
	}
	s, _, err := openSession(cfg, logger, nil)
	if err != nil {
		return err
	}

	if err := s.Check(); err != nil {
		Printer.Println(StyleStatusBad.Render("FAIL"), err)
		return fmt.Errorf("chain registry inconsistent: %w", err)
	}
	Printer.Println(StyleStatusGood.Render("OK"), "table", s.Name())
	if verbose {
		printStats(s.Stats())
	}
	return nil
}

func printStats(st chains.Stats) {
	Printer.Printf("Built-in chains:       %d\n", st.Builtins)
	Printer.Printf("User chains:           %d\n", st.UserChains)
	Printer.Printf("Index slots:           %d (bucket %d)\n", st.IndexSlots, st.BucketLen)
	Printer.Printf("Inserts since rebuild: %d\n", st.InsertsSinceRebuild)
	Printer.Printf("Rebuilds:              %d\n", st.Rebuilds)
	Printer.Printf("Repoints:              %d\n", st.Repoints)
	if st.Degraded {
		Printer.Println(StyleStatusBad.Render("Index degraded: lookups fall back to a linear scan"))
	}
}
