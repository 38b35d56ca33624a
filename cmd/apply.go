package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"grimm.is/chainreg/internal/chains"
	"grimm.is/chainreg/internal/metrics"
	"grimm.is/chainreg/internal/table"
)

// ScriptOp is one parsed line of an apply script.
type ScriptOp struct {
	Line int
	Verb string
	Args []string
}

var scriptArity = map[string]int{
	"create":  1,
	"delete":  1,
	"rename":  2,
	"policy":  2,
	"rebuild": 0,
}

// ParseScript reads an apply script. Each non-blank line is one of
//
//	create NAME
//	delete NAME
//	rename OLD NEW
//	policy NAME ACCEPT|DROP
//	rebuild
//
// and '#' starts a comment.
func ParseScript(r io.Reader) ([]ScriptOp, error) {
	var ops []ScriptOp
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		verb := strings.ToLower(fields[0])
		want, ok := scriptArity[verb]
		if !ok {
			return nil, fmt.Errorf("line %d: unknown command %q", line, fields[0])
		}
		if len(fields)-1 != want {
			return nil, fmt.Errorf("line %d: %s takes %d argument(s), got %d", line, verb, want, len(fields)-1)
		}
		ops = append(ops, ScriptOp{Line: line, Verb: verb, Args: fields[1:]})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return ops, nil
}

// RunScript applies ops to s in order, stopping at the first failure. It
// returns one result line per op.
func RunScript(s *table.Session, ops []ScriptOp) ([]string, error) {
	var out []string
	for _, op := range ops {
		msg, err := runOp(s, op)
		if err != nil {
			return out, fmt.Errorf("line %d: %s: %w", op.Line, op.Verb, err)
		}
		out = append(out, msg)
	}
	return out, nil
}

func runOp(s *table.Session, op ScriptOp) (string, error) {
	switch op.Verb {
	case "create":
		if err := s.CreateChain(op.Args[0]); err != nil {
			return "", err
		}
		return "created " + op.Args[0], nil
	case "delete":
		res, err := s.DeleteChain(op.Args[0])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("deleted %s (index %s)", op.Args[0], res), nil
	case "rename":
		if err := s.RenameChain(op.Args[0], op.Args[1]); err != nil {
			return "", err
		}
		return fmt.Sprintf("renamed %s to %s", op.Args[0], op.Args[1]), nil
	case "policy":
		p, err := table.ParsePolicy(op.Args[1])
		if err != nil {
			return "", err
		}
		if err := s.SetPolicy(op.Args[0], p); err != nil {
			return "", err
		}
		return fmt.Sprintf("policy %s %s", op.Args[0], p), nil
	case "rebuild":
		if err := s.Rebuild(); err != nil {
			return "", err
		}
		return "index rebuilt", nil
	}
	return "", fmt.Errorf("unknown command %q", op.Verb)
}

// RunApply executes a script against the configured table. With dryRun set
// it prints the resulting chain list diff instead of committing. With
// showMetrics set the session's index metrics are printed afterwards.
func RunApply(configFile, scriptFile string, dryRun, showMetrics bool) error {
	if scriptFile == "" {
		return fmt.Errorf("no script given (use -f)")
	}
	f, err := os.Open(scriptFile)
	if err != nil {
		return fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	ops, err := ParseScript(f)
	if err != nil {
		return err
	}

	cfg, logger, err := loadRuntime(configFile)
	if err != nil {
		return err
	}

	var (
		m   *metrics.Registry
		obs chains.Observer
	)
	if showMetrics {
		m = metrics.New(cfg.Source.Table)
		obs = m
	}
	s, w, err := openSession(cfg, logger, obs)
	if err != nil {
		return err
	}
	return Apply(context.Background(), os.Stdout, s, w, ops, dryRun, m)
}

// Apply runs ops against s and commits through w unless dryRun is set. m,
// when non-nil, is dumped after the script ran.
func Apply(ctx context.Context, out io.Writer, s *table.Session, w table.Writer, ops []ScriptOp, dryRun bool, m *metrics.Registry) error {
	before := s.Snapshot()
	results, err := RunScript(s, ops)
	for _, r := range results {
		Printer.Fprintln(out, r)
	}
	if err != nil {
		return err
	}

	if dryRun {
		if diff := ChainDiff(before, s.Snapshot()); diff == "" {
			Printer.Fprintln(out, "No changes.")
		} else {
			fmt.Fprint(out, diff)
			Printer.Fprintf(out, "[DRY RUN] %d change(s) not committed\n", len(s.Changes()))
		}
	} else {
		if err := s.Commit(ctx, w); err != nil {
			return err
		}
		Printer.Fprintln(out, StyleStatusGood.Render("committed"), "table", s.Name())
	}

	if m != nil {
		fmt.Fprintln(out)
		return m.Dump(out)
	}
	return nil
}

func chainLines(cs []*chains.Chain) []string {
	lines := make([]string, 0, len(cs))
	for _, c := range cs {
		if c.IsBuiltin() {
			lines = append(lines, fmt.Sprintf("%s builtin %s %s\n", c.Name, c.Hook, c.Policy))
		} else {
			lines = append(lines, fmt.Sprintf("%s user refs=%d rules=%d\n", c.Name, c.References, len(c.Rules)))
		}
	}
	return lines
}
