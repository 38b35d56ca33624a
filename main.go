package main

import (
	"flag"
	"os"

	"grimm.is/chainreg/cmd"
	"grimm.is/chainreg/internal/brand"
	"grimm.is/chainreg/internal/chains"
	"grimm.is/chainreg/internal/i18n"
)

var printer = i18n.NewCLIPrinter()

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "list", "ls":
		listFlags := flag.NewFlagSet("list", flag.ExitOnError)
		configFile := listFlags.String("config", "", "Configuration file")
		listFlags.StringVar(configFile, "c", "", "Configuration file (short)")
		format := listFlags.String("format", "table", "Output format: table, json or yaml")
		listFlags.StringVar(format, "o", "table", "Output format (short)")
		listFlags.Parse(os.Args[2:])

		if err := cmd.RunList(*configFile, *format); err != nil {
			printer.Fprintf(os.Stderr, "List failed: %v\n", err)
			os.Exit(1)
		}

	case "find":
		findFlags := flag.NewFlagSet("find", flag.ExitOnError)
		configFile := findFlags.String("config", "", "Configuration file")
		findFlags.StringVar(configFile, "c", "", "Configuration file (short)")
		findFlags.Parse(os.Args[2:])

		if err := cmd.RunFind(*configFile, findFlags.Arg(0)); err != nil {
			printer.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

	case "check":
		checkFlags := flag.NewFlagSet("check", flag.ExitOnError)
		configFile := checkFlags.String("config", "", "Configuration file")
		checkFlags.StringVar(configFile, "c", "", "Configuration file (short)")
		verbose := checkFlags.Bool("verbose", false, "Print index statistics")
		checkFlags.BoolVar(verbose, "v", false, "Print index statistics (short)")
		checkFlags.Parse(os.Args[2:])

		if err := cmd.RunCheck(*configFile, *verbose); err != nil {
			printer.Fprintf(os.Stderr, "Check failed: %v\n", err)
			os.Exit(1)
		}

	case "apply":
		applyFlags := flag.NewFlagSet("apply", flag.ExitOnError)
		configFile := applyFlags.String("config", "", "Configuration file")
		applyFlags.StringVar(configFile, "c", "", "Configuration file (short)")
		script := applyFlags.String("file", "", "Script of create/delete/rename/policy lines")
		applyFlags.StringVar(script, "f", "", "Script file (short)")
		dryRun := applyFlags.Bool("dry-run", false, "Show the chain diff without committing")
		applyFlags.BoolVar(dryRun, "n", false, "Dry run (short)")
		showMetrics := applyFlags.Bool("metrics", false, "Print chain index metrics after the script")
		applyFlags.Parse(os.Args[2:])

		if err := cmd.RunApply(*configFile, *script, *dryRun, *showMetrics); err != nil {
			printer.Fprintf(os.Stderr, "Apply failed: %v\n", err)
			os.Exit(1)
		}

	case "bench":
		benchFlags := flag.NewFlagSet("bench", flag.ExitOnError)
		n := benchFlags.Int("n", 10000, "Number of user chains")
		bucket := benchFlags.Int("bucket", chains.DefaultBucketLen, "Chains per index bucket")
		threshold := benchFlags.Int("threshold", chains.DefaultRebuildThreshold, "Inserts past capacity before a rebuild")
		seed := benchFlags.Uint64("seed", 1, "Random seed")
		trace := benchFlags.Bool("trace", false, "Capture index maintenance log records")
		metrics := benchFlags.Bool("metrics", true, "Print the metrics registry")
		benchFlags.Parse(os.Args[2:])

		opts := cmd.BenchOptions{
			Chains:    *n,
			BucketLen: *bucket,
			Threshold: *threshold,
			Seed:      *seed,
			Trace:     *trace,
			Metrics:   *metrics,
		}
		if err := cmd.RunBench(opts); err != nil {
			printer.Fprintf(os.Stderr, "Bench failed: %v\n", err)
			os.Exit(1)
		}

	case "config":
		if err := cmd.RunConfig(os.Args[2:]); err != nil {
			printer.Fprintf(os.Stderr, "Config failed: %v\n", err)
			os.Exit(1)
		}

	case "version":
		printer.Printf("%s version %s\n", brand.Name, brand.Version)
		printer.Printf("Build: %s (%s)\n", brand.BuildTime, brand.GitCommit)

	case "help", "-h", "--help":
		printUsage()

	default:
		printer.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printer.Printf(`%s - %s

Usage:
  %s <command> [options]

Commands:
  list      List the chains of the configured table
            Options: --config (-c) <file>, --format (-o) table|json|yaml
  find      Show one chain
            Usage: find [-c file] <chain>
  check     Verify chain order and index consistency
            Options: --verbose (-v)
  apply     Run a chain edit script and commit it
            Options: --file (-f) <script>, --dry-run (-n), --metrics
  bench     Synthetic insert/lookup/delete workload, no kernel access
            Options: -n <chains>, -bucket <K>, -threshold <T>, -seed, -trace, -metrics
  config    Manage the HCL configuration
            Subcommands: init, show
  version   Print version information

Examples:
  %s config init
  %s list -o yaml
  %s apply -f chains.txt -n
  %s bench -n 50000 -bucket 40 -threshold 355
`, brand.BinaryName, brand.Description, brand.BinaryName,
		brand.BinaryName, brand.BinaryName, brand.BinaryName, brand.BinaryName)
}
