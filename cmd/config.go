package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"grimm.is/chainreg/internal/brand"
	"grimm.is/chainreg/internal/config"
)

// RunConfig dispatches the config subcommands.
func RunConfig(args []string) error {
	if len(args) == 0 {
		printConfigUsage()
		return fmt.Errorf("missing subcommand")
	}

	switch args[0] {
	case "init":
		fs := newFlagSet("config init")
		path := fs.String("config", "", "Configuration file (default $"+config.EnvPath+" or "+brand.ConfigPath()+")")
		force := fs.Bool("force", false, "Overwrite an existing file")
		fs.Parse(args[1:])
		return RunConfigInit(config.ResolvePath(*path), *force)
	case "show":
		fs := newFlagSet("config show")
		path := fs.String("config", "", "Configuration file")
		format := fs.String("format", "hcl", "Output format: hcl or json")
		fs.Parse(args[1:])
		return RunConfigShow(config.ResolvePath(*path), *format)
	case "help", "-h", "--help":
		printConfigUsage()
		return nil
	default:
		printConfigUsage()
		return fmt.Errorf("unknown config subcommand %q", args[0])
	}
}

// RunConfigInit writes a configuration file with every default spelled out.
func RunConfigInit(path string, force bool) error {
	if err := config.WriteFile(path, config.Default(), force); err != nil {
		return err
	}
	Printer.Printf("Wrote %s\n", path)
	return nil
}

// RunConfigShow prints the effective configuration.
func RunConfigShow(path, format string) error {
	cfg, err := config.LoadFileOrDefault(path)
	if err != nil {
		return err
	}
	switch format {
	case "hcl":
		_, err = os.Stdout.Write(config.Marshal(cfg))
		return err
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	default:
		return fmt.Errorf("unknown format %q (want hcl or json)", format)
	}
}

func printConfigUsage() {
	Printer.Printf(`Usage: %s config <subcommand> [options]

Subcommands:
  init    Write a default configuration file
          Options: -config <file>, -force
  show    Print the effective configuration
          Options: -config <file>, -format hcl|json
`, brand.BinaryName)
}
