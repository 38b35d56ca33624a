package cmd

import (
	"fmt"
	"os"

	"grimm.is/chainreg/internal/config"
	"grimm.is/chainreg/internal/i18n"
	"grimm.is/chainreg/internal/logging"
)

// Printer is the global message printer for the CLI
var Printer = i18n.NewCLIPrinter()

// loadRuntime resolves and loads the configuration file and installs the
// logger it describes as the default. A missing file means defaults.
func loadRuntime(configFile string) (*config.Config, *logging.Logger, error) {
	path := config.ResolvePath(configFile)
	cfg, err := config.LoadFileOrDefault(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	lc := cfg.LoggingConfig()
	lc.Output = os.Stderr
	logger := logging.New(lc)
	logging.SetDefault(logger)
	logger.Debug("configuration loaded", "path", path, "table", cfg.Source.Table, "family", cfg.Source.Family)
	return cfg, logger, nil
}
