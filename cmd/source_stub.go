//go:build !linux
// +build !linux

package cmd

import (
	"errors"

	"grimm.is/chainreg/internal/chains"
	"grimm.is/chainreg/internal/config"
	"grimm.is/chainreg/internal/logging"
	"grimm.is/chainreg/internal/table"
)

var errNoNetlink = errors.New("reading nftables tables requires linux")

func openSession(*config.Config, *logging.Logger, chains.Observer) (*table.Session, table.Writer, error) {
	return nil, nil, errNoNetlink
}
