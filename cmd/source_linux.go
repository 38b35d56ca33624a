//go:build linux
// +build linux

package cmd

import (
	"grimm.is/chainreg/internal/chains"
	"grimm.is/chainreg/internal/config"
	"grimm.is/chainreg/internal/logging"
	"grimm.is/chainreg/internal/nftsource"
	"grimm.is/chainreg/internal/table"
)

// openSession decodes the configured nftables table into a new session.
func openSession(cfg *config.Config, logger *logging.Logger, obs chains.Observer) (*table.Session, table.Writer, error) {
	family, err := nftsource.ParseFamily(cfg.Source.Family)
	if err != nil {
		return nil, nil, err
	}
	conn, err := nftsource.Dial()
	if err != nil {
		return nil, nil, err
	}
	cs, err := nftsource.Decode(conn, family, cfg.Source.Table)
	if err != nil {
		return nil, nil, err
	}

	s := table.New(cfg.Source.Table, cfg.ChainsConfig(), table.WithLogger(logger), table.WithObserver(obs))
	if err := s.Load(cs); err != nil {
		return nil, nil, err
	}
	return s, nftsource.NewWriter(conn, family, logger), nil
}
