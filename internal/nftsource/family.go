//go:build linux
// +build linux

package nftsource

import (
	"fmt"

	"github.com/google/nftables"
)

var families = map[string]nftables.TableFamily{
	"ip":     nftables.TableFamilyIPv4,
	"ip6":    nftables.TableFamilyIPv6,
	"inet":   nftables.TableFamilyINet,
	"arp":    nftables.TableFamilyARP,
	"bridge": nftables.TableFamilyBridge,
	"netdev": nftables.TableFamilyNetdev,
}

// ParseFamily maps an nft family keyword to its table family.
func ParseFamily(name string) (nftables.TableFamily, error) {
	f, ok := families[name]
	if !ok {
		return nftables.TableFamilyUnspecified, fmt.Errorf("unknown table family %q", name)
	}
	return f, nil
}
