// Package config handles chainreg's HCL configuration file.
//
// # Configuration Blocks
//
//   - index: bucket length, rebuild threshold and allocation budgets
//   - log: level and output format
//   - source: nftables family and table that chainctl edits
//
// Missing blocks and attributes take the defaults from [Default]. A
// rebuild_threshold of 0 is valid and distinct from an absent one.
//
// # Example
//
//	index {
//	  bucket_length     = 40
//	  rebuild_threshold = 355
//	}
//
//	source {
//	  family = "inet"
//	  table  = "filter"
//	}
//
// [Marshal] renders a config back to HCL; chainctl config init uses it to
// write a starter file.
package config
