package main

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/blockql/blockql/pkg/engineconfig"
)

// fileConfig mirrors engineconfig.Config's fields for TOML decoding; only
// non-empty strings and positive cache sizes in the file override the
// defaults.
type fileConfig struct {
	StorageDir      string `toml:"storage_dir"`
	Extension       string `toml:"extension"`
	BlockCacheSize  int    `toml:"block_cache_size"`
	EntityCacheSize int    `toml:"entity_cache_size"`
	IndexCacheSize  int    `toml:"index_cache_size"`
}

// loadConfig builds the engine configuration from defaults, optionally
// layering a TOML file on top, the way steveyegge-beads's cmd/bd layers a
// formula.toml over its own defaults.
func loadConfig(path string) (engineconfig.Config, error) {
	cfg := engineconfig.Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); err != nil {
		return cfg, nil
	}
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return cfg, err
	}
	if fc.StorageDir != "" {
		cfg.StorageDir = fc.StorageDir
	}
	if fc.Extension != "" {
		cfg.Extension = fc.Extension
	}
	if fc.BlockCacheSize > 0 {
		cfg.BlockCacheSize = fc.BlockCacheSize
	}
	if fc.EntityCacheSize > 0 {
		cfg.EntityCacheSize = fc.EntityCacheSize
	}
	if fc.IndexCacheSize > 0 {
		cfg.IndexCacheSize = fc.IndexCacheSize
	}
	return cfg, nil
}
