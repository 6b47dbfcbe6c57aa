// Config loading and store wiring for the linkstash CLI.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/linkstash/internal/facade"
	"github.com/mesh-intelligence/linkstash/internal/memory"
	"github.com/mesh-intelligence/linkstash/internal/paths"
	"github.com/mesh-intelligence/linkstash/internal/sqlite"
	"github.com/mesh-intelligence/linkstash/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyBackend = "backend"
	cfgKeyDataDir = "data_dir"
	cfgKeyQuota   = "quota_bytes"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# Linkstash CLI configuration

# Backend selection: sqlite or memory
backend: sqlite

# Data directory (optional; overridable by --data-dir flag)
# data_dir:

# Storage quota in bytes (optional; defaults to the host store's 10 MiB)
# quota_bytes:
`

// loadConfig reads config.yaml from the resolved config directory using
// viper, creating the directory and a default file on first run. A missing
// config.yaml is not an error.
func loadConfig() (types.Config, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve config dir: %w", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return types.Config{}, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return types.Config{}, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	dataDir, err := paths.ResolveDataDir(flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := types.Config{
		Backend:    v.GetString(cfgKeyBackend),
		DataDir:    dataDir,
		QuotaBytes: v.GetInt64(cfgKeyQuota),
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// ensureDefaultConfigFile creates a default config.yaml if missing.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, "config.yaml")

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// openStore constructs the configured store backend.
func openStore(cfg types.Config) (types.Store, error) {
	switch cfg.Backend {
	case types.BackendMemory:
		return memory.NewStore(cfg)
	default:
		return sqlite.Open(cfg)
	}
}

// withFacade loads config, opens the store and a facade over it, runs fn,
// and tears everything down. Shared by every data-touching subcommand.
func withFacade(ctx context.Context, fn func(*facade.Facade) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	f := facade.New(store, slog.Default())
	defer f.Close()

	if err := f.Load(ctx); err != nil {
		return fmt.Errorf("load stash: %w", err)
	}
	return fn(f)
}
