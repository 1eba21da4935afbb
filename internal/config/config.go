package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/illarion/passvault/internal/crypto"
	"github.com/illarion/passvault/internal/storage"
)

// Config holds settings from the environment (optionally a .env file)
// and the global command line flags. Flags win over the environment.
type Config struct {
	VaultPath string `env:"PASSVAULT_FILE"`
	Backend   string `env:"PASSVAULT_BACKEND" envDefault:"file"`
	Password  string `env:"PASSVAULT_PASSWORD"`
	LogLevel  string `env:"PASSVAULT_LOG_LEVEL" envDefault:"warn"`

	// Work factors applied when a vault is created
	KDFTime    uint32 `env:"PASSVAULT_KDF_TIME"`
	KDFMemory  uint32 `env:"PASSVAULT_KDF_MEMORY"`
	KDFThreads uint8  `env:"PASSVAULT_KDF_THREADS"`

	Verbose bool `env:"-"`
}

// Load reads .env (if present) and the PASSVAULT_* variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// RegisterFlags adds the global flags to fs
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.VaultPath, "file", "f", c.VaultPath, "path to the vault file")
	fs.StringVar(&c.Backend, "backend", c.Backend, "storage backend: file or bolt")
	fs.BoolVarP(&c.Verbose, "verbose", "v", c.Verbose, "enable debug logging")
}

// Finalize fills defaults and validates the merged configuration.
// Call it after flags have been parsed.
func (c *Config) Finalize() error {
	switch c.Backend {
	case storage.KindFile, storage.KindBolt:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, storage.KindFile, storage.KindBolt)
	}

	if c.VaultPath == "" {
		c.VaultPath = DefaultVaultPath(c.Backend)
	}
	if c.Verbose {
		c.LogLevel = "debug"
	}

	defaults := crypto.DefaultParams()
	if c.KDFTime == 0 {
		c.KDFTime = defaults.Time
	}
	if c.KDFMemory == 0 {
		c.KDFMemory = defaults.Memory
	}
	if c.KDFThreads == 0 {
		c.KDFThreads = defaults.Threads
	}
	if err := c.KDFParams().Validate(); err != nil {
		return fmt.Errorf("invalid PASSVAULT_KDF_* settings: %w", err)
	}
	return nil
}

// KDFParams returns the work factors for new vaults
func (c *Config) KDFParams() crypto.Params {
	return crypto.Params{
		Time:    c.KDFTime,
		Memory:  c.KDFMemory,
		Threads: c.KDFThreads,
	}
}

// DefaultVaultPath returns ~/.passvault.json (or .db for bolt),
// falling back to the current directory when there is no home.
func DefaultVaultPath(backend string) string {
	name := ".passvault.json"
	if backend == storage.KindBolt {
		name = ".passvault.db"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, name)
}
