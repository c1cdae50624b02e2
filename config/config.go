package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// GenesisAccount seeds an account balance when the data directory is created.
type GenesisAccount struct {
	Address string `toml:"Address"`
	Balance string `toml:"Balance"`
}

// Config carries the daemon runtime settings.
type Config struct {
	RPCAddress           string `toml:"RPCAddress"`
	MetricsAddress       string `toml:"MetricsAddress"`
	DataDir              string `toml:"DataDir"`
	NetworkName          string `toml:"NetworkName"`
	Environment          string `toml:"Environment"`
	BlockIntervalSeconds uint64 `toml:"BlockIntervalSeconds"`

	// AdminAddresses hold the default-marking capability.
	AdminAddresses []string `toml:"AdminAddresses"`
	// TreasuryBalance seeds the protocol liquidity treasury on first start.
	TreasuryBalance string `toml:"TreasuryBalance"`
	// GenesisAccounts seed participant balances on first start.
	GenesisAccounts []GenesisAccount `toml:"genesis"`
	// PausedModules lists modules halted at startup.
	PausedModules []string `toml:"PausedModules"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.RPCAddress) == "" {
		c.RPCAddress = ":8645"
	}
	if strings.TrimSpace(c.MetricsAddress) == "" {
		c.MetricsAddress = ":9464"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./microlend-data"
	}
	if strings.TrimSpace(c.NetworkName) == "" {
		c.NetworkName = "microlend-local"
	}
	if c.BlockIntervalSeconds == 0 {
		c.BlockIntervalSeconds = 6
	}
	if c.AdminAddresses == nil {
		c.AdminAddresses = []string{}
	}
	if c.GenesisAccounts == nil {
		c.GenesisAccounts = []GenesisAccount{}
	}
	if c.PausedModules == nil {
		c.PausedModules = []string{}
	}
}

func (c *Config) validate() error {
	for _, admin := range c.AdminAddresses {
		if strings.TrimSpace(admin) == "" {
			return fmt.Errorf("config: empty admin address")
		}
	}
	for _, account := range c.GenesisAccounts {
		if strings.TrimSpace(account.Address) == "" {
			return fmt.Errorf("config: genesis account missing address")
		}
		if strings.TrimSpace(account.Balance) == "" {
			return fmt.Errorf("config: genesis account %s missing balance", account.Address)
		}
	}
	return nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
