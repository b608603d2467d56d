package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Defaults applied when a field is absent. The creation tolerance bounds
// cross-ledger clock drift at destination-escrow creation; it is deliberately
// a configuration knob rather than a constant.
const (
	DefaultCreationTolerance = uint64(60)
	DefaultRescueDelay       = uint64(7 * 24 * 3600)
)

type Config struct {
	ChainID           uint64 `toml:"ChainID"`
	DataDir           string `toml:"DataDir"`
	FactoryAddress    string `toml:"FactoryAddress"`
	SettlementAddress string `toml:"SettlementAddress"`
	// CreationTolerance is the permitted drift, in seconds, between the
	// destination cancellation start and the source cancellation
	// timestamp supplied at destination-escrow creation.
	CreationTolerance uint64 `toml:"CreationTolerance"`
	// RescueDelay is the fixed emergency window offset in seconds,
	// independent of any swap's timelocks.
	RescueDelay uint64 `toml:"RescueDelay"`
	LogService  string `toml:"LogService"`
	LogEnv      string `toml:"LogEnv"`
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
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.CreationTolerance == 0 {
		cfg.CreationTolerance = DefaultCreationTolerance
	}
	if cfg.RescueDelay == 0 {
		cfg.RescueDelay = DefaultRescueDelay
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./swap-data"
	}
	if cfg.LogService == "" {
		cfg.LogService = "crosslock"
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{ChainID: 1}
	applyDefaults(cfg)
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("config: create directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("config: create default file: %w", err)
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, fmt.Errorf("config: encode defaults: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}
	if cfg.ChainID == 0 {
		return fmt.Errorf("config: ChainID must be non-zero")
	}
	if cfg.RescueDelay == 0 {
		return fmt.Errorf("config: RescueDelay must be non-zero")
	}
	if cfg.FactoryAddress != "" {
		if _, err := ParseAddress(cfg.FactoryAddress); err != nil {
			return fmt.Errorf("config: FactoryAddress: %w", err)
		}
	}
	if cfg.SettlementAddress != "" {
		if _, err := ParseAddress(cfg.SettlementAddress); err != nil {
			return fmt.Errorf("config: SettlementAddress: %w", err)
		}
	}
	return nil
}

// ParseAddress decodes a 20-byte hex address, with or without a 0x prefix.
func ParseAddress(s string) ([20]byte, error) {
	var addr [20]byte
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return addr, fmt.Errorf("invalid hex address: %w", err)
	}
	if len(raw) != 20 {
		return addr, fmt.Errorf("address must be 20 bytes, got %d", len(raw))
	}
	copy(addr[:], raw)
	return addr, nil
}
