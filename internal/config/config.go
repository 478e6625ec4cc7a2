package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "todo.db"
	DefaultDriver         = "sqlite"
	DefaultKeepAlive      = "30s"

	appDirName = "termtodo"
)

// Environment overrides, applied after the file is read.
const (
	EnvConfigPath = "TODO_CONFIG"
	EnvDriver     = "TODO_DRIVER"
	EnvDSN        = "TODO_DSN"
)

type Keymap struct {
	Quit    string `toml:"quit"`
	Add     string `toml:"add"`
	Up      string `toml:"up"`
	Down    string `toml:"down"`
	Toggle  string `toml:"toggle"`
	Delete  string `toml:"delete"`
	Confirm string `toml:"confirm"`
	Cancel  string `toml:"cancel"`
}

// Database selects the backend. Path is only read by the sqlite driver;
// DSN is used verbatim by mysql and postgres.
type Database struct {
	Driver    string `toml:"driver"`
	DSN       string `toml:"dsn"`
	Path      string `toml:"path"`
	KeepAlive string `toml:"keepalive"`
}

type Config struct {
	LogLevel string   `toml:"log_level"`
	Database Database `toml:"database"`
	Keys     Keymap   `toml:"keys"`
}

// ResolveConfigPath returns $TODO_CONFIG when set, otherwise config.toml
// under the user config directory.
func ResolveConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, appDirName, DefaultConfigFileName)
}

func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return finalize(path, cfg)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return finalize(path, cfg)
}

// KeepAliveInterval parses the keepalive setting. Zero disables the keeper's
// periodic ping.
func (d Database) KeepAliveInterval() (time.Duration, error) {
	if strings.TrimSpace(d.KeepAlive) == "" {
		return 0, nil
	}
	return time.ParseDuration(d.KeepAlive)
}

func finalize(path string, cfg Config) (Config, error) {
	if v := strings.TrimSpace(os.Getenv(EnvDriver)); v != "" {
		cfg.Database.Driver = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDSN)); v != "" {
		cfg.Database.DSN = v
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DefaultDriver
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = DefaultDBName
	}
	if !filepath.IsAbs(cfg.Database.Path) && !strings.HasPrefix(cfg.Database.Path, "file:") {
		cfg.Database.Path = filepath.Join(filepath.Dir(path), cfg.Database.Path)
	}
	if _, err := cfg.Database.KeepAliveInterval(); err != nil {
		return cfg, fmt.Errorf("database.keepalive: %w", err)
	}
	cfg.Keys = mergeKeys(cfg.Keys, defaultConfig().Keys)
	return cfg, nil
}

func mergeKeys(k, def Keymap) Keymap {
	pick := func(v, d string) string {
		if v == "" {
			return d
		}
		return v
	}
	return Keymap{
		Quit:    pick(k.Quit, def.Quit),
		Add:     pick(k.Add, def.Add),
		Up:      pick(k.Up, def.Up),
		Down:    pick(k.Down, def.Down),
		Toggle:  pick(k.Toggle, def.Toggle),
		Delete:  pick(k.Delete, def.Delete),
		Confirm: pick(k.Confirm, def.Confirm),
		Cancel:  pick(k.Cancel, def.Cancel),
	}
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		LogLevel: "info",
		Database: Database{
			Driver:    DefaultDriver,
			Path:      DefaultDBName,
			KeepAlive: DefaultKeepAlive,
		},
		Keys: Keymap{
			Quit:    "q",
			Add:     "a",
			Up:      "k",
			Down:    "j",
			Toggle:  "enter",
			Delete:  "d",
			Confirm: "enter",
			Cancel:  "esc",
		},
	}
}
