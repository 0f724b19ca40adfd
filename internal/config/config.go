package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendSQLite = "sqlite"
	BackendGoogle = "google"
	BackendICS    = "ics"
)

// ICSConfig describes a single ICS subscription.
type ICSConfig struct {
	// URL is a http(s) address or a file path.
	URL  string `yaml:"url"`
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	// Account names the token kept in the database.
	Account string `yaml:"account"`
	// Addr is where the login redirect is served.
	Addr string `yaml:"addr"`
}

type Config struct {
	// AppName is the title of the calendar holding the application's events.
	AppName string `yaml:"app_name"`
	Backend string `yaml:"backend"`
	// Database is the sqlite file, used by the sqlite backend and to keep
	// the google token.
	Database string `yaml:"database"`

	// Timezone is an IANA name, or "Local", defining day boundaries.
	Timezone string `yaml:"timezone"`

	// RefreshCron is the schedule of the watch command.
	RefreshCron string `yaml:"refresh"`
	// HorizonDays is how many days, starting today, watch keeps published.
	HorizonDays int `yaml:"horizon_days"`

	Google GoogleConfig `yaml:"google"`
	ICS    []ICSConfig  `yaml:"ics"`
}

func DefaultConfig() *Config {
	return &Config{
		AppName:     "calkit",
		Backend:     BackendSQLite,
		Database:    "calkit.db",
		Timezone:    "Local",
		RefreshCron: "*/15 * * * *",
		HorizonDays: 1,
		Google: GoogleConfig{
			CredentialsFile: "credentials.json",
			Account:         "default",
			Addr:            ":8080",
		},
		ICS: []ICSConfig{},
	}
}

// Normalize fills in missing values so partially written files still work.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Backend == "" {
		c.Backend = def.Backend
	}
	if c.Database == "" {
		c.Database = def.Database
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = def.HorizonDays
	}
	if c.Google.CredentialsFile == "" {
		c.Google.CredentialsFile = def.Google.CredentialsFile
	}
	if c.Google.Account == "" {
		c.Google.Account = def.Google.Account
	}
	if c.Google.Addr == "" {
		c.Google.Addr = def.Google.Addr
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	for i := range c.ICS {
		if c.ICS[i].ID == "" {
			c.ICS[i].ID = fmt.Sprintf("ics-%d", i+1)
		}
		if c.ICS[i].Name == "" {
			c.ICS[i].Name = c.ICS[i].ID
		}
	}
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendGoogle, BackendICS:
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if _, err := c.Location(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(c.ICS))
	for _, src := range c.ICS {
		if src.URL == "" {
			return fmt.Errorf("config: ics source %q has no url", src.ID)
		}
		if seen[src.ID] {
			return fmt.Errorf("config: duplicated ics source %q", src.ID)
		}
		seen[src.ID] = true
	}
	return nil
}

func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone: %w", err)
	}
	return loc, nil
}

// Load reads the YAML file at path. On first run the file doesn't exist yet,
// the defaults are written to it and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			return cfg, Save(path, cfg)
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, cfg.Validate()
}

// Save writes cfg through a temporary file so readers never see a partial
// file. The final file is only readable by its owner.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".calkit-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
