// Package config loads the homewatch configuration file and exposes typed
// access to it.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Defaults applied when the config file leaves a key out. History depths
// follow the collection cadence: hourly DHCP polls for 30 days, hourly WLC
// polls for 7 days, and a shallow window for the chatty MAC tables.
const (
	DefaultDBPath            = "homewatch.db"
	DefaultWLCInterval       = time.Hour
	DefaultWLCMaxHistory     = 168
	DefaultMACTableInterval  = time.Hour
	DefaultMACTableHistory   = 10
	DefaultDHCPInterval      = time.Hour
	DefaultDHCPMaxHistory    = 720
	DefaultDetectInterval    = 10 * time.Minute
	DefaultVendorDBInterval  = 24 * time.Hour
	DefaultKnownDevicesPath  = "known_devices.yaml"
)

// SwitchConfig is one polled switch in the inventory.
type SwitchConfig struct {
	Name               string   `mapstructure:"name"`
	Host               string   `mapstructure:"host"`
	Port               int      `mapstructure:"port"`
	Username           string   `mapstructure:"username"`
	Password           string   `mapstructure:"password"`
	ExcludedInterfaces []string `mapstructure:"excluded_interfaces"`
}

// Config wraps a viper instance with typed accessors.
type Config struct {
	v *viper.Viper
}

// New wraps an existing viper instance.
func New(v *viper.Viper) *Config {
	return &Config{v: v}
}

// Load reads the YAML configuration at path (or the default search
// locations when path is empty), applies defaults, and allows environment
// overrides with the HOMEWATCH_ prefix.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("db_path", DefaultDBPath)
	v.SetDefault("known_devices", DefaultKnownDevicesPath)
	v.SetDefault("wlc.interval", DefaultWLCInterval)
	v.SetDefault("wlc.max_history", DefaultWLCMaxHistory)
	v.SetDefault("mactable.interval", DefaultMACTableInterval)
	v.SetDefault("mactable.max_history", DefaultMACTableHistory)
	v.SetDefault("dhcp.interval", DefaultDHCPInterval)
	v.SetDefault("dhcp.max_history", DefaultDHCPMaxHistory)
	v.SetDefault("detect.interval", DefaultDetectInterval)
	v.SetDefault("vendordb.interval", DefaultVendorDBInterval)
	v.SetDefault("vendordb.url", "")

	v.SetEnvPrefix("HOMEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("homewatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.homewatch")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine when no explicit path was given:
		// defaults plus environment cover the common single-host setup.
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return &Config{v: v}, nil
}

func (c *Config) GetString(key string) string          { return c.v.GetString(key) }
func (c *Config) GetInt(key string) int                { return c.v.GetInt(key) }
func (c *Config) GetBool(key string) bool              { return c.v.GetBool(key) }
func (c *Config) GetDuration(key string) time.Duration { return c.v.GetDuration(key) }
func (c *Config) IsSet(key string) bool                { return c.v.IsSet(key) }

// Switches decodes the switch inventory list.
func (c *Config) Switches() ([]SwitchConfig, error) {
	var switches []SwitchConfig
	if err := c.v.UnmarshalKey("switches", &switches); err != nil {
		return nil, fmt.Errorf("decode switches: %w", err)
	}
	return switches, nil
}
