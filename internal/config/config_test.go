package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "homewatch.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "db_path: /tmp/test.db\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := cfg.GetString("db_path"); got != "/tmp/test.db" {
		t.Errorf("db_path = %q, want /tmp/test.db", got)
	}
	if got := cfg.GetDuration("wlc.interval"); got != DefaultWLCInterval {
		t.Errorf("wlc.interval = %v, want %v", got, DefaultWLCInterval)
	}
	if got := cfg.GetInt("dhcp.max_history"); got != DefaultDHCPMaxHistory {
		t.Errorf("dhcp.max_history = %d, want %d", got, DefaultDHCPMaxHistory)
	}
	if got := cfg.GetString("known_devices"); got != DefaultKnownDevicesPath {
		t.Errorf("known_devices = %q, want %q", got, DefaultKnownDevicesPath)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
wlc:
  interval: 30m
  max_history: 48
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := cfg.GetDuration("wlc.interval"); got != 30*time.Minute {
		t.Errorf("wlc.interval = %v, want 30m", got)
	}
	if got := cfg.GetInt("wlc.max_history"); got != 48 {
		t.Errorf("wlc.max_history = %d, want 48", got)
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestSwitches(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
switches:
  - name: c3560c-12pc-s
    host: 192.168.1.253
    port: 22
    username: admin
    password: secret
    excluded_interfaces:
      - GigabitEthernet0/1
  - name: catalyst-2960
    host: 192.168.1.252
    username: admin
    password: secret
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	switches, err := cfg.Switches()
	if err != nil {
		t.Fatalf("Switches: %v", err)
	}
	if len(switches) != 2 {
		t.Fatalf("expected 2 switches, got %d", len(switches))
	}

	first := switches[0]
	if first.Name != "c3560c-12pc-s" || first.Host != "192.168.1.253" || first.Port != 22 {
		t.Errorf("unexpected first switch: %+v", first)
	}
	if len(first.ExcludedInterfaces) != 1 || first.ExcludedInterfaces[0] != "GigabitEthernet0/1" {
		t.Errorf("unexpected excluded interfaces: %v", first.ExcludedInterfaces)
	}
	if switches[1].Port != 0 {
		t.Errorf("port should be unset for second switch, got %d", switches[1].Port)
	}
}

func TestSwitchesEmpty(t *testing.T) {
	cfg, err := Load(writeConfig(t, "db_path: x.db\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	switches, err := cfg.Switches()
	if err != nil {
		t.Fatalf("Switches: %v", err)
	}
	if len(switches) != 0 {
		t.Errorf("expected no switches, got %d", len(switches))
	}
}

func TestViperConfigGetters(t *testing.T) {
	v := viper.New()
	v.Set("name", "test")
	v.Set("port", 8080)
	v.Set("enabled", true)
	v.Set("timeout", "5s")
	cfg := New(v)

	if got := cfg.GetString("name"); got != "test" {
		t.Errorf("GetString = %q, want test", got)
	}
	if got := cfg.GetInt("port"); got != 8080 {
		t.Errorf("GetInt = %d, want 8080", got)
	}
	if !cfg.GetBool("enabled") {
		t.Error("GetBool = false, want true")
	}
	if got := cfg.GetDuration("timeout"); got != 5*time.Second {
		t.Errorf("GetDuration = %v, want 5s", got)
	}
	if !cfg.IsSet("name") || cfg.IsSet("missing") {
		t.Error("IsSet mismatch")
	}
}
