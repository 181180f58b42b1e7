// Package detect flags wireless clients whose MAC address is not on the
// operator-maintained allowlist, notifying about each one at most once per
// process lifetime.
package detect

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/HomeNetOps/homewatch/internal/notify"
	"github.com/HomeNetOps/homewatch/internal/scrape"
	"github.com/HomeNetOps/homewatch/pkg/models"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// KnownDevice is one entry of the known-devices file.
type KnownDevice struct {
	Name string `yaml:"name"`
	MAC  string `yaml:"mac"`
}

// knownDevicesFile is the on-disk shape: devices grouped under arbitrary
// category keys, each a list of entries carrying at least a mac field.
type knownDevicesFile map[string][]KnownDevice

// LoadKnownMACs reads the known-devices YAML file and returns every mac
// value in it, normalized to uppercase colon-hex. Entries whose MAC fails
// to normalize are skipped; a wrong allowlist entry must not take down
// detection for the rest.
func LoadKnownMACs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read known devices %q: %w", path, err)
	}

	var file knownDevicesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse known devices %q: %w", path, err)
	}

	var macs []string
	for _, devices := range file {
		for _, d := range devices {
			if strings.TrimSpace(d.MAC) == "" {
				continue
			}
			mac, err := scrape.NormalizeMAC(d.MAC)
			if err != nil {
				continue
			}
			macs = append(macs, mac)
		}
	}
	return macs, nil
}

// Detector cross-references observed clients against the allowlist.
// The reported set lives only as long as the process: restarting resets
// suppression, which is the accepted tradeoff for not persisting it.
type Detector struct {
	allow    map[string]struct{}
	reported map[string]struct{}
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewDetector builds a Detector from the allowlist. MACs are normalized;
// construct one per process and thread it through every cycle.
func NewDetector(knownMACs []string, notifier notify.Notifier, logger *zap.Logger) *Detector {
	allow := make(map[string]struct{}, len(knownMACs))
	for _, mac := range knownMACs {
		if normalized, err := scrape.NormalizeMAC(mac); err == nil {
			allow[normalized] = struct{}{}
		}
	}
	return &Detector{
		allow:    allow,
		reported: make(map[string]struct{}),
		notifier: notifier,
		logger:   logger,
	}
}

// Detect returns the clients whose MAC is not on the allowlist. Clients
// without a parseable MAC are ignored.
func (d *Detector) Detect(clients []models.ClientRecord) []models.ClientRecord {
	var unknown []models.ClientRecord
	for _, c := range clients {
		mac, err := scrape.NormalizeMAC(c.MACAddress)
		if err != nil {
			continue
		}
		if _, ok := d.allow[mac]; !ok {
			unknown = append(unknown, c)
		}
	}
	return unknown
}

// ReportOnce notifies about each unknown client exactly once per process
// lifetime. Later sightings of the same MAC are suppressed. A notification
// failure is logged and the MAC still counts as reported; the sink is
// fire-and-forget.
func (d *Detector) ReportOnce(ctx context.Context, unknown []models.ClientRecord) {
	for _, c := range unknown {
		mac, err := scrape.NormalizeMAC(c.MACAddress)
		if err != nil {
			continue
		}

		d.logger.Info("unknown mac detected", zap.String("mac", mac))

		if _, seen := d.reported[mac]; seen {
			continue
		}
		d.reported[mac] = struct{}{}

		message := formatUnknownClient(c)
		if err := d.notifier.Notify(ctx, message); err != nil {
			d.logger.Error("unknown device notification failed",
				zap.String("mac", mac),
				zap.Error(err),
			)
		}
	}
}

func formatUnknownClient(c models.ClientRecord) string {
	var b strings.Builder
	b.WriteString("unknown device found.\n")
	fmt.Fprintf(&b, "mac: %s\n", c.MACAddress)
	fmt.Fprintf(&b, "ip: %s\n", c.IPAddress)
	fmt.Fprintf(&b, "hostname: %s\n", c.Hostname)
	fmt.Fprintf(&b, "device type: %s\n", c.DeviceType)
	fmt.Fprintf(&b, "ap: %s\n", c.APName)
	fmt.Fprintf(&b, "ssid: %s", c.SSID)
	return b.String()
}
