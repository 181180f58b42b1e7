// Package mactable parses Catalyst 'show mac address-table' output into a
// typed per-VLAN tree and flattens the dynamic entries into per-interface
// records for location tracking.
package mactable

import (
	"regexp"
	"strings"

	"github.com/HomeNetOps/homewatch/internal/scrape"
	"github.com/HomeNetOps/homewatch/pkg/models"
)

// Table is the parsed MAC address table of one switch:
// VLAN id -> learned MAC (dotted-quad, as printed) -> interface -> entry.
type Table struct {
	VLANs map[string]VLAN
}

// VLAN holds the MAC addresses learned in one VLAN.
type VLAN struct {
	MACAddresses map[string]MACEntry
}

// MACEntry holds the interfaces a MAC was learned on. Dynamic entries have
// exactly one interface in practice; the map mirrors the table structure.
type MACEntry struct {
	Interfaces map[string]InterfaceEntry
}

// InterfaceEntry carries the entry type ("dynamic", "static").
type InterfaceEntry struct {
	EntryType string
}

// The data rows sit under a dashed header-separator line:
//
//	Vlan    Mac Address       Type        Ports
//	----    -----------       --------    -----
//	   1    0000.5e00.0101    DYNAMIC     Gi0/2
var (
	tableMarker = regexp.MustCompile(`^-+\s+-+\s+-+\s+-+\s*$`)

	tableRow = regexp.MustCompile(
		`^\s*(?P<vlan>\d+|All)\s+(?P<mac_address>[0-9a-fA-F]{4}\.[0-9a-fA-F]{4}\.[0-9a-fA-F]{4})\s+(?P<entry_type>\S+)\s+(?P<interface>\S+)\s*$`)
)

// interfaceNames maps the abbreviated port names Catalyst CLIs print to
// their canonical long form.
var interfaceNames = map[string]string{
	"Fa": "FastEthernet",
	"Gi": "GigabitEthernet",
	"Te": "TenGigabitEthernet",
	"Tw": "TwoGigabitEthernet",
	"Po": "Port-channel",
}

var abbrevInterface = regexp.MustCompile(`^([A-Z][a-z])(\d.*)$`)

// Parse extracts the MAC address table from raw command output. Output
// without the header separator yields an empty table.
func Parse(output string) Table {
	table := Table{VLANs: map[string]VLAN{}}

	for _, rec := range scrape.Records(output, tableMarker, tableRow) {
		vlanID := rec["vlan"]

		vlan, ok := table.VLANs[vlanID]
		if !ok {
			vlan = VLAN{MACAddresses: map[string]MACEntry{}}
			table.VLANs[vlanID] = vlan
		}

		mac := rec["mac_address"]
		entry, ok := vlan.MACAddresses[mac]
		if !ok {
			entry = MACEntry{Interfaces: map[string]InterfaceEntry{}}
			vlan.MACAddresses[mac] = entry
		}

		ifname := expandInterface(rec["interface"])
		entry.Interfaces[ifname] = InterfaceEntry{
			EntryType: strings.ToLower(rec["entry_type"]),
		}
	}

	return table
}

// expandInterface rewrites abbreviated port names (Gi0/2) to their long
// form (GigabitEthernet0/2). Unrecognized names pass through unchanged.
func expandInterface(name string) string {
	m := abbrevInterface.FindStringSubmatch(name)
	if m == nil {
		return name
	}
	long, ok := interfaceNames[m[1]]
	if !ok {
		return name
	}
	return long + m[2]
}

// Flatten walks a device's table and returns one MacTableEntry per dynamic
// (VLAN, MAC, interface) combination, MACs normalized to uppercase
// colon-hex. Entries learned on an excluded interface are dropped
// entirely: uplink ports learn the MAC of every downstream device and
// would otherwise make everything appear attached to every switch.
func Flatten(device string, table Table, excluded []string) ([]models.MacTableEntry, error) {
	skip := make(map[string]struct{}, len(excluded))
	for _, ifname := range excluded {
		skip[ifname] = struct{}{}
	}

	var entries []models.MacTableEntry
	for vlanID, vlan := range table.VLANs {
		for dottedMAC, macEntry := range vlan.MACAddresses {
			for ifname, ifEntry := range macEntry.Interfaces {
				if ifEntry.EntryType != "dynamic" {
					continue
				}
				if _, ok := skip[ifname]; ok {
					continue
				}

				mac, err := scrape.NormalizeMAC(dottedMAC)
				if err != nil {
					return nil, err
				}
				entries = append(entries, models.MacTableEntry{
					MACAddress: mac,
					Device:     device,
					Interface:  ifname,
					VLAN:       vlanID,
				})
			}
		}
	}
	return entries, nil
}
