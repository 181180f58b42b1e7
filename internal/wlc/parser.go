// Package wlc collects wireless client state from an Aironet Mobility
// Express controller by scraping its CLI reports.
package wlc

import (
	"regexp"

	"github.com/HomeNetOps/homewatch/internal/scrape"
	"github.com/HomeNetOps/homewatch/pkg/models"
)

// The summary table is preceded by a separator line of ten-plus dash
// groups. Data rows stop at the first line that no longer looks like a
// client entry.
var (
	summaryMarker = regexp.MustCompile(`([-]+\s+){10}[-]+`)

	summaryClient = regexp.MustCompile(
		`(?P<mac_address>(?:[0-9a-fA-F]{2}:){5}[0-9a-fA-F]{2})\s+(?P<ap_name>\S+)\s+\d+\s+\S+\s+\d+\s+\S+\s+(?P<protocol>802\.11\S+\(.*\))\s+\d+`)
)

// 'show client detail' prints one label per line, dot-filled to a fixed
// width. Each field gets its own anchored pattern so reordered or missing
// fields across firmware versions degrade to empty strings instead of
// breaking the whole parse.
var detailPatterns = map[string]*regexp.Regexp{
	// Client MAC Address............................... 04:03:d6:d8:57:5f
	"mac_address": regexp.MustCompile(`(?m)Client MAC Address( *)(\.)+( +)(?P<mac_address>(?:[0-9a-fA-F]{2}:){5}[0-9a-fA-F]{2})( *)$`),

	// Client Username ................................. N/A
	"username": regexp.MustCompile(`(?m)Client Username( *)(\.)+( +)(?P<username>\S+)( *)$`),

	// Hostname: .......................................
	// The label may have nothing after it; the pattern then simply fails
	// to match and the field normalizes to the empty string.
	"hostname": regexp.MustCompile(`(?m)Hostname:(\s*)(\.)+ +(?P<hostname>\S.*)$`),

	// Device Type: .................................... iPad 6th Gen
	"device_type": regexp.MustCompile(`(?m)Device Type:( *)(\.)+( +)(?P<device_type>\S.*)?$`),

	// AP MAC Address................................... 70:ea:1a:84:16:c0
	"ap_mac_address": regexp.MustCompile(`(?m)AP MAC Address( *)(\.)+( +)(?P<ap_mac_address>(?:[0-9a-fA-F]{2}:){5}[0-9a-fA-F]{2})( *)$`),

	// AP Name.......................................... living-AP1815M
	"ap_name": regexp.MustCompile(`(?m)AP Name( *)(\.)+( +)(?P<ap_name>\S.*)$`),

	// Client State..................................... Associated
	"client_state": regexp.MustCompile(`(?m)Client State( *)(\.)+( +)(?P<client_state>\S.*)$`),

	// Wireless LAN Network Name (SSID)................. taka 11ng
	"ssid": regexp.MustCompile(`(?m)Wireless LAN Network Name \(SSID\)( *)(\.)+( +)(?P<ssid>\S.*)$`),

	// Connected For ................................... 4946 secs
	"connected_for": regexp.MustCompile(`(?m)Connected For( *)(\.)+( +)(?P<connected_for>\d+)( +)secs( *)$`),

	// IP Address....................................... 192.168.122.107
	"ip_address": regexp.MustCompile(`(?m)IP Address( *)(\.)+( +)(?P<ip_address>\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})(\s*)$`),

	// Gateway Address.................................. 192.168.122.1
	"gateway_address": regexp.MustCompile(`(?m)Gateway Address( *)(\.)+( +)(?P<gateway_address>\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})(\s*)$`),

	// Netmask.......................................... 255.255.255.0
	"netmask": regexp.MustCompile(`(?m)Netmask( *)(\.)+( +)(?P<netmask>\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})( *)$`),
}

// SummaryEntry is one row of 'show client summary'. The MAC is kept as the
// controller prints it; it feeds the per-client detail command verbatim.
type SummaryEntry struct {
	MACAddress string
	APName     string
	Protocol   string
}

// ParseClientSummary extracts client rows from 'show client summary' output.
// Output without the marker line yields no entries: an idle controller is a
// valid state, not a parse failure.
func ParseClientSummary(output string) []SummaryEntry {
	records := scrape.Records(output, summaryMarker, summaryClient)

	entries := make([]SummaryEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, SummaryEntry{
			MACAddress: rec["mac_address"],
			APName:     rec["ap_name"],
			Protocol:   rec["protocol"],
		})
	}
	return entries
}

// ParseClientDetail extracts the full client record from a
// 'show client detail <mac>' report. Fields the firmware did not print are
// empty strings; the MAC is normalized to uppercase colon-hex, and a detail
// blob without a parseable MAC is an error since the record would have no key.
func ParseClientDetail(output string) (models.ClientRecord, error) {
	fields := scrape.Fields(output, detailPatterns)

	mac, err := scrape.NormalizeMAC(fields["mac_address"])
	if err != nil {
		return models.ClientRecord{}, err
	}

	apMAC := fields["ap_mac_address"]
	if apMAC != "" {
		if normalized, err := scrape.NormalizeMAC(apMAC); err == nil {
			apMAC = normalized
		}
	}

	return models.ClientRecord{
		MACAddress:     mac,
		IPAddress:      fields["ip_address"],
		APName:         fields["ap_name"],
		APMACAddress:   apMAC,
		Hostname:       fields["hostname"],
		DeviceType:     fields["device_type"],
		ClientState:    fields["client_state"],
		SSID:           fields["ssid"],
		ConnectedFor:   fields["connected_for"],
		Username:       fields["username"],
		Netmask:        fields["netmask"],
		GatewayAddress: fields["gateway_address"],
	}, nil
}
