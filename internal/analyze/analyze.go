// Package analyze cross-references collected snapshots with the vendor
// table to summarize which devices the network has seen.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/HomeNetOps/homewatch/internal/dhcp"
	"github.com/HomeNetOps/homewatch/internal/store"
	"github.com/HomeNetOps/homewatch/pkg/models"
)

// DeviceSummary is one MAC seen in the DHCP history, with the address it
// last held and its vendor when the prefix is known.
type DeviceSummary struct {
	MAC    string
	IP     string
	Vendor string
}

// DHCPReport walks the full DHCP snapshot history newest-first and
// collects the first occurrence of every MAC, joined with a vendor lookup.
// An empty history yields an empty report.
func DHCPReport(ctx context.Context, snapshots *store.SnapshotStore, vendors *store.VendorStore) ([]DeviceSummary, error) {
	history, err := snapshots.History(ctx, "", dhcp.DocType)
	if err != nil {
		return nil, err
	}

	seen := map[string]DeviceSummary{}
	var order []string

	for _, snap := range history {
		var clients []models.DhcpClient
		if err := json.Unmarshal(snap.Payload, &clients); err != nil {
			// Skip payloads this version no longer understands.
			continue
		}
		for _, c := range clients {
			if _, ok := seen[c.MAC]; ok {
				continue
			}

			summary := DeviceSummary{MAC: c.MAC, IP: c.IP}
			entry, err := vendors.Search(ctx, c.MAC)
			if err == nil && entry != nil {
				summary.Vendor = entry.VendorName
			}
			seen[c.MAC] = summary
			order = append(order, c.MAC)
		}
	}

	sort.Strings(order)
	report := make([]DeviceSummary, 0, len(order))
	for _, mac := range order {
		report = append(report, seen[mac])
	}
	return report, nil
}

// WriteReport renders the summaries as an aligned text table.
func WriteReport(w io.Writer, report []DeviceSummary) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "MAC\tIP\tVENDOR")
	unknown := 0
	for _, d := range report {
		if d.Vendor == "" {
			unknown++
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.MAC, d.IP, d.Vendor)
	}
	fmt.Fprintf(tw, "\ntotal mac addresses: %d\n", len(report))
	fmt.Fprintf(tw, "unknown vendor: %d\n", unknown)
	return tw.Flush()
}
