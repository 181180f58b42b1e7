// Package dhcp scrapes the DHCP client list from a consumer router's
// status page. The router renders the list with inline JavaScript, so the
// records are pulled out of the script text, not the HTML markup.
package dhcp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/HomeNetOps/homewatch/internal/scrape"
	"github.com/HomeNetOps/homewatch/pkg/models"
	"go.uber.org/zap"
)

// The page assigns two parallel space-separated lists to form fields:
//
//	cf.IP.value = "192.168.1.10 192.168.1.11 ...";
//	cf.MAC.value = "aa:bb:cc:dd:ee:ff 11:22:33:44:55:66 ...";
var (
	ipListPattern  = regexp.MustCompile(`cf\.IP\.value = "(.*)";`)
	macListPattern = regexp.MustCompile(`cf\.MAC\.value = "(.*)";`)
)

// Scrape extracts DHCP clients from the page content by zipping the IP and
// MAC lists positionally. The script structure is a firmware assumption
// that may silently stop matching after an upgrade, so a page without
// either list yields an empty result, never an error. Both lists come from
// the same rendering pass and should always line up; if they do not, a
// warning is logged and the zip truncates to the shorter list. Entries
// whose MAC does not normalize are skipped.
func Scrape(html string, logger *zap.Logger) []models.DhcpClient {
	ips := matchList(ipListPattern, html)
	macs := matchList(macListPattern, html)

	if len(ips) != len(macs) {
		logger.Warn("dhcp ip/mac list length mismatch",
			zap.Int("ips", len(ips)),
			zap.Int("macs", len(macs)),
		)
	}

	n := len(ips)
	if len(macs) < n {
		n = len(macs)
	}

	clients := []models.DhcpClient{}
	for i := 0; i < n; i++ {
		mac, err := scrape.NormalizeMAC(macs[i])
		if err != nil {
			continue
		}
		clients = append(clients, models.DhcpClient{IP: ips[i], MAC: mac})
	}
	return clients
}

func matchList(re *regexp.Regexp, html string) []string {
	m := re.FindStringSubmatch(html)
	if m == nil {
		return nil
	}
	return strings.Fields(m[1])
}

// Fetch retrieves the DHCP client page with HTTP basic auth and returns
// its body.
func Fetch(ctx context.Context, client *http.Client, url, username, password string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build dhcp request: %w", err)
	}
	req.SetBasicAuth(username, password)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch dhcp page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("dhcp page returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read dhcp page: %w", err)
	}
	return string(body), nil
}
