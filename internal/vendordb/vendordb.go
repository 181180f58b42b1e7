// Package vendordb refreshes the local MAC vendor table from the
// maclookup.app JSON export.
package vendordb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/HomeNetOps/homewatch/internal/store"
	"github.com/HomeNetOps/homewatch/pkg/models"
	"go.uber.org/zap"
)

// DefaultURL is the public vendor database export.
const DefaultURL = "https://maclookup.app/downloads/json-database/get-db"

// Client downloads the vendor database.
type Client struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewClient creates a vendor database client for the given download URL.
// An empty url selects DefaultURL.
func NewClient(url string, logger *zap.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url:    url,
		client: &http.Client{Timeout: 60 * time.Second},
		logger: logger,
	}
}

// LastModified asks the server when the export last changed, as a Unix
// timestamp. Returns 0 when the server does not say.
func (c *Client) LastModified(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.url, nil)
	if err != nil {
		return 0, fmt.Errorf("build head request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("head vendor db: %w", err)
	}
	defer resp.Body.Close()

	lastModified := resp.Header.Get("Last-Modified")
	if lastModified == "" {
		return 0, nil
	}
	t, err := http.ParseTime(lastModified)
	if err != nil {
		return 0, fmt.Errorf("parse Last-Modified %q: %w", lastModified, err)
	}
	return float64(t.Unix()), nil
}

// Download fetches and decodes the full vendor list.
func (c *Client) Download(ctx context.Context) ([]models.VendorEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download vendor db: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vendor db returned %s", resp.Status)
	}

	var entries []models.VendorEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode vendor db: %w", err)
	}

	c.logger.Info("vendor db downloaded", zap.Int("entries", len(entries)))
	return entries, nil
}

// Refresh replaces the stored vendor table when the upstream export is
// newer than the stored fetch timestamp. The table and its timestamp are
// swapped as one unit.
func (c *Client) Refresh(ctx context.Context, vendors *store.VendorStore) error {
	upstream, err := c.LastModified(ctx)
	if err != nil {
		return err
	}

	stored, err := vendors.Timestamp(ctx)
	if err != nil {
		return err
	}
	if upstream != 0 && stored != 0 && upstream <= stored {
		c.logger.Debug("vendor db up to date",
			zap.Float64("stored", stored),
			zap.Float64("upstream", upstream),
		)
		return nil
	}

	entries, err := c.Download(ctx)
	if err != nil {
		return err
	}

	timestamp := upstream
	if timestamp == 0 {
		timestamp = float64(time.Now().Unix())
	}
	return vendors.Replace(ctx, entries, timestamp)
}
