package dhcp

import (
	"context"
	"net/http"
	"time"

	"github.com/HomeNetOps/homewatch/internal/store"
	"go.uber.org/zap"
)

// DocType is the snapshot document type for DHCP client lists. The list
// covers the whole network, so the partition carries no source key.
const DocType = "dhcp_clients"

// Collector polls the router's DHCP client page and snapshots the leases.
type Collector struct {
	client     *http.Client
	url        string
	username   string
	password   string
	snapshots  *store.SnapshotStore
	interval   time.Duration
	maxHistory int
	logger     *zap.Logger
}

// Config carries the collector's construction parameters.
type Config struct {
	URL        string
	Username   string
	Password   string
	Snapshots  *store.SnapshotStore
	Interval   time.Duration
	MaxHistory int
}

// NewCollector creates a DHCP client collector.
func NewCollector(cfg Config, logger *zap.Logger) *Collector {
	return &Collector{
		client:     &http.Client{Timeout: 15 * time.Second},
		url:        cfg.URL,
		username:   cfg.Username,
		password:   cfg.Password,
		snapshots:  cfg.Snapshots,
		interval:   cfg.Interval,
		maxHistory: cfg.MaxHistory,
		logger:     logger,
	}
}

func (c *Collector) Name() string            { return "dhcp" }
func (c *Collector) Interval() time.Duration { return c.interval }

// Collect fetches and scrapes the page, then snapshots the result. A fetch
// failure aborts the cycle without a snapshot; an empty client list is a
// valid capture and is recorded.
func (c *Collector) Collect(ctx context.Context) error {
	timestamp := float64(time.Now().UnixNano()) / float64(time.Second)

	html, err := Fetch(ctx, c.client, c.url, c.username, c.password)
	if err != nil {
		return err
	}

	clients := Scrape(html, c.logger)

	if err := c.snapshots.Insert(ctx, "", DocType, clients, timestamp, c.maxHistory); err != nil {
		return err
	}
	c.logger.Info("dhcp clients collected", zap.Int("clients", len(clients)))
	return nil
}
