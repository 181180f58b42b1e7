package vendordb

import (
	"context"
	"time"

	"github.com/HomeNetOps/homewatch/internal/store"
	"go.uber.org/zap"
)

// Collector periodically refreshes the vendor table. It piggybacks on the
// polling runner like the device collectors, just with a much longer
// interval.
type Collector struct {
	client   *Client
	vendors  *store.VendorStore
	interval time.Duration
}

// NewCollector creates a vendor database refresh collector.
func NewCollector(url string, vendors *store.VendorStore, interval time.Duration, logger *zap.Logger) *Collector {
	return &Collector{
		client:   NewClient(url, logger),
		vendors:  vendors,
		interval: interval,
	}
}

func (c *Collector) Name() string            { return "vendordb" }
func (c *Collector) Interval() time.Duration { return c.interval }

func (c *Collector) Collect(ctx context.Context) error {
	return c.client.Refresh(ctx, c.vendors)
}
