package mactable

import (
	"context"
	"fmt"
	"time"

	"github.com/HomeNetOps/homewatch/internal/session"
	"github.com/HomeNetOps/homewatch/internal/store"
	"go.uber.org/zap"
)

// DocType is the snapshot document type for switch MAC tables.
const DocType = "mac_address_table"

const cmdMACTable = "show mac address-table"

// Switch is one polled Catalyst: its session target plus the uplink and
// downlink interfaces configured out of location tracking.
type Switch struct {
	Name               string
	Target             session.Target
	ExcludedInterfaces []string
}

// Collector polls every configured switch once per cycle and snapshots
// each device's flattened dynamic entries under its own partition.
type Collector struct {
	provider   session.Provider
	switches   []Switch
	snapshots  *store.SnapshotStore
	interval   time.Duration
	maxHistory int
	logger     *zap.Logger
}

// Config carries the collector's construction parameters.
type Config struct {
	Provider   session.Provider
	Switches   []Switch
	Snapshots  *store.SnapshotStore
	Interval   time.Duration
	MaxHistory int
}

// NewCollector creates a MAC table collector.
func NewCollector(cfg Config, logger *zap.Logger) *Collector {
	return &Collector{
		provider:   cfg.Provider,
		switches:   cfg.Switches,
		snapshots:  cfg.Snapshots,
		interval:   cfg.Interval,
		maxHistory: cfg.MaxHistory,
		logger:     logger,
	}
}

func (c *Collector) Name() string            { return "mactable" }
func (c *Collector) Interval() time.Duration { return c.interval }

// Collect polls the switches sequentially with one shared timestamp so a
// cycle's snapshots line up across devices. A failed switch is skipped
// without a snapshot; the other switches still get their data point.
func (c *Collector) Collect(ctx context.Context) error {
	timestamp := float64(time.Now().UnixNano()) / float64(time.Second)

	var lastErr error
	for _, sw := range c.switches {
		if err := c.collectSwitch(ctx, sw, timestamp); err != nil {
			c.logger.Warn("mac table collection failed",
				zap.String("device", sw.Name),
				zap.Error(err),
			)
			lastErr = err
		}
	}
	return lastErr
}

func (c *Collector) collectSwitch(ctx context.Context, sw Switch, timestamp float64) error {
	sess, err := c.provider.Connect(ctx, sw.Target)
	if err != nil {
		return fmt.Errorf("connect %s: %w", sw.Name, err)
	}
	defer sess.Close()

	output, err := sess.Execute(ctx, cmdMACTable)
	if err != nil {
		return fmt.Errorf("mac address-table on %s: %w", sw.Name, err)
	}

	entries, err := Flatten(sw.Name, Parse(output), sw.ExcludedInterfaces)
	if err != nil {
		return fmt.Errorf("flatten %s: %w", sw.Name, err)
	}

	if err := c.snapshots.Insert(ctx, sw.Name, DocType, entries, timestamp, c.maxHistory); err != nil {
		return err
	}
	c.logger.Info("mac table collected",
		zap.String("device", sw.Name),
		zap.Int("entries", len(entries)),
	)
	return nil
}
