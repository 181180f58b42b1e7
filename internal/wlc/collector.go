package wlc

import (
	"context"
	"fmt"
	"time"

	"github.com/HomeNetOps/homewatch/internal/detect"
	"github.com/HomeNetOps/homewatch/internal/session"
	"github.com/HomeNetOps/homewatch/internal/store"
	"github.com/HomeNetOps/homewatch/pkg/models"
	"go.uber.org/zap"
)

const (
	// SourceKey identifies the controller partition in the snapshot store.
	SourceKey = "wlc"

	// DocType is the snapshot document type for wireless client batches.
	DocType = "wlc_clients"

	cmdClientSummary = "show client summary"
	cmdClientDetail  = "show client detail %s"
)

// Collector polls the controller for its wireless clients and snapshots
// the batch. One cycle is one connection: summary first, then one detail
// command per client.
type Collector struct {
	provider   session.Provider
	target     session.Target
	snapshots  *store.SnapshotStore
	detector   *detect.Detector // optional unknown-device alerting
	interval   time.Duration
	maxHistory int
	logger     *zap.Logger
}

// Config carries the collector's construction parameters.
type Config struct {
	Provider   session.Provider
	Target     session.Target
	Snapshots  *store.SnapshotStore
	Detector   *detect.Detector
	Interval   time.Duration
	MaxHistory int
}

// NewCollector creates a WLC client collector.
func NewCollector(cfg Config, logger *zap.Logger) *Collector {
	return &Collector{
		provider:   cfg.Provider,
		target:     cfg.Target,
		snapshots:  cfg.Snapshots,
		detector:   cfg.Detector,
		interval:   cfg.Interval,
		maxHistory: cfg.MaxHistory,
		logger:     logger,
	}
}

func (c *Collector) Name() string            { return "wlc" }
func (c *Collector) Interval() time.Duration { return c.interval }

// Collect runs one polling cycle. The snapshot is inserted only after the
// whole batch parsed: a transport failure mid-cycle aborts without writing,
// so history never contains a partial capture. A failed detail fetch for a
// single client only drops that client from the batch.
func (c *Collector) Collect(ctx context.Context) error {
	timestamp := float64(time.Now().UnixNano()) / float64(time.Second)

	clients, err := c.fetchClients(ctx)
	if err != nil {
		return err
	}

	if err := c.snapshots.Insert(ctx, SourceKey, DocType, clients, timestamp, c.maxHistory); err != nil {
		return err
	}
	c.logger.Info("wlc clients collected",
		zap.Int("clients", len(clients)),
		zap.Float64("timestamp", timestamp),
	)

	if c.detector != nil {
		unknown := c.detector.Detect(clients)
		c.detector.ReportOnce(ctx, unknown)
	}
	return nil
}

func (c *Collector) fetchClients(ctx context.Context) ([]models.ClientRecord, error) {
	sess, err := c.provider.Connect(ctx, c.target)
	if err != nil {
		return nil, fmt.Errorf("connect wlc: %w", err)
	}
	defer sess.Close()

	output, err := sess.Execute(ctx, cmdClientSummary)
	if err != nil {
		return nil, fmt.Errorf("client summary: %w", err)
	}
	summary := ParseClientSummary(output)

	clients := make([]models.ClientRecord, 0, len(summary))
	for _, entry := range summary {
		detail, err := sess.Execute(ctx, fmt.Sprintf(cmdClientDetail, entry.MACAddress))
		if err != nil {
			// Fail soft: the client may have roamed away between the
			// summary and the detail command.
			c.logger.Warn("client detail fetch failed",
				zap.String("mac", entry.MACAddress),
				zap.Error(err),
			)
			continue
		}

		record, err := ParseClientDetail(detail)
		if err != nil {
			c.logger.Warn("client detail parse failed",
				zap.String("mac", entry.MACAddress),
				zap.Error(err),
			)
			continue
		}
		clients = append(clients, record)
	}
	return clients, nil
}
