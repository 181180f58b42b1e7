package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/HomeNetOps/homewatch/internal/analyze"
	"github.com/HomeNetOps/homewatch/internal/backup"
	"github.com/HomeNetOps/homewatch/internal/config"
	"github.com/HomeNetOps/homewatch/internal/detect"
	"github.com/HomeNetOps/homewatch/internal/dhcp"
	"github.com/HomeNetOps/homewatch/internal/mactable"
	"github.com/HomeNetOps/homewatch/internal/notify"
	"github.com/HomeNetOps/homewatch/internal/poll"
	"github.com/HomeNetOps/homewatch/internal/session"
	"github.com/HomeNetOps/homewatch/internal/store"
	"github.com/HomeNetOps/homewatch/internal/vendordb"
	"github.com/HomeNetOps/homewatch/internal/version"
	"github.com/HomeNetOps/homewatch/internal/wlc"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	once := flag.String("once", "", "run a single collection cycle for the named collector and exit")
	report := flag.Bool("report", false, "print the DHCP device report and exit")
	diffType := flag.String("diff", "", "print snapshot history changes for the given doc type and exit")
	backupPath := flag.String("backup", "", "write a tar.gz backup of the database to this path and exit")
	restorePath := flag.String("restore", "", "restore a tar.gz backup into the current directory and exit")
	restoreForce := flag.Bool("force", false, "overwrite existing files on restore")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		return
	}

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("homewatch starting", zap.String("version", version.Short()))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	if *restorePath != "" {
		if err := backup.Restore(context.Background(), *restorePath, ".", *restoreForce); err != nil {
			logger.Fatal("restore failed", zap.Error(err))
		}
		logger.Info("restore complete", zap.String("archive", *restorePath))
		return
	}
	if *backupPath != "" {
		if err := backup.Backup(context.Background(), cfg.GetString("db_path"), *configPath, *backupPath); err != nil {
			logger.Fatal("backup failed", zap.Error(err))
		}
		logger.Info("backup complete", zap.String("archive", *backupPath))
		return
	}

	db, err := store.New(cfg.GetString("db_path"))
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.Migrate(ctx, "snapshots", store.SnapshotMigrations()); err != nil {
		logger.Fatal("failed to migrate snapshot schema", zap.Error(err))
	}
	if err := db.Migrate(ctx, "vendors", store.VendorMigrations()); err != nil {
		logger.Fatal("failed to migrate vendor schema", zap.Error(err))
	}

	snapshots := store.NewSnapshotStore(db.DB())
	vendors := store.NewVendorStore(db.DB())

	if *report {
		if err := printReport(ctx, snapshots, vendors); err != nil {
			logger.Fatal("report failed", zap.Error(err))
		}
		return
	}
	if *diffType != "" {
		if err := printDiff(ctx, snapshots, *diffType); err != nil {
			logger.Fatal("diff failed", zap.Error(err))
		}
		return
	}

	collectors, err := buildCollectors(cfg, snapshots, vendors, logger)
	if err != nil {
		logger.Fatal("failed to build collectors", zap.Error(err))
	}

	if *once != "" {
		if err := runOnce(ctx, collectors, *once); err != nil {
			logger.Fatal("collection failed", zap.String("collector", *once), zap.Error(err))
		}
		return
	}

	runner := poll.NewRunner(collectors, logger)
	runner.Start(ctx)

	logger.Info("homewatch ready", zap.Int("collectors", len(collectors)))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	cancel()
	runner.Wait()

	logger.Info("homewatch stopped")
}

// buildCollectors assembles the collectors the configuration enables. A
// section without a host (or, for mactable, an empty switch list) is left
// out rather than treated as an error.
func buildCollectors(cfg *config.Config, snapshots *store.SnapshotStore, vendors *store.VendorStore, logger *zap.Logger) ([]poll.Collector, error) {
	provider := &session.SSHProvider{}
	var collectors []poll.Collector

	if host := cfg.GetString("wlc.host"); host != "" {
		detector, err := buildDetector(cfg, logger)
		if err != nil {
			return nil, err
		}
		collectors = append(collectors, wlc.NewCollector(wlc.Config{
			Provider: provider,
			Target: session.Target{
				Host:     host,
				Port:     cfg.GetInt("wlc.port"),
				Username: cfg.GetString("wlc.username"),
				Password: cfg.GetString("wlc.password"),
			},
			Snapshots:  snapshots,
			Detector:   detector,
			Interval:   cfg.GetDuration("wlc.interval"),
			MaxHistory: cfg.GetInt("wlc.max_history"),
		}, logger.Named("wlc")))
	}

	switchConfigs, err := cfg.Switches()
	if err != nil {
		return nil, err
	}
	if len(switchConfigs) > 0 {
		switches := make([]mactable.Switch, 0, len(switchConfigs))
		for _, sc := range switchConfigs {
			switches = append(switches, mactable.Switch{
				Name: sc.Name,
				Target: session.Target{
					Host:     sc.Host,
					Port:     sc.Port,
					Username: sc.Username,
					Password: sc.Password,
				},
				ExcludedInterfaces: sc.ExcludedInterfaces,
			})
		}
		collectors = append(collectors, mactable.NewCollector(mactable.Config{
			Provider:   provider,
			Switches:   switches,
			Snapshots:  snapshots,
			Interval:   cfg.GetDuration("mactable.interval"),
			MaxHistory: cfg.GetInt("mactable.max_history"),
		}, logger.Named("mactable")))
	}

	if url := cfg.GetString("dhcp.url"); url != "" {
		collectors = append(collectors, dhcp.NewCollector(dhcp.Config{
			URL:        url,
			Username:   cfg.GetString("dhcp.username"),
			Password:   cfg.GetString("dhcp.password"),
			Snapshots:  snapshots,
			Interval:   cfg.GetDuration("dhcp.interval"),
			MaxHistory: cfg.GetInt("dhcp.max_history"),
		}, logger.Named("dhcp")))
	}

	collectors = append(collectors, vendordb.NewCollector(
		cfg.GetString("vendordb.url"),
		vendors,
		cfg.GetDuration("vendordb.interval"),
		logger.Named("vendordb"),
	))

	return collectors, nil
}

// buildDetector wires unknown-device alerting for the WLC collector. No
// known-devices file means no detector; a configured push token upgrades
// logging-only detection to notifications.
func buildDetector(cfg *config.Config, logger *zap.Logger) (*detect.Detector, error) {
	path := cfg.GetString("known_devices")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !cfg.IsSet("known_devices") {
			return nil, nil
		}
		return nil, fmt.Errorf("known devices file: %w", err)
	}

	known, err := detect.LoadKnownMACs(path)
	if err != nil {
		return nil, err
	}

	var notifier notify.Notifier = notify.NopNotifier{}
	if token := cfg.GetString("notify.token"); token != "" {
		notifier = notify.NewPushClient(cfg.GetString("notify.endpoint"), token)
	}
	return detect.NewDetector(known, notifier, logger.Named("detect")), nil
}

func runOnce(ctx context.Context, collectors []poll.Collector, name string) error {
	for _, c := range collectors {
		if c.Name() == name {
			return c.Collect(ctx)
		}
	}
	return fmt.Errorf("unknown collector %q", name)
}

func printReport(ctx context.Context, snapshots *store.SnapshotStore, vendors *store.VendorStore) error {
	report, err := analyze.DHCPReport(ctx, snapshots, vendors)
	if err != nil {
		return err
	}
	return analyze.WriteReport(os.Stdout, report)
}

func printDiff(ctx context.Context, snapshots *store.SnapshotStore, docType string) error {
	diffs, err := snapshots.Diff(ctx, docType)
	if err != nil {
		return err
	}
	for _, d := range diffs {
		fmt.Printf("%.0f -> %.0f\n", d.TimestampBefore, d.TimestampAfter)
		for _, raw := range d.Added {
			fmt.Printf("  + %s\n", raw)
		}
		for _, raw := range d.Removed {
			fmt.Printf("  - %s\n", raw)
		}
	}
	return nil
}
