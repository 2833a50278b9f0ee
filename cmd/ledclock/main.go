// Command ledclock schedules special-occasion displays on an LED clock and
// publishes the resulting output variables to MQTT.
package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/sweeney/ledclock/internal/clock"
	"github.com/sweeney/ledclock/internal/config"
	"github.com/sweeney/ledclock/internal/gpio"
	"github.com/sweeney/ledclock/internal/logic"
	"github.com/sweeney/ledclock/internal/mqtt"
	"github.com/sweeney/ledclock/internal/status"
	"github.com/sweeney/ledclock/internal/web"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// options holds the command line. Zero-valued overrides are only applied
// when the flag was given explicitly.
type options struct {
	configPath string
	poll       time.Duration
	debounce   time.Duration
	heartbeat  time.Duration
	broker     string
	httpAddr   string
	printState bool
	debug      bool

	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{log: zap.NewNop()}

	root := &cobra.Command{
		Use:          "ledclock",
		Short:        "Schedule special-occasion displays on the LED clock",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zc := zap.NewProductionConfig()
			if opts.debug {
				zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			l, err := zc.Build()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			opts.log = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = opts.log.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd.Flags(), opts, &cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config %s: %w", opts.configPath, err)
			}
			return run(cfg, opts)
		},
	}

	bindFlags(root.Flags(), opts)
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	root.AddCommand(newCatalogCmd())
	return root
}

func bindFlags(f *pflag.FlagSet, opts *options) {
	def := config.Default()
	f.StringVar(&opts.configPath, "config", config.DefaultPath, "YAML configuration file")
	f.DurationVar(&opts.poll, "poll", def.Poll, "GPIO polling interval")
	f.DurationVar(&opts.debounce, "debounce", def.Debounce, "Trigger debounce duration")
	f.StringVar(&opts.broker, "broker", def.Broker, "MQTT broker address")
	f.DurationVar(&opts.heartbeat, "heartbeat", def.Heartbeat, "Heartbeat interval (0 to disable)")
	f.StringVar(&opts.httpAddr, "http", def.HTTP, "HTTP status address (empty to disable)")
	f.BoolVar(&opts.printState, "print-state", false, "Print inputs and catalogs, then exit")
}

// applyFlags copies explicitly given flags over the loaded configuration.
func applyFlags(fs *pflag.FlagSet, opts *options, cfg *config.Config) {
	if fs.Changed("poll") {
		cfg.Poll = opts.poll
	}
	if fs.Changed("debounce") {
		cfg.Debounce = opts.debounce
	}
	if fs.Changed("broker") {
		cfg.Broker = opts.broker
	}
	if fs.Changed("heartbeat") {
		cfg.Heartbeat = opts.heartbeat
	}
	if fs.Changed("http") {
		cfg.HTTP = opts.httpAddr
	}
}

func newCatalogCmd() *cobra.Command {
	var capacity int
	cmd := &cobra.Command{
		Use:   "catalog <dates>",
		Short: `Parse a date list such as "8.8. 9.8. 0.0." and print the result`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printCatalog(cmd.OutOrStdout(), args[0], capacity)
			return nil
		},
	}
	cmd.Flags().IntVar(&capacity, "capacity", logic.DefaultCapacity, "Maximum number of entries (negative for unbounded)")
	return cmd
}

func run(cfg config.Config, opts *options) error {
	log := opts.log

	for _, o := range cfg.Overlaps() {
		log.Warn("overlapping variable ranges", zap.String("overlap", o))
	}

	loc, err := clock.LoadLocation(cfg.Location)
	if err != nil {
		return fmt.Errorf("load location: %w", err)
	}
	restart, err := clock.ParseRestart(cfg.RestartAt)
	if err != nil {
		return err
	}

	// Initialize GPIO
	gpioReader, err := gpio.NewRealReader(cfg.GPIO.Chip, cfg.TriggerPins(), cfg.GPIO.DisablePin)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer gpioReader.Close()

	if opts.printState {
		levels, err := gpioReader.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		printState(os.Stdout, cfg, levels)
		return nil
	}

	publisher, err := mqtt.NewRealPublisher(cfg.Broker, log)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	startTime := time.Now()
	clk := clock.New(loc, startTime)
	startTick, _ := clk.Read(startTime)
	seed := uint64(startTime.UnixNano())
	engine := logic.NewEngine(cfg.EngineConfig(), rand.New(rand.NewPCG(seed, seed>>32)), startTick, startTime)

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(startTime, status.Config{
		PollMs:      cfg.Poll.Milliseconds(),
		DebounceMs:  cfg.Debounce.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Broker:      cfg.Broker,
		HTTPAddr:    cfg.HTTP,
		Location:    loc.String(),
		RestartAt:   restart.String(),
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Warn("failed to publish startup event", zap.Error(err))
	} else {
		log.Info("published startup event")
	}

	log.Info("started",
		zap.Duration("poll", cfg.Poll),
		zap.Duration("debounce", cfg.Debounce),
		zap.String("broker", cfg.Broker),
		zap.Duration("heartbeat", cfg.Heartbeat),
		zap.Int("slots", len(cfg.Slots)),
		zap.Stringer("restart_at", restart),
	)

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	l := &loop{
		reader:     gpioReader,
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
		engine:     engine,
		clock:      clk,
		restart:    restart,
		heartbeat:  cfg.Heartbeat,
		now:        time.Now,
		log:        log,
	}
	l.restart.Arm(startTime.In(loc))

	g, ctx := errgroup.WithContext(context.Background())
	ctx, cancel := context.WithCancel(ctx)
	g.Go(func() error {
		defer cancel()
		return l.run(ticker.C, sigCh)
	})

	// Start HTTP status server
	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, tracker, log)
		g.Go(func() error {
			log.Info("http status server listening", zap.String("addr", cfg.HTTP))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				// The status page is optional; keep scheduling without it.
				log.Error("http server error", zap.Error(err))
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}
	return g.Wait()
}
