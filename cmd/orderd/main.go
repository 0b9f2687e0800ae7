package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orderclient/api"
	"orderclient/config"
	"orderclient/events"
	"orderclient/logging"
	"orderclient/ordering"
	"orderclient/probe"
	"orderclient/transport"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Command-line flags override the environment
	flag.StringVar(&cfg.HTTPPort, "port", cfg.HTTPPort, "HTTP API port")
	flag.StringVar(&cfg.TargetAddress, "target", cfg.TargetAddress, "Plotting service host:port")
	flag.StringVar(&cfg.ProbeSchedule, "probe-cron", cfg.ProbeSchedule, "Cron schedule for connection tests (empty disables)")
	flag.StringVar(&cfg.Events.Backend, "events", cfg.Events.Backend, "Order event backend: none, kafka or amqp")
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := transport.NewClient(transport.WithClientLogger(logger))
	session := ordering.NewSession(ordering.NewForm(), client,
		ordering.WithLogger(logger),
		ordering.WithTargetAddress(cfg.TargetAddress),
	)
	tester := probe.NewTester(client, cfg.TargetAddress, logger)
	followTarget(session, tester, logger)

	g, ctx := errgroup.WithContext(ctx)

	// Order events
	publisher, err := events.NewPublisher(cfg.Events)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect events backend")
	}
	// the relay outlives the group context so events raised while draining
	// the last order are still published
	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()
	if publisher != nil {
		defer publisher.Close()
		relay := events.NewRelay(session, publisher, cfg.Events.QueueSize, logger)
		g.Go(func() error { return relay.Run(relayCtx) })
	}

	// Scheduled connection tests
	var scheduler *probe.Scheduler
	if cfg.ProbeSchedule != "" {
		scheduler = probe.NewScheduler(tester, cfg.ProbeTimeout, logger, nil)
		if err := scheduler.Start(cfg.ProbeSchedule); err != nil {
			logger.WithError(err).Fatal("failed to start connection test schedule")
		}
	}

	// HTTP API
	apiServer := api.NewServer(ctx, session, tester, logger)
	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           apiServer.NewRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down order service")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if scheduler != nil {
			<-scheduler.Stop().Done()
		}
		drainOrders(shutdownCtx, apiServer, stopRelay, logger)
		return httpServer.Shutdown(shutdownCtx)
	})

	fmt.Printf("🧾 Order Service\n")
	fmt.Printf("   API:            http://0.0.0.0:%s\n", cfg.HTTPPort)
	fmt.Printf("   Plotter:        %s\n", cfg.TargetAddress)
	fmt.Printf("   Events:         %s\n", cfg.Events.Backend)
	if cfg.ProbeSchedule != "" {
		fmt.Printf("   Probe schedule: %s\n", cfg.ProbeSchedule)
	}
	fmt.Println("\nPress Ctrl+C to shutdown")

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("order service stopped with error")
		os.Exit(1)
	}
	logger.Info("order service stopped")
}

// followTarget keeps the connection test pointed at the session's target
// drainOrders cancels the in-flight order, waits for it to finish, and only
// then stops the event relay
func drainOrders(ctx context.Context, apiServer *api.Server, stopRelay context.CancelFunc, logger logrus.FieldLogger) {
	if err := apiServer.Drain(ctx); err != nil {
		logger.WithError(err).Warn("order did not finish before shutdown")
	}
	stopRelay()
}

func followTarget(session *ordering.Session, tester *probe.Tester, logger logrus.FieldLogger) {
	session.Subscribe(func(property string) {
		if property != ordering.PropTargetAddress {
			return
		}
		if !tester.SetTarget(session.TargetAddress()) {
			logger.WithField("target", session.TargetAddress()).Warn("connection test running, target not updated")
		}
	})
}
