package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"orderclient/config"
	"orderclient/logging"
	"orderclient/plotter"
	"orderclient/transport"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Command-line flags override the environment
	flag.StringVar(&cfg.PlotterPort, "port", cfg.PlotterPort, "gRPC port")
	flag.DurationVar(&cfg.Plotter.StepDelay, "step-delay", cfg.Plotter.StepDelay, "Delay between line steps")
	flag.IntVar(&cfg.Plotter.Paper, "paper", cfg.Plotter.Paper, "Sheets on the input stack")
	flag.IntVar(&cfg.Plotter.MaxPathUses, "max-path-uses", cfg.Plotter.MaxPathUses, "Traversals allowed per link and order (0 = unlimited)")
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

	line := plotter.NewDefaultLine(plotter.LineConfig{
		Paper:       cfg.Plotter.Paper,
		MaxPathUses: cfg.Plotter.MaxPathUses,
		StepDelay:   cfg.Plotter.StepDelay,
	}, logger)

	lis, err := net.Listen("tcp", ":"+cfg.PlotterPort)
	if err != nil {
		logger.WithError(err).Fatal("failed to listen")
	}

	srv := grpc.NewServer()
	transport.RegisterOrderService(srv, plotter.NewService(line, logger))

	fmt.Printf("🖨  Plotting Service\n")
	fmt.Printf("   gRPC:        0.0.0.0:%s (%s)\n", cfg.PlotterPort, transport.ServiceName)
	fmt.Printf("   Paper:       %d sheets\n", cfg.Plotter.Paper)
	fmt.Printf("   Step delay:  %s\n", cfg.Plotter.StepDelay)
	fmt.Println("\nPress Ctrl+C to shutdown")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(lis)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down plotting service")
		srv.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("plotting service stopped")
		os.Exit(1)
	}

	stats := line.Stats()
	logger.WithFields(logrus.Fields{
		"orders":   stats.OrdersRun,
		"failed":   stats.OrdersFail,
		"finished": stats.Finished,
	}).Info("plotting service stopped")
}
