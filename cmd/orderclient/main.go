package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"orderclient/config"
	"orderclient/events"
	"orderclient/logging"
	"orderclient/ordering"
	"orderclient/probe"
	"orderclient/transport"
	"orderclient/tui"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Parse command-line flags
	flag.StringVar(&cfg.TargetAddress, "target", cfg.TargetAddress, "Plotting service host:port")
	flag.StringVar(&cfg.Events.Backend, "events", cfg.Events.Backend, "Order event backend: none, kafka or amqp")
	flag.StringVar(&cfg.Logging.File, "log-file", cfg.Logging.File, "Log file (the terminal belongs to the UI)")
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if cfg.Logging.File == "" {
		cfg.Logging.File = "orderclient.log"
	}
	logger, closeLog, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := transport.NewClient(transport.WithClientLogger(logger))
	session := ordering.NewSession(ordering.NewForm(), client,
		ordering.WithLogger(logger),
		ordering.WithTargetAddress(cfg.TargetAddress),
	)
	tester := probe.NewTester(client, cfg.TargetAddress, logger)

	publisher, err := events.NewPublisher(cfg.Events)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect events backend: %v\n", err)
		os.Exit(1)
	}
	relayDone := make(chan struct{})
	if publisher != nil {
		defer publisher.Close()
		relay := events.NewRelay(session, publisher, cfg.Events.QueueSize, logger)
		go func() {
			defer close(relayDone)
			_ = relay.Run(ctx)
		}()
	} else {
		close(relayDone)
	}

	// Create the tea program
	m := tui.NewModel(ctx, session, tester)
	program := tea.NewProgram(m, tea.WithAltScreen())

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		session.Cancel()
		program.Quit()
	}()

	// Run the program
	if _, err := program.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}

	session.Cancel()
	cancel()
	<-relayDone
	logger.Info("order client exited")
}
