package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

var (
	serverURL   = flag.String("server", "ws://localhost:8080", "Voice assistant base URL")
	sessionID   = flag.String("session", "", "Session ID (a new one is assigned when empty)")
	scriptFile  = flag.String("script", "", "File with one transcript per line")
	say         = flag.String("say", "", "Send a single transcript and exit")
	pause       = flag.Duration("pause", 0, "Delay between scripted transcripts")
	timeout     = flag.Duration("timeout", 10*time.Second, "Reply timeout")
	updates     = flag.Bool("updates", false, "Print events from /ws/updates")
	interactive = flag.Bool("interactive", false, "Enable interactive mode")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	// Setup logger
	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	simulator := NewSimulator(&SimulatorConfig{
		ServerURL:    *serverURL,
		SessionID:    *sessionID,
		ReplyTimeout: *timeout,
		Updates:      *updates,
	}, os.Stdout, logger)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down simulator...")
		simulator.Stop()
		os.Exit(0)
	}()

	if err := simulator.Connect(); err != nil {
		logger.Fatal("Failed to connect to server", zap.Error(err))
	}
	defer simulator.Stop()

	switch {
	case *say != "":
		if err := simulator.RunScript([]string{*say}, 0); err != nil {
			logger.Fatal("Transcript failed", zap.Error(err))
		}
	case *scriptFile != "":
		lines, err := readLines(*scriptFile)
		if err != nil {
			logger.Fatal("Failed to read script", zap.Error(err))
		}
		if err := simulator.RunScript(lines, *pause); err != nil {
			logger.Fatal("Script failed", zap.Error(err))
		}
	case *interactive:
		runInteractiveMode(simulator)
	default:
		fmt.Println("Nothing to do: pass -say, -script or -interactive")
	}
}

func runInteractiveMode(sim *Simulator) {
	fmt.Println("\nVoice Assistant Simulator - Interactive Mode")
	fmt.Println("============================================")
	fmt.Println("Type a transcript and press enter, or:")
	fmt.Println("  /listen   - Start listening")
	fmt.Println("  /halt     - Stop listening")
	fmt.Println("  /quit     - Exit simulator")
	fmt.Println("")

	sim.RunInteractive(os.Stdin)
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
