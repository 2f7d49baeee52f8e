package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/wp3-solutions/dht-contract-tests/dhttests"
	"github.com/wp3-solutions/dht-contract-tests/framework"
	"github.com/wp3-solutions/dht-contract-tests/hub"
)

// Exit codes 1 through len(cases) mean that the test with index code-1 was the first to fail.
// The reserved codes below can collide with those when a suite has four or more cases.
const (
	exitConnectFailure  = 4
	exitUnexpectedError = 5
	exitInterrupted     = 130 // 128 + SIGINT, as a shell reports an interrupted process
)

func main() {
	var params commandParams
	if err := params.Read(os.Args, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Invalid parameters: %s\n", err)
		os.Exit(exitUnexpectedError)
	}
	if params.noColor {
		color.NoColor = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, params, os.Stdout)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, params commandParams, out io.Writer) int {
	cases, window, err := loadTestCases(params)
	if err != nil {
		return reportFatalError(out, err)
	}

	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		mainDebugLogger = log.New(out, "", log.LstdFlags)
	}

	conn, err := hub.Dial(ctx, params.hubURL, mainDebugLogger)
	if err != nil {
		return reportFatalError(out, err)
	}
	defer func() { _ = conn.Close() }()

	runID := uuid.New().String()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Will perform tests for the WP3 solutions applications.")
	fmt.Fprintln(out, "Sends commands to the DHT and confirms reception of correct message back.")
	fmt.Fprintf(out, "Hub: %s (run %s)\n", conn.URL(), runID)
	fmt.Fprintln(out)
	framework.PrintFilterDescription(out, params.filters)

	var testLogger framework.TestLogger
	consoleLogger := ConsoleTestLogger{
		Out:                  out,
		ShowErrors:           params.debug || params.debugAll,
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}
	if params.jUnitFile == "" {
		testLogger = consoleLogger
	} else {
		testLogger = &framework.MultiTestLogger{Loggers: []framework.TestLogger{
			consoleLogger,
			framework.NewJUnitTestLogger(params.jUnitFile, "DHT contract tests", map[string]string{
				"tests.hub.url":    params.hubURL,
				"tests.run.id":     runID,
				"tests.timeout":    window.String(),
				"tests.suite.file": params.suiteFile,
			}),
		}}
	}

	results, err := dhttests.RunTestSuite(ctx, conn, dhttests.SuiteConfig{
		Cases:       cases,
		Window:      window,
		Filter:      params.filters.AsFilter,
		TestLogger:  testLogger,
		DebugLogger: mainDebugLogger,
	})
	if err != nil {
		return reportFatalError(out, err)
	}

	if err := testLogger.EndLog(results); err != nil {
		return reportFatalError(out, fmt.Errorf("error writing log: %w", err))
	}
	if !results.OK() {
		fmt.Fprintf(out, "\nTo re-run the failed tests:\n  %s\n", params.rerunCommand(results.Failures))
	}
	return results.ExitCode()
}

// loadTestCases returns the cases to run and the window to use. An explicit -timeout wins
// over the suite file's timeout, which wins over the default.
func loadTestCases(params commandParams) ([]dhttests.TestCase, time.Duration, error) {
	if params.suiteFile == "" {
		return dhttests.DefaultTestCases(), params.timeout, nil
	}
	suite, err := dhttests.LoadSuite(params.suiteFile)
	if err != nil {
		return nil, 0, err
	}
	window := params.timeout
	if !params.timeoutSet && suite.Window > 0 {
		window = suite.Window
	}
	return suite.Cases, window, nil
}

func reportFatalError(out io.Writer, err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(out, "^C")
		return exitInterrupted
	case hub.IsConnectionRefused(err):
		_, _ = consoleFailColor.Fprintln(out, "Connection to DHT failed")
		return exitConnectFailure
	default:
		fmt.Fprintf(out, "An unexpected error occurred: %s\n", err)
		return exitUnexpectedError
	}
}
