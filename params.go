package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/alessio/shellescape"

	"github.com/wp3-solutions/dht-contract-tests/dhttests"
	"github.com/wp3-solutions/dht-contract-tests/framework"
)

const defaultHubURL = "ws://localhost:3000/ws"

type commandParams struct {
	programName string
	hubURL      string
	suiteFile   string
	timeout     time.Duration
	timeoutSet  bool
	filters     framework.RegexFilters
	debug       bool
	debugAll    bool
	noColor     bool
	jUnitFile   string
}

// Read parses the command line. It returns flag.ErrHelp if help was requested.
func (c *commandParams) Read(args []string, errOut io.Writer) error {
	c.programName = args[0]
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&c.hubURL, "url", defaultHubURL, "WebSocket URL of the DHT hub")
	fs.StringVar(&c.suiteFile, "suite", "", "YAML file of test cases to run instead of the built-in suite")
	fs.DurationVar(&c.timeout, "timeout", dhttests.DefaultWindow, "how long each test waits for its response")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.BoolVar(&c.debug, "debug", false, "show failure details and debug output for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")
	fs.BoolVar(&c.noColor, "no-color", false, "disable colored output")
	fs.StringVar(&c.jUnitFile, "junit", "", "write JUnit XML output to the specified path")

	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "timeout" {
			c.timeoutSet = true
		}
	})
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if c.hubURL == "" {
		return errors.New("-url must not be empty")
	}
	if c.timeout <= 0 {
		return errors.New("-timeout must be positive")
	}
	return nil
}

// rerunCommand builds a command line that repeats this run for the given tests only.
func (c *commandParams) rerunCommand(tests []framework.TestResult) string {
	var b commandBuilder
	b.add(c.programName, "-url", c.hubURL)
	if c.suiteFile != "" {
		b.add("-suite", c.suiteFile)
	}
	if c.timeoutSet {
		b.add("-timeout", c.timeout.String())
	}
	for _, t := range tests {
		b.add("-run", "^"+regexp.QuoteMeta(t.TestID.String())+"$")
	}
	return b.String()
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
