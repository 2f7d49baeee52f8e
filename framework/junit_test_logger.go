package framework

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// JUnitTestLogger accumulates test status and writes it as a JUnit XML report in EndLog.
type JUnitTestLogger struct {
	filePath   string
	suiteName  string
	properties map[string]string
	out        io.Writer
	testIDs    []TestID // preserves the order that the tests were run in
	tests      map[string]jUnitTestStatus
	lock       sync.Mutex
}

type jUnitTestStatus struct {
	failures  []error
	skipped   bool
	skipMsg   string
	timedOut  bool
	output    string
	startTime time.Time
	duration  time.Duration
}

// Struct definitions for the JUnit XML schema - see https://github.com/jstemmer/go-junit-report

type jUnitXMLDocument struct {
	XMLName xml.Name            `xml:"testsuites"`
	Suites  []jUnitXMLTestSuite `xml:"testsuite"`
}

type jUnitXMLTestSuite struct {
	XMLName    xml.Name           `xml:"testsuite"`
	Tests      int                `xml:"tests,attr"`
	Failures   int                `xml:"failures,attr"`
	Skipped    int                `xml:"skipped,attr"`
	Time       string             `xml:"time,attr"`
	Name       string             `xml:"name,attr"`
	Properties []jUnitXMLProperty `xml:"properties>property,omitempty"`
	TestCases  []jUnitXMLTestCase `xml:"testcase"`
}

type jUnitXMLTestCase struct {
	XMLName     xml.Name             `xml:"testcase"`
	Classname   string               `xml:"classname,attr"`
	Name        string               `xml:"name,attr"`
	Time        string               `xml:"time,attr"`
	SkipMessage *jUnitXMLSkipMessage `xml:"skipped,omitempty"`
	Failure     *jUnitXMLFailure     `xml:"failure,omitempty"`
}

type jUnitXMLSkipMessage struct {
	Message string `xml:"message,attr"`
}

type jUnitXMLProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type jUnitXMLFailure struct {
	Message  string `xml:"message,attr"`
	Type     string `xml:"type,attr"`
	Contents string `xml:",chardata"`
}

// NewJUnitTestLogger creates a logger that will write to filePath. The properties are copied
// into the report's testsuite element.
func NewJUnitTestLogger(filePath, suiteName string, properties map[string]string) *JUnitTestLogger {
	return &JUnitTestLogger{
		filePath:   filePath,
		suiteName:  suiteName,
		properties: properties,
		out:        os.Stdout,
		tests:      make(map[string]jUnitTestStatus),
	}
}

func (j *JUnitTestLogger) TestStarted(id TestID) {
	j.lock.Lock()
	defer j.lock.Unlock()
	j.testIDs = append(j.testIDs, id)
	j.tests[id.String()] = jUnitTestStatus{
		startTime: time.Now(),
	}
}

func (j *JUnitTestLogger) TestError(id TestID, err error) {
	j.lock.Lock()
	defer j.lock.Unlock()
	status := j.tests[id.String()]
	status.failures = append(status.failures, err)
	j.tests[id.String()] = status
}

func (j *JUnitTestLogger) TestFinished(id TestID, result TestResult, debugOutput CapturedOutput) {
	j.lock.Lock()
	defer j.lock.Unlock()
	status := j.tests[id.String()]
	status.output = debugOutput.ToString("")
	status.duration = time.Since(status.startTime)
	status.timedOut = result.Outcome == OutcomeTimedOut
	j.tests[id.String()] = status
}

func (j *JUnitTestLogger) TestSkipped(id TestID, reason string) {
	j.lock.Lock()
	defer j.lock.Unlock()
	status := j.tests[id.String()]
	status.skipped = true
	status.skipMsg = reason
	j.tests[id.String()] = status
}

func (j *JUnitTestLogger) EndLog(results Results) error {
	j.lock.Lock()
	defer j.lock.Unlock()

	fmt.Fprintf(j.out, "Writing JUnit data to %s\n", j.filePath)

	suite := jUnitXMLTestSuite{Name: j.suiteName}
	for _, name := range sortedKeys(j.properties) {
		suite.Properties = append(suite.Properties, jUnitXMLProperty{Name: name, Value: j.properties[name]})
	}

	totalDuration := time.Duration(0)
	for _, testID := range j.testIDs {
		status := j.tests[testID.String()]

		suite.Tests++
		totalDuration += status.duration

		testCase := jUnitXMLTestCase{
			Classname: j.suiteName,
			Name:      testID.String(),
			Time:      jUnitDurationString(status.duration),
		}
		if status.skipped {
			suite.Skipped++
			testCase.SkipMessage = &jUnitXMLSkipMessage{Message: status.skipMsg}
		}
		if len(status.failures) != 0 {
			suite.Failures++
			var messages []string
			for _, e := range status.failures {
				messages = append(messages, e.Error())
			}
			failureType := "mismatch"
			if status.timedOut {
				failureType = "timeout"
			}
			testCase.Failure = &jUnitXMLFailure{
				Message:  strings.Join(messages, "\n"),
				Type:     failureType,
				Contents: status.output,
			}
		}
		suite.TestCases = append(suite.TestCases, testCase)
	}
	suite.Time = jUnitDurationString(totalDuration)

	doc := jUnitXMLDocument{Suites: []jUnitXMLTestSuite{suite}}
	bytes, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	bytes = append(bytes, '\n')

	return os.WriteFile(j.filePath, bytes, 0644) //nolint:gosec
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func jUnitDurationString(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
