package framework

import (
	"encoding/xml"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJUnitTestLoggerWritesReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xml")
	j := NewJUnitTestLogger(path, "DHT contract tests", map[string]string{
		"tests.run.id":  "abc",
		"tests.hub.url": "ws://localhost:3000/ws",
	})
	j.out = io.Discard

	results, err := Run(nil, j, func(c *Context) {
		c.Run("Group OSCORE Client", func(c *Context) {
			c.Debug("got a response")
		})
		c.Run("CoAP Client", func(c *Context) {
			c.Errorf("did not match")
		})
		c.Run("EDHOC Client", func(c *Context) {
			c.TimedOut("no response")
		})
		c.Run("Extra", func(c *Context) {
			c.SkipWithReason("not today")
		})
	})
	require.NoError(t, err)
	require.NoError(t, j.EndLog(results))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc jUnitXMLDocument
	require.NoError(t, xml.Unmarshal(data, &doc))
	require.Len(t, doc.Suites, 1)
	suite := doc.Suites[0]

	assert.Equal(t, "DHT contract tests", suite.Name)
	assert.Equal(t, 4, suite.Tests)
	assert.Equal(t, 2, suite.Failures)
	assert.Equal(t, 1, suite.Skipped)
	assert.Equal(t, []jUnitXMLProperty{
		{Name: "tests.hub.url", Value: "ws://localhost:3000/ws"},
		{Name: "tests.run.id", Value: "abc"},
	}, suite.Properties)

	require.Len(t, suite.TestCases, 4)
	assert.Equal(t, "Group OSCORE Client", suite.TestCases[0].Name)
	assert.Nil(t, suite.TestCases[0].Failure)

	require.NotNil(t, suite.TestCases[1].Failure)
	assert.Equal(t, "mismatch", suite.TestCases[1].Failure.Type)
	assert.Equal(t, "did not match", suite.TestCases[1].Failure.Message)

	require.NotNil(t, suite.TestCases[2].Failure)
	assert.Equal(t, "timeout", suite.TestCases[2].Failure.Type)

	require.NotNil(t, suite.TestCases[3].SkipMessage)
	assert.Equal(t, "not today", suite.TestCases[3].SkipMessage.Message)
}

func TestJUnitTestLoggerReportsWriteError(t *testing.T) {
	j := NewJUnitTestLogger(filepath.Join(t.TempDir(), "missing-dir", "report.xml"), "suite", nil)
	j.out = io.Discard
	err := j.EndLog(Results{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
