package framework

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type regexFilterTestParams struct {
	run         []string
	skip        []string
	testID      []string
	shouldMatch bool
}

func TestRegexFilters(t *testing.T) {
	allParams := []regexFilterTestParams{
		// matches everything by default
		{nil, nil, []string{"CoAP Client"}, true},

		// -run
		{[]string{"CoAP"}, nil, []string{"CoAP Client"}, true},
		{[]string{"CoAP"}, nil, []string{"EDHOC Client"}, false},
		{[]string{"^Client"}, nil, []string{"CoAP Client"}, false},
		{[]string{"CoAP", "EDHOC"}, nil, []string{"EDHOC Client"}, true},
		{[]string{"CoAP", "EDHOC"}, nil, []string{"Group OSCORE Client"}, false},

		// -skip
		{nil, []string{"OSCORE"}, []string{"Group OSCORE Client"}, false},
		{nil, []string{"OSCORE"}, []string{"CoAP Client"}, true},

		// -skip overrides -run
		{[]string{"Client"}, []string{"CoAP"}, []string{"CoAP Client"}, false},
		{[]string{"Client"}, []string{"CoAP"}, []string{"EDHOC Client"}, true},
	}
	for _, params := range allParams {
		var r RegexFilters
		for _, s := range params.run {
			require.NoError(t, r.MustMatch.Set(s))
		}
		for _, s := range params.skip {
			require.NoError(t, r.MustNotMatch.Set(s))
		}
		id := TestID{Path: params.testID}
		t.Run(fmt.Sprintf("run=%s, skip=%s, id=%s", r.MustMatch, r.MustNotMatch, id), func(t *testing.T) {
			assert.Equal(t, params.shouldMatch, r.AsFilter(id))
		})
	}
}

func TestRegexListRejectsInvalidPattern(t *testing.T) {
	var r RegexList
	err := r.Set("(")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "invalid regex"))
	assert.False(t, r.IsDefined())
}

func TestPrintFilterDescription(t *testing.T) {
	t.Run("no filters", func(t *testing.T) {
		var buf bytes.Buffer
		PrintFilterDescription(&buf, RegexFilters{})
		assert.Equal(t, "", buf.String())
	})

	t.Run("run and skip", func(t *testing.T) {
		var r RegexFilters
		require.NoError(t, r.MustMatch.Set("a"))
		require.NoError(t, r.MustMatch.Set("b"))
		require.NoError(t, r.MustNotMatch.Set("c"))
		var buf bytes.Buffer
		PrintFilterDescription(&buf, r)
		assert.Contains(t, buf.String(), `skip any not matching "a" or "b"`)
		assert.Contains(t, buf.String(), `skip any matching "c"`)
	})
}
