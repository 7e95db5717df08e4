package dryrun

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithDryRun(t *testing.T) {
	assert.False(t, IsEnabled(context.Background()))
	assert.True(t, IsEnabled(WithDryRun(context.Background(), true)))
	assert.False(t, IsEnabled(WithDryRun(context.Background(), false)))
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Preview{
		{Item: 0, Query: "a@example.com", Type: "email", Timeout: 10},
		{Item: 1, Query: "b@example.com", Type: "email", Timeout: 10, Cached: true},
		{Item: 2, Query: "nope", Type: "phone", Error: "invalid phone number"},
	})
	assert.Equal(t, Summary{Items: 3, Cached: 1, Invalid: 1}, s)
	assert.Equal(t, 1, s.Requests())
}

func TestSummary_Write(t *testing.T) {
	var buf bytes.Buffer
	Summary{Items: 3, Cached: 1, Invalid: 1}.Write(&buf)

	out := buf.String()
	assert.Contains(t, out, "[DRY-RUN] Would send 1 search request(s) for 3 identifier(s)")
	assert.Contains(t, out, "1 answered from cache")
	assert.Contains(t, out, "! 1 rejected before sending")
	assert.Contains(t, out, "No credits spent")

	buf.Reset()
	Summary{Items: 2}.Write(&buf)
	assert.NotContains(t, buf.String(), "cache")
	assert.NotContains(t, buf.String(), "rejected")
}
