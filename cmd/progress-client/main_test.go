package main

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	progress "lipidlibrarian/internal/sync"
)

func eventLine(t *testing.T, e progress.QueryEvent) string {
	t.Helper()
	b, err := json.Marshal(e)
	require.NoError(t, err)
	return string(b)
}

func TestDescribe(t *testing.T) {
	at := time.Date(2026, 10, 16, 9, 30, 5, 0, time.UTC)
	line := eventLine(t, progress.QueryEvent{
		Type: progress.EventPhaseCompleted, QueryID: "0f8fad5b-d9cb-469f-a165-70867728950e",
		Input: "PC 34:1", Method: "name", Phase: "primary", Source: "alex123", Count: 3, At: at,
	})
	assert.Equal(t,
		`09:30:05 phase.completed    0f8fad5b "PC 34:1" method=name phase=primary source=alex123 count=3`,
		describe([]byte(line)))

	line = eventLine(t, progress.QueryEvent{
		Type: progress.EventQueryFailed, QueryID: "abc", Input: "???", Error: "query detection failed", At: at,
	})
	assert.Equal(t, `09:30:05 query.failed       abc "???" error="query detection failed"`, describe([]byte(line)))
}

func TestDescribePassesOtherMessages(t *testing.T) {
	welcome := `{"type":"welcome","message":"connected","clients":1}`
	assert.Equal(t, welcome, describe([]byte(welcome)))
	assert.Equal(t, "not json", describe([]byte("not json")))
}

func TestFollow(t *testing.T) {
	in := strings.NewReader(`{"type":"welcome"}` + "\n" + `{"type":"query.started","query_id":"q1","input":"PE 36:2"}` + "\n")

	var out bytes.Buffer
	err := follow(in, true, &out)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, strings.Count(out.String(), "\n"))
	assert.Contains(t, out.String(), `"query_id":"q1"`)
}
