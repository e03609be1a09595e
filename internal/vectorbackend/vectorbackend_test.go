package vectorbackend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oracle-mind/oracle/internal/apperr"
)

func TestNew_DefaultsTimeoutWhenUnset(t *testing.T) {
	b := New(Config{Command: []string{"cat"}})
	assert.Equal(t, 2*time.Second, b.timeout)
}

func TestNew_KeepsExplicitTimeout(t *testing.T) {
	b := New(Config{Command: []string{"cat"}, Timeout: 5 * time.Second})
	assert.Equal(t, 5*time.Second, b.timeout)
}

func TestEnsureCollection_NoCommandConfiguredIsDegraded(t *testing.T) {
	b := New(Config{})
	err := b.EnsureCollection(context.Background(), "oracle_documents")
	require.Error(t, err)
	assert.Equal(t, apperr.KindDegraded, apperr.KindOf(err))
}

// echoScript starts a loop process that appends every line it receives to
// countFile and echoes it straight back, satisfying call()'s response
// decoding (the request's jsonrpc/id fields round-trip; result/error are
// simply absent).
func echoScript(t *testing.T) (scriptPath, countFile string) {
	t.Helper()
	dir := t.TempDir()
	scriptPath = filepath.Join(dir, "echo.sh")
	countFile = filepath.Join(dir, "calls.log")

	script := "#!/bin/sh\nCOUNTFILE=\"$1\"\nwhile IFS= read -r line; do\n  printf '%s\\n' \"$line\" >> \"$COUNTFILE\"\n  printf '%s\\n' \"$line\"\ndone\n"
	require.NoError(t, os.WriteFile(scriptPath, []byte(script), 0o755))
	require.NoError(t, os.WriteFile(countFile, nil, 0o644))
	return scriptPath, countFile
}

func TestUpsert_BatchesAtOneHundredItems(t *testing.T) {
	script, countFile := echoScript(t)
	b := New(Config{Command: []string{script, countFile}})
	t.Cleanup(func() { b.Close() })

	items := make([]Item, 250)
	for i := range items {
		items[i] = Item{ID: "doc", Text: "content"}
	}

	err := b.Upsert(context.Background(), "oracle_documents", items)
	require.NoError(t, err)

	data, err := os.ReadFile(countFile)
	require.NoError(t, err)
	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	assert.Equal(t, 3, lines, "250 items in batches of 100 makes 3 upsert calls")
}

func TestUpsert_EmptyItemsMakesNoCalls(t *testing.T) {
	script, countFile := echoScript(t)
	b := New(Config{Command: []string{script, countFile}})
	t.Cleanup(func() { b.Close() })

	err := b.Upsert(context.Background(), "oracle_documents", nil)
	require.NoError(t, err)

	data, err := os.ReadFile(countFile)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestQuery_RoundTripsThroughEchoBackend(t *testing.T) {
	script, countFile := echoScript(t)
	b := New(Config{Command: []string{script, countFile}})
	t.Cleanup(func() { b.Close() })

	// The echo backend never populates result fields, so a successful
	// call with a zero-value result is the observable behavior here.
	result, err := b.Query(context.Background(), "oracle_documents", "trust boundaries", 5, nil)
	require.NoError(t, err)
	assert.NotNil(t, result)
}
