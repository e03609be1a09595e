package httpapi

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oracle-mind/oracle/internal/apperr"
)

func TestAcquireLock_SecondAcquireOnLiveLockIsConflict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oracle.lock")

	first, err := acquireLock(path)
	require.NoError(t, err)
	t.Cleanup(func() { first.release() })

	_, err = acquireLock(path)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestAcquireLock_ReleaseRemovesLockFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oracle.lock")

	lock, err := acquireLock(path)
	require.NoError(t, err)
	require.NoError(t, lock.release())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestAcquireLock_OldLockPastStaleWindowIsReplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oracle.lock")

	payload := lockPayload{PID: os.Getpid(), StartedAt: time.Now().Add(-time.Hour)}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	old := time.Now().Add(-lockStaleAfter - time.Minute)
	require.NoError(t, os.Chtimes(path, old, old))

	lock, err := acquireLock(path)
	require.NoError(t, err)
	t.Cleanup(func() { lock.release() })
}

func TestAcquireLock_FreshLockWithDeadProcessIsReplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oracle.lock")

	// PID unlikely to be alive, but the file's mtime is fresh so only the
	// liveness check (not the staleness window) decides this.
	payload := lockPayload{PID: 999999, StartedAt: time.Now()}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	lock, err := acquireLock(path)
	require.NoError(t, err)
	t.Cleanup(func() { lock.release() })
}

func TestProcessAlive_CurrentProcessIsAlive(t *testing.T) {
	assert.True(t, processAlive(os.Getpid()))
}

func TestProcessAlive_NonPositivePIDIsNotAlive(t *testing.T) {
	assert.False(t, processAlive(0))
	assert.False(t, processAlive(-1))
}

func TestWritePIDFile_RoundTripsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oracle.pid")
	info := PIDInfo{PID: 1234, Port: 9090, StartedAt: time.Now().Truncate(time.Second), Name: "oracle-http"}

	require.NoError(t, writePIDFile(path, info))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got PIDInfo
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, info.PID, got.PID)
	assert.Equal(t, info.Port, got.Port)
	assert.Equal(t, info.Name, got.Name)
}
