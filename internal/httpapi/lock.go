// Package httpapi implements C13: the HTTP/JSON API mirroring the tool
// set, plus the single-instance PID/lock lifecycle.
package httpapi

import (
	"encoding/json"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/oracle-mind/oracle/internal/apperr"
)

const lockStaleAfter = 30 * time.Second

// lockPayload is the contents of the lock file: just enough to check
// staleness and report the owning PID.
type lockPayload struct {
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"startedAt"`
}

// PIDInfo is the contents of the PID file.
type PIDInfo struct {
	PID       int       `json:"pid"`
	Port      int       `json:"port"`
	StartedAt time.Time `json:"startedAt"`
	Name      string    `json:"name"`
}

// instanceLock owns the exclusive-create lock file for the process
// lifetime.
type instanceLock struct {
	path string
}

// acquireLock exclusive-creates the lock file; if
// it already exists and is younger than 30s, another live instance owns
// it and acquisition fails. An older file is considered stale and is
// replaced.
func acquireLock(path string) (*instanceLock, error) {
	if stale, err := lockIsStale(path); err != nil {
		return nil, err
	} else if !stale {
		if _, err := os.Stat(path); err == nil {
			return nil, apperr.Conflict("another oracle server instance is already running")
		}
	} else {
		os.Remove(path)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, apperr.Conflict("another oracle server instance is already running")
		}
		return nil, fmt.Errorf("creating lock file: %w", err)
	}
	defer f.Close()

	payload := lockPayload{PID: os.Getpid(), StartedAt: time.Now()}
	if err := json.NewEncoder(f).Encode(payload); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing lock file: %w", err)
	}

	return &instanceLock{path: path}, nil
}

func lockIsStale(path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if time.Since(info.ModTime()) > lockStaleAfter {
		return true, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, nil
	}
	var payload lockPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return false, nil
	}
	return !processAlive(payload.PID), nil
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// release removes the lock file.
func (l *instanceLock) release() error {
	return os.Remove(l.path)
}

// writePIDFile writes the PID file a running instance is identified by.
func writePIDFile(path string, info PIDInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
