// Package config resolves the environment-driven configuration described
// in the environment.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultPort = 47778
	dataDirName = ".oracle-v2"
)

var defaultVectorCommand = []string{"chroma-bridge"}

// Config holds every recognized environment option, resolved once at
// process startup and threaded through to every component.
type Config struct {
	Port          int
	DataDir       string
	DBPath        string
	RepoRoot      string
	VectorCommand []string
}

// Load resolves Config from the environment, applying the defaults
// for it.
func Load() Config {
	home := homeDir()

	dataDir := getenv("ORACLE_DATA_DIR", filepath.Join(home, dataDirName))

	dbPath := getenv("ORACLE_DB_PATH", filepath.Join(dataDir, "oracle.db"))

	repoRoot := os.Getenv("ORACLE_REPO_ROOT")
	if repoRoot == "" {
		repoRoot = findRepoRoot(dataDir)
	}

	return Config{
		Port:          getenvInt("ORACLE_PORT", defaultPort),
		DataDir:       dataDir,
		DBPath:        dbPath,
		RepoRoot:      repoRoot,
		VectorCommand: getenvList("ORACLE_VECTOR_COMMAND", defaultVectorCommand),
	}
}

// KnowledgeDir returns the ORACLE_REPO_ROOT/ψ/memory directory that holds
// the three corpus subtrees.
func (c Config) KnowledgeDir() string {
	return filepath.Join(c.RepoRoot, "ψ", "memory")
}

// LearningsDir returns the directory Learn (C7) writes new pattern files
// into.
func (c Config) LearningsDir() string {
	return filepath.Join(c.KnowledgeDir(), "learnings")
}

// PIDFile returns the path of the HTTP server's PID file.
func (c Config) PIDFile() string {
	return filepath.Join(c.DataDir, "oracle-http.pid")
}

// LockFile returns the path of the HTTP server's instance lock.
func (c Config) LockFile() string {
	return filepath.Join(c.DataDir, "oracle-http.lock")
}

func homeDir() string {
	if h := os.Getenv("HOME"); h != "" {
		return h
	}
	if h := os.Getenv("USERPROFILE"); h != "" {
		return h
	}
	return "."
}

// findRepoRoot walks up from the working directory until a ψ/ directory is
// found; falls back to dataDir otherwise.
func findRepoRoot(dataDir string) string {
	dir, err := os.Getwd()
	if err != nil {
		return dataDir
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, "ψ")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dataDir
		}
		dir = parent
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getenvList splits a space-separated command line, e.g.
// ORACLE_VECTOR_COMMAND="python3 chroma_bridge.py".
func getenvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return strings.Fields(v)
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n := 0
	for _, r := range v {
		if r < '0' || r > '9' {
			return def
		}
		n = n*10 + int(r-'0')
	}
	return n
}
