package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oracle-mind/oracle/internal/applog"
	"github.com/oracle-mind/oracle/internal/config"
)

var logger = applog.Named("httpapi")

const shutdownGrace = 5 * time.Second

const serverName = "oracle-http"

// Server ties the instance lock, PID file, and chi router together and
// implements the startup/shutdown sequence.
type Server struct {
	cfg     config.Config
	http    *http.Server
	lock    *instanceLock
	pidPath string
}

// NewServer wires the router and prepares (but does not start) the
// listener.
func NewServer(cfg config.Config, components Components) *Server {
	return &Server{
		cfg: cfg,
		http: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Port),
			Handler: NewRouter(components),
		},
		pidPath: cfg.PIDFile(),
	}
}

// Run resets stale indexing, acquires the
// instance lock, write the PID file, serve until a signal arrives, then
// shut down cooperatively. Step 1 (logging table init) already happened
// as part of store.Open's migration.
func (s *Server) Run(ctx context.Context, resetStaleIndexing func() error) error {
	if err := resetStaleIndexing(); err != nil {
		return fmt.Errorf("resetting stale indexing: %w", err)
	}

	lock, err := acquireLock(s.cfg.LockFile())
	if err != nil {
		return err
	}
	s.lock = lock
	defer s.lock.release()

	listener, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.http.Addr, err)
	}
	actualPort := listener.Addr().(*net.TCPAddr).Port

	if err := writePIDFile(s.pidPath, PIDInfo{
		PID: os.Getpid(), Port: actualPort, StartedAt: time.Now(), Name: serverName,
	}); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer os.Remove(s.pidPath)

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("oracle http server listening", "port", actualPort)
		serveErr <- s.http.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-sigCtx.Done():
		logger.Info("shutting down", "grace", shutdownGrace)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
