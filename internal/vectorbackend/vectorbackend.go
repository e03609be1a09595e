// Package vectorbackend speaks a JSON-RPC-shaped framing to an external
// process that embeds text and answers nearest-neighbor queries.
package vectorbackend

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oracle-mind/oracle/internal/apperr"
	"github.com/oracle-mind/oracle/internal/applog"
)

// Item is one upsert candidate.
type Item struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// QueryResult is the parallel-vector response shape from a query call.
type QueryResult struct {
	IDs        []string         `json:"ids"`
	Documents  []string         `json:"documents"`
	Metadatas  []map[string]any `json:"metadatas"`
	Distances  []float64        `json:"distances"`
}

// Stats is the response shape from a stats call.
type Stats struct {
	Count int `json:"count"`
}

const upsertBatchSize = 100

// request/response envelope, JSON-RPC 2.0 shaped like the tool protocol
// used elsewhere in this codebase.
type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Backend is a client for the external embedding/vector process. It owns
// the child process and serializes calls over its stdio pipe.
type Backend struct {
	log     *applog.Logger
	command []string
	timeout time.Duration

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Scanner
	nextID int64
}

// Config configures how the child process is launched.
type Config struct {
	Command []string
	Timeout time.Duration
}

// New builds a Backend that lazily spawns Command on first use.
func New(cfg Config) *Backend {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Backend{
		log:     applog.Named("vectorbackend"),
		command: cfg.Command,
		timeout: timeout,
	}
}

// Prewarm starts the child process ahead of first use.
func (b *Backend) Prewarm(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ensureStartedLocked()
}

// Close terminates the child process, if running.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cmd == nil || b.cmd.Process == nil {
		return nil
	}
	_ = b.stdin.Close()
	err := b.cmd.Process.Kill()
	b.cmd = nil
	return err
}

func (b *Backend) ensureStartedLocked() error {
	if b.cmd != nil {
		return nil
	}
	if len(b.command) == 0 {
		return apperr.Degraded("vector backend not configured")
	}

	cmd := exec.Command(b.command[0], b.command[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("opening vector backend stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("opening vector backend stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return apperr.Wrap(apperr.KindDegraded, err, "starting vector backend process")
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	b.cmd = cmd
	b.stdin = stdin
	b.stdout = scanner
	b.log.Info("vector backend process started", "command", b.command)
	return nil
}

// call sends one JSON-RPC request and waits, with a timeout, for the next
// response line; the response id is not compared with the request id.
func (b *Backend) call(ctx context.Context, method string, params any, out any) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ensureStartedLocked(); err != nil {
		return err
	}

	id := atomic.AddInt64(&b.nextID, 1)
	req := request{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	line, err := json.Marshal(req)
	if err != nil {
		return err
	}

	type callResult struct {
		resp response
		err  error
	}
	resultCh := make(chan callResult, 1)

	go func() {
		if _, err := fmt.Fprintf(b.stdin, "%s\n", line); err != nil {
			resultCh <- callResult{err: err}
			return
		}
		if !b.stdout.Scan() {
			resultCh <- callResult{err: fmt.Errorf("vector backend closed stream: %w", b.stdout.Err())}
			return
		}
		var resp response
		if err := json.Unmarshal(b.stdout.Bytes(), &resp); err != nil {
			resultCh <- callResult{err: fmt.Errorf("decoding vector backend response: %w", err)}
			return
		}
		resultCh <- callResult{resp: resp}
	}()

	timeout := b.timeout
	select {
	case <-ctx.Done():
		return apperr.Degraded("vector backend call canceled: %v", ctx.Err())
	case <-time.After(timeout):
		_ = b.cmd.Process.Kill()
		b.cmd = nil
		return apperr.Degraded("vector backend timed out after %s", timeout)
	case res := <-resultCh:
		if res.err != nil {
			b.cmd = nil
			return apperr.Degraded("vector backend communication failed: %v", res.err)
		}
		if res.resp.Error != nil {
			return apperr.Degraded("vector backend error: %s", res.resp.Error.Message)
		}
		if out != nil && res.resp.Result != nil {
			return json.Unmarshal(res.resp.Result, out)
		}
		return nil
	}
}

// EnsureCollection creates the named collection if it does not exist.
func (b *Backend) EnsureCollection(ctx context.Context, name string) error {
	return b.call(ctx, "ensure_collection", map[string]any{"name": name}, nil)
}

// Upsert writes items to the collection in batches of 100.
func (b *Backend) Upsert(ctx context.Context, name string, items []Item) error {
	for start := 0; start < len(items); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]
		if err := b.call(ctx, "upsert", map[string]any{"name": name, "items": batch}, nil); err != nil {
			return err
		}
	}
	return nil
}

// Query returns the top-k nearest items, optionally filtered by an
// equality map over metadata fields.
func (b *Backend) Query(ctx context.Context, name, text string, k int, where map[string]string) (*QueryResult, error) {
	var result QueryResult
	params := map[string]any{"name": name, "text": text, "k": k}
	if len(where) > 0 {
		params["where"] = where
	}
	if err := b.call(ctx, "query", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CollectionStats reports the current item count.
func (b *Backend) CollectionStats(ctx context.Context, name string) (*Stats, error) {
	var stats Stats
	if err := b.call(ctx, "stats", map[string]any{"name": name}, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// DeleteCollection drops a collection, used by the indexer's rebuild
//.
func (b *Backend) DeleteCollection(ctx context.Context, name string) error {
	return b.call(ctx, "delete_collection", map[string]any{"name": name}, nil)
}
