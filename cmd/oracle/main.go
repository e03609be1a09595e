package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/oracle-mind/oracle/internal/applog"
	"github.com/oracle-mind/oracle/internal/config"
	"github.com/oracle-mind/oracle/internal/consult"
	"github.com/oracle-mind/oracle/internal/dashboard"
	"github.com/oracle-mind/oracle/internal/decisions"
	"github.com/oracle-mind/oracle/internal/forum"
	"github.com/oracle-mind/oracle/internal/httpapi"
	"github.com/oracle-mind/oracle/internal/indexer"
	"github.com/oracle-mind/oracle/internal/learn"
	"github.com/oracle-mind/oracle/internal/mcptool"
	"github.com/oracle-mind/oracle/internal/retrieval"
	"github.com/oracle-mind/oracle/internal/store"
	"github.com/oracle-mind/oracle/internal/trace"
	"github.com/oracle-mind/oracle/internal/vectorbackend"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var logger = applog.Named("cmd")

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "oracle",
	Short: "Personal knowledge memory and retrieval layer",
	Long: titleStyle.Render("oracle") + " - hybrid keyword + vector retrieval over a markdown knowledge corpus\n\n" +
		"Runs as an MCP tool server over stdio (default), an HTTP/JSON API, or a one-shot indexer.",
}

func init() {
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(ensureServerCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.RunE = mcpCmd.RunE
}

// components bundles every wired service, shared by server/mcp/index.
type components struct {
	cfg        config.Config
	store      *store.Store
	vectors    *vectorbackend.Backend
	searcher   *retrieval.Searcher
	consultant *consult.Consultant
	learner    *learn.Learner
	tracer     *trace.Tracer
	forum      *forum.Forum
	decisions  *decisions.Decisions
	dashboard  *dashboard.Dashboard
	indexer    *indexer.Indexer
}

func wire() (*components, error) {
	cfg := config.Load()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	s, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	vectors := vectorbackend.New(vectorbackend.Config{Command: cfg.VectorCommand})

	searcher := retrieval.New(s, vectors)
	consultant := consult.New(s, vectors)
	learner := learn.New(s, cfg)
	tracer := trace.New(s, learner)
	forumSvc := forum.New(s, consultant)
	decisionsSvc := decisions.New(s)
	dash := dashboard.New(s)
	ix := indexer.New(s, vectors, cfg)

	return &components{
		cfg: cfg, store: s, vectors: vectors,
		searcher: searcher, consultant: consultant, learner: learner,
		tracer: tracer, forum: forumSvc, decisions: decisionsSvc,
		dashboard: dash, indexer: ix,
	}, nil
}

// --- server ---

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP/JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := wire()
		if err != nil {
			return err
		}
		defer c.store.Close()

		httpComponents := httpapi.Components{
			Store: c.store, Searcher: c.searcher, Consultant: c.consultant,
			Learner: c.learner, Tracer: c.tracer, Forum: c.forum,
			Decisions: c.decisions, Dashboard: c.dashboard, Config: c.cfg,
		}
		srv := httpapi.NewServer(c.cfg, httpComponents)
		return srv.Run(context.Background(), c.store.ResetStaleIndexing)
	},
}

// --- mcp ---

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP tool server on stdio (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := wire()
		if err != nil {
			return err
		}
		defer c.store.Close()

		handler := mcptool.NewHandler(c.store, c.searcher, c.consultant, c.learner, c.tracer, c.forum, c.decisions, c.dashboard)
		srv := mcptool.NewServer(handler, "oracle", Version)
		return srv.Run(context.Background())
	},
}

// --- index ---

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Run one indexing pass to completion and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := wire()
		if err != nil {
			return err
		}
		defer c.store.Close()

		start := time.Now()
		if err := c.indexer.Run(cmd.Context()); err != nil {
			return err
		}
		logger.Info("indexing complete", "elapsed", time.Since(start))
		return nil
	},
}

// --- ensure-server ---

var (
	ensureStatus  bool
	ensureVerbose bool
)

var ensureServerCmd = &cobra.Command{
	Use:   "ensure-server",
	Short: "Auto-start the HTTP server if it is not alive; exit 0 iff healthy",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		url := fmt.Sprintf("http://127.0.0.1:%d/api/health", cfg.Port)

		if healthy(url) {
			report("already running", true)
			return nil
		}
		if ensureStatus {
			report("not running", false)
			os.Exit(1)
		}

		if err := spawnServer(); err != nil {
			report("failed to start: "+err.Error(), false)
			os.Exit(1)
		}

		deadline := time.Now().Add(10 * time.Second)
		for time.Now().Before(deadline) {
			if healthy(url) {
				report("started", true)
				return nil
			}
			time.Sleep(200 * time.Millisecond)
		}
		report("did not become healthy in time", false)
		os.Exit(1)
		return nil
	},
}

func init() {
	ensureServerCmd.Flags().BoolVar(&ensureStatus, "status", false, "only report status, do not start")
	ensureServerCmd.Flags().BoolVar(&ensureVerbose, "verbose", false, "print diagnostic detail")
}

func healthy(url string) bool {
	client := http.Client{Timeout: 1 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func spawnServer() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	proc, err := os.StartProcess(exe, []string{exe, "server"}, &os.ProcAttr{
		Files: []*os.File{nil, nil, nil},
	})
	if err != nil {
		return err
	}
	return proc.Release()
}

func report(msg string, ok bool) {
	style := okStyle
	if !ok {
		style = failStyle
	}
	fmt.Println(style.Render(msg))
	if ensureVerbose {
		fmt.Println(dimStyle.Render(msg))
	}
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(titleStyle.Render("oracle") + " " + dimStyle.Render(Version))
	},
}
