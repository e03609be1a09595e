package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/oracle-mind/oracle/internal/apperr"
	"github.com/oracle-mind/oracle/internal/config"
	"github.com/oracle-mind/oracle/internal/consult"
	"github.com/oracle-mind/oracle/internal/dashboard"
	"github.com/oracle-mind/oracle/internal/decisions"
	"github.com/oracle-mind/oracle/internal/forum"
	"github.com/oracle-mind/oracle/internal/learn"
	"github.com/oracle-mind/oracle/internal/retrieval"
	"github.com/oracle-mind/oracle/internal/store"
	"github.com/oracle-mind/oracle/internal/trace"
)

const graphLearningSampleSize = 100

// Components bundles every service the HTTP API dispatches to.
type Components struct {
	Store      *store.Store
	Searcher   *retrieval.Searcher
	Consultant *consult.Consultant
	Learner    *learn.Learner
	Tracer     *trace.Tracer
	Forum      *forum.Forum
	Decisions  *decisions.Decisions
	Dashboard  *dashboard.Dashboard
	Config     config.Config
}

// NewRouter builds the chi router mirroring the tool set. CORS is
// permissive, per spec.
func NewRouter(c Components) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/api/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/search", c.handleSearch)
	r.Get("/api/consult", c.handleConsult)
	r.Get("/api/reflect", c.handleReflect)
	r.Get("/api/stats", c.handleStats)
	r.Get("/api/list", c.handleList)
	r.Get("/api/graph", c.handleGraph)
	r.Get("/api/concepts", c.handleConcepts)
	r.Post("/api/learn", c.handleLearn)
	r.Get("/api/file", c.handleFile)

	r.Get("/api/dashboard", c.handleDashboardSummary)
	r.Get("/api/dashboard/summary", c.handleDashboardSummary)
	r.Get("/api/dashboard/activity", c.handleDashboardActivity)
	r.Get("/api/dashboard/growth", c.handleDashboardGrowth)
	r.Get("/api/session/stats", c.handleSessionStats)

	r.Get("/api/threads", c.handleThreadsList)
	r.Post("/api/thread", c.handleThreadPost)
	r.Get("/api/thread/{id}", c.handleThreadGet)
	r.Patch("/api/thread/{id}/status", c.handleThreadStatus)

	r.Get("/api/decisions", c.handleDecisionsList)
	r.Post("/api/decisions", c.handleDecisionsCreate)
	r.Get("/api/decisions/{id}", c.handleDecisionsGet)
	r.Patch("/api/decisions/{id}", c.handleDecisionsUpdate)
	r.Post("/api/decisions/{id}/transition", c.handleDecisionsTransition)

	r.Get("/api/trace", c.handleTraceList)
	r.Post("/api/trace", c.handleTraceCreate)
	r.Get("/api/trace/{id}", c.handleTraceGet)

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindDegraded:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func queryBool(r *http.Request, key string, def bool) bool {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// queryOptionalString distinguishes "absent" from "present and empty"
// (needed for project=null semantics).
func queryOptionalString(r *http.Request, key string) (*string, bool) {
	if !r.URL.Query().Has(key) {
		return nil, false
	}
	v := r.URL.Query().Get(key)
	if v == "" || strings.EqualFold(v, "null") {
		return nil, true
	}
	return &v, true
}

func (c Components) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := retrieval.SearchParams{
		Query:  q.Get("q"),
		Type:   q.Get("type"),
		Limit:  queryInt(r, "limit", 10),
		Offset: queryInt(r, "offset", 0),
		Mode:   q.Get("mode"),
	}
	if project, set := queryOptionalString(r, "project"); set {
		params.ProjectSet = true
		params.Project = project
	}
	if cwd := q.Get("cwd"); cwd != "" {
		params.CWD = &cwd
	}

	result, err := c.Searcher.Search(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c Components) handleConsult(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	project, _ := queryOptionalString(r, "project")
	result, err := c.Consultant.Consult(r.Context(), q.Get("q"), q.Get("context"), project)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c Components) handleReflect(w http.ResponseWriter, r *http.Request) {
	result, err := c.Store.RandomReflection()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c Components) handleStats(w http.ResponseWriter, r *http.Request) {
	c.handleDashboardSummary(w, r)
}

func (c Components) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	docType := q.Get("type")
	limit, offset := queryInt(r, "limit", 20), queryInt(r, "offset", 0)

	var (
		docs []*store.Document
		err  error
	)
	if queryBool(r, "group", true) {
		docs, err = c.Store.ListDocumentsGrouped(docType, limit, offset)
	} else {
		docs, err = c.Store.ListDocuments(docType, limit, offset)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (c Components) handleGraph(w http.ResponseWriter, r *http.Request) {
	nodes, err := c.Store.GraphNodes(graphLearningSampleSize)
	if err != nil {
		writeError(w, err)
		return
	}
	edges := store.GraphEdges(nodes)
	writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes, "edges": edges})
}

type conceptCount struct {
	Concept string `json:"concept"`
	Count   int    `json:"count"`
}

func (c Components) handleConcepts(w http.ResponseWriter, r *http.Request) {
	docType := r.URL.Query().Get("type")
	limit := queryInt(r, "limit", 20)
	counts, err := c.Store.ConceptCounts(docType)
	if err != nil {
		writeError(w, err)
		return
	}

	list := make([]conceptCount, 0, len(counts))
	for concept, n := range counts {
		list = append(list, conceptCount{Concept: concept, Count: n})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Count != list[j].Count {
			return list[i].Count > list[j].Count
		}
		return list[i].Concept < list[j].Concept
	})
	if len(list) > limit {
		list = list[:limit]
	}
	writeJSON(w, http.StatusOK, list)
}

func (c Components) handleLearn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Pattern  string   `json:"pattern"`
		Source   *string  `json:"source"`
		Concepts []string `json:"concepts"`
		Origin   *string  `json:"origin"`
		Project  *string  `json:"project"`
		By       *string  `json:"by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.Validation("invalid body: %v", err))
		return
	}

	var origin *store.Origin
	if body.Origin != nil {
		o := store.Origin(*body.Origin)
		origin = &o
	}

	result, err := c.Learner.Learn(learn.Input{
		Pattern: body.Pattern, Source: body.Source, Concepts: body.Concepts,
		Origin: origin, Project: body.Project, By: body.By,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleFile resolves both the
// requested path and the repo root via realpath, and require the
// resolved requested path to start with the resolved repo root.
func (c Components) handleFile(w http.ResponseWriter, r *http.Request) {
	requested := r.URL.Query().Get("path")
	if requested == "" {
		writeError(w, apperr.Validation("path is required"))
		return
	}

	root, err := filepath.EvalSymlinks(c.Config.RepoRoot)
	if err != nil {
		writeError(w, apperr.Wrap(apperr.KindInternal, err, "resolving repo root"))
		return
	}

	candidate := requested
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(root, candidate)
	}
	resolved, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		writeError(w, apperr.NotFound("file not found"))
		return
	}

	if !strings.HasPrefix(resolved, root+string(filepath.Separator)) && resolved != root {
		writeError(w, apperr.Validation("path escapes repo root"))
		return
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		writeError(w, apperr.NotFound("file not found"))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(data)
}

func (c Components) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := c.Dashboard.Summary()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (c Components) handleDashboardActivity(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 7)
	rows, err := c.Dashboard.Activity(days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (c Components) handleDashboardGrowth(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "week"
	}
	points, err := c.Dashboard.Growth(period)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (c Components) handleSessionStats(w http.ResponseWriter, r *http.Request) {
	since := r.URL.Query().Get("since")
	t, err := parseTimeParam(since)
	if err != nil {
		writeError(w, apperr.Validation("invalid since: %v", err))
		return
	}
	stats, err := c.Dashboard.SessionStatsSince(t)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func parseTimeParam(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC3339 timestamp: %w", err)
	}
	return t, nil
}

func (c Components) handleThreadsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	project, _ := queryOptionalString(r, "project")
	threads, err := c.Forum.List(q.Get("status"), project, queryInt(r, "limit", 20), queryInt(r, "offset", 0))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, threads)
}

func (c Components) handleThreadPost(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message  string  `json:"message"`
		ThreadID *string `json:"threadId"`
		Title    *string `json:"title"`
		Role     *string `json:"role"`
		Project  *string `json:"project"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.Validation("invalid body: %v", err))
		return
	}
	var role *store.MessageRole
	if body.Role != nil {
		rv := store.MessageRole(*body.Role)
		role = &rv
	}

	result, err := c.Forum.HandleThreadMessage(r.Context(), forum.MessageInput{
		Message: body.Message, ThreadID: body.ThreadID, Title: body.Title, Role: role, Project: body.Project,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c Components) handleThreadGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	thread, err := c.Store.GetThread(id)
	if err != nil {
		writeError(w, err)
		return
	}
	messages, err := c.Forum.Messages(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"thread": thread, "messages": messages})
}

func (c Components) handleThreadStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.Validation("invalid body: %v", err))
		return
	}
	if err := c.Forum.UpdateStatus(id, store.ThreadStatus(body.Status)); err != nil {
		writeError(w, err)
		return
	}
	thread, err := c.Store.GetThread(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, thread)
}

func (c Components) handleDecisionsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	project, _ := queryOptionalString(r, "project")
	list, err := c.Decisions.List(q.Get("status"), project, queryInt(r, "limit", 20), queryInt(r, "offset", 0))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (c Components) handleDecisionsCreate(w http.ResponseWriter, r *http.Request) {
	var body decisions.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.Validation("invalid body: %v", err))
		return
	}
	result, err := c.Decisions.Create(body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c Components) handleDecisionsGet(w http.ResponseWriter, r *http.Request) {
	result, err := c.Decisions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c Components) handleDecisionsUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body decisions.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.Validation("invalid body: %v", err))
		return
	}
	body.ID = id
	result, err := c.Decisions.Update(body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c Components) handleDecisionsTransition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		Status    string  `json:"status"`
		DecidedBy *string `json:"decidedBy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.Validation("invalid body: %v", err))
		return
	}
	result, err := c.Decisions.TransitionStatus(id, store.DecisionStatus(body.Status), body.DecidedBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c Components) handleTraceList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	project, _ := queryOptionalString(r, "project")
	list, err := c.Tracer.List(store.TraceFilter{Status: q.Get("status"), Project: project}, queryInt(r, "limit", 20), queryInt(r, "offset", 0))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (c Components) handleTraceCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TraceID       string          `json:"traceId"`
		Query         string          `json:"query"`
		QueryType     string          `json:"queryType"`
		DigPoints     store.DigPoints `json:"digPoints"`
		ParentTraceID *string         `json:"parentTraceId"`
		Project       *string         `json:"project"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperr.Validation("invalid body: %v", err))
		return
	}
	result, err := c.Tracer.Create(body.TraceID, body.Query, body.QueryType, body.DigPoints, body.ParentTraceID, body.Project)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (c Components) handleTraceGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if queryBool(r, "chain", false) {
		direction := trace.Direction(r.URL.Query().Get("direction"))
		if direction == "" {
			direction = trace.DirBoth
		}
		result, err := c.Tracer.Chain(id, direction)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}
	result, err := c.Tracer.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
