package mcptool

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/oracle-mind/oracle/internal/apperr"
	"github.com/oracle-mind/oracle/internal/decisions"
	"github.com/oracle-mind/oracle/internal/forum"
	"github.com/oracle-mind/oracle/internal/learn"
	"github.com/oracle-mind/oracle/internal/retrieval"
	"github.com/oracle-mind/oracle/internal/store"
	"github.com/oracle-mind/oracle/internal/trace"
)

func (h *Handler) oracleSearch(raw json.RawMessage) (*retrieval.SearchResponse, error) {
	var a struct {
		Query   string          `json:"query"`
		Type    string          `json:"type"`
		Limit   int             `json:"limit"`
		Offset  int             `json:"offset"`
		Mode    string          `json:"mode"`
		Project json.RawMessage `json:"project"`
		CWD     *string         `json:"cwd"`
	}
	if err := unmarshalArgs(raw, &a); err != nil {
		return nil, err
	}

	params := retrieval.SearchParams{
		Query: a.Query, Type: a.Type, Limit: a.Limit, Offset: a.Offset, Mode: a.Mode, CWD: a.CWD,
	}
	if len(a.Project) > 0 {
		params.ProjectSet = true
		var p *string
		if err := json.Unmarshal(a.Project, &p); err == nil {
			params.Project = p
		}
	}

	return h.searcher.Search(context.Background(), params)
}

func (h *Handler) oracleConsult(ctx context.Context, raw json.RawMessage) (any, error) {
	var a struct {
		Decision string  `json:"decision"`
		Context  string  `json:"context"`
		Project  *string `json:"project"`
	}
	if err := unmarshalArgs(raw, &a); err != nil {
		return nil, err
	}
	if a.Decision == "" {
		return nil, apperr.Validation("decision must not be empty")
	}
	return h.consultant.Consult(ctx, a.Decision, a.Context, a.Project)
}

func (h *Handler) oracleReflect() (*store.ReflectRow, error) {
	return h.store.RandomReflection()
}

func (h *Handler) oracleLearn(raw json.RawMessage) (*learn.Result, error) {
	var a struct {
		Pattern  string        `json:"pattern"`
		Source   *string       `json:"source"`
		Concepts []string      `json:"concepts"`
		Origin   *string       `json:"origin"`
		Project  *string       `json:"project"`
		CWD      *string       `json:"cwd"`
		By       *string       `json:"by"`
	}
	if err := unmarshalArgs(raw, &a); err != nil {
		return nil, err
	}
	if a.Pattern == "" {
		return nil, apperr.Validation("pattern must not be empty")
	}

	var origin *store.Origin
	if a.Origin != nil {
		o := store.Origin(*a.Origin)
		origin = &o
	}

	return h.learner.Learn(learn.Input{
		Pattern:  a.Pattern,
		Source:   a.Source,
		Concepts: a.Concepts,
		Origin:   origin,
		Project:  a.Project,
		CWD:      a.CWD,
		By:       a.By,
	})
}

func (h *Handler) oracleList(raw json.RawMessage) ([]*store.Document, error) {
	var a struct {
		Type        string `json:"type"`
		Limit       int    `json:"limit"`
		Offset      int    `json:"offset"`
		GroupByFile *bool  `json:"groupByFile"`
	}
	if err := unmarshalArgs(raw, &a); err != nil {
		return nil, err
	}
	if a.Limit <= 0 {
		a.Limit = 20
	}
	grouped := true
	if a.GroupByFile != nil {
		grouped = *a.GroupByFile
	}
	if grouped {
		return h.store.ListDocumentsGrouped(a.Type, a.Limit, a.Offset)
	}
	return h.store.ListDocuments(a.Type, a.Limit, a.Offset)
}

type conceptCount struct {
	Concept string `json:"concept"`
	Count   int    `json:"count"`
}

func (h *Handler) oracleConcepts(raw json.RawMessage) ([]conceptCount, error) {
	var a struct {
		Type  string `json:"type"`
		Limit int    `json:"limit"`
	}
	if err := unmarshalArgs(raw, &a); err != nil {
		return nil, err
	}
	if a.Limit <= 0 {
		a.Limit = 20
	}

	counts, err := h.store.ConceptCounts(a.Type)
	if err != nil {
		return nil, err
	}

	out := make([]conceptCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, conceptCount{Concept: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Concept < out[j].Concept
	})
	if len(out) > a.Limit {
		out = out[:a.Limit]
	}
	return out, nil
}

func (h *Handler) oracleThread(ctx context.Context, raw json.RawMessage) (any, error) {
	var a struct {
		Message  string  `json:"message"`
		ThreadID *string `json:"threadId"`
		Title    *string `json:"title"`
		Role     *string `json:"role"`
		Project  *string `json:"project"`
	}
	if err := unmarshalArgs(raw, &a); err != nil {
		return nil, err
	}
	if a.Message == "" {
		return nil, apperr.Validation("message must not be empty")
	}

	var role *store.MessageRole
	if a.Role != nil {
		r := store.MessageRole(*a.Role)
		role = &r
	}

	return h.forum.HandleThreadMessage(ctx, forum.MessageInput{
		Message:  a.Message,
		ThreadID: a.ThreadID,
		Title:    a.Title,
		Role:     role,
		Project:  a.Project,
	})
}

func (h *Handler) oracleThreads(raw json.RawMessage) (any, error) {
	var a struct {
		Status  string  `json:"status"`
		Project *string `json:"project"`
		Limit   int     `json:"limit"`
		Offset  int     `json:"offset"`
	}
	if err := unmarshalArgs(raw, &a); err != nil {
		return nil, err
	}
	if a.Limit <= 0 {
		a.Limit = 20
	}
	return h.forum.List(a.Status, a.Project, a.Limit, a.Offset)
}

func (h *Handler) oracleThreadRead(raw json.RawMessage) (any, error) {
	var a struct {
		ThreadID string `json:"threadId"`
	}
	if err := unmarshalArgs(raw, &a); err != nil {
		return nil, err
	}
	if a.ThreadID == "" {
		return nil, apperr.Validation("threadId must not be empty")
	}

	thread, err := h.store.GetThread(a.ThreadID)
	if err != nil {
		return nil, err
	}
	messages, err := h.forum.Messages(a.ThreadID)
	if err != nil {
		return nil, err
	}
	return struct {
		Thread   *store.ForumThread   `json:"thread"`
		Messages []*store.ForumMessage `json:"messages"`
	}{thread, messages}, nil
}

func (h *Handler) oracleThreadUpdate(raw json.RawMessage) (any, error) {
	var a struct {
		ThreadID string `json:"threadId"`
		Status   string `json:"status"`
	}
	if err := unmarshalArgs(raw, &a); err != nil {
		return nil, err
	}
	if a.ThreadID == "" || a.Status == "" {
		return nil, apperr.Validation("threadId and status are required")
	}
	if err := h.forum.UpdateStatus(a.ThreadID, store.ThreadStatus(a.Status)); err != nil {
		return nil, err
	}
	return h.store.GetThread(a.ThreadID)
}

func (h *Handler) oracleDecisionsList(raw json.RawMessage) (any, error) {
	var a struct {
		Status  string  `json:"status"`
		Project *string `json:"project"`
		Limit   int     `json:"limit"`
		Offset  int     `json:"offset"`
	}
	if err := unmarshalArgs(raw, &a); err != nil {
		return nil, err
	}
	if a.Limit <= 0 {
		a.Limit = 20
	}
	return h.decisions.List(a.Status, a.Project, a.Limit, a.Offset)
}

func (h *Handler) oracleDecisionsCreate(raw json.RawMessage) (any, error) {
	var a struct {
		Title     string   `json:"title"`
		Context   *string  `json:"context"`
		Options   []string `json:"options"`
		Decision  *string  `json:"decision"`
		Rationale *string  `json:"rationale"`
		Project   *string  `json:"project"`
		Tags      []string `json:"tags"`
	}
	if err := unmarshalArgs(raw, &a); err != nil {
		return nil, err
	}
	if a.Title == "" {
		return nil, apperr.Validation("title must not be empty")
	}
	return h.decisions.Create(decisions.CreateInput{
		Title: a.Title, Context: a.Context, Options: a.Options,
		Decision: a.Decision, Rationale: a.Rationale, Project: a.Project, Tags: a.Tags,
	})
}

func (h *Handler) oracleDecisionsGet(raw json.RawMessage) (any, error) {
	var a struct {
		ID string `json:"id"`
	}
	if err := unmarshalArgs(raw, &a); err != nil {
		return nil, err
	}
	return h.decisions.Get(a.ID)
}

func (h *Handler) oracleDecisionsUpdate(raw json.RawMessage) (any, error) {
	var a struct {
		ID        string   `json:"id"`
		Title     string   `json:"title"`
		Context   *string  `json:"context"`
		Options   []string `json:"options"`
		Decision  *string  `json:"decision"`
		Rationale *string  `json:"rationale"`
		Tags      []string `json:"tags"`
		Status    *string  `json:"status"`
		DecidedBy *string  `json:"decidedBy"`
	}
	if err := unmarshalArgs(raw, &a); err != nil {
		return nil, err
	}
	if a.ID == "" {
		return nil, apperr.Validation("id must not be empty")
	}

	if a.Status != nil {
		return h.decisions.TransitionStatus(a.ID, store.DecisionStatus(*a.Status), a.DecidedBy)
	}
	return h.decisions.Update(decisions.UpdateInput{
		ID: a.ID, Title: a.Title, Context: a.Context, Options: a.Options,
		Decision: a.Decision, Rationale: a.Rationale, Tags: a.Tags,
	})
}

func (h *Handler) oracleTrace(raw json.RawMessage) (any, error) {
	var a struct {
		TraceID       string          `json:"traceId"`
		Query         string          `json:"query"`
		QueryType     string          `json:"queryType"`
		DigPoints     store.DigPoints `json:"digPoints"`
		ParentTraceID *string         `json:"parentTraceId"`
		Project       *string         `json:"project"`
	}
	if err := unmarshalArgs(raw, &a); err != nil {
		return nil, err
	}
	if a.TraceID == "" || a.Query == "" {
		return nil, apperr.Validation("traceId and query are required")
	}
	return h.tracer.Create(a.TraceID, a.Query, a.QueryType, a.DigPoints, a.ParentTraceID, a.Project)
}

func (h *Handler) oracleTraceList(raw json.RawMessage) (any, error) {
	var a struct {
		Status  string  `json:"status"`
		Project *string `json:"project"`
		Limit   int     `json:"limit"`
		Offset  int     `json:"offset"`
	}
	if err := unmarshalArgs(raw, &a); err != nil {
		return nil, err
	}
	if a.Limit <= 0 {
		a.Limit = 20
	}
	return h.tracer.List(store.TraceFilter{Status: a.Status, Project: a.Project}, a.Limit, a.Offset)
}

func (h *Handler) oracleTraceGet(raw json.RawMessage) (any, error) {
	var a struct {
		TraceID   string `json:"traceId"`
		Chain     bool   `json:"chain"`
		Direction string `json:"direction"`
	}
	if err := unmarshalArgs(raw, &a); err != nil {
		return nil, err
	}
	if a.TraceID == "" {
		return nil, apperr.Validation("traceId must not be empty")
	}
	if a.Chain {
		direction := trace.Direction(a.Direction)
		if direction == "" {
			direction = trace.DirBoth
		}
		return h.tracer.Chain(a.TraceID, direction)
	}
	return h.tracer.Get(a.TraceID)
}

func unmarshalArgs(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperr.Validation("invalid arguments: %v", err)
	}
	return nil
}
