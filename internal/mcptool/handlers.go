package mcptool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oracle-mind/oracle/internal/consult"
	"github.com/oracle-mind/oracle/internal/dashboard"
	"github.com/oracle-mind/oracle/internal/decisions"
	"github.com/oracle-mind/oracle/internal/forum"
	"github.com/oracle-mind/oracle/internal/learn"
	"github.com/oracle-mind/oracle/internal/retrieval"
	"github.com/oracle-mind/oracle/internal/store"
	"github.com/oracle-mind/oracle/internal/trace"
)

// Handler processes tool calls by dispatching to the component set
//. It holds no state of its own beyond references to the
// components — all durable state lives in the store.
type Handler struct {
	store      *store.Store
	searcher   *retrieval.Searcher
	consultant *consult.Consultant
	learner    *learn.Learner
	tracer     *trace.Tracer
	forum      *forum.Forum
	decisions  *decisions.Decisions
	dashboard  *dashboard.Dashboard
}

// NewHandler wires every component into a Handler.
func NewHandler(
	s *store.Store,
	searcher *retrieval.Searcher,
	consultant *consult.Consultant,
	learner *learn.Learner,
	tracer *trace.Tracer,
	forumSvc *forum.Forum,
	decisionsSvc *decisions.Decisions,
	dash *dashboard.Dashboard,
) *Handler {
	return &Handler{
		store:      s,
		searcher:   searcher,
		consultant: consultant,
		learner:    learner,
		tracer:     tracer,
		forum:      forumSvc,
		decisions:  decisionsSvc,
		dashboard:  dash,
	}
}

// CallTool dispatches one tools/call request to the matching component
//. The returned error, when non-nil, is rendered by the caller as
// an isError content block rather than a transport failure.
func (h *Handler) CallTool(ctx context.Context, name string, args json.RawMessage) (*ToolCallResult, error) {
	result, err := h.dispatch(ctx, name, args)
	if err != nil {
		return &ToolCallResult{
			Content: []ContentBlock{{Type: "text", Text: err.Error()}},
			IsError: true,
		}, nil
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshaling tool result: %w", err)
	}
	return &ToolCallResult{Content: []ContentBlock{{Type: "text", Text: string(payload)}}}, nil
}

func (h *Handler) dispatch(ctx context.Context, name string, args json.RawMessage) (any, error) {
	switch name {
	case "oracle_search":
		return h.oracleSearch(args)
	case "oracle_consult":
		return h.oracleConsult(ctx, args)
	case "oracle_reflect":
		return h.oracleReflect()
	case "oracle_learn":
		return h.oracleLearn(args)
	case "oracle_list":
		return h.oracleList(args)
	case "oracle_stats":
		return h.dashboard.Summary()
	case "oracle_concepts":
		return h.oracleConcepts(args)
	case "oracle_thread":
		return h.oracleThread(ctx, args)
	case "oracle_threads":
		return h.oracleThreads(args)
	case "oracle_thread_read":
		return h.oracleThreadRead(args)
	case "oracle_thread_update":
		return h.oracleThreadUpdate(args)
	case "oracle_decisions_list":
		return h.oracleDecisionsList(args)
	case "oracle_decisions_create":
		return h.oracleDecisionsCreate(args)
	case "oracle_decisions_get":
		return h.oracleDecisionsGet(args)
	case "oracle_decisions_update":
		return h.oracleDecisionsUpdate(args)
	case "oracle_trace":
		return h.oracleTrace(args)
	case "oracle_trace_list":
		return h.oracleTraceList(args)
	case "oracle_trace_get":
		return h.oracleTraceGet(args)
	default:
		return nil, fmt.Errorf("unknown tool %q", name)
	}
}
