// Package trace implements C8: the discovery-session forest, built on
// top of the raw store rows in internal/store/trace.go.
package trace

import (
	"fmt"

	"github.com/oracle-mind/oracle/internal/applog"
	"github.com/oracle-mind/oracle/internal/learn"
	"github.com/oracle-mind/oracle/internal/store"
)

var logger = applog.Named("trace")

// Direction selects which way chain() walks the forest.
type Direction string

const (
	DirUp   Direction = "up"
	DirDown Direction = "down"
	DirBoth Direction = "both"
)

// ChainResult is the aggregate chain() produces.
type ChainResult struct {
	Traces           []*store.Trace
	TotalDepth       int
	HasAwakening     bool
	AwakeningTraceID *string
}

// Tracer bundles the store and learner a Trace call needs.
type Tracer struct {
	store   *store.Store
	learner *learn.Learner
}

// New builds a Tracer.
func New(s *store.Store, learner *learn.Learner) *Tracer {
	return &Tracer{store: s, learner: learner}
}

// Create inserts a new trace, delegating depth computation and the
// parent's child_trace_ids update to the store layer.
func (t *Tracer) Create(traceID, query, queryType string, digPoints store.DigPoints, parentTraceID, project *string) (*store.Trace, error) {
	return t.store.CreateTrace(traceID, query, queryType, digPoints, parentTraceID, project)
}

// Get fetches one trace with its JSON arrays parsed.
func (t *Tracer) Get(traceID string) (*store.Trace, error) {
	return t.store.GetTrace(traceID)
}

// List returns summary rows ordered by created_at DESC.
func (t *Tracer) List(f store.TraceFilter, limit, offset int) ([]*store.Trace, error) {
	return t.store.ListTraces(f, limit, offset)
}

// Chain walks the forest in the given direction. "up" follows
// parent_trace_id transitively; "down" does a BFS over child_trace_ids;
// "both" concatenates both walks with the starting trace in the middle.
func (t *Tracer) Chain(traceID string, direction Direction) (*ChainResult, error) {
	self, err := t.store.GetTrace(traceID)
	if err != nil {
		return nil, err
	}

	var ancestors, descendants []*store.Trace
	switch direction {
	case DirUp:
		ancestors, err = t.walkUp(self)
	case DirDown:
		descendants, err = t.walkDown(self)
	case DirBoth:
		if ancestors, err = t.walkUp(self); err == nil {
			descendants, err = t.walkDown(self)
		}
	default:
		return nil, fmt.Errorf("unknown direction %q", direction)
	}
	if err != nil {
		return nil, err
	}

	// "both": concatenated, self in the middle (ancestors run root-to-self,
	// so they're built youngest-first below and then reversed).
	for i, j := 0, len(ancestors)-1; i < j; i, j = i+1, j-1 {
		ancestors[i], ancestors[j] = ancestors[j], ancestors[i]
	}

	all := make([]*store.Trace, 0, len(ancestors)+1+len(descendants))
	all = append(all, ancestors...)
	all = append(all, self)
	all = append(all, descendants...)

	result := &ChainResult{Traces: all}
	for _, tr := range all {
		if tr.Depth > result.TotalDepth {
			result.TotalDepth = tr.Depth
		}
		if tr.Status == store.TraceDistilled && !result.HasAwakening {
			result.HasAwakening = true
			id := tr.TraceID
			result.AwakeningTraceID = &id
		}
	}
	return result, nil
}

func (t *Tracer) walkUp(from *store.Trace) ([]*store.Trace, error) {
	var chain []*store.Trace
	current := from
	for current.ParentTraceID != nil {
		parent, err := t.store.GetTrace(*current.ParentTraceID)
		if err != nil {
			return nil, err
		}
		chain = append(chain, parent)
		current = parent
	}
	return chain, nil
}

func (t *Tracer) walkDown(from *store.Trace) ([]*store.Trace, error) {
	var result []*store.Trace
	queue := append([]string{}, from.ChildTraceIDs...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		child, err := t.store.GetTrace(id)
		if err != nil {
			return nil, err
		}
		result = append(result, child)
		queue = append(queue, child.ChildTraceIDs...)
	}
	return result, nil
}

// Distill sets the trace to distilled and, if requested, promotes the
// awakening text to a learning via internal/learn.
func (t *Tracer) Distill(traceID, awakening string, promoteToLearning bool, project *string) (*store.Trace, error) {
	var distilledToID *string
	if promoteToLearning && t.learner != nil {
		result, err := t.learner.Learn(learn.Input{
			Pattern: awakening,
			Source:  strPtr(fmt.Sprintf("trace:%s", traceID)),
			Project: project,
		})
		if err != nil {
			logger.Warn("failed to promote trace awakening to learning", "trace_id", traceID, "err", err)
		} else {
			distilledToID = &result.ID
		}
	}

	if err := t.store.Distill(traceID, awakening, distilledToID); err != nil {
		return nil, err
	}
	return t.store.GetTrace(traceID)
}

func strPtr(s string) *string { return &s }
