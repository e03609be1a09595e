// Package decisions implements C10: CRUD plus the status transition
// graph over the raw rows in internal/store/decisions.go.
package decisions

import (
	"github.com/google/uuid"

	"github.com/oracle-mind/oracle/internal/store"
)

// CreateInput is the decision-creation request shape.
type CreateInput struct {
	Title     string
	Context   *string
	Options   []string
	Decision  *string
	Rationale *string
	Project   *string
	Tags      []string
}

// Decisions bundles the store a decisions call needs.
type Decisions struct {
	store *store.Store
}

// New builds a Decisions service.
func New(s *store.Store) *Decisions {
	return &Decisions{store: s}
}

// Create inserts a new decision in the pending state.
func (d *Decisions) Create(in CreateInput) (*store.Decision, error) {
	dec := &store.Decision{
		ID:        uuid.NewString(),
		Title:     in.Title,
		Status:    store.DecisionPending,
		Context:   in.Context,
		Options:   in.Options,
		Decision:  in.Decision,
		Rationale: in.Rationale,
		Project:   in.Project,
		Tags:      in.Tags,
	}
	if err := d.store.CreateDecision(dec); err != nil {
		return nil, err
	}
	return dec, nil
}

// Get fetches one decision by id.
func (d *Decisions) Get(id string) (*store.Decision, error) {
	return d.store.GetDecision(id)
}

// List returns decisions, optionally filtered.
func (d *Decisions) List(status string, project *string, limit, offset int) ([]*store.Decision, error) {
	return d.store.ListDecisions(status, project, limit, offset)
}

// UpdateInput patches the mutable free-form fields of a decision.
type UpdateInput struct {
	ID        string
	Title     string
	Context   *string
	Options   []string
	Decision  *string
	Rationale *string
	Tags      []string
}

// Update patches a decision's content without touching status.
func (d *Decisions) Update(in UpdateInput) (*store.Decision, error) {
	existing, err := d.store.GetDecision(in.ID)
	if err != nil {
		return nil, err
	}
	existing.Title = in.Title
	existing.Context = in.Context
	existing.Options = in.Options
	existing.Decision = in.Decision
	existing.Rationale = in.Rationale
	existing.Tags = in.Tags
	if err := d.store.UpdateDecision(existing); err != nil {
		return nil, err
	}
	return d.store.GetDecision(in.ID)
}

// TransitionStatus enforces the legal-transition graph. Entering
// "decided" stamps decided_at/decided_by; illegal edges return a domain
// Conflict error.
func (d *Decisions) TransitionStatus(id string, newStatus store.DecisionStatus, decidedBy *string) (*store.Decision, error) {
	return d.store.TransitionDecision(id, newStatus, decidedBy)
}
