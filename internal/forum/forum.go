// Package forum implements C9: a discussion thread that auto-replies via
// Consult when a human posts.
package forum

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/oracle-mind/oracle/internal/applog"
	"github.com/oracle-mind/oracle/internal/consult"
	"github.com/oracle-mind/oracle/internal/store"
)

var logger = applog.Named("forum")

// MessageInput is the handleThreadMessage request shape.
type MessageInput struct {
	Message  string
	ThreadID *string
	Title    *string
	Role     *store.MessageRole
	Project  *string
	Author   *string
}

// Result carries both the thread and the messages written by this call.
type Result struct {
	Thread   *store.ForumThread
	Incoming *store.ForumMessage
	Reply    *store.ForumMessage
}

// Forum bundles the store and consultant a forum call needs.
type Forum struct {
	store      *store.Store
	consultant *consult.Consultant
}

// New builds a Forum.
func New(s *store.Store, consultant *consult.Consultant) *Forum {
	return &Forum{store: s, consultant: consultant}
}

// HandleThreadMessage posts a message and, for any author role other than
// oracle, runs consult against the thread and appends an oracle reply.
func (f *Forum) HandleThreadMessage(ctx context.Context, in MessageInput) (*Result, error) {
	role := store.RoleHuman
	if in.Role != nil {
		role = *in.Role
	}

	var thread *store.ForumThread
	var err error
	if in.ThreadID != nil {
		thread, err = f.store.GetThread(*in.ThreadID)
		if err != nil {
			return nil, err
		}
	} else {
		title := ""
		if in.Title != nil {
			title = *in.Title
		} else {
			title = snippet(in.Message, 50)
		}
		createdBy := string(role)
		thread, err = f.store.CreateThread(uuid.NewString(), title, &createdBy, in.Project)
		if err != nil {
			return nil, err
		}
	}

	incoming := store.ForumMessage{
		ID:       uuid.NewString(),
		ThreadID: thread.ID,
		Role:     role,
		Content:  in.Message,
		Author:   in.Author,
	}
	if err := f.store.AddMessage(incoming); err != nil {
		return nil, fmt.Errorf("adding forum message: %w", err)
	}

	result := &Result{Thread: thread, Incoming: &incoming}

	if role != store.RoleOracle {
		reply, err := f.autoReply(ctx, thread, in.Message, in.Project)
		if err != nil {
			logger.Warn("consult auto-reply failed", "thread_id", thread.ID, "err", err)
		} else {
			result.Reply = reply
		}
	}

	if err := f.store.TouchThread(thread.ID); err != nil {
		logger.Warn("failed to touch thread", "thread_id", thread.ID, "err", err)
	}

	return result, nil
}

func (f *Forum) autoReply(ctx context.Context, thread *store.ForumThread, message string, project *string) (*store.ForumMessage, error) {
	response, err := f.consultant.Consult(ctx, message, "", project)
	if err != nil {
		return nil, err
	}

	principleIDs := idsOf(response.Principles)
	patternIDs := idsOf(response.Patterns)
	author := "oracle"
	searchQuery := message

	reply := store.ForumMessage{
		ID:              uuid.NewString(),
		ThreadID:        thread.ID,
		Role:            store.RoleOracle,
		Content:         response.Guidance,
		Author:          &author,
		PrinciplesFound: principleIDs,
		PatternsFound:   patternIDs,
		SearchQuery:     &searchQuery,
	}
	if err := f.store.AddMessage(reply); err != nil {
		return nil, fmt.Errorf("adding oracle reply: %w", err)
	}
	return &reply, nil
}

func idsOf(items []consult.Bucketed) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

// UpdateStatus sets a thread's status; any transition is legal.
func (f *Forum) UpdateStatus(id string, status store.ThreadStatus) error {
	return f.store.UpdateThreadStatus(id, status)
}

// List returns threads, optionally filtered.
func (f *Forum) List(status string, project *string, limit, offset int) ([]*store.ForumThread, error) {
	return f.store.ListThreads(status, project, limit, offset)
}

// Messages returns every message in a thread, oldest first.
func (f *Forum) Messages(threadID string) ([]*store.ForumMessage, error) {
	return f.store.ListMessages(threadID)
}

func snippet(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
