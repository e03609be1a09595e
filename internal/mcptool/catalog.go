package mcptool

// Tools returns the tools/list catalog: one entry per component operation
// exposed to callers.
func Tools() []Tool {
	return []Tool{
		{
			Name:        "oracle_search",
			Description: "Hybrid keyword + vector search across the knowledge corpus.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"query":   {Type: "string", Description: "Search query"},
					"type":    {Type: "string", Description: "Document type filter, or 'all'"},
					"limit":   {Type: "integer", Description: "Max results, default 10, max 100"},
					"offset":  {Type: "integer", Description: "Pagination offset"},
					"mode":    {Type: "string", Description: "'hybrid' (default), 'fts', or 'vector'"},
					"project": {Type: "string", Description: "Project slug filter; pass null to restrict to unassigned documents"},
					"cwd":     {Type: "string", Description: "Working directory for project auto-detection"},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        "oracle_consult",
			Description: "Ask the oracle for guidance on a decision, synthesized from principles and patterns.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"decision": {Type: "string", Description: "The decision under consideration"},
					"context":  {Type: "string", Description: "Additional context"},
					"project":  {Type: "string", Description: "Project slug filter"},
				},
				Required: []string{"decision"},
			},
		},
		{
			Name:        "oracle_reflect",
			Description: "Return one randomly-chosen principle or learning document with full content.",
			InputSchema: InputSchema{Type: "object"},
		},
		{
			Name:        "oracle_learn",
			Description: "Record a new pattern as a learning document, indexed immediately for keyword search.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"pattern":  {Type: "string", Description: "The pattern or lesson learned"},
					"source":   {Type: "string", Description: "Where this pattern came from"},
					"concepts": {Type: "array", Description: "Concept tags", Items: &Items{Type: "string"}},
					"origin":   {Type: "string", Description: "Origin marker (e.g. 'mother', 'arthur', 'volt', 'human')"},
					"project":  {Type: "string", Description: "Project slug"},
					"cwd":      {Type: "string", Description: "Working directory for project auto-detection"},
					"by":       {Type: "string", Description: "Author identifier"},
				},
				Required: []string{"pattern"},
			},
		},
		{
			Name:        "oracle_list",
			Description: "List indexed documents, optionally grouped by source file (default true).",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"type":        {Type: "string", Description: "Document type filter, or 'all'"},
					"limit":       {Type: "integer", Description: "Max results, default 20"},
					"offset":      {Type: "integer", Description: "Pagination offset"},
					"groupByFile": {Type: "boolean", Description: "Collapse chunks of the same source file, default true"},
				},
			},
		},
		{
			Name:        "oracle_stats",
			Description: "Return the dashboard summary: document counts, top concepts, and recent activity totals.",
			InputSchema: InputSchema{Type: "object"},
		},
		{
			Name:        "oracle_concepts",
			Description: "Return concept tag counts, sorted descending, optionally filtered by type.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"type":  {Type: "string", Description: "Document type filter"},
					"limit": {Type: "integer", Description: "Max results, default 20"},
				},
			},
		},
		{
			Name:        "oracle_thread",
			Description: "Post a message to a discussion thread, creating it if threadId is omitted; the oracle auto-replies via consult unless role is 'oracle'.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"message":  {Type: "string", Description: "Message content"},
					"threadId": {Type: "string", Description: "Existing thread id; omit to start a new thread"},
					"title":    {Type: "string", Description: "Title for a new thread"},
					"role":     {Type: "string", Description: "'human' (default), 'oracle', or 'claude'"},
					"project":  {Type: "string", Description: "Project slug"},
				},
				Required: []string{"message"},
			},
		},
		{
			Name:        "oracle_threads",
			Description: "List discussion threads, optionally filtered by status and project.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"status":  {Type: "string", Description: "'active', 'answered', 'pending', or 'closed'"},
					"project": {Type: "string", Description: "Project slug filter"},
					"limit":   {Type: "integer", Description: "Max results, default 20"},
					"offset":  {Type: "integer", Description: "Pagination offset"},
				},
			},
		},
		{
			Name:        "oracle_thread_read",
			Description: "Fetch a thread and every message in it, oldest first.",
			InputSchema: InputSchema{
				Type:       "object",
				Properties: map[string]Property{"threadId": {Type: "string", Description: "Thread id"}},
				Required:   []string{"threadId"},
			},
		},
		{
			Name:        "oracle_thread_update",
			Description: "Set a thread's status; any transition between active/answered/pending/closed is legal.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"threadId": {Type: "string", Description: "Thread id"},
					"status":   {Type: "string", Description: "'active', 'answered', 'pending', or 'closed'"},
				},
				Required: []string{"threadId", "status"},
			},
		},
		{
			Name:        "oracle_decisions_list",
			Description: "List decisions, optionally filtered by status and project.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"status":  {Type: "string", Description: "One of the decision lifecycle states"},
					"project": {Type: "string", Description: "Project slug filter"},
					"limit":   {Type: "integer", Description: "Max results, default 20"},
					"offset":  {Type: "integer", Description: "Pagination offset"},
				},
			},
		},
		{
			Name:        "oracle_decisions_create",
			Description: "Create a new decision record in the pending state.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"title":     {Type: "string", Description: "Decision title"},
					"context":   {Type: "string", Description: "Background context"},
					"options":   {Type: "array", Description: "Options considered", Items: &Items{Type: "string"}},
					"decision":  {Type: "string", Description: "The chosen option, if already known"},
					"rationale": {Type: "string", Description: "Why this option was chosen"},
					"project":   {Type: "string", Description: "Project slug"},
					"tags":      {Type: "array", Description: "Free-form tags", Items: &Items{Type: "string"}},
				},
				Required: []string{"title"},
			},
		},
		{
			Name:        "oracle_decisions_get",
			Description: "Fetch one decision by id.",
			InputSchema: InputSchema{
				Type:       "object",
				Properties: map[string]Property{"id": {Type: "string", Description: "Decision id"}},
				Required:   []string{"id"},
			},
		},
		{
			Name:        "oracle_decisions_update",
			Description: "Patch a decision's content, or transition its status through the legal-edge graph. Pass status to transition; otherwise the free-form fields are patched.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"id":        {Type: "string", Description: "Decision id"},
					"title":     {Type: "string", Description: "Decision title"},
					"context":   {Type: "string", Description: "Background context"},
					"options":   {Type: "array", Description: "Options considered", Items: &Items{Type: "string"}},
					"decision":  {Type: "string", Description: "The chosen option"},
					"rationale": {Type: "string", Description: "Why this option was chosen"},
					"tags":      {Type: "array", Description: "Free-form tags", Items: &Items{Type: "string"}},
					"status":    {Type: "string", Description: "New status; triggers a transition instead of a content patch"},
					"decidedBy": {Type: "string", Description: "Who made the decision, stamped when entering 'decided'"},
				},
				Required: []string{"id"},
			},
		},
		{
			Name:        "oracle_trace",
			Description: "Create a new discovery-session trace, optionally as a child of an existing one.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"traceId":       {Type: "string", Description: "Caller-assigned trace id"},
					"query":         {Type: "string", Description: "The question this discovery session is chasing"},
					"queryType":     {Type: "string", Description: "Free-form category for the query"},
					"digPoints":     {Type: "object", Description: "Evidence arrays: files, commits, issues, retros, learnings, resonance"},
					"parentTraceId": {Type: "string", Description: "Parent trace id, if this is a sub-dig"},
					"project":       {Type: "string", Description: "Project slug"},
				},
				Required: []string{"traceId", "query"},
			},
		},
		{
			Name:        "oracle_trace_list",
			Description: "List traces, optionally filtered by status and project.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"status":  {Type: "string", Description: "'raw', 'reviewed', 'distilling', or 'distilled'"},
					"project": {Type: "string", Description: "Project slug filter"},
					"limit":   {Type: "integer", Description: "Max results, default 20"},
					"offset":  {Type: "integer", Description: "Pagination offset"},
				},
			},
		},
		{
			Name:        "oracle_trace_get",
			Description: "Fetch one trace, or its full ancestor/descendant chain when chain=true.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"traceId":   {Type: "string", Description: "Trace id"},
					"chain":     {Type: "boolean", Description: "Walk the forest instead of returning just this node"},
					"direction": {Type: "string", Description: "'up', 'down', or 'both' (default), only used when chain=true"},
				},
				Required: []string{"traceId"},
			},
		},
	}
}
