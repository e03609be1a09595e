package store

import "encoding/json"

// GraphNode is one node in the concept graph: a principle or a sampled
// learning, carrying the concepts used to compute edges.
type GraphNode struct {
	ID       string   `db:"id"`
	Type     string   `db:"type"`
	Title    string   `db:"title"`
	Concepts []string
}

type graphRow struct {
	ID       string `db:"id"`
	Type     string `db:"type"`
	Title    string `db:"title"`
	Concepts string `db:"concepts"`
}

// GraphEdge connects two nodes that share at least one concept; Weight is
// the size of the intersection.
type GraphEdge struct {
	Source string
	Target string
	Weight int
}

// GraphNodes returns every principle plus a random sample of up to 100
// learnings, joined against the FTS title column.
func (s *Store) GraphNodes(learningSampleSize int) ([]GraphNode, error) {
	var rows []graphRow
	query := `
		SELECT d.id AS id, d.type AS type, f.title AS title, d.concepts AS concepts
		FROM oracle_documents d
		JOIN oracle_fts f ON f.id = d.id
		WHERE d.type = ?
	`
	if err := s.db.Select(&rows, query, string(TypePrinciple)); err != nil {
		return nil, err
	}

	var learningRows []graphRow
	learningQuery := `
		SELECT d.id AS id, d.type AS type, f.title AS title, d.concepts AS concepts
		FROM oracle_documents d
		JOIN oracle_fts f ON f.id = d.id
		WHERE d.type = ?
		ORDER BY RANDOM()
		LIMIT ?
	`
	if err := s.db.Select(&learningRows, learningQuery, string(TypeLearning), learningSampleSize); err != nil {
		return nil, err
	}
	rows = append(rows, learningRows...)

	nodes := make([]GraphNode, 0, len(rows))
	for _, r := range rows {
		var concepts []string
		if r.Concepts != "" {
			if err := json.Unmarshal([]byte(r.Concepts), &concepts); err != nil {
				return nil, err
			}
		}
		nodes = append(nodes, GraphNode{ID: r.ID, Type: r.Type, Title: r.Title, Concepts: concepts})
	}
	return nodes, nil
}

// GraphEdges computes shared-concept edges between every pair of nodes
// with a non-empty intersection.
func GraphEdges(nodes []GraphNode) []GraphEdge {
	var edges []GraphEdge
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			w := intersectionSize(nodes[i].Concepts, nodes[j].Concepts)
			if w > 0 {
				edges = append(edges, GraphEdge{Source: nodes[i].ID, Target: nodes[j].ID, Weight: w})
			}
		}
	}
	return edges
}

func intersectionSize(a, b []string) int {
	set := make(map[string]struct{}, len(a))
	for _, c := range a {
		set[c] = struct{}{}
	}
	n := 0
	for _, c := range b {
		if _, ok := set[c]; ok {
			n++
		}
	}
	return n
}
