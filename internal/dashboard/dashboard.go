// Package dashboard implements C11: pure read-only aggregations over the
// telemetry tables. Nothing in this package writes.
package dashboard

import (
	"sort"
	"time"

	"github.com/oracle-mind/oracle/internal/store"
)

const (
	sevenDays = 7 * 24 * time.Hour
)

// ConceptCount is one entry in the top-concepts listing.
type ConceptCount struct {
	Concept string
	Count   int
}

// Summary is the oracle_stats / dashboard summary shape.
type Summary struct {
	TotalDocuments int
	CountsByType   map[string]int
	TotalConcepts  int
	TopConcepts    []ConceptCount
	Consultations7d int
	Searches7d      int
	Learnings7d     int
	FTSStatus       string
	LastIndexed     *time.Time
}

// ActivityRow is one row of the activity() listing, with content already
// truncated.
type ActivityRow struct {
	Kind      string
	Content   string
	CreatedAt time.Time
}

// GrowthPoint is one day's growth counters.
type GrowthPoint struct {
	Day           string
	NewDocuments  int
	Consultations int
	Searches      int
}

// SessionStats is the session/stats(since) shape.
type SessionStats struct {
	Searches      int
	Consultations int
	Learnings     int
}

// Dashboard bundles the store a dashboard call needs.
type Dashboard struct {
	store *store.Store
}

// New builds a Dashboard.
func New(s *store.Store) *Dashboard {
	return &Dashboard{store: s}
}

// Summary aggregates the headline dashboard numbers.
func (d *Dashboard) Summary() (*Summary, error) {
	total, err := d.store.TotalDocuments()
	if err != nil {
		return nil, err
	}
	byType, err := d.store.CountByType()
	if err != nil {
		return nil, err
	}
	conceptCounts, err := d.store.ConceptCounts("")
	if err != nil {
		return nil, err
	}

	totalConcepts := 0
	for _, n := range conceptCounts {
		totalConcepts += n
	}
	top := topConcepts(conceptCounts, 10)

	since := time.Now().Add(-sevenDays)
	consults, err := d.store.CountConsultsSince(since)
	if err != nil {
		return nil, err
	}
	searches, err := d.store.CountSearchesSince(since)
	if err != nil {
		return nil, err
	}
	learns, err := d.store.CountLearnsSince(since)
	if err != nil {
		return nil, err
	}

	status, err := d.store.GetIndexingStatus()
	if err != nil {
		return nil, err
	}
	ftsStatus := "ok"
	if status.Error != nil {
		ftsStatus = "degraded"
	}

	return &Summary{
		TotalDocuments:  total,
		CountsByType:    byType,
		TotalConcepts:   totalConcepts,
		TopConcepts:     top,
		Consultations7d: consults,
		Searches7d:      searches,
		Learnings7d:     learns,
		FTSStatus:       ftsStatus,
		LastIndexed:     status.CompletedAt,
	}, nil
}

func topConcepts(counts map[string]int, n int) []ConceptCount {
	items := make([]ConceptCount, 0, len(counts))
	for concept, count := range counts {
		items = append(items, ConceptCount{Concept: concept, Count: count})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Concept < items[j].Concept
	})
	if len(items) > n {
		items = items[:n]
	}
	return items
}

const activityCap = 20

// Activity returns the last N days' rows per log table, capped at 20
// each.
func (d *Dashboard) Activity(days int) ([]ActivityRow, error) {
	since := time.Now().Add(-time.Duration(days) * 24 * time.Hour)

	searches, err := d.store.RecentSearches(since, activityCap)
	if err != nil {
		return nil, err
	}
	consults, err := d.store.RecentConsults(since, activityCap)
	if err != nil {
		return nil, err
	}
	learns, err := d.store.RecentLearns(since, activityCap)
	if err != nil {
		return nil, err
	}

	var rows []ActivityRow
	for _, r := range searches {
		rows = append(rows, ActivityRow{Kind: "search", Content: truncate(r.Content, 100), CreatedAt: r.CreatedAt})
	}
	for _, r := range consults {
		rows = append(rows, ActivityRow{Kind: "consult", Content: truncate(r.Content, 100), CreatedAt: r.CreatedAt})
	}
	for _, r := range learns {
		rows = append(rows, ActivityRow{Kind: "learn", Content: truncate(r.Content, 100), CreatedAt: r.CreatedAt})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	return rows, nil
}

// periodDays maps a named period to its window size.
var periodDays = map[string]int{"week": 7, "month": 30, "quarter": 90}

// Growth buckets new documents, consultations, and searches by day over
// the requested period.
func (d *Dashboard) Growth(period string) ([]GrowthPoint, error) {
	days, ok := periodDays[period]
	if !ok {
		days = 7
	}
	since := time.Now().Add(-time.Duration(days) * 24 * time.Hour)

	docCounts, err := d.store.DailyDocumentCounts(since)
	if err != nil {
		return nil, err
	}
	consultCounts, err := d.store.DailyConsultCounts(since)
	if err != nil {
		return nil, err
	}
	searchCounts, err := d.store.DailySearchCounts(since)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]*GrowthPoint)
	order := []string{}
	ensure := func(day string) *GrowthPoint {
		if p, ok := byDay[day]; ok {
			return p
		}
		p := &GrowthPoint{Day: day}
		byDay[day] = p
		order = append(order, day)
		return p
	}
	for _, c := range docCounts {
		ensure(c.Day).NewDocuments = c.Count
	}
	for _, c := range consultCounts {
		ensure(c.Day).Consultations = c.Count
	}
	for _, c := range searchCounts {
		ensure(c.Day).Searches = c.Count
	}

	sort.Strings(order)
	points := make([]GrowthPoint, len(order))
	for i, day := range order {
		points[i] = *byDay[day]
	}
	return points, nil
}

// SessionStatsSince counts activity with created_at > since.
func (d *Dashboard) SessionStatsSince(since time.Time) (*SessionStats, error) {
	searches, err := d.store.CountSearchesSince(since)
	if err != nil {
		return nil, err
	}
	consults, err := d.store.CountConsultsSince(since)
	if err != nil {
		return nil, err
	}
	learns, err := d.store.CountLearnsSince(since)
	if err != nil {
		return nil, err
	}
	return &SessionStats{Searches: searches, Consultations: consults, Learnings: learns}, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
