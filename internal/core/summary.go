package core

import (
	"maps"
	"slices"

	"github.com/shopspring/decimal"
)

// CategoryTotal represents an amount aggregated by a grouping value.
type CategoryTotal struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

// Breakdown is ordered by descending total.
type Breakdown []CategoryTotal

// LevelCounts counts records per secondary value (comprehension level).
type LevelCounts map[string]int

// NewLevelCounts returns counts pre-populated with every level plus UnknownLevel at zero.
func NewLevelCounts(levels []string) LevelCounts {
	lc := make(LevelCounts, len(levels)+1)
	for _, l := range levels {
		lc[l] = 0
	}
	lc[UnknownLevel] = 0
	return lc
}

// Distribution maps a primary value (topic) to its level counts.
type Distribution map[string]LevelCounts

// Clone returns a deep copy.
func (d Distribution) Clone() Distribution {
	if d == nil {
		return nil
	}
	out := make(Distribution, len(d))
	for k, counts := range d {
		out[k] = maps.Clone(counts)
	}
	return out
}

// ExpenseSummary is what the expense dashboard shows for a period.
type ExpenseSummary struct {
	Date           Date            `json:"date"`
	Total          decimal.Decimal `json:"total"`
	TotalFormatted string          `json:"total_formatted"`
	ByCategory     Breakdown       `json:"by_category"`
}

// StudySummary is what the study dashboard shows for a period.
type StudySummary struct {
	Date                 Date            `json:"date"`
	TotalMinutes         decimal.Decimal `json:"total_minutes"`
	TotalFormatted       string          `json:"total_formatted"`
	BySubject            Breakdown       `json:"by_subject"`
	ComprehensionByTopic Distribution    `json:"comprehension_by_topic"`
}

// Clone returns a copy that shares nothing with s.
func (s ExpenseSummary) Clone() ExpenseSummary {
	s.ByCategory = slices.Clone(s.ByCategory)
	return s
}

// Clone returns a copy that shares nothing with s.
func (s StudySummary) Clone() StudySummary {
	s.BySubject = slices.Clone(s.BySubject)
	s.ComprehensionByTopic = s.ComprehensionByTopic.Clone()
	return s
}
