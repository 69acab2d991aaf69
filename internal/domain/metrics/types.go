// Package metrics computes date-based flow metrics over work items.
package metrics

import "time"

// Options controls a metrics run.
type Options struct {
	// Filter is an optional CEL expression; items it rejects are excluded
	// from every metric. Empty means no filtering.
	Filter string

	// ThroughputWeeks caps how many trailing weeks the throughput series
	// covers. Defaults to 12.
	ThroughputWeeks int
}

// Summary aggregates a duration metric in days.
type Summary struct {
	Count       int     `json:"count"`
	AverageDays float64 `json:"averageDays"`
	MedianDays  float64 `json:"medianDays"`
	P85Days     float64 `json:"p85Days"`
}

// WeekCount is one point of the throughput series: items closed in the
// ISO week starting at WeekStart.
type WeekCount struct {
	WeekStart time.Time `json:"weekStart"`
	Closed    int       `json:"closed"`
}

// Report is the full flow metrics report for one item set.
type Report struct {
	GeneratedAt time.Time `json:"generatedAt"`
	TotalItems  int       `json:"totalItems"`
	Excluded    int       `json:"excluded"`

	LeadTime  Summary `json:"leadTime"`
	CycleTime Summary `json:"cycleTime"`

	Throughput []WeekCount `json:"throughput"`

	ByState    map[string]int `json:"byState"`
	ByType     map[string]int `json:"byType"`
	ByAssignee map[string]int `json:"byAssignee"`
}
