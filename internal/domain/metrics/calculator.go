package metrics

import (
	"fmt"
	"sort"
	"time"

	"flowmetrics/internal/domain/workitem"
)

const defaultThroughputWeeks = 12

// Calculate computes the flow metrics report for a set of work items.
// Lead time runs from creation to close, cycle time from activation to
// close; items missing either boundary date simply do not contribute to
// that metric.
func Calculate(items []workitem.WorkItem, opts Options) (*Report, error) {
	var filter *ItemFilter
	if opts.Filter != "" {
		var err error
		filter, err = NewItemFilter(opts.Filter)
		if err != nil {
			return nil, err
		}
	}

	weeks := opts.ThroughputWeeks
	if weeks <= 0 {
		weeks = defaultThroughputWeeks
	}

	report := &Report{
		GeneratedAt: time.Now().UTC(),
		ByState:     make(map[string]int),
		ByType:      make(map[string]int),
		ByAssignee:  make(map[string]int),
	}

	var leadDays, cycleDays []float64
	var closedDates []time.Time

	for _, item := range items {
		if filter != nil {
			ok, err := filter.Matches(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", item.ID, err)
			}
			if !ok {
				report.Excluded++
				continue
			}
		}

		report.TotalItems++

		if s := item.State(); s != "" {
			report.ByState[s]++
		}
		if t := item.Type(); t != "" {
			report.ByType[t]++
		}
		if a := item.AssignedTo(); a != "" {
			report.ByAssignee[a]++
		}

		closed, hasClosed := item.ClosedDate()
		if !hasClosed {
			continue
		}
		closedDates = append(closedDates, closed)

		if created, ok := item.CreatedDate(); ok && !closed.Before(created) {
			leadDays = append(leadDays, closed.Sub(created).Hours()/24)
		}
		if activated, ok := item.ActivatedDate(); ok && !closed.Before(activated) {
			cycleDays = append(cycleDays, closed.Sub(activated).Hours()/24)
		}
	}

	report.LeadTime = summarize(leadDays)
	report.CycleTime = summarize(cycleDays)
	report.Throughput = throughput(closedDates, weeks)

	return report, nil
}

// summarize computes count, mean, median and 85th percentile.
func summarize(days []float64) Summary {
	if len(days) == 0 {
		return Summary{}
	}

	sorted := append([]float64(nil), days...)
	sort.Float64s(sorted)

	var sum float64
	for _, d := range sorted {
		sum += d
	}

	return Summary{
		Count:       len(sorted),
		AverageDays: sum / float64(len(sorted)),
		MedianDays:  percentile(sorted, 0.5),
		P85Days:     percentile(sorted, 0.85),
	}
}

// percentile uses nearest-rank on a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(p*float64(len(sorted))+0.5) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

// throughput buckets close dates into trailing calendar weeks (Monday
// start), oldest first.
func throughput(closed []time.Time, weeks int) []WeekCount {
	if len(closed) == 0 {
		return nil
	}

	end := weekStart(time.Now().UTC())
	start := end.AddDate(0, 0, -7*(weeks-1))

	buckets := make(map[time.Time]int)
	for _, c := range closed {
		ws := weekStart(c.UTC())
		if ws.Before(start) || ws.After(end) {
			continue
		}
		buckets[ws]++
	}

	series := make([]WeekCount, 0, weeks)
	for ws := start; !ws.After(end); ws = ws.AddDate(0, 0, 7) {
		series = append(series, WeekCount{WeekStart: ws, Closed: buckets[ws]})
	}
	return series
}

func weekStart(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday belongs to the preceding Monday week
	}
	return t.AddDate(0, 0, -(weekday - 1))
}
