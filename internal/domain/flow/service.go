// Package flow wires query building, work item retrieval and metric
// calculation into the operations the CLI and HTTP API expose.
package flow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"flowmetrics/internal/core/apperror"
	"flowmetrics/internal/domain/metrics"
	"flowmetrics/internal/domain/wiql"
	"flowmetrics/internal/domain/workitem"
	"flowmetrics/pkg/logger"
)

// ItemSource retrieves work items for a query.
type ItemSource interface {
	QueryWorkItems(ctx context.Context, q *wiql.Query) ([]workitem.WorkItem, error)
}

// SnapshotStore persists fetch results. Optional.
type SnapshotStore interface {
	Save(ctx context.Context, project, queryText string, items []workitem.WorkItem) (uuid.UUID, error)
	LoadLatest(ctx context.Context, project string) ([]workitem.WorkItem, error)
}

// QueryParser parses WIQL text, typically with memoization.
type QueryParser interface {
	Parse(text string) (*wiql.Query, error)
}

// FetchOptions controls what BuildQuery and Fetch retrieve.
type FetchOptions struct {
	Project       string
	DaysBack      int
	WorkItemTypes []string
	States        []string
	Assignees     []string
	Filters       []wiql.Filter
}

// ReportOptions controls report generation.
type ReportOptions struct {
	Fetch        FetchOptions
	Metrics      metrics.Options
	FromSnapshot bool
	Snapshot     bool
}

// ValidationResult is the outcome of checking WIQL text.
type ValidationResult struct {
	Valid     bool     `json:"valid"`
	Canonical string   `json:"canonical,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// Service coordinates the query engine, tracker client and stores.
type Service struct {
	source ItemSource
	store  SnapshotStore
	parser QueryParser
	fields *wiql.Registry
	log    *logger.Logger
}

// NewService creates a flow service. store may be nil when snapshot
// persistence is not configured.
func NewService(source ItemSource, store SnapshotStore, parser QueryParser, fields *wiql.Registry, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		source: source,
		store:  store,
		parser: parser,
		fields: fields,
		log:    log.WithComponent("flow"),
	}
}

// BuildQuery assembles and validates the work item query for the options.
func (s *Service) BuildQuery(opts FetchOptions) (*wiql.Query, error) {
	q := wiql.BuildWorkItemQuery(opts.Project, opts.DaysBack, opts.WorkItemTypes, opts.States, opts.Assignees, opts.Filters)
	if errs := wiql.Validate(q, s.fields); len(errs) > 0 {
		return nil, apperror.NewQueryValidation(errs)
	}
	return q, nil
}

// ValidateText parses user supplied WIQL and reports validation errors.
// Parse failures and validation errors both land in the result, not in
// the returned error.
func (s *Service) ValidateText(text string) ValidationResult {
	q, err := s.parser.Parse(text)
	if err != nil {
		return ValidationResult{Errors: []string{err.Error()}}
	}

	if errs := wiql.Validate(q, s.fields); len(errs) > 0 {
		return ValidationResult{Canonical: q.String(), Errors: errs}
	}
	return ValidationResult{Valid: true, Canonical: q.String()}
}

// Fetch retrieves work items from the tracker and, when a store is
// configured, persists them as a snapshot.
func (s *Service) Fetch(ctx context.Context, opts FetchOptions) ([]workitem.WorkItem, error) {
	return s.fetch(ctx, opts, true)
}

func (s *Service) fetch(ctx context.Context, opts FetchOptions, persist bool) ([]workitem.WorkItem, error) {
	q, err := s.BuildQuery(opts)
	if err != nil {
		return nil, err
	}

	items, err := s.source.QueryWorkItems(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch work items: %w", err)
	}
	s.log.Infow("fetched work items", "project", opts.Project, "count", len(items))

	if persist && s.store != nil {
		if _, err := s.store.Save(ctx, opts.Project, q.String(), items); err != nil {
			return nil, fmt.Errorf("save snapshot: %w", err)
		}
	}
	return items, nil
}

// Report produces a flow metrics report, fetching fresh data or reading
// the latest snapshot.
func (s *Service) Report(ctx context.Context, opts ReportOptions) (*metrics.Report, error) {
	var (
		items []workitem.WorkItem
		err   error
	)

	if opts.FromSnapshot {
		if s.store == nil {
			return nil, apperror.NewValidation("snapshot store is not configured")
		}
		items, err = s.store.LoadLatest(ctx, opts.Fetch.Project)
	} else {
		items, err = s.fetch(ctx, opts.Fetch, opts.Snapshot)
	}
	if err != nil {
		return nil, err
	}

	report, err := metrics.Calculate(items, opts.Metrics)
	if err != nil {
		return nil, err
	}
	return report, nil
}
