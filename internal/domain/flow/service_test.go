package flow

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowmetrics/internal/domain/metrics"
	"flowmetrics/internal/domain/wiql"
	"flowmetrics/internal/domain/workitem"
)

type fakeSource struct {
	items     []workitem.WorkItem
	lastQuery *wiql.Query
	calls     int
}

func (f *fakeSource) QueryWorkItems(_ context.Context, q *wiql.Query) ([]workitem.WorkItem, error) {
	f.lastQuery = q
	f.calls++
	return f.items, nil
}

type fakeStore struct {
	saved     []workitem.WorkItem
	saveCalls int
	latest    []workitem.WorkItem
}

func (f *fakeStore) Save(_ context.Context, _, _ string, items []workitem.WorkItem) (uuid.UUID, error) {
	f.saved = items
	f.saveCalls++
	return uuid.New(), nil
}

func (f *fakeStore) LoadLatest(_ context.Context, _ string) ([]workitem.WorkItem, error) {
	return f.latest, nil
}

type passthroughParser struct{}

func (passthroughParser) Parse(text string) (*wiql.Query, error) {
	return wiql.Parse(text)
}

func closedItem(id int, state string) workitem.WorkItem {
	return workitem.WorkItem{ID: id, Fields: map[string]any{
		"System.State":                     state,
		"System.WorkItemType":              "Bug",
		"System.CreatedDate":               "2026-01-01T00:00:00Z",
		"Microsoft.VSTS.Common.ClosedDate": "2026-01-11T00:00:00Z",
	}}
}

func newTestService(src *fakeSource, store *fakeStore) *Service {
	var s SnapshotStore
	if store != nil {
		s = store
	}
	return NewService(src, s, passthroughParser{}, wiql.NewRegistry(), nil)
}

func TestBuildQuery_Valid(t *testing.T) {
	svc := newTestService(&fakeSource{}, nil)

	q, err := svc.BuildQuery(FetchOptions{
		Project:       "Fabrikam",
		DaysBack:      30,
		WorkItemTypes: []string{"Bug", "Task"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Fabrikam", q.ProjectFilter)
	assert.Contains(t, q.String(), "[System.WorkItemType] IN ('Bug', 'Task')")
}

func TestValidateText(t *testing.T) {
	svc := newTestService(&fakeSource{}, nil)

	res := svc.ValidateText("SELECT [System.Id] FROM WorkItems WHERE [System.State] = 'Active'")
	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	assert.Contains(t, res.Canonical, "WHERE [System.State] = 'Active'")

	res = svc.ValidateText("SELECT [System.Id] FROM WorkItems WHERE [System.Id] LIKE 'x'")
	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.NotEmpty(t, res.Canonical)
}

func TestFetch_SavesSnapshot(t *testing.T) {
	src := &fakeSource{items: []workitem.WorkItem{closedItem(1, "Closed")}}
	store := &fakeStore{}
	svc := newTestService(src, store)

	items, err := svc.Fetch(context.Background(), FetchOptions{Project: "Fabrikam"})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, store.saveCalls)
	require.NotNil(t, src.lastQuery)
	assert.Equal(t, "Fabrikam", src.lastQuery.ProjectFilter)
}

func TestReport_FreshFetchDoesNotPersist(t *testing.T) {
	src := &fakeSource{items: []workitem.WorkItem{closedItem(1, "Closed"), closedItem(2, "Closed")}}
	store := &fakeStore{}
	svc := newTestService(src, store)

	report, err := svc.Report(context.Background(), ReportOptions{
		Fetch: FetchOptions{Project: "Fabrikam"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalItems)
	assert.Equal(t, 0, store.saveCalls)
	assert.Equal(t, 1, src.calls)
}

func TestReport_FromSnapshot(t *testing.T) {
	src := &fakeSource{}
	store := &fakeStore{latest: []workitem.WorkItem{closedItem(1, "Closed")}}
	svc := newTestService(src, store)

	report, err := svc.Report(context.Background(), ReportOptions{
		Fetch:        FetchOptions{Project: "Fabrikam"},
		FromSnapshot: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalItems)
	assert.Equal(t, 0, src.calls)
}

func TestReport_FromSnapshotWithoutStore(t *testing.T) {
	svc := newTestService(&fakeSource{}, nil)

	_, err := svc.Report(context.Background(), ReportOptions{
		Fetch:        FetchOptions{Project: "Fabrikam"},
		FromSnapshot: true,
	})
	require.Error(t, err)
}

func TestReport_MetricsFilterApplied(t *testing.T) {
	src := &fakeSource{items: []workitem.WorkItem{closedItem(1, "Closed"), closedItem(2, "Active")}}
	svc := newTestService(src, nil)

	report, err := svc.Report(context.Background(), ReportOptions{
		Fetch:   FetchOptions{Project: "Fabrikam"},
		Metrics: metrics.Options{Filter: `state == "Closed"`},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalItems)
	assert.Equal(t, 1, report.Excluded)
}
