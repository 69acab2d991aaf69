package wiql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_EndToEnd(t *testing.T) {
	q, err := Parse("SELECT [System.Id], [System.Title] FROM WorkItems " +
		"WHERE [System.State] <> 'Closed' AND [System.Priority] <= 2 " +
		"ORDER BY [System.Priority] ASC")
	require.NoError(t, err)

	assert.Equal(t, []string{"System.Id", "System.Title"}, q.SelectFields)
	assert.Equal(t, "WorkItems", q.From)

	require.Len(t, q.Conditions, 2)
	assert.Equal(t, Condition{Field: "System.State", Operator: OpNotEqual, Value: "Closed"}, q.Conditions[0])
	assert.Equal(t, Condition{Field: "System.Priority", Operator: OpLessOrEqual, Value: 2, Connective: ConnectiveAnd}, q.Conditions[1])

	require.Len(t, q.OrderBy, 1)
	assert.Equal(t, OrderBy{Field: "System.Priority", Direction: Ascending}, q.OrderBy[0])

	assert.Empty(t, Validate(q, NewRegistry()))
}

func TestParse_Defaults(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantSelect []string
		wantFrom   string
	}{
		{
			name:       "no select clause",
			text:       "WHERE [System.State] = 'Active'",
			wantSelect: []string{FieldID},
			wantFrom:   DefaultFrom,
		},
		{
			name:       "wildcard select",
			text:       "SELECT * FROM WorkItems",
			wantSelect: []string{Wildcard},
			wantFrom:   "WorkItems",
		},
		{
			name:       "empty text",
			text:       "",
			wantSelect: []string{FieldID},
			wantFrom:   DefaultFrom,
		},
		{
			name:       "custom from entity",
			text:       "SELECT [System.Id] FROM WorkItemLinks",
			wantSelect: []string{FieldID},
			wantFrom:   "WorkItemLinks",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Parse(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSelect, q.SelectFields)
			assert.Equal(t, tt.wantFrom, q.From)
		})
	}
}

func TestParse_Comments(t *testing.T) {
	q, err := Parse(`SELECT [System.Id] -- trailing comment
		FROM WorkItems /* block
		comment */ WHERE [System.State] = 'Active'`)
	require.NoError(t, err)

	assert.Equal(t, []string{FieldID}, q.SelectFields)
	require.Len(t, q.Conditions, 1)
	assert.Equal(t, "Active", q.Conditions[0].Value)
}

func TestParse_Top(t *testing.T) {
	q, err := Parse("SELECT TOP 50 [System.Id] FROM WorkItems")
	require.NoError(t, err)
	assert.Equal(t, 50, q.Top)
	assert.Equal(t, []string{FieldID}, q.SelectFields)
}

func TestParse_MultiWordOperators(t *testing.T) {
	tests := []struct {
		text   string
		wantOp Operator
	}{
		{"[System.State] NOT IN ('Closed', 'Removed')", OpNotIn},
		{"[System.State] IN ('Active')", OpIn},
		{"[System.ChangedDate] NOT EVER '2024-01-01'", OpNotEver},
		{"[System.ChangedDate] WAS EVER '2024-01-01'", OpWasEver},
		{"[System.ChangedDate] CHANGED DATE '2024-01-01'", OpChangedDate},
		{"[System.ChangedBy] CHANGED BY 'dev@example.com'", OpChangedBy},
		{"[System.AreaPath] UNDER 'Project\\Team'", OpUnder},
		{"[System.Title] CONTAINS 'bug'", OpContains},
	}

	for _, tt := range tests {
		t.Run(string(tt.wantOp), func(t *testing.T) {
			q, err := Parse("SELECT [System.Id] FROM WorkItems WHERE " + tt.text)
			require.NoError(t, err)
			require.Len(t, q.Conditions, 1)
			assert.Equal(t, tt.wantOp, q.Conditions[0].Operator)
		})
	}
}

func TestParse_ValuePrecedence(t *testing.T) {
	tests := []struct {
		name string
		text string
		want any
	}{
		{"single quoted string", "[System.Title] = 'hello'", "hello"},
		{"double quoted string", `[System.Title] = "hello"`, "hello"},
		{"quoted number stays string", "[System.Title] = '42'", "42"},
		{"boolean true", "[Custom.Blocked] = TRUE", true},
		{"boolean false", "[Custom.Blocked] = false", false},
		{"integer", "[System.Priority] = 2", 2},
		{"negative integer", "[System.Priority] = -1", -1},
		{"float", "[Microsoft.VSTS.Scheduling.StoryPoints] = 2.5", 2.5},
		{"null sentinel", "[System.AssignedTo] = null", SentinelNull},
		{"today sentinel", "[System.ChangedDate] = @today", SentinelToday},
		{"me sentinel", "[System.AssignedTo] = @Me", SentinelMe},
		{"raw fallback", "[System.ChangedDate] = 2024-01-01", "2024-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Parse("SELECT [System.Id] FROM WorkItems WHERE " + tt.text)
			require.NoError(t, err)
			require.Len(t, q.Conditions, 1)
			assert.Equal(t, tt.want, q.Conditions[0].Value)
		})
	}
}

func TestParse_ListValues(t *testing.T) {
	q, err := Parse("SELECT [System.Id] FROM WorkItems " +
		"WHERE [System.WorkItemType] IN ('Bug', 'Task', 'User Story')")
	require.NoError(t, err)

	require.Len(t, q.Conditions, 1)
	assert.Equal(t, []any{"Bug", "Task", "User Story"}, q.Conditions[0].Value)
}

func TestParse_Connectives(t *testing.T) {
	q, err := Parse("SELECT [System.Id] FROM WorkItems WHERE " +
		"[System.State] = 'Active' OR [System.State] = 'New' AND [System.Priority] = 1")
	require.NoError(t, err)

	require.Len(t, q.Conditions, 3)
	assert.Equal(t, Connective(""), q.Conditions[0].Connective)
	assert.Equal(t, ConnectiveOr, q.Conditions[1].Connective)
	assert.Equal(t, ConnectiveAnd, q.Conditions[2].Connective)
}

// Parentheses are not grouping: the grammar is flat and grouped input
// degrades to its member conditions in source order.
func TestParse_ParenthesesFlattened(t *testing.T) {
	q, err := Parse("SELECT [System.Id] FROM WorkItems WHERE " +
		"([System.State] = 'Active' OR [System.State] = 'New') AND [System.Priority] = 1")
	require.NoError(t, err)

	require.Len(t, q.Conditions, 3)
	assert.Equal(t, "System.State", q.Conditions[0].Field)
	assert.Equal(t, "Active", q.Conditions[0].Value)
	assert.Equal(t, "New", q.Conditions[1].Value)
	assert.Equal(t, 1, q.Conditions[2].Value)
}

// Quoted values containing connective words must not be split.
func TestParse_ConnectiveInsideQuotes(t *testing.T) {
	q, err := Parse("SELECT [System.Id] FROM WorkItems WHERE " +
		"[System.TeamProject] = 'Research and Development'")
	require.NoError(t, err)

	require.Len(t, q.Conditions, 1)
	assert.Equal(t, "Research and Development", q.Conditions[0].Value)
}

// A fragment that does not match `[field] OPERATOR value` is dropped,
// never a parse failure.
func TestParse_MalformedConditionSkipped(t *testing.T) {
	q, err := Parse("SELECT [System.Id] FROM WorkItems WHERE " +
		"[System.State] = 'Active' AND garbage without operator")
	require.NoError(t, err)

	require.Len(t, q.Conditions, 1)
	assert.Equal(t, "System.State", q.Conditions[0].Field)
}

func TestParse_ProjectFilter(t *testing.T) {
	q, err := Parse("SELECT [System.Id] FROM WorkItems WHERE " +
		"[System.TeamProject] = 'Phoenix' AND [System.State] = 'Active'")
	require.NoError(t, err)
	assert.Equal(t, "Phoenix", q.ProjectFilter)

	q, err = Parse("SELECT [System.Id] FROM WorkItems WHERE [System.State] = 'Active'")
	require.NoError(t, err)
	assert.Empty(t, q.ProjectFilter)
}

func TestParse_OrderBy(t *testing.T) {
	q, err := Parse("SELECT [System.Id] FROM WorkItems " +
		"ORDER BY [System.Priority] DESC, [System.CreatedDate]")
	require.NoError(t, err)

	require.Len(t, q.OrderBy, 2)
	assert.Equal(t, OrderBy{Field: "System.Priority", Direction: Descending}, q.OrderBy[0])
	assert.Equal(t, OrderBy{Field: "System.CreatedDate", Direction: Ascending}, q.OrderBy[1])
}

func TestParse_UnknownFieldDeferred(t *testing.T) {
	// Resolution happens at validation time, never at parse time.
	q, err := Parse("SELECT [Unknown.Field] FROM WorkItems WHERE [No.Such.Field] = 1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Unknown.Field"}, q.SelectFields)
	require.Len(t, q.Conditions, 1)
}
