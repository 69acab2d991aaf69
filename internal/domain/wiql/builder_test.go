package wiql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWorkItemQuery_ConditionOrder(t *testing.T) {
	q := BuildWorkItemQuery("P", 30, []string{"Bug"}, nil, nil, nil)

	require.Len(t, q.Conditions, 3)

	assert.Equal(t, FieldTeamProject, q.Conditions[0].Field)
	assert.Equal(t, OpEqual, q.Conditions[0].Operator)
	assert.Equal(t, "P", q.Conditions[0].Value)
	assert.Equal(t, Connective(""), q.Conditions[0].Connective)

	assert.Equal(t, FieldChangedDate, q.Conditions[1].Field)
	assert.Equal(t, OpGreaterOrEqual, q.Conditions[1].Operator)
	assert.Equal(t, ConnectiveAnd, q.Conditions[1].Connective)

	assert.Equal(t, FieldWorkItemType, q.Conditions[2].Field)
	assert.Equal(t, OpIn, q.Conditions[2].Operator)
	assert.Equal(t, []any{"Bug"}, q.Conditions[2].Value)

	assert.Equal(t, "P", q.ProjectFilter)
}

func TestBuildWorkItemQuery_Cutoff(t *testing.T) {
	q := BuildWorkItemQuery("P", 30, nil, nil, nil, nil)

	require.Len(t, q.Conditions, 2)
	cutoff, ok := q.Conditions[1].Value.(string)
	require.True(t, ok)

	parsed, err := time.Parse("2006-01-02", cutoff)
	require.NoError(t, err)

	want := time.Now().AddDate(0, 0, -30)
	assert.WithinDuration(t, want, parsed, 48*time.Hour)
}

func TestBuildWorkItemQuery_NoCutoffWhenZero(t *testing.T) {
	q := BuildWorkItemQuery("P", 0, nil, nil, nil, nil)

	require.Len(t, q.Conditions, 1)
	assert.Equal(t, FieldTeamProject, q.Conditions[0].Field)
}

func TestBuildWorkItemQuery_AllSections(t *testing.T) {
	q := BuildWorkItemQuery("P", 14,
		[]string{"Bug", "Task"},
		[]string{"Active", "New"},
		[]string{"dev@example.com"},
		[]Filter{
			{Field: FieldPriority, Value: 1},
			{Field: FieldTags, Value: []string{"infra"}},
		},
	)

	fields := make([]string, len(q.Conditions))
	for i, c := range q.Conditions {
		fields[i] = c.Field
	}
	assert.Equal(t, []string{
		FieldTeamProject,
		FieldChangedDate,
		FieldWorkItemType,
		FieldState,
		FieldAssignedTo,
		FieldPriority,
		FieldTags,
	}, fields)

	// Scalar filter stays `=`, list filter becomes IN.
	assert.Equal(t, OpEqual, q.Conditions[5].Operator)
	assert.Equal(t, OpIn, q.Conditions[6].Operator)
	assert.Equal(t, []any{"infra"}, q.Conditions[6].Value)

	// Everything after the first condition is AND-joined.
	for _, c := range q.Conditions[1:] {
		assert.Equal(t, ConnectiveAnd, c.Connective)
	}
}

func TestBuildWorkItemQuery_Validates(t *testing.T) {
	q := BuildWorkItemQuery("P", 30, []string{"Bug"}, []string{"Active"}, []string{"dev@example.com"}, nil)
	assert.Empty(t, Validate(q, NewRegistry()))
}
