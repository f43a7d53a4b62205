package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateNoIssues(t *testing.T) {
	plan := []Op{{Kind: OpCreate, Path: "a"}, {Kind: OpMkdir, Path: "b"}}
	assert.NoError(t, aggregate(plan))
}

func TestAggregateConflictsWinOverErrors(t *testing.T) {
	plan := []Op{
		{Kind: OpConflict, Path: "a"},
		{Kind: OpConflict, Path: "b"},
		{Kind: OpError, Message: "boom"},
	}

	err := aggregate(plan)
	require.Error(t, err)

	cerr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, CheckoutConflict, cerr.Kind)
	assert.ElementsMatch(t, []string{"a", "b"}, cerr.Conflicts)
}

func TestAggregateErrorsWithNoConflicts(t *testing.T) {
	plan := []Op{{Kind: OpError, Message: "boom"}, {Kind: OpError, Message: "bang"}}

	err := aggregate(plan)
	require.Error(t, err)

	cerr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, Internal, cerr.Kind)
	assert.ElementsMatch(t, []string{"boom", "bang"}, cerr.Messages)
}

func TestExecutableDropsTerminalOps(t *testing.T) {
	plan := []Op{
		{Kind: OpCreate, Path: "a"},
		{Kind: OpConflict, Path: "b"},
		{Kind: OpError, Message: "boom"},
		{Kind: OpMkdir, Path: "c"},
	}

	exec := executable(plan)
	require.Len(t, exec, 2)
	assert.Equal(t, "a", exec[0].Path)
	assert.Equal(t, "c", exec[1].Path)
}
