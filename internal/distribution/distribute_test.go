package distribution

import (
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdist/distribution-service/internal/domain"
)

var agents = []string{"A", "B", "C", "D", "E"}

func makeRows(n int) []domain.ContactRow {
	rows := make([]domain.ContactRow, n)
	for i := range rows {
		rows[i] = domain.ContactRow{FirstName: fmt.Sprintf("row-%d", i), Phone: fmt.Sprintf("%d", 1000+i)}
	}
	return rows
}

func groupSizes(groups []Group) []int {
	sizes := make([]int, len(groups))
	for i, g := range groups {
		sizes[i] = len(g.Rows)
	}
	return sizes
}

func TestDistribute_TwelveRows(t *testing.T) {
	groups, err := Distribute(makeRows(12), agents)
	require.NoError(t, err)

	assert.Equal(t, []int{3, 3, 2, 2, 2}, groupSizes(groups))
	for i, g := range groups {
		assert.Equal(t, agents[i], g.AgentID)
	}
	assert.Equal(t, "row-0", groups[0].Rows[0].FirstName)
	assert.Equal(t, "row-2", groups[0].Rows[2].FirstName)
	assert.Equal(t, "row-3", groups[1].Rows[0].FirstName)
	assert.Equal(t, "row-6", groups[2].Rows[0].FirstName)
	assert.Equal(t, "row-11", groups[4].Rows[1].FirstName)
}

func TestDistribute_ZeroRows(t *testing.T) {
	groups, err := Distribute(nil, agents)
	require.NoError(t, err)
	require.Len(t, groups, 5)
	for i, g := range groups {
		assert.Equal(t, agents[i], g.AgentID)
		assert.Empty(t, g.Rows)
	}
}

func TestDistribute_InvalidAgentCount(t *testing.T) {
	for _, ids := range [][]string{nil, agents[:4], append(append([]string{}, agents...), "F")} {
		_, err := Distribute(makeRows(3), ids)
		assert.ErrorIs(t, err, ErrInvalidAgentCount, "agents=%v", ids)
	}
}

func TestDistribute_EveryRowOnceAndBalanced(t *testing.T) {
	for n := 0; n <= 57; n++ {
		rows := makeRows(n)
		groups, err := Distribute(rows, agents)
		require.NoError(t, err)

		flat := Flatten(groups)
		require.Len(t, flat, n)
		for i, a := range flat {
			assert.Equal(t, rows[i], a.Row, "n=%d row=%d", n, i)
		}

		sizes := groupSizes(groups)
		minSize, maxSize := sizes[0], sizes[0]
		for _, s := range sizes {
			minSize = min(minSize, s)
			maxSize = max(maxSize, s)
		}
		assert.LessOrEqual(t, maxSize-minSize, 1, "n=%d sizes=%v", n, sizes)
	}
}

func TestDistribute_Deterministic(t *testing.T) {
	gofakeit.Seed(42)
	rows := make([]domain.ContactRow, 23)
	for i := range rows {
		rows[i] = domain.ContactRow{FirstName: gofakeit.FirstName(), Phone: gofakeit.Phone(), Notes: gofakeit.Sentence(4)}
	}

	first, err := Distribute(rows, agents)
	require.NoError(t, err)
	second, err := Distribute(rows, agents)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDistribute_DoesNotAliasInput(t *testing.T) {
	rows := makeRows(5)
	groups, err := Distribute(rows, agents)
	require.NoError(t, err)

	rows[0].FirstName = "changed"
	assert.Equal(t, "row-0", groups[0].Rows[0].FirstName)
}

func TestSizes(t *testing.T) {
	assert.Equal(t, []int{0, 0, 0, 0, 0}, Sizes(0))
	assert.Equal(t, []int{1, 0, 0, 0, 0}, Sizes(1))
	assert.Equal(t, []int{2, 2, 2, 2, 2}, Sizes(10))
	assert.Equal(t, []int{3, 3, 3, 3, 2}, Sizes(14))
}
