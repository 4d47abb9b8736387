package gadget

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeBudgetCost(t *testing.T) {
	budget := NewComputeBudget(200_000, 5)
	require.EqualValues(t, 1_000_000, budget.Cost())
}

func TestComputeBudgetZeroPriceIsFree(t *testing.T) {
	budget := NewComputeBudget(200_000, 0)
	require.EqualValues(t, 0, budget.Cost())
}
