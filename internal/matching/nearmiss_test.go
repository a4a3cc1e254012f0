package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stubwire/stubwire/pkg/contract"
)

func TestBreakdown(t *testing.T) {
	t.Parallel()

	t.Run("full shape match", func(t *testing.T) {
		t.Parallel()
		m := &contract.RequestMatcher{Method: "POST", Path: "/beer", BodyContains: "marcin"}
		r := newRequest(t, "POST", "/beer", nil)

		nm := Breakdown(m, r, []byte(`{"name":"marcin"}`))
		assert.True(t, nm.ShapeMatched)
		assert.Equal(t, 100, nm.MatchPercentage)
		assert.Len(t, nm.Fields, 3)
	})

	t.Run("partial match reports all fields", func(t *testing.T) {
		t.Parallel()
		m := &contract.RequestMatcher{Method: "POST", Path: "/beer", BodyContains: "marcin"}
		r := newRequest(t, "POST", "/beer", nil)

		nm := Breakdown(m, r, []byte(`{"name":"other"}`))
		assert.False(t, nm.ShapeMatched)
		assert.Less(t, nm.MatchPercentage, 100)
		assert.Greater(t, nm.MatchPercentage, 0)
		assert.Contains(t, nm.Reason, "bodyContains")

		// Evaluation does not short-circuit: every specified field is present
		require.Len(t, nm.Fields, 3)
		assert.True(t, nm.Fields[0].Matched)
		assert.True(t, nm.Fields[1].Matched)
		assert.False(t, nm.Fields[2].Matched)
	})
}

func TestCollectNearMisses(t *testing.T) {
	t.Parallel()

	contracts := []*contract.Contract{
		{
			ID:      "ctr_a",
			Request: &contract.RequestMatcher{Method: "POST", Path: "/beer"},
		},
		{
			ID:      "ctr_b",
			Request: &contract.RequestMatcher{Method: "GET", Path: "/beer"},
		},
		{
			ID:      "ctr_c",
			Request: &contract.RequestMatcher{Method: "DELETE", Path: "/elsewhere"},
		},
	}

	r := newRequest(t, "POST", "/beer", nil)
	misses := CollectNearMisses(contracts, r, nil, 3)

	require.NotEmpty(t, misses)
	// Best candidate first: ctr_a matches both fields
	assert.Equal(t, "ctr_a", misses[0].ContractID)
	assert.True(t, misses[0].ShapeMatched)

	for _, nm := range misses {
		assert.NotEqual(t, "ctr_c", nm.ContractID, "zero-overlap contracts are skipped")
	}
}

func TestCollectNearMisses_TopN(t *testing.T) {
	t.Parallel()

	var contracts []*contract.Contract
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		contracts = append(contracts, &contract.Contract{
			ID:      id,
			Request: &contract.RequestMatcher{Method: "GET", Path: "/" + id},
		})
	}

	r := newRequest(t, "GET", "/a", nil)
	misses := CollectNearMisses(contracts, r, nil, 2)
	assert.Len(t, misses, 2)
}
