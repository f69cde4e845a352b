package matchmaking

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank(t *testing.T) {
	results := []MatchResult{
		{SellerID: "c", Score: 0.5, SharedProducts: []string{"tea"}},
		{SellerID: "a", Score: 0.9, SharedProducts: []string{"tea"}},
		{SellerID: "b", Score: 0.5, SharedProducts: []string{"tea"}},
		{SellerID: "zero", Score: 0, SharedProducts: []string{"tea"}},
		{SellerID: "empty", Score: 0.7},
	}

	resp := Rank(results, 0)

	ids := make([]string, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		ids = append(ids, m.SellerID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestRank_Limit(t *testing.T) {
	results := []MatchResult{
		{SellerID: "a", Score: 0.3, SharedProducts: []string{"x"}},
		{SellerID: "b", Score: 0.6, SharedProducts: []string{"x"}},
		{SellerID: "c", Score: 0.9, SharedProducts: []string{"x"}},
	}
	resp := Rank(results, 2)
	require.Len(t, resp.Matches, 2)
	assert.Equal(t, "c", resp.Matches[0].SellerID)
	assert.Equal(t, "b", resp.Matches[1].SellerID)
}

func TestRank_EmptyEncodesAsArray(t *testing.T) {
	for _, in := range [][]MatchResult{nil, {}, {{SellerID: "a", Score: 0}}} {
		resp := Rank(in, 0)
		data, err := json.Marshal(resp)
		require.NoError(t, err)
		assert.JSONEq(t, `{"matches":[]}`, string(data))
	}
}
