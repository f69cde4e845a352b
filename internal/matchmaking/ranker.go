package matchmaking

import "sort"

// Rank drops zero-score and empty-overlap results and orders the rest by score
// descending, breaking ties by seller id ascending. limit <= 0 keeps everything.
func Rank(results []MatchResult, limit int) MatchResponse {
	kept := make([]MatchResult, 0, len(results))
	for _, r := range results {
		if r.Score <= 0 || len(r.SharedProducts) == 0 {
			continue
		}
		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Score != kept[j].Score {
			return kept[i].Score > kept[j].Score
		}
		return kept[i].SellerID < kept[j].SellerID
	})

	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	return MatchResponse{Matches: kept}
}
