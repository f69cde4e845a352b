package calculatebuyermatches

import "tradehub/internal/matchmaking"

type Input struct {
	BuyerID string `json:"buyerId"`
}

type Output struct {
	Matches     []matchmaking.MatchResult `json:"matches"`
	MatchCount  int                       `json:"matchCount"`
	TopSellerID string                    `json:"topSellerId,omitempty"`
}
