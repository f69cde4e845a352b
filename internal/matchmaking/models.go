package matchmaking

// SellerRecord is one seller folded from the catalog query: identity, normalized
// offering terms and zero-defaulted performance aggregates.
type SellerRecord struct {
	SellerID         string
	CompanyName      string
	Offerings        []string
	YearsExperience  int
	TotalOrders      int
	SuccessfulOrders int
	AvgResponseHours float64
}

type MatchDetails struct {
	ProductOverlap float64 `json:"product_overlap"`
	Experience     float64 `json:"experience"`
	Performance    float64 `json:"performance"`
}

type PerformanceMetrics struct {
	TotalOrders      int     `json:"total_orders"`
	SuccessfulOrders int     `json:"successful_orders"`
	AvgResponseHours float64 `json:"avg_response_hours"`
}

// MatchResult is one buyer-seller pairing. It is computed per request and never
// persisted.
type MatchResult struct {
	SellerID           string             `json:"seller_id"`
	SellerCompany      string             `json:"seller_company"`
	Score              float64            `json:"score"`
	MatchPercentage    float64            `json:"match_percentage"`
	MatchDetails       MatchDetails       `json:"match_details"`
	SharedProducts     []string           `json:"shared_products"`
	YearsExperience    int                `json:"years_experience"`
	PerformanceMetrics PerformanceMetrics `json:"performance_metrics"`
}

// MatchResponse is the API envelope. Matches is never nil.
type MatchResponse struct {
	Matches []MatchResult `json:"matches"`
}
