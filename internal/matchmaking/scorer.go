package matchmaking

import "math"

// Composite weights. They sum to 1 so the score stays in [0, 1].
const (
	weightOverlap     = 0.5
	weightExperience  = 0.25
	weightPerformance = 0.25

	weightSuccessRate  = 0.6
	weightResponseTime = 0.4

	experienceCapYears   = 10.0
	responseWindowHours  = 48.0
	scorePrecisionFactor = 10000.0
)

// Overlap returns the buyer terms also offered by the seller, in buyer order.
// Both inputs must already be normalized.
func Overlap(buyerTerms, offerings []string) []string {
	offered := make(map[string]struct{}, len(offerings))
	for _, o := range offerings {
		offered[o] = struct{}{}
	}
	shared := make([]string, 0)
	seen := make(map[string]struct{})
	for _, b := range buyerTerms {
		if _, ok := offered[b]; !ok {
			continue
		}
		if _, dup := seen[b]; dup {
			continue
		}
		seen[b] = struct{}{}
		shared = append(shared, b)
	}
	return shared
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ExperienceScore maps years of experience onto [0, 1], saturating at ten years.
func ExperienceScore(years int) float64 {
	return clamp01(float64(years) / experienceCapYears)
}

// PerformanceScore blends success rate and response speed. A seller with no orders
// has no track record and scores 0.
func PerformanceScore(totalOrders, successfulOrders int, avgResponseHours float64) float64 {
	if totalOrders <= 0 {
		return 0
	}
	successRate := clamp01(float64(successfulOrders) / math.Max(float64(totalOrders), 1))
	responsiveness := clamp01(1 - avgResponseHours/responseWindowHours)
	return weightSuccessRate*successRate + weightResponseTime*responsiveness
}

func round(v, factor float64) float64 {
	return math.Round(v*factor) / factor
}

// Score computes the weighted composite for one seller against the buyer's
// normalized interest set. A seller sharing no term scores 0.
func Score(buyerTerms []string, seller SellerRecord) MatchResult {
	shared := Overlap(buyerTerms, seller.Offerings)

	result := MatchResult{
		SellerID:        seller.SellerID,
		SellerCompany:   seller.CompanyName,
		SharedProducts:  shared,
		YearsExperience: seller.YearsExperience,
		PerformanceMetrics: PerformanceMetrics{
			TotalOrders:      seller.TotalOrders,
			SuccessfulOrders: seller.SuccessfulOrders,
			AvgResponseHours: round(seller.AvgResponseHours, 100),
		},
	}
	if len(shared) == 0 {
		return result
	}

	coverage := clamp01(float64(len(shared)) / math.Max(float64(len(buyerTerms)), 1))
	experience := ExperienceScore(seller.YearsExperience)
	performance := PerformanceScore(seller.TotalOrders, seller.SuccessfulOrders, seller.AvgResponseHours)

	score := weightOverlap*coverage + weightExperience*experience + weightPerformance*performance

	result.MatchDetails = MatchDetails{
		ProductOverlap: round(coverage, scorePrecisionFactor),
		Experience:     round(experience, scorePrecisionFactor),
		Performance:    round(performance, scorePrecisionFactor),
	}
	result.Score = round(clamp01(score), scorePrecisionFactor)
	result.MatchPercentage = round(result.Score*100, 100)
	return result
}
