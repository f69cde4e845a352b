package matchmaking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func seller(id string, offerings ...string) SellerRecord {
	return SellerRecord{SellerID: id, CompanyName: "Company " + id, Offerings: NormalizeTerms(offerings)}
}

// ==========================
// Component scores
// ==========================

func TestPerformanceScore(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		successful int
		avgHours   float64
		want       float64
	}{
		{"no orders", 0, 0, 0, 0},
		{"no orders ignores other fields", 0, 5, 1, 0},
		{"perfect", 10, 10, 0, 1},
		{"half success, 24h", 10, 5, 24, 0.6*0.5 + 0.4*0.5},
		{"slow responses floor at zero", 4, 4, 100, 0.6},
		{"successful exceeding total clamps", 2, 5, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PerformanceScore(tt.total, tt.successful, tt.avgHours), 1e-9)
		})
	}
}

func TestExperienceScore(t *testing.T) {
	assert.Equal(t, 0.0, ExperienceScore(-3))
	assert.Equal(t, 0.0, ExperienceScore(0))
	assert.InDelta(t, 0.5, ExperienceScore(5), 1e-9)
	assert.Equal(t, 1.0, ExperienceScore(10))
	assert.Equal(t, 1.0, ExperienceScore(40))
}

func TestOverlap_BuyerOrderPreserved(t *testing.T) {
	got := Overlap([]string{"tea", "coffee", "rice"}, []string{"coffee", "rice", "tea"})
	assert.Equal(t, []string{"tea", "coffee", "rice"}, got)
	assert.Empty(t, Overlap([]string{"tea"}, []string{"flowers"}))
}

// ==========================
// Composite score
// ==========================

func TestScore_Composite(t *testing.T) {
	s := SellerRecord{
		SellerID:         "s1",
		CompanyName:      "Acme",
		Offerings:        []string{"coffee", "tea"},
		YearsExperience:  5,
		TotalOrders:      10,
		SuccessfulOrders: 9,
		AvgResponseHours: 12,
	}

	r := Score([]string{"coffee", "tea"}, s)

	perf := 0.6*0.9 + 0.4*0.75
	want := 0.5*1 + 0.25*0.5 + 0.25*perf
	assert.InDelta(t, want, r.Score, 1e-4)
	assert.InDelta(t, want*100, r.MatchPercentage, 0.01)
	assert.Equal(t, []string{"coffee", "tea"}, r.SharedProducts)
	assert.Equal(t, 1.0, r.MatchDetails.ProductOverlap)
	assert.Equal(t, 0.5, r.MatchDetails.Experience)
	assert.Equal(t, 10, r.PerformanceMetrics.TotalOrders)
	assert.Equal(t, 5, r.YearsExperience)
}

func TestScore_NoOverlapIsZero(t *testing.T) {
	s := SellerRecord{SellerID: "s3", Offerings: []string{"flowers"}, YearsExperience: 30, TotalOrders: 100, SuccessfulOrders: 100}
	r := Score([]string{"coffee"}, s)
	assert.Equal(t, 0.0, r.Score)
	assert.Empty(t, r.SharedProducts)
}

func TestScore_DivisionGuard(t *testing.T) {
	s := SellerRecord{SellerID: "s1", Offerings: []string{"coffee"}, TotalOrders: 0, SuccessfulOrders: 0, AvgResponseHours: 0}
	r := Score([]string{"coffee"}, s)
	assert.Equal(t, 0.0, r.MatchDetails.Performance)
	assert.InDelta(t, 0.5, r.Score, 1e-9)
}

func TestScore_CaseAndWhitespaceInsensitive(t *testing.T) {
	buyer := NormalizeTerms([]string{"Coffee "})
	r := Score(buyer, seller("s1", "coffee"))
	assert.Equal(t, []string{"coffee"}, r.SharedProducts)
	assert.Greater(t, r.Score, 0.0)
}

func TestScore_Bounded(t *testing.T) {
	buyer := []string{"a", "b", "c"}
	sellers := []SellerRecord{
		{SellerID: "max", Offerings: []string{"a", "b", "c"}, YearsExperience: 1000, TotalOrders: 5, SuccessfulOrders: 500, AvgResponseHours: -10},
		{SellerID: "min", Offerings: []string{"a"}, YearsExperience: -5, TotalOrders: 3, SuccessfulOrders: -1, AvgResponseHours: 1e9},
		{SellerID: "none", Offerings: []string{"z"}},
	}
	for _, s := range sellers {
		r := Score(buyer, s)
		assert.GreaterOrEqual(t, r.Score, 0.0, s.SellerID)
		assert.LessOrEqual(t, r.Score, 1.0, s.SellerID)
	}
}

func TestScore_MonotonicInOverlap(t *testing.T) {
	buyer := []string{"coffee", "tea", "cocoa", "sugar"}
	base := SellerRecord{YearsExperience: 3, TotalOrders: 4, SuccessfulOrders: 3, AvgResponseHours: 10}

	offeringSets := [][]string{
		{"coffee"},
		{"coffee", "tea"},
		{"coffee", "tea", "cocoa"},
		{"coffee", "tea", "cocoa", "sugar"},
	}

	prev := -1.0
	for _, offerings := range offeringSets {
		s := base
		s.Offerings = offerings
		r := Score(buyer, s)
		assert.GreaterOrEqual(t, r.Score, prev)
		prev = r.Score
	}
}
