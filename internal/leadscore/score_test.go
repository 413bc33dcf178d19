package leadscore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeMaximumScenario(t *testing.T) {
	m := Metrics{
		CompanySize:        "51-200",
		Industry:           "E-commerce",
		BusinessStage:      "Growth",
		Website:            "http://x.com",
		MonthlyRevenue:     150000,
		MonthlyOrders:      1200,
		AverageOrderValue:  250,
		ConversionRate:     1.5,
		CartAbandonment:    75,
		ManualHoursPerWeek: 25,
		MonthlyAdSpend:     12000,
	}

	b := Compute(m)
	assert.Equal(t, 50, b.Demographic)
	assert.Equal(t, 50, b.Behavioral)
	assert.Equal(t, 50, b.Fit)
	assert.Equal(t, 150, b.Total)
	assert.Equal(t, TierHot, AssignTier(b.Total))
}

func TestComputeMinimumScenario(t *testing.T) {
	// Required fields only, all below the lowest scoring bands.
	m := Metrics{
		MonthlyRevenue:    3000,
		MonthlyOrders:     10,
		AverageOrderValue: 10,
	}

	b := Compute(m)
	assert.Equal(t, 0, b.Demographic)
	assert.Equal(t, 0, b.Behavioral)
	assert.Equal(t, 0, b.Fit)
	assert.Equal(t, 0, b.Total)
	assert.Equal(t, TierCold, AssignTier(b.Total))
}

func TestDemographicScore(t *testing.T) {
	tests := []struct {
		name string
		m    Metrics
		want int
	}{
		{"mid-market peak", Metrics{CompanySize: "51-200"}, 15},
		{"small business", Metrics{CompanySize: "1-10"}, 5},
		{"unknown size ignored", Metrics{CompanySize: "9000+"}, 0},
		{"industry perfect fit", Metrics{Industry: "E-commerce"}, 15},
		{"industry other", Metrics{Industry: "Other"}, 2},
		{"unknown industry ignored", Metrics{Industry: "Basket weaving"}, 0},
		{"growth stage peak", Metrics{BusinessStage: "Growth"}, 10},
		{"enterprise stage", Metrics{BusinessStage: "Enterprise"}, 4},
		{"website presence", Metrics{Website: "https://example.com"}, 10},
		{"empty input", Metrics{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, demographicScore(tt.m))
		})
	}
}

func TestBehavioralBandsFirstMatchWins(t *testing.T) {
	// A value above the top threshold must score only the top band, not the
	// sum of every band beneath it.
	assert.Equal(t, 25, bandScore(250000, revenueBands))
	assert.Equal(t, 15, bandScore(5000, orderBands))
	assert.Equal(t, 10, bandScore(999, aovBands))
}

func TestBehavioralBandBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		revenue float64
		want    int
	}{
		{"at 100k", 100000, 25},
		{"just under 100k", 99999, 20},
		{"at 50k", 50000, 20},
		{"at 25k", 25000, 15},
		{"at 10k", 10000, 10},
		{"at 5k", 5000, 5},
		{"under 5k", 4999, 0},
		{"zero", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bandScore(tt.revenue, revenueBands))
		})
	}
}

func TestFitScoreConversionInverse(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		want int
	}{
		{"not reported", 0, 0},
		{"very low converts high", 1.9, 15},
		{"below average", 2.5, 12},
		{"average", 4, 8},
		{"good", 7.9, 4},
		{"excellent scores nothing", 8, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fitScore(Metrics{ConversionRate: tt.rate}))
		})
	}
}

func TestFitScoreAbandonmentDirect(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		want int
	}{
		{"not reported", 0, 0},
		{"at 40 scores nothing", 40, 0},
		{"just above 40", 40.5, 4},
		{"above 50", 55, 8},
		{"above 60", 65, 12},
		{"above 70", 71, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fitScore(Metrics{CartAbandonment: tt.rate}))
		})
	}
}

func TestScoreAlwaysBounded(t *testing.T) {
	extremes := []Metrics{
		{},
		{MonthlyRevenue: 1e12, MonthlyOrders: 1 << 30, AverageOrderValue: 1e9,
			ConversionRate: 0.1, CartAbandonment: 99, ManualHoursPerWeek: 10000,
			MonthlyAdSpend: 1e9, CompanySize: "51-200", Industry: "E-commerce",
			BusinessStage: "Growth", Website: "x"},
		{MonthlyRevenue: -5000, MonthlyOrders: -10, AverageOrderValue: -1},
	}
	for _, m := range extremes {
		score := Score(m)
		require.GreaterOrEqual(t, score, 0)
		require.LessOrEqual(t, score, MaxScore)
	}
}

func TestScoreDeterministic(t *testing.T) {
	m := Metrics{MonthlyRevenue: 60000, MonthlyOrders: 300, AverageOrderValue: 120}
	assert.Equal(t, Score(m), Score(m))
}
