// Package leadscore computes deterministic lead scores for ROI calculator
// submissions. Scoring is a pure function over already-validated input:
// unknown or missing values contribute zero, never an error.
package leadscore

// Metrics holds the business and behavioral inputs consumed by the scorer.
// Optional numeric fields left at zero contribute their lowest band.
type Metrics struct {
	CompanySize       string
	Industry          string
	BusinessStage     string
	Website           string
	MonthlyRevenue    float64
	MonthlyOrders     int
	AverageOrderValue float64
	ConversionRate    float64
	CartAbandonment   float64
	ManualHoursPerWeek int
	MonthlyAdSpend    float64
}

// Breakdown reports the three sub-scores and their clamped total.
type Breakdown struct {
	Demographic int `json:"demographic"`
	Behavioral  int `json:"behavioral"`
	Fit         int `json:"fit"`
	Total       int `json:"total"`
}

const (
	subScoreMax = 50
	// MaxScore is the upper bound of the total lead score.
	MaxScore = 150
)

var companySizeScores = map[string]int{
	"1-10":     5,
	"11-50":    10,
	"51-200":   15,
	"201-1000": 12,
	"1000+":    8,
}

var industryScores = map[string]int{
	"E-commerce":    15,
	"SaaS":          12,
	"Retail":        12,
	"Technology":    10,
	"Marketing":     10,
	"Healthcare":    8,
	"Finance":       8,
	"Education":     6,
	"Real Estate":   6,
	"Manufacturing": 4,
	"Consulting":    4,
	"Other":         2,
}

var businessStageScores = map[string]int{
	"Growth":      10,
	"Established": 8,
	"Startup":     6,
	"Enterprise":  4,
}

// band maps a continuous metric onto discrete points. Thresholds are ordered
// highest first; the first match wins, bands never accumulate.
type band struct {
	threshold float64
	points    int
}

var revenueBands = []band{
	{100000, 25},
	{50000, 20},
	{25000, 15},
	{10000, 10},
	{5000, 5},
}

var orderBands = []band{
	{1000, 15},
	{500, 12},
	{200, 8},
	{50, 4},
}

var aovBands = []band{
	{200, 10},
	{100, 8},
	{50, 5},
	{25, 2},
}

var manualHoursBands = []band{
	{20, 10},
	{10, 7},
	{5, 4},
	{1, 1},
}

var adSpendBands = []band{
	{10000, 10},
	{5000, 8},
	{2000, 5},
	{500, 2},
}

// bandScore returns the points of the highest band whose threshold the value
// meets (inclusive lower bound), or 0 below the lowest band.
func bandScore(value float64, bands []band) int {
	for _, b := range bands {
		if value >= b.threshold {
			return b.points
		}
	}
	return 0
}

// Score computes the total lead score, clamped to [0, MaxScore].
func Score(m Metrics) int {
	return Compute(m).Total
}

// Compute returns the full sub-score breakdown.
func Compute(m Metrics) Breakdown {
	b := Breakdown{
		Demographic: demographicScore(m),
		Behavioral:  behavioralScore(m),
		Fit:         fitScore(m),
	}
	b.Total = clamp(b.Demographic+b.Behavioral+b.Fit, 0, MaxScore)
	return b
}

// demographicScore weighs company size, industry, business stage and website
// presence, up to 50 points.
func demographicScore(m Metrics) int {
	score := companySizeScores[m.CompanySize]
	score += industryScores[m.Industry]
	score += businessStageScores[m.BusinessStage]
	if m.Website != "" {
		score += 10
	}
	return clamp(score, 0, subScoreMax)
}

// behavioralScore weighs revenue, order volume and average order value, up to
// 50 points.
func behavioralScore(m Metrics) int {
	score := bandScore(m.MonthlyRevenue, revenueBands)
	score += bandScore(float64(m.MonthlyOrders), orderBands)
	score += bandScore(m.AverageOrderValue, aovBands)
	return clamp(score, 0, subScoreMax)
}

// fitScore estimates optimization need, up to 50 points. Low conversion and
// high cart abandonment both indicate a stronger fit, so conversion scores
// inversely. Rates at zero are treated as "not reported" and skipped.
func fitScore(m Metrics) int {
	score := 0

	if m.ConversionRate > 0 {
		switch {
		case m.ConversionRate < 2:
			score += 15
		case m.ConversionRate < 3:
			score += 12
		case m.ConversionRate < 5:
			score += 8
		case m.ConversionRate < 8:
			score += 4
		}
	}

	if m.CartAbandonment > 0 {
		switch {
		case m.CartAbandonment > 70:
			score += 15
		case m.CartAbandonment > 60:
			score += 12
		case m.CartAbandonment > 50:
			score += 8
		case m.CartAbandonment > 40:
			score += 4
		}
	}

	score += bandScore(float64(m.ManualHoursPerWeek), manualHoursBands)
	score += bandScore(m.MonthlyAdSpend, adSpendBands)
	return clamp(score, 0, subScoreMax)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
