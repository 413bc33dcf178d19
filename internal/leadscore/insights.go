package leadscore

import "fmt"

var perfectFitIndustries = map[string]bool{
	"E-commerce": true,
	"SaaS":       true,
	"Retail":     true,
}

var goodFitIndustries = map[string]bool{
	"Technology": true,
	"Marketing":  true,
}

// Insights generates short sales-facing hints about a lead. Purely
// informational; the list may be empty.
func Insights(m Metrics) []string {
	var out []string

	if m.MonthlyRevenue >= 50000 {
		out = append(out, fmt.Sprintf("High revenue business ($%.0f/month)", m.MonthlyRevenue))
	} else if m.MonthlyRevenue >= 10000 {
		out = append(out, fmt.Sprintf("Growing business ($%.0f/month)", m.MonthlyRevenue))
	}

	if perfectFitIndustries[m.Industry] {
		out = append(out, "Perfect fit industry: "+m.Industry)
	} else if goodFitIndustries[m.Industry] {
		out = append(out, "Good fit industry: "+m.Industry)
	}

	if m.ConversionRate > 0 && m.ConversionRate < 3 {
		out = append(out, "Low conversion rate - high optimization potential")
	}
	if m.CartAbandonment > 60 {
		out = append(out, "High cart abandonment - major opportunity")
	}
	if m.ManualHoursPerWeek >= 10 {
		out = append(out, fmt.Sprintf("High manual workload (%d hrs/week) - automation opportunity", m.ManualHoursPerWeek))
	}

	return out
}
