// Package roi computes growth projections shown to leads after they submit
// the calculator form.
package roi

// Scenario is one projected growth outcome for a business.
type Scenario struct {
	MonthlyRevenue        float64 `json:"monthly_revenue"`
	MonthlyIncrease       float64 `json:"monthly_increase"`
	AnnualBenefit         float64 `json:"annual_benefit"`
	ROIPercentage         int     `json:"roi_percentage"`
	BreakEvenMonths       int     `json:"break_even_months"`
	ConversionImprovement string  `json:"conversion_improvement"`
	CostReduction         string  `json:"cost_reduction"`
}

// Projections bundles the three standard scenarios.
type Projections struct {
	Conservative Scenario `json:"conservative"`
	Expected     Scenario `json:"expected"`
	Optimistic   Scenario `json:"optimistic"`
}

// Revenue uplift factors per scenario.
const (
	conservativeUplift = 0.10
	expectedUplift     = 0.30
	optimisticUplift   = 0.50
)

// Project computes the three scenarios from current monthly revenue.
func Project(monthlyRevenue float64) Projections {
	return Projections{
		Conservative: scenario(monthlyRevenue, conservativeUplift, 150, 6, "15%", "8%"),
		Expected:     scenario(monthlyRevenue, expectedUplift, 400, 5, "25%", "15%"),
		Optimistic:   scenario(monthlyRevenue, optimisticUplift, 700, 4, "40%", "25%"),
	}
}

// ExpectedAnnualBenefit is the deal value pushed to the CRM: the expected
// scenario's revenue increase over a year.
func ExpectedAnnualBenefit(monthlyRevenue float64) float64 {
	return monthlyRevenue * expectedUplift * 12
}

func scenario(revenue, uplift float64, roiPct, breakEven int, conversion, cost string) Scenario {
	increase := revenue * uplift
	return Scenario{
		MonthlyRevenue:        revenue + increase,
		MonthlyIncrease:       increase,
		AnnualBenefit:         increase * 12,
		ROIPercentage:         roiPct,
		BreakEvenMonths:       breakEven,
		ConversionImprovement: conversion,
		CostReduction:         cost,
	}
}
