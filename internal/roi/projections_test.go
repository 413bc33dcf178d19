package roi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProject(t *testing.T) {
	p := Project(10000)

	assert.InDelta(t, 11000, p.Conservative.MonthlyRevenue, 0.001)
	assert.InDelta(t, 1000, p.Conservative.MonthlyIncrease, 0.001)
	assert.InDelta(t, 12000, p.Conservative.AnnualBenefit, 0.001)
	assert.Equal(t, 150, p.Conservative.ROIPercentage)
	assert.Equal(t, 6, p.Conservative.BreakEvenMonths)

	assert.InDelta(t, 13000, p.Expected.MonthlyRevenue, 0.001)
	assert.InDelta(t, 36000, p.Expected.AnnualBenefit, 0.001)
	assert.Equal(t, 400, p.Expected.ROIPercentage)
	assert.Equal(t, "25%", p.Expected.ConversionImprovement)

	assert.InDelta(t, 15000, p.Optimistic.MonthlyRevenue, 0.001)
	assert.Equal(t, 700, p.Optimistic.ROIPercentage)
	assert.Equal(t, 4, p.Optimistic.BreakEvenMonths)
	assert.Equal(t, "25%", p.Optimistic.CostReduction)
}

func TestExpectedAnnualBenefit(t *testing.T) {
	assert.InDelta(t, 36000, ExpectedAnnualBenefit(10000), 0.001)
	assert.Zero(t, ExpectedAnnualBenefit(0))
}
