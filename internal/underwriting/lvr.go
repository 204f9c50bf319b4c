package underwriting

import (
	"math"

	"lending-workers/internal/models"
)

const (
	HighLVR         = 90.0
	VeryHighLVR     = 95.0
	MinDepositRatio = 0.05
)

type lmiBand struct {
	upToLVR float64
	rate    float64 // percent of the loan amount
}

var lmiBands = []lmiBand{
	{upToLVR: 80, rate: 0.45},
	{upToLVR: 85, rate: 0.89},
	{upToLVR: 90, rate: 1.86},
	{upToLVR: 95, rate: 3.94},
	{upToLVR: math.Inf(1), rate: 4.90},
}

// LVR returns the loan-to-value ratio as a percentage rounded to one decimal.
// Callers guarantee value > 0.
func LVR(loanAmount, propertyValue float64) float64 {
	return math.Round(loanAmount/propertyValue*1000) / 10
}

type LVRResolution struct {
	LVR         float64
	LMIRequired bool
	LMIPremium  float64
	Excluded    bool
}

// ResolveLVR applies one lender's LVR limits.
func ResolveLVR(lvr, loanAmount float64, policy models.LenderPolicy) LVRResolution {
	switch {
	case lvr <= policy.MaxLVRWithoutLMI:
		return LVRResolution{LVR: lvr}
	case lvr <= policy.MaxLVRWithLMI:
		return LVRResolution{
			LVR:         lvr,
			LMIRequired: true,
			LMIPremium:  LMIPremium(loanAmount, lvr),
		}
	default:
		return LVRResolution{LVR: lvr, Excluded: true}
	}
}

// LMIPremium estimates the mortgage insurance premium; the band rate never
// falls as LVR rises.
func LMIPremium(loanAmount, lvr float64) float64 {
	for _, band := range lmiBands {
		if lvr <= band.upToLVR {
			return round2(loanAmount * band.rate / 100)
		}
	}
	return 0
}

// LVRWarnings reports deposit and LVR levels worth surfacing on any decision.
func LVRWarnings(lvr, depositAmount, propertyValue float64) []string {
	var warnings []string
	switch {
	case lvr > VeryHighLVR:
		warnings = append(warnings, "LVR above 95% is outside most lenders' appetite")
	case lvr > HighLVR:
		warnings = append(warnings, "High LVR above 90% attracts higher insurance premiums")
	}
	if propertyValue > 0 && depositAmount/propertyValue < MinDepositRatio {
		warnings = append(warnings, "Deposit is below 5% of the property value")
	}
	return warnings
}
