// Package underwriting holds the pure calculators behind an eligibility decision:
// income recognition, property classification, serviceability, LVR and risk grading.
// Nothing in this package performs I/O or keeps state between calls.
package underwriting

import (
	"fmt"
	"math"

	"lending-workers/internal/models"
)

const (
	// StableTenureMonths is the tenure casual and contract income must exceed
	// before the higher recognition rate applies.
	StableTenureMonths = 12
	// MinSelfEmployedMonths is the trading history self-employed income needs
	// before it is recognised at all.
	MinSelfEmployedMonths = 24
)

type recognition struct {
	reduced float64
	stable  float64
}

var recognitionRates = map[models.EmploymentCategory]recognition{
	models.EmploymentPermanent:    {reduced: 1.00, stable: 1.00},
	models.EmploymentCasual:       {reduced: 0.80, stable: 0.90},
	models.EmploymentContract:     {reduced: 0.85, stable: 0.95},
	models.EmploymentSelfEmployed: {reduced: 1.00, stable: 1.00},
}

type IncomeAssessment struct {
	QualifyingIncome    float64
	RecognitionRate     float64
	TenureReduced       bool
	InsufficientHistory bool
	Notes               []string
}

// Stable reports whether the employment can be treated as stable by the risk scorer.
func (a IncomeAssessment) Stable() bool {
	return !a.TenureReduced && !a.InsufficientHistory
}

// AssessIncome converts declared gross income into qualifying income. The
// category is expected to be valid; an unknown category recognises nothing.
func AssessIncome(category models.EmploymentCategory, annualIncome float64, tenureMonths int) IncomeAssessment {
	if annualIncome < 0 {
		annualIncome = 0
	}

	rates, ok := recognitionRates[category]
	if !ok {
		return IncomeAssessment{
			InsufficientHistory: true,
			Notes:               []string{fmt.Sprintf("Employment category %q is not recognised", category)},
		}
	}

	switch category {
	case models.EmploymentSelfEmployed:
		if tenureMonths < MinSelfEmployedMonths {
			return IncomeAssessment{
				InsufficientHistory: true,
				Notes: []string{fmt.Sprintf(
					"Self-employed income not recognised: %d months trading history, %d required",
					tenureMonths, MinSelfEmployedMonths)},
			}
		}
		return IncomeAssessment{
			QualifyingIncome: recognise(annualIncome, rates.stable),
			RecognitionRate:  rates.stable,
		}

	case models.EmploymentCasual, models.EmploymentContract:
		if tenureMonths > StableTenureMonths {
			return IncomeAssessment{
				QualifyingIncome: recognise(annualIncome, rates.stable),
				RecognitionRate:  rates.stable,
				Notes: []string{fmt.Sprintf("%s income recognised at %.0f%% (tenure %d months)",
					categoryLabel(category), rates.stable*100, tenureMonths)},
			}
		}
		return IncomeAssessment{
			QualifyingIncome: recognise(annualIncome, rates.reduced),
			RecognitionRate:  rates.reduced,
			TenureReduced:    true,
			Notes: []string{fmt.Sprintf("%s income recognised at %.0f%% (tenure %d months, more than %d needed for %.0f%%)",
				categoryLabel(category), rates.reduced*100, tenureMonths, StableTenureMonths, rates.stable*100)},
		}
	}

	return IncomeAssessment{
		QualifyingIncome: recognise(annualIncome, rates.stable),
		RecognitionRate:  rates.stable,
	}
}

// RequiredDocuments lists the income evidence a lender will ask for.
func RequiredDocuments(category models.EmploymentCategory) []string {
	docs := []string{"Photo identification", "Three months of bank statements"}
	switch category {
	case models.EmploymentPermanent:
		docs = append(docs, "Two most recent payslips", "Employment confirmation letter")
	case models.EmploymentCasual:
		docs = append(docs, "Six months of payslips", "Employment confirmation letter")
	case models.EmploymentContract:
		docs = append(docs, "Two most recent payslips", "Copy of current employment contract")
	case models.EmploymentSelfEmployed:
		docs = append(docs, "Two years of personal and business tax returns",
			"Business activity statements", "Accountant's letter")
	}
	return docs
}

// recognise applies rate and rounds to cents without exceeding the declared income.
func recognise(annualIncome, rate float64) float64 {
	return math.Min(round2(annualIncome*rate), annualIncome)
}

func categoryLabel(category models.EmploymentCategory) string {
	switch category {
	case models.EmploymentCasual:
		return "Casual"
	case models.EmploymentContract:
		return "Contract"
	case models.EmploymentSelfEmployed:
		return "Self-employed"
	default:
		return "Permanent"
	}
}
