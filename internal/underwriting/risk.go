package underwriting

import (
	"fmt"

	"lending-workers/internal/models"
)

const (
	GradeAMinScore = 740
	GradeBMinScore = 650

	confidenceStep  = 0.10
	confidenceFloor = 0.50

	// maxCountedDefaults is the default count at which confidence reaches
	// its floor; further defaults change nothing.
	maxCountedDefaults = 5
)

type RiskInput struct {
	CreditScore      int
	PreviousDefaults int
	Bankruptcy       bool
	StableEmployment bool
	LVR              float64
}

type RiskAssessment struct {
	Grade      models.RiskGrade
	Confidence float64
	Reasons    []string
}

// BandGrade is the grade implied by credit score alone.
func BandGrade(creditScore int) models.RiskGrade {
	switch {
	case creditScore >= GradeAMinScore:
		return models.GradeA
	case creditScore >= GradeBMinScore:
		return models.GradeB
	default:
		return models.GradeC
	}
}

// ScoreRisk grades the applicant. Rules run in a fixed order and bankruptcy
// ends evaluation.
func ScoreRisk(in RiskInput) RiskAssessment {
	if in.Bankruptcy {
		return RiskAssessment{
			Grade:      models.GradeDecline,
			Confidence: confidence(1),
			Reasons:    []string{"Bankruptcy on file"},
		}
	}

	grade := BandGrade(in.CreditScore)
	reasons := []string{fmt.Sprintf("Credit score %d starts at grade %s", in.CreditScore, grade)}
	triggered := 0

	if in.PreviousDefaults > 0 {
		grade = grade.DowngradeBy(in.PreviousDefaults)
		triggered += min(in.PreviousDefaults, maxCountedDefaults)
		reasons = append(reasons, fmt.Sprintf("%d prior default(s) on file", in.PreviousDefaults))
	}

	if !in.StableEmployment && (grade == models.GradeB || grade == models.GradeC) {
		grade = grade.Downgrade()
		triggered++
		reasons = append(reasons, "Employment history is not yet stable")
	}

	if in.LVR > HighLVR {
		grade = grade.Downgrade()
		triggered++
		reasons = append(reasons, fmt.Sprintf("LVR %.1f%% is above the %.0f%% high-risk threshold", in.LVR, HighLVR))
	}

	return RiskAssessment{
		Grade:      grade,
		Confidence: confidence(triggered),
		Reasons:    reasons,
	}
}

func confidence(triggered int) float64 {
	c := 1.0 - float64(triggered)*confidenceStep
	if c < confidenceFloor {
		c = confidenceFloor
	}
	return round2(c)
}

// GradeRecommendations gives applicant-facing advice for a grade.
func GradeRecommendations(grade models.RiskGrade) []string {
	switch grade {
	case models.GradeA:
		return []string{
			"Excellent risk profile - approach premium lenders for best rates",
			"Consider negotiating rate discounts due to strong profile",
		}
	case models.GradeB:
		return []string{
			"Good risk profile - suitable for most major lenders",
		}
	case models.GradeC:
		return []string{
			"Higher risk profile - consider specialist lenders",
			"Focus on improving weakest risk factors before applying",
		}
	default:
		return []string{
			"Current profile unlikely to be approved by mainstream lenders",
			"Address major risk factors before reapplying",
			"Consider seeking financial counselling",
		}
	}
}
