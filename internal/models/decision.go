// internal/models/decision.go
package models

type RiskGrade string

const (
	GradeA       RiskGrade = "A"
	GradeB       RiskGrade = "B"
	GradeC       RiskGrade = "C"
	GradeDecline RiskGrade = "DECLINE"
)

var riskGradeOrder = []RiskGrade{GradeA, GradeB, GradeC, GradeDecline}

func (g RiskGrade) Valid() bool {
	return g.Rank() >= 0
}

// Rank is 0 for A and grows as the grade worsens; -1 for unknown grades.
func (g RiskGrade) Rank() int {
	for i, known := range riskGradeOrder {
		if g == known {
			return i
		}
	}
	return -1
}

// Downgrade moves the grade down one step, stopping at Decline.
func (g RiskGrade) Downgrade() RiskGrade {
	return g.DowngradeBy(1)
}

// DowngradeBy moves the grade down steps places, stopping at Decline.
func (g RiskGrade) DowngradeBy(steps int) RiskGrade {
	if steps <= 0 {
		return g
	}
	last := len(riskGradeOrder) - 1
	rank := g.Rank()
	if steps >= last-rank {
		return riskGradeOrder[last]
	}
	return riskGradeOrder[rank+steps]
}

type Outcome string

const (
	OutcomeApproved        Outcome = "approved"
	OutcomeConditional     Outcome = "conditional"
	OutcomeDeclined        Outcome = "declined"
	OutcomeReferSpecialist Outcome = "refer_specialist"
)

type Bucket string

const (
	BucketApproved    Bucket = "approved"
	BucketConditional Bucket = "conditional"
	BucketDeclined    Bucket = "declined"
)

type Severity string

const (
	SeverityHard Severity = "hard"
	SeveritySoft Severity = "soft"
)

type RuleFailure struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Reason   string   `json:"reason"`
}

type LenderOutcome struct {
	LenderID      string        `json:"lenderId"`
	LenderName    string        `json:"lenderName"`
	Bucket        Bucket        `json:"bucket"`
	FailedRules   []RuleFailure `json:"failedRules"`
	Conditions    []string      `json:"conditions"`
	LMIRequired   bool          `json:"lmiRequired"`
	LMIPremium    float64       `json:"lmiPremium"`
	MaxLoanAmount float64       `json:"maxLoanAmount"`
	Rate          float64       `json:"rate"`
}

type AssessmentSummary struct {
	QualifyingIncome  float64          `json:"qualifyingIncome"`
	LVR               float64          `json:"lvr"`
	PropertyCategory  PropertyCategory `json:"propertyCategory"`
	MonthlySurplus    float64          `json:"monthlySurplus"`
	MonthlyRepayment  float64          `json:"monthlyRepayment"`
	ExpenseFloor      float64          `json:"expenseFloor"`
	StressRate        float64          `json:"stressRate"`
	ServiceabilityMax float64          `json:"serviceabilityMax"`
}

type Decision struct {
	Decision           Outcome           `json:"decision"`
	RiskGrade          RiskGrade         `json:"riskGrade"`
	ApprovedLenders    []string          `json:"approvedLenders"`
	ConditionalLenders []string          `json:"conditionalLenders"`
	DeclinedLenders    []string          `json:"declinedLenders"`
	Lenders            []LenderOutcome   `json:"lenders"`
	MaxLoanAmount      float64           `json:"maxLoanAmount"`
	EstimatedRate      float64           `json:"estimatedRate"`
	Assessment         AssessmentSummary `json:"assessment"`
	Factors            []string          `json:"factors"`
	Conditions         []string          `json:"conditions"`
	Recommendations    []string          `json:"recommendations"`
	RequiredDocuments  []string          `json:"requiredDocuments"`
	Confidence         float64           `json:"confidence"`
}
