package eligibility

import (
	"fmt"
	"strings"

	"lending-workers/internal/models"
	"lending-workers/internal/underwriting"
)

const (
	// HighValueThreshold is the property value above which lenders usually
	// order a full valuation.
	HighValueThreshold = 1_800_000.0
	// ReferDepositRatio is the deposit share that lets a Decline grade be
	// referred to a specialist rather than declined.
	ReferDepositRatio = 0.20

	conditionLMI = "Lenders mortgage insurance required"
)

// assemble aggregates per-lender outcomes; policies[i] is the policy behind outcomes[i].
func assemble(a *assessment, policies []models.LenderPolicy, outcomes []models.LenderOutcome) *models.Decision {
	d := &models.Decision{
		RiskGrade:          a.risk.Grade,
		ApprovedLenders:    []string{},
		ConditionalLenders: []string{},
		DeclinedLenders:    []string{},
		Lenders:            outcomes,
		Assessment: models.AssessmentSummary{
			QualifyingIncome:  a.income.QualifyingIncome,
			LVR:               a.lvr,
			PropertyCategory:  a.property.Category,
			MonthlySurplus:    a.service.MonthlySurplus,
			MonthlyRepayment:  a.service.MonthlyRepayment,
			ExpenseFloor:      a.service.ExpenseFloor,
			StressRate:        a.service.StressRate,
			ServiceabilityMax: a.service.MaxLoanAmount,
		},
	}

	var best *models.LenderOutcome
	var bestBaseRate float64
	for i := range outcomes {
		o := &outcomes[i]
		switch o.Bucket {
		case models.BucketApproved:
			d.ApprovedLenders = append(d.ApprovedLenders, o.LenderID)
			if best == nil || o.MaxLoanAmount < d.MaxLoanAmount {
				d.MaxLoanAmount = o.MaxLoanAmount
			}
			// strict comparison keeps the earliest lender on equal base rates
			if best == nil || policies[i].BaseRate < bestBaseRate {
				best, bestBaseRate = o, policies[i].BaseRate
			}
		case models.BucketConditional:
			d.ConditionalLenders = append(d.ConditionalLenders, o.LenderID)
		default:
			d.DeclinedLenders = append(d.DeclinedLenders, o.LenderID)
		}
	}
	if best != nil {
		d.EstimatedRate = best.Rate
	}

	switch {
	case len(d.ApprovedLenders) > 0:
		d.Decision = models.OutcomeApproved
	case len(d.ConditionalLenders) > 0:
		d.Decision = models.OutcomeConditional
	case referToSpecialist(a):
		d.Decision = models.OutcomeReferSpecialist
	default:
		d.Decision = models.OutcomeDeclined
	}

	d.Factors = factors(a, d)
	d.Conditions = conditions(outcomes)
	d.Recommendations = recommendations(a, d, best)
	d.RequiredDocuments = requiredDocuments(a)

	eligible := len(d.ApprovedLenders) + len(d.ConditionalLenders)
	d.Confidence = round2(a.risk.Confidence * (0.5 + 0.5*float64(eligible)/float64(len(outcomes))))
	return d
}

// referToSpecialist holds when the grade alone declines an applicant who has
// no bankruptcy, offers acceptable security, and brings either a second
// borrower or a deposit of at least ReferDepositRatio of the value.
func referToSpecialist(a *assessment) bool {
	if a.risk.Grade != models.GradeDecline || a.applicant.Bankruptcy {
		return false
	}
	if a.property.Category == models.PropertyUnacceptable {
		return false
	}
	return a.applicant.JointApplication ||
		a.security.DepositAmount >= ReferDepositRatio*a.security.PropertyValue
}

func factors(a *assessment, d *models.Decision) []string {
	out := []string{}

	if d.Decision != models.OutcomeApproved {
		out = append(out, primaryCause(d.Lenders))
	}

	out = append(out, fmt.Sprintf("Risk grade %s (%s)", a.risk.Grade, strings.Join(a.risk.Reasons, "; ")))
	out = append(out, fmt.Sprintf("LVR %.1f%%", a.lvr))
	out = append(out, underwriting.LVRWarnings(a.lvr, a.security.DepositAmount, a.security.PropertyValue)...)
	if a.security.PropertyValue > HighValueThreshold {
		out = append(out, "Property value above $1.8M may need a full valuation and senior credit approval")
	}

	out = append(out, fmt.Sprintf("Property category %s", a.property.Category))
	out = append(out, a.property.Reasons...)
	out = append(out, a.income.Notes...)

	if a.service.Serviceable() {
		out = append(out, fmt.Sprintf("Monthly surplus of $%.2f after a $%.2f stress repayment at %.2f%%",
			a.service.MonthlySurplus, a.service.MonthlyRepayment, a.service.StressRate))
	} else {
		out = append(out, fmt.Sprintf("Monthly shortfall of $%.2f after a $%.2f stress repayment at %.2f%%",
			-a.service.MonthlySurplus, a.service.MonthlyRepayment, a.service.StressRate))
	}
	out = append(out, fmt.Sprintf("Debt-to-income ratio %s", formatDTI(a.service.DTI)))

	for _, o := range d.Lenders {
		if o.LMIRequired {
			out = append(out, fmt.Sprintf("%s requires lenders mortgage insurance (estimated premium $%.2f)",
				o.LenderName, o.LMIPremium))
		}
	}
	for _, o := range d.Lenders {
		out = append(out, lenderLine(o))
	}
	return out
}

// primaryCause names the rule that failed for the most lenders; ties go to
// the rule evaluated first.
func primaryCause(outcomes []models.LenderOutcome) string {
	counts := make([]int, len(rules))
	reasons := make([]string, len(rules))
	for _, o := range outcomes {
		if o.Bucket == models.BucketApproved {
			continue
		}
		for _, f := range o.FailedRules {
			i := ruleIndex(f.Rule)
			if i >= len(rules) {
				continue
			}
			if counts[i] == 0 {
				reasons[i] = f.Reason
			}
			counts[i]++
		}
	}

	top := -1
	for i, n := range counts {
		if n > 0 && (top < 0 || n > counts[top]) {
			top = i
		}
	}
	if top < 0 {
		return "Primary cause: no lender policy could be satisfied"
	}
	return "Primary cause: " + reasons[top]
}

func lenderLine(o models.LenderOutcome) string {
	if len(o.FailedRules) == 0 {
		return fmt.Sprintf("%s: %s", o.LenderName, o.Bucket)
	}
	names := make([]string, len(o.FailedRules))
	for i, f := range o.FailedRules {
		names[i] = f.Rule
	}
	return fmt.Sprintf("%s: %s (%s)", o.LenderName, o.Bucket, strings.Join(names, ", "))
}

func conditions(outcomes []models.LenderOutcome) []string {
	seen := map[string]bool{}
	out := []string{}
	add := func(c string) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}

	lmi := false
	for _, o := range outcomes {
		if o.Bucket == models.BucketDeclined {
			continue
		}
		for _, c := range o.Conditions {
			add(c)
		}
		lmi = lmi || o.LMIRequired
	}
	if lmi {
		add(conditionLMI)
	}
	return out
}

func recommendations(a *assessment, d *models.Decision, best *models.LenderOutcome) []string {
	seen := map[string]bool{}
	out := []string{}
	add := func(items ...string) {
		for _, r := range items {
			if !seen[r] {
				seen[r] = true
				out = append(out, r)
			}
		}
	}

	switch d.Decision {
	case models.OutcomeApproved:
		add(fmt.Sprintf("Proceed with %s at an indicative %.2f%%", best.LenderName, best.Rate))
	case models.OutcomeConditional:
		add("Satisfy the listed conditions to move to a full approval")
	case models.OutcomeReferSpecialist:
		add("Refer to a specialist credit assessor for manual review")
	default:
		add("Review the decline factors before reapplying")
	}

	for _, o := range d.Lenders {
		if o.Bucket != models.BucketDeclined && o.LMIRequired {
			add("Increase the deposit to 20% of the property value to avoid lenders mortgage insurance")
			break
		}
	}
	if !a.service.Serviceable() {
		add("Reduce existing debts or the loan amount to restore a serviceability surplus")
	}
	if a.income.InsufficientHistory {
		add("Reapply once two years of trading history can be evidenced")
	}

	add(underwriting.GradeRecommendations(a.risk.Grade)...)
	return out
}

func requiredDocuments(a *assessment) []string {
	docs := underwriting.RequiredDocuments(a.applicant.EmploymentCategory)
	docs = append(docs, "Contract of sale or property valuation")
	if a.applicant.JointApplication {
		docs = append(docs, "Income evidence for each applicant")
	}
	return docs
}
