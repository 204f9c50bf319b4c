package eligibility

import (
	"fmt"
	"math"

	"lending-workers/internal/models"
	"lending-workers/internal/underwriting"
)

// lenderCheck is what a rule sees for one lender.
type lenderCheck struct {
	a      *assessment
	policy models.LenderPolicy
	lvr    underwriting.LVRResolution
}

type rule struct {
	name      string
	severity  models.Severity
	passes    func(c *lenderCheck) bool
	reason    func(c *lenderCheck) string
	condition func(c *lenderCheck) string
}

// Rule names, in evaluation order.
const (
	RulePropertyAcceptable    = "property_acceptable"
	RuleGradeNotDecline       = "risk_grade_not_decline"
	RuleLVRWithinInsuredMax   = "lvr_within_insured_max"
	RulePropertyAccepted      = "property_category_accepted"
	RuleEmploymentAccepted    = "employment_accepted"
	RuleCreditScoreMinimum    = "credit_score_minimum"
	RuleDTIWithinMax          = "dti_within_max"
	RuleServiceabilitySurplus = "serviceability_surplus"
	RuleGradeAccepted         = "risk_grade_accepted"
)

// rules is evaluated top to bottom for every lender. Hard rules come first
// and the first hard failure ends evaluation for that lender.
var rules = []rule{
	{
		name:     RulePropertyAcceptable,
		severity: models.SeverityHard,
		passes: func(c *lenderCheck) bool {
			return c.a.property.Category != models.PropertyUnacceptable
		},
		reason: func(c *lenderCheck) string {
			return "Property is unacceptable security"
		},
	},
	{
		name:     RuleGradeNotDecline,
		severity: models.SeverityHard,
		passes: func(c *lenderCheck) bool {
			return c.a.risk.Grade != models.GradeDecline
		},
		reason: func(c *lenderCheck) string {
			return "Risk grade is DECLINE"
		},
	},
	{
		name:     RuleLVRWithinInsuredMax,
		severity: models.SeverityHard,
		passes: func(c *lenderCheck) bool {
			return !c.lvr.Excluded
		},
		reason: func(c *lenderCheck) string {
			return fmt.Sprintf("LVR %.1f%% exceeds the %.1f%% insured maximum", c.a.lvr, c.policy.MaxLVRWithLMI)
		},
	},
	{
		name:     RulePropertyAccepted,
		severity: models.SeveritySoft,
		passes: func(c *lenderCheck) bool {
			return c.policy.AcceptsProperty(c.a.property.Category)
		},
		reason: func(c *lenderCheck) string {
			return fmt.Sprintf("%s security is outside lender policy", c.a.property.Category)
		},
		condition: func(c *lenderCheck) string {
			return fmt.Sprintf("Lender credit approval for %s security", c.a.property.Category)
		},
	},
	{
		name:     RuleEmploymentAccepted,
		severity: models.SeveritySoft,
		passes: func(c *lenderCheck) bool {
			return c.policy.AcceptsEmployment(c.a.applicant.EmploymentCategory)
		},
		reason: func(c *lenderCheck) string {
			return fmt.Sprintf("%s employment is outside lender policy", c.a.applicant.EmploymentCategory)
		},
		condition: func(c *lenderCheck) string {
			return fmt.Sprintf("Lender exception for %s employment", c.a.applicant.EmploymentCategory)
		},
	},
	{
		name:     RuleCreditScoreMinimum,
		severity: models.SeveritySoft,
		passes: func(c *lenderCheck) bool {
			return c.a.applicant.CreditScore >= c.policy.MinCreditScore
		},
		reason: func(c *lenderCheck) string {
			return fmt.Sprintf("Credit score %d is below the lender minimum of %d",
				c.a.applicant.CreditScore, c.policy.MinCreditScore)
		},
		condition: func(c *lenderCheck) string {
			return fmt.Sprintf("Credit score exception (minimum %d)", c.policy.MinCreditScore)
		},
	},
	{
		name:     RuleDTIWithinMax,
		severity: models.SeveritySoft,
		passes: func(c *lenderCheck) bool {
			return c.a.service.DTI <= c.policy.MaxDTI
		},
		reason: func(c *lenderCheck) string {
			return fmt.Sprintf("Debt-to-income ratio %s exceeds the lender maximum of %.1f",
				formatDTI(c.a.service.DTI), c.policy.MaxDTI)
		},
		condition: func(c *lenderCheck) string {
			return fmt.Sprintf("Reduce total debt to bring debt-to-income within %.1f", c.policy.MaxDTI)
		},
	},
	{
		name:     RuleServiceabilitySurplus,
		severity: models.SeveritySoft,
		passes: func(c *lenderCheck) bool {
			return c.a.service.Serviceable()
		},
		reason: func(c *lenderCheck) string {
			return fmt.Sprintf("Monthly shortfall of $%.2f at the %.2f%% stress rate",
				-c.a.service.MonthlySurplus, c.a.service.StressRate)
		},
		condition: func(c *lenderCheck) string {
			return fmt.Sprintf("Evidence of additional servicing capacity of $%.2f per month",
				-c.a.service.MonthlySurplus)
		},
	},
	{
		name:     RuleGradeAccepted,
		severity: models.SeveritySoft,
		passes: func(c *lenderCheck) bool {
			_, ok := c.policy.GradeLoading(c.a.risk.Grade)
			return ok
		},
		reason: func(c *lenderCheck) string {
			return fmt.Sprintf("Risk grade %s is outside lender appetite", c.a.risk.Grade)
		},
		condition: func(c *lenderCheck) string {
			return fmt.Sprintf("Lender credit approval for risk grade %s", c.a.risk.Grade)
		},
	},
}

// ruleIndex orders rules by their position in the list.
func ruleIndex(name string) int {
	for i, r := range rules {
		if r.name == name {
			return i
		}
	}
	return len(rules)
}

// evaluateLender runs the rule list for one lender.
func evaluateLender(a *assessment, policy models.LenderPolicy) models.LenderOutcome {
	c := &lenderCheck{
		a:      a,
		policy: policy,
		lvr:    underwriting.ResolveLVR(a.lvr, a.security.LoanAmount, policy),
	}

	out := models.LenderOutcome{
		LenderID:    policy.ID,
		LenderName:  policy.Name,
		FailedRules: []models.RuleFailure{},
		Conditions:  []string{},
	}

	var softFailed []rule
	for _, r := range rules {
		if r.passes(c) {
			continue
		}
		out.FailedRules = append(out.FailedRules, models.RuleFailure{
			Rule:     r.name,
			Severity: r.severity,
			Reason:   r.reason(c),
		})
		if r.severity == models.SeverityHard {
			out.Bucket = models.BucketDeclined
			return out
		}
		softFailed = append(softFailed, r)
	}

	switch len(softFailed) {
	case 0:
		out.Bucket = models.BucketApproved
	case 1:
		out.Bucket = models.BucketConditional
		out.Conditions = append(out.Conditions, softFailed[0].condition(c))
	default:
		out.Bucket = models.BucketDeclined
		return out
	}

	out.LMIRequired = c.lvr.LMIRequired
	out.LMIPremium = c.lvr.LMIPremium
	out.MaxLoanAmount = math.Floor(math.Min(
		a.security.PropertyValue*policy.MaxLVRWithLMI/100,
		a.service.MaxLoanAmount,
	))
	gradeLoading, _ := policy.GradeLoading(a.risk.Grade)
	out.Rate = round2(policy.BaseRate + gradeLoading + policy.LVRLoading(a.lvr))
	return out
}

func formatDTI(dti float64) string {
	if math.IsInf(dti, 1) {
		return "undefined"
	}
	return fmt.Sprintf("%.2f", dti)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
