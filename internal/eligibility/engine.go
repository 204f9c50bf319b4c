// Package eligibility turns one applicant and property into a credit decision
// against every lender in a policy table.
//
// An Engine holds only the immutable policy table and the stress rate, so a
// single Engine serves any number of concurrent Evaluate calls.
package eligibility

import (
	"errors"

	"lending-workers/internal/common/logger"
	"lending-workers/internal/models"
	"lending-workers/internal/policy"
	"lending-workers/internal/underwriting"
)

type Options struct {
	// StressRate is the annual percentage used for serviceability. Zero means
	// underwriting.DefaultStressRate.
	StressRate float64
}

type Engine struct {
	table      *policy.Table
	stressRate float64
	log        logger.Logger
}

var ErrNoPolicyTable = errors.New("eligibility: policy table is required")

func NewEngine(table *policy.Table, opts Options, log logger.Logger) (*Engine, error) {
	if table == nil || table.Len() == 0 {
		return nil, ErrNoPolicyTable
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	stress := opts.StressRate
	if stress <= 0 {
		stress = underwriting.DefaultStressRate
	}
	return &Engine{
		table:      table,
		stressRate: stress,
		log:        log.WithFields(map[string]interface{}{"component": "eligibility"}),
	}, nil
}

func (e *Engine) StressRate() float64 {
	return e.stressRate
}

func (e *Engine) Lenders() int {
	return e.table.Len()
}

// assessment is the per-request result of the calculators.
type assessment struct {
	applicant models.Applicant
	security  models.Property

	income   underwriting.IncomeAssessment
	property underwriting.PropertyAssessment
	service  underwriting.ServiceabilityAssessment
	lvr      float64
	risk     underwriting.RiskAssessment
}

// Evaluate produces exactly one Decision for a well-formed application, or a
// *ValidationError when the input is malformed. Nothing is computed for
// invalid input.
func (e *Engine) Evaluate(applicant models.Applicant, property models.Property) (*models.Decision, error) {
	stages := newStageMachine(e.log)

	if err := Validate(applicant, property); err != nil {
		return nil, err
	}

	stages.advance(StageAssessing)
	a := e.assess(applicant, property)

	stages.advance(StagePerLenderEvaluation)
	policies := make([]models.LenderPolicy, 0, e.table.Len())
	outcomes := make([]models.LenderOutcome, 0, e.table.Len())
	e.table.Each(func(p models.LenderPolicy) {
		policies = append(policies, p)
		outcomes = append(outcomes, evaluateLender(a, p))
	})

	stages.advance(StageAssembling)
	decision := assemble(a, policies, outcomes)

	stages.advance(StageDone)
	e.log.Debug("Evaluation complete", map[string]interface{}{
		"decision":  string(decision.Decision),
		"riskGrade": string(decision.RiskGrade),
		"approved":  len(decision.ApprovedLenders),
	})
	return decision, nil
}

func (e *Engine) assess(applicant models.Applicant, property models.Property) *assessment {
	a := &assessment{applicant: applicant, security: property}

	a.income = underwriting.AssessIncome(applicant.EmploymentCategory, applicant.AnnualIncome, applicant.EmploymentMonths)
	a.property = underwriting.ClassifyProperty(property)
	a.service = underwriting.AssessServiceability(underwriting.ServiceabilityInput{
		QualifyingIncome: a.income.QualifyingIncome,
		MonthlyExpenses:  applicant.MonthlyExpenses,
		MonthlyDebts:     applicant.MonthlyDebts,
		Dependents:       applicant.Dependents,
		JointApplication: applicant.JointApplication,
		LoanAmount:       property.LoanAmount,
		LoanTermYears:    property.LoanTermYears,
		StressRate:       e.stressRate,
	})
	a.lvr = underwriting.LVR(property.LoanAmount, property.PropertyValue)

	a.risk = underwriting.ScoreRisk(underwriting.RiskInput{
		CreditScore:      applicant.CreditScore,
		PreviousDefaults: applicant.PreviousDefaults,
		Bankruptcy:       applicant.Bankruptcy,
		StableEmployment: a.income.Stable(),
		LVR:              a.lvr,
	})
	return a
}
