package eligibility

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"lending-workers/internal/common/logger"
	"lending-workers/internal/models"
	"lending-workers/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type testLogger struct {
	t *testing.T
}

func (l *testLogger) Debug(msg string, fields map[string]interface{}) {
	l.t.Logf("[DEBUG] %s %v", msg, fields)
}

func (l *testLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("[INFO] %s %v", msg, fields)
}

func (l *testLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("[WARN] %s %v", msg, fields)
}

func (l *testLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("[ERROR] %s %v", msg, fields)
}

func (l *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return l
}

func (l *testLogger) WithError(err error) logger.Logger {
	return l
}

func (l *testLogger) With(fields map[string]interface{}) logger.Logger {
	return l
}

func newTestLogger(t *testing.T) logger.Logger {
	return &testLogger{t: t}
}

func defaultTable(t *testing.T) *policy.Table {
	t.Helper()
	table, err := policy.LoadPolicies(context.Background(), policy.NewCSVSource("../../configs/lender-policies.csv"))
	require.NoError(t, err)
	return table
}

func newTestEngine(t *testing.T, table *policy.Table) *Engine {
	t.Helper()
	engine, err := NewEngine(table, Options{}, newTestLogger(t))
	require.NoError(t, err)
	return engine
}

// scenarioA is a permanent employee buying a standard house at 81.8% LVR.
func scenarioA() (models.Applicant, models.Property) {
	return models.Applicant{
			AnnualIncome:       85000,
			EmploymentCategory: models.EmploymentPermanent,
			EmploymentMonths:   36,
			CreditScore:        720,
			MonthlyExpenses:    2000,
		}, models.Property{
			LoanAmount:       450000,
			PropertyValue:    550000,
			DepositAmount:    100000,
			LoanTermYears:    30,
			PropertyType:     models.PropertyHouse,
			LivingAreaSqm:    120,
			Postcode:         "2000",
			LandSizeHectares: 0.05,
		}
}

func singleLenderTable(t *testing.T, mutate func(p *models.LenderPolicy)) *policy.Table {
	t.Helper()
	p := models.LenderPolicy{
		ID:                 "test_bank",
		Name:               "Test Bank",
		MaxLVRWithoutLMI:   80,
		MaxLVRWithLMI:      95,
		MinCreditScore:     600,
		AcceptedEmployment: models.EmploymentCategories,
		AcceptedProperty:   []models.PropertyCategory{models.PropertyStandard, models.PropertyNonStandard},
		MaxDTI:             7,
		BaseRate:           6.0,
		GradeLoadings:      map[models.RiskGrade]float64{models.GradeA: 0, models.GradeB: 0.2, models.GradeC: 0.5},
	}
	if mutate != nil {
		mutate(&p)
	}
	table, err := policy.NewTable([]models.LenderPolicy{p})
	require.NoError(t, err)
	return table
}

// ==========================
// Scenario Tests
// ==========================

func TestEvaluate_ScenarioA_ApprovedWithLMI(t *testing.T) {
	engine := newTestEngine(t, defaultTable(t))
	applicant, property := scenarioA()

	d, err := engine.Evaluate(applicant, property)
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeApproved, d.Decision)
	assert.Equal(t, models.GradeB, d.RiskGrade)
	assert.Equal(t, []string{"great_southern_bank", "suncorp_bank"}, d.ApprovedLenders)
	assert.Empty(t, d.ConditionalLenders)
	assert.Equal(t, []string{"latrobe_financial"}, d.DeclinedLenders)

	assert.Equal(t, 81.8, d.Assessment.LVR)
	assert.Equal(t, 85000.0, d.Assessment.QualifyingIncome)
	assert.Equal(t, models.PropertyStandard, d.Assessment.PropertyCategory)
	assert.InDelta(t, 81.81, d.Assessment.MonthlySurplus, 0.01)
	assert.Equal(t, 462295.0, d.Assessment.ServiceabilityMax)

	gsb := d.Lenders[0]
	assert.True(t, gsb.LMIRequired)
	assert.Equal(t, 4005.0, gsb.LMIPremium)
	assert.Equal(t, 6.44, gsb.Rate)
	assert.Equal(t, 6.45, d.Lenders[1].Rate)

	latrobe := d.Lenders[2]
	require.Len(t, latrobe.FailedRules, 1)
	assert.Equal(t, RuleLVRWithinInsuredMax, latrobe.FailedRules[0].Rule)
	assert.Equal(t, models.SeverityHard, latrobe.FailedRules[0].Severity)

	assert.Equal(t, 6.44, d.EstimatedRate)
	assert.Equal(t, 462295.0, d.MaxLoanAmount)
	assert.Equal(t, []string{"Lenders mortgage insurance required"}, d.Conditions)
	assert.Equal(t, 0.83, d.Confidence)

	assert.Equal(t, "Risk grade B (Credit score 720 starts at grade B)", d.Factors[0])
	assert.Contains(t, d.Factors, "LVR 81.8%")
	assert.Contains(t, d.Factors, "Great Southern Bank requires lenders mortgage insurance (estimated premium $4005.00)")
	assert.Equal(t, "La Trobe Financial: declined (lvr_within_insured_max)", d.Factors[len(d.Factors)-1])
	assert.Equal(t, "Proceed with Great Southern Bank at an indicative 6.44%", d.Recommendations[0])
	assert.Contains(t, d.RequiredDocuments, "Two most recent payslips")
}

func TestEvaluate_ScenarioB_BankruptcyDeclines(t *testing.T) {
	engine := newTestEngine(t, defaultTable(t))
	applicant, property := scenarioA()
	applicant.CreditScore = 780
	applicant.Bankruptcy = true
	applicant.JointApplication = true
	property.LoanAmount = 300000
	property.DepositAmount = 250000

	d, err := engine.Evaluate(applicant, property)
	require.NoError(t, err)

	assert.Equal(t, models.GradeDecline, d.RiskGrade)
	assert.Equal(t, models.OutcomeDeclined, d.Decision)
	assert.Empty(t, d.ApprovedLenders)
	assert.Len(t, d.DeclinedLenders, 3)
	assert.Equal(t, "Primary cause: Risk grade is DECLINE", d.Factors[0])
	for _, o := range d.Lenders {
		require.Len(t, o.FailedRules, 1)
		assert.Equal(t, RuleGradeNotDecline, o.FailedRules[0].Rule)
	}
	assert.Equal(t, 0.0, d.MaxLoanAmount)
	assert.Equal(t, 0.0, d.EstimatedRate)
}

func TestEvaluate_ScenarioC_SelfEmployedShortHistory(t *testing.T) {
	engine := newTestEngine(t, defaultTable(t))
	applicant := models.Applicant{
		AnnualIncome:       120000,
		EmploymentCategory: models.EmploymentSelfEmployed,
		EmploymentMonths:   4,
		CreditScore:        700,
		MonthlyExpenses:    2500,
	}
	_, property := scenarioA()
	property.LoanAmount = 400000
	property.PropertyValue = 500000

	d, err := engine.Evaluate(applicant, property)
	require.NoError(t, err)

	assert.Equal(t, 0.0, d.Assessment.QualifyingIncome)
	assert.Less(t, d.Assessment.MonthlySurplus, 0.0)
	assert.Empty(t, d.ApprovedLenders)
	assert.Empty(t, d.ConditionalLenders)
	assert.Equal(t, models.OutcomeDeclined, d.Decision)
	assert.Equal(t, models.GradeC, d.RiskGrade)
	assert.Contains(t, d.Factors[0], "Debt-to-income ratio undefined")
	assert.Contains(t, d.Factors, "Self-employed income not recognised: 4 months trading history, 24 required")
	assert.Contains(t, d.Recommendations, "Reapply once two years of trading history can be evidenced")
	assert.Contains(t, d.RequiredDocuments, "Business activity statements")
}

func TestEvaluate_ScenarioD_FullLVRExcludesEveryLender(t *testing.T) {
	engine := newTestEngine(t, defaultTable(t))
	applicant, property := scenarioA()
	property.LoanAmount = 500000
	property.PropertyValue = 500000
	property.DepositAmount = 0

	d, err := engine.Evaluate(applicant, property)
	require.NoError(t, err)

	assert.Equal(t, 100.0, d.Assessment.LVR)
	assert.Equal(t, models.OutcomeDeclined, d.Decision)
	for _, o := range d.Lenders {
		require.Len(t, o.FailedRules, 1, o.LenderID)
		assert.Equal(t, RuleLVRWithinInsuredMax, o.FailedRules[0].Rule)
		assert.False(t, o.LMIRequired)
	}
	assert.Equal(t, "Primary cause: LVR 100.0% exceeds the 95.0% insured maximum", d.Factors[0])
	assert.Contains(t, d.Factors, "LVR above 95% is outside most lenders' appetite")
	assert.Contains(t, d.Factors, "Deposit is below 5% of the property value")
}

// ==========================
// Bucket and Outcome Tests
// ==========================

func TestEvaluate_SingleSoftFailureIsConditional(t *testing.T) {
	table := singleLenderTable(t, func(p *models.LenderPolicy) { p.MinCreditScore = 750 })
	engine := newTestEngine(t, table)
	applicant, property := scenarioA()

	d, err := engine.Evaluate(applicant, property)
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeConditional, d.Decision)
	assert.Equal(t, []string{"test_bank"}, d.ConditionalLenders)
	assert.Equal(t, []string{
		"Credit score exception (minimum 750)",
		"Lenders mortgage insurance required",
	}, d.Conditions)
	assert.Equal(t, "Primary cause: Credit score 720 is below the lender minimum of 750", d.Factors[0])
	assert.Equal(t, 0.0, d.MaxLoanAmount)
	assert.Equal(t, 0.0, d.EstimatedRate)
	assert.Equal(t, 1.0, d.Confidence)
}

func TestEvaluate_TwoSoftFailuresDecline(t *testing.T) {
	table := singleLenderTable(t, func(p *models.LenderPolicy) {
		p.MinCreditScore = 750
		p.MaxDTI = 4
	})
	engine := newTestEngine(t, table)
	applicant, property := scenarioA()

	d, err := engine.Evaluate(applicant, property)
	require.NoError(t, err)

	assert.Equal(t, models.OutcomeDeclined, d.Decision)
	require.Len(t, d.Lenders[0].FailedRules, 2)
	assert.Equal(t, RuleCreditScoreMinimum, d.Lenders[0].FailedRules[0].Rule)
	assert.Equal(t, RuleDTIWithinMax, d.Lenders[0].FailedRules[1].Rule)
	assert.Empty(t, d.Conditions)
	assert.Equal(t, 0.5, d.Confidence)
}

func TestEvaluate_HardRuleShortCircuits(t *testing.T) {
	table := singleLenderTable(t, func(p *models.LenderPolicy) { p.MinCreditScore = 800 })
	engine := newTestEngine(t, table)
	applicant, property := scenarioA()
	property.HeritageListed = true
	property.LivingAreaSqm = 20
	property.PropertyType = models.PropertyStudio
	property.Postcode = "3000"

	d, err := engine.Evaluate(applicant, property)
	require.NoError(t, err)

	assert.Equal(t, models.PropertyUnacceptable, d.Assessment.PropertyCategory)
	require.Len(t, d.Lenders[0].FailedRules, 1)
	assert.Equal(t, RulePropertyAcceptable, d.Lenders[0].FailedRules[0].Rule)
}

func TestEvaluate_ReferSpecialist(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(a *models.Applicant, p *models.Property)
		outcome models.Outcome
	}{
		{
			name:    "joint application",
			mutate:  func(a *models.Applicant, p *models.Property) { a.JointApplication = true },
			outcome: models.OutcomeReferSpecialist,
		},
		{
			name: "large deposit",
			mutate: func(a *models.Applicant, p *models.Property) {
				p.LoanAmount = 400000
				p.DepositAmount = 150000
			},
			outcome: models.OutcomeReferSpecialist,
		},
		{
			name:    "no mitigating factor",
			mutate:  func(a *models.Applicant, p *models.Property) { p.DepositAmount = 20000 },
			outcome: models.OutcomeDeclined,
		},
		{
			name: "bankruptcy is never referred",
			mutate: func(a *models.Applicant, p *models.Property) {
				a.JointApplication = true
				a.Bankruptcy = true
			},
			outcome: models.OutcomeDeclined,
		},
		{
			name: "unacceptable property is never referred",
			mutate: func(a *models.Applicant, p *models.Property) {
				a.JointApplication = true
				p.PropertyType = models.PropertyStudio
				p.LivingAreaSqm = 10
				p.Postcode = "4000"
			},
			outcome: models.OutcomeDeclined,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t, defaultTable(t))
			applicant, property := scenarioA()
			applicant.PreviousDefaults = 3
			tt.mutate(&applicant, &property)

			d, err := engine.Evaluate(applicant, property)
			require.NoError(t, err)
			assert.Equal(t, models.GradeDecline, d.RiskGrade)
			assert.Equal(t, tt.outcome, d.Decision)
			assert.NotEmpty(t, d.Factors)
		})
	}
}

func TestEvaluate_EstimatedRateTieGoesToTableOrder(t *testing.T) {
	first := models.LenderPolicy{
		ID: "first", Name: "First", MaxLVRWithoutLMI: 80, MaxLVRWithLMI: 95, MinCreditScore: 500,
		AcceptedEmployment: models.EmploymentCategories,
		AcceptedProperty:   []models.PropertyCategory{models.PropertyStandard},
		MaxDTI:             7, BaseRate: 6.0,
		GradeLoadings: map[models.RiskGrade]float64{models.GradeB: 0.4},
	}
	second := first.Clone()
	second.ID, second.Name = "second", "Second"
	second.GradeLoadings = map[models.RiskGrade]float64{models.GradeB: 0.1}

	table, err := policy.NewTable([]models.LenderPolicy{first, second})
	require.NoError(t, err)

	applicant, property := scenarioA()
	d, err := newTestEngine(t, table).Evaluate(applicant, property)
	require.NoError(t, err)

	assert.Equal(t, 6.4, d.EstimatedRate)
}

func TestEvaluate_HighValueWarning(t *testing.T) {
	engine := newTestEngine(t, defaultTable(t))
	applicant, property := scenarioA()
	property.PropertyValue = 2000000
	property.DepositAmount = 1550000

	d, err := engine.Evaluate(applicant, property)
	require.NoError(t, err)
	assert.Contains(t, d.Factors, "Property value above $1.8M may need a full valuation and senior credit approval")
}

// ==========================
// Property Tests
// ==========================

func TestEvaluate_Idempotent(t *testing.T) {
	engine := newTestEngine(t, defaultTable(t))
	applicant, property := scenarioA()

	first, err := engine.Evaluate(applicant, property)
	require.NoError(t, err)
	want, err := json.Marshal(first)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]byte, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := engine.Evaluate(applicant, property)
			if err != nil {
				return
			}
			results[i], _ = json.Marshal(d)
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		assert.Equal(t, string(want), string(got), "run %d", i)
	}
}

func TestEvaluate_NonApprovedAlwaysHasFactors(t *testing.T) {
	engine := newTestEngine(t, defaultTable(t))

	for score := 300; score <= 850; score += 50 {
		for _, loan := range []float64{200000, 450000, 540000, 600000} {
			t.Run(fmt.Sprintf("score_%d_loan_%.0f", score, loan), func(t *testing.T) {
				applicant, property := scenarioA()
				applicant.CreditScore = score
				property.LoanAmount = loan

				d, err := engine.Evaluate(applicant, property)
				require.NoError(t, err)
				if d.Decision != models.OutcomeApproved {
					require.NotEmpty(t, d.Factors)
					assert.Contains(t, d.Factors[0], "Primary cause: ")
				}
				assert.GreaterOrEqual(t, d.Confidence, 0.0)
				assert.LessOrEqual(t, d.Confidence, 1.0)
			})
		}
	}
}

func TestEvaluate_DefaultsAtLimitDecline(t *testing.T) {
	engine := newTestEngine(t, defaultTable(t))
	applicant, property := scenarioA()
	applicant.PreviousDefaults = MaxPreviousDefaults

	d, err := engine.Evaluate(applicant, property)
	require.NoError(t, err)
	assert.Equal(t, models.GradeDecline, d.RiskGrade)
	assert.Equal(t, models.OutcomeDeclined, d.Decision)
}

func TestEvaluate_GradeMonotonicInCreditScore(t *testing.T) {
	engine := newTestEngine(t, defaultTable(t))
	applicant, property := scenarioA()

	prev := models.GradeDecline.Rank() + 1
	for score := 300; score <= 850; score += 10 {
		applicant.CreditScore = score
		d, err := engine.Evaluate(applicant, property)
		require.NoError(t, err)

		rank := d.RiskGrade.Rank()
		assert.LessOrEqual(t, rank, prev, "score %d", score)
		prev = rank
	}
}

// ==========================
// Validation and Construction Tests
// ==========================

func TestEvaluate_ValidationError(t *testing.T) {
	engine := newTestEngine(t, defaultTable(t))
	applicant, property := scenarioA()
	applicant.CreditScore = 100
	applicant.EmploymentCategory = ""
	property.LoanAmount = 0
	property.Postcode = "20A0"

	d, err := engine.Evaluate(applicant, property)
	assert.Nil(t, d)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	fields := make([]string, len(validationErr.Fields))
	for i, f := range validationErr.Fields {
		fields[i] = f.Field
	}
	assert.Equal(t, []string{
		"applicant.employmentCategory",
		"applicant.creditScore",
		"property.loanAmount",
		"property.postcode",
	}, fields)
	assert.Contains(t, err.Error(), "applicant.creditScore: must be between 300 and 850")
}

func TestValidate_Ranges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *models.Applicant, p *models.Property)
		field  string
	}{
		{"negative income", func(a *models.Applicant, p *models.Property) { a.AnnualIncome = -1 }, "applicant.annualIncome"},
		{"too many dependents", func(a *models.Applicant, p *models.Property) { a.Dependents = 21 }, "applicant.dependents"},
		{"negative defaults", func(a *models.Applicant, p *models.Property) { a.PreviousDefaults = -1 }, "applicant.previousDefaults"},
		{"too many defaults", func(a *models.Applicant, p *models.Property) { a.PreviousDefaults = 1_000_000_000 }, "applicant.previousDefaults"},
		{"term too long", func(a *models.Applicant, p *models.Property) { p.LoanTermYears = 41 }, "property.loanTermYears"},
		{"unknown property type", func(a *models.Applicant, p *models.Property) { p.PropertyType = "castle" }, "property.propertyType"},
		{"negative deposit", func(a *models.Applicant, p *models.Property) { p.DepositAmount = -5 }, "property.depositAmount"},
		{"zero value", func(a *models.Applicant, p *models.Property) { p.PropertyValue = 0 }, "property.propertyValue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			applicant, property := scenarioA()
			tt.mutate(&applicant, &property)

			var validationErr *ValidationError
			require.ErrorAs(t, Validate(applicant, property), &validationErr)
			require.Len(t, validationErr.Fields, 1)
			assert.Equal(t, tt.field, validationErr.Fields[0].Field)
		})
	}

	applicant, property := scenarioA()
	assert.NoError(t, Validate(applicant, property))
}

func TestNewEngine(t *testing.T) {
	_, err := NewEngine(nil, Options{}, nil)
	assert.ErrorIs(t, err, ErrNoPolicyTable)

	engine, err := NewEngine(defaultTable(t), Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 7.0, engine.StressRate())
	assert.Equal(t, 3, engine.Lenders())

	engine, err = NewEngine(defaultTable(t), Options{StressRate: 8.5}, nil)
	require.NoError(t, err)

	applicant, property := scenarioA()
	d, err := engine.Evaluate(applicant, property)
	require.NoError(t, err)
	assert.Equal(t, 8.5, d.Assessment.StressRate)
}

func TestStageMachine(t *testing.T) {
	m := newStageMachine(logger.NewNoOpLogger())

	assert.Panics(t, func() { m.advance(StageAssembling) })
	assert.Equal(t, StageCollecting, m.current)

	for _, next := range []Stage{StageAssessing, StagePerLenderEvaluation, StageAssembling, StageDone} {
		assert.NotPanics(t, func() { m.advance(next) })
	}
	assert.Equal(t, "done", m.current.String())
	assert.Panics(t, func() { m.advance(StageAssessing) })
}
