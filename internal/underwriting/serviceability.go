package underwriting

import (
	"math"
)

// DefaultStressRate is the annual rate, in percent, repayments are tested at.
const DefaultStressRate = 7.0

// assumed repayment rate used to turn monthly commitments into a debt balance
const debtBalanceRate = 0.05

type taxBracket struct {
	threshold float64
	base      float64
	rate      float64
}

// resident brackets, highest first
var taxBrackets = []taxBracket{
	{threshold: 180000, base: 51667, rate: 0.45},
	{threshold: 120000, base: 29467, rate: 0.37},
	{threshold: 45000, base: 5092, rate: 0.325},
	{threshold: 18200, base: 0, rate: 0.19},
}

// monthly benchmark expenses indexed by dependents (3 means three or more)
var (
	singleBenchmark = [4]float64{2500, 3200, 3800, 4400}
	coupleBenchmark = [4]float64{3500, 4200, 4800, 5400}
)

type ServiceabilityInput struct {
	QualifyingIncome float64
	MonthlyExpenses  float64
	MonthlyDebts     float64
	Dependents       int
	JointApplication bool
	LoanAmount       float64
	LoanTermYears    int
	StressRate       float64
}

type ServiceabilityAssessment struct {
	NetMonthlyIncome  float64
	BenchmarkExpenses float64
	ExpenseFloor      float64
	MonthlyDebts      float64
	MonthlyRepayment  float64
	MonthlySurplus    float64
	MaxLoanAmount     float64
	// DTI is +Inf when there is no qualifying income.
	DTI        float64
	StressRate float64
}

func (a ServiceabilityAssessment) Serviceable() bool {
	return a.MonthlySurplus >= 0
}

func AssessServiceability(in ServiceabilityInput) ServiceabilityAssessment {
	stress := in.StressRate
	if stress <= 0 {
		stress = DefaultStressRate
	}

	netMonthly := NetAnnualIncome(in.QualifyingIncome) / 12
	benchmark := BenchmarkExpenses(in.JointApplication, in.Dependents)
	floor := math.Max(benchmark, in.MonthlyExpenses)
	repayment := MonthlyRepayment(in.LoanAmount, stress, in.LoanTermYears)

	available := netMonthly - floor - in.MonthlyDebts
	maxLoan := 0.0
	if available > 0 {
		maxLoan = LoanFromRepayment(available, stress, in.LoanTermYears)
	}

	return ServiceabilityAssessment{
		NetMonthlyIncome:  round2(netMonthly),
		BenchmarkExpenses: benchmark,
		ExpenseFloor:      round2(floor),
		MonthlyDebts:      round2(in.MonthlyDebts),
		MonthlyRepayment:  round2(repayment),
		MonthlySurplus:    round2(available - repayment),
		MaxLoanAmount:     math.Floor(maxLoan),
		DTI:               DebtToIncome(in.LoanAmount, in.MonthlyDebts, in.QualifyingIncome),
		StressRate:        stress,
	}
}

// NetAnnualIncome deducts resident income tax from gross annual income.
func NetAnnualIncome(gross float64) float64 {
	if gross <= 0 {
		return 0
	}
	for _, b := range taxBrackets {
		if gross > b.threshold {
			return gross - (b.base + (gross-b.threshold)*b.rate)
		}
	}
	return gross
}

// BenchmarkExpenses is the monthly living-expense floor for the household.
func BenchmarkExpenses(joint bool, dependents int) float64 {
	idx := dependents
	if idx < 0 {
		idx = 0
	}
	if idx > 3 {
		idx = 3
	}
	if joint {
		return coupleBenchmark[idx]
	}
	return singleBenchmark[idx]
}

// MonthlyRepayment is the principal-and-interest payment for an annuity loan.
func MonthlyRepayment(principal, annualRatePct float64, years int) float64 {
	n := float64(years * 12)
	if principal <= 0 || n <= 0 {
		return 0
	}
	r := annualRatePct / 100 / 12
	if r == 0 {
		return principal / n
	}
	growth := math.Pow(1+r, n)
	return principal * r * growth / (growth - 1)
}

// LoanFromRepayment inverts MonthlyRepayment.
func LoanFromRepayment(payment, annualRatePct float64, years int) float64 {
	n := float64(years * 12)
	if payment <= 0 || n <= 0 {
		return 0
	}
	r := annualRatePct / 100 / 12
	if r == 0 {
		return payment * n
	}
	return payment * (1 - math.Pow(1+r, -n)) / r
}

// DebtToIncome compares the new loan plus existing debt with qualifying income.
func DebtToIncome(loanAmount, monthlyDebts, qualifyingIncome float64) float64 {
	if qualifyingIncome <= 0 {
		return math.Inf(1)
	}
	existing := monthlyDebts * 12 / debtBalanceRate
	return round2((loanAmount + existing) / qualifyingIncome)
}
