// internal/models/applicant.go
package models

type EmploymentCategory string

const (
	EmploymentPermanent    EmploymentCategory = "permanent"
	EmploymentCasual       EmploymentCategory = "casual"
	EmploymentSelfEmployed EmploymentCategory = "self_employed"
	EmploymentContract     EmploymentCategory = "contract"
)

var EmploymentCategories = []EmploymentCategory{
	EmploymentPermanent,
	EmploymentCasual,
	EmploymentSelfEmployed,
	EmploymentContract,
}

func (c EmploymentCategory) Valid() bool {
	for _, known := range EmploymentCategories {
		if c == known {
			return true
		}
	}
	return false
}

type Applicant struct {
	AnnualIncome       float64            `json:"annualIncome"`
	EmploymentCategory EmploymentCategory `json:"employmentCategory"`
	EmploymentMonths   int                `json:"employmentMonths"`
	CreditScore        int                `json:"creditScore"`
	MonthlyExpenses    float64            `json:"monthlyExpenses"`
	MonthlyDebts       float64            `json:"monthlyDebts"`
	Dependents         int                `json:"dependents"`
	JointApplication   bool               `json:"jointApplication"`
	FirstHomeBuyer     bool               `json:"firstHomeBuyer"`
	PreviousDefaults   int                `json:"previousDefaults"`
	Bankruptcy         bool               `json:"bankruptcy"`
}
