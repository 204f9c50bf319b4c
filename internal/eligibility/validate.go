package eligibility

import (
	"fmt"
	"math"
	"strings"

	"lending-workers/internal/models"
)

// MaxPreviousDefaults bounds the default count an application may declare.
// Three defaults already take an A grade to Decline.
const MaxPreviousDefaults = 20

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every offending input field. It is returned before
// any assessment runs.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "invalid application: " + strings.Join(parts, "; ")
}

type fieldChecker struct {
	errs []FieldError
}

func (c *fieldChecker) fail(field, format string, args ...interface{}) {
	c.errs = append(c.errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (c *fieldChecker) nonNegative(field string, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		c.fail(field, "must be a finite number")
	} else if v < 0 {
		c.fail(field, "must not be negative")
	}
}

func (c *fieldChecker) positive(field string, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		c.fail(field, "must be a finite number")
	} else if v <= 0 {
		c.fail(field, "must be greater than zero")
	}
}

func (c *fieldChecker) intRange(field string, v, min, max int) {
	if v < min || v > max {
		c.fail(field, "must be between %d and %d", min, max)
	}
}

// Validate checks field presence and ranges for one application.
func Validate(applicant models.Applicant, property models.Property) error {
	c := &fieldChecker{}

	c.nonNegative("applicant.annualIncome", applicant.AnnualIncome)
	if !applicant.EmploymentCategory.Valid() {
		c.fail("applicant.employmentCategory", "must be one of permanent, casual, self_employed, contract")
	}
	if applicant.EmploymentMonths < 0 {
		c.fail("applicant.employmentMonths", "must not be negative")
	}
	c.intRange("applicant.creditScore", applicant.CreditScore, 300, 850)
	c.nonNegative("applicant.monthlyExpenses", applicant.MonthlyExpenses)
	c.nonNegative("applicant.monthlyDebts", applicant.MonthlyDebts)
	c.intRange("applicant.dependents", applicant.Dependents, 0, 20)
	c.intRange("applicant.previousDefaults", applicant.PreviousDefaults, 0, MaxPreviousDefaults)

	c.positive("property.loanAmount", property.LoanAmount)
	c.positive("property.propertyValue", property.PropertyValue)
	c.nonNegative("property.depositAmount", property.DepositAmount)
	c.intRange("property.loanTermYears", property.LoanTermYears, 1, 40)
	if !property.PropertyType.Valid() {
		c.fail("property.propertyType", "must be one of house, unit, apartment, townhouse, villa, studio, rural")
	}
	c.nonNegative("property.livingAreaSqm", property.LivingAreaSqm)
	if !validPostcode(property.Postcode) {
		c.fail("property.postcode", "must be 4 digits")
	}
	c.nonNegative("property.landSizeHectares", property.LandSizeHectares)

	if len(c.errs) > 0 {
		return &ValidationError{Fields: c.errs}
	}
	return nil
}

func validPostcode(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
