// internal/models/policy.go
package models

// LVRLoading adds Loading percentage points to the rate when the LVR is above AboveLVR.
type LVRLoading struct {
	AboveLVR float64 `json:"aboveLvr"`
	Loading  float64 `json:"loading"`
}

type LenderPolicy struct {
	ID                 string                `json:"id"`
	Name               string                `json:"name"`
	MaxLVRWithoutLMI   float64               `json:"maxLvrWithoutLmi"`
	MaxLVRWithLMI      float64               `json:"maxLvrWithLmi"`
	MinCreditScore     int                   `json:"minCreditScore"`
	AcceptedEmployment []EmploymentCategory  `json:"acceptedEmployment"`
	AcceptedProperty   []PropertyCategory    `json:"acceptedProperty"`
	MaxDTI             float64               `json:"maxDti"`
	BaseRate           float64               `json:"baseRate"`
	GradeLoadings      map[RiskGrade]float64 `json:"gradeLoadings"`
	LVRLoadings        []LVRLoading          `json:"lvrLoadings"`
}

func (p LenderPolicy) AcceptsEmployment(c EmploymentCategory) bool {
	for _, accepted := range p.AcceptedEmployment {
		if accepted == c {
			return true
		}
	}
	return false
}

func (p LenderPolicy) AcceptsProperty(c PropertyCategory) bool {
	for _, accepted := range p.AcceptedProperty {
		if accepted == c {
			return true
		}
	}
	return false
}

// GradeLoading reports the rate loading for grade; ok is false when the lender
// does not lend to that grade.
func (p LenderPolicy) GradeLoading(grade RiskGrade) (loading float64, ok bool) {
	loading, ok = p.GradeLoadings[grade]
	return loading, ok
}

// LVRLoading returns the loading of the highest band the LVR sits above.
// LVRLoadings is kept sorted by AboveLVR.
func (p LenderPolicy) LVRLoading(lvr float64) float64 {
	loading := 0.0
	for _, band := range p.LVRLoadings {
		if lvr > band.AboveLVR {
			loading = band.Loading
		}
	}
	return loading
}

// Clone returns a deep copy so callers cannot mutate a loaded table.
func (p LenderPolicy) Clone() LenderPolicy {
	out := p
	out.AcceptedEmployment = append([]EmploymentCategory(nil), p.AcceptedEmployment...)
	out.AcceptedProperty = append([]PropertyCategory(nil), p.AcceptedProperty...)
	out.LVRLoadings = append([]LVRLoading(nil), p.LVRLoadings...)
	out.GradeLoadings = make(map[RiskGrade]float64, len(p.GradeLoadings))
	for grade, loading := range p.GradeLoadings {
		out.GradeLoadings[grade] = loading
	}
	return out
}
