package policy

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"lending-workers/internal/models"
)

// Columns is the tabular record layout shared by every source.
var Columns = []string{
	"lender_id",
	"lender_name",
	"max_lvr_without_lmi",
	"max_lvr_with_lmi",
	"min_credit_score",
	"accepted_employment",
	"accepted_property",
	"max_dti",
	"base_rate",
	"loading_a",
	"loading_b",
	"loading_c",
	"lvr_loadings",
}

const listSeparator = "|"

// ParseRecord converts one tabular record into a policy. It checks shape and
// number formats only; table invariants are enforced by NewTable.
func ParseRecord(fields []string) (models.LenderPolicy, error) {
	if len(fields) != len(Columns) {
		return models.LenderPolicy{}, fmt.Errorf("expected %d columns, got %d", len(Columns), len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	p := models.LenderPolicy{
		ID:            fields[0],
		Name:          fields[1],
		GradeLoadings: map[models.RiskGrade]float64{},
	}

	var err error
	if p.MaxLVRWithoutLMI, err = parseFloat(fields[2], Columns[2]); err != nil {
		return p, err
	}
	if p.MaxLVRWithLMI, err = parseFloat(fields[3], Columns[3]); err != nil {
		return p, err
	}
	if p.MinCreditScore, err = strconv.Atoi(fields[4]); err != nil {
		return p, fmt.Errorf("%s: %w", Columns[4], err)
	}
	for _, v := range splitList(fields[5]) {
		p.AcceptedEmployment = append(p.AcceptedEmployment, models.EmploymentCategory(v))
	}
	for _, v := range splitList(fields[6]) {
		p.AcceptedProperty = append(p.AcceptedProperty, models.PropertyCategory(v))
	}
	if p.MaxDTI, err = parseFloat(fields[7], Columns[7]); err != nil {
		return p, err
	}
	if p.BaseRate, err = parseFloat(fields[8], Columns[8]); err != nil {
		return p, err
	}

	grades := []models.RiskGrade{models.GradeA, models.GradeB, models.GradeC}
	for i, grade := range grades {
		raw := fields[9+i]
		if raw == "" {
			continue
		}
		loading, err := parseFloat(raw, Columns[9+i])
		if err != nil {
			return p, err
		}
		p.GradeLoadings[grade] = loading
	}

	if p.LVRLoadings, err = parseLVRLoadings(fields[12]); err != nil {
		return p, err
	}
	return p, nil
}

// FormatRecord is the inverse of ParseRecord.
func FormatRecord(p models.LenderPolicy) []string {
	employment := make([]string, len(p.AcceptedEmployment))
	for i, c := range p.AcceptedEmployment {
		employment[i] = string(c)
	}
	property := make([]string, len(p.AcceptedProperty))
	for i, c := range p.AcceptedProperty {
		property[i] = string(c)
	}
	loadings := make([]string, len(p.LVRLoadings))
	for i, l := range p.LVRLoadings {
		loadings[i] = formatFloat(l.AboveLVR) + ":" + formatFloat(l.Loading)
	}

	grade := func(g models.RiskGrade) string {
		if v, ok := p.GradeLoadings[g]; ok {
			return formatFloat(v)
		}
		return ""
	}

	return []string{
		p.ID,
		p.Name,
		formatFloat(p.MaxLVRWithoutLMI),
		formatFloat(p.MaxLVRWithLMI),
		strconv.Itoa(p.MinCreditScore),
		strings.Join(employment, listSeparator),
		strings.Join(property, listSeparator),
		formatFloat(p.MaxDTI),
		formatFloat(p.BaseRate),
		grade(models.GradeA),
		grade(models.GradeB),
		grade(models.GradeC),
		strings.Join(loadings, listSeparator),
	}
}

func parseLVRLoadings(raw string) ([]models.LVRLoading, error) {
	var out []models.LVRLoading
	for _, item := range splitList(raw) {
		above, loading, ok := strings.Cut(item, ":")
		if !ok {
			return nil, fmt.Errorf("%s: malformed band %q", Columns[12], item)
		}
		a, err := parseFloat(above, Columns[12])
		if err != nil {
			return nil, err
		}
		l, err := parseFloat(loading, Columns[12])
		if err != nil {
			return nil, err
		}
		out = append(out, models.LVRLoading{AboveLVR: a, Loading: l})
	}
	return out, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, listSeparator)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseFloat(raw, column string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", column, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s: %q is not a finite number", column, raw)
	}
	return v, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
