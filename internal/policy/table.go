// Package policy loads the lender policy table an engine evaluates against.
// A Table is immutable once built and safe for concurrent readers.
package policy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"lending-workers/internal/models"
)

// Source yields raw lender policies from some backing store.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]models.LenderPolicy, error)
}

type Table struct {
	policies []models.LenderPolicy
	index    map[string]int
}

// LoadError reports why a policy table could not be built. Line is the
// 1-based line or row within the source when known.
type LoadError struct {
	Source string
	Line   int
	Lender string
	Err    error
}

func (e *LoadError) Error() string {
	msg := "policy: load " + e.Source
	if e.Line > 0 {
		msg += fmt.Sprintf(": line %d", e.Line)
	}
	if e.Lender != "" {
		msg += fmt.Sprintf(" (%s)", e.Lender)
	}
	return msg + ": " + e.Err.Error()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

var ErrEmptyTable = errors.New("policy table has no lenders")

// LoadPolicies reads every policy from src and validates the table.
func LoadPolicies(ctx context.Context, src Source) (*Table, error) {
	policies, err := src.Load(ctx)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return nil, err
		}
		return nil, &LoadError{Source: src.Name(), Err: err}
	}

	table, err := NewTable(policies)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			loadErr.Source = src.Name()
			return nil, loadErr
		}
		return nil, &LoadError{Source: src.Name(), Err: err}
	}
	return table, nil
}

// NewTable validates and copies policies, keeping their order.
func NewTable(policies []models.LenderPolicy) (*Table, error) {
	if len(policies) == 0 {
		return nil, &LoadError{Source: "table", Err: ErrEmptyTable}
	}

	t := &Table{
		policies: make([]models.LenderPolicy, 0, len(policies)),
		index:    make(map[string]int, len(policies)),
	}

	for i, p := range policies {
		if err := Validate(p); err != nil {
			return nil, &LoadError{Source: "table", Line: i + 1, Lender: p.ID, Err: err}
		}
		if _, dup := t.index[p.ID]; dup {
			return nil, &LoadError{Source: "table", Line: i + 1, Lender: p.ID, Err: errors.New("duplicate lender id")}
		}

		clone := p.Clone()
		sort.SliceStable(clone.LVRLoadings, func(a, b int) bool {
			return clone.LVRLoadings[a].AboveLVR < clone.LVRLoadings[b].AboveLVR
		})

		t.index[p.ID] = len(t.policies)
		t.policies = append(t.policies, clone)
	}

	return t, nil
}

// Validate checks the invariants every lender policy must hold.
func Validate(p models.LenderPolicy) error {
	if err := checkFinite(p); err != nil {
		return err
	}

	switch {
	case p.ID == "":
		return errors.New("lender id is required")
	case p.MaxLVRWithoutLMI <= 0 || p.MaxLVRWithLMI <= 0:
		return errors.New("maximum LVR values must be positive")
	case p.MaxLVRWithoutLMI > p.MaxLVRWithLMI:
		return fmt.Errorf("max LVR without LMI %.1f exceeds max LVR with LMI %.1f", p.MaxLVRWithoutLMI, p.MaxLVRWithLMI)
	case p.MaxLVRWithLMI > 100:
		return fmt.Errorf("max LVR with LMI %.1f exceeds 100", p.MaxLVRWithLMI)
	case p.MinCreditScore < 0 || p.MinCreditScore > 850:
		return fmt.Errorf("minimum credit score %d out of range", p.MinCreditScore)
	case len(p.AcceptedEmployment) == 0:
		return errors.New("accepted employment categories must not be empty")
	case len(p.AcceptedProperty) == 0:
		return errors.New("accepted property categories must not be empty")
	case p.MaxDTI <= 0:
		return errors.New("maximum DTI must be positive")
	case p.BaseRate <= 0:
		return errors.New("base rate must be positive")
	case len(p.GradeLoadings) == 0:
		return errors.New("at least one risk grade loading is required")
	}

	for _, c := range p.AcceptedEmployment {
		if !c.Valid() {
			return fmt.Errorf("unknown employment category %q", c)
		}
	}
	for _, c := range p.AcceptedProperty {
		if !c.Valid() {
			return fmt.Errorf("unknown property category %q", c)
		}
	}
	for grade := range p.GradeLoadings {
		if !grade.Valid() || grade == models.GradeDecline {
			return fmt.Errorf("invalid risk grade loading %q", grade)
		}
	}
	return nil
}

type numericColumn struct {
	column string
	value  float64
}

// checkFinite rejects NaN and infinities, which pass every ordered comparison
// in Validate.
func checkFinite(p models.LenderPolicy) error {
	columns := []numericColumn{
		{"max_lvr_without_lmi", p.MaxLVRWithoutLMI},
		{"max_lvr_with_lmi", p.MaxLVRWithLMI},
		{"max_dti", p.MaxDTI},
		{"base_rate", p.BaseRate},
	}
	for _, grade := range []models.RiskGrade{models.GradeA, models.GradeB, models.GradeC, models.GradeDecline} {
		if loading, ok := p.GradeLoadings[grade]; ok {
			columns = append(columns, numericColumn{"loading_" + strings.ToLower(string(grade)), loading})
		}
	}
	for _, l := range p.LVRLoadings {
		columns = append(columns, numericColumn{"lvr_loadings", l.AboveLVR}, numericColumn{"lvr_loadings", l.Loading})
	}

	for _, c := range columns {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return fmt.Errorf("%s must be a finite number", c.column)
		}
	}
	return nil
}

// Policies returns a copy of the table in load order.
func (t *Table) Policies() []models.LenderPolicy {
	out := make([]models.LenderPolicy, len(t.policies))
	for i, p := range t.policies {
		out[i] = p.Clone()
	}
	return out
}

// Each calls fn for every policy in load order. The policy shares its slices
// and map with the table and must be treated as read-only.
func (t *Table) Each(fn func(p models.LenderPolicy)) {
	for _, p := range t.policies {
		fn(p)
	}
}

func (t *Table) Len() int {
	return len(t.policies)
}

func (t *Table) Lookup(id string) (models.LenderPolicy, bool) {
	i, ok := t.index[id]
	if !ok {
		return models.LenderPolicy{}, false
	}
	return t.policies[i].Clone(), true
}
