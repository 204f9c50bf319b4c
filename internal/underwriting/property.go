package underwriting

import (
	"fmt"

	"lending-workers/internal/models"
)

type PropertyFlag string

const (
	FlagBelowMinimumArea PropertyFlag = "BELOW_MINIMUM_LIVING_AREA"
	FlagHeritageListed   PropertyFlag = "HERITAGE_LISTED"
	FlagFloodProne       PropertyFlag = "FLOOD_PRONE"
	FlagBushfireZone     PropertyFlag = "BUSHFIRE_ZONE"
	FlagStudioLocation   PropertyFlag = "STUDIO_OUTSIDE_ACCEPTED_POSTCODES"
	FlagLargeRural       PropertyFlag = "RURAL_LAND_ABOVE_LIMIT"
)

// MaxRuralHectares is the largest rural holding accepted without a site downgrade.
const MaxRuralHectares = 40.0

var minLivingArea = map[models.PropertyType]float64{
	models.PropertyHouse:     50,
	models.PropertyRural:     50,
	models.PropertyUnit:      40,
	models.PropertyApartment: 40,
	models.PropertyTownhouse: 40,
	models.PropertyVilla:     40,
	models.PropertyStudio:    30,
}

var baseCategory = map[models.PropertyType]models.PropertyCategory{
	models.PropertyHouse:     models.PropertyStandard,
	models.PropertyUnit:      models.PropertyStandard,
	models.PropertyApartment: models.PropertyStandard,
	models.PropertyTownhouse: models.PropertyStandard,
	models.PropertyVilla:     models.PropertyStandard,
	models.PropertyStudio:    models.PropertyNonStandard,
	models.PropertyRural:     models.PropertyNonStandard,
}

// inner-city postcodes where studios are still lent against
var studioPostcodes = map[string]bool{
	"2000": true,
	"2010": true,
	"2011": true,
	"2021": true,
}

type PropertyAssessment struct {
	Category models.PropertyCategory
	Flags    []PropertyFlag
	Reasons  []string
}

// ClassifyProperty grades the security. Two downgrade classes exist: the
// living-area floor and site risk (heritage, hazards, location, land size).
// Each class costs at most one step however many of its triggers fire, and the
// result never goes below Unacceptable.
func ClassifyProperty(p models.Property) PropertyAssessment {
	category, ok := baseCategory[p.PropertyType]
	if !ok {
		return PropertyAssessment{
			Category: models.PropertyUnacceptable,
			Reasons:  []string{fmt.Sprintf("Property type %q is not accepted", p.PropertyType)},
		}
	}

	out := PropertyAssessment{}
	if category == models.PropertyNonStandard {
		out.Reasons = append(out.Reasons, fmt.Sprintf("%s security is non-standard", p.PropertyType))
	}

	downgrades := 0

	if floor := minLivingArea[p.PropertyType]; p.LivingAreaSqm < floor {
		downgrades++
		out.Flags = append(out.Flags, FlagBelowMinimumArea)
		out.Reasons = append(out.Reasons, fmt.Sprintf(
			"Living area %.0fsqm is below the %.0fsqm minimum for a %s", p.LivingAreaSqm, floor, p.PropertyType))
	}

	siteFlags := siteTriggers(p)
	if len(siteFlags) > 0 {
		downgrades++
		for _, flag := range siteFlags {
			out.Flags = append(out.Flags, flag)
			out.Reasons = append(out.Reasons, siteReason(flag, p))
		}
	}

	out.Category = category.Downgrade(downgrades)
	if out.Flags == nil {
		out.Flags = []PropertyFlag{}
	}
	return out
}

func siteTriggers(p models.Property) []PropertyFlag {
	var flags []PropertyFlag
	if p.HeritageListed {
		flags = append(flags, FlagHeritageListed)
	}
	if p.FloodProne {
		flags = append(flags, FlagFloodProne)
	}
	if p.BushfireZone {
		flags = append(flags, FlagBushfireZone)
	}
	if p.PropertyType == models.PropertyStudio && !studioPostcodes[p.Postcode] {
		flags = append(flags, FlagStudioLocation)
	}
	if p.PropertyType == models.PropertyRural && p.LandSizeHectares > MaxRuralHectares {
		flags = append(flags, FlagLargeRural)
	}
	return flags
}

func siteReason(flag PropertyFlag, p models.Property) string {
	switch flag {
	case FlagHeritageListed:
		return "Property is heritage listed"
	case FlagFloodProne:
		return "Property is in a flood-prone area"
	case FlagBushfireZone:
		return "Property is in a bushfire zone"
	case FlagStudioLocation:
		return fmt.Sprintf("Studio in postcode %s is outside accepted inner-city locations", p.Postcode)
	case FlagLargeRural:
		return fmt.Sprintf("Rural land of %.1f hectares exceeds the %.0f hectare limit", p.LandSizeHectares, MaxRuralHectares)
	default:
		return string(flag)
	}
}
