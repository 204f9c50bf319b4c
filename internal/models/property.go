// internal/models/property.go
package models

type PropertyType string

const (
	PropertyHouse     PropertyType = "house"
	PropertyUnit      PropertyType = "unit"
	PropertyApartment PropertyType = "apartment"
	PropertyTownhouse PropertyType = "townhouse"
	PropertyVilla     PropertyType = "villa"
	PropertyStudio    PropertyType = "studio"
	PropertyRural     PropertyType = "rural"
)

var PropertyTypes = []PropertyType{
	PropertyHouse,
	PropertyUnit,
	PropertyApartment,
	PropertyTownhouse,
	PropertyVilla,
	PropertyStudio,
	PropertyRural,
}

func (t PropertyType) Valid() bool {
	for _, known := range PropertyTypes {
		if t == known {
			return true
		}
	}
	return false
}

// PropertyCategory is ordered: each step down the list is one downgrade.
type PropertyCategory string

const (
	PropertyStandard     PropertyCategory = "standard"
	PropertyNonStandard  PropertyCategory = "non_standard"
	PropertyUnacceptable PropertyCategory = "unacceptable"
)

var propertyCategoryOrder = []PropertyCategory{
	PropertyStandard,
	PropertyNonStandard,
	PropertyUnacceptable,
}

func (c PropertyCategory) Valid() bool {
	return c.rank() >= 0
}

// Downgrade moves the category down by steps, stopping at Unacceptable.
func (c PropertyCategory) Downgrade(steps int) PropertyCategory {
	idx := c.rank() + steps
	if idx >= len(propertyCategoryOrder) {
		idx = len(propertyCategoryOrder) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return propertyCategoryOrder[idx]
}

func (c PropertyCategory) rank() int {
	for i, known := range propertyCategoryOrder {
		if c == known {
			return i
		}
	}
	return -1
}

type Property struct {
	LoanAmount       float64      `json:"loanAmount"`
	PropertyValue    float64      `json:"propertyValue"`
	DepositAmount    float64      `json:"depositAmount"`
	LoanTermYears    int          `json:"loanTermYears"`
	PropertyType     PropertyType `json:"propertyType"`
	LivingAreaSqm    float64      `json:"livingAreaSqm"`
	Postcode         string       `json:"postcode"`
	LandSizeHectares float64      `json:"landSizeHectares"`
	HeritageListed   bool         `json:"heritageListed"`
	FloodProne       bool         `json:"floodProne"`
	BushfireZone     bool         `json:"bushfireZone"`
}
