package underwriting

import (
	"testing"

	"lending-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

func house(area float64) models.Property {
	return models.Property{
		PropertyType:  models.PropertyHouse,
		LivingAreaSqm: area,
		Postcode:      "2150",
	}
}

func TestClassifyProperty(t *testing.T) {
	tests := []struct {
		name             string
		property         func() models.Property
		expectedCategory models.PropertyCategory
		expectedFlags    []PropertyFlag
	}{
		{
			name:             "standard house",
			property:         func() models.Property { return house(120) },
			expectedCategory: models.PropertyStandard,
			expectedFlags:    []PropertyFlag{},
		},
		{
			name:             "house below area floor",
			property:         func() models.Property { return house(45) },
			expectedCategory: models.PropertyNonStandard,
			expectedFlags:    []PropertyFlag{FlagBelowMinimumArea},
		},
		{
			name: "two site hazards cost one step",
			property: func() models.Property {
				p := house(120)
				p.HeritageListed = true
				p.FloodProne = true
				return p
			},
			expectedCategory: models.PropertyNonStandard,
			expectedFlags:    []PropertyFlag{FlagHeritageListed, FlagFloodProne},
		},
		{
			name: "small house in bushfire zone",
			property: func() models.Property {
				p := house(45)
				p.BushfireZone = true
				return p
			},
			expectedCategory: models.PropertyUnacceptable,
			expectedFlags:    []PropertyFlag{FlagBelowMinimumArea, FlagBushfireZone},
		},
		{
			name: "apartment just under floor",
			property: func() models.Property {
				return models.Property{PropertyType: models.PropertyApartment, LivingAreaSqm: 38, Postcode: "2000"}
			},
			expectedCategory: models.PropertyNonStandard,
			expectedFlags:    []PropertyFlag{FlagBelowMinimumArea},
		},
		{
			name: "studio in accepted postcode",
			property: func() models.Property {
				return models.Property{PropertyType: models.PropertyStudio, LivingAreaSqm: 32, Postcode: "2010"}
			},
			expectedCategory: models.PropertyNonStandard,
			expectedFlags:    []PropertyFlag{},
		},
		{
			name: "studio outside accepted postcodes",
			property: func() models.Property {
				return models.Property{PropertyType: models.PropertyStudio, LivingAreaSqm: 32, Postcode: "3000"}
			},
			expectedCategory: models.PropertyUnacceptable,
			expectedFlags:    []PropertyFlag{FlagStudioLocation},
		},
		{
			name: "tiny flood-prone studio clipped at unacceptable",
			property: func() models.Property {
				return models.Property{PropertyType: models.PropertyStudio, LivingAreaSqm: 25, Postcode: "2010", FloodProne: true}
			},
			expectedCategory: models.PropertyUnacceptable,
			expectedFlags:    []PropertyFlag{FlagBelowMinimumArea, FlagFloodProne},
		},
		{
			name: "large rural holding",
			property: func() models.Property {
				return models.Property{PropertyType: models.PropertyRural, LivingAreaSqm: 200, LandSizeHectares: 100}
			},
			expectedCategory: models.PropertyUnacceptable,
			expectedFlags:    []PropertyFlag{FlagLargeRural},
		},
		{
			name: "rural lifestyle block",
			property: func() models.Property {
				return models.Property{PropertyType: models.PropertyRural, LivingAreaSqm: 200, LandSizeHectares: 8}
			},
			expectedCategory: models.PropertyNonStandard,
			expectedFlags:    []PropertyFlag{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyProperty(tt.property())

			assert.Equal(t, tt.expectedCategory, got.Category)
			assert.Equal(t, tt.expectedFlags, got.Flags)
			assert.GreaterOrEqual(t, len(got.Reasons), len(got.Flags))
		})
	}
}

func TestClassifyProperty_UnknownType(t *testing.T) {
	got := ClassifyProperty(models.Property{PropertyType: "houseboat", LivingAreaSqm: 80})
	assert.Equal(t, models.PropertyUnacceptable, got.Category)
	assert.NotEmpty(t, got.Reasons)
}
