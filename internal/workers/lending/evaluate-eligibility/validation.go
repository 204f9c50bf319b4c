// internal/workers/lending/evaluate-eligibility/validation.go
package evaluateeligibility

import (
	"encoding/json"
	"strings"

	apperrors "lending-workers/internal/common/errors"
	"lending-workers/internal/common/validation"
)

// builtinInputSchema checks shape only. Value ranges belong to
// eligibility.Validate so they surface as APPLICATION_VALIDATION_FAILED.
const builtinInputSchema = `{
	"type": "object",
	"required": ["applicationId", "applicant", "property"],
	"properties": {
		"applicationId": {"type": "string", "minLength": 1},
		"applicant": {
			"type": "object",
			"required": ["annualIncome", "employmentCategory", "employmentMonths", "creditScore", "monthlyExpenses"],
			"properties": {
				"annualIncome": {"type": "number"},
				"employmentCategory": {"type": "string", "enum": ["permanent", "casual", "self_employed", "contract"]},
				"employmentMonths": {"type": "integer"},
				"creditScore": {"type": "integer"},
				"monthlyExpenses": {"type": "number"},
				"monthlyDebts": {"type": "number"},
				"dependents": {"type": "integer"},
				"jointApplication": {"type": "boolean"},
				"firstHomeBuyer": {"type": "boolean"},
				"previousDefaults": {"type": "integer", "minimum": 0, "maximum": 20},
				"bankruptcy": {"type": "boolean"}
			}
		},
		"property": {
			"type": "object",
			"required": ["loanAmount", "propertyValue", "depositAmount", "loanTermYears", "propertyType", "livingAreaSqm", "postcode"],
			"properties": {
				"loanAmount": {"type": "number"},
				"propertyValue": {"type": "number"},
				"depositAmount": {"type": "number"},
				"loanTermYears": {"type": "integer"},
				"propertyType": {"type": "string", "enum": ["house", "unit", "apartment", "townhouse", "villa", "studio", "rural"]},
				"livingAreaSqm": {"type": "number"},
				"postcode": {"type": "string"},
				"landSizeHectares": {"type": "number"},
				"heritageListed": {"type": "boolean"},
				"floodProne": {"type": "boolean"},
				"bushfireZone": {"type": "boolean"}
			}
		}
	}
}`

func compileInputSchema(override map[string]interface{}) (*validation.Schema, error) {
	if len(override) > 0 {
		return validation.CompileSchema(override)
	}
	return validation.CompileSchema(builtinInputSchema)
}

// decodeInput validates raw job variables against the schema and decodes them.
func decodeInput(schema *validation.Schema, variables string) (*Input, error) {
	result, err := schema.ValidateJSON(variables)
	if err != nil {
		return nil, apperrors.NewInvalidInputFormatError(err.Error())
	}
	if !result.Valid {
		fields := make([]string, len(result.Errors))
		for i, e := range result.Errors {
			fields[i] = e.Field
		}
		return nil, apperrors.NewInvalidInputFormatError(strings.Join(result.GetErrorMessages(), "; ")).
			WithMetadata("invalidFields", fields)
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidInputFormatError(err.Error())
	}
	return &input, nil
}
