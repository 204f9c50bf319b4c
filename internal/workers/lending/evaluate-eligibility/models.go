// internal/workers/lending/evaluate-eligibility/models.go
package evaluateeligibility

import "lending-workers/internal/models"

type Input struct {
	ApplicationID string           `json:"applicationId"`
	Applicant     models.Applicant `json:"applicant"`
	Property      models.Property  `json:"property"`
}

type Output struct {
	ApplicationID string           `json:"applicationId"`
	EvaluationID  string           `json:"evaluationId"`
	Decision      *models.Decision `json:"decision"`
}
