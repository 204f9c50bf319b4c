// internal/workers/lending/evaluate-eligibility/handler.go
package evaluateeligibility

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "lending-workers/internal/common/errors"
	"lending-workers/internal/common/logger"
	"lending-workers/internal/common/metrics"
	"lending-workers/internal/common/observability"
	"lending-workers/internal/common/validation"
	"lending-workers/internal/eligibility"
	"lending-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const TaskType = "evaluate-eligibility"

// Evaluator is satisfied by *eligibility.Engine.
type Evaluator interface {
	Evaluate(applicant models.Applicant, property models.Property) (*models.Decision, error)
}

type Handler struct {
	config       *Config
	engine       Evaluator
	schema       *validation.Schema
	errorHandler *apperrors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
	newID        func() string
}

func NewHandler(config *Config, engine Evaluator, obs *observability.Observability, log logger.Logger) (*Handler, error) {
	if config == nil {
		config = LoadConfig()
	}
	schema, err := compileInputSchema(config.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("%s input schema: %w", TaskType, err)
	}

	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		engine:       engine,
		schema:       schema,
		errorHandler: apperrors.NewErrorHandler(log),
		obs:          obs,
		logger:       log,
		newID:        uuid.NewString,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	active := metrics.WorkerJobsActive.WithLabelValues(TaskType)
	active.Inc()
	defer active.Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
		"retries":     job.Retries,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.process(ctx, job.Variables)
	h.observeDuration(ctx, start, err)
	if err != nil {
		code := string(apperrors.ErrCodeInternal)
		if stdErr, ok := apperrors.AsStandardError(err); ok {
			code = string(stdErr.Code)
		}
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) process(ctx context.Context, variables string) (*Output, error) {
	input, err := decodeInput(h.schema, variables)
	if err != nil {
		return nil, err
	}
	return h.Execute(ctx, input)
}

type evaluation struct {
	decision *models.Decision
	err      error
}

// Execute evaluates one decoded application. Errors are StandardErrors
// ready for the job error handler.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	done := make(chan evaluation, 1)
	go func() {
		d, err := h.engine.Evaluate(input.Applicant, input.Property)
		done <- evaluation{decision: d, err: err}
	}()

	var result evaluation
	select {
	case result = <-done:
	case <-ctx.Done():
		return nil, apperrors.NewEvaluationTimeoutError(h.config.Timeout).
			WithMetadata("applicationId", input.ApplicationID)
	}

	if result.err != nil {
		return nil, h.mapEvaluationError(input.ApplicationID, result.err)
	}

	h.recordDecision(ctx, result.decision)

	output := &Output{
		ApplicationID: input.ApplicationID,
		EvaluationID:  h.newID(),
		Decision:      result.decision,
	}

	h.logger.Info("eligibility evaluated", map[string]interface{}{
		"applicationId": output.ApplicationID,
		"evaluationId":  output.EvaluationID,
		"decision":      string(result.decision.Decision),
		"riskGrade":     string(result.decision.RiskGrade),
		"approved":      len(result.decision.ApprovedLenders),
		"confidence":    result.decision.Confidence,
	})
	return output, nil
}

func (h *Handler) mapEvaluationError(applicationID string, err error) error {
	var verr *eligibility.ValidationError
	if errors.As(err, &verr) {
		fields := make([]string, len(verr.Fields))
		for i, f := range verr.Fields {
			fields[i] = f.Field
		}
		return apperrors.NewApplicationValidationFailedError(verr.Error()).
			WithMetadata("applicationId", applicationID).
			WithMetadata("invalidFields", fields)
	}
	return apperrors.NewEvaluationFailedError(err).WithMetadata("applicationId", applicationID)
}

func (h *Handler) recordDecision(ctx context.Context, d *models.Decision) {
	metrics.EligibilityDecisions.WithLabelValues(string(d.Decision), string(d.RiskGrade)).Inc()
	for _, o := range d.Lenders {
		metrics.LenderOutcomes.WithLabelValues(o.LenderID, string(o.Bucket)).Inc()
	}
	eligible := len(d.ApprovedLenders) + len(d.ConditionalLenders)
	h.obs.RecordDecision(ctx, string(d.Decision), string(d.RiskGrade), eligible, len(d.Lenders))
}

func (h *Handler) observeDuration(ctx context.Context, start time.Time, err error) {
	elapsed := time.Since(start)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(elapsed.Seconds())
	h.obs.RecordJobProcessed(ctx, status)
	h.obs.RecordJobDuration(ctx, elapsed, status)
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		h.errorHandler.HandleJobError(ctx, client, job, apperrors.NewEvaluationFailedError(err))
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":       job.Key,
		"evaluationId": output.EvaluationID,
	})
}
