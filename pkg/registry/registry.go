// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"lending-workers/internal/common/validation"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// FindByTaskType returns the activity bound to a zeebe task type.
func (r *ActivityRegistry) FindByTaskType(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// TimeoutDuration parses the activity timeout, falling back when unset.
func (a *Activity) TimeoutDuration(fallback time.Duration) (time.Duration, error) {
	if a.Timeout == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0, fmt.Errorf("activity %s: timeout %q: %w", a.ID, a.Timeout, err)
	}
	return d, nil
}

// Validate reports every problem in the registry: missing ids, malformed or
// duplicate task types, bad timeouts and schemas that do not compile.
func (r *ActivityRegistry) Validate() error {
	var errs []error
	seen := make(map[string]string)

	for _, a := range r.Activities {
		if a.ID == "" {
			errs = append(errs, fmt.Errorf("activity with task type %q has no id", a.TaskType))
		}
		if err := validation.ValidateTaskType(a.TaskType); err != nil {
			errs = append(errs, fmt.Errorf("activity %s: %w", a.ID, err))
		}
		if other, dup := seen[a.TaskType]; dup {
			errs = append(errs, fmt.Errorf("activity %s: task type %q already used by %s", a.ID, a.TaskType, other))
		}
		seen[a.TaskType] = a.ID

		if _, err := a.TimeoutDuration(0); err != nil {
			errs = append(errs, err)
		}
		if a.Retries < 0 {
			errs = append(errs, fmt.Errorf("activity %s: retries must not be negative", a.ID))
		}
		if err := compileIfSet(a.InputSchema); err != nil {
			errs = append(errs, fmt.Errorf("activity %s: input schema: %w", a.ID, err))
		}
		if err := compileIfSet(a.OutputSchema); err != nil {
			errs = append(errs, fmt.Errorf("activity %s: output schema: %w", a.ID, err))
		}
	}

	return errors.Join(errs...)
}

func compileIfSet(schema map[string]interface{}) error {
	if len(schema) == 0 {
		return nil
	}
	_, err := validation.CompileSchema(schema)
	return err
}
