// internal/workers/lending/evaluate-eligibility/config.go
package evaluateeligibility

import (
	"time"

	"lending-workers/internal/common/config"
	"lending-workers/pkg/registry"
)

const defaultTimeout = 10 * time.Second

type Config struct {
	// Timeout bounds one evaluation, not the zeebe job lease.
	Timeout time.Duration
	// InputSchema overrides the built-in variables schema when set.
	InputSchema map[string]interface{}
}

func LoadConfig() *Config {
	return &Config{Timeout: defaultTimeout}
}

// ConfigFrom combines the worker section of the service config with the
// activity registry entry for TaskType, if there is one.
func ConfigFrom(wc config.WorkerConfig, activity *registry.Activity) (*Config, error) {
	cfg := LoadConfig()
	if wc.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wc.Timeout)
	}
	if activity == nil {
		return cfg, nil
	}

	timeout, err := activity.TimeoutDuration(cfg.Timeout)
	if err != nil {
		return nil, err
	}
	cfg.Timeout = timeout
	cfg.InputSchema = activity.InputSchema
	return cfg, nil
}
