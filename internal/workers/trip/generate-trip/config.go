package generatetrip

import (
	"time"

	"trip-workers/internal/common/config"
)

const defaultJobTimeout = 120 * time.Second

type Config struct {
	// Timeout bounds a whole pipeline run. It stays below the Zeebe job
	// timeout so the job is reported before it is handed to another worker.
	Timeout time.Duration
}

func LoadConfig(wcfg config.WorkerConfig) *Config {
	return &Config{Timeout: config.GetHandlerTimeout(wcfg, defaultJobTimeout)}
}
