package attachpaymentlink

import (
	"time"

	"trip-workers/internal/common/config"
)

const defaultJobTimeout = 60 * time.Second

type Config struct {
	Timeout time.Duration
}

func LoadConfig(wcfg config.WorkerConfig) *Config {
	return &Config{Timeout: config.GetHandlerTimeout(wcfg, defaultJobTimeout)}
}
