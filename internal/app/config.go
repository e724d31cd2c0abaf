package app

import (
	"time"

	"github.com/talentcopilot/backend/internal/logger"
	"github.com/talentcopilot/backend/internal/utils"
)

type Config struct {
	MemoryWindowSize     int
	SummaryTriggerFactor int
	ConfirmationTTL      time.Duration

	JobWorkers      int
	JobPollInterval time.Duration
	JobExecTimeout  time.Duration
	JobHeartbeatTTL time.Duration
	JobMaxAttempts  int

	Environment string
	Version     string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		MemoryWindowSize:     utils.GetEnvAsInt("MEMORY_WINDOW_SIZE", 10, log),
		SummaryTriggerFactor: utils.GetEnvAsInt("SUMMARY_TRIGGER_FACTOR", 2, log),
		ConfirmationTTL:      utils.GetEnvAsDuration("CONFIRMATION_TTL", time.Hour, log),

		JobWorkers:      utils.GetEnvAsInt("JOB_WORKERS", 2, log),
		JobPollInterval: utils.GetEnvAsDuration("JOB_POLL_INTERVAL", time.Second, log),
		JobExecTimeout:  utils.GetEnvAsDuration("JOB_EXEC_TIMEOUT", 5*time.Minute, log),
		JobHeartbeatTTL: utils.GetEnvAsDuration("JOB_HEARTBEAT_TTL", 2*time.Minute, log),
		JobMaxAttempts:  utils.GetEnvAsInt("JOB_MAX_ATTEMPTS", 2, log),

		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	}
}
