package queue

import (
	"encoding/json"
	"time"

	"mangazinho-backend/internal/shared"
	"mangazinho-backend/pkg/logger"

	"github.com/hibiken/asynq"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
}

func NewScheduler(redisAddr, password string, db int) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: redisAddr, Password: password, DB: db},
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{scheduler: scheduler}
}

func (s *Scheduler) RegisterJobs() error {
	return s.registerStorageReconcileJob()
}

// ================================================
// Storage reconciliation (daily at 3 AM)
// ================================================
// Sweeps chapter directories for files without a page record: leftovers
// of uploads aborted between the disk write and the record commit.
func (s *Scheduler) registerStorageReconcileJob() error {
	payload, err := json.Marshal(shared.ReconcilePayload{MinAgeMinutes: 60})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeStorageReconcile, payload)

	_, err = s.scheduler.Register(
		"0 3 * * *", // Daily at 3 AM
		task,
		asynq.Queue(shared.QueueStorage),
		asynq.MaxRetry(1),
		asynq.Timeout(30*time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register StorageReconcile job", err)
		return err
	}

	logger.Info("Registered StorageReconcile: daily at 3 AM", map[string]interface{}{})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
