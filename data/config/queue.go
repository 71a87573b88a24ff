package config

import (
	"time"

	"github.com/spf13/viper"
)

// Queue connection names.
const (
	QueueSync     = "sync"
	QueueMemory   = "memory"
	QueueRedis    = "redis"
	QueueRabbitMQ = "rabbitmq"
	QueueKafka    = "kafka"
)

// Queue configures deferred sync jobs.
type Queue struct {
	Enabled     bool          `json:"enabled" yaml:"enabled"`
	Connection  string        `json:"connection" yaml:"connection" validate:"oneof=sync memory redis rabbitmq kafka"`
	Name        string        `json:"name" yaml:"name"`
	Workers     int           `json:"workers" yaml:"workers" validate:"gte=1"`
	MaxAttempts int           `json:"max_attempts" yaml:"max_attempts" validate:"gte=1"`
	RetryDelay  time.Duration `json:"retry_delay" yaml:"retry_delay" validate:"gte=0"`
}

// getQueueConfig reads queue configurations
func getQueueConfig(v *viper.Viper) *Queue {
	return &Queue{
		Enabled:     v.GetBool("data.queue.enabled"),
		Connection:  getStringOrDefault(v, "data.queue.connection", QueueSync),
		Name:        v.GetString("data.queue.name"),
		Workers:     getIntOrDefault(v, "data.queue.workers", 4),
		MaxAttempts: getIntOrDefault(v, "data.queue.max_attempts", 3),
		RetryDelay:  getDurationOrDefault(v, "data.queue.retry_delay", time.Second),
	}
}
