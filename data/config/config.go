package config

import (
	"github.com/spf13/viper"
)

// Config data config struct
type Config struct {
	Database *Database `yaml:"database" json:"database"`
	Redis    *Redis    `yaml:"redis" json:"redis"`
	MongoDB  *MongoDB  `yaml:"mongodb" json:"mongodb"`
	RabbitMQ *RabbitMQ `yaml:"rabbitmq" json:"rabbitmq"`
	Kafka    *Kafka    `yaml:"kafka" json:"kafka"`
	Search   *Search   `yaml:"search" json:"search" validate:"required"`
	Queue    *Queue    `yaml:"queue" json:"queue" validate:"required"`
}

// GetConfig returns data config
func GetConfig(v *viper.Viper) *Config {
	return &Config{
		Database: getDatabaseConfig(v),
		Redis:    getRedisConfigs(v),
		MongoDB:  getMongoDBConfigs(v),
		RabbitMQ: getRabbitMQConfigs(v),
		Kafka:    getKafkaConfigs(v),
		Search:   getSearchConfig(v),
		Queue:    getQueueConfig(v),
	}
}

func getIntOrDefault(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		return v.GetInt(key)
	}
	return def
}

func getStringOrDefault(v *viper.Viper, key, def string) string {
	if s := v.GetString(key); s != "" {
		return s
	}
	return def
}
