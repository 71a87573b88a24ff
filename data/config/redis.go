package config

import (
	"time"

	"github.com/spf13/viper"
)

// Redis configures the client shared by the redis queue driver.
type Redis struct {
	Addr         string        `json:"addr" yaml:"addr"`
	Username     string        `json:"username" yaml:"username"`
	Password     string        `json:"password" yaml:"password"`
	Db           int           `json:"db" yaml:"db" validate:"gte=0"`
	PoolSize     int           `json:"pool_size" yaml:"pool_size" validate:"gte=0"`
	DialTimeout  time.Duration `json:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
}

func getRedisConfigs(v *viper.Viper) *Redis {
	return &Redis{
		Addr:         v.GetString("data.redis.addr"),
		Username:     v.GetString("data.redis.username"),
		Password:     v.GetString("data.redis.password"),
		Db:           v.GetInt("data.redis.db"),
		PoolSize:     v.GetInt("data.redis.pool_size"),
		DialTimeout:  getDurationOrDefault(v, "data.redis.dial_timeout", 5*time.Second),
		ReadTimeout:  v.GetDuration("data.redis.read_timeout"),
		WriteTimeout: getDurationOrDefault(v, "data.redis.write_timeout", 3*time.Second),
	}
}
