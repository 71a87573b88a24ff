package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Server http server config struct
type Server struct {
	Host          string        `json:"host"`
	Port          int           `json:"port" validate:"gte=0,lte=65535"`
	ReadTimeout   time.Duration `json:"read_timeout" validate:"gte=0"`
	WriteTimeout  time.Duration `json:"write_timeout" validate:"gte=0"`
	MaxConcurrent int           `json:"max_concurrent" validate:"gte=0"`
}

// Addr returns host:port.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func getServerConfig(v *viper.Viper) *Server {
	return &Server{
		Host:          getStringOrDefault(v, "server.host", "0.0.0.0"),
		Port:          getIntOrDefault(v, "server.port", 8080),
		ReadTimeout:   getDurationOrDefault(v, "server.read_timeout", 10*time.Second),
		WriteTimeout:  getDurationOrDefault(v, "server.write_timeout", 30*time.Second),
		MaxConcurrent: getIntOrDefault(v, "server.max_concurrent", 64),
	}
}
