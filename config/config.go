package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/ncobase/searchsync/logging/logger"
)

// EnvPrefix prefixes environment overrides, e.g. SEARCHSYNC_DATA_SEARCH_MEILISEARCH_HOST.
const EnvPrefix = "SEARCHSYNC"

var (
	config *Config
	path   string
	mu     sync.Mutex
	v      *viper.Viper
)

// Config represents the configuration implementation.
type Config struct {
	AppName  string       `json:"app_name" validate:"required"`
	RunMode  string       `json:"run_mode"`
	Server   *Server      `json:"server" validate:"required"`
	Logger   *Logger      `json:"logger"`
	Auth     *Auth        `json:"auth" validate:"required"`
	Observes *Observes    `json:"observes"`
	Data     *Data        `json:"data" validate:"required"`
	Viper    *viper.Viper `json:"-" validate:"-"`
}

type ctxKey struct{}

// Init loads the configuration at configPath and sets it globally.
func Init(configPath string) (*Config, error) {
	mu.Lock()
	defer mu.Unlock()
	cfg, vp, err := load(configPath)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	config, path, v = cfg, configPath, vp
	return cfg, nil
}

// GetConfig returns the global configuration, loading it from the default
// locations on first use.
func GetConfig() (*Config, error) {
	mu.Lock()
	cfg := config
	mu.Unlock()
	if cfg != nil {
		return cfg, nil
	}
	cfg, err := Init("")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}
	return cfg, nil
}

// BindConfigToContext binds the configuration to the context.
func BindConfigToContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext returns the configuration bound to ctx.
func FromContext(ctx context.Context) (*Config, bool) {
	cfg, ok := ctx.Value(ctxKey{}).(*Config)
	return cfg, ok
}

// LoadConfig loads and validates the configuration at configPath. An empty
// path searches the default locations; finding no file there is not an
// error, so a deployment may configure everything through the environment.
func LoadConfig(configPath string) (*Config, error) {
	cfg, _, err := load(configPath)
	return cfg, err
}

func load(configPath string) (*Config, *viper.Viper, error) {
	vp := viper.New()
	vp.SetEnvPrefix(EnvPrefix)
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	if configPath != "" {
		vp.SetConfigFile(configPath)
	} else {
		vp.SetConfigName("config")
		vp.AddConfigPath("/etc/searchsync")
		vp.AddConfigPath("$HOME/.searchsync")
		vp.AddConfigPath(".")
		if ex, err := os.Executable(); err == nil {
			vp.AddConfigPath(filepath.Dir(ex))
		}
	}

	if err := vp.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		AppName:  getStringOrDefault(vp, "app_name", "searchsync"),
		RunMode:  getStringOrDefault(vp, "run_mode", "release"),
		Server:   getServerConfig(vp),
		Logger:   getLoggerConfig(vp),
		Auth:     getAuth(vp),
		Observes: getObservesConfig(vp),
		Data:     getDataConfig(vp),
		Viper:    vp,
	}
	if err := Validate(cfg); err != nil {
		return nil, nil, err
	}
	return cfg, vp, nil
}

// Reload reloads the configuration from the file.
func Reload() error {
	mu.Lock()
	defer mu.Unlock()

	newConfig, vp, err := load(path)
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}
	config, v = newConfig, vp
	return nil
}

// Watch watches the configuration file and reloads it when it changes. A
// reload that fails validation keeps the previous configuration.
func Watch(callback func(*Config)) {
	mu.Lock()
	vp := v
	mu.Unlock()
	if vp == nil || vp.ConfigFileUsed() == "" {
		return
	}
	vp.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		if err := Reload(); err != nil {
			logger.Errorf(context.Background(), "Error reloading config: %v", err)
			return
		}
		mu.Lock()
		cfg := config
		mu.Unlock()
		callback(cfg)
	})
	vp.WatchConfig()
}
