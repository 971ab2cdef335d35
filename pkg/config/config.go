package config

import (
	"context"
	"errors"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"cryptocrawler.com/pkg/logger"
)

// New prepares a viper instance for config/{name}.yaml. Environment
// variables override file keys, e.g. CRAWLER_ENGINE_DRIVER for
// engine.driver.
func New(name, envPrefix string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix(strings.ToUpper(envPrefix))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file, if any, into out. A missing file is not an
// error: defaults registered on v and the environment still apply. path, when
// set, replaces the search paths.
func Load(v *viper.Viper, path string, out any) error {
	if path != "" {
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	return v.Unmarshal(out)
}

// LoadAndWatch is Load plus hot reload. Each time the file changes it is
// decoded into a fresh T and handed to onChange; the value returned first is
// never written again.
func LoadAndWatch[T any](v *viper.Viper, path string, onChange func(T)) (T, error) {
	var out T
	if err := Load(v, path, &out); err != nil {
		return out, err
	}
	if v.ConfigFileUsed() == "" {
		return out, nil
	}
	logger.Info(context.Background(), "config loaded", zap.String("file", v.ConfigFileUsed()))

	v.OnConfigChange(func(e fsnotify.Event) {
		logger.Info(context.Background(), "config file changed", zap.String("file", e.Name))
		var next T
		if err := v.Unmarshal(&next); err != nil {
			logger.Error(context.Background(), "reload config", zap.Error(err))
			return
		}
		if onChange != nil {
			onChange(next)
		}
	})
	v.WatchConfig()
	return out, nil
}
