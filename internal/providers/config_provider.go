package providers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"srd/internal/structures"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.BindEnv("logger.level", "SRD_LOG_LEVEL")
	viper.BindEnv("persistence.driver", "SRD_PERSISTENCE_DRIVER")
	viper.BindEnv("persistence.saveInterval", "SRD_SAVE_INTERVAL")
	viper.BindEnv("review.undoWindow", "SRD_UNDO_WINDOW")
	viper.BindEnv("cache.enabled", "SRD_CACHE_ENABLED")
	viper.BindEnv("cache.size", "SRD_CACHE_SIZE")

	viper.SetDefault("persistence.driver", "file")
	viper.SetDefault("review.undoWindow", "5s")
	viper.SetDefault("review.sweepInterval", "60s")
	viper.SetDefault("review.activityWindowDays", 30)
	viper.SetDefault("review.retentionWindowDays", 30)
	viper.SetDefault("review.masteryMinInterval", 21)
	viper.SetDefault("review.masteryMinRepetitions", 3)
	viper.SetDefault("review.topListSize", 5)
	viper.SetDefault("cache.ttl", 5)

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "SpacedReviewDaemon"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
