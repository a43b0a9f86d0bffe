package utils

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/ramp-payments/verification-engine/internal/crashtracker"
	"github.com/ramp-payments/verification-engine/internal/logging"
)

type GlobalOptionsType struct {
	LogLevel    logrus.Level
	SentryDSN   string
	Environment string
	Version     string
	GitCommit   string
	DatabaseURL string
}

// PopulateCrashTrackerOptions populates the CrashTrackerOptions from the global options.
func (g GlobalOptionsType) PopulateCrashTrackerOptions(crashTrackerOptions *crashtracker.CrashTrackerOptions) {
	if crashTrackerOptions.CrashTrackerType == crashtracker.CrashTrackerTypeSentry {
		crashTrackerOptions.SentryDSN = g.SentryDSN
	}
	crashTrackerOptions.Environment = g.Environment
	crashTrackerOptions.GitCommit = g.GitCommit
}

// SetConfigOptionLogLevel parses the "log-level" option into a logrus.Level,
// applies it to the package-level logger, and stores it in ConfigKey.
func SetConfigOptionLogLevel(co *ConfigOption) error {
	key, ok := co.ConfigKey.(*logrus.Level)
	if !ok {
		return fmt.Errorf("configKey for %q is not a *logrus.Level", co.Name)
	}

	levelStr := viper.GetString(co.Name)

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		return fmt.Errorf("parsing log level %q: %w", levelStr, err)
	}

	*key = level
	return logging.SetLevel(levelStr)
}
