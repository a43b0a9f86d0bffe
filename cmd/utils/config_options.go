package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ConfigOptionType identifies how a ConfigOption's value is parsed and bound
// to a cobra flag.
type ConfigOptionType int

const (
	ConfigOptionTypeString ConfigOptionType = iota
	ConfigOptionTypeInt
	ConfigOptionTypeInt64
	ConfigOptionTypeBool
	ConfigOptionTypeFloat64
	ConfigOptionTypeDuration
)

// ConfigOption declaratively binds an environment variable / CLI flag to a
// struct field, with an optional custom setter for values that need parsing
// beyond what OptType provides (e.g. a MetricType, a log level).
type ConfigOption struct {
	Name           string
	Usage          string
	OptType        ConfigOptionType
	FlagDefault    interface{}
	ConfigKey      interface{}
	Required       bool
	CustomSetValue func(co *ConfigOption) error
}

// PersistentFlag registers this option as a persistent flag on cmd and binds
// it to viper under the same name.
func (co *ConfigOption) PersistentFlag(cmd *cobra.Command) error {
	flags := cmd.PersistentFlags()

	switch co.OptType {
	case ConfigOptionTypeString:
		def, _ := co.FlagDefault.(string)
		flags.String(co.Name, def, co.Usage)
	case ConfigOptionTypeInt:
		def, _ := co.FlagDefault.(int)
		flags.Int(co.Name, def, co.Usage)
	case ConfigOptionTypeInt64:
		def, _ := co.FlagDefault.(int64)
		flags.Int64(co.Name, def, co.Usage)
	case ConfigOptionTypeBool:
		def, _ := co.FlagDefault.(bool)
		flags.Bool(co.Name, def, co.Usage)
	case ConfigOptionTypeFloat64:
		def, _ := co.FlagDefault.(float64)
		flags.Float64(co.Name, def, co.Usage)
	case ConfigOptionTypeDuration:
		def, _ := co.FlagDefault.(time.Duration)
		flags.Duration(co.Name, def, co.Usage)
	default:
		return fmt.Errorf("unsupported config option type %v for %q", co.OptType, co.Name)
	}

	if err := viper.BindPFlag(co.Name, flags.Lookup(co.Name)); err != nil {
		return fmt.Errorf("binding flag %q to viper: %w", co.Name, err)
	}

	return nil
}

// IsExplicitlySet reports whether the user supplied this option via flag or
// environment variable, as opposed to relying on FlagDefault.
func (co *ConfigOption) IsExplicitlySet() bool {
	return viper.IsSet(co.Name)
}

// SetValue applies the current viper value to ConfigKey, using CustomSetValue
// when provided, or a type-appropriate default assignment otherwise.
func (co *ConfigOption) SetValue() error {
	if co.CustomSetValue != nil {
		return co.CustomSetValue(co)
	}

	switch co.OptType {
	case ConfigOptionTypeString:
		key, ok := co.ConfigKey.(*string)
		if !ok {
			return fmt.Errorf("configKey for %q is not *string", co.Name)
		}
		*key = viper.GetString(co.Name)
	case ConfigOptionTypeInt:
		key, ok := co.ConfigKey.(*int)
		if !ok {
			return fmt.Errorf("configKey for %q is not *int", co.Name)
		}
		*key = viper.GetInt(co.Name)
	case ConfigOptionTypeInt64:
		key, ok := co.ConfigKey.(*int64)
		if !ok {
			return fmt.Errorf("configKey for %q is not *int64", co.Name)
		}
		*key = viper.GetInt64(co.Name)
	case ConfigOptionTypeBool:
		key, ok := co.ConfigKey.(*bool)
		if !ok {
			return fmt.Errorf("configKey for %q is not *bool", co.Name)
		}
		*key = viper.GetBool(co.Name)
	case ConfigOptionTypeFloat64:
		key, ok := co.ConfigKey.(*float64)
		if !ok {
			return fmt.Errorf("configKey for %q is not *float64", co.Name)
		}
		*key = viper.GetFloat64(co.Name)
	case ConfigOptionTypeDuration:
		key, ok := co.ConfigKey.(*time.Duration)
		if !ok {
			return fmt.Errorf("configKey for %q is not *time.Duration", co.Name)
		}
		*key = viper.GetDuration(co.Name)
	default:
		return fmt.Errorf("unsupported config option type %v for %q", co.OptType, co.Name)
	}

	return nil
}

// ConfigOptions is a list of ConfigOption processed together.
type ConfigOptions []*ConfigOption

// Init registers every option as a persistent flag on cmd. Each option can
// also be supplied through the environment variable named after it in upper
// snake case (e.g. "database-url" reads DATABASE_URL).
func (co ConfigOptions) Init(cmd *cobra.Command) error {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	for _, opt := range co {
		if err := opt.PersistentFlag(cmd); err != nil {
			return fmt.Errorf("initializing config option %q: %w", opt.Name, err)
		}
	}
	return nil
}

// Require returns an error naming every required option that was not set.
func (co ConfigOptions) Require() error {
	var missing []string
	for _, opt := range co {
		if opt.Required && !opt.IsExplicitlySet() {
			missing = append(missing, opt.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v", missing)
	}
	return nil
}

// SetValues applies every option's current value to its bound ConfigKey.
func (co ConfigOptions) SetValues() error {
	for _, opt := range co {
		if err := opt.SetValue(); err != nil {
			return fmt.Errorf("setting value for config option %q: %w", opt.Name, err)
		}
	}
	return nil
}
