package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Settings holds the runtime configuration read from the settings file and
// GOCYCLE_* environment variables.
type Settings struct {
	Language string           `mapstructure:"language" validate:"omitempty,bcp47_language_tag"`
	Source   SourceSettings   `mapstructure:"source"`
	Database DatabaseSettings `mapstructure:"database"`
	Server   ServerSettings   `mapstructure:"server"`
	Sync     SyncSettings     `mapstructure:"sync"`
	Reminder ReminderSettings `mapstructure:"reminder"`
}

// SourceSettings selects where cycle records come from.
type SourceSettings struct {
	Mode string `mapstructure:"mode" validate:"required,oneof=local web postgres"`
	Path string `mapstructure:"path"`
	URL  string `mapstructure:"url" validate:"omitempty,url"`
	// User names the keyring entry holding the secret. With Auth "basic" it
	// is also sent as the HTTP user.
	User string `mapstructure:"user"`
	Auth string `mapstructure:"auth" validate:"omitempty,oneof=basic bearer"`
}

// DatabaseSettings configures the postgres source.
type DatabaseSettings struct {
	URL    string `mapstructure:"url"`
	UserID string `mapstructure:"user_id"`
}

type ServerSettings struct {
	Port int `mapstructure:"port" validate:"gte=1,lte=65535"`
}

type SyncSettings struct {
	IntervalMinutes int `mapstructure:"interval_minutes" validate:"gte=0"`
}

// ReminderSettings describes the alarm attached to the predicted event.
type ReminderSettings struct {
	Enabled   bool   `mapstructure:"enabled"`
	Value     int    `mapstructure:"value" validate:"gte=0"`
	Unit      string `mapstructure:"unit" validate:"omitempty,oneof=d h m"`
	Direction string `mapstructure:"direction" validate:"omitempty,oneof=before after"`
}

// Validate checks field constraints, then the fields the selected source
// mode depends on.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%s: %w", ErrConfigInvalid, err)
	}

	switch s.Source.Mode {
	case SourceModeLocal:
		if s.Source.Path == "" {
			return fmt.Errorf("%s: %w", ErrConfigInvalid, errors.New(ErrLocalPathEmpty))
		}
	case SourceModeWeb:
		if s.Source.URL == "" {
			return fmt.Errorf("%s: %w", ErrConfigInvalid, errors.New(ErrWebURLEmpty))
		}
	case SourceModePostgres:
		if s.Database.URL == "" {
			return fmt.Errorf("%s: %w", ErrConfigInvalid, errors.New(ErrDatabaseURLEmpty))
		}
		if s.Database.UserID == "" {
			return fmt.Errorf("%s: %w", ErrConfigInvalid, errors.New(ErrUserIDEmpty))
		}
	}
	return nil
}

// Interval returns the sync period in minutes, falling back to
// DefaultRefreshMin when unset.
func (s Settings) Interval() int {
	if s.Sync.IntervalMinutes <= DisabledInterval {
		return DefaultRefreshMin
	}
	return s.Sync.IntervalMinutes
}

// ReminderTrigger builds the ISO-8601 duration used as the VALARM trigger,
// e.g. "-P1D" or "PT30M". It is empty when reminders are off.
func (s Settings) ReminderTrigger() string {
	r := s.Reminder
	if !r.Enabled || r.Value <= 0 {
		return ""
	}

	sign := ISOPeriodPrefix
	if r.Direction != DirAfter {
		sign = ISONegativePrefix
	}

	switch r.Unit {
	case UnitHours:
		return fmt.Sprintf("%s%s%d%s", sign, ISOTimePrefix, r.Value, ISOHour)
	case UnitMinutes:
		return fmt.Sprintf("%s%s%d%s", sign, ISOTimePrefix, r.Value, ISOMinute)
	default:
		return fmt.Sprintf("%s%d%s", sign, r.Value, ISODay)
	}
}

// DefaultConfigPath returns <user config dir>/go-cycle/config.yaml.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", ErrConfigDir, err)
	}
	return filepath.Join(dir, SettingsDirName, SettingsFileName), nil
}

// Load reads settings from path, or from DefaultConfigPath when path is
// empty. A missing default file is not an error; a missing explicit file is.
// Environment variables override file values.
func Load(path string) (*viper.Viper, Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType(SettingsFileType)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(SettingsKeySep, EnvKeySeparator))
	v.AutomaticEnv()

	if path == "" {
		if p, err := DefaultConfigPath(); err == nil {
			if _, statErr := os.Stat(p); statErr == nil {
				path = p
			} else {
				slog.Debug(MsgSettingsNone, LogKeyComponent, CompConfig, LogKeyFile, p)
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, Settings{}, fmt.Errorf("%s: %w", ErrConfigRead, err)
		}
	}

	s, err := decode(v)
	if err != nil {
		return nil, Settings{}, err
	}
	return v, s, nil
}

// WatchSettings calls onChange with freshly decoded settings each time the
// settings file changes. Invalid edits are logged and ignored. It reports
// false when v was not loaded from a file.
func WatchSettings(v *viper.Viper, onChange func(Settings)) bool {
	if v.ConfigFileUsed() == "" {
		return false
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		slog.Info(MsgSettingsReload, LogKeyComponent, CompConfig, LogKeyFile, e.Name)

		s, err := decode(v)
		if err != nil {
			slog.Warn(MsgSettingsBad, LogKeyComponent, CompConfig, LogKeyError, err)
			return
		}
		onChange(s)
	})
	v.WatchConfig()
	return true
}

func decode(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", ErrConfigDecode, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it on Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyLanguage, DefaultLanguage)
	v.SetDefault(KeySourceMode, DefaultSourceMode)
	v.SetDefault(KeySourcePath, "")
	v.SetDefault(KeySourceURL, "")
	v.SetDefault(KeySourceUser, "")
	v.SetDefault(KeySourceAuth, DefaultAuth)
	v.SetDefault(KeyDatabaseURL, "")
	v.SetDefault(KeyDatabaseUserID, "")
	v.SetDefault(KeyServerPort, DefaultPort)
	v.SetDefault(KeySyncInterval, DefaultRefreshMin)
	v.SetDefault(KeyReminderEnabled, false)
	v.SetDefault(KeyReminderValue, DefaultReminderValue)
	v.SetDefault(KeyReminderUnit, UnitDays)
	v.SetDefault(KeyReminderDirection, DirBefore)
}
