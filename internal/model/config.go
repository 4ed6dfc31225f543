package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Defaults applied when a key is absent from the config file.
const (
	DefaultReminderInterval = "0 8 * * *"
	DefaultUpcomingDays     = 7
	DefaultMailBackend      = "outbox"
	DefaultMailSender       = "taskreminders@localhost"
	DefaultSMTPPort         = 587
	DefaultSMTPTimeoutSec   = 10
	DefaultLogLevel         = "INFO"
)

// Mail backends.
const (
	MailBackendOutbox = "outbox"
	MailBackendSMTP   = "smtp"
)

// DatabaseConfig locates the SQLite database file.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// ReminderConfig drives the reminder sweep.
type ReminderConfig struct {
	// Interval is a cron expression (5 fields) or descriptor such as
	// "@every 5m". It is the only setting controlling when sweeps run.
	Interval string `mapstructure:"interval" yaml:"interval"`

	// UpcomingDays is the length of the inclusive look-ahead window.
	UpcomingDays int `mapstructure:"upcoming_days" yaml:"upcoming_days"`

	// RunOnStart runs one sweep as soon as the scheduler starts.
	RunOnStart bool `mapstructure:"run_on_start" yaml:"run_on_start"`
}

// SMTPConfig holds the outbound SMTP server settings.
type SMTPConfig struct {
	Host       string `mapstructure:"host" yaml:"host"`
	Port       int    `mapstructure:"port" yaml:"port"`
	Username   string `mapstructure:"username" yaml:"username"`
	Password   string `mapstructure:"password" yaml:"password"`
	TimeoutSec int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// MailConfig selects and configures the outbound mailer.
type MailConfig struct {
	Backend   string     `mapstructure:"backend" yaml:"backend"`
	Sender    string     `mapstructure:"sender" yaml:"sender"`
	OutboxDir string     `mapstructure:"outbox_dir" yaml:"outbox_dir"`
	SMTP      SMTPConfig `mapstructure:"smtp" yaml:"smtp"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Reminder ReminderConfig `mapstructure:"reminder" yaml:"reminder"`
	Mail     MailConfig     `mapstructure:"mail" yaml:"mail"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// configDir returns ~/.config/taskreminders, or "." if the home directory
// cannot be determined.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "taskreminders")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskreminders/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultAppConfig returns the configuration used when no file exists.
func DefaultAppConfig() *AppConfig {
	dir := configDir()
	return &AppConfig{
		Database: DatabaseConfig{Path: filepath.Join(dir, "tasks.db")},
		Reminder: ReminderConfig{
			Interval:     DefaultReminderInterval,
			UpcomingDays: DefaultUpcomingDays,
		},
		Mail: MailConfig{
			Backend:   DefaultMailBackend,
			Sender:    DefaultMailSender,
			OutboxDir: filepath.Join(dir, "outbox"),
			SMTP: SMTPConfig{
				Port:       DefaultSMTPPort,
				TimeoutSec: DefaultSMTPTimeoutSec,
			},
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Values may be overridden with TASKREMINDERS_* environment variables
// (e.g. TASKREMINDERS_REMINDER_INTERVAL). A missing file yields defaults.
func LoadConfig(path string) (*AppConfig, error) {
	def := DefaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("taskreminders")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("reminder.interval", def.Reminder.Interval)
	v.SetDefault("reminder.upcoming_days", def.Reminder.UpcomingDays)
	v.SetDefault("reminder.run_on_start", false)
	v.SetDefault("mail.backend", def.Mail.Backend)
	v.SetDefault("mail.sender", def.Mail.Sender)
	v.SetDefault("mail.outbox_dir", def.Mail.OutboxDir)
	v.SetDefault("mail.smtp.host", "")
	v.SetDefault("mail.smtp.port", def.Mail.SMTP.Port)
	v.SetDefault("mail.smtp.username", "")
	v.SetDefault("mail.smtp.password", "")
	v.SetDefault("mail.smtp.timeout_sec", def.Mail.SMTP.TimeoutSec)
	v.SetDefault("log.level", def.Log.Level)

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the values that would otherwise fail late at runtime.
func (c *AppConfig) Validate() error {
	if _, err := ParseSchedule(c.Reminder.Interval); err != nil {
		return err
	}
	if c.Reminder.UpcomingDays < 0 {
		return fmt.Errorf("reminder.upcoming_days must be >= 0, got %d", c.Reminder.UpcomingDays)
	}
	switch c.Mail.Backend {
	case MailBackendOutbox:
		if c.Mail.OutboxDir == "" {
			return fmt.Errorf("mail.outbox_dir is required for the outbox backend")
		}
	case MailBackendSMTP:
		if c.Mail.SMTP.Host == "" {
			return fmt.Errorf("mail.smtp.host is required for the smtp backend")
		}
	default:
		return fmt.Errorf("unknown mail.backend %q", c.Mail.Backend)
	}
	return nil
}

// ParseSchedule parses a reminder interval expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder.interval %q: %w", expr, err)
	}
	return sched, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database", cfg.Database)
	v.Set("reminder", cfg.Reminder)
	v.Set("mail", cfg.Mail)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
