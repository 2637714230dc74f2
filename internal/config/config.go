package config

import "time"

// Config represents the complete application configuration
type Config struct {
	General       GeneralConfig       `mapstructure:"general"`
	PurgeDefaults PurgeDefaultsConfig `mapstructure:"purge_defaults"`
	Workspaces    []WorkspaceConfig   `mapstructure:"workspaces"`
	Notify        NotifyConfig        `mapstructure:"notify"`
}

// GeneralConfig contains global application settings
type GeneralConfig struct {
	LogLevel        string        `mapstructure:"log_level"`
	LogFormat       string        `mapstructure:"log_format"`
	LogFile         string        `mapstructure:"log_file"`
	TestRun         bool          `mapstructure:"test_run"`
	Schedule        string        `mapstructure:"schedule"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	SSLVerification bool          `mapstructure:"ssl_verification"`
}

// PurgeDefaultsConfig contains settings applied to every workspace unless overridden
type PurgeDefaultsConfig struct {
	Days          int           `mapstructure:"days"`
	Concurrency   int           `mapstructure:"concurrency"`
	DeleteTimeout time.Duration `mapstructure:"delete_timeout"`
}

// WorkspaceConfig represents a single Slack workspace token and its overrides
type WorkspaceConfig struct {
	Name        string `mapstructure:"name"`
	Token       string `mapstructure:"token"`
	APIURL      string `mapstructure:"api_url"`
	Enabled     *bool  `mapstructure:"enabled"`
	Days        *int   `mapstructure:"days"`
	Concurrency *int   `mapstructure:"concurrency"`
	Debug       bool   `mapstructure:"debug"`
}

// NotifyConfig contains notifier settings
type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig represents the Telegram cycle-summary notifier
type TelegramConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	BotToken    string `mapstructure:"bot_token"`
	ChatID      int64  `mapstructure:"chat_id"`
	APIEndpoint string `mapstructure:"api_endpoint"`
	SkipEmpty   bool   `mapstructure:"skip_empty"`
}

// Overrides carries command-line values that win over the file and environment
type Overrides struct {
	Days        *int
	Concurrency *int
	TestRun     *bool
}

// IsEnabled reports whether the workspace should be purged. Unset means enabled.
func (w WorkspaceConfig) IsEnabled() bool {
	return w.Enabled == nil || *w.Enabled
}

// EffectiveDays returns the workspace override or the default
func (w WorkspaceConfig) EffectiveDays(d PurgeDefaultsConfig) int {
	if w.Days != nil {
		return *w.Days
	}
	return d.Days
}

// EffectiveConcurrency returns the workspace override or the default
func (w WorkspaceConfig) EffectiveConcurrency(d PurgeDefaultsConfig) int {
	if w.Concurrency != nil {
		return *w.Concurrency
	}
	return d.Concurrency
}

// Apply folds command-line overrides into the config. Overrides replace both the
// defaults and any per-workspace value.
func (c *Config) Apply(o Overrides) {
	if o.Days != nil {
		c.PurgeDefaults.Days = *o.Days
		for i := range c.Workspaces {
			c.Workspaces[i].Days = nil
		}
	}
	if o.Concurrency != nil {
		c.PurgeDefaults.Concurrency = *o.Concurrency
		for i := range c.Workspaces {
			c.Workspaces[i].Concurrency = nil
		}
	}
	if o.TestRun != nil {
		c.General.TestRun = *o.TestRun
	}
}
