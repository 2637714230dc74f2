package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// TokenEnv is the environment variable holding a single workspace token
const TokenEnv = "SLACK_AUTH_TOKEN"

// DefaultWorkspace is the name given to the workspace built from TokenEnv
const DefaultWorkspace = "default"

// Load reads configuration from file and environment variables. It does not validate;
// call Validate once command-line overrides have been applied.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("SLACKPURGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath == "" {
		configPath = os.Getenv("SLACKPURGE_CONFIG")
	}
	if configPath == "" {
		defaultPaths := []string{"config.yaml", "config.yml", "/app/config.yaml"}
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}
	// no file: defaults and env vars only

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(cfg.Workspaces) == 0 {
		if token := os.Getenv(TokenEnv); token != "" {
			cfg.Workspaces = []WorkspaceConfig{{Name: DefaultWorkspace, Token: token}}
		}
	}

	return &cfg, nil
}

// setDefaults sets default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.log_format", "json")
	v.SetDefault("general.log_file", "")
	v.SetDefault("general.test_run", false)
	v.SetDefault("general.schedule", "")
	v.SetDefault("general.request_timeout", 30*time.Second)
	v.SetDefault("general.ssl_verification", true)

	v.SetDefault("purge_defaults.days", 30)
	v.SetDefault("purge_defaults.concurrency", 10)
	v.SetDefault("purge_defaults.delete_timeout", 0*time.Second) // 0 = no per-delete deadline

	v.SetDefault("notify.telegram.enabled", false)
	v.SetDefault("notify.telegram.bot_token", "")
	v.SetDefault("notify.telegram.chat_id", 0)
	v.SetDefault("notify.telegram.api_endpoint", "")
	v.SetDefault("notify.telegram.skip_empty", false)
}
