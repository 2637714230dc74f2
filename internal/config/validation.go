package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmylchreest/go-slackpurge/internal/errs"
	"github.com/jmylchreest/go-slackpurge/internal/scheduler"
)

const (
	maxConcurrency = 100
	maxDays        = 100000
)

// Validate checks the configuration for errors and inconsistencies. All problems are
// reported together, each as its own joined error.
func (c *Config) Validate() error {
	problems := c.problems()
	if len(problems) == 0 {
		return nil
	}

	list := make([]error, 0, len(problems))
	for _, p := range problems {
		list = append(list, errors.New(p))
	}
	return errs.Wrap(errs.CodeInvalidConfig, "", errors.Join(list...))
}

// problems returns one human readable line per configuration problem
func (c *Config) problems() []string {
	var problems []string
	problems = append(problems, prefixed("general", c.validateGeneral())...)
	problems = append(problems, prefixed("purge_defaults", c.validatePurgeDefaults())...)
	problems = append(problems, c.validateWorkspaces()...)
	problems = append(problems, prefixed("notify.telegram", c.validateTelegram())...)
	return problems
}

func prefixed(section string, problems []string) []string {
	for i, p := range problems {
		problems[i] = section + ": " + p
	}
	return problems
}

func (c *Config) validateGeneral() []string {
	var problems []string

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !isValidChoice(c.General.LogLevel, validLogLevels) {
		problems = append(problems, fmt.Sprintf("log_level must be one of: %s", strings.Join(validLogLevels, ", ")))
	}

	validFormats := []string{"json", "text"}
	if !isValidChoice(c.General.LogFormat, validFormats) {
		problems = append(problems, fmt.Sprintf("log_format must be one of: %s", strings.Join(validFormats, ", ")))
	}

	if c.General.RequestTimeout < 1*time.Second {
		problems = append(problems, "request_timeout must be at least 1 second")
	}
	if c.General.RequestTimeout > 5*time.Minute {
		problems = append(problems, "request_timeout must not exceed 5 minutes")
	}

	if c.General.Schedule != "" {
		if err := scheduler.Validate(c.General.Schedule); err != nil {
			problems = append(problems, err.Error())
		}
	}

	return problems
}

func (c *Config) validatePurgeDefaults() []string {
	var problems []string

	problems = append(problems, checkDays(c.PurgeDefaults.Days)...)
	problems = append(problems, checkConcurrency(c.PurgeDefaults.Concurrency)...)

	if c.PurgeDefaults.DeleteTimeout < 0 {
		problems = append(problems, "delete_timeout cannot be negative")
	}

	return problems
}

func (c *Config) validateWorkspaces() []string {
	if len(c.Workspaces) == 0 {
		return []string{fmt.Sprintf("you must set the %s environment variable or configure at least one workspace", TokenEnv)}
	}

	var problems []string
	names := make(map[string]bool)

	for i, ws := range c.Workspaces {
		label := fmt.Sprintf("workspace #%d", i+1)
		if ws.Name == "" {
			problems = append(problems, label+": name is required")
		} else {
			label = fmt.Sprintf("workspace '%s'", ws.Name)
			if names[ws.Name] {
				problems = append(problems, fmt.Sprintf("duplicate workspace name: %s", ws.Name))
			}
			names[ws.Name] = true
		}

		if ws.Token == "" {
			problems = append(problems, label+": token is required")
		}

		if ws.APIURL != "" && !strings.HasPrefix(ws.APIURL, "http://") && !strings.HasPrefix(ws.APIURL, "https://") {
			problems = append(problems, label+": api_url must start with http:// or https://")
		}

		if ws.Days != nil {
			problems = append(problems, prefixed(label, checkDays(*ws.Days))...)
		}
		if ws.Concurrency != nil {
			problems = append(problems, prefixed(label, checkConcurrency(*ws.Concurrency))...)
		}
	}

	return problems
}

func (c *Config) validateTelegram() []string {
	t := c.Notify.Telegram
	if !t.Enabled {
		return nil
	}

	var problems []string
	if t.BotToken == "" {
		problems = append(problems, "bot_token is required")
	}
	if t.ChatID == 0 {
		problems = append(problems, "chat_id is required")
	}
	if t.APIEndpoint != "" && strings.Count(t.APIEndpoint, "%s") != 2 {
		problems = append(problems, "api_endpoint must contain two %s placeholders (token, method)")
	}
	return problems
}

func checkDays(days int) []string {
	if days < 0 {
		return []string{"days must be a positive integer"}
	}
	if days > maxDays {
		return []string{fmt.Sprintf("days must not exceed %d", maxDays)}
	}
	return nil
}

func checkConcurrency(n int) []string {
	if n < 1 {
		return []string{"concurrency must be at least 1"}
	}
	if n > maxConcurrency {
		return []string{fmt.Sprintf("concurrency must not exceed %d", maxConcurrency)}
	}
	return nil
}

// isValidChoice checks if a value is in a list of valid choices
func isValidChoice(value string, choices []string) bool {
	value = strings.ToLower(value)
	for _, choice := range choices {
		if value == choice {
			return true
		}
	}
	return false
}
