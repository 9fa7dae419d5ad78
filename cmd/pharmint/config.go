package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/pharmint/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View or modify pharmint configuration.

Configuration is stored at ~/.config/pharmint/config.yaml
Project-specific overrides can be placed in .pharmint.yaml
Environment variables override both, e.g. PHARMINT_REPORT_FORMAT=html`,
}

var configShowCmd = &cobra.Command{
	Use:   "show [key]",
	Short: "Display the effective configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(args) == 1 {
			value, err := getConfigValue(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, value)
			return nil
		}
		displayAllConfig(out, cfg)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a value in the user config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := setConfigValue(cfg, args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// displayAllConfig prints all configuration values.
func displayAllConfig(w io.Writer, cfg *config.Config) {
	settings := cfg.Settings()
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s: %v\n", k, settings[k])
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "user config: %s\n", config.GetUserConfigPath())
	if p := config.GetProjectConfigPath(); p != "" {
		fmt.Fprintf(w, "project config: %s\n", p)
	}
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	value, ok := cfg.Settings()[strings.ToLower(key)]
	if !ok {
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
	return fmt.Sprint(value), nil
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "data.dir":
		cfg.Data.Dir = value
	case "data.backend":
		cfg.Data.Backend = value
	case "data.sqlite_path":
		cfg.Data.SQLitePath = value
	case "report.dir":
		cfg.Report.Dir = value
	case "report.format":
		cfg.Report.Format = value
	case "report.write":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for report.write: %w", err)
		}
		cfg.Report.Write = b
	case "logging.level":
		cfg.Logging.Level = value
	case "logging.file":
		cfg.Logging.File = value
	case "logging.json":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for logging.json: %w", err)
		}
		cfg.Logging.JSON = b
	case "metrics.addr":
		cfg.Metrics.Addr = value
	case "events.buffer":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for events.buffer: %w", err)
		}
		cfg.Events.Buffer = n
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
