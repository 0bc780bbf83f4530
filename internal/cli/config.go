package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yildizm/h5view/internal/config"
	"github.com/yildizm/h5view/internal/errors"
)

// newConfigCommand creates the config command with subcommands
func newConfigCommand(o *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage h5view configuration",
		Long: `Manage h5view configuration files and settings.

The config command provides subcommands for initializing, viewing,
validating, and locating configuration files.`,
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(o))
	configCmd.AddCommand(newConfigValidateCommand(o))
	configCmd.AddCommand(newConfigPathCommand())

	return configCmd
}

// newConfigInitCommand creates the config init subcommand
func newConfigInitCommand() *cobra.Command {
	var (
		outputPath string
		force      bool
	)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default values",
		Example: `  # Create config in current directory
  h5view config init

  # Create config at specific path
  h5view config init --output ~/.config/h5view/config.yaml`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputPath == "" {
				outputPath = ".h5view.yaml"
			}
			if !force && fileExists(outputPath) {
				return fmt.Errorf("config file already exists at %s (use --force to overwrite)", outputPath)
			}

			dir := filepath.Dir(outputPath)
			if dir != "." && dir != "/" {
				if err := os.MkdirAll(dir, 0o750); err != nil {
					return fmt.Errorf("failed to create directory %s: %w", dir, err)
				}
			}

			data, err := yaml.Marshal(config.DefaultConfig())
			if err != nil {
				return fmt.Errorf("failed to marshal config to YAML: %w", err)
			}
			if err := os.WriteFile(outputPath, data, 0o600); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at: %s\n", outputPath)
			return nil
		},
	}

	initCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output path for config file (default: .h5view.yaml)")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite existing config file")

	return initCmd
}

// newConfigShowCommand creates the config show subcommand
func newConfigShowCommand(o *rootOptions) *cobra.Command {
	var format string

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the effective configuration after merging defaults, config files,
and H5VIEW_ environment variable overrides.`,
		Example: `  # Show config in YAML format
  h5view config show

  # Show config in JSON format
  h5view config show --format json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.config()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				data, err := json.MarshalIndent(cfg, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal config to JSON: %w", err)
				}
				fmt.Fprintln(out, string(data))
			case "yaml":
				data, err := yaml.Marshal(cfg)
				if err != nil {
					return fmt.Errorf("failed to marshal config to YAML: %w", err)
				}
				fmt.Fprint(out, string(data))
			default:
				return errors.Newf(errors.InvalidArgument, "--format", "unsupported format: %s (use json or yaml)", format)
			}
			return nil
		},
	}

	showCmd.Flags().StringVar(&format, "format", "yaml", "output format (yaml, json)")

	return showCmd
}

// newConfigValidateCommand creates the config validate subcommand
func newConfigValidateCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validate the configuration for syntax and semantic errors: YAML syntax,
positive rates, a parsable cache budget and a known theme.`,
		Example: `  # Validate current config
  h5view config validate

  # Validate specific config file
  h5view config validate --config /path/to/config.yaml`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.config()
			if err != nil {
				return err
			}
			budget, _ := cfg.BudgetBytes()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Configuration is valid")
			fmt.Fprintf(out, "  Version: %s\n", cfg.Version)
			fmt.Fprintf(out, "  Rates: %g ticks/s, %g frames/s\n", cfg.Session.TickRate, cfg.Session.FrameRate)
			fmt.Fprintf(out, "  Cache budget: %s\n", humanize.IBytes(uint64(budget)))
			fmt.Fprintf(out, "  Theme: %s\n", cfg.UI.Theme)
			return nil
		},
	}
}

// newConfigPathCommand creates the config path subcommand
func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file search paths",
		Long: `Display the list of paths h5view searches for configuration files.

Shows the search order and indicates which files exist.`,
		Args: noArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Configuration file search paths (in priority order):")
			fmt.Fprintln(out)

			priority := []string{"Highest", "Medium", "Lowest"}
			for i, path := range config.GetConfigPaths() {
				exists := " (not found)"
				if fileExists(path) {
					exists = " (exists)"
				}
				fmt.Fprintf(out, "  %d. %s%s\n", i+1, path, exists)
				if i < len(priority) {
					fmt.Fprintf(out, "     Priority: %s\n", priority[i])
				}
			}
			fmt.Fprintln(out)

			if current, found := config.FindConfigFile(); found {
				fmt.Fprintf(out, "Current config file: %s\n", current)
			} else {
				fmt.Fprintln(out, "No config file found, using defaults")
			}
			fmt.Fprintf(out, "Environment variables with %s prefix override file settings\n", config.EnvPrefix)
		},
	}
}

// Helper function to check if file exists
func fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}
