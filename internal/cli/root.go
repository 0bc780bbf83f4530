package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/yildizm/h5view/internal/config"
	"github.com/yildizm/h5view/internal/errors"
	"github.com/yildizm/h5view/internal/logger"
)

// Exit codes
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	cfgFile string
	verbose bool
	logFile string
	noColor bool

	cfg *config.Config
}

// NewRootCommand creates the root command
func NewRootCommand(version, commit, date string) *cobra.Command {
	o := &rootOptions{}
	v := &viewOptions{}

	rootCmd := &cobra.Command{
		Use:   "h5view --file <path>",
		Short: "Terminal browser for HDF5 datasets",
		Long: `h5view opens one HDF5 (netCDF4) file and lets you browse its datasets in the
terminal: filter the catalog, open a dataset, and page through 2-D pivots of
its slices as a table or a sparkline chart.

Examples:
  h5view --file model.h5
  h5view --file model.h5 --dataset routput/Dmd
  h5view ls --file model.h5 --filter dmd`,
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, o, v)
		},
	}
	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return errors.New(errors.InvalidArgument, c.CommandPath(), err)
	})

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&o.cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().StringVar(&o.logFile, "log-file", "", "log file (default from config)")
	rootCmd.PersistentFlags().BoolVar(&o.noColor, "no-color", false, "disable colored output")

	v.register(rootCmd)

	// Add subcommands
	rootCmd.AddCommand(newLsCommand(o))
	rootCmd.AddCommand(newConfigCommand(o))
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

// ExitCode maps an error returned by the root command to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.KindOf(err) == errors.InvalidArgument:
		return ExitUsage
	default:
		return ExitFailure
	}
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return errors.Newf(errors.InvalidArgument, cmd.CommandPath(), "unexpected argument %q (the file is given with --file)", args[0])
	}
	return nil
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version number, build commit, date, and runtime information",
		Args:  noArgs,
		Run: func(cmd *cobra.Command, args []string) {
			displayVersion := version
			displayCommit := commit
			displayDate := date

			if version == "dev" || version == "" {
				displayVersion = "development"
			}
			if commit == "none" || commit == "" {
				displayCommit = "local-build"
			}
			if date == "unknown" || date == "" {
				displayDate = "local-build"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "h5view %s (%s) built on %s\n", displayVersion, displayCommit, displayDate)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// config loads the layered configuration once per command.
func (o *rootOptions) config() (*config.Config, error) {
	if o.cfg != nil {
		return o.cfg, nil
	}
	cfg, err := config.NewLoader().LoadConfig(o.cfgFile)
	if err != nil {
		return nil, errors.New(errors.InvalidArgument, "config", err)
	}
	if o.verbose {
		cfg.Log.Verbose = true
	}
	if o.noColor {
		cfg.UI.NoColor = true
	}
	if o.logFile != "" {
		cfg.Log.File = o.logFile
	}
	o.cfg = cfg
	return cfg, nil
}

// consoleLogger writes to stderr for commands that do not own the screen.
func (o *rootOptions) consoleLogger(cfg *config.Config) *logger.Logger {
	return logger.New("h5view", logger.StaticVerbose(cfg.Log.Verbose))
}

// fileLogger writes to the configured log file while the terminal is in use.
// Logging is dropped when the file cannot be opened.
func (o *rootOptions) fileLogger(cfg *config.Config, stderr io.Writer) (*logger.Logger, func()) {
	path := cfg.LogPath()
	if path == "" {
		return logger.Nop(), func() {}
	}
	log, closer, err := logger.OpenFile("h5view", logger.StaticVerbose(cfg.Log.Verbose), path)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: logging disabled: %v\n", err)
		return logger.Nop(), func() {}
	}
	return log, func() {
		if err := closer.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
		}
	}
}
