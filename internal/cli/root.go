package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/cdenv/internal/config"
	"github.com/roach88/cdenv/internal/dirstack"
	"github.com/roach88/cdenv/internal/store"
)

// RootOptions holds global flags and state shared by all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string

	// Viper holds the layered configuration. Command flags are bound to it
	// when the command tree is built.
	Viper *viper.Viper

	// Logger writes to the command's stderr. It is set before any command
	// runs.
	Logger *slog.Logger

	// IDs generates journal run IDs. Defaults to UUIDv7Generator.
	IDs store.IDGenerator

	// FS answers the resolver's filesystem questions. Defaults to OSFS.
	FS dirstack.FS
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the cdenv CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{
		Viper: config.New(),
		IDs:   store.UUIDv7Generator{},
		FS:    dirstack.OSFS{},
	})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cdenv",
		Short: "cdenv - per-directory shell environments",
		Long: `cdenv loads shell configuration files as you change directories
and undoes their effects when you leave.

The shell hook calls "cdenv list" on every directory change to learn which
files to unload and load, and "cdenv compare" after sourcing a file to
record how to restore the environment later.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output on stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format for history (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default $XDG_CONFIG_HOME/cdenv/config.yaml)")
	cmd.PersistentFlags().String("journal", "", "record runs in this SQLite database")
	_ = opts.Viper.BindPFlag(config.KeyJournal, cmd.PersistentFlags().Lookup("journal"))

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid arguments", err)
	})

	// Add subcommands
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewCompareCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// setup validates global flags, installs the logger and merges the config
// file into the layered configuration.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	if !slices.Contains(ValidFormats, o.Format) {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	o.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	path, required := o.ConfigFile, o.ConfigFile != ""
	if !required {
		path = config.DefaultPath()
	}
	if err := config.ReadFile(o.Viper, path, required); err != nil {
		if errors.Is(err, config.ErrInvalid) {
			return WrapExitError(ExitCommandError, "invalid config file", err)
		}
		return WrapExitError(ExitFailure, "failed to read config file", err)
	}
	o.Logger.Debug("configuration loaded", "config", path)
	return nil
}

// load returns the effective configuration after flags have been parsed.
func (o *RootOptions) load() (config.Config, error) {
	cfg, err := config.Load(o.Viper)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}

// bindFlag binds a command flag to a configuration key. Flag values only
// take precedence when the flag is set.
func (o *RootOptions) bindFlag(key string, flag *pflag.Flag) {
	_ = o.Viper.BindPFlag(key, flag)
}
