package cli

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/cdenv/internal/config"
	"github.com/roach88/cdenv/internal/dirstack"
	"github.com/roach88/cdenv/internal/store"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Global string // "0" or "1"; empty when not given
	Tag    uint64
	Reload bool
	OldPwd string
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list [flags] PWD [LOADED...]",
		Short: "Compute which files to unload and load",
		Long: `Compute the configuration files to unload and load when the working
directory becomes PWD.

LOADED is the stack of files currently loaded, outermost first. The output
is bash source that assigns CDENV_STACK, the unload and load arrays and,
with --autoreload, CDENV_TAG.

With --oldpwd, the stack is ignored and the marker directories left and
entered when moving from the old directory to PWD are printed instead.

Examples:
  cdenv list --autoreload --tag 1700000000 "$PWD" "${CDENV_STACK[@]}"
  cdenv list --reload "$PWD" "${CDENV_STACK[@]}"
  cdenv list --oldpwd "$OLDPWD" "$PWD"`,
		Args:          minimumArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Global, "global", "", "load the marker file in the home directory everywhere (0|1)")
	cmd.Flags().String("file", config.DefaultMarker, "marker file name")
	cmd.Flags().String("path", "", "colon-separated directories whose *.sh files are always loaded")
	cmd.Flags().Uint64Var(&opts.Tag, "tag", 0, "freshness tag from the previous run")
	cmd.Flags().BoolVar(&opts.Reload, "reload", false, "unload everything and load everything found")
	cmd.Flags().Bool("autoreload", false, "reload files modified since --tag")
	cmd.Flags().StringVar(&opts.OldPwd, "oldpwd", "", "compute a delta from this directory instead of using the stack")

	rootOpts.bindFlag(config.KeyFile, cmd.Flags().Lookup("file"))
	rootOpts.bindFlag(config.KeyPath, cmd.Flags().Lookup("path"))
	rootOpts.bindFlag(config.KeyAutoreload, cmd.Flags().Lookup("autoreload"))

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("global") {
		global, err := parseSwitch(opts.Global)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --global", err)
		}
		opts.Viper.Set(config.KeyGlobal, global)
	}
	if opts.OldPwd != "" && (opts.Reload || len(args) > 1) {
		return NewExitError(ExitCommandError, "--oldpwd takes exactly one directory and no loaded stack")
	}

	cfg, err := opts.load()
	if err != nil {
		return err
	}

	var res dirstack.Result
	if opts.OldPwd != "" {
		res, err = dirstack.ResolveDelta(opts.FS, dirstack.DeltaRequest{
			Home:   cfg.Home,
			Global: cfg.Global,
			Marker: cfg.File,
			From:   opts.OldPwd,
			To:     args[0],
		})
	} else {
		res, err = dirstack.Resolve(opts.FS, dirstack.Request{
			Home:       cfg.Home,
			Global:     cfg.Global,
			Marker:     cfg.File,
			SearchPath: cfg.Path,
			Dir:        args[0],
			Loaded:     args[1:],
			Reload:     opts.Reload,
			Autoreload: cfg.Autoreload,
			Tag:        opts.Tag,
		})
	}
	if errors.Is(err, dirstack.ErrNotAbsolute) {
		return WrapExitError(ExitCommandError, "invalid directory", err)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "failed to resolve configuration files", err)
	}

	for _, p := range res.Removed {
		opts.Logger.Info("file removed since last load", "path", p)
	}
	for _, p := range res.Changed {
		opts.Logger.Info("file changed since last load", "path", p)
	}
	opts.Logger.Debug("resolved", "dir", args[0], "unload", len(res.Unload), "load", len(res.Load), "tag", res.Tag)

	// Render fully before writing so the hook never sources partial output.
	var out bytes.Buffer
	if err := dirstack.Write(&out, res); err != nil {
		return WrapExitError(ExitFailure, "failed to render stack", err)
	}
	if _, err := cmd.OutOrStdout().Write(out.Bytes()); err != nil {
		return WrapExitError(ExitFailure, "failed to write output", err)
	}

	run := store.Run{
		Command: store.CommandList,
		Subject: args[0],
		Tag:     res.Tag,
	}
	run.Entries = append(entries("unload", res.Unload), entries("load", res.Load)...)
	opts.record(cmd.Context(), cfg, run)
	return nil
}

// parseSwitch accepts exactly "0" or "1".
func parseSwitch(s string) (bool, error) {
	switch s {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	return false, fmt.Errorf("%q is not 0 or 1", s)
}

// minimumArgs is cobra.MinimumNArgs with a command-error exit code.
func minimumArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MinimumNArgs(n)(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "invalid arguments", err)
		}
		return nil
	}
}

// exactArgs is cobra.ExactArgs with a command-error exit code.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "invalid arguments", err)
		}
		return nil
	}
}

// rangeArgs is cobra.RangeArgs with a command-error exit code.
func rangeArgs(lo, hi int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.RangeArgs(lo, hi)(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "invalid arguments", err)
		}
		return nil
	}
}
