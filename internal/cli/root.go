// Package cli defines the go-cycle command tree.
package cli

import (
	"fmt"
	"io"
	"runtime"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tartampluch/go-cycle/internal/config"
	"github.com/tartampluch/go-cycle/internal/engine"
	"github.com/tartampluch/go-cycle/internal/locale"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Debug      bool
	Lang       string
	Format     string // "text" | "json"
	Version    bool

	// ConfigureLogging is called once flags are parsed. Nil leaves slog untouched.
	ConfigureLogging func(debug bool)

	// Fetcher serves the web source. Nil uses engine.NewHTTPFetcher.
	Fetcher engine.RecordFetcher
}

// NewRootCommand creates the root command of the go-cycle CLI.
func NewRootCommand(opts *RootOptions) *cobra.Command {
	if opts == nil {
		opts = &RootOptions{}
	}

	cmd := &cobra.Command{
		Use:           config.AppCommand,
		Short:         config.CmdShort,
		Long:          config.CmdLong,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(config.ValidFormats, opts.Format) {
				return fmt.Errorf("%s %q: must be one of %v", config.ErrInvalidFormat, opts.Format, config.ValidFormats)
			}
			if opts.ConfigureLogging != nil {
				opts.ConfigureLogging(opts.Debug)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Version {
				printVersion(cmd.OutOrStdout())
				return nil
			}
			return cmd.Help()
		},
	}

	cmd.Flags().BoolVar(&opts.Version, config.FlagVersion, false, config.FlagDescVersion)

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, config.FlagConfig, "", config.FlagDescConfig)
	cmd.PersistentFlags().BoolVar(&opts.Debug, config.FlagDebug, false, config.FlagDescDebug)
	cmd.PersistentFlags().StringVar(&opts.Lang, config.FlagLang, "", config.FlagDescLang)
	cmd.PersistentFlags().StringVar(&opts.Format, config.FlagFormat, config.FormatText, config.FlagDescFormat)

	cmd.AddCommand(NewPredictCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

// loadSettings reads the settings file and applies flag overrides.
func (o *RootOptions) loadSettings() (*viper.Viper, config.Settings, error) {
	v, s, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, config.Settings{}, err
	}
	o.applyOverrides(&s)
	return v, s, nil
}

func (o *RootOptions) applyOverrides(s *config.Settings) {
	if o.Lang != "" {
		s.Language = o.Lang
	}
}

// translator resolves the display language without requiring valid settings,
// so keyring commands work before the settings file is complete.
func (o *RootOptions) translator() *locale.Translator {
	lang := o.Lang
	if lang == "" {
		lang = config.DefaultLanguage
		if _, s, err := config.Load(o.ConfigPath); err == nil && s.Language != "" {
			lang = s.Language
		}
	}
	return locale.New(lang)
}

func (o *RootOptions) fetcher() engine.RecordFetcher {
	if o.Fetcher != nil {
		return o.Fetcher
	}
	return engine.NewHTTPFetcher()
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, config.MsgVersionOutput,
		config.AppName,
		config.Version,
		config.Commit,
		config.Date,
		runtime.GOOS,
		runtime.GOARCH,
	)
}
