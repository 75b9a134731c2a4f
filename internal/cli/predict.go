package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-cycle/internal/app"
	"github.com/tartampluch/go-cycle/internal/config"
	"github.com/tartampluch/go-cycle/internal/engine"
	"github.com/tartampluch/go-cycle/internal/report"
)

// NewPredictCommand creates the predict command.
func NewPredictCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdPredictUse,
		Short: config.CmdPredictShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, f, err := syncOnce(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if rootOpts.Format == config.FormatJSON {
				return writeJSON(out, f)
			}
			return report.RenderForecast(out, a.Translator, f, f.GeneratedAt)
		},
	}
}

// NewHistoryCommand creates the history command. The JSON format prints the
// same document as predict, which carries the history.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdHistoryUse,
		Short: config.CmdHistoryShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, f, err := syncOnce(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if rootOpts.Format == config.FormatJSON {
				return writeJSON(out, f)
			}
			return report.RenderHistory(out, a.Translator, f.Events)
		},
	}
}

// syncOnce loads the history and computes the forecast without serving it.
func syncOnce(ctx context.Context, opts *RootOptions) (*app.App, engine.Forecast, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	_, s, err := opts.loadSettings()
	if err != nil {
		return nil, engine.Forecast{}, err
	}

	a := app.New(s, nil, opts.fetcher())
	defer a.Close()

	f, err := a.SyncOnce(ctx)
	if err != nil {
		return nil, engine.Forecast{}, err
	}
	return a, f, nil
}

func writeJSON(w io.Writer, f engine.Forecast) error {
	data, err := report.ForecastJSON(f, f.GeneratedAt)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
