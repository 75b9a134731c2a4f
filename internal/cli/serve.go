package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-cycle/internal/app"
	"github.com/tartampluch/go-cycle/internal/config"
)

// NewServeCommand creates the serve command. It runs until interrupted;
// SIGHUP forces an immediate resync and edits to the settings file are
// applied without a restart.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   config.CmdServeUse,
		Short: config.CmdServeShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runServe(ctx, rootOpts)
		},
	}
}

func runServe(ctx context.Context, opts *RootOptions) error {
	v, s, err := opts.loadSettings()
	if err != nil {
		return err
	}

	a := app.New(s, app.NewServer(s), opts.fetcher())
	defer func() {
		_ = a.Close()
	}()

	config.WatchSettings(v, func(s config.Settings) {
		opts.applyOverrides(&s)
		a.ApplySettings(s)
	})

	hup := make(chan os.Signal, config.ChannelBufferSize)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				slog.Info(config.MsgSignalResync, config.LogKeyComponent, config.CompCLI)
				a.RequestSync()
			}
		}
	}()

	return a.Run(ctx)
}
