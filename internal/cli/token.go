package cli

import (
	"bufio"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/tartampluch/go-cycle/internal/app"
	"github.com/tartampluch/go-cycle/internal/config"
)

// NewTokenCommand creates the token command group.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   config.CmdTokenUse,
		Short: config.CmdTokenShort,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   config.CmdTokenSetUse,
		Short: config.CmdTokenSetSh,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user := args[0]
			fmt.Fprintf(cmd.ErrOrStderr(), config.MsgSecretPrompt, user)

			secret, err := readLine(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if err := app.StoreSecret(user, secret); err != nil {
				return err
			}

			tr := rootOpts.translator()
			fmt.Fprintln(cmd.OutOrStdout(), tr.Format(config.TKeyTokenStored, map[string]any{config.TemplateKeyUser: user}))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   config.CmdTokenDelUse,
		Short: config.CmdTokenDelSh,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user := args[0]
			if err := app.DeleteSecret(user); err != nil {
				return err
			}

			tr := rootOpts.translator()
			fmt.Fprintln(cmd.OutOrStdout(), tr.Format(config.TKeyTokenDeleted, map[string]any{config.TemplateKeyUser: user}))
			return nil
		},
	})

	return cmd
}

// readLine reads the first line of r. Input without a trailing newline is
// accepted.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("%s: %w", config.ErrSecretRead, err)
	}
	return line, nil
}
