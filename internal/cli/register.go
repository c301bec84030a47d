package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/me/romecli/internal/api"
)

func newRegisterCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password are required")
			}

			if err := app.Session.Register(cmd.Context(), email, password); err != nil {
				var regErr *api.RegistrationError
				if errors.As(err, &regErr) {
					return fmt.Errorf("registration rejected: %s", regErr.Detail)
				}
				return fmt.Errorf("register: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s. You can now log in.\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	return cmd
}
