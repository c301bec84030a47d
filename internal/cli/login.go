package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long:  "Exchange credentials for an access token and persist it for later commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(cmd.InOrStdin())
			if email == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Email: ")
				line, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("read email: %w", err)
				}
				email = strings.TrimSpace(line)
			}
			if password == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Password: ")
				line, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimSpace(line)
			}
			if email == "" || password == "" {
				return fmt.Errorf("email and password cannot be empty")
			}

			if err := app.Session.Login(cmd.Context(), email, password); err != nil {
				return fmt.Errorf("login: %w", err)
			}
			app.Session.WaitProfile()

			sess := app.Session.Current()
			if sess.User != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", sess.User.Email, sess.User.Role)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Logged in; profile unavailable, session discarded")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (prompted if omitted)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted if omitted)")
	return cmd
}
