package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/me/romecli/internal/api"
)

func newPagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "Manage tracked pages on the backend",
	}
	cmd.AddCommand(newPagesCreateCmd(), newPagesShowCmd())
	return cmd
}

func newPagesCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Register a new page for KPI tracking (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Session.Hydrate(cmd.Context()); err != nil {
				return fmt.Errorf("restore session: %w", err)
			}
			app.Session.WaitProfile()

			page, err := app.Client.CreatePage(cmd.Context(), args[0])
			if err != nil {
				switch {
				case errors.Is(err, api.ErrForbidden):
					return fmt.Errorf("creating pages is restricted to admin accounts")
				case errors.Is(err, api.ErrSessionInvalid):
					return fmt.Errorf("not logged in (run `romecli login`)")
				}
				return fmt.Errorf("create page: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created page %d: %s\n", page.ID, page.Name)
			return nil
		},
	}
}

func newPagesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a page record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("page id must be an integer: %q", args[0])
			}

			if err := app.Session.Hydrate(cmd.Context()); err != nil {
				return fmt.Errorf("restore session: %w", err)
			}
			app.Session.WaitProfile()

			page, err := app.Client.GetPage(cmd.Context(), id)
			if err != nil {
				if errors.Is(err, api.ErrSessionInvalid) {
					return fmt.Errorf("not logged in (run `romecli login`)")
				}
				return fmt.Errorf("fetch page: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Page %d: %s\n", page.ID, page.Name)
			return nil
		},
	}
}
