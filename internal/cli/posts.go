package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/me/romecli/internal/api"
	"github.com/me/romecli/pkg/model"
)

func newPostsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Show the post feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Session.Hydrate(cmd.Context()); err != nil {
				return fmt.Errorf("restore session: %w", err)
			}
			app.Session.WaitProfile()

			posts, err := app.Client.Posts(cmd.Context())
			if err != nil {
				if errors.Is(err, api.ErrSessionInvalid) {
					return fmt.Errorf("not logged in (run `romecli login`)")
				}
				return fmt.Errorf("fetch posts: %w", err)
			}

			printPosts(cmd.OutOrStdout(), posts, limit)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 5, "Maximum number of posts to show")
	return cmd
}

func printPosts(w io.Writer, posts []model.Post, limit int) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "No posts found.")
		return
	}
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	for _, p := range posts {
		fmt.Fprintf(w, "#%d %s\n", p.ID, p.Title)
	}
}
