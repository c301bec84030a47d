package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/me/romecli/internal/api"
	"github.com/me/romecli/internal/nav"
	"github.com/me/romecli/internal/telemetry"
)

// pageText holds the static blurbs shown for the content pages.
var pageText = map[string]string{
	"intro":       "Rome grew from a river settlement into the power that ringed the Mediterranean.",
	"description": "Legions, roads and law held together provinces from Britannia to Syria.",
	"conclusion":  "The western half fell in 476; the eastern half carried on for another thousand years.",
}

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the site interactively",
		Long: "Open an interactive session: navigate between pages, sign in and out.\n" +
			"Visits and time spent on each page are reported to the backend.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Session.Hydrate(cmd.Context()); err != nil {
				return fmt.Errorf("restore session: %w", err)
			}
			app.Session.WaitProfile()

			tracker := telemetry.New(app.Client, app.Logger)
			b := &browser{
				ctx:     cmd.Context(),
				out:     cmd.OutOrStdout(),
				tracker: tracker,
				nav:     nav.New(app.Session, tracker, app.Logger),
			}
			defer b.teardown()

			b.land()
			b.loop(cmd.InOrStdin())
			return nil
		},
	}
}

// browser drives one interactive session: a navigator for route gating and a
// tracker reporting page KPI, both torn down when the loop exits.
type browser struct {
	ctx     context.Context
	out     io.Writer
	tracker *telemetry.Tracker
	nav     *nav.Navigator
}

// land performs the initial navigation to the default route.
func (b *browser) land() {
	outcome, err := b.nav.NavigateTo(nav.DefaultRoute)
	if err != nil {
		fmt.Fprintf(b.out, "navigation failed: %v\n", err)
		return
	}
	b.show(outcome)
}

func (b *browser) loop(in io.Reader) {
	fmt.Fprintln(b.out, `Type a page name to navigate, "help" for commands, "quit" to leave.`)

	// Input is read on a separate goroutine so the loop can also observe
	// context cancellation (SIGINT); a blocked Scan must not keep the
	// session alive past an interrupt, or the final duration is lost.
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-b.ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(b.out, "> ")
		var line string
		select {
		case <-b.ctx.Done():
			fmt.Fprintln(b.out)
			return
		case text, ok := <-lines:
			if !ok {
				fmt.Fprintln(b.out)
				return
			}
			line = text
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit", "exit":
			return
		case "help":
			b.printHelp()
		case "routes":
			b.printRoutes()
		case "go":
			if len(fields) != 2 {
				fmt.Fprintln(b.out, "usage: go <page>")
				continue
			}
			b.navigate(fields[1])
		case "login":
			if len(fields) != 3 {
				fmt.Fprintln(b.out, "usage: login <email> <password>")
				continue
			}
			b.login(fields[1], fields[2])
		case "register":
			if len(fields) != 3 {
				fmt.Fprintln(b.out, "usage: register <email> <password>")
				continue
			}
			b.register(fields[1], fields[2])
		case "logout":
			b.logout()
		case "whoami":
			b.whoami()
		default:
			b.navigate(fields[0])
		}
	}
}

// teardown closes the open dwell interval and waits for in-flight reports.
func (b *browser) teardown() {
	b.tracker.Close("unload")
	b.tracker.Wait()
}

func (b *browser) navigate(name string) {
	outcome, err := b.nav.NavigateTo(name)
	if err != nil {
		fmt.Fprintf(b.out, "unknown page %q (try \"routes\")\n", name)
		return
	}
	b.show(outcome)
}

func (b *browser) login(email, password string) {
	if err := app.Session.Login(b.ctx, email, password); err != nil {
		if errors.Is(err, api.ErrInvalidCredentials) {
			fmt.Fprintln(b.out, "Incorrect email or password.")
			return
		}
		fmt.Fprintf(b.out, "login failed: %v\n", err)
		return
	}
	app.Session.WaitProfile()

	sess := app.Session.Current()
	if sess.User == nil {
		fmt.Fprintln(b.out, "Login succeeded but the profile could not be loaded.")
		return
	}
	fmt.Fprintf(b.out, "Logged in as %s (%s)\n", sess.User.Email, sess.User.Role)
	b.show(b.nav.ResumeAfterLogin())
}

func (b *browser) register(email, password string) {
	if err := app.Session.Register(b.ctx, email, password); err != nil {
		var regErr *api.RegistrationError
		if errors.As(err, &regErr) {
			fmt.Fprintf(b.out, "Registration rejected: %s\n", regErr.Detail)
			return
		}
		fmt.Fprintf(b.out, "register failed: %v\n", err)
		return
	}
	fmt.Fprintf(b.out, "Registered %s. Use \"login\" to sign in.\n", email)
}

// logout flushes the open dwell interval while the token is still valid,
// then clears the session and re-gates the current page.
func (b *browser) logout() {
	b.tracker.Close("logout")
	b.tracker.Wait()
	app.Session.Logout(b.ctx)
	fmt.Fprintln(b.out, "Logged out.")
	b.show(b.nav.Reevaluate())
}

func (b *browser) whoami() {
	sess := app.Session.Current()
	if sess.User == nil {
		fmt.Fprintln(b.out, "Not logged in.")
		return
	}
	fmt.Fprintf(b.out, "%s (%s)\n", sess.User.Email, sess.User.Role)
}

// show reacts to a navigation outcome: renders the landed page or reports
// where the gate sent us instead.
func (b *browser) show(outcome nav.Outcome) {
	switch outcome.Decision.Kind {
	case nav.RedirectToLogin:
		fmt.Fprintf(b.out, "Sign in to view %q. Use \"login <email> <password>\".\n", outcome.Decision.Origin)
		return
	case nav.RedirectToDefault:
		fmt.Fprintln(b.out, "That page is restricted; back to the start.")
	case nav.Pending:
		app.Session.WaitProfile()
		b.show(b.nav.Reevaluate())
		return
	}
	b.render(outcome.Route)
}

func (b *browser) render(route nav.Route) {
	fmt.Fprintf(b.out, "-- %s --\n", route.Name)
	switch route.Name {
	case "posts":
		posts, err := app.Client.Posts(b.ctx)
		if err != nil {
			fmt.Fprintf(b.out, "could not load posts: %v\n", err)
			return
		}
		printPosts(b.out, posts, 5)
	case "stats":
		entries, err := app.Client.KPI(b.ctx)
		if err != nil {
			fmt.Fprintf(b.out, "could not load stats: %v\n", err)
			return
		}
		printStats(b.out, entries)
	case "api":
		page, err := app.Client.GetPage(b.ctx, route.PageID)
		if err != nil {
			fmt.Fprintf(b.out, "could not load page record: %v\n", err)
			return
		}
		fmt.Fprintf(b.out, "Backend page record: id=%d name=%s\n", page.ID, page.Name)
	case "login", "register":
		fmt.Fprintf(b.out, "Use \"%s <email> <password>\".\n", route.Name)
	default:
		if text, ok := pageText[route.Name]; ok {
			fmt.Fprintln(b.out, text)
		}
	}
}

func (b *browser) printRoutes() {
	for _, route := range nav.Routes() {
		fmt.Fprintf(b.out, "  %s\n", route.Name)
	}
}

func (b *browser) printHelp() {
	fmt.Fprint(b.out, `Commands:
  <page> | go <page>           navigate to a page (see "routes")
  routes                       list pages
  login <email> <password>     sign in
  register <email> <password>  create an account
  logout                       sign out
  whoami                       show the signed-in account
  quit                         leave (time on the current page is reported)
`)
}
