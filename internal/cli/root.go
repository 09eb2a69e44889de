// Package cli wires the cobra command tree: spaces, pages, links, search,
// and the interactive browser. Output is JSON by default so agents can
// script every command; --pretty is for humans.
package cli

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/loganshamberger/whatidid/internal/model"
	"github.com/loganshamberger/whatidid/internal/store"
	"github.com/loganshamberger/whatidid/internal/tui"
)

type App struct {
	DBPath string
	User   string
	Agent  string
	Pretty bool

	log zerolog.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "whatidid",
		Short:        "Shared knowledge base for humans and agents (CLI + TUI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive browser
  whatidid

  # Scriptable commands
  whatidid space create --slug backend --name "Backend Team"
  whatidid page create --space backend --title "Deploy runbook" --type runbook --stdin
  whatidid search "connection pool"
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive browser.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runBrowse(app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		app.log = newLogger()
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.DBPath, "db", envOr("WHATIDID_PATH", ""), "Path to the database file (default: ~/.whatidid/kb.db)")
	cmd.PersistentFlags().StringVar(&app.User, "user", "", "User recorded on writes (default: $KB_USER, then $USER)")
	cmd.PersistentFlags().StringVar(&app.Agent, "agent", "", "Agent recorded on writes (default: $KB_AGENT)")
	cmd.PersistentFlags().BoolVar(&app.Pretty, "pretty", false, "Human-readable output instead of JSON")

	cmd.AddCommand(newSpaceCmd(app))
	cmd.AddCommand(newPageCmd(app))
	cmd.AddCommand(newLinkCmd(app))
	cmd.AddCommand(newSearchCmd(app))
	cmd.AddCommand(newBrowseCmd(app))

	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newLogger writes to the file named by $WHATIDID_LOG. The TUI owns the
// terminal, so logging never touches stdout or stderr.
func newLogger() zerolog.Logger {
	path := strings.TrimSpace(os.Getenv("WHATIDID_LOG"))
	if path == "" {
		return zerolog.Nop()
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop()
	}
	return zerolog.New(f).With().Timestamp().Logger()
}

func (app *App) openStore(ctx context.Context) (*store.Store, error) {
	path := app.DBPath
	if path == "" {
		p, err := store.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return store.Open(ctx, path)
}

// identity resolves who is writing: flags first, then KB_USER/USER and
// KB_AGENT, falling back to "unknown".
func (app *App) identity() model.Identity {
	user := app.User
	if user == "" {
		user = envOr("KB_USER", envOr("USER", "unknown"))
	}
	agent := app.Agent
	if agent == "" {
		agent = envOr("KB_AGENT", "unknown")
	}
	return model.Identity{User: user, Agent: agent}
}

func runBrowse(app *App) error {
	st, err := app.openStore(context.Background())
	if err != nil {
		return err
	}
	defer st.Close()
	return tui.Run(st, app.log)
}

func newBrowseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Open the interactive browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(app)
		},
	}
}
