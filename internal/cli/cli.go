// Package cli is the afisha command-line front end. Every command shares one
// *session.Session that is hydrated before the command runs.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/afisha/events/internal/client"
	"github.com/afisha/events/internal/config"
	"github.com/afisha/events/internal/session"
	"github.com/afisha/events/internal/store"
)

// App holds what the commands need. It is built in the root command's
// PersistentPreRunE so tests can swap the configuration.
type App struct {
	cfg     *config.Client
	out     io.Writer
	log     *slog.Logger
	verbose bool

	backend *client.AuthClient
	bypass  *client.AdminBypass // nil when the bypass is disabled
	auth    client.Authenticator
	events  *client.EventsClient
	session *session.Session
	rdb     *redis.Client
}

// NewRootCommand builds the command tree. out receives normal output,
// errOut receives log lines.
func NewRootCommand(cfg *config.Client, out, errOut io.Writer) *cobra.Command {
	app := &App{cfg: cfg, out: out}

	root := &cobra.Command{
		Use:           "afisha",
		Short:         "Browse and manage city events in Копейск and Челябинск",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.open(cmd.Context(), errOut)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return app.close()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "log requests and session changes")
	root.PersistentFlags().StringVar(&cfg.APIURL, "api", cfg.APIURL, "backend base URL")

	root.AddCommand(
		app.registerCmd(),
		app.loginCmd(),
		app.logoutCmd(),
		app.whoamiCmd(),
		app.eventsCmd(),
	)
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, cfg *config.Client, args []string, out, errOut io.Writer) int {
	root := NewRootCommand(cfg, out, errOut)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	return 0
}

func (a *App) open(ctx context.Context, errOut io.Writer) error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.log = slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	httpClient := &http.Client{Timeout: a.cfg.HTTPTimeout}
	a.backend = client.NewAuthClient(a.cfg.APIURL, httpClient)
	a.events = client.NewEventsClient(a.cfg.APIURL, httpClient)
	a.auth = a.backend
	if a.cfg.AdminBypass {
		a.bypass = client.NewAdminBypass(a.backend, client.AdminCredentials{
			Email:    a.cfg.AdminEmail,
			Password: a.cfg.AdminPassword,
			Token:    a.cfg.AdminToken,
		})
		a.auth = a.bypass
	}

	storage, err := a.storage(ctx)
	if err != nil {
		return err
	}
	a.session = session.New(storage, a.auth, a.log)
	if err := a.session.Hydrate(ctx); err != nil {
		return err
	}
	a.log.Debug("session hydrated", "state", a.session.State())
	return nil
}

func (a *App) storage(ctx context.Context) (session.Storage, error) {
	if a.cfg.SessionRedis != "" {
		rdb, err := store.NewRedisClient(ctx, a.cfg.SessionRedis, "")
		if err != nil {
			return nil, err
		}
		a.rdb = rdb
		return session.NewRedisStorage(rdb, ""), nil
	}
	path := a.cfg.SessionFile
	if path == "" {
		p, err := session.DefaultFilePath()
		if err != nil {
			return nil, fmt.Errorf("locate session file: %w", err)
		}
		path = p
	}
	a.log.Debug("using session file", "path", path)
	return session.NewFileStorage(path), nil
}

func (a *App) close() error {
	if a.rdb != nil {
		return a.rdb.Close()
	}
	return nil
}

var (
	errSignInAttend = errors.New("sign in to mark attendance")
	errSignInLike   = errors.New("sign in to like events")
	errNotAdmin     = errors.New("you do not have permission to create events")
)
