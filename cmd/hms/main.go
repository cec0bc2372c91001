package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/hms/internal/apiclient"
	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/config"
	"github.com/ehr/hms/internal/pages"
	"github.com/ehr/hms/internal/render"
	"github.com/ehr/hms/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		var shown reported
		if !errors.As(err, &shown) {
			fmt.Fprintln(os.Stderr, "Error:", apperr.UserMessage(err))
		}
		os.Exit(exitCode(err))
	}
}

// app is what every console command shares: one config, one logger, one
// API client and the session context handed to pages.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	client   *apiclient.Client
	sessions *session.Manager
	out      io.Writer

	// ephemeral keeps the session in memory for one command.
	ephemeral bool
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out}
	root := &cobra.Command{
		Use:           "hms",
		Short:         "Hospital management console",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(errOut)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.sessions != nil {
				return a.sessions.Close()
			}
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().BoolVar(&a.ephemeral, "ephemeral", false, "do not read or write the session file")

	root.AddCommand(
		loginCmd(a), logoutCmd(a), whoamiCmd(a), homeCmd(a),
		patientsCmd(a), appointmentsCmd(a), prescriptionsCmd(a), labsCmd(a), vitalsCmd(a),
		hospitalCmd(a), brandingCmd(a), regionalCmd(a), regionsCmd(a), bedsCmd(a),
		alertsCmd(a), sandboxCmd(a), migrateCmd(a),
	)
	return root
}

func (a *app) init(errOut io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: errOut}).With().Timestamp().Logger()

	a.client = apiclient.New(cfg.APIBaseURL, &http.Client{Timeout: cfg.RequestTimeout}, a.logger)
	var store session.Store = session.NewFileStore(cfg.SessionFile)
	if a.ephemeral {
		store = session.NewMemoryStore()
	}
	a.sessions = session.NewManager(store, a.client, a.logger)
	if _, err := a.sessions.Restore(); err != nil {
		a.logger.Warn().Err(err).Str("path", cfg.SessionFile).Msg("could not restore session")
	}
	return nil
}

// reported marks an error the renderer already showed on stdout.
type reported struct{ err error }

func (r reported) Error() string { return r.err.Error() }
func (r reported) Unwrap() error { return r.err }

func exitCode(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindConflict:
		return 2
	case apperr.KindAuthentication, apperr.KindTwoFactorRequired:
		return 3
	case apperr.KindForbidden:
		return 4
	case apperr.KindNetwork:
		return 5
	case apperr.KindMissingContext:
		return 6
	}
	return 1
}

// view loads p, runs intent when the load succeeded, and draws the page
// inside the rendering boundary. Errors shown by draw come back wrapped in
// reported.
func (a *app) view(ctx context.Context, p pages.Page, intent func(ctx context.Context) error, draw func(w io.Writer)) error {
	defer p.Close()
	err := p.Load(ctx)
	if err == nil && intent != nil {
		err = intent(ctx)
	}
	if rerr := render.Boundary(a.out, a.logger, func() error {
		draw(a.out)
		return nil
	}); rerr != nil {
		return rerr
	}
	if err != nil {
		return reported{err}
	}
	return nil
}
