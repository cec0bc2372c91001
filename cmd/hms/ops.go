package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/hms/internal/alerts"
	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/platform/db"
	"github.com/ehr/hms/internal/render"
	"github.com/ehr/hms/internal/sandbox"
)

func alertsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "alerts", Short: "Real-time bedside alerts"}

	var transport string
	watch := &cobra.Command{
		Use:   "watch",
		Short: "Stream alerts until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.sessions.Token() == "" {
				err := apperr.New(apperr.KindAuthentication, "alerts.watch", "not signed in")
				render.Error(a.out, err)
				return reported{err}
			}
			if transport == "" {
				transport = a.cfg.AlertsTransport
			}
			w := alerts.NewWatcher(alerts.Config{
				BaseURL:   a.cfg.APIBaseURL,
				Token:     a.sessions.Token,
				Transport: transport,
				Logger:    a.logger,
			})
			fmt.Fprintf(a.out, "Watching alerts over %s. Press Ctrl-C to stop.\n", transport)
			err := w.Run(cmd.Context(), func(al alerts.Alert) { render.Alert(a.out, al) })
			if err != nil {
				render.Error(a.out, err)
				return reported{err}
			}
			return nil
		},
	}
	watch.Flags().StringVar(&transport, "transport", "", "sse or ws (default from ALERTS_TRANSPORT)")

	var limit int
	recent := &cobra.Command{
		Use:   "recent",
		Short: "Show the most recent alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := alerts.NewWatcher(alerts.Config{BaseURL: a.cfg.APIBaseURL, Token: a.sessions.Token, Logger: a.logger})
			list, err := w.Recent(cmd.Context(), limit)
			if err != nil {
				render.Error(a.out, err)
				return reported{err}
			}
			if len(list) == 0 {
				fmt.Fprintln(a.out, "No records found.")
			}
			for _, al := range list {
				render.Alert(a.out, al)
			}
			return nil
		},
	}
	recent.Flags().IntVar(&limit, "limit", 20, "number of alerts")

	cmd.AddCommand(watch, recent)
	return cmd
}

// sandboxLogger logs JSON to stdout, or readable lines in development.
func sandboxLogger(dev bool) zerolog.Logger {
	if dev {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func openPool(ctx context.Context, a *app) (*pgxpool.Pool, error) {
	if a.cfg.DatabaseURL == "" {
		return nil, nil
	}
	return db.NewPool(ctx, db.PoolOptions{URL: a.cfg.DatabaseURL, MaxConns: a.cfg.DBMaxConns, MinConns: a.cfg.DBMinConns})
}

func sandboxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "sandbox", Short: "Run the bundled hospital backend"}

	var patients int
	var alertEvery time.Duration
	var noSeed bool
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API with synthetic data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if err := cfg.ValidateSandbox(); err != nil {
				return err
			}
			logger := sandboxLogger(cfg.IsDev())
			ctx := cmd.Context()

			pool, err := openPool(ctx, a)
			if err != nil {
				logger.Error().Err(err).Msg("failed to connect to database")
				return err
			}
			if pool != nil {
				defer pool.Close()
				if _, err := db.NewMigrator(pool, db.Migrations()).Up(ctx); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				logger.Info().Msg("connected to database")
			}

			opts := sandbox.Options{Config: cfg, Logger: logger, Pool: pool}
			if !noSeed {
				seed := sandbox.DefaultSeedConfig()
				seed.Seed = cfg.SandboxSeed
				if patients > 0 {
					seed.PatientsPerHospital = patients
				}
				opts.Seed = &seed
			}
			srv, err := sandbox.New(ctx, opts)
			if err != nil {
				return err
			}
			if srv.Seed != nil {
				logger.Info().
					Int("hospitals", srv.Seed.Hospitals).
					Int("patients", srv.Seed.Patients).
					Int("accounts", len(srv.Seed.Accounts)).
					Dur("took", srv.Seed.Duration).
					Msg("sandbox seeded")
			}

			go srv.SimulateAlerts(ctx, alertEvery, cfg.SandboxSeed)
			errc := make(chan error, 1)
			go func() { errc <- srv.Start(":" + cfg.Port) }()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			logger.Info().Msg("shutting down sandbox")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("shutdown: %w", err)
			}
			logger.Info().Msg("sandbox stopped")
			return nil
		},
	}
	serve.Flags().IntVar(&patients, "patients", 0, "patients per hospital (default 12)")
	serve.Flags().DurationVar(&alertEvery, "alert-every", 20*time.Second, "interval between simulated alerts, 0 disables")
	serve.Flags().BoolVar(&noSeed, "empty", false, "start without synthetic data")

	cmd.AddCommand(serve)
	return cmd
}

func migrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "migrate", Short: "Manage the sandbox Postgres schema"}

	withPool := func(cmd *cobra.Command, fn func(ctx context.Context, m *db.Migrator) error) error {
		if a.cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is not set")
		}
		ctx := cmd.Context()
		pool, err := openPool(ctx, a)
		if err != nil {
			return err
		}
		defer pool.Close()
		return fn(ctx, db.NewMigrator(pool, db.Migrations()))
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd, func(ctx context.Context, m *db.Migrator) error {
				count, err := m.Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(a.out, "Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd, func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				fmt.Fprintf(a.out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
				for _, s := range statuses {
					st, at := "pending", ""
					if s.Applied {
						st = "applied"
						if s.AppliedAt != nil {
							at = s.AppliedAt.Format("2006-01-02 15:04:05")
						}
					}
					fmt.Fprintf(a.out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, st, at)
				}
				return nil
			})
		},
	}

	cmd.AddCommand(up, status)
	return cmd
}
