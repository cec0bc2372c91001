// Package sandbox assembles the hospital REST backend the console talks to:
// every domain area behind one echo server, seeded with synthetic data.
package sandbox

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/ehr/hms/internal/config"
	"github.com/ehr/hms/internal/domain/analytics"
	"github.com/ehr/hms/internal/domain/diagnostics"
	"github.com/ehr/hms/internal/domain/identity"
	"github.com/ehr/hms/internal/domain/medication"
	"github.com/ehr/hms/internal/domain/nursing"
	"github.com/ehr/hms/internal/domain/organization"
	"github.com/ehr/hms/internal/domain/patient"
	"github.com/ehr/hms/internal/domain/scheduling"
	"github.com/ehr/hms/internal/domain/staffing"
	"github.com/ehr/hms/internal/platform/auth"
	"github.com/ehr/hms/internal/platform/db"
	"github.com/ehr/hms/internal/platform/middleware"
	"github.com/ehr/hms/internal/platform/realtime"
	"github.com/ehr/hms/internal/platform/validation"
)

const version = "0.1.0"

// Options configure a sandbox server.
type Options struct {
	Config *config.Config
	Logger zerolog.Logger
	// Pool, when set, backs patients and appointments with Postgres.
	Pool *pgxpool.Pool
	// Seed, when set, fills the stores before the server is returned.
	Seed *SeedConfig
	// HashCost overrides the bcrypt cost of seeded passwords.
	HashCost int
	// Audit receives one entry per PHI request in addition to the log.
	Audit []middleware.AuditRecorder
}

type Server struct {
	Echo     *echo.Echo
	Hub      *realtime.Hub
	Services *Services
	Seed     *SeedResult

	logger zerolog.Logger
	seeded map[string][]string // hospital id -> patient ids
}

// New builds the server and, when asked, seeds it.
func New(ctx context.Context, opts Options) (*Server, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("sandbox: config is required")
	}
	hub := realtime.NewHub(opts.Logger)
	s := &Server{
		Hub:      hub,
		Services: newServices(cfg, opts.Pool, hub, opts.HashCost),
		logger:   opts.Logger,
		seeded:   map[string][]string{},
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = ErrorHandler(opts.Logger)

	e.Use(middleware.Recovery(opts.Logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(opts.Logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "Last-Event-ID"},
	}))
	e.Use(auth.Middleware(s.Services.Tokens, auth.AuthSkipper))
	e.Use(middleware.Audit(opts.Logger, opts.Audit...))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	var pinger db.Pinger
	if opts.Pool != nil {
		pinger = opts.Pool
	}
	e.GET("/health/db", db.HealthHandler(pinger))

	rl := middleware.RateLimitConfig{RequestsPerSecond: cfg.RateLimitRPS, BurstSize: cfg.RateLimitBurst}
	if rl.RequestsPerSecond <= 0 {
		rl = middleware.DefaultRateLimitConfig()
	}
	api := e.Group("/api/v1", middleware.RateLimit(rl))

	svc := s.Services
	identity.NewHandler(svc.Identity).RegisterRoutes(api)
	organization.NewHandler(svc.Organization).RegisterRoutes(api)
	patient.NewHandler(svc.Patients).RegisterRoutes(api)
	scheduling.NewHandler(svc.Appointments).RegisterRoutes(api)
	medication.NewHandler(svc.Prescriptions).RegisterRoutes(api)
	diagnostics.NewHandler(svc.LabTests).RegisterRoutes(api)
	nursing.NewHandler(svc.Vitals, svc.Patients).RegisterRoutes(api)
	staffing.NewHandler(svc.Staffing).RegisterRoutes(api)
	analytics.NewHandler(svc.Analytics).RegisterRoutes(api)
	realtime.NewHandler(hub).RegisterRoutes(api)
	api.GET("/sandbox/summary", s.summary, auth.RequireRole(auth.RoleSuperAdmin))

	s.Echo = e

	if opts.Seed != nil {
		res, err := s.seed(ctx, *opts.Seed)
		if err != nil {
			return nil, fmt.Errorf("seed sandbox: %w", err)
		}
		s.Seed = res
	}
	return s, nil
}

// Handler exposes the server for httptest and embedding.
func (s *Server) Handler() http.Handler { return s.Echo }

// Start serves on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("starting sandbox")
	if err := s.Echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

func (s *Server) summary(c echo.Context) error {
	if s.Seed == nil {
		return c.JSON(http.StatusOK, &SeedResult{Accounts: []Account{}})
	}
	return c.JSON(http.StatusOK, s.Seed)
}

// SimulateAlerts publishes a synthetic bedside alert for a seeded patient
// every interval until ctx is done.
func (s *Server) SimulateAlerts(ctx context.Context, interval time.Duration, seed int64) {
	hospitals := make([]string, 0, len(s.seeded))
	for id, patients := range s.seeded {
		if len(patients) > 0 {
			hospitals = append(hospitals, id)
		}
	}
	if len(hospitals) == 0 || interval <= 0 {
		return
	}
	sort.Strings(hospitals)
	g := newGenerator(seed)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hid := hospitals[g.intn(len(hospitals))]
			pid := g.pick(s.seeded[hid])
			a := simulatedAlerts[g.intn(len(simulatedAlerts))]
			ev := realtime.Event{
				Type:       a.kind,
				Severity:   a.severity,
				Topic:      realtime.HospitalTopic(hid),
				PatientID:  pid,
				HospitalID: hid,
				Message:    a.message,
			}
			if err := s.Hub.Publish(ctx, ev); err != nil {
				s.logger.Warn().Err(err).Msg("publish simulated alert")
			}
		}
	}
}

var simulatedAlerts = []struct{ kind, severity, message string }{
	{"abnormal_vitals", "critical", "SpO2 dropped to 86%"},
	{"abnormal_vitals", "warning", "Heart rate 128 bpm"},
	{"fall_risk", "warning", "Bed exit detected"},
	{"medication_due", "info", "Scheduled dose due in 15 minutes"},
}
