package main

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/config"
	"github.com/ehr/hms/internal/sandbox"
)

// console runs hms commands against a seeded sandbox, sharing one session
// file between calls.
func console(t *testing.T) func(args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	seed := sandbox.DefaultSeedConfig()
	seed.PatientsPerHospital = 7
	s, err := sandbox.New(context.Background(), sandbox.Options{
		Config: &config.Config{
			Env: "development", TokenTTL: time.Hour, QRTTL: time.Hour,
			CORSOrigins: []string{"*"}, RateLimitRPS: 1000, RateLimitBurst: 1000,
		},
		Logger:   zerolog.Nop(),
		Seed:     &seed,
		HashCost: bcrypt.MinCost,
	})
	if err != nil {
		t.Fatalf("sandbox: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	t.Setenv("API_BASE_URL", ts.URL+"/api/v1")
	t.Setenv("SESSION_FILE", filepath.Join(t.TempDir(), "session.json"))
	t.Setenv("LOG_LEVEL", "error")

	return func(args ...string) (string, error) {
		var out bytes.Buffer
		root := newRootCmd(&out, io.Discard)
		root.SetArgs(args)
		root.SetIn(strings.NewReader(""))
		err := root.ExecuteContext(context.Background())
		return out.String(), err
	}
}

func TestConsole_ReceptionFlow(t *testing.T) {
	run := console(t)

	out, err := run("login", "--email", "reception.cgh@hms.local", "--password", "password123")
	if err != nil || !strings.Contains(out, "(receptionist)") {
		t.Fatalf("login: %v\n%s", err, out)
	}
	if out, _ := run("whoami"); !strings.Contains(out, "receptionist") {
		t.Errorf("whoami:\n%s", out)
	}
	if out, err := run("patients", "list"); err != nil || !strings.Contains(out, "Patients (7)") {
		t.Errorf("patients list: %v\n%s", err, out)
	}

	out, err = run("patients", "add", "--first", "Ada", "--last", "Lovelace", "--dob", "1985-12-10", "--gender", "female")
	if err != nil || !strings.Contains(out, "Patient created successfully! MRN: MRN-") {
		t.Fatalf("patients add: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Patients (8)") {
		t.Errorf("list should be reloaded after create:\n%s", out)
	}

	out, err = run("patients", "add", "--first", "", "--last", "X", "--dob", "1985-13-10", "--gender", "female")
	if !apperr.Is(err, apperr.KindValidation) || !strings.Contains(out, "first_name: ") || !strings.Contains(out, "date_of_birth: ") {
		t.Errorf("expected inline field errors, got %v\n%s", err, out)
	}
	if exitCode(err) != 2 {
		t.Errorf("validation exit code = %d", exitCode(err))
	}

	if out, err := run("appointments", "list"); err != nil || !strings.Contains(out, "By status: scheduled") {
		t.Errorf("appointments: %v\n%s", err, out)
	}

	if _, err := run("logout"); err != nil {
		t.Fatal(err)
	}
	out, err = run("patients", "list")
	if !apperr.Is(err, apperr.KindAuthentication) || !strings.Contains(out, "hms login") {
		t.Errorf("signed-out list: %v\n%s", err, out)
	}
}

func TestConsole_TwoFactor(t *testing.T) {
	run := console(t)
	out, err := run("login", "--email", "secure.doctor.cgh@hms.local", "--password", "password123")
	if !apperr.Is(err, apperr.KindTwoFactorRequired) || !strings.Contains(out, "--otp") {
		t.Fatalf("expected two-factor prompt, got %v\n%s", err, out)
	}
	out, err = run("login", "--email", "secure.doctor.cgh@hms.local", "--password", "password123", "--otp", "246810")
	if err != nil {
		t.Fatalf("login with code: %v\n%s", err, out)
	}
	if out, err := run("home"); err != nil || !strings.Contains(out, "Doctor dashboard") {
		t.Errorf("home: %v\n%s", err, out)
	}
}

func TestConsole_MissingRegion(t *testing.T) {
	run := console(t)
	// The super admin belongs to no region and no hospital.
	if _, err := run("login", "--email", "superadmin@hms.local", "--password", "password123"); err != nil {
		t.Fatal(err)
	}
	out, err := run("regional")
	if !apperr.Is(err, apperr.KindMissingContext) || !strings.Contains(out, "no region is associated") {
		t.Errorf("expected missing region, got %v\n%s", err, out)
	}
	if strings.Contains(out, "Loading") {
		t.Errorf("must not stay loading:\n%s", out)
	}
	if exitCode(err) != 6 {
		t.Errorf("missing context exit code = %d", exitCode(err))
	}
	if _, err := run("beds", "list"); !apperr.Is(err, apperr.KindMissingContext) {
		t.Errorf("expected missing hospital, got %v", err)
	}

	if _, err := run("login", "--email", "manager.cgh@hms.local", "--password", "password123"); err != nil {
		t.Fatal(err)
	}
	if out, err := run("beds", "list", "--ward", "all"); err != nil || !strings.Contains(out, "Occupied:") {
		t.Errorf("beds: %v\n%s", err, out)
	}
}

func TestConsole_Forbidden(t *testing.T) {
	run := console(t)
	if _, err := run("login", "--email", "nurse.cgh@hms.local", "--password", "password123"); err != nil {
		t.Fatal(err)
	}
	out, err := run("regions", "add-region", "--name", "East", "--code", "EST")
	if !apperr.Is(err, apperr.KindForbidden) || !strings.Contains(out, "Access denied") {
		t.Errorf("expected access denied, got %v\n%s", err, out)
	}
	if exitCode(err) != 4 {
		t.Errorf("forbidden exit code = %d", exitCode(err))
	}
}

func TestConsole_EphemeralSession(t *testing.T) {
	run := console(t)
	if _, err := run("--ephemeral", "login", "--email", "nurse.cgh@hms.local", "--password", "password123"); err != nil {
		t.Fatal(err)
	}
	if _, err := run("whoami"); !apperr.Is(err, apperr.KindAuthentication) {
		t.Errorf("ephemeral login must not persist, got %v", err)
	}
}

func TestParseResult(t *testing.T) {
	got, err := parseResult([]string{"glucose=5.4", "note = fasting"})
	if err != nil {
		t.Fatal(err)
	}
	if got["glucose"] != 5.4 || got["note"] != " fasting" {
		t.Errorf("unexpected result %v", got)
	}
	if _, err := parseResult([]string{"oops"}); apperr.FieldOf(err) != "result" {
		t.Errorf("expected result field error, got %v", err)
	}
	if got, _ := parseResult(nil); got != nil {
		t.Errorf("no pairs should give no result, got %v", got)
	}
}

func TestParseBP(t *testing.T) {
	sys, dia, err := parseBP("120 / 80")
	if err != nil || sys != 120 || dia != 80 {
		t.Errorf("got %d/%d %v", sys, dia, err)
	}
	if _, _, err := parseBP("120-80"); apperr.FieldOf(err) != "bp" {
		t.Errorf("expected bp error, got %v", err)
	}
}
