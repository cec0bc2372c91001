package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/platform/auth"
)

var (
	testKey      = []byte("0123456789abcdef0123456789abcdef")
	testHospital = uuid.MustParse("5f0c1a2b-3d4e-4f50-8a61-7b8c9d0e1f23")
)

func newTestService() *Service {
	return NewService(NewUserRepoMemory(), auth.NewTokenIssuer(testKey, time.Hour)).WithHashCost(bcrypt.MinCost)
}

func registerNurse(t *testing.T, svc *Service, otp string) *User {
	t.Helper()
	hid := testHospital
	u := &User{Email: "Nina@General.test", Name: "Nina", Role: auth.RoleNurse, HospitalID: &hid, OTPCode: otp}
	if err := svc.Register(context.Background(), u, "s3cret-pass"); err != nil {
		t.Fatalf("register: %v", err)
	}
	return u
}

func TestService_Register(t *testing.T) {
	svc := newTestService()
	u := registerNurse(t, svc, "")
	if u.ID == uuid.Nil || u.Email != "nina@general.test" {
		t.Errorf("unexpected user: %+v", u)
	}
	if len(u.PasswordHash) == 0 {
		t.Error("expected password hash")
	}

	dup := &User{Email: "nina@general.test", Name: "Other", Role: auth.RoleDoctor}
	err := svc.Register(context.Background(), dup, "another-pass")
	if !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("expected conflict for duplicate email, got %v", err)
	}
}

func TestService_Register_Validation(t *testing.T) {
	svc := newTestService()
	tests := []struct {
		name string
		user User
		pass string
	}{
		{"bad role", User{Email: "a@b.c", Name: "A", Role: "janitor"}, "long-enough"},
		{"short password", User{Email: "a@b.c", Name: "A", Role: auth.RoleDoctor}, "short"},
		{"missing email", User{Name: "A", Role: auth.RoleDoctor}, "long-enough"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := tt.user
			if err := svc.Register(context.Background(), &u, tt.pass); !apperr.Is(err, apperr.KindValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestService_Login(t *testing.T) {
	svc := newTestService()
	u := registerNurse(t, svc, "")

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "nina@general.test", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := svc.tokens.Verify(resp.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != u.ID.String() || claims.Role != auth.RoleNurse || claims.HospitalID != testHospital.String() || claims.RegionID != "" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestService_Login_WrongPassword(t *testing.T) {
	svc := newTestService()
	registerNurse(t, svc, "")

	_, err := svc.Login(context.Background(), LoginRequest{Email: "nina@general.test", Password: "wrong"})
	if !apperr.Is(err, apperr.KindAuthentication) || apperr.CodeOf(err) != apperr.CodeInvalidCredentials {
		t.Errorf("expected invalid credentials, got %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{Email: "nobody@x.test", Password: "whatever"})
	if apperr.CodeOf(err) != apperr.CodeInvalidCredentials {
		t.Errorf("unknown email should look like bad credentials, got %v", err)
	}
}

func TestService_Login_TwoFactor(t *testing.T) {
	svc := newTestService()
	registerNurse(t, svc, "246810")

	_, err := svc.Login(context.Background(), LoginRequest{Email: "nina@general.test", Password: "s3cret-pass"})
	if !apperr.Is(err, apperr.KindTwoFactorRequired) {
		t.Fatalf("expected two-factor required, got %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{Email: "nina@general.test", Password: "s3cret-pass", OTP: "000000"})
	if !apperr.Is(err, apperr.KindAuthentication) {
		t.Errorf("expected authentication error for wrong code, got %v", err)
	}

	if _, err := svc.Login(context.Background(), LoginRequest{Email: "nina@general.test", Password: "s3cret-pass", OTP: "246810"}); err != nil {
		t.Errorf("expected login with code to succeed: %v", err)
	}
}
