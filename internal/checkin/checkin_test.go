package checkin

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ehr/hms/internal/apperr"
)

var (
	testKey    = []byte("0123456789abcdef0123456789abcdef")
	testHospID = uuid.New()
)

func TestSigner_SignVerify(t *testing.T) {
	s := NewSigner(testKey, 10*time.Minute)
	apptID := uuid.New()
	tok, exp, err := s.Sign(apptID, testHospID)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !exp.After(time.Now()) {
		t.Errorf("expiry should be in the future: %v", exp)
	}

	claims, err := s.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.AppointmentID != apptID.String() || claims.HospitalID != testHospID.String() || claims.Type != TokenType {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestSigner_Verify_WrongKey(t *testing.T) {
	tok, _, _ := NewSigner(testKey, time.Minute).Sign(uuid.New(), testHospID)
	other := NewSigner([]byte("ffffffffffffffffffffffffffffffff"), time.Minute)
	if _, err := other.Verify(tok); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error for bad signature, got %v", err)
	}
}

func TestSigner_Verify_Expired(t *testing.T) {
	s := NewSigner(testKey, time.Minute)
	s.now = func() time.Time { return time.Now().Add(-time.Hour) }
	tok, _, _ := s.Sign(uuid.New(), testHospID)

	_, err := NewSigner(testKey, time.Minute).Verify(tok)
	if !errors.Is(err, ErrExpired) {
		t.Errorf("expected ErrExpired, got %v", err)
	}
}

func TestDecode(t *testing.T) {
	apptID := uuid.New()
	tok, _, _ := NewSigner(testKey, time.Minute).Sign(apptID, testHospID)

	claims, err := Decode("  "+tok+"\n", time.Now())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if claims.AppointmentID != apptID.String() {
		t.Errorf("expected %s, got %s", apptID, claims.AppointmentID)
	}

	if _, err := Decode(tok, time.Now().Add(2*time.Minute)); !errors.Is(err, ErrExpired) {
		t.Errorf("expected expired at a later time, got %v", err)
	}
}

func TestDecode_Rejects(t *testing.T) {
	wrongType := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		Type:             "login",
		AppointmentID:    uuid.NewString(),
	})
	wrongTypeTok, _ := wrongType.SignedString(testKey)

	badID := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		Type:             TokenType,
		AppointmentID:    "42",
	})
	badIDTok, _ := badID.SignedString(testKey)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"not a jwt", "https://example.com/appt/1", ErrMalformed},
		{"garbage segments", "a.b.c", ErrMalformed},
		{"wrong type", wrongTypeTok, ErrWrongType},
		{"bad appointment id", badIDTok, ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.token, time.Now())
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if apperr.FieldOf(err) != "token" {
				t.Errorf("expected field token, got %q", apperr.FieldOf(err))
			}
		})
	}
}
