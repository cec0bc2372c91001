// Package checkin defines the appointment check-in QR payload. The backend
// signs it; the console only checks its shape before forwarding it.
package checkin

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ehr/hms/internal/apperr"
)

// TokenType is the typ claim of every check-in token.
const TokenType = "appointment_checkin"

var (
	ErrMalformed = errors.New("qr code is not a check-in code")
	ErrWrongType = errors.New("qr code is not an appointment check-in code")
	ErrExpired   = errors.New("qr code has expired")
)

// Claims is the payload encoded in the QR code.
type Claims struct {
	jwt.RegisteredClaims
	Type          string `json:"typ"`
	AppointmentID string `json:"appointment_id"`
	HospitalID    string `json:"hospital_id"`
}

// Signer issues and verifies check-in tokens on the backend.
type Signer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewSigner(key []byte, ttl time.Duration) *Signer {
	return &Signer{key: key, ttl: ttl, now: time.Now}
}

// Sign returns a token for the appointment valid for the signer's ttl.
func (s *Signer) Sign(appointmentID, hospitalID uuid.UUID) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Type:          TokenType,
		AppointmentID: appointmentID.String(),
		HospitalID:    hospitalID.String(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign check-in token: %w", err)
	}
	return tok, exp, nil
}

// Verify checks the signature and every claim.
func (s *Signer) Verify(token string) (*Claims, error) {
	const op = "checkin.verify"
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(token), claims, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, &apperr.Error{Kind: apperr.KindValidation, Op: op, Field: "token", Message: ErrExpired.Error(), Err: ErrExpired}
	}
	if err != nil {
		return nil, &apperr.Error{Kind: apperr.KindValidation, Op: op, Field: "token", Message: "invalid check-in code", Err: err}
	}
	if err := checkClaims(claims); err != nil {
		return nil, &apperr.Error{Kind: apperr.KindValidation, Op: op, Field: "token", Message: err.Error(), Err: err}
	}
	return claims, nil
}

// Decode validates a scanned payload without the signing key: it must be a
// check-in token for a well-formed appointment id that has not expired at
// now.
func Decode(token string, now time.Time) (*Claims, error) {
	const op = "checkin.decode"
	token = strings.TrimSpace(token)
	if strings.Count(token, ".") != 2 {
		return nil, &apperr.Error{Kind: apperr.KindValidation, Op: op, Field: "token", Message: ErrMalformed.Error(), Err: ErrMalformed}
	}
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, &apperr.Error{Kind: apperr.KindValidation, Op: op, Field: "token", Message: ErrMalformed.Error(), Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	if err := checkClaims(claims); err != nil {
		return nil, &apperr.Error{Kind: apperr.KindValidation, Op: op, Field: "token", Message: err.Error(), Err: err}
	}
	if claims.ExpiresAt == nil || !now.Before(claims.ExpiresAt.Time) {
		return nil, &apperr.Error{Kind: apperr.KindValidation, Op: op, Field: "token", Message: ErrExpired.Error(), Err: ErrExpired}
	}
	return claims, nil
}

func checkClaims(c *Claims) error {
	if c.Type != TokenType {
		return ErrWrongType
	}
	if _, err := uuid.Parse(c.AppointmentID); err != nil {
		return fmt.Errorf("%w: bad appointment id", ErrMalformed)
	}
	return nil
}
