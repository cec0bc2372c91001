package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Roles recognised by the backend and the console.
const (
	RoleNurse         = "nurse"
	RoleDoctor        = "doctor"
	RoleLabTechnician = "lab_technician"
	RoleReceptionist  = "receptionist"
	RoleManager       = "manager"
	RoleRegionalAdmin = "regional_admin"
	RoleSuperAdmin    = "super_admin"
)

// AllRoles lists every role in display order.
var AllRoles = []string{
	RoleNurse, RoleDoctor, RoleLabTechnician, RoleReceptionist,
	RoleManager, RoleRegionalAdmin, RoleSuperAdmin,
}

// Claims is the access token payload. Subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	HospitalID string `json:"hospital_id,omitempty"`
	RegionID   string `json:"region_id,omitempty"`
}

// Subject identifies the holder of a token about to be issued.
type Subject struct {
	UserID     string
	Email      string
	Name       string
	Role       string
	HospitalID string
	RegionID   string
}

// TokenIssuer signs and verifies HS256 access tokens for the sandbox backend.
type TokenIssuer struct {
	key    []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewTokenIssuer creates an issuer. ttl bounds every token it signs.
func NewTokenIssuer(key []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{key: key, ttl: ttl, issuer: "hms-sandbox", now: time.Now}
}

// Issue signs a token for s and returns it with its expiry.
func (i *TokenIssuer) Issue(s Subject) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email:      s.Email,
		Name:       s.Name,
		Role:       s.Role,
		HospitalID: s.HospitalID,
		RegionID:   s.RegionID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify checks signature, issuer and expiry.
func (i *TokenIssuer) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return i.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("verify token: invalid")
	}
	if err := claims.checkIDs(); err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	return claims, nil
}

// checkIDs rejects claims whose user, hospital or region reference is set
// but is not a uuid.
func (c *Claims) checkIDs() error {
	for _, ref := range []struct{ name, v string }{
		{"sub", c.Subject}, {"hospital_id", c.HospitalID}, {"region_id", c.RegionID},
	} {
		if ref.v == "" {
			continue
		}
		if _, err := uuid.Parse(ref.v); err != nil {
			return fmt.Errorf("claim %s is not a uuid", ref.name)
		}
	}
	return nil
}

// ParseUnverified decodes token claims without checking the signature. The
// console uses it to read identity and expiry from a token it cannot verify.
func ParseUnverified(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return claims, nil
}
