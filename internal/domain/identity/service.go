package identity

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/platform/auth"
)

type Service struct {
	users  UserRepository
	tokens *auth.TokenIssuer
	cost   int
	now    func() time.Time
}

func NewService(users UserRepository, tokens *auth.TokenIssuer) *Service {
	return &Service{users: users, tokens: tokens, cost: bcrypt.DefaultCost, now: time.Now}
}

// WithHashCost lowers the bcrypt cost, used by seeding and tests.
func (s *Service) WithHashCost(cost int) *Service {
	s.cost = cost
	return s
}

var validRoles = func() map[string]bool {
	m := make(map[string]bool, len(auth.AllRoles))
	for _, r := range auth.AllRoles {
		m[r] = true
	}
	return m
}()

// Register creates a user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, u *User, password string) error {
	if u.Email == "" || u.Name == "" {
		return apperr.Validation("identity.register", "email", "email and name are required")
	}
	if !validRoles[u.Role] {
		return apperr.Validation("identity.register", "role", fmt.Sprintf("invalid role: %s", u.Role))
	}
	if len(password) < 8 {
		return apperr.Validation("identity.register", "password", "password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.PasswordHash = hash
	u.TwoFactorEnabled = u.OTPCode != ""
	u.CreatedAt, u.UpdatedAt = now, now
	return s.users.Create(ctx, u)
}

// Login checks the password and, for two-factor accounts, the one-time
// code, then issues a bearer token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	const op = "identity.login"
	invalid := &apperr.Error{Kind: apperr.KindAuthentication, Op: op, Code: apperr.CodeInvalidCredentials, Message: "invalid email or password"}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(req.Password)) != nil {
		return nil, invalid
	}
	if u.TwoFactorEnabled {
		if req.OTP == "" {
			return nil, &apperr.Error{Kind: apperr.KindTwoFactorRequired, Op: op, Code: apperr.CodeTwoFactorRequired, Message: "two-factor code required"}
		}
		if subtle.ConstantTimeCompare([]byte(req.OTP), []byte(u.OTPCode)) != 1 {
			return nil, &apperr.Error{Kind: apperr.KindAuthentication, Op: op, Code: apperr.CodeInvalidCredentials, Message: "invalid two-factor code"}
		}
	}

	token, exp, err := s.tokens.Issue(auth.Subject{
		UserID:     u.ID.String(),
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		HospitalID: u.HospitalRef(),
		RegionID:   u.RegionRef(),
	})
	if err != nil {
		return nil, err
	}
	return &LoginResponse{Token: token, ExpiresAt: exp, User: *u}, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, role string) ([]*User, error) {
	return s.users.List(ctx, role)
}
