// Package auth handles passwords, session tokens and role checks.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Joseda-hg/lazyplan/internal/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("insufficient role")
)

// DefaultPassword is assigned to users created without one.
const DefaultPassword = "password123"

const bcryptCost = 10

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Viewer is the authenticated user on whose behalf a request runs.
type Viewer struct {
	UserID string     `json:"userId"`
	Email  string     `json:"email"`
	Role   model.Role `json:"role"`
}

func ViewerOf(user model.User) Viewer {
	return Viewer{UserID: user.ID, Email: user.Email, Role: user.Role}
}

func (v Viewer) CanManage() bool {
	return v.Role.Rank() >= model.RoleManager.Rank()
}

func (v Viewer) CanAdminister() bool {
	return v.Role.Rank() >= model.RoleAdmin.Rank()
}

// Require fails with ErrForbidden unless the viewer holds at least role.
func (v Viewer) Require(role model.Role) error {
	if v.UserID == "" {
		return ErrUnauthenticated
	}
	if v.Role.Rank() < role.Rank() {
		return fmt.Errorf("%w: %s required", ErrForbidden, role)
	}
	return nil
}

type claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (i *Issuer) Issue(user model.User) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: user.Email,
		Role:  string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (i *Issuer) Verify(raw string) (Viewer, error) {
	parsed := &claims{}
	_, err := jwt.ParseWithClaims(raw, parsed, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return Viewer{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if parsed.Subject == "" {
		return Viewer{}, fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}
	return Viewer{UserID: parsed.Subject, Email: parsed.Email, Role: model.Role(parsed.Role)}, nil
}

type UserStore interface {
	CreateUser(ctx context.Context, user model.User) (model.User, error)
	GetUser(ctx context.Context, userID string) (model.User, error)
	UpdateUser(ctx context.Context, user model.User) (model.User, error)
	UserByEmail(ctx context.Context, email string) (model.User, error)
}

type Service struct {
	Users  UserStore
	Issuer *Issuer
	Now    func() time.Time
}

func NewService(users UserStore, issuer *Issuer) *Service {
	return &Service{Users: users, Issuer: issuer, Now: time.Now}
}

// Login checks the credentials and returns a signed token for the user.
func (s *Service) Login(ctx context.Context, email, password string) (string, model.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", model.User{}, &model.ValidationError{Field: "email", Message: "email and password are required"}
	}
	user, err := s.Users.UserByEmail(ctx, email)
	if err != nil {
		// Unknown users and wrong passwords look the same to the caller.
		return "", model.User{}, ErrInvalidCredentials
	}
	if !CheckPassword(user.PasswordHash, password) {
		return "", model.User{}, ErrInvalidCredentials
	}
	token, err := s.Issuer.Issue(user)
	if err != nil {
		return "", model.User{}, err
	}
	return token, user, nil
}

// Authenticate resolves a token to the viewer, reloading the user so that
// role changes and deletions take effect immediately.
func (s *Service) Authenticate(ctx context.Context, token string) (Viewer, error) {
	claimed, err := s.Issuer.Verify(token)
	if err != nil {
		return Viewer{}, err
	}
	user, err := s.Users.GetUser(ctx, claimed.UserID)
	if err != nil {
		return Viewer{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return ViewerOf(user), nil
}

func (s *Service) CreateUser(ctx context.Context, input model.UserInput) (model.User, error) {
	user, err := model.NewUser(input, s.Now())
	if err != nil {
		return model.User{}, err
	}
	password := strings.TrimSpace(input.Password)
	if password == "" {
		password = DefaultPassword
	}
	if user.PasswordHash, err = HashPassword(password); err != nil {
		return model.User{}, err
	}
	return s.Users.CreateUser(ctx, user)
}

// UpdateUser applies the patch, rehashing the password when one is given.
func (s *Service) UpdateUser(ctx context.Context, userID string, patch model.UserPatch) (model.User, error) {
	user, err := s.Users.GetUser(ctx, userID)
	if err != nil {
		return model.User{}, err
	}
	user, err = patch.Apply(user, s.Now())
	if err != nil {
		return model.User{}, err
	}
	if password, ok := patch.NewPassword(); ok {
		if user.PasswordHash, err = HashPassword(password); err != nil {
			return model.User{}, err
		}
	}
	return s.Users.UpdateUser(ctx, user)
}
