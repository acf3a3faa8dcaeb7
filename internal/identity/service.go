package identity

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 72
)

var errInvalidCredentials = apperr.Unauthorized("invalid credentials")

type Service struct {
	repo   Repository
	tokens *Tokens
	cost   int
	now    func() time.Time
}

func NewService(repo Repository, tokens *Tokens) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		cost:   bcrypt.DefaultCost,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" {
		return User{}, apperr.Validation("name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return User{}, apperr.Validation("a valid email is required")
	}
	if err := checkPassword(in.Password); err != nil {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return User{}, err
	}

	u := User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		Role:         RoleUser,
		PasswordHash: string(hash),
		MemberSince:  s.now(),
	}
	if err := s.repo.Create(ctx, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Login verifies the credentials and issues an access token. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return LoginResult{}, errInvalidCredentials
		}
		return LoginResult{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, errInvalidCredentials
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, User: u}, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (User, error) {
	id, ok := db.CanonicalID(userID)
	if !ok {
		return User{}, apperr.NotFound("user not found")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, p ProfileUpdate) (User, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return User{}, apperr.Validation("name is required")
	}
	p.Phone = strings.TrimSpace(p.Phone)
	p.Gender = strings.TrimSpace(p.Gender)
	if p.DateOfBirth != nil && p.DateOfBirth.After(s.now()) {
		return User{}, apperr.Validation("date of birth is in the future")
	}

	if err := s.repo.UpdateProfile(ctx, userID, p); err != nil {
		return User{}, err
	}
	return s.repo.GetByID(ctx, userID)
}

func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	if err := checkPassword(next); err != nil {
		return err
	}
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return apperr.Unauthorized("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, userID, string(hash), s.now())
}

func (s *Service) ListCustomers(ctx context.Context) ([]User, error) {
	return s.repo.ListCustomers(ctx)
}

func checkPassword(pw string) error {
	if len(pw) < minPasswordLen {
		return apperr.Validation("password must be at least %d characters", minPasswordLen)
	}
	if len(pw) > maxPasswordLen {
		return apperr.Validation("password must be at most %d bytes", maxPasswordLen)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
