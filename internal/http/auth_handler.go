package httpapi

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/identity"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/middleware"
)

type IdentityService interface {
	Register(ctx context.Context, in identity.RegisterInput) (identity.User, error)
	Login(ctx context.Context, email, password string) (identity.LoginResult, error)
	Profile(ctx context.Context, userID string) (identity.User, error)
	UpdateProfile(ctx context.Context, userID string, p identity.ProfileUpdate) (identity.User, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
	ListCustomers(ctx context.Context) ([]identity.User, error)
}

type AuthHandler struct {
	base
	users IdentityService
}

func NewAuthHandler(users IdentityService, logger *log.Logger, timeout time.Duration) *AuthHandler {
	return &AuthHandler{base: newBase(logger, timeout), users: users}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Phone    string `json:"phone" validate:"max=32"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()

	u, err := h.users.Register(ctx, identity.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"userId": u.ID})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()

	res, err := h.users.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	u, err := h.users.Profile(ctx, middleware.GetUserID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, u)
}

type profileRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Phone       string `json:"phone" validate:"max=32"`
	DateOfBirth string `json:"dateOfBirth"`
	Gender      string `json:"gender" validate:"max=32"`
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	update := identity.ProfileUpdate{Name: req.Name, Phone: req.Phone, Gender: req.Gender}
	if dob := strings.TrimSpace(req.DateOfBirth); dob != "" {
		t, err := time.Parse(time.DateOnly, dob)
		if err != nil {
			h.fail(w, r, apperr.Validation("dateOfBirth must be YYYY-MM-DD"))
			return
		}
		update.DateOfBirth = &t
	}

	ctx, cancel := h.ctx(r)
	defer cancel()

	u, err := h.users.UpdateProfile(ctx, middleware.GetUserID(r.Context()), update)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, u)
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	ctx, cancel := h.ctx(r)
	defer cancel()

	if err := h.users.ChangePassword(ctx, middleware.GetUserID(r.Context()), req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ctx(r)
	defer cancel()

	users, err := h.users.ListCustomers(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
