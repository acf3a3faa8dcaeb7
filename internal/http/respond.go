package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/middleware"
)

const defaultTimeout = 5 * time.Second

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// base carries what every handler needs to bound and answer a request.
type base struct {
	logger  *log.Logger
	timeout time.Duration
}

func newBase(logger *log.Logger, timeout time.Duration) base {
	if logger == nil {
		logger = log.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return base{logger: logger, timeout: timeout}
}

func (b base) ctx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), b.timeout)
}

// decode reads a JSON body into dst and runs its validate tags.
func (b base) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("invalid json")
	}
	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Validation("invalid request")
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return apperr.Validation("%s is required", fe.Field())
	case "email":
		return apperr.Validation("%s must be a valid email address", fe.Field())
	case "min":
		return apperr.Validation("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return apperr.Validation("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return apperr.Validation("%s is invalid", fe.Field())
	}
}

// fail maps err to a status and writes the error body. Unclassified errors are
// logged and answered with a generic message.
func (b base) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := apperr.Message(err)
	if status == http.StatusInternalServerError || status == http.StatusGatewayTimeout {
		b.logger.Printf("%s %s failed correlationId=%s: %v",
			r.Method, r.URL.Path, middleware.GetCorrelationID(r.Context()), err)
	}
	switch status {
	case http.StatusInternalServerError:
		msg = "internal error"
	case http.StatusGatewayTimeout:
		msg = "request timed out"
	}
	writeError(w, r, status, msg)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, middleware.ErrorResponse{
		Error:         msg,
		CorrelationID: middleware.GetCorrelationID(r.Context()),
	})
}
