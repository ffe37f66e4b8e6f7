// Package handler exposes the fulfillment services over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/HaikalHH/mugifumiapp-sub000/internal/apperror"
	"github.com/HaikalHH/mugifumiapp-sub000/internal/logger"
)

// Pagination bounds for list endpoints.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

func orNop(logg *logger.Logger) *logger.Logger {
	if logg == nil {
		return logger.Nop()
	}
	return logg
}

// --- Response helpers ---

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// writeError maps err onto the error taxonomy. Server-side failures are
// logged; client errors are only returned.
func writeError(w http.ResponseWriter, r *http.Request, logg *logger.Logger, err error) {
	writeErrorWith(w, r, logg, err, 0, nil)
}

// writeErrorWith lets a caller override the status and merge extra fields
// into the error body.
func writeErrorWith(w http.ResponseWriter, r *http.Request, logg *logger.Logger, err error, status int, extra map[string]interface{}) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := apperror.As(err)
	if typed == nil {
		typed = apperror.Wrap(apperror.CodeInternal, err, "unexpected error")
	}
	meta := apperror.MetadataFor(typed.Code())
	if status == 0 {
		status = meta.HTTPStatus
	}

	body := map[string]interface{}{"code": string(typed.Code())}
	if typed.Code() == apperror.CodeInternal {
		body["error"] = meta.PublicMessage
		body["detail"] = err.Error()
	} else {
		body["error"] = err.Error()
	}
	if meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			body["details"] = details
		}
	}
	for k, v := range extra {
		body[k] = v
	}

	if status >= http.StatusInternalServerError && logg != nil {
		ctx := logg.WithField(r.Context(), "error_code", string(typed.Code()))
		logg.Error(ctx, "request.error", err)
	}
	writeJSON(w, status, body)
}

// --- Request helpers ---

// decodeJSONBody decodes a strict JSON body into dest and runs struct
// validation. Failures are validation errors with per-field details.
func decodeJSONBody(r *http.Request, dest interface{}) error {
	defer io.Copy(io.Discard, r.Body) //nolint:errcheck

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return apperror.Wrap(apperror.CodeValidation, err, "invalid request body").
			WithDetails(map[string]string{"body": err.Error()})
	}
	if err := validate.Struct(dest); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return apperror.Wrap(apperror.CodeValidation, err, "validation failed")
	}
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		details[fieldPath(fe)] = validationMessage(fe)
	}
	return apperror.New(apperror.CodeValidation, "validation failed").WithDetails(details)
}

// fieldPath drops the root struct name from the namespace: items[0].quantity.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at least %s entries", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be %s or more", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	}
	return "is invalid"
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.New(apperror.CodeValidation, "invalid "+name).
			WithDetails(map[string]string{name: "must be a positive integer"})
	}
	return id, nil
}

// parsePage reads limit/offset with the list defaults.
func parsePage(r *http.Request) (limit, offset int32, err error) {
	l, err := queryInt(r, "limit", DefaultLimit, 1, MaxLimit)
	if err != nil {
		return 0, 0, err
	}
	o, err := queryInt(r, "offset", 0, 0, 1<<30)
	if err != nil {
		return 0, 0, err
	}
	return int32(l), int32(o), nil
}

func queryInt(r *http.Request, key string, def, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.New(apperror.CodeValidation, "query parameter must be numeric").
			WithDetails(map[string]string{key: "must be numeric"})
	}
	if v < min || v > max {
		return 0, apperror.New(apperror.CodeValidation, "query parameter out of range").
			WithDetails(map[string]string{key: fmt.Sprintf("must be between %d and %d", min, max)})
	}
	return v, nil
}

func queryTime(r *http.Request, key string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	t, err := parseDate(raw)
	if err != nil {
		return nil, apperror.New(apperror.CodeValidation, "invalid date").
			WithDetails(map[string]string{key: "must be YYYY-MM-DD or RFC3339"})
	}
	return &t, nil
}

// parseDate accepts a calendar date or a full RFC3339 timestamp.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, raw)
}

// bodyDate converts an optional body date field, naming the field on failure.
func bodyDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := parseDate(*raw)
	if err != nil {
		return nil, apperror.New(apperror.CodeValidation, "invalid date").
			WithDetails(map[string]string{field: "must be YYYY-MM-DD or RFC3339"})
	}
	return &t, nil
}
