package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"postbox/internal/models"
	"postbox/internal/utils"
)

type contextKey string

const validatedRequestKey contextKey = "validated_request"

// DefaultMaxBodyBytes bounds request bodies on the JSON endpoints.
const DefaultMaxBodyBytes int64 = 64 << 10

type Validator interface {
	Validate() error
}

// validatable is satisfied by *T when T's pointer implements Validator.
type validatable[T any] interface {
	*T
	Validator
}

// ValidateRequest reads at most maxBytes of JSON into a fresh T, validates it
// and stores *T in the request context. Oversized bodies get 413, anything
// else that fails gets 400 with an ErrorResponse.
func ValidateRequest[T any, PT validatable[T]](maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req := PT(new(T))
			if err := decodeBody(w, r, maxBytes, req); err != nil {
				writeDecodeError(w, err)
				return
			}

			if err := req.Validate(); err != nil {
				var errResp *models.ErrorResponse
				if !errors.As(err, &errResp) {
					errResp = &models.ErrorResponse{Code: "validation_error", Message: err.Error()}
				}
				utils.JSON(w, http.StatusBadRequest, *errResp)
				return
			}

			ctx := context.WithValue(r.Context(), validatedRequestKey, (*T)(req))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// decodeBody accepts exactly one JSON value followed only by whitespace.
func decodeBody(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		utils.JSON(w, http.StatusRequestEntityTooLarge, models.ErrorResponse{
			Code:    "request_too_large",
			Message: "Request body exceeds the size limit",
		})
		return
	}
	utils.JSON(w, http.StatusBadRequest, models.ErrorResponse{
		Code:    "invalid_json",
		Message: "Invalid JSON in request body",
	})
}

// GetValidatedRequest returns the request stored by ValidateRequest[T].
func GetValidatedRequest[T any](r *http.Request) *T {
	req, _ := r.Context().Value(validatedRequestKey).(*T)
	return req
}
