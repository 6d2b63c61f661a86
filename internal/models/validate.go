package models

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ErrorResponse) Error() string { return e.Message }

func (r *CreateRoomRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	return validationError(validate.Struct(r))
}

func (r *CreateProfileRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.UserName = strings.TrimSpace(r.UserName)
	return validationError(validate.Struct(r))
}

// validationError flattens validator output into a single ErrorResponse.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &ErrorResponse{Code: "validation_error", Message: err.Error()}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field())+" failed "+fe.Tag())
	}
	return &ErrorResponse{Code: "validation_error", Message: strings.Join(fields, "; ")}
}
