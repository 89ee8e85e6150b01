// Galaktika - Social Reading Tracker and Knowledge Galaxy
// Copyright 2026 Galaktika contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/galaktika-app/galaktika

// Package validation provides struct validation using go-playground/validator
// v10 behind a thread-safe singleton, with error translation into the API's
// VALIDATION_ERROR shape.
//
//	type AddBookRequest struct {
//	    Title string `validate:"required,max=512"`
//	}
//
//	if err := validation.ValidateStruct(&req); err != nil {
//	    apiErr := err.(*validation.RequestValidationError).ToAPIError()
//	    ...
//	}
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// instance returns the singleton validator; struct metadata is cached, so a
// single instance is the performant configuration.
func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidationError is a single failed field.
type ValidationError struct {
	Field   string
	Tag     string
	Param   string
	message string
}

// Error returns the human-readable message.
func (e *ValidationError) Error() string {
	return e.message
}

// RequestValidationError aggregates all failed fields of one request.
type RequestValidationError struct {
	errs []ValidationError
}

// Errors returns the individual field failures.
func (ve *RequestValidationError) Errors() []ValidationError {
	return ve.errs
}

// Error implements error.
func (ve *RequestValidationError) Error() string {
	if len(ve.errs) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(ve.errs))
	for i, e := range ve.errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// APIError mirrors models.APIError to avoid an import cycle.
type APIError struct {
	Code    string
	Message string
	Details map[string]interface{}
}

// ToAPIError converts the aggregate into the API's error format.
func (ve *RequestValidationError) ToAPIError() *APIError {
	details := make(map[string]interface{}, len(ve.errs))
	for _, e := range ve.errs {
		details[e.Field] = e.Error()
	}
	return &APIError{
		Code:    "VALIDATION_ERROR",
		Message: ve.Error(),
		Details: details,
	}
}

// ValidateStruct validates s and returns a *RequestValidationError on
// failure, nil on success.
func ValidateStruct(s interface{}) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return &RequestValidationError{errs: []ValidationError{{
			Field:   "",
			Tag:     "struct",
			message: "invalid value passed to validation",
		}}}
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestValidationError{errs: []ValidationError{{
			message: err.Error(),
		}}}
	}

	out := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			message: fieldMessage(fe),
		})
	}
	return &RequestValidationError{errs: out}
}

// fieldMessage renders a terse user-facing message per failed tag.
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
