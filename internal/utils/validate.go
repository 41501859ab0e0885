package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/amaumene/cinematch/internal/apperr"
)

// MinPasswordLength is the shortest password accepted on sign-up and sign-in
const MinPasswordLength = 6

var validate = validator.New()

type credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// ValidateCredentials checks the email format and password length before any
// auth request is made
func ValidateCredentials(email, password string) error {
	err := validate.Struct(credentials{Email: strings.TrimSpace(email), Password: password})
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		var reason string
		switch {
		case fe.Tag() == "required":
			reason = fmt.Sprintf("%s is required", strings.ToLower(fe.Field()))
		case fe.Field() == "Password":
			reason = fmt.Sprintf("password must have at least %d characters", MinPasswordLength)
		default:
			reason = "email is not valid"
		}
		return apperr.New(apperr.KindValidation, "validate credentials", errors.New(reason))
	}
	return apperr.New(apperr.KindValidation, "validate credentials", err)
}

// ValidateMovieID rejects non-positive ids
func ValidateMovieID(id int) error {
	if id <= 0 {
		return apperr.New(apperr.KindValidation, "validate movie", fmt.Errorf("invalid movie id %d", id))
	}
	return nil
}

// ValidateRating checks a 0-10 rating
func ValidateRating(rating *float64) error {
	if rating == nil {
		return nil
	}
	if *rating < 0 || *rating > 10 {
		return apperr.New(apperr.KindValidation, "validate rating", fmt.Errorf("rating %.1f out of range 0-10", *rating))
	}
	return nil
}
