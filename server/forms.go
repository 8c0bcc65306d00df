package server

import (
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/academy-storefront/internal/errors"
)

type loginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
	Next     string `form:"next"`
}

type signupForm struct {
	FirstName string `form:"first_name" validate:"required,max=150"`
	LastName  string `form:"last_name" validate:"required,max=150"`
	Email     string `form:"email" validate:"required,email"`
	Phone     string `form:"phone" validate:"omitempty,max=20"`
	Password  string `form:"password" validate:"required,min=8"`
	Confirm   string `form:"confirm_password" validate:"required,eqfield=Password"`
}

type profileForm struct {
	FirstName string `form:"first_name" validate:"required,max=150"`
	LastName  string `form:"last_name" validate:"required,max=150"`
	Phone     string `form:"phone" validate:"omitempty,max=20"`
	Bio       string `form:"bio" validate:"max=2000"`
}

type passwordForm struct {
	OldPassword string `form:"old_password" validate:"required"`
	NewPassword string `form:"new_password" validate:"required,min=8,nefield=OldPassword"`
	Confirm     string `form:"confirm_password" validate:"required,eqfield=NewPassword"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	return v
}

// decodeForm fills dst from the posted form using the form struct tags. Values are
// trimmed except for passwords.
func decodeForm(r *http.Request, dst any) error {
	if err := r.ParseForm(); err != nil {
		return err
	}
	v := reflect.ValueOf(dst).Elem()
	t := v.Type()
	for i := range t.NumField() {
		name := t.Field(i).Tag.Get("form")
		if name == "" {
			continue
		}
		value := r.PostFormValue(name)
		if !strings.Contains(name, "password") {
			value = strings.TrimSpace(value)
		}
		v.Field(i).SetString(value)
	}
	return nil
}

// FieldErrors maps form field names to one message each.
type FieldErrors map[string]string

// formErrors explains validator failures in the visitor's terms.
func formErrors(err error) FieldErrors {
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return nil
	}
	fields := make(FieldErrors, len(invalid))
	for _, fe := range invalid {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return fmt.Sprintf("Must be at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters.", fe.Param())
	case "eqfield":
		return "Passwords do not match."
	case "nefield":
		return "Choose a password different from the current one."
	}
	return "This value is not valid."
}

// backendFieldErrors keeps the first backend message per field.
func backendFieldErrors(err error) FieldErrors {
	var validationErr *errors.ValidationError
	if !errors.As(err, &validationErr) || len(validationErr.Fields) == 0 {
		return nil
	}
	fields := make(FieldErrors, len(validationErr.Fields))
	for name := range validationErr.Fields {
		fields[name] = validationErr.Field(name)
	}
	return fields
}
