package web

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"clipcanvas/internal/banner"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("banner_style", func(fl validator.FieldLevel) bool {
		_, err := banner.ParseStyle(fl.Field().String())
		return err == nil
	})
	return v
}

func (s *Server) validateStruct(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "banner_style":
		return fmt.Sprintf("%s: unknown banner style", field)
	case "max":
		return fmt.Sprintf("%s: must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s: must be at least %s", field, fe.Param())
	case "required":
		return fmt.Sprintf("%s: is required", field)
	default:
		return fmt.Sprintf("%s: failed %s", field, fe.Tag())
	}
}
