package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/ashmitsharp/classtrib-api/internal/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

var validate = newValidator()

// newValidator reports fields by their json name
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindAndValidate decodes a JSON body and runs struct validation
func bindAndValidate(c fiber.Ctx, out interface{}) error {
	if err := c.Bind().JSON(out); err != nil {
		return utils.NewBadRequestError("invalid request body", nil)
	}

	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			return utils.NewBadRequestError("validation failed", fields)
		}
		return utils.NewBadRequestError("validation failed", nil)
	}
	return nil
}
