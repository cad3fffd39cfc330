package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

type GenericEchoValidator struct {
	Validator *validator.Validate
	once      sync.Once
}

func NewGenericEchoValidator() *GenericEchoValidator {
	return &GenericEchoValidator{Validator: validator.New()}
}

// Validate runs struct tag validation and reports failures as 400 with one
// "field: rule" entry per violated constraint.
func (gv *GenericEchoValidator) Validate(i interface{}) error {
	// echo calls Validate from concurrent handlers
	gv.once.Do(func() {
		if gv.Validator == nil {
			gv.Validator = validator.New()
		}
	})
	err := gv.Validator.Struct(i)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("received invalid request: %v", err))
	}
	problems := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		problem := fmt.Sprintf("%s: %s", strings.ToLower(fieldError.Field()), fieldError.Tag())
		if fieldError.Param() != "" {
			problem += "=" + fieldError.Param()
		}
		problems = append(problems, problem)
	}
	return echo.NewHTTPError(http.StatusBadRequest, "received invalid request: "+strings.Join(problems, ", "))
}
