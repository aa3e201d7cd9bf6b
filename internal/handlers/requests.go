// Package handlers holds request plumbing shared by the HTTP modules.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// CustomValidator wraps the go-playground/validator library to implement Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i any) error {
	return cv.validator.Struct(i)
}

// Bind binds the request into dst and validates it. Failures are returned
// as 400 errors naming the offending fields.
func Bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Ungültige Anfrage").SetInternal(err)
	}
	if err := c.Validate(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return echo.NewHTTPError(http.StatusBadRequest, "Ungültige Eingabe: "+strings.Join(fields, ", ")).SetInternal(err)
		}
		return echo.NewHTTPError(http.StatusBadRequest, "Ungültige Eingabe").SetInternal(err)
	}
	return nil
}
