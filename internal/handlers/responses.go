package handlers

import "github.com/labstack/echo/v4"

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JSONError writes an ErrorResponse with the given status.
func JSONError(c echo.Context, status int, code, message string) error {
	return c.JSON(status, ErrorResponse{Code: code, Message: message})
}
