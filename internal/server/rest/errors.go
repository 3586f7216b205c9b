package rest

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
)

// apiError is rendered as the error response body.
type apiError struct {
	Status  int                 `json:"-"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func (e *apiError) Error() string { return e.Message }

func newAPIError(status int, message string) *apiError {
	return &apiError{Status: status, Message: message}
}

func fieldError(field, message string) *apiError {
	return &apiError{
		Status:  http.StatusUnprocessableEntity,
		Message: message,
		Errors:  map[string][]string{field: {message}},
	}
}

// validationError converts ozzo validation errors into a 422 response.
func validationError(err error) *apiError {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return newAPIError(http.StatusUnprocessableEntity, err.Error())
	}
	out := &apiError{
		Status:  http.StatusUnprocessableEntity,
		Message: "The given data was invalid.",
		Errors:  make(map[string][]string, len(verrs)),
	}
	for field, e := range verrs {
		if e != nil {
			out.Errors[field] = []string{e.Error()}
		}
	}
	return out
}

// errorHandler is the fiber ErrorHandler: every error leaves as JSON.
func errorHandler(c *fiber.Ctx, err error) error {
	var ae *apiError
	if errors.As(err, &ae) {
		return c.Status(ae.Status).JSON(ae)
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(apiError{Message: fe.Message})
	}
	return c.Status(http.StatusInternalServerError).JSON(apiError{Message: "Server Error"})
}
