package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/amezhin/eduseek/internal/apperrors"
)

var validate = validator.New()

func init() {
	configureValidator(validate)
}

// ErrorResponse is the uniform error envelope every typed error is
// rendered with
type ErrorResponse struct {
	Message    string    `json:"message"`
	DateTime   time.Time `json:"dateTime"`
	Status     string    `json:"status"`
	StatusCode int       `json:"statusCode"`
}

func JSON(w http.ResponseWriter, data any) {
	jsonWithStatus(w, data, http.StatusOK)
}

func JSONStatus(w http.ResponseWriter, data any, code int) {
	jsonWithStatus(w, data, code)
}

// Error renders any error as the uniform envelope. The http status comes
// from the error kind, internals of unexpected faults never leak.
func Error(w http.ResponseWriter, err error) {
	code := kindToStatus(apperrors.KindOf(err))

	response := ErrorResponse{
		Message:    apperrors.MessageOf(err),
		DateTime:   time.Now(),
		Status:     http.StatusText(code),
		StatusCode: code,
	}

	jsonWithStatus(w, response, code)
}

func kindToStatus(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindBadRequest:
		return http.StatusBadRequest
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized
	case apperrors.KindAccessDenied:
		return http.StatusForbidden
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// BindAndValidate decodes JSON request body into type T and validates it
// using struct tags. Writes the error envelope itself on failure, callers
// only need to return.
func BindAndValidate[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	err := json.NewDecoder(r.Body).Decode(&value)
	if err != nil {
		err = apperrors.Wrap(apperrors.KindBadRequest, decodeErrorMessage(err), err)
		Error(w, err)
		return value, err
	}

	err = validate.Struct(value)
	if err != nil {
		// pretty sure cast will be ok cause expecting T is valid struct
		errs := err.(validator.ValidationErrors)
		err = apperrors.Wrap(apperrors.KindBadRequest, validationErrorMessage(errs), err)
		Error(w, err)
		return value, err
	}

	return value, nil
}

func decodeErrorMessage(err error) string {
	// Try to provide more specific error message based on error type
	switch err := err.(type) {
	case *json.UnmarshalTypeError:
		return fmt.Sprintf("Invalid data type for field '%s'", err.Field)
	default:
		return fmt.Sprintf("Failed to parse JSON: %s", err.Error())
	}
}

func validationErrorMessage(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))

	for _, fieldError := range errs {
		var message string
		switch fieldError.Tag() {
		case "required":
			message = "this field is required"
		case "min":
			message = fmt.Sprintf("value is too short (minimum %s)", fieldError.Param())
		case "max":
			message = fmt.Sprintf("value is too long (maximum %s)", fieldError.Param())
		case "email":
			message = "must be a valid email address"
		default:
			message = "invalid value"
		}

		parts = append(parts, fmt.Sprintf("%s: %s", fieldError.Field(), message))
	}

	return "Request validation failed: " + strings.Join(parts, "; ")
}

// jsonWithStatus sends data as json and enforces status code
func jsonWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
