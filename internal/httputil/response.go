package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"mysns/internal/logger"
	"mysns/internal/model"
)

// Error codes used when a failure carries no domain code of its own.
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

const maxBodyBytes = 1 << 20

// SuccessResponse wraps every successful payload.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse represents the standard error response format
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail contains the error code and message
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// RequestError is a malformed or invalid request body.
type RequestError struct {
	Message string
	Details string
}

func (e *RequestError) Error() string { return e.Message }

func (e *RequestError) Unwrap() error { return model.ErrValidation }

var validate = validator.New(validator.WithRequiredStructEnabled())

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		// Headers are already sent; nothing useful can be done on failure.
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteSuccess writes {"success": true, "data": ...}.
func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	WriteJSON(w, status, SuccessResponse{Success: true, Data: data})
}

// WriteError writes {"success": false, "error": {"code": ..., "message": ...}}.
func WriteError(w http.ResponseWriter, status int, code string, message string) {
	writeError(w, status, ErrorDetail{Code: code, Message: message})
}

func writeError(w http.ResponseWriter, status int, detail ErrorDetail) {
	WriteJSON(w, status, ErrorResponse{Success: false, Error: detail})
}

// WriteBadRequest writes a 400 Bad Request error
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// WriteUnauthorized writes a 401 Unauthorized error
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// WriteUnauthorizedWithCode writes a 401 Unauthorized error with a custom code
func WriteUnauthorizedWithCode(w http.ResponseWriter, code string, message string) {
	WriteError(w, http.StatusUnauthorized, code, message)
}

// WriteTooManyRequests writes a 429
func WriteTooManyRequests(w http.ResponseWriter) {
	WriteError(w, http.StatusTooManyRequests, ErrCodeRateLimited, "Too many requests")
}

// WriteInternalError writes a 500 Internal Server Error
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// WriteDomainError maps err to a status by its kind. Unclassified errors are
// logged and reported as a 500 with the fallback message.
func WriteDomainError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Ctx(r.Context()).Error().Err(err).Msg(fallback)
		WriteInternalError(w, fallback)
		return
	}

	detail := ErrorDetail{Code: code, Message: err.Error()}
	if dc := model.CodeOf(err); dc != "" {
		detail.Code = dc
	}
	var re *RequestError
	if errors.As(err, &re) {
		detail.Message = re.Message
		detail.Details = re.Details
	}
	writeError(w, status, detail)
}

func statusFor(err error) (int, string) {
	switch model.KindOf(err) {
	case model.ErrValidation:
		return http.StatusBadRequest, ErrCodeBadRequest
	case model.ErrUnauthenticated:
		return http.StatusUnauthorized, ErrCodeUnauthorized
	case model.ErrForbidden:
		return http.StatusForbidden, ErrCodeForbidden
	case model.ErrNotFound:
		return http.StatusNotFound, ErrCodeNotFound
	case model.ErrConflict:
		return http.StatusConflict, ErrCodeConflict
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}

// DecodeJSON reads a JSON body into dst and runs its validate tags.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return &RequestError{Message: "Invalid request body", Details: err.Error()}
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &RequestError{Message: "Invalid request body", Details: err.Error()}
		}
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field()+" failed "+fe.Tag())
		}
		return &RequestError{Message: "Validation failed", Details: strings.Join(fields, "; ")}
	}
	return nil
}
