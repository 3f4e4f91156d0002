package httputil

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/smilecare/clinic-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error is the structured error body. Details carries enough for the UI to
// render an actionable message (conflicting time range, missing
// precondition) rather than a bare failure code.
type Error struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

var statusByCode = map[apperrors.ErrorCode]int{
	apperrors.ErrNotFound:          http.StatusNotFound,
	apperrors.ErrValidation:        http.StatusBadRequest,
	apperrors.ErrConflict:          http.StatusConflict,
	apperrors.ErrInvalidTransition: http.StatusConflict,
	apperrors.ErrReportRequired:    http.StatusUnprocessableEntity,
	apperrors.ErrUnauthorized:      http.StatusUnauthorized,
	apperrors.ErrForbidden:         http.StatusForbidden,
	apperrors.ErrInternal:          http.StatusInternalServerError,
}

var labelByCode = map[apperrors.ErrorCode]string{
	apperrors.ErrNotFound:          "not_found",
	apperrors.ErrValidation:        "validation_error",
	apperrors.ErrConflict:          "scheduling_conflict",
	apperrors.ErrInvalidTransition: "invalid_transition",
	apperrors.ErrReportRequired:    "report_required",
	apperrors.ErrUnauthorized:      "unauthorized",
	apperrors.ErrForbidden:         "forbidden",
	apperrors.ErrInternal:          "internal_error",
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError maps the error taxonomy to HTTP statuses and sends the
// structured body. Foreign errors become opaque 500s.
func RespondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   &Error{Code: "internal_error", Message: "internal server error"},
		})
		return
	}

	status, ok := statusByCode[appErr.Code]
	if !ok {
		status = http.StatusInternalServerError
	}

	c.JSON(status, Response{
		Success: false,
		Error: &Error{
			Code:    labelByCode[appErr.Code],
			Message: appErr.Message,
			Details: appErr.Details,
		},
	})
}

// RespondWithValidationError shapes gin binding failures like the rest of
// the taxonomy.
func RespondWithValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error: &Error{
			Code:    "validation_error",
			Message: err.Error(),
		},
	})
}
