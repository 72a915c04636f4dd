package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// DataResponse writes the enveloped API response with status and data.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

// JSONResponse writes v without the envelope, for endpoints whose payload shape is fixed by clients.
func JSONResponse(c echo.Context, statusCode int, v interface{}) error {
	return c.JSON(statusCode, v)
}

// ErrorPayloadResponse writes {"error": msg} merged with extra fields.
func ErrorPayloadResponse(c echo.Context, statusCode int, msg string, extra map[string]interface{}) error {
	body := make(map[string]interface{}, len(extra)+1)
	for k, v := range extra {
		body[k] = v
	}
	body["error"] = msg
	return c.JSON(statusCode, body)
}

// SuccessResponse writes success response.
func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

// BadRequestResponse writes bad request error.
func BadRequestResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusBadRequest, data)
}

// InternalServerErrorResponse writes internal server error.
func InternalServerErrorResponse(c echo.Context) error {
	return DataResponse(c, http.StatusInternalServerError, "Something went wrong")
}

// AppErrorResponse writes application error response.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return DataResponse(c, appErr.Status, []*AppError{appErr})
	}
	return InternalServerErrorResponse(c)
}
