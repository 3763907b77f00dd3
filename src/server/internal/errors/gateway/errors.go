package gateway

import (
	"fmt"
	"github.com/hollowtone/vocal-remover-be/src/server/api_error"
	"github.com/hollowtone/vocal-remover-be/src/server/internal/errors/api"
	"github.com/hollowtone/vocal-remover-be/src/server/internal/separation/errors"
	"github.com/labstack/echo/v4"
	"net/http"
)

var httpStatusCodeMap = map[api.ErrorCode]int{
	api.DefaultErrorCode:                   http.StatusInternalServerError,
	separationerrors.BadUploadDataCode:     http.StatusBadRequest,
	separationerrors.UnsupportedFormatCode: http.StatusBadRequest,
	separationerrors.FileTooLargeCode:      http.StatusBadRequest,
	separationerrors.SessionNotFoundCode:   http.StatusNotFound,
	separationerrors.ArtifactNotFoundCode:  http.StatusNotFound,
	separationerrors.InvalidTrackKindCode:  http.StatusBadRequest,
	separationerrors.ProcessingTimeoutCode: http.StatusRequestTimeout,
	separationerrors.EngineFailureCode:     http.StatusInternalServerError,
	separationerrors.OutputMissingCode:     http.StatusInternalServerError,
	separationerrors.CleanupFailedCode:     http.StatusInternalServerError,
}

func ErrorResponse(c echo.Context, err *api.Error) error {
	statusCode, ok := httpStatusCodeMap[err.ErrorCode]
	if !ok {
		msg := fmt.Sprintf("Error code %s has no HTTP status code mapping", err.ErrorCode)
		panic(msg)
	}

	return c.JSON(statusCode, api_error.JSONAPIError{
		Code:         string(err.ErrorCode),
		Msg:          err.UserMessage,
		ErrorDetails: err.Error(),
	})
}
