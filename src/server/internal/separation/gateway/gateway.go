package separationgateway

import (
	"io"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/hollowtone/vocal-remover-be/src/server/internal/errors/api"
	"github.com/hollowtone/vocal-remover-be/src/server/internal/errors/gateway"
	"github.com/hollowtone/vocal-remover-be/src/server/internal/lib/request"
	separationentity "github.com/hollowtone/vocal-remover-be/src/server/internal/separation/entity"
	separationerrors "github.com/hollowtone/vocal-remover-be/src/server/internal/separation/errors"
	separationusecase "github.com/hollowtone/vocal-remover-be/src/server/internal/separation/usecase"
	sessionentity "github.com/hollowtone/vocal-remover-be/src/shared/session/entity"
	"github.com/labstack/echo/v4"
)

const uploadFormField = "file"

type Gateway struct {
	usecase separationusecase.Usecase
}

func NewGateway(usecase separationusecase.Usecase) Gateway {
	return Gateway{
		usecase: usecase,
	}
}

type SeparationResponse struct {
	SessionID        string `json:"session_id"`
	VocalsFile       string `json:"vocals_file"`
	InstrumentalFile string `json:"instrumental_file"`
	OriginalFilename string `json:"original_filename"`
	Message          string `json:"message"`
}

type CleanupResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status            string `json:"status"`
	SpleeterAvailable bool   `json:"spleeter_available"`
	TempDir           string `json:"temp_dir"`
	MaxFileSizeMB     int64  `json:"max_file_size_mb"`
}

func (g Gateway) Separate(c echo.Context) error {
	ctx := request.Context(c)

	fileHeader, err := c.FormFile(uploadFormField)
	if err != nil {
		err = errors.Wrap(err, "Failed to read the file field from the upload form")
		apiErr := api.CommitError(err,
			separationerrors.BadUploadDataCode,
			"The upload is missing an audio file. Please attach one as the \"file\" field")
		return gateway.ErrorResponse(c, apiErr)
	}

	// cheap rejection from declared metadata before the body is read
	if apiErr := g.usecase.CheckDeclared(fileHeader.Filename, fileHeader.Size); apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	file, err := fileHeader.Open()
	if err != nil {
		err = errors.Wrap(err, "Failed to open the uploaded file part")
		apiErr := api.CommitError(err,
			separationerrors.BadUploadDataCode,
			"The uploaded file could not be read")
		return gateway.ErrorResponse(c, apiErr)
	}
	defer file.Close()

	contents, err := io.ReadAll(file)
	if err != nil {
		err = errors.Wrap(err, "Failed to read the uploaded file body")
		apiErr := api.CommitError(err,
			separationerrors.BadUploadDataCode,
			"The uploaded file could not be read")
		return gateway.ErrorResponse(c, apiErr)
	}

	outcome, apiErr := g.usecase.Separate(ctx, separationentity.Upload{
		FileName: fileHeader.Filename,
		Contents: contents,
	})
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to separate the uploaded audio")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, SeparationResponse{
		SessionID:        outcome.SessionID,
		VocalsFile:       downloadHandle(outcome.SessionID, sessionentity.VocalsKind),
		InstrumentalFile: downloadHandle(outcome.SessionID, sessionentity.InstrumentalKind),
		OriginalFilename: outcome.OriginalFilename,
		Message:          "Separation completed successfully",
	})
}

func (g Gateway) DownloadTrack(c echo.Context, sessionID string, trackKind string) error {
	ctx := request.Context(c)

	artifactPath, apiErr := g.usecase.ResolveTrack(ctx, sessionID, trackKind)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to resolve the requested track")
		return gateway.ErrorResponse(c, apiErr)
	}

	// ServeContent only deduces a content type when none is set
	c.Response().Header().Set(echo.HeaderContentType, "audio/wav")
	return c.Attachment(artifactPath, trackKind+".wav")
}

func (g Gateway) CleanupSession(c echo.Context, sessionID string) error {
	ctx := request.Context(c)

	outcome, apiErr := g.usecase.Cleanup(ctx, sessionID)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to clean up the session")
		return gateway.ErrorResponse(c, apiErr)
	}

	message := ""
	switch outcome {
	case separationentity.CleanupRemoved:
		message = "Session cleaned up successfully"
	case separationentity.CleanupAlreadyAbsent:
		message = "Session not found or already cleaned up"
	}

	return c.JSON(http.StatusOK, CleanupResponse{
		Status:  string(outcome),
		Message: message,
	})
}

func (g Gateway) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Vocal Remover API is running",
		"status":  "healthy",
	})
}

func (g Gateway) Health(c echo.Context) error {
	report := g.usecase.Health()

	return c.JSON(http.StatusOK, HealthResponse{
		Status:            "healthy",
		SpleeterAvailable: report.EngineAvailable,
		TempDir:           report.StorageDir,
		MaxFileSizeMB:     report.MaxFileSizeMB,
	})
}

func downloadHandle(sessionID string, kind sessionentity.TrackKind) string {
	return "/download/" + sessionID + "/" + string(kind)
}
