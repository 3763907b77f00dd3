package separationerrors

import (
	"github.com/hollowtone/vocal-remover-be/src/server/internal/errors/api"
)

const (
	BadUploadDataCode     = api.ErrorCode("bad_upload_data")
	UnsupportedFormatCode = api.ErrorCode("unsupported_format")
	FileTooLargeCode      = api.ErrorCode("file_too_large")
	SessionNotFoundCode   = api.ErrorCode("session_not_found")
	ArtifactNotFoundCode  = api.ErrorCode("artifact_not_found")
	InvalidTrackKindCode  = api.ErrorCode("invalid_track_kind")
	ProcessingTimeoutCode = api.ErrorCode("processing_timeout")
	EngineFailureCode     = api.ErrorCode("engine_failure")
	OutputMissingCode     = api.ErrorCode("output_missing")
	CleanupFailedCode     = api.ErrorCode("cleanup_failed")
)
