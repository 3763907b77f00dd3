package separationusecase

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/hollowtone/vocal-remover-be/src/server/internal/errors/api"
	separationentity "github.com/hollowtone/vocal-remover-be/src/server/internal/separation/entity"
	separationerrors "github.com/hollowtone/vocal-remover-be/src/server/internal/separation/errors"
	"github.com/hollowtone/vocal-remover-be/src/server/internal/separation/validation"
	"github.com/hollowtone/vocal-remover-be/src/shared/engine"
	sessionentity "github.com/hollowtone/vocal-remover-be/src/shared/session/entity"
	sessionstorage "github.com/hollowtone/vocal-remover-be/src/shared/session/storage"
)

type Usecase struct {
	workspaces sessionstorage.Workspaces
	splitter   engine.Splitter
	policy     validation.Policy
}

func NewUsecase(workspaces sessionstorage.Workspaces, splitter engine.Splitter, policy validation.Policy) Usecase {
	return Usecase{
		workspaces: workspaces,
		splitter:   splitter,
		policy:     policy,
	}
}

// CheckDeclared fast-fails an upload from its client-declared file name and
// size before the body is read. Declared metadata is untrustworthy - the
// same checks run authoritatively in Separate on the actual bytes.
func (u Usecase) CheckDeclared(fileName string, declaredSize int64) *api.Error {
	if err := u.policy.CheckFilename(fileName); err != nil {
		return api.CommitError(err,
			separationerrors.UnsupportedFormatCode,
			"Unsupported file format. Allowed formats: .mp3, .wav")
	}

	if err := u.policy.CheckSize(declaredSize); err != nil {
		return api.CommitError(err,
			separationerrors.FileTooLargeCode,
			"File too large. Maximum size: "+u.maxFileSizeMB()+"MB")
	}

	return nil
}

// Separate validates the upload, allocates an isolated workspace, runs the
// separation engine against the saved input, and reports the session with
// both stem locations. Validation happens before the workspace exists, so
// a rejected upload never touches the disk.
//
// Accepted race: a download or cleanup request for the same session ID can
// arrive while separation is still in flight. Sequencing within a session
// is the caller's responsibility - serializing it here would require
// cross-request shared state this design deliberately avoids.
func (u Usecase) Separate(ctx context.Context, upload separationentity.Upload) (separationentity.SeparationOutcome, *api.Error) {
	if err := u.policy.CheckFilename(upload.FileName); err != nil {
		return separationentity.SeparationOutcome{}, api.CommitError(err,
			separationerrors.UnsupportedFormatCode,
			"Unsupported file format. Allowed formats: .mp3, .wav")
	}

	// the authoritative size check - the declared size was checked before
	// the body was read, but only the actual byte length can be trusted
	if err := u.policy.CheckSize(int64(len(upload.Contents))); err != nil {
		return separationentity.SeparationOutcome{}, api.CommitError(err,
			separationerrors.FileTooLargeCode,
			"File too large. Maximum size: "+u.maxFileSizeMB()+"MB")
	}

	session, err := u.workspaces.Create()
	if err != nil {
		err = errors.Wrap(err, "Failed to create a session workspace")
		return separationentity.SeparationOutcome{}, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to allocate a session for this upload")
	}

	inputFilePath := filepath.Join(session.Path, "input"+strings.ToLower(filepath.Ext(upload.FileName)))
	if err := os.WriteFile(inputFilePath, upload.Contents, 0644); err != nil {
		err = errors.Wrap(err, "Failed to save the uploaded file into the workspace")
		return separationentity.SeparationOutcome{}, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to save the uploaded file")
	}

	// the input must never outlive the separation call, on any exit path
	defer u.removeInputFile(session.ID, inputFilePath)

	log.WithFields(log.Fields{
		"fileName":  upload.FileName,
		"sessionID": session.ID,
	}).Info("Processing uploaded file")

	stems, err := u.splitter.Separate(ctx, inputFilePath, session.Path)
	if err != nil {
		err = errors.Wrap(err, "Failed to separate the uploaded file")
		switch {
		case markers.Is(err, engine.ProcessTimeout):
			return separationentity.SeparationOutcome{}, api.CommitError(err,
				separationerrors.ProcessingTimeoutCode,
				"Processing timeout. Please try with a shorter audio file")

		case markers.Is(err, engine.EngineFailure):
			return separationentity.SeparationOutcome{}, api.CommitError(err,
				separationerrors.EngineFailureCode,
				"Audio separation failed")

		case markers.Is(err, engine.OutputMissing):
			return separationentity.SeparationOutcome{}, api.CommitError(err,
				separationerrors.OutputMissingCode,
				"Separation completed but output files not found")

		default:
			return separationentity.SeparationOutcome{}, api.CommitError(err,
				api.DefaultErrorCode,
				"Unknown error: Audio separation failed")
		}
	}

	return separationentity.SeparationOutcome{
		SessionID:        session.ID,
		OriginalFilename: upload.FileName,
		Stems:            stems,
	}, nil
}

// ResolveTrack maps a session ID and track kind to the stem file on disk,
// re-derived from the current filesystem state at download time.
func (u Usecase) ResolveTrack(ctx context.Context, sessionID string, trackKind string) (string, *api.Error) {
	kind, err := sessionentity.ParseTrackKind(trackKind)
	if err != nil {
		return "", api.CommitError(err,
			separationerrors.InvalidTrackKindCode,
			"Invalid track type. Valid kinds: vocals, instrumental")
	}

	stemFileName, ok := engine.StemFileName(kind)
	if !ok {
		err := errors.Newf("No stem file name mapping for track kind %s", kind)
		return "", api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: Failed to resolve the requested track")
	}

	artifactPath, err := u.workspaces.ResolveArtifact(sessionID, stemFileName)
	if err != nil {
		err = errors.Wrap(err, "Failed to resolve the artifact for download")
		switch {
		case markers.Is(err, sessionstorage.WorkspaceNotFound):
			return "", api.CommitError(err,
				separationerrors.SessionNotFoundCode,
				"Session not found or expired")

		case markers.Is(err, sessionstorage.ArtifactNotFound):
			return "", api.CommitError(err,
				separationerrors.ArtifactNotFoundCode,
				"Processed files not found")

		default:
			return "", api.CommitError(err,
				api.DefaultErrorCode,
				"Unknown error: Failed to resolve the requested track")
		}
	}

	return artifactPath, nil
}

// Cleanup removes the session workspace. It is idempotent: cleaning up an
// absent session is a success outcome, distinguishable from an actual
// removal, so callers can invoke it unconditionally.
func (u Usecase) Cleanup(ctx context.Context, sessionID string) (separationentity.CleanupOutcome, *api.Error) {
	removed, err := u.workspaces.Delete(sessionID)
	if err != nil {
		err = errors.Wrap(err, "Failed to delete the session workspace")
		switch {
		case markers.Is(err, sessionstorage.DeleteFailedMark):
			return "", api.CommitError(err,
				separationerrors.CleanupFailedCode,
				"Cleanup failed. The session files may still remain on disk")

		default:
			return "", api.CommitError(err,
				api.DefaultErrorCode,
				"Unknown error: Cleanup failed")
		}
	}

	if !removed {
		return separationentity.CleanupAlreadyAbsent, nil
	}

	return separationentity.CleanupRemoved, nil
}

func (u Usecase) Health() separationentity.HealthReport {
	return separationentity.HealthReport{
		EngineAvailable: u.splitter.Available(),
		StorageDir:      u.workspaces.Root(),
		MaxFileSizeMB:   u.policy.MaxFileSize / (1024 * 1024),
	}
}

func (u Usecase) removeInputFile(sessionID string, inputFilePath string) {
	err := os.Remove(inputFilePath)
	if err != nil && !os.IsNotExist(err) {
		// non-fatal, the input only wastes space until cleanup
		log.WithFields(log.Fields{
			"sessionID":     sessionID,
			"inputFilePath": inputFilePath,
		}).Warn("Failed to clean up the transient input file")
	}
}

func (u Usecase) maxFileSizeMB() string {
	return strconv.FormatInt(u.policy.MaxFileSize/(1024*1024), 10)
}
