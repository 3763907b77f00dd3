package sessionstorage

import "github.com/cockroachdb/errors"

var (
	WorkspaceNotFound = errors.New("workspace_not_found")
	ArtifactNotFound  = errors.New("artifact_not_found")
	DeleteFailedMark  = errors.New("delete_failed")
	DefaultErrorMark  = errors.New("default_error")
)
