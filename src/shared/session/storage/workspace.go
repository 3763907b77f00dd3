package sessionstorage

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/hollowtone/vocal-remover-be/src/shared/lib/errors/mark"
	"github.com/hollowtone/vocal-remover-be/src/shared/lib/working_dir"
	sessionentity "github.com/hollowtone/vocal-remover-be/src/shared/session/entity"
)

const workspacePrefix = "vocal_remover_"

// Workspaces allocates and reclaims per-session directories under a single
// root. It keeps no record of sessions in memory - existence of the
// directory is the existence of the session, which keeps the service
// stateless across restarts.
type Workspaces struct {
	root working_dir.WorkingDir
}

func NewWorkspaces(rootDirStr string) (Workspaces, error) {
	root, err := working_dir.NewWorkingDir(rootDirStr)
	if err != nil {
		return Workspaces{}, errors.Wrap(err, "Failed to convert storage root to absolute format")
	}

	if err := os.MkdirAll(root.Root(), os.ModePerm); err != nil {
		return Workspaces{}, errors.Wrap(err, "Failed to create the workspace storage root")
	}

	return Workspaces{root: root}, nil
}

func (w Workspaces) Root() string {
	return w.root.Root()
}

// Create allocates a new workspace under a freshly generated session ID.
// IDs are UUIDv4, so concurrently created sessions never collide. Creation
// failures surface to the caller - they are fatal to the request.
func (w Workspaces) Create() (sessionentity.Session, error) {
	sessionID := uuid.NewString()
	workspacePath := w.workspacePath(sessionID)

	if err := os.Mkdir(workspacePath, os.ModePerm); err != nil {
		return sessionentity.Session{},
			mark.Wrap(err, DefaultErrorMark, "Failed to create the session workspace directory")
	}

	return sessionentity.Session{
		ID:   sessionID,
		Path: workspacePath,
	}, nil
}

// Resolve maps a session ID to its workspace path. Malformed IDs are
// reported as not found without touching the filesystem, which also keeps
// caller-supplied IDs from ever forming a path outside the storage root.
func (w Workspaces) Resolve(sessionID string) (string, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return "", mark.Wrap(err, WorkspaceNotFound, "Session ID is not a well-formed ID")
	}

	workspacePath := w.workspacePath(sessionID)

	info, err := os.Stat(workspacePath)
	switch {
	case os.IsNotExist(err):
		return "", mark.Wrap(err, WorkspaceNotFound, "No workspace exists for this session")
	case err != nil:
		return "", mark.Wrap(err, DefaultErrorMark, "Failed to stat the session workspace")
	case !info.IsDir():
		return "", mark.Message(WorkspaceNotFound, "Workspace path exists but is not a directory")
	}

	return workspacePath, nil
}

// ResolveArtifact locates a named engine output file inside the session
// workspace. The engine writes all stems into a single subdirectory named
// after the input file; zero subdirectories means separation never
// completed, more than one is ambiguous and resolution refuses to guess.
func (w Workspaces) ResolveArtifact(sessionID string, fileName string) (string, error) {
	workspacePath, err := w.Resolve(sessionID)
	if err != nil {
		return "", errors.Wrap(err, "Failed to resolve the session workspace")
	}

	dirEntries, err := os.ReadDir(workspacePath)
	if err != nil {
		return "", mark.Wrap(err, DefaultErrorMark, "Failed to read the session workspace")
	}

	outputDirs := []string{}
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			outputDirs = append(outputDirs, dirEntry.Name())
		}
	}

	if len(outputDirs) == 0 {
		return "", mark.Message(ArtifactNotFound, "The session has no engine output directory")
	}

	if len(outputDirs) > 1 {
		return "", mark.Message(ArtifactNotFound, "The session has more than one output directory")
	}

	artifactPath := filepath.Join(workspacePath, outputDirs[0], fileName)
	if _, err := os.Stat(artifactPath); err != nil {
		return "", mark.Wrap(err, ArtifactNotFound, "The requested artifact does not exist")
	}

	return artifactPath, nil
}

// Delete removes the entire workspace recursively. Deleting an already
// absent session reports (false, nil) so that callers can clean up
// unconditionally.
func (w Workspaces) Delete(sessionID string) (bool, error) {
	workspacePath, err := w.Resolve(sessionID)
	if err != nil {
		if errors.Is(err, WorkspaceNotFound) {
			return false, nil
		}

		return false, errors.Wrap(err, "Failed to resolve the session workspace")
	}

	if err := os.RemoveAll(workspacePath); err != nil {
		return false, mark.Wrap(err, DeleteFailedMark, "Failed to remove the session workspace")
	}

	return true, nil
}

// SweepOlderThan removes every workspace whose directory is older than the
// given age, as judged by mtime. Individual failures don't stop the sweep.
func (w Workspaces) SweepOlderThan(age time.Duration) (int, error) {
	dirEntries, err := os.ReadDir(w.root.Root())
	if err != nil {
		return 0, errors.Wrap(err, "Failed to read the workspace storage root")
	}

	cutoff := time.Now().Add(-age)
	removed := 0
	var sweepErr error

	for _, dirEntry := range dirEntries {
		if !dirEntry.IsDir() || !isWorkspaceDirName(dirEntry.Name()) {
			continue
		}

		info, err := dirEntry.Info()
		if err != nil {
			sweepErr = errors.CombineErrors(sweepErr, err)
			continue
		}

		if info.ModTime().After(cutoff) {
			continue
		}

		if err := os.RemoveAll(filepath.Join(w.root.Root(), dirEntry.Name())); err != nil {
			sweepErr = errors.CombineErrors(sweepErr, err)
			continue
		}

		removed++
	}

	return removed, sweepErr
}

func (w Workspaces) workspacePath(sessionID string) string {
	return filepath.Join(w.root.Root(), workspacePrefix+sessionID)
}

func isWorkspaceDirName(name string) bool {
	if len(name) <= len(workspacePrefix) {
		return false
	}

	if name[:len(workspacePrefix)] != workspacePrefix {
		return false
	}

	_, err := uuid.Parse(name[len(workspacePrefix):])
	return err == nil
}
