package separationentity

import (
	sessionentity "github.com/hollowtone/vocal-remover-be/src/shared/session/entity"
)

// Upload is the raw uploaded audio plus its declared file name. The bytes
// are transient: written into the session workspace, consumed by the
// engine, and removed on every exit path.
type Upload struct {
	FileName string
	Contents []byte
}

type SeparationOutcome struct {
	SessionID        string
	OriginalFilename string
	Stems            sessionentity.StemPaths
}

type CleanupOutcome string

const (
	CleanupRemoved       CleanupOutcome = "removed"
	CleanupAlreadyAbsent CleanupOutcome = "already_absent"
)

type HealthReport struct {
	EngineAvailable bool
	StorageDir      string
	MaxFileSizeMB   int64
}
