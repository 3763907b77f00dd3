package sessionentity

// Session is the unit of isolation for one upload-to-download lifecycle.
// It is identified by an opaque ID and owns exactly one workspace directory
// on disk. No session state is held in memory beyond this value - the
// filesystem is the source of truth, so sessions survive process restarts.
type Session struct {
	ID   string
	Path string
}

// StemPaths holds the two artifacts of a completed separation. Both fields
// are always populated together - a separation either produces both stems
// or fails outright.
type StemPaths struct {
	Vocals       string
	Instrumental string
}
