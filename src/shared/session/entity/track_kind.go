package sessionentity

import "github.com/cockroachdb/errors"

type TrackKind string

const (
	InvalidTrackKind TrackKind = ""
	VocalsKind       TrackKind = "vocals"
	InstrumentalKind TrackKind = "instrumental"
)

// ParseTrackKind converts caller input into a track kind. Anything outside
// the fixed enumeration is a caller error, distinct from a missing session
// or artifact.
func ParseTrackKind(value string) (TrackKind, error) {
	switch value {
	case string(VocalsKind):
		return VocalsKind, nil
	case string(InstrumentalKind):
		return InstrumentalKind, nil
	default:
		return InvalidTrackKind, errors.Newf("Value %s does not match any track kind", value)
	}
}
