package mark

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
)

// Wrap tags err with a sentinel mark so that callers can branch on
// markers.Is without string matching or exposing concrete error types.
func Wrap(err error, mark error, msg string) error {
	return markers.Mark(errors.Wrap(err, msg), mark)
}

func Message(mark error, msg string) error {
	return markers.Mark(errors.New(msg), mark)
}
