package engine

import "github.com/cockroachdb/errors"

var (
	ProcessTimeout = errors.New("process_timeout")
	EngineFailure  = errors.New("engine_failure")
	OutputMissing  = errors.New("output_missing")
)
