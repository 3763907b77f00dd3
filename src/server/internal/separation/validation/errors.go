package validation

import "github.com/cockroachdb/errors"

var (
	UnsupportedFormatMark = errors.New("unsupported_format")
	FileTooLargeMark      = errors.New("file_too_large")
)
