package validation

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hollowtone/vocal-remover-be/src/shared/lib/errors/mark"
)

// Policy is the upload acceptance policy: which extensions are allowed and
// how large a file may be. Checks are pure decision functions with no side
// effects. Each check runs twice per upload - once cheaply against the
// client-declared metadata before the body is read, and once
// authoritatively afterwards, because declared metadata can lie.
type Policy struct {
	MaxFileSize       int64
	allowedExtensions map[string]bool
}

func NewPolicy(maxFileSize int64, allowedExtensions []string) Policy {
	extensions := map[string]bool{}
	for _, extension := range allowedExtensions {
		extensions[strings.ToLower(extension)] = true
	}

	return Policy{
		MaxFileSize:       maxFileSize,
		allowedExtensions: extensions,
	}
}

func DefaultPolicy(maxFileSize int64) Policy {
	return NewPolicy(maxFileSize, []string{".mp3", ".wav"})
}

func (p Policy) CheckFilename(fileName string) error {
	extension := strings.ToLower(filepath.Ext(fileName))
	if !p.allowedExtensions[extension] {
		return mark.Message(UnsupportedFormatMark,
			fmt.Sprintf("Unsupported file format %q. Allowed formats: %s", extension, p.allowedList()))
	}

	return nil
}

// CheckSize accepts sizes of zero or below as unknown rather than invalid -
// a missing or absent declared size must not bypass the later authoritative
// check on actual bytes.
func (p Policy) CheckSize(size int64) error {
	if size > p.MaxFileSize {
		return mark.Message(FileTooLargeMark,
			fmt.Sprintf("File too large. Maximum size: %dMB", p.MaxFileSize/(1024*1024)))
	}

	return nil
}

func (p Policy) allowedList() string {
	extensions := []string{}
	for extension := range p.allowedExtensions {
		extensions = append(extensions, extension)
	}

	sort.Strings(extensions)
	return strings.Join(extensions, ", ")
}
