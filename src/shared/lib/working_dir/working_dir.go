package working_dir

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
)

func NewWorkingDir(path string) (WorkingDir, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return WorkingDir{}, errors.Wrap(err, "Failed to convert path to absolute format")
	}

	return WorkingDir{root: absPath}, nil
}

type WorkingDir struct {
	root string
}

func (w WorkingDir) Root() string {
	return w.root
}
