package dummy

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/hollowtone/vocal-remover-be/src/shared/engine/executor"
)

var _ executor.Executor = &SpleeterExecutor{}

func NewDummySpleeterExecutor() *SpleeterExecutor {
	return &SpleeterExecutor{}
}

// SpleeterExecutor fakes the spleeter binary. By default it mimics a
// successful two stem separation: it reads the input file and writes
// <input>-vocals and <input>-accompaniment derived stems into the layout
// the real tool produces. The failure knobs switch it into the other
// outcomes the invoker must classify.
type SpleeterExecutor struct {
	// Unavailable makes every command exit non-zero
	Unavailable bool
	// SkipOutputs exits cleanly without writing any stem file
	SkipOutputs bool
	// Stall blocks until the command's context is cancelled, the way a
	// hung separation holds its process until the timeout kills it
	Stall bool
	// Diagnostic is emitted as combined output on failures
	Diagnostic string
}

func (e *SpleeterExecutor) CommandContext(ctx context.Context, name string, arg ...string) executor.Command {
	return &spleeterCommand{
		executor: e,
		ctx:      ctx,
		args:     arg,
	}
}

type spleeterCommand struct {
	executor *SpleeterExecutor
	ctx      context.Context
	args     []string
	dir      string
}

func (c *spleeterCommand) SetDir(dir string) {
	c.dir = dir
}

func (c *spleeterCommand) CombinedOutput() ([]byte, error) {
	if c.executor.Stall {
		<-c.ctx.Done()
		return []byte("signal: killed"), errors.New("signal: killed")
	}

	if c.executor.Unavailable {
		return []byte(c.executor.Diagnostic), errors.New("exit status 1")
	}

	if len(c.args) > 0 && c.args[0] == "--help" {
		return []byte("usage: spleeter"), nil
	}

	if c.executor.SkipOutputs {
		return nil, nil
	}

	return c.separate()
}

func (c *spleeterCommand) separate() ([]byte, error) {
	destPath, sourcePath, err := c.parseArgs()
	if err != nil {
		return []byte(err.Error()), err
	}

	contents, err := os.ReadFile(sourcePath)
	if err != nil {
		return []byte(err.Error()), errors.Wrap(err, "exit status 1")
	}

	sourceFileName := filepath.Base(sourcePath)
	sourceBaseName := strings.TrimSuffix(sourceFileName, filepath.Ext(sourceFileName))
	stemDir := filepath.Join(destPath, sourceBaseName)

	if err := os.MkdirAll(stemDir, os.ModePerm); err != nil {
		return []byte(err.Error()), errors.Wrap(err, "exit status 1")
	}

	stems := map[string]string{
		"vocals.wav":        "-vocals",
		"accompaniment.wav": "-accompaniment",
	}

	for stemFileName, suffix := range stems {
		stemContents := append([]byte{}, contents...)
		stemContents = append(stemContents, []byte(suffix)...)

		stemPath := filepath.Join(stemDir, stemFileName)
		if err := os.WriteFile(stemPath, stemContents, 0644); err != nil {
			return []byte(err.Error()), errors.Wrap(err, "exit status 1")
		}
	}

	return []byte("separation done"), nil
}

func (c *spleeterCommand) parseArgs() (destPath string, sourcePath string, err error) {
	if len(c.args) == 0 || c.args[0] != "separate" {
		return "", "", errors.New("unrecognized spleeter invocation")
	}

	for i := 0; i < len(c.args)-1; i++ {
		if c.args[i] == "-o" {
			destPath = c.args[i+1]
		}
	}

	sourcePath = c.args[len(c.args)-1]

	if destPath == "" || sourcePath == "" {
		return "", "", errors.New("missing output dir or source file")
	}

	return destPath, sourcePath, nil
}
