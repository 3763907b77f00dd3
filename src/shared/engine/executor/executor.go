package executor

import (
	"context"
	"os/exec"
)

// Executor abstracts process spawning so that tests can substitute a dummy
// in place of a real binary on disk.
type Executor interface {
	CommandContext(ctx context.Context, name string, arg ...string) Command
}

type Command interface {
	SetDir(dir string)
	CombinedOutput() ([]byte, error)
}

var _ Executor = BinaryFileExecutor{}

// BinaryFileExecutor runs real binaries. Commands are bound to the given
// context: when it expires the process is killed, not asked to stop.
type BinaryFileExecutor struct{}

func (BinaryFileExecutor) CommandContext(ctx context.Context, name string, arg ...string) Command {
	return &binaryFileCommand{
		cmd: exec.CommandContext(ctx, name, arg...),
	}
}

type binaryFileCommand struct {
	cmd *exec.Cmd
}

func (b *binaryFileCommand) SetDir(dir string) {
	b.cmd.Dir = dir
}

func (b *binaryFileCommand) CombinedOutput() ([]byte, error) {
	return b.cmd.CombinedOutput()
}
