package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/hollowtone/vocal-remover-be/src/shared/engine/executor"
	"github.com/hollowtone/vocal-remover-be/src/shared/lib/errors/mark"
	"github.com/hollowtone/vocal-remover-be/src/shared/lib/working_dir"
	sessionentity "github.com/hollowtone/vocal-remover-be/src/shared/session/entity"
)

const (
	twoStemsParam = "spleeter:2stems-16kHz"

	VocalsFileName        = "vocals.wav"
	AccompanimentFileName = "accompaniment.wav"

	// spleeter can spew a lot of tensorflow noise, keep the excerpt bounded
	maxDiagnosticLen = 2000

	availabilityTimeout = 10 * time.Second
)

var stemFileNames = map[sessionentity.TrackKind]string{
	sessionentity.VocalsKind:       VocalsFileName,
	sessionentity.InstrumentalKind: AccompanimentFileName,
}

// StemFileName maps a track kind to the file name spleeter writes for it.
func StemFileName(kind sessionentity.TrackKind) (string, bool) {
	fileName, ok := stemFileNames[kind]
	return fileName, ok
}

// Splitter turns one input file into a vocal and an instrumental stem
// inside the given output directory.
type Splitter interface {
	Separate(ctx context.Context, inputFilePath string, outputDir string) (sessionentity.StemPaths, error)
	Available() bool
}

var _ Splitter = SpleeterSplitter{}

func NewSpleeterSplitter(binPath string, workingDirStr string, timeout time.Duration, executor executor.Executor) (SpleeterSplitter, error) {
	workingDir, err := working_dir.NewWorkingDir(workingDirStr)
	if err != nil {
		return SpleeterSplitter{}, errors.Wrap(err, "Failed to convert working dir to absolute format")
	}

	if err := os.MkdirAll(workingDir.Root(), os.ModePerm); err != nil {
		return SpleeterSplitter{}, errors.Wrap(err, "Failed to create the spleeter working dir")
	}

	return SpleeterSplitter{
		binPath:    binPath,
		workingDir: workingDir,
		timeout:    timeout,
		executor:   executor,
	}, nil
}

type SpleeterSplitter struct {
	binPath    string
	workingDir working_dir.WorkingDir
	timeout    time.Duration
	executor   executor.Executor
}

// Separate invokes spleeter with the two stems model against the input file
// under a hard wall clock timeout. It converts the opaque tool into a small
// closed set of outcomes: both stems, ProcessTimeout, EngineFailure, or
// OutputMissing. Timeouts are not retried - separation is expensive and a
// silent retry would double the cost without addressing the cause.
func (s SpleeterSplitter) Separate(ctx context.Context, inputFilePath string, outputDir string) (sessionentity.StemPaths, error) {
	absInputFilePath, err := filepath.Abs(inputFilePath)
	if err != nil {
		return sessionentity.StemPaths{}, errors.Wrap(err, "Cannot convert input path to absolute format")
	}

	absOutputDir, err := filepath.Abs(outputDir)
	if err != nil {
		return sessionentity.StemPaths{}, errors.Wrap(err, "Cannot convert output dir to absolute format")
	}

	// splitting is a lengthy process, if we want to halt now is the time
	if ctx.Err() != nil {
		return sessionentity.StemPaths{}, errors.Wrap(ctx.Err(), "Context cancelled before separation could happen")
	}

	if err := s.runSpleeter(ctx, absInputFilePath, absOutputDir); err != nil {
		return sessionentity.StemPaths{}, errors.Wrap(err, "Failed to execute spleeter")
	}

	return s.collectStems(absInputFilePath, absOutputDir)
}

func (s SpleeterSplitter) runSpleeter(ctx context.Context, sourcePath string, destPath string) error {
	logger := log.WithFields(log.Fields{
		"sourcePath": sourcePath,
		"destPath":   destPath,
		"workingDir": s.workingDir.Root(),
	})

	logger.Info("Running spleeter command")

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	args := []string{"separate", "-p", twoStemsParam, "-o", destPath, sourcePath}

	cmd := s.executor.CommandContext(ctx, s.binPath, args...)
	cmd.SetDir(s.workingDir.Root())

	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return mark.Wrap(err, ProcessTimeout, "Spleeter exceeded the separation deadline and was terminated")
		}

		return mark.Wrap(err, EngineFailure,
			fmt.Sprintf("Error occurred while running spleeter: %s", diagnosticExcerpt(output)))
	}

	logger.Debug(string(output))
	logger.Info("Finished spleeter command")

	return nil
}

// collectStems verifies the documented output layout:
// <outputDir>/<inputBaseName>/vocals.wav and .../accompaniment.wav.
// A clean exit without both files is an engine contract breach, not an
// ordinary processing failure, and gets logged accordingly.
func (s SpleeterSplitter) collectStems(inputFilePath string, outputDir string) (sessionentity.StemPaths, error) {
	inputFileName := filepath.Base(inputFilePath)
	inputBaseName := strings.TrimSuffix(inputFileName, filepath.Ext(inputFileName))
	stemDir := filepath.Join(outputDir, inputBaseName)

	stemPaths := sessionentity.StemPaths{
		Vocals:       filepath.Join(stemDir, VocalsFileName),
		Instrumental: filepath.Join(stemDir, AccompanimentFileName),
	}

	for _, stemPath := range []string{stemPaths.Vocals, stemPaths.Instrumental} {
		if _, err := os.Stat(stemPath); err != nil {
			log.WithFields(log.Fields{
				"stemPath": stemPath,
				"stemDir":  stemDir,
			}).Error("Spleeter exited cleanly but an expected output file is missing")

			return sessionentity.StemPaths{},
				mark.Wrap(err, OutputMissing, "Separation completed but output files not found")
		}
	}

	return stemPaths, nil
}

// Available probes whether the spleeter binary can be executed at all.
func (s SpleeterSplitter) Available() bool {
	ctx, cancel := context.WithTimeout(context.Background(), availabilityTimeout)
	defer cancel()

	cmd := s.executor.CommandContext(ctx, s.binPath, "--help")
	cmd.SetDir(s.workingDir.Root())

	_, err := cmd.CombinedOutput()
	return err == nil
}

func diagnosticExcerpt(output []byte) string {
	diagnostic := strings.TrimSpace(string(output))
	if len(diagnostic) > maxDiagnosticLen {
		diagnostic = diagnostic[len(diagnostic)-maxDiagnosticLen:]
	}

	return diagnostic
}
