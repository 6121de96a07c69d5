// Package shell provides the shell executor adapter.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
	"go.trai.ch/zerr"
)

// Shell is the interpreter every recipe command runs in.
const Shell = "sh"

// Executor implements ports.Executor using os/exec.
type Executor struct {
	logger ports.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{
		logger: logger,
	}
}

// Execute runs every command of plan, in order, as "sh -c <command>" inside workDir.
// It stops at the first failing command.
//
// The process environment is merged with env; PATH entries in env are prepended
// to the system PATH. Output is logged line by line and copied to stdout and
// stderr when they are not nil.
func (e *Executor) Execute(
	ctx context.Context,
	plan *domain.TaskPlan,
	workDir string,
	env []string,
	stdout, stderr io.Writer,
) error {
	if len(plan.Commands) == 0 {
		return nil
	}

	cmdEnv := resolveEnvironment(os.Environ(), env)

	executable := Shell
	if lp, err := lookPath(Shell, cmdEnv); err == nil {
		executable = lp
	}

	for i, command := range plan.Commands {
		if err := e.run(ctx, executable, command, workDir, cmdEnv, stdout, stderr); err != nil {
			err = zerr.With(err, "index", plan.Index)
			err = zerr.With(err, "step", i+1)
			return zerr.With(err, "command", command)
		}
	}
	return nil
}

func (e *Executor) run(
	ctx context.Context,
	executable, command, workDir string,
	env []string,
	stdout, stderr io.Writer,
) error {
	cmd := exec.CommandContext(ctx, executable, "-c", command) //nolint:gosec // recipe commands are built in-process

	// Restore the original command name in Args[0]
	cmd.Args[0] = Shell
	cmd.Dir = workDir
	cmd.Env = env

	stdoutLog := &logWriter{logger: e.logger, level: "info"}
	stderrLog := &logWriter{logger: e.logger, level: "warn"}
	defer func() {
		_ = stdoutLog.Close()
		_ = stderrLog.Close()
	}()

	cmd.Stdout = tee(stdoutLog, stdout)
	cmd.Stderr = tee(stderrLog, stderr)

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrBuildFailed, err), "command failed"), "exit_code", exitCode)
	}
	return nil
}

func tee(log *logWriter, w io.Writer) io.Writer {
	if w == nil {
		return log
	}
	return io.MultiWriter(log, w)
}

type logWriter struct {
	logger ports.Logger
	level  string
	buf    []byte
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	msg := strings.TrimSuffix(string(line), "\r")

	if w.level == "info" {
		w.logger.Info(msg)
	} else {
		w.logger.Warn(msg)
	}
}

// resolveEnvironment merges the system environment with the build environment.
// The build environment wins, except for PATH which is prepended.
func resolveEnvironment(sysEnv, buildEnv []string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(buildEnv))
	for _, entry := range sysEnv {
		if k, v, ok := strings.Cut(entry, "="); ok {
			envMap[k] = v
		}
	}

	for _, entry := range buildEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if k == "PATH" {
			if sysPath := envMap["PATH"]; sysPath != "" {
				v = v + string(os.PathListSeparator) + sysPath
			}
		}
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

// lookPath searches for an executable in the directories named by the PATH environment variable.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := filepath.Join(dir, file)
		if err := findExecutable(path); err == nil {
			return path, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
