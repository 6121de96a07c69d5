package shell_test

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/toolcache/internal/adapters/shell"
	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
	"go.trai.ch/toolcache/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

var _ ports.Executor = (*shell.Executor)(nil)

func quietLogger(ctrl *gomock.Controller) *mocks.MockLogger {
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	return log
}

func TestExecutor_Execute_RunsCommandsInOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	executor := shell.NewExecutor(quietLogger(ctrl))
	workDir := t.TempDir()

	plan := &domain.TaskPlan{
		Index: "git.linux.x86_64.abc.v2.18.0",
		Commands: []string{
			"mkdir out",
			"echo built > out/result",
			"cat out/result",
		},
	}

	var stdout bytes.Buffer
	err := executor.Execute(context.Background(), plan, workDir, nil, &stdout, nil)
	require.NoError(t, err)

	assert.Equal(t, "built\n", stdout.String())
	assert.FileExists(t, filepath.Join(workDir, "out", "result"))
}

func TestExecutor_Execute_Environment(t *testing.T) {
	ctrl := gomock.NewController(t)
	executor := shell.NewExecutor(quietLogger(ctrl))

	plan := &domain.TaskPlan{Commands: []string{`echo "$ARTIFACTS"`}}

	var stdout bytes.Buffer
	err := executor.Execute(context.Background(), plan, t.TempDir(), []string{"ARTIFACTS=/tmp/out"}, &stdout, nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/out\n", stdout.String())
}

func TestExecutor_Execute_CoverageRecipe(t *testing.T) {
	for _, tool := range []string{"tar", "xz"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not available", tool)
		}
	}

	d := domain.Descriptor{
		Tool:           domain.ToolHelper,
		Platform:       domain.Platform{OS: domain.OSLinux, Arch: domain.ArchX86_64},
		Version:        "0123456789abcdef0123456789abcdef01234567",
		Variant:        domain.Variant{Kind: domain.VariantCoverage},
		EnvFingerprint: "3f2a9c0d4b5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f8",
	}
	plan, err := domain.PlanTask(d, domain.DefaultPlanOptions())
	require.NoError(t, err)

	// Only the commands that collect coverage notes, the rest needs a checkout.
	coverage := &domain.TaskPlan{Index: plan.Index}
	for _, command := range plan.Commands {
		if strings.Contains(command, ".gcno") {
			coverage.Commands = append(coverage.Commands, command)
		}
	}
	require.Len(t, coverage.Commands, 2)

	workDir := t.TempDir()
	gitCore := filepath.Join(workDir, "repo", "git-core")
	require.NoError(t, os.MkdirAll(gitCore, 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(workDir, "repo", "helper"), 0o750))
	for _, name := range []string{"cinnabar-helper.gcno", "connect.gcno", "hg-bundle.gcno", "unrelated.gcno"} {
		require.NoError(t, os.WriteFile(filepath.Join(gitCore, name), nil, 0o600))
	}
	artifacts := filepath.Join(workDir, "artifacts")
	require.NoError(t, os.MkdirAll(artifacts, 0o750))

	ctrl := gomock.NewController(t)
	executor := shell.NewExecutor(quietLogger(ctrl))
	err = executor.Execute(context.Background(), coverage, workDir, []string{"ARTIFACTS=" + artifacts}, nil, nil)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(workDir, "repo", "helper", "cinnabar-helper.gcno"))
	assert.FileExists(t, filepath.Join(workDir, "repo", "helper", "connect.gcno"))
	assert.FileExists(t, filepath.Join(workDir, "repo", "helper", "hg-bundle.gcno"))
	assert.FileExists(t, filepath.Join(gitCore, "unrelated.gcno"))
	assert.FileExists(t, filepath.Join(artifacts, "coverage.tar.xz"))
}

func TestExecutor_Execute_LogsOutput(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info("line1")
	log.EXPECT().Info("line2")
	log.EXPECT().Warn("partial")

	executor := shell.NewExecutor(log)
	plan := &domain.TaskPlan{Commands: []string{"echo line1; echo line2; printf partial >&2"}}

	var stderr bytes.Buffer
	err := executor.Execute(context.Background(), plan, t.TempDir(), nil, nil, &stderr)
	require.NoError(t, err)
	assert.Equal(t, "partial", stderr.String())
}

func TestExecutor_Execute_StopsAtFirstFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	executor := shell.NewExecutor(quietLogger(ctrl))
	workDir := t.TempDir()

	plan := &domain.TaskPlan{
		Index:    "hg.linux.x86_64.abc.v4.6.2",
		Commands: []string{"exit 3", "touch never"},
	}

	err := executor.Execute(context.Background(), plan, workDir, nil, nil, nil)
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrBuildFailed)
	assert.NoFileExists(t, filepath.Join(workDir, "never"))

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	meta := zErr.Metadata()
	assert.Equal(t, 3, meta["exit_code"])
	assert.Equal(t, 1, meta["step"])
	assert.Equal(t, "exit 3", meta["command"])
	assert.Equal(t, plan.Index, meta["index"])
}

func TestExecutor_Execute_EmptyPlan(t *testing.T) {
	ctrl := gomock.NewController(t)
	executor := shell.NewExecutor(mocks.NewMockLogger(ctrl))

	err := executor.Execute(context.Background(), &domain.TaskPlan{}, t.TempDir(), nil, nil, nil)
	require.NoError(t, err)
}

func TestExecutor_Execute_Canceled(t *testing.T) {
	ctrl := gomock.NewController(t)
	executor := shell.NewExecutor(quietLogger(ctrl))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := executor.Execute(ctx, &domain.TaskPlan{Commands: []string{"true"}}, t.TempDir(), nil, nil, nil)
	require.ErrorIs(t, err, domain.ErrBuildFailed)
}

func TestResolveEnvironment(t *testing.T) {
	sysEnv := []string{"PATH=/usr/bin", "HOME=/home/user", "LANG=C"}
	buildEnv := []string{"PATH=/opt/toolchain/bin", "LANG=en_US.UTF-8", "ARTIFACTS=/out", "INVALID"}

	got := shell.ResolveEnvironment(sysEnv, buildEnv)

	assert.Equal(t, []string{
		"ARTIFACTS=/out",
		"HOME=/home/user",
		"LANG=en_US.UTF-8",
		"PATH=/opt/toolchain/bin" + string(os.PathListSeparator) + "/usr/bin",
	}, got)
}
