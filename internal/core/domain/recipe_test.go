package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/toolcache/internal/core/domain"
)

func plan(t *testing.T, d domain.Descriptor) domain.TaskPlan {
	t.Helper()
	p, err := domain.PlanTask(d, domain.DefaultPlanOptions())
	require.NoError(t, err)
	return p
}

func TestPlanTask_GitLinux(t *testing.T) {
	p := plan(t, gitLinux("2.18.0"))

	assert.Equal(t, mustIndex(t, gitLinux("2.18.0")), p.Index)
	assert.Equal(t, "git v2.18.0 linux x86_64", p.Description)
	assert.Equal(t, domain.DefaultExpiryPolicy().Release, p.Expiry)
	assert.Equal(t, []string{"git-2.18.0.tar.xz"}, p.Artifacts)
	assert.Contains(t, p.Commands, "git -C repo checkout v2.18.0")
	assert.Empty(t, p.DependsOn)
}

func TestPlanTask_GitWindows(t *testing.T) {
	tests := []struct {
		version string
		url     string
	}{
		{"2.18.0", "v2.18.0.windows.1/MinGit-2.18.0-32-bit.zip"},
		{"2.17.1", "v2.17.1.windows.2/MinGit-2.17.1.2-32-bit.zip"},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			p := plan(t, domain.Descriptor{Tool: domain.ToolGit, Platform: win32, Version: tt.version})
			require.NotEmpty(t, p.Commands)
			assert.Contains(t, p.Commands[0], tt.url)
			assert.Equal(t, []string{"git-" + tt.version + ".tar.bz2"}, p.Artifacts)
			assert.Contains(t, p.Index, ".prebuilt.")
		})
	}
}

func TestPlanTask_HgSources(t *testing.T) {
	tests := []struct {
		version string
		source  string
	}{
		{"4.6.2", "mercurial==4.6.2"},
		{"2.6.2", "mercurial==2.6.2"},
		{"2.6.1", "https://mercurial-scm.org/release/mercurial-2.6.1.tar.gz"},
		{"1.9.3", "https://mercurial-scm.org/release/mercurial-1.9.3.tar.gz"},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			p := plan(t, domain.Descriptor{Tool: domain.ToolHg, Platform: linux64, Version: tt.version, EnvFingerprint: envLinux})
			require.Len(t, p.Commands, 1)
			assert.True(t, strings.HasSuffix(p.Commands[0], " "+tt.source), p.Commands[0])
			assert.Equal(t, []string{"mercurial-" + tt.version + "-cp27-none-linux_x86_64.whl"}, p.Artifacts)
		})
	}
}

func TestPlanTask_HgRevision(t *testing.T) {
	d := domain.Descriptor{Tool: domain.ToolHg, Platform: win64, Version: sha1, EnvFingerprint: envWin}
	p := plan(t, d)

	assert.Equal(t, domain.DefaultExpiryPolicy().Revision, p.Expiry)
	assert.Equal(t, []domain.Request{{Tool: domain.ToolHg, Version: domain.DefaultStableHg, Platform: win64}}, p.DependsOn)
	assert.Equal(t, []string{"hg@" + domain.DefaultStableHg}, p.Dependencies)
	assert.Equal(t, []string{"mercurial-unknown-cp27-cp27m-mingw.whl"}, p.Artifacts)
	assert.Contains(t, p.Commands, "hg clone https://www.mercurial-scm.org/repo/hg -r "+sha1)
}

func TestPlanTask_HgRevisionNeedsReleaseStableHg(t *testing.T) {
	d := domain.Descriptor{Tool: domain.ToolHg, Platform: linux64, Version: sha1, EnvFingerprint: envLinux}

	for _, stable := range []string{sha1, sha2} {
		opts := domain.DefaultPlanOptions()
		opts.StableHg = stable
		_, err := domain.PlanTask(d, opts)
		require.ErrorIs(t, err, domain.ErrInvalidConfig)
		assert.True(t, domain.IsConfigError(err))
	}

	// Release builds never install stable hg, so the setting does not matter.
	release := d
	release.Version = "4.6.2"
	opts := domain.DefaultPlanOptions()
	opts.StableHg = sha1
	_, err := domain.PlanTask(release, opts)
	require.NoError(t, err)
}

func TestPlanTask_HelperVariants(t *testing.T) {
	base := domain.Descriptor{Tool: domain.ToolHelper, Platform: linux64, Version: sha1, EnvFingerprint: envLinux}

	plain := plan(t, base)
	assert.Equal(t, []string{"git-cinnabar-helper"}, plain.Artifacts)
	assert.Contains(t, plain.Commands, "git -C repo checkout HEAD")

	coverage := base
	coverage.Variant = domain.Variant{Kind: domain.VariantCoverage}
	cp := plan(t, coverage)
	assert.Equal(t, []string{"git-cinnabar-helper", "coverage.tar.xz"}, cp.Artifacts)

	asan := base
	asan.Variant = domain.Variant{Kind: domain.VariantASan}
	ap := plan(t, asan)
	assert.True(t, slicesContainSubstring(ap.Commands, "-fsanitize=address"))

	old := base
	old.Variant = domain.Variant{Kind: domain.VariantOld}
	old.Checkout = sha2
	op := plan(t, old)
	assert.Equal(t, plain.Index, op.Index)
	assert.Contains(t, op.Commands, "git -C repo checkout "+sha2)

	windows := base
	windows.Platform = win64
	windows.EnvFingerprint = envWin
	wp := plan(t, windows)
	assert.Equal(t, []string{"git-cinnabar-helper.exe"}, wp.Artifacts)
	assert.True(t, slicesContainSubstring(wp.Commands, "USE_LIBPCRE1=YesPlease"))
}

func TestPlanTask_InvalidDescriptor(t *testing.T) {
	_, err := domain.PlanTask(domain.Descriptor{Tool: domain.ToolHg, Platform: linux64, Version: "4.6.2"}, domain.DefaultPlanOptions())
	require.ErrorIs(t, err, domain.ErrMissingEnvFingerprint)
}

func slicesContainSubstring(lines []string, sub string) bool {
	for _, l := range lines {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}
