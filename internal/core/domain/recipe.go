package domain

import (
	"fmt"
	"strings"
	"time"

	"go.trai.ch/zerr"
	"golang.org/x/mod/semver"
)

const (
	gitRepository   = "git://git.kernel.org/pub/scm/git/git.git"
	hgRepository    = "https://www.mercurial-scm.org/repo/hg"
	hgReleaseURL    = "https://mercurial-scm.org/release/mercurial-%s.tar.gz"
	minGitURL       = "https://github.com/git-for-windows/git/releases/download/v%s/MinGit-%s-%d-bit.zip"
	firstPyPIHg     = "2.6.2"
	helperArtifact  = "git-cinnabar-helper"
	coverageArchive = "coverage.tar.xz"
	unknownVersion  = "unknown"
)

// DefaultStableHg is the Mercurial release installed before building hg from a revision.
const DefaultStableHg = "4.6.2"

// PlanOptions carries the settings a recipe depends on.
type PlanOptions struct {
	Expiry   ExpiryPolicy
	StableHg string
}

// DefaultPlanOptions returns the options used when no configuration is present.
func DefaultPlanOptions() PlanOptions {
	return PlanOptions{
		Expiry:   DefaultExpiryPolicy(),
		StableHg: DefaultStableHg,
	}
}

// TaskPlan is everything an executor needs to build one descriptor.
type TaskPlan struct {
	Index        string        `yaml:"index" json:"index"`
	Description  string        `yaml:"description" json:"description"`
	Expiry       time.Duration `yaml:"expiry" json:"expiry"`
	Commands     []string      `yaml:"commands" json:"commands"`
	Artifacts    []string      `yaml:"artifacts" json:"artifacts"`
	Dependencies []string      `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`

	Descriptor Descriptor `yaml:"-" json:"-"`
	DependsOn  []Request  `yaml:"-" json:"-"`
}

// Supports reports whether the tool has a recipe for the platform.
func Supports(tool Tool, p Platform) bool {
	switch tool {
	case ToolGit, ToolHg:
		return p.OS == OSLinux || p.OS == OSWindows
	case ToolHelper:
		return true
	default:
		return false
	}
}

// Prebuilt reports whether the recipe downloads a published binary instead of
// compiling inside the build environment. Prebuilt indices carry no fingerprint.
func Prebuilt(tool Tool, p Platform) bool {
	return tool == ToolGit && p.OS != OSLinux
}

// PlanTask derives the index and the command recipe of a resolved descriptor.
func PlanTask(d Descriptor, opts PlanOptions) (TaskPlan, error) {
	index, err := DeriveIndex(d)
	if err != nil {
		return TaskPlan{}, err
	}

	plan := TaskPlan{
		Index:       index,
		Description: Describe(d),
		Expiry:      ExpiryFor(d, opts.Expiry),
		Descriptor:  d,
	}

	switch d.Tool {
	case ToolGit:
		planGit(&plan, d)
	case ToolHg:
		if err := planHg(&plan, d, opts); err != nil {
			return TaskPlan{}, err
		}
	case ToolHelper:
		planHelper(&plan, d)
	}

	for _, dep := range plan.DependsOn {
		plan.Dependencies = append(plan.Dependencies, dep.String())
	}

	return plan, nil
}

func checkout(repo, ref string) []string {
	return []string{
		fmt.Sprintf("git clone -n %s repo", repo),
		fmt.Sprintf("git -C repo checkout %s", ref),
	}
}

func planGit(plan *TaskPlan, d Descriptor) {
	if d.Platform.OS == OSLinux {
		artifact := fmt.Sprintf("git-%s.tar.xz", d.Version)
		plan.Commands = append(checkout(gitRepository, "v"+d.Version),
			"make -C repo -j$(nproc) install prefix=/usr"+
				" NO_GETTEXT=1 NO_OPENSSL=1 NO_TCLTK=1 DESTDIR=/tmp/git-install",
			fmt.Sprintf("tar -C /tmp/git-install -Jcf $ARTIFACTS/%s .", artifact),
		)
		plan.Artifacts = []string{artifact}
		return
	}

	release := windowsGitRelease(d.Version)
	minVersion := strings.Replace(strings.TrimSuffix(release, ".windows.1"), "windows.", "", 1)
	artifact := fmt.Sprintf("git-%s.tar.bz2", d.Version)
	plan.Commands = []string{
		fmt.Sprintf("curl -L "+minGitURL+" -o git.zip", release, minVersion, d.Platform.Bits()),
		"unzip -d git git.zip",
		fmt.Sprintf("tar -jcf $ARTIFACTS/%s git", artifact),
	}
	plan.Artifacts = []string{artifact}
}

// windowsGitRelease maps an upstream git version to its git-for-windows release.
func windowsGitRelease(version string) string {
	if strings.Contains(version, "windows") {
		return version
	}
	if version == "2.17.1" {
		return "2.17.1.windows.2"
	}
	return version + ".windows.1"
}

func planHg(plan *TaskPlan, d Descriptor, opts PlanOptions) error {
	revision := IsRevision(d.Version)

	artifactVersion := d.Version
	if revision {
		artifactVersion = unknownVersion
	}
	artifact := fmt.Sprintf("mercurial-%s-cp27-none-linux_x86_64.whl", artifactVersion)
	if d.Platform.OS != OSLinux {
		artifact = fmt.Sprintf("mercurial-%s-cp27-cp27m-mingw.whl", artifactVersion)
	}

	var source string
	switch {
	case revision:
		stable := opts.StableHg
		if stable == "" {
			stable = DefaultStableHg
		}
		// A revision build installs stable hg first, which must not need another hg.
		if kind, err := ClassifyVersion(ToolHg, stable); err != nil || kind != VersionRelease {
			return zerr.With(zerr.Wrap(ErrInvalidConfig, "stable hg must be a release version"), "stable_hg", stable)
		}
		plan.DependsOn = []Request{{Tool: ToolHg, Version: stable, Platform: d.Platform}}
		plan.Commands = append(plan.Commands,
			`python -m pip install "$HG_ARTIFACT"`,
			fmt.Sprintf("hg clone %s -r %s", hgRepository, strings.ToLower(d.Version)),
			"rm -rf hg/.hg",
		)
		source = "./hg"
	case compareVersions(firstPyPIHg, d.Version) <= 0:
		source = "mercurial==" + d.Version
	default:
		source = fmt.Sprintf(hgReleaseURL, d.Version)
	}

	plan.Commands = append(plan.Commands,
		"python -m pip wheel -v --build-option -b --build-option $PWD/wheel -w $ARTIFACTS "+source,
	)
	plan.Artifacts = []string{artifact}
	return nil
}

// compareVersions compares dotted release versions. Versions semver cannot parse
// sort after every parsable one.
func compareVersions(a, b string) int {
	va, vb := "v"+a, "v"+b
	switch {
	case semver.IsValid(va) && semver.IsValid(vb):
		return semver.Compare(va, vb)
	case semver.IsValid(va):
		return -1
	case semver.IsValid(vb):
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func planHelper(plan *TaskPlan, d Descriptor) {
	artifact := helperArtifact
	if d.Platform.OS == OSWindows {
		artifact += ".exe"
	}
	plan.Artifacts = []string{artifact}

	var makeFlags, extra []string
	switch d.Variant.Kind {
	case VariantASan:
		makeFlags = append(makeFlags,
			`CFLAGS="-Og -g -fsanitize=address -fno-omit-frame-pointer"`,
			"LDFLAGS=-static-libasan",
		)
	case VariantCoverage:
		makeFlags = append(makeFlags, `CFLAGS="-coverage"`)
		plan.Artifacts = append(plan.Artifacts, coverageArchive)
		extra = []string{
			"mv repo/git-core/cinnabar*.gcno repo/git-core/connect*.gcno repo/git-core/hg*.gcno repo/helper",
			"(cd repo && tar -Jcf $ARTIFACTS/" + coverageArchive + " helper/cinnabar*.gcno helper/connect*.gcno helper/hg*.gcno)",
		}
	}

	switch d.Platform.OS {
	case OSLinux:
		makeFlags = append(makeFlags, "CURL_COMPAT=1")
	case OSWindows:
		makeFlags = append(makeFlags,
			"USE_LIBPCRE1=YesPlease",
			"USE_LIBPCRE2=",
			"CFLAGS+=-DCURLOPT_PROXY_CAINFO=246",
		)
	}

	ref := d.Checkout
	if ref == "" {
		ref = "HEAD"
	}

	makeCmd := "make -C repo helper -j $(nproc) prefix=/usr"
	if len(makeFlags) > 0 {
		makeCmd += " " + strings.Join(makeFlags, " ")
	}

	plan.Commands = append(checkout(`"$SOURCE_REPO"`, ref),
		makeCmd,
		fmt.Sprintf("mv repo/%s $ARTIFACTS/", artifact),
	)
	plan.Commands = append(plan.Commands, extra...)
}
