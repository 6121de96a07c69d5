package resolver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports/mocks"
	"go.trai.ch/toolcache/internal/engine/resolver"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

const (
	envLinux = "3f2a9c0d4b5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f708192a3b4c5d6e7f8"
	headTree = "1111111111111111111111111111111111111111"
	oldTree  = "2222222222222222222222222222222222222222"
	oldHead  = "3333333333333333333333333333333333333333"
)

var (
	linux64 = domain.Platform{OS: domain.OSLinux, Arch: domain.ArchX86_64}
	win64   = domain.Platform{OS: domain.OSWindows, Arch: domain.ArchX86_64}
	helper  = domain.HelperConfig{Path: "helper", Version: "3"}
)

type fixture struct {
	history *mocks.MockHistory
	envs    *mocks.MockEnvironmentProvider
	r       *resolver.Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		history: mocks.NewMockHistory(ctrl),
		envs:    mocks.NewMockEnvironmentProvider(ctrl),
	}
	f.r = resolver.New(f.history, f.envs, helper, domain.DefaultPlanOptions())
	return f
}

func request(t *testing.T, spec string, p domain.Platform) domain.Request {
	t.Helper()
	req, err := domain.ParseSpec(spec, p)
	require.NoError(t, err)
	return req
}

func TestResolve_SourceBuildGetsFingerprint(t *testing.T) {
	f := newFixture(t)
	f.envs.EXPECT().Fingerprint(gomock.Any(), linux64).Return(envLinux, nil)

	d, err := f.r.Resolve(context.Background(), request(t, "git@2.18.0", linux64))
	require.NoError(t, err)
	assert.Equal(t, domain.Descriptor{
		Tool: domain.ToolGit, Platform: linux64, Version: "2.18.0", EnvFingerprint: envLinux,
	}, d)
}

func TestResolve_PrebuiltSkipsFingerprint(t *testing.T) {
	f := newFixture(t)

	d, err := f.r.Resolve(context.Background(), request(t, "git@2.18.0", win64))
	require.NoError(t, err)
	assert.Empty(t, d.EnvFingerprint)
}

func TestResolve_HelperUsesHeadTree(t *testing.T) {
	f := newFixture(t)
	f.history.EXPECT().TreeHash(gomock.Any(), "HEAD", "helper").Return(headTree, nil)
	f.envs.EXPECT().Fingerprint(gomock.Any(), linux64).Return(envLinux, nil)

	d, err := f.r.Resolve(context.Background(), request(t, "helper+asan", linux64))
	require.NoError(t, err)
	assert.Equal(t, headTree, d.Version)
	assert.Empty(t, d.Checkout)
	assert.Equal(t, domain.VariantASan, d.Variant.Kind)
}

func TestResolve_HelperExplicitHash(t *testing.T) {
	f := newFixture(t)
	f.history.EXPECT().TreeHash(gomock.Any(), "HEAD", "helper").Return(headTree, nil)
	f.envs.EXPECT().Fingerprint(gomock.Any(), linux64).Return(envLinux, nil)

	d, err := f.r.Resolve(context.Background(), request(t, "helper@"+headTree, linux64))
	require.NoError(t, err)
	assert.Equal(t, headTree, d.Version)
	assert.Empty(t, d.Checkout)
}

func TestResolve_HelperHashOtherThanHead(t *testing.T) {
	f := newFixture(t)
	f.history.EXPECT().TreeHash(gomock.Any(), "HEAD", "helper").Return(headTree, nil).Times(2)

	_, err := f.r.Resolve(context.Background(), request(t, "helper@"+oldTree, linux64))
	require.ErrorIs(t, err, domain.ErrUnresolvedReference)

	_, err = f.r.Plan(context.Background(), request(t, "helper@"+oldTree, linux64))
	require.ErrorIs(t, err, domain.ErrUnresolvedReference)
}

func TestResolve_OldHelper(t *testing.T) {
	f := newFixture(t)
	f.history.EXPECT().IntroducingRevision(gomock.Any(), "#define CMD_VERSION 3").Return(oldHead, nil)
	f.history.EXPECT().TreeHash(gomock.Any(), oldHead, "helper").Return(oldTree, nil)
	f.envs.EXPECT().Fingerprint(gomock.Any(), linux64).Return(envLinux, nil)

	d, err := f.r.Resolve(context.Background(), request(t, "helper+old", linux64))
	require.NoError(t, err)
	assert.Equal(t, oldTree, d.Version)
	assert.Equal(t, oldHead, d.Checkout)
}

func TestResolve_OldHelperPointersConverge(t *testing.T) {
	f := newFixture(t)
	f.history.EXPECT().IntroducingRevision(gomock.Any(), gomock.Any()).Return(oldHead, nil)
	f.history.EXPECT().TreeHash(gomock.Any(), oldHead, "helper").Return(oldTree, nil)
	f.history.EXPECT().TreeHash(gomock.Any(), "v0.5.0", "helper").Return(oldTree, nil)
	f.envs.EXPECT().Fingerprint(gomock.Any(), linux64).Return(envLinux, nil).Times(2)

	viaMarker, err := f.r.Plan(context.Background(), request(t, "helper+old", linux64))
	require.NoError(t, err)
	viaPointer, err := f.r.Plan(context.Background(), request(t, "helper+old:v0.5.0", linux64))
	require.NoError(t, err)

	assert.Equal(t, viaMarker.Index, viaPointer.Index)
	assert.NotEqual(t, viaMarker.Commands, viaPointer.Commands)
}

func TestResolve_OldHelperWithoutVersionConfig(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := resolver.New(mocks.NewMockHistory(ctrl), mocks.NewMockEnvironmentProvider(ctrl),
		domain.HelperConfig{Path: "helper"}, domain.DefaultPlanOptions())

	_, err := r.Resolve(context.Background(), request(t, "helper+old", linux64))
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestResolve_OldHelperRejectsVersion(t *testing.T) {
	f := newFixture(t)

	_, err := f.r.Resolve(context.Background(), request(t, "helper@"+oldTree+"+old", linux64))
	require.ErrorIs(t, err, domain.ErrInvalidSpec)
}

func TestResolve_UnresolvedReference(t *testing.T) {
	f := newFixture(t)
	unresolved := zerr.Wrap(domain.ErrUnresolvedReference, "unknown revision")
	f.history.EXPECT().TreeHash(gomock.Any(), "v9.9.9", "helper").Return("", unresolved)

	_, err := f.r.Resolve(context.Background(), request(t, "helper+old:v9.9.9", linux64))
	require.ErrorIs(t, err, domain.ErrUnresolvedReference)
	assert.False(t, domain.IsConfigError(err))
}

func TestResolve_UnsupportedPlatform(t *testing.T) {
	f := newFixture(t)
	macos := domain.Platform{OS: domain.OSMacOS, Arch: domain.ArchARM64}

	_, err := f.r.Resolve(context.Background(), request(t, "hg@4.6.2", macos))
	require.ErrorIs(t, err, domain.ErrUnsupportedPlatform)
}

func TestResolve_UnknownEnvironment(t *testing.T) {
	f := newFixture(t)
	f.envs.EXPECT().Fingerprint(gomock.Any(), linux64).
		Return("", zerr.Wrap(domain.ErrUnknownEnvironment, "cannot fingerprint environment"))

	_, err := f.r.Resolve(context.Background(), request(t, "hg@4.6.2", linux64))
	require.ErrorIs(t, err, domain.ErrUnknownEnvironment)
}

func TestPlan_HgRevisionDependsOnStable(t *testing.T) {
	f := newFixture(t)
	f.envs.EXPECT().Fingerprint(gomock.Any(), linux64).Return(envLinux, nil)
	sha := "0123456789abcdef0123456789abcdef01234567"

	plan, err := f.r.Plan(context.Background(), request(t, "hg@"+sha, linux64))
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultExpiryPolicy().Revision, plan.Expiry)
	assert.Equal(t, []domain.Request{{Tool: domain.ToolHg, Version: domain.DefaultStableHg, Platform: linux64}}, plan.DependsOn)
}
