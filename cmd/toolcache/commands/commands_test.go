package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/toolcache/cmd/toolcache/commands"
	"go.trai.ch/toolcache/internal/app"
	"go.trai.ch/toolcache/internal/build"
)

type queryCall struct {
	name  string
	specs []string
	opts  app.QueryOptions
}

type mockApp struct {
	queries   []queryCall
	buildFunc func(ctx context.Context, specs []string, opts app.BuildOptions) error
	cleanFunc func(ctx context.Context, opts app.CleanOptions) error
	queryErr  error
}

func (m *mockApp) query(name string, specs []string, opts app.QueryOptions) error {
	m.queries = append(m.queries, queryCall{name: name, specs: specs, opts: opts})
	return m.queryErr
}

func (m *mockApp) Index(_ context.Context, specs []string, opts app.QueryOptions) error {
	return m.query("index", specs, opts)
}

func (m *mockApp) Describe(_ context.Context, specs []string, opts app.QueryOptions) error {
	return m.query("describe", specs, opts)
}

func (m *mockApp) Plan(_ context.Context, specs []string, opts app.QueryOptions) error {
	return m.query("plan", specs, opts)
}

func (m *mockApp) Lookup(_ context.Context, specs []string, opts app.QueryOptions) error {
	return m.query("lookup", specs, opts)
}

func (m *mockApp) Build(ctx context.Context, specs []string, opts app.BuildOptions) error {
	if m.buildFunc != nil {
		return m.buildFunc(ctx, specs, opts)
	}
	return nil
}

func (m *mockApp) Clean(ctx context.Context, opts app.CleanOptions) error {
	if m.cleanFunc != nil {
		return m.cleanFunc(ctx, opts)
	}
	return nil
}

func TestCommands_Queries(t *testing.T) {
	for _, name := range []string{"index", "describe", "plan", "lookup"} {
		t.Run(name, func(t *testing.T) {
			mock := &mockApp{}
			cli := commands.New(mock)
			cli.SetArgs([]string{name, "git@2.18.0", "hg@4.6.2", "--platform", "windows/x86_64"})

			err := cli.Execute(context.Background())
			require.NoError(t, err)
			require.Len(t, mock.queries, 1)
			assert.Equal(t, queryCall{
				name:  name,
				specs: []string{"git@2.18.0", "hg@4.6.2"},
				opts:  app.QueryOptions{Platform: "windows/x86_64"},
			}, mock.queries[0])
		})
	}
}

func TestCommands_Query_Error(t *testing.T) {
	mock := &mockApp{queryErr: errors.New("simulated error")}
	cli := commands.New(mock)
	cli.SetArgs([]string{"index", "git@2.18.0"})
	cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))

	err := cli.Execute(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulated error")
}

func TestCommands_Query_ShowsUsageWithoutSpecs(t *testing.T) {
	mock := &mockApp{}
	cli := commands.New(mock)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"plan"})

	err := cli.Execute(context.Background())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Usage:")
	assert.Empty(t, mock.queries)
}

func TestCommands_Build(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var capturedOpts app.BuildOptions
		var capturedSpecs []string

		mock := &mockApp{
			buildFunc: func(_ context.Context, specs []string, opts app.BuildOptions) error {
				capturedSpecs = specs
				capturedOpts = opts
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"build", "helper+asan", "--force", "-j", "4", "-p", "macos/arm64"})

		err := cli.Execute(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"helper+asan"}, capturedSpecs)
		assert.Equal(t, app.BuildOptions{Platform: "macos/arm64", Force: true, Jobs: 4}, capturedOpts)
	})

	t.Run("shows usage when no specs provided", func(t *testing.T) {
		mock := &mockApp{
			buildFunc: func(_ context.Context, _ []string, _ app.BuildOptions) error {
				panic("should not be called")
			},
		}

		cli := commands.New(mock)
		buf := new(bytes.Buffer)
		cli.SetOutput(buf, buf)
		cli.SetArgs([]string{"build"})

		err := cli.Execute(context.Background())
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "Usage:")
	})
}

func TestCommands_Clean(t *testing.T) {
	tests := []struct {
		args []string
		want app.CleanOptions
	}{
		{args: []string{"clean"}, want: app.CleanOptions{}},
		{args: []string{"clean", "--all"}, want: app.CleanOptions{All: true}},
		{args: []string{"clean", "-a"}, want: app.CleanOptions{All: true}},
	}

	for _, tt := range tests {
		var captured app.CleanOptions
		mock := &mockApp{
			cleanFunc: func(_ context.Context, opts app.CleanOptions) error {
				captured = opts
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs(tt.args)
		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, tt.want, captured, tt.args)
	}
}

func TestCommands_Clean_RejectsArgs(t *testing.T) {
	cli := commands.New(&mockApp{})
	cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))
	cli.SetArgs([]string{"clean", "store"})

	require.Error(t, cli.Execute(context.Background()))
}

func TestCommands_GlobalOptions(t *testing.T) {
	var got commands.GlobalOptions
	tornDown := false

	cli := commands.New(&mockApp{})
	cli.SetSetup(func(_ context.Context, opts commands.GlobalOptions) (func(), error) {
		got = opts
		return func() { tornDown = true }, nil
	})
	cli.SetArgs([]string{"--json", "index", "git@2.18.0", "--trace"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Equal(t, commands.GlobalOptions{JSON: true, Trace: true}, got)
	assert.True(t, tornDown)
}

func TestCommands_GlobalOptions_SetupError(t *testing.T) {
	mock := &mockApp{}
	cli := commands.New(mock)
	cli.SetSetup(func(_ context.Context, _ commands.GlobalOptions) (func(), error) {
		return nil, errors.New("exporter failed")
	})
	cli.SetArgs([]string{"index", "git@2.18.0"})

	err := cli.Execute(context.Background())
	require.Error(t, err)
	assert.Empty(t, mock.queries)
}

func TestCommands_Version(t *testing.T) {
	mock := &mockApp{}
	cli := commands.New(mock)

	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"version"})

	err := cli.Execute(context.Background())
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "toolcache version "+build.Version)
}
